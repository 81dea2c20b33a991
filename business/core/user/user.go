// Package user provides the registry of users that record invoices. It is
// not a credential system, there are no sessions or tokens.
package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xlerion/ivachain/business/sys/validate"
	"github.com/xlerion/ivachain/foundation/kvstore"
	"golang.org/x/crypto/bcrypt"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound       = errors.New("user not found")
	ErrUniqueUsername = errors.New("username already exists")
	ErrUniqueEmail    = errors.New("email already exists")
	ErrAuthentication = errors.New("authentication failed")
)

// Core manages the set of APIs for user access.
type Core struct {
	store kvstore.Store
	mu    sync.Mutex
}

// NewCore constructs a core for user api access.
func NewCore(store kvstore.Store) *Core {
	return &Core{
		store: store,
	}
}

// Register validates and stores a new user. The username and email are
// lower cased and must both be unique.
func (c *Core) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := validate.Check(nu); err != nil {
		return User{}, fmt.Errorf("validating data: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("generating password hash: %w", err)
	}

	usr := User{
		Username:     strings.ToLower(strings.TrimSpace(nu.Username)),
		FullName:     nu.FullName,
		Email:        strings.ToLower(strings.TrimSpace(nu.Email)),
		PasswordHash: hash,
		DateCreated:  time.Now().UTC(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.store.Get(ctx, userKey(usr.Username)); err == nil {
		return User{}, ErrUniqueUsername
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		return User{}, fmt.Errorf("query username: %w", err)
	}

	if _, err := c.store.Get(ctx, emailKey(usr.Email)); err == nil {
		return User{}, ErrUniqueEmail
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		return User{}, fmt.Errorf("query email: %w", err)
	}

	data, err := json.Marshal(usr)
	if err != nil {
		return User{}, fmt.Errorf("marshal: %w", err)
	}

	// The email index goes first and is removed again if the user record
	// can't be stored, so a failed registration leaves neither key behind.
	if err := c.store.Put(ctx, emailKey(usr.Email), []byte(usr.Username)); err != nil {
		return User{}, fmt.Errorf("store email: %w", err)
	}

	if err := c.store.Put(ctx, userKey(usr.Username), data); err != nil {
		if derr := c.store.Delete(ctx, emailKey(usr.Email)); derr != nil {
			return User{}, fmt.Errorf("store user: %w", errors.Join(err, fmt.Errorf("remove email: %w", derr)))
		}
		return User{}, fmt.Errorf("store user: %w", err)
	}

	return usr, nil
}

// QueryByUsername gets the specified user from the store.
func (c *Core) QueryByUsername(ctx context.Context, username string) (User, error) {
	data, err := c.store.Get(ctx, userKey(strings.ToLower(strings.TrimSpace(username))))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("query: %w", err)
	}

	var usr User
	if err := json.Unmarshal(data, &usr); err != nil {
		return User{}, fmt.Errorf("unmarshal: %w", err)
	}

	return usr, nil
}

// Authenticate finds a user by their username and verifies their password.
// On success it returns the user.
func (c *Core) Authenticate(ctx context.Context, username string, password string) (User, error) {
	usr, err := c.QueryByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrAuthentication
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(usr.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrAuthentication
	}

	return usr, nil
}

func userKey(username string) string {
	return "users/" + username
}

func emailKey(email string) string {
	return "emails/" + email
}
