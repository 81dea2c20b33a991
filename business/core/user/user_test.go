package user_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xlerion/ivachain/business/core/user"
	"github.com/xlerion/ivachain/business/sys/validate"
	"github.com/xlerion/ivachain/foundation/kvstore"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// flakyStore fails every Put on a user record while failUsers is set.
type flakyStore struct {
	*kvstore.Memory
	failUsers bool
}

func (f *flakyStore) Put(ctx context.Context, key string, value []byte) error {
	if f.failUsers && strings.HasPrefix(key, "users/") {
		return errors.New("disk full")
	}
	return f.Memory.Put(ctx, key, value)
}

func Test_User(t *testing.T) {
	t.Log("Given the need to register and authenticate users.")
	{
		ctx := context.Background()
		core := user.NewCore(kvstore.NewMemory())

		nu := user.NewUser{
			Username: "  AnaG ",
			FullName: "Ana Gómez",
			Email:    "Ana@Example.com",
			Password: "s3cret-pass",
		}

		usr, err := core.Register(ctx, nu)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to register a user: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to register a user.", success)

		if usr.Username != "anag" || usr.Email != "ana@example.com" {
			t.Fatalf("\t%s\tShould lower case the username and email: %s %s", failed, usr.Username, usr.Email)
		}
		t.Logf("\t%s\tShould lower case the username and email.", success)

		if string(usr.PasswordHash) == nu.Password {
			t.Fatalf("\t%s\tShould not store the password in clear.", failed)
		}
		t.Logf("\t%s\tShould not store the password in clear.", success)

		dup := nu
		dup.Email = "other@example.com"
		if _, err := core.Register(ctx, dup); !errors.Is(err, user.ErrUniqueUsername) {
			t.Fatalf("\t%s\tShould reject a taken username: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a taken username.", success)

		dup = nu
		dup.Username = "other"
		if _, err := core.Register(ctx, dup); !errors.Is(err, user.ErrUniqueEmail) {
			t.Fatalf("\t%s\tShould reject a taken email: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a taken email.", success)

		if _, err := core.Register(ctx, user.NewUser{Username: "x", Email: "bad"}); !validate.IsFieldErrors(err) {
			t.Fatalf("\t%s\tShould reject invalid fields: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject invalid fields.", success)

		got, err := core.Authenticate(ctx, "ANAG", "s3cret-pass")
		if err != nil || got.FullName != nu.FullName {
			t.Fatalf("\t%s\tShould authenticate with the right password: %v", failed, err)
		}
		t.Logf("\t%s\tShould authenticate with the right password.", success)

		if _, err := core.Authenticate(ctx, "anag", "wrong-pass"); !errors.Is(err, user.ErrAuthentication) {
			t.Fatalf("\t%s\tShould fail with the wrong password: %v", failed, err)
		}
		if _, err := core.Authenticate(ctx, "nobody", "s3cret-pass"); !errors.Is(err, user.ErrAuthentication) {
			t.Fatalf("\t%s\tShould fail for an unknown user: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail authentication otherwise.", success)
	}
}

func Test_RegisterStoreFailure(t *testing.T) {
	t.Log("Given the need to leave no partial user behind when a write fails.")
	{
		ctx := context.Background()
		store := flakyStore{Memory: kvstore.NewMemory(), failUsers: true}
		core := user.NewCore(&store)

		nu := user.NewUser{
			Username: "luis",
			FullName: "Luis Pérez",
			Email:    "luis@example.com",
			Password: "s3cret-pass",
		}

		if _, err := core.Register(ctx, nu); err == nil {
			t.Fatalf("\t%s\tShould fail when the user record can't be stored.", failed)
		}
		t.Logf("\t%s\tShould fail when the user record can't be stored.", success)

		if _, err := store.Get(ctx, "emails/luis@example.com"); !errors.Is(err, kvstore.ErrNotFound) {
			t.Fatalf("\t%s\tShould remove the email index again: %v", failed, err)
		}
		t.Logf("\t%s\tShould remove the email index again.", success)

		store.failUsers = false
		if _, err := core.Register(ctx, nu); err != nil {
			t.Fatalf("\t%s\tShould be able to register once the store recovers: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to register once the store recovers.", success)
	}
}
