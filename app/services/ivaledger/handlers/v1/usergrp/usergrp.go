// Package usergrp maintains the group of handlers for user access.
package usergrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/xlerion/ivachain/business/core/user"
	"github.com/xlerion/ivachain/business/sys/validate"
	"github.com/xlerion/ivachain/business/web/errs"
	"github.com/xlerion/ivachain/foundation/web"
)

// Handlers manages the set of user endpoints.
type Handlers struct {
	User *user.Core
}

// Register adds a new user to the registry.
func (h Handlers) Register(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nu user.NewUser
	if err := web.Decode(r, &nu); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	usr, err := h.User.Register(ctx, nu)
	if err != nil {
		if errors.Is(err, user.ErrUniqueUsername) || errors.Is(err, user.ErrUniqueEmail) {
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return fmt.Errorf("register: %w", err)
	}

	return web.Respond(ctx, w, toAppUser(usr), http.StatusCreated)
}

// Login checks the username and password pair and returns the user.
func (h Handlers) Login(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var lg login
	if err := web.Decode(r, &lg); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(lg); err != nil {
		return err
	}

	usr, err := h.User.Authenticate(ctx, lg.Username, lg.Password)
	if err != nil {
		if errors.Is(err, user.ErrAuthentication) {
			return errs.NewTrusted(err, http.StatusUnauthorized)
		}
		return fmt.Errorf("authenticate: %w", err)
	}

	return web.Respond(ctx, w, toAppUser(usr), http.StatusOK)
}
