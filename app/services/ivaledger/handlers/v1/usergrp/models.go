package usergrp

import (
	"time"

	"github.com/xlerion/ivachain/business/core/user"
)

// appUser is the user returned to clients. It never carries the hash.
type appUser struct {
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	DateCreated string `json:"date_created"`
}

func toAppUser(usr user.User) appUser {
	return appUser{
		Username:    usr.Username,
		FullName:    usr.FullName,
		Email:       usr.Email,
		DateCreated: usr.DateCreated.Format(time.RFC3339),
	}
}

// login is the body of a login request.
type login struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
