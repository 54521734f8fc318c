// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sdss/valis/internal/config"
)

// Authenticator verifies login credentials against the configured admin
// account. The stored password is either a bcrypt hash (recognized by its
// $2 prefix) or, for development setups, a plain value compared in
// constant time.
type Authenticator struct {
	username string
	password string
}

// NewAuthenticator creates a credential verifier from the security
// configuration.
func NewAuthenticator(cfg *config.SecurityConfig) (*Authenticator, error) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil, fmt.Errorf("security.admin_username and security.admin_password are required for login")
	}
	return &Authenticator{
		username: cfg.AdminUsername,
		password: cfg.AdminPassword,
	}, nil
}

// Verify reports whether the supplied credentials are valid.
func (a *Authenticator) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1

	var passOK bool
	if strings.HasPrefix(a.password, "$2") {
		passOK = bcrypt.CompareHashAndPassword([]byte(a.password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	}

	return userOK && passOK
}

// HashPassword produces a bcrypt hash suitable for the admin_password
// setting.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
