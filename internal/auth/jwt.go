// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

// Package auth implements JWT-based authentication for the valis API:
// token generation and validation, credential verification, and the
// Authenticate middleware guarding protected endpoints.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sdss/valis/internal/config"
)

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	// AccessToken authorizes API requests.
	AccessToken TokenType = "access"
	// RefreshToken can only be exchanged for a new token pair.
	RefreshToken TokenType = "refresh"
)

// Claims are the JWT claims carried by valis tokens.
type Claims struct {
	Username  string    `json:"username"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager creates and validates JWT tokens. Tokens are signed with
// HMAC-SHA256; the secret is kept as []byte for the signer.
type JWTManager struct {
	secret          []byte
	tokenLifetime   time.Duration
	refreshLifetime time.Duration
}

// NewJWTManager creates a token manager from the security configuration.
// The secret must be non-empty; length is enforced by config validation in
// production environments.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("security.jwt_secret is required but was empty")
	}
	return &JWTManager{
		secret:          []byte(cfg.JWTSecret),
		tokenLifetime:   cfg.TokenLifetime,
		refreshLifetime: cfg.RefreshLifetime,
	}, nil
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// GenerateTokenPair creates a new access/refresh token pair for an
// authenticated user.
func (m *JWTManager) GenerateTokenPair(username string) (*TokenPair, error) {
	access, err := m.generate(username, AccessToken, m.tokenLifetime)
	if err != nil {
		return nil, err
	}
	refresh, err := m.generate(username, RefreshToken, m.refreshLifetime)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *JWTManager) generate(username string, typ TokenType, lifetime time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username:  username,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, algorithm, and time claims, and returns
// the embedded claims. Tokens signed with any algorithm other than HMAC
// are rejected to prevent algorithm confusion.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// Refresh exchanges a valid refresh token for a new token pair. An access
// token is not accepted here, so a leaked access token cannot be used to
// extend a session.
func (m *JWTManager) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := m.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != RefreshToken {
		return nil, fmt.Errorf("token is not a refresh token")
	}
	return m.GenerateTokenPair(claims.Username)
}
