// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. Access and refresh tokens are produced by two independent
// [TokenCodec] instances, each holding its own HMAC secret, so a token of one
// kind can never be verified as the other.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taibuivan/quill/pkg/uuid"
)

// ErrTokenInvalid is returned for any token that fails signature, expiry,
// issuer or kind checks. The wrapped cause is meant for logs only.
var ErrTokenInvalid = errors.New("sec: token invalid")

// TokenKind distinguishes the two token families.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// AuthClaims represents the payload embedded inside a session token.
//
// Roles is a snapshot of role ids taken when the token was signed. Names are
// resolved at authorization time, so renaming a role takes effect immediately
// while membership changes only show up after the next sign-in.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID string    `json:"uid"`
	Email  string    `json:"email"`
	Roles  []string  `json:"roles"`
	Kind   TokenKind `json:"typ"`
}

// Payload is the identity snapshot a token is signed for.
type Payload struct {
	UserID string
	Email  string
	Roles  []string
}

// PayloadFrom rebuilds the snapshot carried by verified claims.
func PayloadFrom(claims *AuthClaims) Payload {
	return Payload{UserID: claims.UserID, Email: claims.Email, Roles: claims.Roles}
}

// TokenCodec signs and verifies HS256 tokens of a single [TokenKind].
type TokenCodec struct {
	secret []byte
	issuer string
	kind   TokenKind
	now    func() time.Time
}

// NewTokenCodec creates a codec for the given kind. The secret must not be empty.
func NewTokenCodec(secret, issuer string, kind TokenKind) (*TokenCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: empty secret for %s tokens", kind)
	}
	return &TokenCodec{
		secret: []byte(secret),
		issuer: issuer,
		kind:   kind,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source used for iat/exp and for verification.
func (codec *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	codec.now = now
	return codec
}

// Kind reports which token family this codec handles.
func (codec *TokenCodec) Kind() TokenKind { return codec.kind }

// Sign produces a token for payload that expires after timeToLive.
func (codec *TokenCodec) Sign(payload Payload, timeToLive time.Duration) (string, error) {
	currentTime := codec.now()

	// Each token carries a unique jti, so two tokens signed within the same
	// second for the same identity still differ.
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Subject:   payload.UserID,
			Issuer:    codec.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID: payload.UserID,
		Email:  payload.Email,
		Roles:  payload.Roles,
		Kind:   codec.kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign %s token: %w", codec.kind, err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature, expiry, issuer and kind of a token string.
func (codec *TokenCodec) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (any, error) {
		return codec.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(codec.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(codec.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Kind != codec.kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenInvalid, codec.kind, claims.Kind)
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}

	return claims, nil
}
