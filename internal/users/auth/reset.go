// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/quill/internal/platform/apperr"
	"github.com/taibuivan/quill/internal/platform/constants"
	"github.com/taibuivan/quill/internal/platform/validate"
	"github.com/taibuivan/quill/pkg/uuid"
)

// ResetNotifier delivers the reset link to the identity's mailbox.
type ResetNotifier interface {
	SendPasswordReset(context context.Context, to, link string) error
}

// ResetFlow issues, validates and consumes password reset tokens.
//
// A token is "<uuid>|<expiry unix millis>". It stays usable until it is
// consumed or replaced, or until its expiry passes.
type ResetFlow struct {
	userRepository UserRepository
	hasher         PasswordHasher
	notifier       ResetNotifier
	ttl            time.Duration
	linkBase       string
	now            func() time.Time
	logger         *slog.Logger
}

// NewResetFlow creates a ResetFlow. apiURL is the public base URL the
// emailed link points at.
func NewResetFlow(users UserRepository, hasher PasswordHasher, notifier ResetNotifier, ttl time.Duration, apiURL string, logger *slog.Logger) *ResetFlow {
	return &ResetFlow{
		userRepository: users,
		hasher:         hasher,
		notifier:       notifier,
		ttl:            ttl,
		linkBase:       strings.TrimRight(apiURL, "/") + constants.ResetTokenCookiePath,
		now:            time.Now,
		logger:         logger,
	}
}

// WithClock replaces the time source used to mint and check expiries.
func (flow *ResetFlow) WithClock(now func() time.Time) *ResetFlow {
	flow.now = now
	return flow
}

// TTL reports how long an issued token stays valid.
func (flow *ResetFlow) TTL() time.Duration { return flow.ttl }

/*
RequestLink stores a fresh reset token on the identity and mails the link.

Description: Any earlier token for the same identity stops working. Mail
delivery failures are logged and not reported to the caller.

Returns:
  - error: ErrIdentityNotFound for unknown emails, or storage errors
*/
func (flow *ResetFlow) RequestLink(context context.Context, email string) error {
	user, err := flow.userRepository.FindByEmail(context, validate.NormalizeEmail(email))
	if err != nil {
		return err
	}

	expiry := flow.now().Add(flow.ttl).UnixMilli()
	token := uuid.NewRandom() + resetTokenSeparator + strconv.FormatInt(expiry, 10)

	if err := flow.userRepository.SetResetToken(context, user.ID, token); err != nil {
		return fmt.Errorf("auth_reset_store_token_failed: %w", err)
	}

	link := flow.linkBase + "?" + url.Values{FieldToken: {token}}.Encode()
	if err := flow.notifier.SendPasswordReset(context, user.Email, link); err != nil {
		flow.logger.WarnContext(context, "reset_link_delivery_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	return nil
}

/*
ValidateToken returns the identity holding token if the token is still in its window.

Returns:
  - *User: The identity
  - error: ErrIdentityNotFound, ErrResetTokenMalformed, or ErrResetTokenExpired
*/
func (flow *ResetFlow) ValidateToken(context context.Context, token string) (*User, error) {
	user, err := flow.userRepository.FindByResetToken(context, token)
	if err != nil {
		return nil, err
	}

	expiry, err := resetTokenExpiry(token)
	if err != nil {
		return nil, err
	}

	if flow.now().UnixMilli() > expiry {
		return nil, ErrResetTokenExpired
	}

	return user, nil
}

/*
SetNewPassword validates token, stores the new password hash and clears the token.

Returns:
  - *User: The identity with its new hash
  - error: Any ValidateToken error, or ErrIdentityNotFound if the token was consumed concurrently
*/
func (flow *ResetFlow) SetNewPassword(context context.Context, token, password string) (*User, error) {
	user, err := flow.ValidateToken(context, token)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := flow.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("auth_reset_hash_failed: %w", err)
	}

	if err := flow.userRepository.CompletePasswordReset(context, user.ID, token, hashedPassword); err != nil {
		return nil, fmt.Errorf("auth_reset_complete_failed: %w", err)
	}

	user.PasswordHash = hashedPassword
	user.ResetToken = ""

	return user, nil
}

// resetTokenExpiry extracts the expiry (unix millis) from the second
// "|"-separated segment.
func resetTokenExpiry(token string) (int64, error) {
	parts := strings.Split(token, resetTokenSeparator)
	if len(parts) < 2 || parts[1] == "" {
		return 0, malformedReset("missing expiry")
	}

	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, malformedReset("expiry is not a number")
	}

	return expiry, nil
}

func malformedReset(reason string) *apperr.AppError {
	return apperr.New(ErrResetTokenMalformed.Code, "Malformed reset password token: "+reason, ErrResetTokenMalformed.HTTPStatus)
}
