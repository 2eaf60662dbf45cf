// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/taibuivan/quill/internal/platform/sec"
	"github.com/taibuivan/quill/internal/platform/validate"
	"github.com/taibuivan/quill/pkg/uuid"
)

// # Contracts & Types

// PasswordHasher hashes and verifies plain-text passwords.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Verify(plainTextPassword, existingHash string) bool
}

// RoleCatalog resolves a role name to its id.
type RoleCatalog interface {
	IDByName(context context.Context, name string) (string, error)
}

// Service implements registration and credential checks.
type Service struct {
	userRepository UserRepository
	roleCatalog    RoleCatalog
	hasher         PasswordHasher
}

// NewService constructs a new [Service] with its dependencies.
func NewService(users UserRepository, roles RoleCatalog, hasher PasswordHasher) *Service {
	return &Service{
		userRepository: users,
		roleCatalog:    roles,
		hasher:         hasher,
	}
}

// # Registration Flow

// SignUpInput holds the data required to enroll a new identity.
type SignUpInput struct {
	Email    string
	Password string
}

/*
SignUp hashes the password and persists a new identity holding the default role.

Parameters:
  - context: context.Context
  - input: SignUpInput

Returns:
  - *User: Created entity
  - error: ErrDuplicateEmail, or storage errors
*/
func (service *Service) SignUp(context context.Context, input SignUpInput) (*User, error) {

	// Email uniqueness is enforced by the storage constraint.
	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	defaultRoleID, err := service.roleCatalog.IDByName(context, sec.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("auth_service_default_role_failed: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        validate.NormalizeEmail(input.Email),
		PasswordHash: hashedPassword,
		Roles:        []string{defaultRoleID},
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_sign_up_failed: %w", err)
	}

	return user, nil
}

/*
FederatedSignUp returns the identity registered under email, creating a
password-less one holding the default role when none exists.

Description: An existing password account with the same email is reused, so
signing in through a provider never forks an identity.

Returns:
  - *User: Existing or created entity
  - error: storage errors
*/
func (service *Service) FederatedSignUp(context context.Context, email string) (*User, error) {
	email = validate.NormalizeEmail(email)

	existing, err := service.userRepository.FindByEmail(context, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return nil, fmt.Errorf("auth_service_federated_lookup_failed: %w", err)
	}

	defaultRoleID, err := service.roleCatalog.IDByName(context, sec.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("auth_service_default_role_failed: %w", err)
	}

	user := &User{
		ID:    uuid.New(),
		Email: email,
		Roles: []string{defaultRoleID},
	}

	if err := service.userRepository.Create(context, user); err != nil {
		// A concurrent callback for the same email created it first.
		if errors.Is(err, ErrDuplicateEmail) {
			return service.userRepository.FindByEmail(context, email)
		}
		return nil, fmt.Errorf("auth_service_federated_sign_up_failed: %w", err)
	}

	return user, nil
}

// # Authentication Flow

/*
ValidateCredentials returns the identity matching email and password.

Description: Unknown emails, wrong passwords and password-less (federated)
identities all yield the same ErrInvalidCredentials.

Returns:
  - *User: The matching identity
  - error: ErrInvalidCredentials or storage errors
*/
func (service *Service) ValidateCredentials(context context.Context, email, password string) (*User, error) {
	user, err := service.userRepository.FindByEmail(context, validate.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth_service_credentials_lookup_failed: %w", err)
	}

	if !user.HasPassword() || !service.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
