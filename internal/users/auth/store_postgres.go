// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/quill/internal/platform/database/schema"
	"github.com/taibuivan/quill/internal/platform/dberr"
	"github.com/taibuivan/quill/internal/platform/postgres"
	"github.com/taibuivan/quill/pkg/pointer"
)

var (
	account     = schema.UserAccount
	userColumns = strings.Join(account.Columns(), ", ")
)

// scanUser hydrates an identity from a row selected with userColumns.
func scanUser(row pgx.Row) (*User, error) {
	var (
		user                                User
		passwordHash, avatarKey, resetToken *string
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&passwordHash,
		&user.Roles,
		&avatarKey,
		&resetToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = pointer.Val(passwordHash)
	user.AvatarKey = pointer.Val(avatarKey)
	user.ResetToken = pointer.Val(resetToken)

	return &user, nil
}

// # User Repository

// PostgresUserRepository implements [UserRepository] on users.account.
type PostgresUserRepository struct {
	db postgres.Querier
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(db postgres.Querier) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

/*
Create persists a new identity into the users.account table.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: ErrDuplicateEmail on the email unique constraint, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		account.Table,
		account.ID, account.Email, account.Password, account.Roles, account.CreatedAt, account.UpdatedAt,
	)

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	// A nil slice would be written as NULL.
	if user.Roles == nil {
		user.Roles = []string{}
	}

	_, err := repository.db.Exec(context, query,
		user.ID,
		user.Email,
		pointer.NilIfZero(user.PasswordHash),
		user.Roles,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrDuplicateEmail.WithCause(err)
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

// FindByID retrieves an identity by primary key.
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.findOne(context, account.ID, id)
}

// FindByEmail retrieves an identity by its normalized email.
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	return repository.findOne(context, account.Email, email)
}

// FindByResetToken retrieves the identity currently holding a reset token.
func (repository *PostgresUserRepository) FindByResetToken(context context.Context, token string) (*User, error) {
	return repository.findOne(context, account.ResetToken, token)
}

func (repository *PostgresUserRepository) findOne(context context.Context, column, value string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, userColumns, account.Table, column)

	user, err := scanUser(repository.db.QueryRow(context, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_%s_failed: %w", column, err)
	}

	return user, nil
}

/*
SetResetToken stores a reset token on the identity.

Parameters:
  - context: context.Context
  - userID: string
  - token: string

Returns:
  - error: ErrIdentityNotFound or execution errors
*/
func (repository *PostgresUserRepository) SetResetToken(context context.Context, userID, token string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = now() WHERE %s = $1`,
		account.Table, account.ResetToken, account.UpdatedAt, account.ID)

	tag, err := repository.db.Exec(context, query, userID, token)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_reset_token_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}

	return nil
}

/*
CompletePasswordReset overwrites the password hash and clears the reset token.

Description: The token is part of the WHERE clause, so two concurrent
submissions of the same link cannot both succeed.

Returns:
  - error: ErrIdentityNotFound when the identity no longer holds token
*/
func (repository *PostgresUserRepository) CompletePasswordReset(context context.Context, userID, token, passwordHash string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $3, %s = NULL, %s = now()
		WHERE %s = $1 AND %s = $2`,
		account.Table,
		account.Password, account.ResetToken, account.UpdatedAt,
		account.ID, account.ResetToken,
	)

	tag, err := repository.db.Exec(context, query, userID, token, passwordHash)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_complete_reset_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}

	return nil
}

// # Account Administration

// List returns one page of identities, newest first.
func (repository *PostgresUserRepository) List(context context.Context, limit, offset int) ([]*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC, %s LIMIT $1 OFFSET $2`,
		userColumns, account.Table, account.CreatedAt, account.ID)

	rows, err := repository.db.Query(context, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_list_failed: %w", err)
	}
	defer rows.Close()

	users := make([]*User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_user_repo_list_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_user_repo_list_failed: %w", err)
	}

	return users, nil
}

// Count returns the number of identities.
func (repository *PostgresUserRepository) Count(context context.Context) (int, error) {
	var total int
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, account.Table)

	if err := repository.db.QueryRow(context, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("postgres_user_repo_count_failed: %w", err)
	}

	return total, nil
}

// UpdateEmail changes the identity's email and returns the updated entity.
func (repository *PostgresUserRepository) UpdateEmail(context context.Context, userID, email string) (*User, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = now() WHERE %s = $1 RETURNING %s`,
		account.Table, account.Email, account.UpdatedAt, account.ID, userColumns)

	user, err := scanUser(repository.db.QueryRow(context, query, userID, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		if dberr.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail.WithCause(err)
		}
		return nil, fmt.Errorf("postgres_user_repo_update_email_failed: %w", err)
	}

	return user, nil
}

// SetAvatar stores the avatar object key; an empty key clears it.
func (repository *PostgresUserRepository) SetAvatar(context context.Context, userID, key string) (*User, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = now() WHERE %s = $1 RETURNING %s`,
		account.Table, account.AvatarKey, account.UpdatedAt, account.ID, userColumns)

	user, err := scanUser(repository.db.QueryRow(context, query, userID, pointer.NilIfZero(key)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("postgres_user_repo_set_avatar_failed: %w", err)
	}

	return user, nil
}

// Delete removes the identity together with its sessions.
func (repository *PostgresUserRepository) Delete(context context.Context, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, account.Table, account.ID)

	tag, err := repository.db.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_delete_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}

	return nil
}

// # Role Membership

/*
AddRole appends roleID to the identity's role ids unless already present.

Returns:
  - bool: false when the identity already held the role
  - error: ErrIdentityNotFound or execution errors
*/
func (repository *PostgresUserRepository) AddRole(context context.Context, userID, roleID string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = array_append(%s, $2::text), %s = now()
		WHERE %s = $1 AND NOT ($2::text = ANY(%s))`,
		account.Table,
		account.Roles, account.Roles, account.UpdatedAt,
		account.ID, account.Roles,
	)

	tag, err := repository.db.Exec(context, query, userID, roleID)
	if err != nil {
		return false, fmt.Errorf("postgres_user_repo_add_role_failed: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	if _, err := repository.FindByID(context, userID); err != nil {
		return false, err
	}

	return false, nil
}

// RemoveRole drops roleID from the identity's role ids.
func (repository *PostgresUserRepository) RemoveRole(context context.Context, userID, roleID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = array_remove(%s, $2::text), %s = now() WHERE %s = $1`,
		account.Table, account.Roles, account.Roles, account.UpdatedAt, account.ID)

	tag, err := repository.db.Exec(context, query, userID, roleID)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_remove_role_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}

	return nil
}

// # Session Store

// PostgresSessionStore keeps refresh tokens in the refreshtokens array of
// users.account.
//
// Each operation is a single UPDATE, so Postgres row locking serializes
// concurrent writers on the same identity without a read-modify-write race.
type PostgresSessionStore struct {
	db postgres.Querier
}

// NewSessionStore creates a Postgres-backed [SessionStore].
func NewSessionStore(db postgres.Querier) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

// Append adds token to the end of the identity's token array.
func (store *PostgresSessionStore) Append(context context.Context, userID, token string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = array_append(%s, $2::text) WHERE %s = $1`,
		account.Table, account.RefreshTokens, account.RefreshTokens, account.ID)

	tag, err := store.db.Exec(context, query, userID, token)
	if err != nil {
		return fmt.Errorf("postgres_session_append_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}

	return nil
}

// Remove drops the first occurrence of token, keeping any duplicates after it.
func (store *PostgresSessionStore) Remove(context context.Context, userID, token string) (bool, error) {
	column := account.RefreshTokens
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = %[2]s[:array_position(%[2]s, $2::text) - 1]
		         || %[2]s[array_position(%[2]s, $2::text) + 1:]
		WHERE %[3]s = $1 AND array_position(%[2]s, $2::text) IS NOT NULL`,
		account.Table, column, account.ID,
	)

	tag, err := store.db.Exec(context, query, userID, token)
	if err != nil {
		return false, fmt.Errorf("postgres_session_remove_failed: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Contains reports whether token is live for the identity. Unknown
// identities hold no tokens.
func (store *PostgresSessionStore) Contains(context context.Context, userID, token string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND $2::text = ANY(%s))`,
		account.Table, account.ID, account.RefreshTokens)

	var found bool
	if err := store.db.QueryRow(context, query, userID, token).Scan(&found); err != nil {
		return false, fmt.Errorf("postgres_session_contains_failed: %w", err)
	}

	return found, nil
}

// RemoveAll empties the identity's token array.
func (store *PostgresSessionStore) RemoveAll(context context.Context, userID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = '{}' WHERE %s = $1`,
		account.Table, account.RefreshTokens, account.ID)

	if _, err := store.db.Exec(context, query, userID); err != nil {
		return fmt.Errorf("postgres_session_remove_all_failed: %w", err)
	}

	return nil
}
