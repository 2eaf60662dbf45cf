// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/quill/internal/platform/database/schema"
	"github.com/taibuivan/quill/internal/platform/dberr"
	"github.com/taibuivan/quill/internal/platform/postgres"
	"github.com/taibuivan/quill/pkg/uuid"
)

var (
	roleTable   = schema.UserRole
	roleColumns = strings.Join(roleTable.Columns(), ", ")
)

func scanRole(row pgx.Row) (*Role, error) {
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.CreatedAt); err != nil {
		return nil, err
	}
	return &role, nil
}

// PostgresRepository implements [Repository] on users.role.
type PostgresRepository struct {
	db postgres.Querier
}

// NewRepository creates a new PostgreSQL implementation of the role Repository.
func NewRepository(db postgres.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByID retrieves a role by primary key.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Role, error) {
	return repository.findOne(context, roleTable.ID, id)
}

// FindByName retrieves a role by its unique name.
func (repository *PostgresRepository) FindByName(context context.Context, name string) (*Role, error) {
	return repository.findOne(context, roleTable.Name, name)
}

func (repository *PostgresRepository) findOne(context context.Context, column, value string) (*Role, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, roleColumns, roleTable.Table, column)

	role, err := scanRole(repository.db.QueryRow(context, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, dberr.Wrap(err, "postgres_role_repo_find_by_"+column)
	}

	return role, nil
}

// FindByIDs retrieves the existing roles among ids.
func (repository *PostgresRepository) FindByIDs(context context.Context, ids []string) ([]*Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1)`, roleColumns, roleTable.Table, roleTable.ID)
	return repository.queryRoles(context, "postgres_role_repo_find_by_ids", query, ids)
}

// List returns the whole catalog ordered by name.
func (repository *PostgresRepository) List(context context.Context) ([]*Role, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`, roleColumns, roleTable.Table, roleTable.Name)
	return repository.queryRoles(context, "postgres_role_repo_list", query)
}

func (repository *PostgresRepository) queryRoles(context context.Context, action, query string, args ...any) ([]*Role, error) {
	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	var roles []*Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, dberr.Wrap(err, action)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, action)
	}

	return roles, nil
}

/*
Create persists a new role. CreatedAt is filled from the database.

Returns:
  - error: ErrDuplicateRole on the name unique constraint
*/
func (repository *PostgresRepository) Create(context context.Context, role *Role) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) RETURNING %s`,
		roleTable.Table, roleTable.ID, roleTable.Name, roleTable.CreatedAt)

	err := repository.db.QueryRow(context, query, role.ID, role.Name).Scan(&role.CreatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrDuplicateRole.WithCause(err)
		}
		return dberr.Wrap(err, "postgres_role_repo_create")
	}

	return nil
}

// Rename changes the name of a role.
func (repository *PostgresRepository) Rename(context context.Context, id, name string) (*Role, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1 RETURNING %s`,
		roleTable.Table, roleTable.Name, roleTable.ID, roleColumns)

	role, err := scanRole(repository.db.QueryRow(context, query, id, name))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrRoleNotFound
		case dberr.IsUniqueViolation(err):
			return nil, ErrDuplicateRole.WithCause(err)
		}
		return nil, dberr.Wrap(err, "postgres_role_repo_rename")
	}

	return role, nil
}

// Delete removes a role from the catalog. Identities keep the dangling id
// until it is revoked; name resolution skips it.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, roleTable.Table, roleTable.ID)

	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "postgres_role_repo_delete")
	}

	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}

	return nil
}

// EnsureNames inserts the missing names with fresh ids.
func (repository *PostgresRepository) EnsureNames(context context.Context, names []string) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT (%s) DO NOTHING`,
		roleTable.Table, roleTable.ID, roleTable.Name, roleTable.Name)

	for _, name := range names {
		if _, err := repository.db.Exec(context, query, uuid.New(), name); err != nil {
			return dberr.Wrap(err, "postgres_role_repo_ensure_names")
		}
	}

	return nil
}
