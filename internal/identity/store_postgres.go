// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/platform/apperr"
	"github.com/taibuivan/hafiz/internal/platform/database/schema"
	"github.com/taibuivan/hafiz/internal/platform/dberr"
	"github.com/taibuivan/hafiz/internal/platform/postgres"
	"github.com/taibuivan/hafiz/internal/platform/sec"
	"github.com/taibuivan/hafiz/pkg/pointer"
)

// resourceName is used in client-facing storage errors.
const resourceName = "Identity"

// PostgresRepository implements [Repository] on the users.identity table.
type PostgresRepository struct {
	db postgres.Querier
}

// NewPostgresRepository creates a new PostgreSQL implementation of [Repository].
func NewPostgresRepository(db postgres.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var (
	identityColumns = strings.Join(schema.Identity.Columns(), ", ")
	selectIdentity  = fmt.Sprintf("SELECT %s FROM %s", identityColumns, schema.Identity.Table)
)

// scanIdentity hydrates one row selected with [schema.IdentityTable.Columns].
func scanIdentity(row pgx.Row) (*Identity, error) {
	identity := &Identity{}
	var role string

	err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.DisplayName,
		&role,
		&identity.Region,
		&identity.IsActive,
		&identity.IsVerified,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	identity.Role = sec.Role(role)
	return identity, nil
}

func (repository *PostgresRepository) findOne(context context.Context, query string, arguments ...any) (*Identity, error) {
	identity, err := scanIdentity(repository.db.QueryRow(context, query, arguments...))
	if err != nil {
		return nil, dberr.Wrap(err, resourceName)
	}
	return identity, nil
}

// # Lookups

func (repository *PostgresRepository) FindByEmail(context context.Context, email string) (*Identity, error) {
	query := fmt.Sprintf("%s WHERE %s = $1", selectIdentity, schema.Identity.Email)
	return repository.findOne(context, query, email)
}

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Identity, error) {
	query := fmt.Sprintf("%s WHERE %s = $1", selectIdentity, schema.Identity.ID)
	return repository.findOne(context, query, id)
}

func (repository *PostgresRepository) FindByToken(context context.Context, kind TokenKind, tokenHash string, now time.Time) (*Identity, error) {
	switch kind {
	case TokenVerification:
		query := fmt.Sprintf("%s WHERE %s = $1", selectIdentity, schema.Identity.VerificationTokenHash)
		return repository.findOne(context, query, tokenHash)
	case TokenReset:
		query := fmt.Sprintf("%s WHERE %s = $1 AND %s > $2",
			selectIdentity, schema.Identity.ResetTokenHash, schema.Identity.ResetExpiresAt)
		return repository.findOne(context, query, tokenHash, now)
	default:
		return nil, fmt.Errorf("postgres_identity_repo_unknown_token_kind: %d", kind)
	}
}

// # Mutations

/*
Insert persists a new row into users.identity.

Parameters:
  - context: context.Context
  - identity: *Identity (CreatedAt/UpdatedAt are filled in)
  - verificationTokenHash: string

Returns:
  - error: Conflict on duplicate email, or database failures
*/
func (repository *PostgresRepository) Insert(context context.Context, identity *Identity, verificationTokenHash string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s, %s`,
		schema.Identity.Table,
		schema.Identity.ID, schema.Identity.Email, schema.Identity.Password, schema.Identity.DisplayName,
		schema.Identity.Role, schema.Identity.Region, schema.Identity.IsActive, schema.Identity.IsVerified,
		schema.Identity.VerificationTokenHash,
		schema.Identity.CreatedAt, schema.Identity.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		identity.ID,
		identity.Email,
		identity.PasswordHash,
		identity.DisplayName,
		identity.Role.String(),
		identity.Region,
		identity.IsActive,
		identity.IsVerified,
		pointer.NilIfZero(verificationTokenHash),
	).Scan(&identity.CreatedAt, &identity.UpdatedAt)

	return dberr.Wrap(err, resourceName)
}

/*
UpdateFields builds a single UPDATE from the non-nil members of fields.

Parameters:
  - context: context.Context
  - id: string
  - fields: Fields

Returns:
  - error: NotFound if no row has id, or database failures
*/
func (repository *PostgresRepository) UpdateFields(context context.Context, id string, fields Fields) error {
	if fields.Empty() {
		return nil
	}

	assignments := []string{}
	arguments := []any{id}

	set := func(column string, value any) {
		arguments = append(arguments, value)
		assignments = append(assignments, column+" = $"+strconv.Itoa(len(arguments)))
	}

	if fields.PasswordHash != nil {
		set(schema.Identity.Password, *fields.PasswordHash)
	}
	if fields.IsActive != nil {
		set(schema.Identity.IsActive, *fields.IsActive)
	}
	if fields.IsVerified != nil {
		set(schema.Identity.IsVerified, *fields.IsVerified)
	}

	switch {
	case fields.ClearResetToken:
		assignments = append(assignments,
			schema.Identity.ResetTokenHash+" = NULL",
			schema.Identity.ResetExpiresAt+" = NULL",
		)
	default:
		if fields.ResetTokenHash != nil {
			set(schema.Identity.ResetTokenHash, *fields.ResetTokenHash)
		}
		if fields.ResetExpiresAt != nil {
			set(schema.Identity.ResetExpiresAt, *fields.ResetExpiresAt)
		}
	}

	assignments = append(assignments, schema.Identity.UpdatedAt+" = NOW()")

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1",
		schema.Identity.Table, strings.Join(assignments, ", "), schema.Identity.ID)

	tag, err := repository.db.Exec(context, query, arguments...)
	if err != nil {
		return dberr.Wrap(err, resourceName)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resourceName)
	}
	return nil
}

// ConsumeVerificationToken is a single match-and-clear UPDATE; concurrent
// consumers of the same token serialize on the row and only one sees it.
func (repository *PostgresRepository) ConsumeVerificationToken(context context.Context, tokenHash string) (*Identity, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = TRUE, %s = TRUE, %s = NULL, %s = NOW()
		WHERE %s = $1
		RETURNING %s`,
		schema.Identity.Table,
		schema.Identity.IsVerified, schema.Identity.IsActive, schema.Identity.VerificationTokenHash, schema.Identity.UpdatedAt,
		schema.Identity.VerificationTokenHash,
		identityColumns,
	)
	return repository.findOne(context, query, tokenHash)
}

func (repository *PostgresRepository) ConsumeResetToken(context context.Context, tokenHash, passwordHash string, now time.Time) (*Identity, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = NULL, %s = NULL, %s = NOW()
		WHERE %s = $1 AND %s > $3
		RETURNING %s`,
		schema.Identity.Table,
		schema.Identity.Password, schema.Identity.ResetTokenHash, schema.Identity.ResetExpiresAt, schema.Identity.UpdatedAt,
		schema.Identity.ResetTokenHash, schema.Identity.ResetExpiresAt,
		identityColumns,
	)
	return repository.findOne(context, query, tokenHash, passwordHash, now)
}

/*
Deactivate disables an account and severs its soft link to a hafiz record.

Both statements run in one transaction.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: NotFound if no row has id, or database failures
*/
func (repository *PostgresRepository) Deactivate(context context.Context, id string) error {
	deactivate := fmt.Sprintf("UPDATE %s SET %s = FALSE, %s = NOW() WHERE %s = $1",
		schema.Identity.Table, schema.Identity.IsActive, schema.Identity.UpdatedAt, schema.Identity.ID)

	unlink := fmt.Sprintf("UPDATE %s SET %s = NULL, %s = NOW() WHERE %s = $1",
		schema.Hafiz.Table, schema.Hafiz.AccountID, schema.Hafiz.UpdatedAt, schema.Hafiz.AccountID)

	return pgx.BeginFunc(context, repository.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(context, deactivate, id)
		if err != nil {
			return dberr.Wrap(err, resourceName)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(resourceName)
		}

		if _, err := tx.Exec(context, unlink, id); err != nil {
			return dberr.Wrap(err, "Hafiz")
		}
		return nil
	})
}

// # Listing

func (repository *PostgresRepository) List(context context.Context, filter access.Filter, limit, offset int) ([]*Identity, int, error) {
	conditions := []string{"TRUE"}
	arguments := []any{}

	if filter.Region != nil {
		arguments = append(arguments, *filter.Region)
		conditions = append(conditions, schema.Identity.Region+" = $"+strconv.Itoa(len(arguments)))
	}
	if filter.OwnerID != nil {
		arguments = append(arguments, *filter.OwnerID)
		conditions = append(conditions, schema.Identity.ID+" = $"+strconv.Itoa(len(arguments)))
	}
	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", schema.Identity.Table, where)

	var total int
	if err := repository.db.QueryRow(context, countQuery, arguments...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resourceName)
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY %s DESC LIMIT $%d OFFSET $%d",
		selectIdentity, where, schema.Identity.CreatedAt, len(arguments)+1, len(arguments)+2)

	rows, err := repository.db.Query(context, query, append(arguments, limit, offset)...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resourceName)
	}
	defer rows.Close()

	identities := []*Identity{}
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, resourceName)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, resourceName)
	}

	return identities, total, nil
}
