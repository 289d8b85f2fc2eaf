// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hafiz

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/platform/database/schema"
	"github.com/taibuivan/hafiz/internal/platform/dberr"
	"github.com/taibuivan/hafiz/internal/platform/postgres"
)

const resourceName = "Hafiz"

type PostgresRepository struct {
	db postgres.Querier
}

func NewPostgresRepository(db postgres.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var hafizColumns = strings.Join(schema.Hafiz.Columns(), ", ")

func scanHafiz(row pgx.Row) (*Hafiz, error) {
	hafiz := &Hafiz{}
	err := row.Scan(
		&hafiz.ID,
		&hafiz.RegistrationNumber,
		&hafiz.FullName,
		&hafiz.Region,
		&hafiz.AccountID,
		&hafiz.IncentiveStatus,
		&hafiz.CreatedAt,
		&hafiz.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return hafiz, nil
}

// scope appends the filter's conditions after the given arguments.
func scope(filter access.Filter, arguments []any) ([]string, []any) {
	conditions := []string{}
	if filter.Region != nil {
		arguments = append(arguments, *filter.Region)
		conditions = append(conditions, schema.Hafiz.Region+" = $"+strconv.Itoa(len(arguments)))
	}
	if filter.OwnerID != nil {
		arguments = append(arguments, *filter.OwnerID)
		conditions = append(conditions, schema.Hafiz.AccountID+" = $"+strconv.Itoa(len(arguments)))
	}
	return conditions, arguments
}

func (repository *PostgresRepository) List(context context.Context, filter access.Filter, limit, offset int) ([]*Hafiz, int, error) {
	conditions, arguments := scope(filter, nil)
	where := strings.Join(append([]string{"TRUE"}, conditions...), " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", schema.Hafiz.Table, where)
	if err := repository.db.QueryRow(context, countQuery, arguments...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resourceName)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s ASC LIMIT $%d OFFSET $%d",
		hafizColumns, schema.Hafiz.Table, where, schema.Hafiz.RegistrationNumber, len(arguments)+1, len(arguments)+2)

	rows, err := repository.db.Query(context, query, append(arguments, limit, offset)...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resourceName)
	}
	defer rows.Close()

	records := []*Hafiz{}
	for rows.Next() {
		hafiz, err := scanHafiz(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, resourceName)
		}
		records = append(records, hafiz)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, resourceName)
	}

	return records, total, nil
}

func (repository *PostgresRepository) Get(context context.Context, filter access.Filter, id string) (*Hafiz, error) {
	conditions, arguments := scope(filter, []any{id})
	where := strings.Join(append([]string{schema.Hafiz.ID + " = $1"}, conditions...), " AND ")

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", hafizColumns, schema.Hafiz.Table, where)

	hafiz, err := scanHafiz(repository.db.QueryRow(context, query, arguments...))
	if err != nil {
		return nil, dberr.Wrap(err, resourceName)
	}
	return hafiz, nil
}

// UpdateIncentive applies the filter in the WHERE clause so an out-of-scope
// id matches no row and reports NOT_FOUND.
func (repository *PostgresRepository) UpdateIncentive(context context.Context, filter access.Filter, id, status string) (*Hafiz, error) {
	conditions, arguments := scope(filter, []any{id, status})
	where := strings.Join(append([]string{schema.Hafiz.ID + " = $1"}, conditions...), " AND ")

	query := fmt.Sprintf("UPDATE %s SET %s = $2, %s = NOW() WHERE %s RETURNING %s",
		schema.Hafiz.Table, schema.Hafiz.IncentiveStatus, schema.Hafiz.UpdatedAt, where, hafizColumns)

	hafiz, err := scanHafiz(repository.db.QueryRow(context, query, arguments...))
	if err != nil {
		return nil, dberr.Wrap(err, resourceName)
	}
	return hafiz, nil
}
