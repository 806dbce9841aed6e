package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/titpetric/ocpbootstrap/data"
)

// Executor runs queries and statements against named data sources
type Executor struct {
	provider DataSourceProvider
}

// NewExecutor creates an *Executor
func NewExecutor(provider DataSourceProvider) *Executor {
	return &Executor{
		provider: provider,
	}
}

// QueryRows returns the result rows of query, columns in select order
func (e *Executor) QueryRows(ctx context.Context, dataSource, query string, args ...interface{}) ([]data.Row, error) {
	handle, err := e.provider.DataSource(dataSource)
	if err != nil {
		return nil, err
	}
	return QueryRows(ctx, handle, query, args...)
}

// Execute runs stmt and returns the number of affected rows
func (e *Executor) Execute(ctx context.Context, dataSource, stmt string, args ...interface{}) (int64, error) {
	handle, err := e.provider.DataSource(dataSource)
	if err != nil {
		return 0, err
	}
	return Execute(ctx, handle, stmt, args...)
}

// QueryRows scans every result row of query into a data.Row
func QueryRows(ctx context.Context, handle sqlx.QueryerContext, query string, args ...interface{}) ([]data.Row, error) {
	rows, err := handle.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query failed: %s", query)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	result := []data.Row{}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for idx, value := range values {
			if idx < len(types) {
				values[idx] = convertColumn(types[idx].DatabaseTypeName(), value)
			}
		}
		result = append(result, data.RowOf(columns, values))
	}
	return result, errors.WithStack(rows.Err())
}

// convertColumn types the text protocol values of numeric columns, the
// driver returns them as []byte
func convertColumn(typeName string, value interface{}) interface{} {
	raw, ok := value.([]byte)
	if !ok {
		return value
	}
	switch strings.TrimPrefix(strings.ToUpper(typeName), "UNSIGNED ") {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR":
		if v, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return v
		}
		if v, err := strconv.ParseUint(string(raw), 10, 64); err == nil {
			return int64(v)
		}
	case "DECIMAL", "FLOAT", "DOUBLE":
		if v, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return v
		}
	}
	return value
}

// Execute runs stmt and returns the number of affected rows
func Execute(ctx context.Context, handle sqlx.ExecerContext, stmt string, args ...interface{}) (int64, error) {
	res, err := handle.ExecContext(ctx, stmt, args...)
	if err != nil && err != sql.ErrNoRows {
		return 0, errors.Wrapf(err, "statement failed: %s", stmt)
	}
	if res == nil {
		return 0, nil
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
