package db

import (
	"context"

	"github.com/titpetric/ocpbootstrap/data"
	"github.com/titpetric/ocpbootstrap/sqlgen"
)

// PropertyStore reads and writes config_properties
type PropertyStore struct {
	exec       *Executor
	dataSource string
}

// NewPropertyStore creates a *PropertyStore over a named data source
func NewPropertyStore(exec *Executor, dataSource string) *PropertyStore {
	return &PropertyStore{
		exec:       exec,
		dataSource: dataSource,
	}
}

// Property resolves the effective value of key
func (s *PropertyStore) Property(ctx context.Context, key string) (string, bool, error) {
	query := "SELECT `value`, `default_value` FROM " + sqlgen.QuoteIdentifier(data.ConfigPropertiesTable) + " WHERE `key`=?"
	rows, err := s.exec.QueryRows(ctx, s.dataSource, query, key)
	if err != nil {
		return "", false, err
	}
	value, ok := data.ExtractValue(rows)
	return value, ok, nil
}

// UpsertStatement renders the override of key as an upsert on value
func UpsertStatement(key, value string) (string, error) {
	row := data.NewRow(
		data.Field{Name: "key", Value: key},
		data.Field{Name: "value", Value: value},
	)
	return sqlgen.GenerateForInsertRow(data.ConfigPropertiesTable, row, []string{"value"})
}

// Set stores value as the override of key
func (s *PropertyStore) Set(ctx context.Context, key, value string) error {
	stmt, err := UpsertStatement(key, value)
	if err != nil {
		return err
	}
	_, err = s.exec.Execute(ctx, s.dataSource, stmt)
	return err
}
