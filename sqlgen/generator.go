// Package sqlgen turns data definitions and migrations into literal MySQL
// statements.
package sqlgen

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/titpetric/ocpbootstrap/data"
	"github.com/titpetric/ocpbootstrap/expr"
)

// GenerateForInsertRow renders INSERT IGNORE for row, or an upsert when
// onDuplicateUpdate names columns present in row
func GenerateForInsertRow(table string, row data.Row, onDuplicateUpdate []string) (string, error) {
	if row.Len() == 0 {
		return "", errors.Errorf("insert into %s: empty row", table)
	}
	columns := row.Columns()
	names := make([]string, len(columns))
	values := make([]string, len(columns))
	for idx, column := range columns {
		value, err := Literal(row.Value(column))
		if err != nil {
			return "", errors.Wrapf(err, "insert into %s, column %s", table, column)
		}
		names[idx] = QuoteIdentifier(column)
		values[idx] = value
	}

	updates := []string{}
	for _, column := range onDuplicateUpdate {
		if row.Has(column) {
			updates = append(updates, column)
		}
	}
	if len(updates) == 0 {
		return fmt.Sprintf("INSERT IGNORE INTO %s(%s) VALUES (%s)", QuoteIdentifier(table), strings.Join(names, ","), strings.Join(values, ",")), nil
	}

	set, err := assignments(row, updates)
	if err != nil {
		return "", errors.Wrapf(err, "insert into %s", table)
	}
	return fmt.Sprintf("INSERT INTO %s(%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s", QuoteIdentifier(table), strings.Join(names, ","), strings.Join(values, ","), strings.Join(set, ", ")), nil
}

// GenerateForDeleteRow renders a DELETE matching every column of row
func GenerateForDeleteRow(table string, row data.Row) (string, error) {
	if row.Len() == 0 {
		return "", errors.Errorf("delete from %s: empty predicate", table)
	}
	where, err := assignments(row, row.Columns())
	if err != nil {
		return "", errors.Wrapf(err, "delete from %s", table)
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", QuoteIdentifier(table), strings.Join(where, " AND ")), nil
}

// GenerateForUpdateRow renders an UPDATE, keyColumns go to WHERE and the
// remaining columns to SET
func GenerateForUpdateRow(table string, row data.Row, keyColumns []string) (string, error) {
	if len(keyColumns) == 0 {
		return "", errors.Errorf("update %s: no key columns", table)
	}
	for _, key := range keyColumns {
		if !row.Has(key) {
			return "", errors.Errorf("update %s: row has no key column %s", table, key)
		}
	}
	rest := []string{}
	for _, column := range row.Columns() {
		if !slices.Contains(keyColumns, column) {
			rest = append(rest, column)
		}
	}
	if len(rest) == 0 {
		return "", errors.Errorf("update %s: no columns to set", table)
	}

	set, err := assignments(row, rest)
	if err != nil {
		return "", errors.Wrapf(err, "update %s", table)
	}
	where, err := assignments(row, keyColumns)
	if err != nil {
		return "", errors.Wrapf(err, "update %s", table)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", QuoteIdentifier(table), strings.Join(set, ", "), strings.Join(where, " AND ")), nil
}

// GenerateInsert renders one insert statement per row of def
func GenerateInsert(def *data.DataDefinition) ([]string, error) {
	result := make([]string, 0, len(def.Rows))
	for _, row := range def.Rows {
		stmt, err := GenerateForInsertRow(def.TableName, row, def.OnDuplicateUpdate)
		if err != nil {
			return nil, err
		}
		result = append(result, stmt)
	}
	return result, nil
}

// GenerateDelete renders one delete statement per delete row of def
func GenerateDelete(def *data.DataDefinition) ([]string, error) {
	result := make([]string, 0, len(def.DeleteRows))
	for _, row := range def.DeleteRows {
		stmt, err := GenerateForDeleteRow(def.TableName, row)
		if err != nil {
			return nil, err
		}
		result = append(result, stmt)
	}
	return result, nil
}

// Generator renders migrations, evaluating transforms with env
type Generator struct {
	env expr.Environment
}

// NewGenerator creates a *Generator
func NewGenerator(env expr.Environment) *Generator {
	return &Generator{env: env}
}

// ProcessRows applies the migration transform to rows. The transform runs
// once with `data` bound to all rows; its result must be a list of maps.
// Without a transform rows pass through unchanged.
func (g *Generator) ProcessRows(m *data.Migration, rows []data.Row) (iter.Seq[data.Row], error) {
	if !m.HasTransform() {
		return slices.Values(rows), nil
	}

	vars := make(map[string]interface{}, len(m.With)+1)
	for name, value := range m.With {
		vars[name] = value
	}
	vars["data"] = rows

	result, err := g.env.Evaluate(m.Expr, vars)
	if err != nil {
		return nil, errors.Wrapf(err, "migration %s", m.Name)
	}

	var transformed []data.Row
	switch v := result.(type) {
	case nil:
	case data.Row:
		transformed = []data.Row{v}
	case []interface{}:
		transformed = make([]data.Row, 0, len(v))
		for idx, item := range v {
			row, ok := data.Normalize(item).(data.Row)
			if !ok {
				return nil, errors.Errorf("migration %s: transform item %d is %T, expected a map", m.Name, idx, item)
			}
			transformed = append(transformed, row)
		}
	default:
		return nil, errors.Errorf("migration %s: transform returned %T, expected a list of maps", m.Name, result)
	}
	return slices.Values(transformed), nil
}

// DataToSql renders one statement per processed row: UPDATE when UpdateBy is
// set, else DELETE when DeleteBy is set, else INSERT
func (g *Generator) DataToSql(m *data.Migration, rows []data.Row) ([]string, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	seq, err := g.ProcessRows(m, rows)
	if err != nil {
		return nil, err
	}

	result := []string{}
	for row := range seq {
		var (
			stmt string
			err  error
		)
		switch m.Mode() {
		case data.ModeUpdate:
			stmt, err = GenerateForUpdateRow(m.TargetTable, row, m.UpdateBy)
		case data.ModeDelete:
			stmt, err = GenerateForDeleteRow(m.TargetTable, project(row, m.DeleteBy))
		default:
			stmt, err = GenerateForInsertRow(m.TargetTable, row, nil)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "migration %s", m.Name)
		}
		result = append(result, stmt)
	}
	return result, nil
}

// project keeps the given columns of row, in the given order
func project(row data.Row, columns []string) data.Row {
	fields := make([]data.Field, 0, len(columns))
	for _, column := range columns {
		if value, ok := row.Get(column); ok {
			fields = append(fields, data.Field{Name: column, Value: value})
		}
	}
	return data.NewRow(fields...)
}
