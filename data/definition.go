package data

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

type (
	// DataDefinition holds the seed rows for one table of a module
	DataDefinition struct {
		ModuleName string
		TableName  string

		// Rows are inserted, ignoring duplicates unless OnDuplicateUpdate is set
		Rows []Row

		// DeleteRows identify rows to delete, every column is an equality predicate
		DeleteRows []Row

		// OnDuplicateUpdate lists columns updated when an insert hits a duplicate key
		OnDuplicateUpdate []string
	}

	// TableDefinition is a table and the DDL creating it
	TableDefinition struct {
		ModuleName string
		Name       string
		DDL        string
	}
)

// Validate checks the definition is usable for SQL generation
func (d *DataDefinition) Validate() error {
	if d.TableName == "" {
		return errors.Errorf("data definition in module '%s' has no table name", d.ModuleName)
	}
	for idx, row := range d.DeleteRows {
		if row.Len() == 0 {
			return errors.Errorf("delete row %d for table '%s' has no columns", idx, d.TableName)
		}
	}
	return nil
}

// Key identifies the definition in progress logs
func (d *DataDefinition) Key() string {
	return d.ModuleName + "." + d.TableName
}

var statementSplitter = regexp.MustCompilePOSIX(";$")

// Statements splits the DDL into individual statements
func (t *TableDefinition) Statements() []string {
	result := []string{}
	for _, stmt := range statementSplitter.Split(t.DDL, -1) {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}
