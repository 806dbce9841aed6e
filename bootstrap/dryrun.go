package bootstrap

import (
	"fmt"
	"io"

	"github.com/titpetric/ocpbootstrap/db"
	"github.com/titpetric/ocpbootstrap/progress"
	"github.com/titpetric/ocpbootstrap/sqlgen"
)

// DryRun prints the statements Run would execute, grouped by stage.
// Migrations reading from a source query need the data source and are
// only listed.
func (d *DataInitializer) DryRun(w io.Writer) error {
	printf := func(format string, args ...interface{}) {
		fmt.Fprintf(w, format, args...)
	}
	printAll := func(stmts []string) {
		for _, stmt := range stmts {
			printf("%s;\n", stmt)
		}
	}

	if tables := d.config.Tables(); len(tables) > 0 {
		printf("-- %s\n", progress.StageSchema)
		for _, table := range tables {
			printf("-- %s.%s\n", d.config.Module, table.Name)
			printAll(table.Statements())
		}
	}

	if defs := d.config.DataDefinitions(); len(defs) > 0 {
		printf("-- %s\n", progress.StageDefaultData)
		for _, def := range defs {
			deletes, err := sqlgen.GenerateDelete(&def)
			if err != nil {
				return err
			}
			inserts, err := sqlgen.GenerateInsert(&def)
			if err != nil {
				return err
			}
			printf("-- %s\n", def.Key())
			printAll(deletes)
			printAll(inserts)
		}
	}

	if migrations := d.config.Migrations(); len(migrations) > 0 {
		printf("-- %s\n", progress.StageMigration)
		for _, m := range migrations {
			printf("-- %s %s\n", m.Key(), m.Version)
			if m.Source != "" {
				printf("-- skipped, rows are read from: %s\n", m.Source)
				continue
			}
			stmts, err := d.generator.DataToSql(&m, m.Rows)
			if err != nil {
				return err
			}
			printAll(stmts)
		}
	}

	if len(d.overrides) > 0 {
		printf("-- %s\n", progress.StagePropertyOverride)
		for _, property := range d.overrides {
			stmt, err := db.UpsertStatement(property.Name, property.Value)
			if err != nil {
				return err
			}
			printAll([]string{stmt})
		}
	}
	return nil
}
