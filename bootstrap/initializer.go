package bootstrap

import (
	"context"

	"github.com/pkg/errors"

	"github.com/titpetric/ocpbootstrap/data"
	"github.com/titpetric/ocpbootstrap/db"
	"github.com/titpetric/ocpbootstrap/internal/log"
	"github.com/titpetric/ocpbootstrap/progress"
	"github.com/titpetric/ocpbootstrap/sqlgen"
)

type (
	// Executor runs statements against a named data source
	Executor interface {
		QueryRows(ctx context.Context, dataSource, query string, args ...interface{}) ([]data.Row, error)
		Execute(ctx context.Context, dataSource, stmt string, args ...interface{}) (int64, error)
	}

	// MigrationHistory applies migrations at most once
	MigrationHistory interface {
		Init(ctx context.Context) error
		Apply(ctx context.Context, module, name, version string, statements func() ([]string, error)) (bool, error)
	}

	// DataInitializer applies one module's config through the stages
	// SCHEMA, DEFAULT_DATA, MIGRATION and PROPERTY_OVERRIDE
	DataInitializer struct {
		config     *data.Config
		dataSource string
		exec       Executor
		history    MigrationHistory
		generator  *sqlgen.Generator
		progress   progress.Handler
		overrides  []Property
		log        *log.Logger
	}

	task struct {
		key   string
		label string
		run   func(ctx context.Context) error
	}
)

var _ MigrationHistory = &db.History{}

// NewDataInitializer creates a *DataInitializer; overrides are applied
// only when non-empty
func NewDataInitializer(config *data.Config, dataSource string, exec Executor, history MigrationHistory, generator *sqlgen.Generator, handler progress.Handler, overrides []Property) *DataInitializer {
	return &DataInitializer{
		config:     config,
		dataSource: dataSource,
		exec:       exec,
		history:    history,
		generator:  generator,
		progress:   handler,
		overrides:  overrides,
		log:        log.NewLogger(config.Module),
	}
}

// Run executes every stage under the run named after the module. The first
// failing task aborts the remaining tasks; the error is recorded on the
// progress and returned.
func (d *DataInitializer) Run(ctx context.Context, action progress.Action) error {
	name := d.config.Module
	d.progress.BeginAction(name, action)

	stages := []struct {
		stage progress.Stage
		tasks []task
	}{
		{progress.StageSchema, d.schemaTasks()},
		{progress.StageDefaultData, d.defaultDataTasks()},
		{progress.StageMigration, d.migrationTasks()},
		{progress.StagePropertyOverride, d.propertyTasks()},
	}

	var err error
	for _, s := range stages {
		if len(s.tasks) == 0 {
			continue
		}
		if err = d.runStage(ctx, name, s.stage, s.tasks); err != nil {
			d.log.Errorf("stage %s failed: %v", s.stage, err)
			break
		}
	}

	d.progress.EndAction(name, action, err)
	return err
}

func (d *DataInitializer) runStage(ctx context.Context, name string, stage progress.Stage, tasks []task) error {
	d.progress.BeginStage(name, stage, len(tasks))
	defer d.progress.EndStage(name, stage)

	for _, t := range tasks {
		d.progress.BeginTask(name, stage, t.key, t.label)
		err := t.run(ctx)
		d.progress.EndTask(name, stage, t.key, t.label, err)
		if err != nil {
			return errors.Wrapf(err, "%s %s", stage, t.key)
		}
	}
	return nil
}

func (d *DataInitializer) execute(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := d.exec.Execute(ctx, d.dataSource, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (d *DataInitializer) schemaTasks() []task {
	tables := d.config.Tables()
	if len(tables) == 0 {
		return nil
	}
	result := make([]task, 0, len(tables)+1)
	for _, table := range tables {
		table := table
		result = append(result, task{
			key:   d.config.Module + "." + table.Name,
			label: "create table " + table.Name,
			run: func(ctx context.Context) error {
				return d.execute(ctx, table.Statements())
			},
		})
	}
	return result
}

func (d *DataInitializer) defaultDataTasks() []task {
	defs := d.config.DataDefinitions()
	result := make([]task, 0, len(defs))
	for _, def := range defs {
		def := def
		result = append(result, task{
			key:   def.Key(),
			label: "default data of " + def.TableName,
			run: func(ctx context.Context) error {
				deletes, err := sqlgen.GenerateDelete(&def)
				if err != nil {
					return err
				}
				inserts, err := sqlgen.GenerateInsert(&def)
				if err != nil {
					return err
				}
				return d.execute(ctx, append(deletes, inserts...))
			},
		})
	}
	return result
}

func (d *DataInitializer) migrationTasks() []task {
	migrations := d.config.Migrations()
	if len(migrations) == 0 {
		return nil
	}
	result := []task{{
		key:   d.config.Module + ".history",
		label: "migration history",
		run:   d.history.Init,
	}}
	for _, m := range migrations {
		m := m
		result = append(result, task{
			key:   m.Key(),
			label: "migration " + m.Name + " " + m.Version,
			run: func(ctx context.Context) error {
				skipped, err := d.history.Apply(ctx, m.ModuleName, m.Name, m.Version, func() ([]string, error) {
					return d.migrationStatements(ctx, &m)
				})
				if skipped {
					d.log.Infof("migration %s already applied", m.Name)
				}
				return err
			},
		})
	}
	return result
}

// migrationStatements reads the source rows, appends inline rows and
// renders them
func (d *DataInitializer) migrationStatements(ctx context.Context, m *data.Migration) ([]string, error) {
	rows := []data.Row{}
	if m.Source != "" {
		source, err := d.exec.QueryRows(ctx, d.dataSource, m.Source)
		if err != nil {
			return nil, err
		}
		rows = append(rows, source...)
	}
	rows = append(rows, m.Rows...)
	return d.generator.DataToSql(m, rows)
}

func (d *DataInitializer) propertyTasks() []task {
	result := make([]task, 0, len(d.overrides))
	for _, property := range d.overrides {
		property := property
		result = append(result, task{
			key:   "property." + property.Name,
			label: "override " + property.Name,
			run: func(ctx context.Context) error {
				stmt, err := db.UpsertStatement(property.Name, property.Value)
				if err != nil {
					return err
				}
				return d.execute(ctx, []string{stmt})
			},
		})
	}
	return result
}

// ownsProperties reports if the module manages config_properties
func ownsProperties(config *data.Config) bool {
	for _, table := range config.Tables() {
		if table.Name == data.ConfigPropertiesTable {
			return true
		}
	}
	for _, def := range config.DataDefinitions() {
		if def.TableName == data.ConfigPropertiesTable {
			return true
		}
	}
	return false
}
