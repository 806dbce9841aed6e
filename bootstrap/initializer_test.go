package bootstrap

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titpetric/ocpbootstrap/data"
	"github.com/titpetric/ocpbootstrap/expr"
	"github.com/titpetric/ocpbootstrap/progress"
	"github.com/titpetric/ocpbootstrap/sqlgen"
)

type fakeExecutor struct {
	statements []string
	queries    []string
	rows       map[string][]data.Row
	failOn     string
}

func (f *fakeExecutor) QueryRows(ctx context.Context, dataSource, query string, args ...interface{}) ([]data.Row, error) {
	f.queries = append(f.queries, query)
	return f.rows[query], nil
}

func (f *fakeExecutor) Execute(ctx context.Context, dataSource, stmt string, args ...interface{}) (int64, error) {
	if f.failOn != "" && strings.Contains(stmt, f.failOn) {
		return 0, errors.Errorf("statement failed: %s", stmt)
	}
	f.statements = append(f.statements, stmt)
	return 1, nil
}

type fakeHistory struct {
	applied map[string]bool
}

func (f *fakeHistory) Init(ctx context.Context) error {
	return nil
}

func (f *fakeHistory) Apply(ctx context.Context, module, name, version string, statements func() ([]string, error)) (bool, error) {
	if f.applied[name] {
		return true, nil
	}
	if _, err := statements(); err != nil {
		return false, err
	}
	return false, nil
}

func testConfig(t *testing.T) *data.Config {
	t.Helper()
	cfg := data.NewConfig("metadb")
	cfg.AddTable(data.TableDefinition{Name: "test1", DDL: "CREATE TABLE test1 (id int);\nCREATE INDEX idx ON test1 (id);"})
	require.NoError(t, cfg.AddData(data.DataDefinition{
		TableName:  "test1",
		Rows:       []data.Row{data.NewRow(data.Field{Name: "id", Value: 1})},
		DeleteRows: []data.Row{data.NewRow(data.Field{Name: "id", Value: 9})},
	}))
	require.NoError(t, cfg.AddMigration(data.Migration{
		Name:        "copy",
		Version:     "1.0.0",
		TargetTable: "test2",
		Source:      "SELECT id FROM test1",
		Rows:        []data.Row{data.NewRow(data.Field{Name: "id", Value: 2})},
	}))
	require.NoError(t, cfg.AddMigration(data.Migration{
		Name:        "done-before",
		Version:     "0.9.0",
		TargetTable: "test2",
		Source:      "SELECT never FROM test1",
	}))
	return cfg
}

type recordingHistory struct {
	fakeHistory
	stmts [][]string
}

func (r *recordingHistory) Apply(ctx context.Context, module, name, version string, statements func() ([]string, error)) (bool, error) {
	if r.applied[name] {
		return true, nil
	}
	stmts, err := statements()
	if err != nil {
		return false, err
	}
	r.stmts = append(r.stmts, stmts)
	return false, nil
}

func TestDataInitializer(t *testing.T) {
	exec := &fakeExecutor{
		rows: map[string][]data.Row{
			"SELECT id FROM test1": {data.NewRow(data.Field{Name: "id", Value: 1})},
		},
	}
	history := &recordingHistory{fakeHistory: fakeHistory{applied: map[string]bool{"done-before": true}}}
	out := &bytes.Buffer{}
	p := progress.New(progress.NewWriter(out))

	initializer := NewDataInitializer(testConfig(t), "metadb", exec, history, sqlgen.NewGenerator(expr.New()), p, []Property{{Name: "server.port", Value: "8080"}})
	require.NoError(t, initializer.Run(context.Background(), progress.ActionInstall))

	assert.Equal(t, []string{
		"CREATE TABLE test1 (id int)",
		"CREATE INDEX idx ON test1 (id)",
		"DELETE FROM `test1` WHERE `id`=9",
		"INSERT IGNORE INTO `test1`(`id`) VALUES (1)",
		"INSERT INTO `config_properties`(`key`,`value`) VALUES ('server.port','8080') ON DUPLICATE KEY UPDATE `value`='8080'",
	}, exec.statements)
	assert.Equal(t, []string{"SELECT id FROM test1"}, exec.queries)
	assert.Equal(t, [][]string{{
		"INSERT IGNORE INTO `test2`(`id`) VALUES (1)",
		"INSERT IGNORE INTO `test2`(`id`) VALUES (2)",
	}}, history.stmts)

	run := p.Run("metadb")
	require.NotNil(t, run)
	assert.True(t, run.Done())
	assert.NoError(t, run.Error())
	stages := run.Stages()
	require.Len(t, stages, 4)
	for _, stage := range stages {
		assert.Equal(t, stage.TotalTasks(), stage.FinishedTasks(), string(stage.Stage()))
		assert.True(t, stage.Closed())
	}
	assert.Equal(t, 3, run.Stage(progress.StageMigration).TotalTasks())
	assert.Equal(t, 1, strings.Count(out.String(), "END_ACTION"))
}

func TestDataInitializerAbortsModule(t *testing.T) {
	exec := &fakeExecutor{failOn: "DELETE FROM"}
	p := progress.New(nil)

	initializer := NewDataInitializer(testConfig(t), "metadb", exec, &fakeHistory{}, sqlgen.NewGenerator(expr.New()), p, nil)
	err := initializer.Run(context.Background(), progress.ActionUpgrade)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_DATA metadb.test1")

	// schema ran, nothing after the failing task
	assert.Len(t, exec.statements, 2)
	assert.Empty(t, exec.queries)

	run := p.Run("metadb")
	assert.True(t, run.Done())
	assert.Error(t, run.Error())
	assert.Equal(t, progress.ActionUpgrade, run.Action())
	assert.Nil(t, run.Stage(progress.StageMigration))

	stage := run.Stage(progress.StageDefaultData)
	assert.Equal(t, 1, stage.FinishedTasks())
	assert.Error(t, stage.Error())
	assert.True(t, stage.Closed())
}

func TestOwnsProperties(t *testing.T) {
	cfg := data.NewConfig("metadb")
	assert.False(t, ownsProperties(cfg))
	cfg.AddTable(data.TableDefinition{Name: data.ConfigPropertiesTable, DDL: "CREATE TABLE x (id int)"})
	assert.True(t, ownsProperties(cfg))
}

func TestDataInitializerDryRun(t *testing.T) {
	exec := &fakeExecutor{}
	initializer := NewDataInitializer(testConfig(t), "metadb", exec, &fakeHistory{}, sqlgen.NewGenerator(expr.New()), progress.New(nil), []Property{{Name: "server.port", Value: "8080"}})

	out := &bytes.Buffer{}
	require.NoError(t, initializer.DryRun(out))

	assert.Equal(t, strings.Join([]string{
		"-- SCHEMA",
		"-- metadb.test1",
		"CREATE TABLE test1 (id int);",
		"CREATE INDEX idx ON test1 (id);",
		"-- DEFAULT_DATA",
		"-- metadb.test1",
		"DELETE FROM `test1` WHERE `id`=9;",
		"INSERT IGNORE INTO `test1`(`id`) VALUES (1);",
		"-- MIGRATION",
		"-- metadb.done-before 0.9.0",
		"-- skipped, rows are read from: SELECT never FROM test1",
		"-- metadb.copy 1.0.0",
		"-- skipped, rows are read from: SELECT id FROM test1",
		"-- PROPERTY_OVERRIDE",
		"INSERT INTO `config_properties`(`key`,`value`) VALUES ('server.port','8080') ON DUPLICATE KEY UPDATE `value`='8080';",
		"",
	}, "\n"), out.String())
	assert.Empty(t, exec.statements)
	assert.Empty(t, exec.queries)
}
