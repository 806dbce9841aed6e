package dsl

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titpetric/ocpbootstrap/data"
)

func TestLoadConfig(t *testing.T) {
	loader := newTestLoader(t, map[string]string{
		"bootstrap/metadb/sql/iam_user.sql": "CREATE TABLE IF NOT EXISTS iam_user (id bigint);\n",
		"bootstrap/metadb/01-tables.yaml": `
module: metadb
tables:
  - name: iam_user
    ddl: !resource bootstrap/metadb/sql/iam_user.sql
`,
		"bootstrap/metadb/02-data.yml": `
data:
  - table: iam_user
    onDuplicateUpdate: [username]
    rows:
      - {id: 100, username: admin, createTime: !const CURRENT_TIMESTAMP}
    delete:
      - {id: 5}
migrations:
  - name: rename-users
    version: 4.1.0
    targetTable: iam_user
    source: SELECT id, username FROM iam_user
    with:
      prefix: !expr "'ocp_' + 'user_'"
    expr: "map(data, r -> {'id': r.id, 'username': concat(prefix, r.username)})"
    updateBy: id
  - name: drop-legacy
    version: 4.0.0
    target_table: iam_user
    rows:
      - {id: 7}
    delete_by: [id]
`,
		"bootstrap/other/ignored.yaml": "data: []\n",
	})

	cfg, err := loader.LoadConfig("metadb", "bootstrap/metadb")
	require.NoError(t, err)
	assert.Equal(t, "metadb", cfg.Module)

	tables := cfg.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, "iam_user", tables[0].Name)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS iam_user (id bigint);", tables[0].DDL)

	defs := cfg.DataDefinitions()
	require.Len(t, defs, 1)
	assert.Equal(t, []string{"username"}, defs[0].OnDuplicateUpdate)
	require.Len(t, defs[0].Rows, 1)
	assert.Equal(t, []string{"id", "username", "createTime"}, defs[0].Rows[0].Columns())
	assert.Equal(t, data.Literal("CURRENT_TIMESTAMP"), defs[0].Rows[0].Value("createTime"))
	require.Len(t, defs[0].DeleteRows, 1)

	migrations := cfg.Migrations()
	require.Len(t, migrations, 2)
	assert.Equal(t, "drop-legacy", migrations[0].Name)
	assert.Equal(t, []string{"id"}, migrations[0].DeleteBy)
	assert.Len(t, migrations[0].Rows, 1)

	rename := migrations[1]
	assert.Equal(t, "rename-users", rename.Name)
	assert.Equal(t, "iam_user", rename.TargetTable)
	assert.Equal(t, []string{"id"}, rename.UpdateBy)
	assert.Equal(t, "ocp_user_", rename.With["prefix"])
	assert.Equal(t, "SELECT id, username FROM iam_user", rename.Source)
	assert.True(t, rename.HasTransform())
}

func TestDecodeConfigErrors(t *testing.T) {
	loader := newTestLoader(t, nil)

	tests := []struct {
		name string
		text string
	}{
		{"wrong module", "module: other\n"},
		{"tables not a list", "tables: {name: x}\n"},
		{"table without ddl", "tables:\n  - name: x\n"},
		{"data without table", "data:\n  - rows: [{id: 1}]\n"},
		{"nested row value", "data:\n  - table: t\n    rows: [{id: [1]}]\n"},
		{"migration without name", "migrations:\n  - targetTable: t\n"},
		{"migration with both keys", "migrations:\n  - name: m\n    targetTable: t\n    updateBy: id\n    deleteBy: id\n"},
		{"with not a mapping", "migrations:\n  - name: m\n    targetTable: t\n    with: [1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := loader.Load(tt.text)
			require.NoError(t, err)
			_, err = DecodeConfig("metadb", doc)
			assert.Error(t, err)
		})
	}

	doc, err := loader.Load("migrations:\n  - name: m\n    targetTable: t\n    updateBy: id\n    deleteBy: id\n")
	require.NoError(t, err)
	_, err = DecodeConfig("metadb", doc)
	assert.True(t, errors.Is(err, data.ErrAmbiguousMigration))
}
