package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractValue(t *testing.T) {
	tests := []struct {
		name  string
		rows  []Row
		want  string
		found bool
	}{
		{
			name: "value and default value",
			rows: []Row{NewRow(Field{"value", "1G"}, Field{"default_value", "10G"})},
			want: "1G", found: true,
		},
		{
			name: "only default value",
			rows: []Row{NewRow(Field{"default_value", "10G"})},
			want: "10G", found: true,
		},
		{
			name: "empty value falls back to default",
			rows: []Row{NewRow(Field{"value", ""}, Field{"default_value", "10G"})},
			want: "10G", found: true,
		},
		{
			name: "value from a later row wins over default",
			rows: []Row{
				NewRow(Field{"value", nil}, Field{"default_value", "10G"}),
				NewRow(Field{"value", "2G"}, Field{"default_value", nil}),
			},
			want: "2G", found: true,
		},
		{
			name: "empty input",
			rows: nil,
		},
		{
			name: "nothing set",
			rows: []Row{NewRow(Field{"value", nil}, Field{"default_value", nil})},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractValue(tt.rows)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigPropertyRow(t *testing.T) {
	value := "10G"
	prop := ConfigProperty{
		PropertyMeta: PropertyMeta{Key: "logging.file.total-size-cap", NeedRestart: true},
		Value:        &value,
	}
	row := prop.Row()
	assert.Equal(t, "logging.file.total-size-cap", row.Value("key"))
	assert.Equal(t, "10G", row.Value("value"))
	assert.Nil(t, row.Value("default_value"))

	back := ConfigPropertyFromRow(row)
	assert.Equal(t, prop.Key, back.Key)
	assert.True(t, back.NeedRestart)
	assert.False(t, back.Fatal)
	assert.Equal(t, "10G", *back.Value)
	assert.Nil(t, back.DefaultValue)
}
