package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRow(t *testing.T) {
	row := NewRow(Field{"id", 1}, Field{"name", "alice"}, Field{"class", uint8(10)})

	assert.Equal(t, []string{"id", "name", "class"}, row.Columns())
	assert.Equal(t, 3, row.Len())
	assert.Equal(t, int64(1), row.Value("id"))
	assert.Equal(t, int64(10), row.Value("class"))
	assert.True(t, row.Has("name"))
	assert.False(t, row.Has("missing"))
	assert.Nil(t, row.Value("missing"))
	assert.Equal(t, "{id:1,name:alice,class:10}", row.String())

	columns := row.Columns()
	columns[0] = "changed"
	assert.Equal(t, "id", row.Columns()[0])

	updated := row.With("name", "bob")
	assert.Equal(t, "alice", row.Value("name"))
	assert.Equal(t, "bob", updated.Value("name"))
	assert.Equal(t, row.Columns(), updated.Columns())
}

func TestRowNormalize(t *testing.T) {
	stamp := time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)
	row := RowOf(
		[]string{"b", "t", "f", "n", "m"},
		[]interface{}{[]byte("bytes"), stamp, float32(1.5), nil, map[string]interface{}{"z": 1, "a": 2}},
	)
	assert.Equal(t, "bytes", row.Value("b"))
	assert.Equal(t, "2023-04-05 06:07:08", row.Value("t"))
	assert.Equal(t, 1.5, row.Value("f"))
	assert.Nil(t, row.Value("n"))

	nested, ok := row.Value("m").(Row)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "z"}, nested.Columns())
}

func TestRowEqual(t *testing.T) {
	a := NewRow(Field{"id", 1}, Field{"name", "alice"})
	assert.True(t, a.Equal(NewRow(Field{"id", int64(1)}, Field{"name", "alice"})))
	assert.False(t, a.Equal(NewRow(Field{"name", "alice"}, Field{"id", 1})))
	assert.False(t, a.Equal(NewRow(Field{"id", 1})))
}
