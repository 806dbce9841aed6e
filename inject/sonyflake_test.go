package inject

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunID(t *testing.T) {
	t.Setenv("SERVER_ID", "7")
	flake := Sonyflake()
	require.NotNil(t, flake)

	a, err := strconv.ParseUint(RunID(flake), 10, 64)
	require.NoError(t, err)
	b, err := strconv.ParseUint(RunID(flake), 10, 64)
	require.NoError(t, err)
	assert.Less(t, a, b)
}

func TestRunIDWithoutSonyflake(t *testing.T) {
	before := time.Now().UnixNano()
	id, err := strconv.ParseInt(RunID(nil), 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, id, before)
}
