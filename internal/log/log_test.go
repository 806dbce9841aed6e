package log

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	logger := NewLogger("metadb")
	s1 := logger.annotate("ready")
	assert.Equal(t, "module=metadb ready", s1)
	s2 := fmt.Sprintf(logger.annotate("applied %d statements"), 3)
	assert.Equal(t, "module=metadb applied 3 statements", s2)
}
