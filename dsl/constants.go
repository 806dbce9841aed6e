package dsl

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/titpetric/ocpbootstrap/data"
)

// ConstFunc produces the value of a named constant, arg is empty when omitted
type ConstFunc func(arg string) (interface{}, error)

// Constants is the closed registry behind the !const tag
type Constants struct {
	sync.RWMutex

	values map[string]ConstFunc
}

var constPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(?:\(\s*([^)]*?)\s*\))?$`)

// DefaultConstants returns a registry with the SQL time constants
func DefaultConstants() *Constants {
	c := &Constants{values: make(map[string]ConstFunc)}
	c.Register("CURRENT_TIMESTAMP", precisionLiteral("CURRENT_TIMESTAMP"))
	c.Register("NOW", precisionLiteral("NOW"))
	c.Register("UTC_TIMESTAMP", precisionLiteral("UTC_TIMESTAMP"))
	c.Register("CURRENT_DATE", func(arg string) (interface{}, error) {
		if arg != "" {
			return nil, errors.New("CURRENT_DATE takes no argument")
		}
		return data.Literal("CURRENT_DATE"), nil
	})
	return c
}

// precisionLiteral renders NAME or NAME(fsp), fsp being 0-6
func precisionLiteral(name string) ConstFunc {
	return func(arg string) (interface{}, error) {
		if arg == "" {
			return data.Literal(name), nil
		}
		fsp, err := strconv.Atoi(arg)
		if err != nil || fsp < 0 || fsp > 6 {
			return nil, errors.Errorf("%s precision must be 0-6, got '%s'", name, arg)
		}
		return data.Literal(name + "(" + strconv.Itoa(fsp) + ")"), nil
	}
}

// Register adds or replaces a constant
func (c *Constants) Register(name string, fn ConstFunc) {
	c.Lock()
	defer c.Unlock()
	c.values[name] = fn
}

// Resolve evaluates a constant reference like NAME or NAME(arg)
func (c *Constants) Resolve(ref string) (interface{}, error) {
	match := constPattern.FindStringSubmatch(strings.TrimSpace(ref))
	if match == nil {
		return nil, errors.Errorf("invalid constant reference '%s'", ref)
	}
	c.RLock()
	fn, ok := c.values[match[1]]
	c.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown constant '%s'", match[1])
	}
	return fn(match[2])
}
