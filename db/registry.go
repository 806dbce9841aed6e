package db

import (
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// DataSourceProvider resolves data sources by name
type DataSourceProvider interface {
	DataSource(name string) (*sqlx.DB, error)
}

// Registry holds named data sources
type Registry struct {
	sync.RWMutex
	sources map[string]*sqlx.DB
}

var _ DataSourceProvider = &Registry{}

// NewRegistry creates a *Registry
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]*sqlx.DB),
	}
}

// Register adds or replaces the data source for name
func (r *Registry) Register(name string, handle *sqlx.DB) {
	r.Lock()
	defer r.Unlock()
	r.sources[name] = handle
}

// DataSource returns the data source registered as name
func (r *Registry) DataSource(name string) (*sqlx.DB, error) {
	r.RLock()
	defer r.RUnlock()
	if handle, ok := r.sources[name]; ok {
		return handle, nil
	}
	return nil, errors.Errorf("data source '%s' is not registered", name)
}

// Names lists registered data sources
func (r *Registry) Names() []string {
	r.RLock()
	defer r.RUnlock()
	result := make([]string, 0, len(r.sources))
	for name := range r.sources {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Close closes every registered data source
func (r *Registry) Close() error {
	r.Lock()
	defer r.Unlock()
	var result error
	for name, handle := range r.sources {
		if err := handle.Close(); err != nil && result == nil {
			result = errors.Wrapf(err, "closing data source '%s'", name)
		}
	}
	r.sources = make(map[string]*sqlx.DB)
	return result
}
