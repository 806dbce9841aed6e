package data

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Config aggregates table, data and migration definitions of one module
type Config struct {
	sync.RWMutex

	Module string

	tables      []TableDefinition
	definitions []DataDefinition
	migrations  []Migration
}

// NewConfig creates an empty *Config for module
func NewConfig(module string) *Config {
	return &Config{
		Module: module,
	}
}

// AddTable registers a table definition
func (c *Config) AddTable(table TableDefinition) {
	c.Lock()
	defer c.Unlock()
	table.ModuleName = c.Module
	c.tables = append(c.tables, table)
}

// AddData registers a data definition
func (c *Config) AddData(def DataDefinition) error {
	def.ModuleName = c.Module
	if err := def.Validate(); err != nil {
		return err
	}
	c.Lock()
	defer c.Unlock()
	c.definitions = append(c.definitions, def)
	return nil
}

// AddMigration registers a migration, names are unique per module
func (c *Config) AddMigration(m Migration) error {
	m.ModuleName = c.Module
	if err := m.Validate(); err != nil {
		return err
	}
	c.Lock()
	defer c.Unlock()
	for _, existing := range c.migrations {
		if existing.Name == m.Name {
			return errors.Errorf("duplicate migration '%s' in module '%s'", m.Name, c.Module)
		}
	}
	c.migrations = append(c.migrations, m)
	return nil
}

// Merge adds everything from other into c
func (c *Config) Merge(other *Config) error {
	for _, table := range other.Tables() {
		c.AddTable(table)
	}
	for _, def := range other.DataDefinitions() {
		if err := c.AddData(def); err != nil {
			return err
		}
	}
	for _, m := range other.Migrations() {
		if err := c.AddMigration(m); err != nil {
			return err
		}
	}
	return nil
}

// Tables returns table definitions in registration order
func (c *Config) Tables() []TableDefinition {
	c.RLock()
	defer c.RUnlock()
	return append([]TableDefinition(nil), c.tables...)
}

// DataDefinitions returns data definitions in registration order
func (c *Config) DataDefinitions() []DataDefinition {
	c.RLock()
	defer c.RUnlock()
	return append([]DataDefinition(nil), c.definitions...)
}

// Migrations returns migrations ordered by version, registration order breaks ties
func (c *Config) Migrations() []Migration {
	c.RLock()
	result := append([]Migration(nil), c.migrations...)
	c.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SemVer().LessThan(result[j].SemVer())
	})
	return result
}

// Empty reports if nothing was registered
func (c *Config) Empty() bool {
	c.RLock()
	defer c.RUnlock()
	return len(c.tables) == 0 && len(c.definitions) == 0 && len(c.migrations) == 0
}
