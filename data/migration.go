package data

import (
	"github.com/hashicorp/go-version"
	"github.com/pkg/errors"
)

// ErrAmbiguousMigration is returned when a migration sets both updateBy and deleteBy
var ErrAmbiguousMigration = errors.New("migration sets both updateBy and deleteBy")

// Mode is the kind of statement a migration produces
type Mode int

const (
	ModeInsert Mode = iota
	ModeUpdate
	ModeDelete
)

func (m Mode) String() string {
	switch m {
	case ModeUpdate:
		return "UPDATE"
	case ModeDelete:
		return "DELETE"
	}
	return "INSERT"
}

// Migration is a named, versioned data change applied to TargetTable
type Migration struct {
	ModuleName  string
	Name        string
	Version     string
	TargetTable string

	// Source is a query producing the incoming rows
	Source string

	// Rows are inline incoming rows, appended after Source results
	Rows []Row

	// With binds extra variables for Expr
	With map[string]interface{}

	// Expr transforms the incoming rows, `data` holds the row collection
	Expr string

	UpdateBy []string
	DeleteBy []string
}

// HasTransform reports if rows pass through an expression
func (m *Migration) HasTransform() bool {
	return m.Expr != ""
}

// Mode resolves update > delete > insert
func (m *Migration) Mode() Mode {
	if len(m.UpdateBy) > 0 {
		return ModeUpdate
	}
	if len(m.DeleteBy) > 0 {
		return ModeDelete
	}
	return ModeInsert
}

// Validate checks the migration can be turned into statements
func (m *Migration) Validate() error {
	if m.TargetTable == "" {
		return errors.Errorf("migration '%s' has no target table", m.Name)
	}
	if len(m.UpdateBy) > 0 && len(m.DeleteBy) > 0 {
		return errors.Wrapf(ErrAmbiguousMigration, "migration '%s'", m.Name)
	}
	if m.Version != "" {
		if _, err := version.NewVersion(m.Version); err != nil {
			return errors.Wrapf(err, "migration '%s' has invalid version", m.Name)
		}
	}
	return nil
}

// SemVer returns the parsed version, 0 when unset
func (m *Migration) SemVer() *version.Version {
	if m.Version != "" {
		if v, err := version.NewVersion(m.Version); err == nil {
			return v
		}
	}
	return version.Must(version.NewVersion("0"))
}

// Key identifies the migration in progress logs and history
func (m *Migration) Key() string {
	return m.ModuleName + "." + m.Name
}
