package db

import (
	"context"
	"strings"

	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/titpetric/ocpbootstrap/internal/log"
)

// HistoryTable records applied migrations
const HistoryTable = "ocp_bootstrap_history"

const historyDDL = "CREATE TABLE IF NOT EXISTS `" + HistoryTable + "` (\n" +
	"  `module` varchar(128) NOT NULL,\n" +
	"  `name` varchar(128) NOT NULL,\n" +
	"  `version` varchar(32) NOT NULL DEFAULT '',\n" +
	"  `statement_index` int NOT NULL DEFAULT 0,\n" +
	"  `status` text NOT NULL,\n" +
	"  `run_id` varchar(32) NOT NULL DEFAULT '',\n" +
	"  PRIMARY KEY (`module`, `name`)\n" +
	")"

// StatusOK marks a fully applied migration
const StatusOK = "ok"

type (
	// Record is one history row
	Record struct {
		Module         string `db:"module"`
		Name           string `db:"name"`
		Version        string `db:"version"`
		StatementIndex int    `db:"statement_index"`
		Status         string `db:"status"`
		RunID          string `db:"run_id"`
	}

	// History reads and writes the history table
	History struct {
		db    *sqlx.DB
		runID string
	}
)

// Fields lists the history columns
func (Record) Fields() []string {
	return []string{"module", "name", "version", "statement_index", "status", "run_id"}
}

// NewHistory creates a *History, runID is recorded on every saved row
func NewHistory(db *sqlx.DB, runID string) *History {
	return &History{
		db:    db,
		runID: runID,
	}
}

// Exists reports if the history table is present in the current schema
func (h *History) Exists(ctx context.Context) (bool, error) {
	var count int
	query := "select count(*) from information_schema.tables where table_schema=database() and table_name=?"
	if err := h.db.GetContext(ctx, &count, query, HistoryTable); err != nil {
		return false, errors.Wrap(err, "can't check history table")
	}
	return count > 0, nil
}

// Init creates the history table if needed
func (h *History) Init(ctx context.Context) error {
	_, err := h.db.ExecContext(ctx, historyDDL)
	return errors.Wrap(err, "can't create history table")
}

// Get returns the record for a migration, empty when it never ran
func (h *History) Get(ctx context.Context, module, name string) (Record, error) {
	record := Record{
		Module: module,
		Name:   name,
	}
	query := "select " + strings.Join(record.Fields(), ", ") + " from " + HistoryTable + " where module=? and name=?"
	if err := h.db.GetContext(ctx, &record, query, module, name); err != nil && err != sql.ErrNoRows {
		return record, errors.Wrapf(err, "can't read history of %s.%s", module, name)
	}
	return record, nil
}

// Save writes the record, replacing any previous row
func (h *History) Save(ctx context.Context, record Record) error {
	set := func(fields []string) string {
		sql := make([]string, len(fields))
		for k, v := range fields {
			sql[k] = v + "=:" + v
		}
		return strings.Join(sql, ", ")
	}
	record.RunID = h.runID
	_, err := h.db.NamedExecContext(ctx, "replace into "+HistoryTable+" set "+set(record.Fields()), record)
	return errors.Wrapf(err, "can't save history of %s.%s", record.Module, record.Name)
}

// Apply executes the statements of a migration. A migration recorded as ok
// is skipped without calling statements; a failed one resumes at the
// statement that failed. The outcome is saved to history either way.
func (h *History) Apply(ctx context.Context, module, name, version string, statements func() ([]string, error)) (skipped bool, err error) {
	status, err := h.Get(ctx, module, name)
	if err != nil {
		return false, err
	}
	if status.Status == StatusOK {
		log.Infof("migration %s.%s already applied, skipping", module, name)
		return true, nil
	}
	status.Version = version

	up := func() error {
		stmts, err := statements()
		if err != nil {
			status.Status = err.Error()
			return err
		}
		for idx, stmt := range stmts {
			if idx >= status.StatementIndex {
				status.StatementIndex = idx
				if _, err := Execute(ctx, h.db, stmt); err != nil {
					status.Status = err.Error()
					return err
				}
			}
		}
		status.StatementIndex = len(stmts)
		status.Status = StatusOK
		return nil
	}

	err = up()
	if saveErr := h.Save(ctx, status); saveErr != nil {
		log.Errorf("updating migration status failed: %v", saveErr)
		if err == nil {
			err = saveErr
		}
	}
	return false, err
}
