package db

import (
	"context"
	"time"

	"database/sql"
)

type (
	// Credentials contains DSN and Driver
	Credentials struct {
		DSN        string
		DriverName string
	}

	// ConnectionOptions include common connection options
	ConnectionOptions struct {
		Credentials Credentials

		// Connector is an optional parameter to produce our
		// own *sql.DB, which is then wrapped in *sqlx.DB
		Connector func(context.Context, Credentials) (*sql.DB, error)

		Retries        int
		RetryDelay     time.Duration
		ConnectTimeout time.Duration
	}

	// MetaProperties locate the metadata store
	MetaProperties struct {
		Address  string
		Database string
		User     string
		Password string
	}
)

// Complete reports if every connection property is set. An empty
// password is allowed.
func (m MetaProperties) Complete() bool {
	return m.Address != "" && m.Database != "" && m.User != ""
}

// Missing lists the names of unset connection properties
func (m MetaProperties) Missing() []string {
	result := []string{}
	if m.Address == "" {
		result = append(result, "meta-address")
	}
	if m.Database == "" {
		result = append(result, "meta-database")
	}
	if m.User == "" {
		result = append(result, "meta-user")
	}
	return result
}
