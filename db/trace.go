package db

import (
	"context"

	"database/sql"

	"go.elastic.co/apm/module/apmsql"
	_ "go.elastic.co/apm/module/apmsql/mysql"
)

// TracedConnector opens the connection through apmsql so every statement
// becomes an APM span
func TracedConnector(ctx context.Context, credentials Credentials) (*sql.DB, error) {
	handle, err := apmsql.Open(credentials.DriverName, credentials.DSN)
	if err != nil {
		return nil, err
	}
	if err := handle.PingContext(ctx); err != nil {
		handle.Close()
		return nil, err
	}
	return handle, nil
}
