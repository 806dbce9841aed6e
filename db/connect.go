package db

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Connect connects to the metadata store described by meta
func Connect(ctx context.Context, meta MetaProperties, options ConnectionOptions) (*sqlx.DB, error) {
	dsn, err := FormatDSN(meta)
	if err != nil {
		return nil, err
	}
	options.Credentials.DSN = dsn
	if options.Retries > 0 {
		return ConnectWithRetry(ctx, options)
	}
	return ConnectWithOptions(ctx, options)
}

// ConnectWithOptions connect to host based on ConnectionOptions{}
func ConnectWithOptions(ctx context.Context, options ConnectionOptions) (*sqlx.DB, error) {
	credentials := options.Credentials
	if credentials.DSN == "" {
		return nil, errors.New("DSN not provided")
	}
	if credentials.DriverName == "" {
		credentials.DriverName = "mysql"
	}
	credentials.DSN = cleanDSN(credentials.DSN)
	if options.Connector != nil {
		handle, err := options.Connector(ctx, credentials)
		if err == nil {
			return sqlx.NewDb(handle, credentials.DriverName), nil
		}
		return nil, errors.WithStack(err)
	}
	return sqlx.ConnectContext(ctx, credentials.DriverName, credentials.DSN)
}
