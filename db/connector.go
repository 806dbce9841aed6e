package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/titpetric/ocpbootstrap/internal/log"
)

type connectResult struct {
	db  *sqlx.DB
	err error
}

// ConnectWithRetry uses retry options set in ConnectionOptions{}
func ConnectWithRetry(ctx context.Context, options ConnectionOptions) (*sqlx.DB, error) {
	dsn := maskDSN(options.Credentials.DSN)

	resultCh := make(chan connectResult, 1)

	log.Infof("connecting to metadata store %s", dsn)

	go func() {
		try := 0
		for {
			try++
			db, err := ConnectWithOptions(ctx, options)
			if err == nil {
				resultCh <- connectResult{db: db}
				return
			}
			log.Warningf("can't connect, dsn=%s, err=%s, try=%d", dsn, err, try)
			if options.Retries <= try {
				resultCh <- connectResult{err: errors.Wrapf(err, "could not connect, dsn=%s, tries=%d", dsn, try)}
				return
			}

			select {
			case <-ctx.Done():
				resultCh <- connectResult{err: errors.Wrapf(ctx.Err(), "db connection cancelled, dsn=%s", dsn)}
				return
			case <-time.After(options.RetryDelay):
			}
		}
	}()

	timeout := options.ConnectTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	select {
	case result := <-resultCh:
		return result.db, result.err
	case <-time.After(timeout):
		return nil, errors.Errorf("db connect timed out, dsn=%s", dsn)
	case <-ctx.Done():
		return nil, errors.Errorf("db connection cancelled, dsn=%s", dsn)
	}
}
