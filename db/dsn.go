package db

import (
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// sqlMode keeps the server defaults and reads backslashes in string literals
// verbatim, generated literals only double single quotes
const sqlMode = "CONCAT(@@sql_mode, ',NO_BACKSLASH_ESCAPES')"

// FormatDSN builds a mysql DSN from metadata connection properties.
// Address is host or host:port, port 2881 when omitted.
func FormatDSN(meta MetaProperties) (string, error) {
	if !meta.Complete() {
		return "", errors.Errorf("incomplete metadata connection properties, missing %s", strings.Join(meta.Missing(), ", "))
	}
	addr := meta.Address
	if !strings.Contains(addr, ":") {
		addr += ":2881"
	}
	config := mysql.NewConfig()
	config.Net = "tcp"
	config.Addr = addr
	config.DBName = meta.Database
	config.User = meta.User
	config.Passwd = meta.Password
	config.MultiStatements = false
	config.Params = map[string]string{
		"sql_mode": sqlMode,
	}
	return config.FormatDSN(), nil
}

func cleanDSN(dsn string) string {
	dsn = addOptionToDSN(dsn, "?", "?")
	dsn = addOptionToDSN(dsn, "collation=", "&collation=utf8mb4_general_ci")
	dsn = addOptionToDSN(dsn, "parseTime=", "&parseTime=true")
	dsn = addOptionToDSN(dsn, "loc=", "&loc=Local")
	dsn = strings.Replace(dsn, "?&", "?", 1)
	return dsn
}

func addOptionToDSN(dsn, match, option string) string {
	if !strings.Contains(dsn, match) {
		dsn += option
	}
	return dsn
}
