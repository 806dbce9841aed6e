package sqlgen

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/titpetric/ocpbootstrap/data"
)

// QuoteIdentifier back-quotes a table or column name
func QuoteIdentifier(name string) string {
	return "`" + strings.Replace(name, "`", "``", -1) + "`"
}

// QuoteString single-quotes s, doubling embedded single quotes
func QuoteString(s string) string {
	return "'" + strings.Replace(s, "'", "''", -1) + "'"
}

// Literal renders a row value as a SQL literal
func Literal(value interface{}) (string, error) {
	switch v := data.Normalize(value).(type) {
	case nil:
		return "NULL", nil
	case string:
		return QuoteString(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case data.Literal:
		return string(v), nil
	}
	return "", errors.Errorf("unsupported value type %T", value)
}

// assignments renders `col`=val pairs for the given columns of row
func assignments(row data.Row, columns []string) ([]string, error) {
	result := make([]string, 0, len(columns))
	for _, column := range columns {
		value, err := Literal(row.Value(column))
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", column)
		}
		result = append(result, QuoteIdentifier(column)+"="+value)
	}
	return result, nil
}
