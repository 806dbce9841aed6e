package hook

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/titpetric/ocpbootstrap/db"
	"github.com/titpetric/ocpbootstrap/progress"
)

func TestValidatePassword(t *testing.T) {
	valid := []string{
		"aA123456",
		"1A~!@#%^&*_-+=|(){}[]:;,.?/",
		strings.Repeat("aB3", 10) + "xY",
	}
	for _, password := range valid {
		assert.NoError(t, ValidatePassword(password), password)
	}
	assert.Len(t, valid[2], 32)

	invalid := []string{
		"abc",
		"aA11",
		"aA12 3456",
		"abcdefgh",
		strings.Repeat("aB3", 11),
		"aA123456\t",
		"aA123456€",
	}
	for _, password := range invalid {
		err := ValidatePassword(password)
		var policyErr *PolicyError
		assert.True(t, errors.As(err, &policyErr), password)
	}
	assert.Len(t, invalid[4], 33)
}

type properties map[string]string

func (p properties) Property(key string) (string, bool) {
	value, ok := p[key]
	return value, ok
}

func newInitializer(t *testing.T, props PropertySource, env map[string]string) (*PasswordInitializer, sqlmock.Sqlmock) {
	t.Helper()
	handle, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	conn := sqlx.NewDb(handle, "mysql")
	t.Cleanup(func() {
		conn.Close()
	})

	registry := db.NewRegistry()
	registry.Register("metadb", conn)

	p := NewPasswordInitializer(db.NewExecutor(registry), props)
	p.getenv = func(key string) string {
		return env[key]
	}
	p.hash = func(password []byte) ([]byte, error) {
		return bcrypt.GenerateFromPassword(password, bcrypt.MinCost)
	}
	return p, mock
}

const (
	selectAdmin = "SELECT `need_change_password` FROM `iam_user` WHERE `id`=?"
	updateAdmin = "UPDATE `iam_user` SET `password`=?, `need_change_password`=0 WHERE `id`=? AND `need_change_password`=1"
)

type bcryptHash struct {
	password string
}

func (h bcryptHash) Match(v driver.Value) bool {
	hashed, ok := v.(string)
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(h.password)) == nil
}

func TestPasswordInitializer(t *testing.T) {
	ctx := context.Background()

	t.Run("environment first", func(t *testing.T) {
		p, mock := newInitializer(t, properties{AdminPasswordKey: "fromProperty1"}, map[string]string{AdminPasswordKey: "fromEnv123"})
		mock.ExpectQuery(selectAdmin).WithArgs(AdminUserID).
			WillReturnRows(sqlmock.NewRows([]string{"need_change_password"}).AddRow(1))
		mock.ExpectExec(updateAdmin).WithArgs(bcryptHash{"fromEnv123"}, AdminUserID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, p.Initialized(ctx, progress.ActionInstall, "metadb"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("property fallback", func(t *testing.T) {
		p, mock := newInitializer(t, properties{AdminPasswordKey: "fromProperty1"}, nil)
		mock.ExpectQuery(selectAdmin).WithArgs(AdminUserID).
			WillReturnRows(sqlmock.NewRows([]string{"need_change_password"}).AddRow(1))
		mock.ExpectExec(updateAdmin).WithArgs(bcryptHash{"fromProperty1"}, AdminUserID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, p.Initialized(ctx, progress.ActionInstall, "metadb"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already changed", func(t *testing.T) {
		p, mock := newInitializer(t, nil, nil)
		mock.ExpectQuery(selectAdmin).WithArgs(AdminUserID).
			WillReturnRows(sqlmock.NewRows([]string{"need_change_password"}).AddRow(0))

		require.NoError(t, p.Initialized(ctx, progress.ActionUpgrade, "metadb"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing password", func(t *testing.T) {
		p, mock := newInitializer(t, properties{}, nil)
		mock.ExpectQuery(selectAdmin).WithArgs(AdminUserID).
			WillReturnRows(sqlmock.NewRows([]string{"need_change_password"}).AddRow(1))

		err := p.Initialized(ctx, progress.ActionInstall, "metadb")
		var policyErr *PolicyError
		require.True(t, errors.As(err, &policyErr))
		assert.Contains(t, err.Error(), AdminPasswordKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("weak password", func(t *testing.T) {
		p, mock := newInitializer(t, nil, map[string]string{AdminPasswordKey: "password"})
		mock.ExpectQuery(selectAdmin).WithArgs(AdminUserID).
			WillReturnRows(sqlmock.NewRows([]string{"need_change_password"}).AddRow(1))

		err := p.Initialized(ctx, progress.ActionInstall, "metadb")
		var policyErr *PolicyError
		require.True(t, errors.As(err, &policyErr))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
