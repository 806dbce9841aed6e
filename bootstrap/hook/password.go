// Package hook holds the post-initialization hooks of the metadata store.
package hook

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/titpetric/ocpbootstrap/data"
	"github.com/titpetric/ocpbootstrap/internal/log"
	"github.com/titpetric/ocpbootstrap/progress"
)

const (
	// AdminPasswordKey names both the environment variable and the property
	// carrying the initial administrator password
	AdminPasswordKey = "OCP_EXPRESS_ADMIN_PASSWD"

	// AdminUserID is the id of the administrator in iam_user
	AdminUserID = 100

	// SpecialCharacters may appear in passwords
	SpecialCharacters = "~!@#%^&*_-+=|(){}[]:;,.?/"

	minPasswordLength = 8
	maxPasswordLength = 32
)

type (
	// PolicyError rejects an administrator password
	PolicyError struct {
		Reason string
	}

	// PropertySource resolves process properties
	PropertySource interface {
		Property(key string) (string, bool)
	}

	// Executor runs statements against a named data source
	Executor interface {
		QueryRows(ctx context.Context, dataSource, query string, args ...interface{}) ([]data.Row, error)
		Execute(ctx context.Context, dataSource, stmt string, args ...interface{}) (int64, error)
	}

	// PasswordInitializer sets the administrator password once, while the
	// administrator still has to change it
	PasswordInitializer struct {
		exec       Executor
		properties PropertySource
		getenv     func(string) string
		hash       func(password []byte) ([]byte, error)
	}
)

func (e *PolicyError) Error() string {
	return "admin password policy: " + e.Reason
}

// NewPasswordInitializer creates a *PasswordInitializer
func NewPasswordInitializer(exec Executor, properties PropertySource) *PasswordInitializer {
	return &PasswordInitializer{
		exec:       exec,
		properties: properties,
		getenv:     os.Getenv,
		hash: func(password []byte) ([]byte, error) {
			return bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
		},
	}
}

// ValidatePassword checks length 8-32, letters, digits and special
// characters only, and at least two of those four character classes
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return &PolicyError{Reason: fmt.Sprintf("length must be between %d and %d", minPasswordLength, maxPasswordLength)}
	}

	var lower, upper, digit, special bool
	for _, c := range password {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(SpecialCharacters, c):
			special = true
		default:
			return &PolicyError{Reason: fmt.Sprintf("character %q is not allowed", c)}
		}
	}

	classes := 0
	for _, present := range []bool{lower, upper, digit, special} {
		if present {
			classes++
		}
	}
	if classes < 2 {
		return &PolicyError{Reason: "at least two of lowercase, uppercase, digits and special characters are required"}
	}
	return nil
}

// password resolves the raw password, environment first
func (p *PasswordInitializer) password() (string, error) {
	if value := p.getenv(AdminPasswordKey); value != "" {
		return value, nil
	}
	if p.properties != nil {
		if value, ok := p.properties.Property(AdminPasswordKey); ok && value != "" {
			return value, nil
		}
	}
	return "", &PolicyError{Reason: AdminPasswordKey + " is not set"}
}

// needsChange reports if the administrator still has to change the password
func (p *PasswordInitializer) needsChange(ctx context.Context, dataSource string) (bool, error) {
	rows, err := p.exec.QueryRows(ctx, dataSource, "SELECT `need_change_password` FROM `iam_user` WHERE `id`=?", AdminUserID)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	switch v := rows[0].Value("need_change_password").(type) {
	case int64:
		return v != 0, nil
	case bool:
		return v, nil
	case string:
		return v != "" && v != "0", nil
	}
	return false, nil
}

// Initialized sets the administrator password from OCP_EXPRESS_ADMIN_PASSWD.
// The update only applies while need_change_password is still set.
func (p *PasswordInitializer) Initialized(ctx context.Context, action progress.Action, dataSourceName string) error {
	needsChange, err := p.needsChange(ctx, dataSourceName)
	if err != nil {
		return err
	}
	if !needsChange {
		log.Infof("admin password already set, skipping (%s)", action)
		return nil
	}

	password, err := p.password()
	if err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	hashed, err := p.hash([]byte(password))
	if err != nil {
		return errors.Wrap(err, "can't hash admin password")
	}

	affected, err := p.exec.Execute(ctx, dataSourceName,
		"UPDATE `iam_user` SET `password`=?, `need_change_password`=0 WHERE `id`=? AND `need_change_password`=1",
		string(hashed), AdminUserID)
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Infof("admin password changed concurrently, skipping")
		return nil
	}
	log.Infof("admin password initialized")
	return nil
}
