package bootstrap

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titpetric/ocpbootstrap/progress"
)

func TestParseArgs(t *testing.T) {
	params, err := ParseArgs([]string{
		"--bootstrap",
		"--install",
		"--port=8080",
		"--auth=admin:pass:word",
		"--meta-address", "127.0.0.1:2881",
		"--meta-database=meta_database",
		"--meta-user=meta_user@ocp_meta",
		"--meta-password=secret",
		"--progress-log=/tmp/ocp/progress.log",
		"--with-property=logging.file.total-size-cap:10G",
		"--spring.profiles.active=prod",
		"--with-property", "ocp.site.url:http://127.0.0.1:8180",
		"-Dfile.encoding=UTF-8",
		"-Dhttp.proxyHost=proxy",
		"-h",
		"-Xmx1g",
		"--with-property=logging.file.max-history:7",
	})
	require.NoError(t, err)

	assert.True(t, params.Bootstrap)
	assert.Equal(t, progress.ActionInstall, params.Action)
	assert.Equal(t, 8080, params.Port)
	assert.Equal(t, "admin", params.AuthUser)
	assert.Equal(t, "pass:word", params.AuthPassword)
	assert.Equal(t, "127.0.0.1:2881", params.Meta.Address)
	assert.Equal(t, "meta_database", params.Meta.Database)
	assert.Equal(t, "meta_user@ocp_meta", params.Meta.User)
	assert.Equal(t, "secret", params.Meta.Password)
	assert.Equal(t, "/tmp/ocp/progress.log", params.ProgressLog)
	assert.Equal(t, []Property{
		{Name: "logging.file.total-size-cap", Value: "10G"},
		{Name: "ocp.site.url", Value: "http://127.0.0.1:8180"},
		{Name: "logging.file.max-history", Value: "7"},
	}, params.Properties)
}

func TestParseArgsDashValues(t *testing.T) {
	params, err := ParseArgs([]string{"-Dhttp.proxyHost=proxy", "--meta-password", "-secret", "--upgrade", "-Dhttps.proxyHost=proxy"})
	require.NoError(t, err)
	assert.Equal(t, "-secret", params.Meta.Password)
	assert.Equal(t, progress.ActionUpgrade, params.Action)
}

func TestParseArgsDefaults(t *testing.T) {
	params, err := ParseArgs(nil)
	require.NoError(t, err)
	assert.False(t, params.Bootstrap)
	assert.Equal(t, progress.ActionUnknown, params.Action)
	assert.Equal(t, DefaultPort, params.Port)
	assert.Empty(t, params.Properties)
}

func TestParseArgsLastActionWins(t *testing.T) {
	cases := []struct {
		args     []string
		expected progress.Action
	}{
		{[]string{"--install", "--upgrade"}, progress.ActionUpgrade},
		{[]string{"--upgrade", "--install"}, progress.ActionInstall},
		{[]string{"--upgrade", "--install=false"}, progress.ActionUpgrade},
		{[]string{"--upgrade=true"}, progress.ActionUpgrade},
	}
	for _, tc := range cases {
		params, err := ParseArgs(tc.args)
		require.NoError(t, err, "%v", tc.args)
		assert.Equal(t, tc.expected, params.Action, "%v", tc.args)
	}
}

func TestParseArgsErrors(t *testing.T) {
	cases := []struct {
		args  []string
		field string
	}{
		{[]string{"--port=http"}, "port"},
		{[]string{"--port=70000"}, "port"},
		{[]string{"--auth=admin"}, "auth"},
		{[]string{"--with-property=novalue"}, "with-property"},
		{[]string{"--with-property=:value"}, "with-property"},
	}
	for _, tc := range cases {
		_, err := ParseArgs(tc.args)
		var configErr *ConfigError
		require.True(t, errors.As(err, &configErr), "%v", tc.args)
		assert.Equal(t, tc.field, configErr.Field)
	}

	_, err := ParseArgs([]string{"--install=maybe"})
	assert.Error(t, err)
}
