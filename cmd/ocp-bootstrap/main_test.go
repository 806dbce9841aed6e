package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandArgs(t *testing.T) {
	var got []string
	runBootstrap = func(ctx context.Context, args []string) error {
		got = args
		return nil
	}
	defer func() { runBootstrap = run }()

	tests := []struct {
		name string
		args []string
	}{
		{"space separated address", []string{"--bootstrap", "--meta-address", "127.0.0.1:2881"}},
		{"space separated port", []string{"--bootstrap", "--port", "8080"}},
		{"equals form", []string{"--bootstrap", "--port=8080", "-Dhttp.proxyHost=proxy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			rootCmd.SetArgs(tt.args)
			require.NoError(t, rootCmd.Execute())
			assert.Equal(t, tt.args, got)
		})
	}
}
