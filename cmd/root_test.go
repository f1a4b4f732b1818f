package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrai/cli/internal/api"
	"github.com/hydrai/cli/internal/auth"
	"github.com/hydrai/cli/internal/config"
	"github.com/hydrai/cli/internal/testutils"
)

// resetFlags puts every flag of c and its subcommands back to its default so
// that executions do not leak into each other.
func resetFlags(t *testing.T, c *cobra.Command) {
	t.Helper()

	reset := func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("failed to reset flag %s: %v", f.Name, err)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(t, sub)
	}
}

// executeCommand runs rootCmd with args against the given mocked resty client
// and credential store, pointed at testutils.BaseURL unless args say otherwise.
// It returns what was written to stdout.
func executeCommand(t *testing.T, rc *resty.Client, store auth.Store, args ...string) (string, error) {
	t.Helper()

	resetFlags(t, rootCmd)
	session = nil

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--base-url", testutils.BaseURL}, args...))

	ctx := context.WithValue(context.Background(), RestyClientKey, rc)
	ctx = context.WithValue(ctx, StoreKey, store)

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), err
}

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name                 string
		args                 []string
		expectError          bool
		expectOutputContains string
		expectErrorContains  string
		setupEnv             map[string]string
	}{
		{
			name:                 "Help",
			args:                 []string{"--help"},
			expectOutputContains: "Available Commands",
		},
		{
			name:                 "Version command",
			args:                 []string{"version"},
			expectOutputContains: "HydrAI CLI v",
		},
		{
			name:                 "Version ignores invalid configuration",
			args:                 []string{"version"},
			setupEnv:             map[string]string{"HYDRAI_TIMEOUT": "0s", "HYDRAI_STORE": "vault"},
			expectOutputContains: "HydrAI CLI v",
		},
		{
			name:                "Invalid output format",
			args:                []string{"meters", "-o", "xml"},
			expectError:         true,
			expectErrorContains: "unsupported output format",
		},
		{
			name:                "Invalid log level",
			args:                []string{"meters", "--log-level", "loud"},
			expectError:         true,
			expectErrorContains: "invalid log level",
		},
		{
			name:                "Invalid base URL scheme",
			args:                []string{"meters", "--base-url", "ftp://hydrai.test"},
			expectError:         true,
			expectErrorContains: "scheme must be http or https",
		},
		{
			name:                "Invalid store",
			args:                []string{"auth", "status", "--store", "vault"},
			expectError:         true,
			expectErrorContains: "vault",
		},
		{
			name:                "Invalid timeout from environment",
			args:                []string{"meters"},
			setupEnv:            map[string]string{"HYDRAI_TIMEOUT": "0s"},
			expectError:         true,
			expectErrorContains: "timeout must be > 0",
		},
		{
			name:                "Unknown command",
			args:                []string{"flows"},
			expectError:         true,
			expectErrorContains: "unknown command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setupEnv != nil {
				cleanupEnv := testutils.SetEnv(t, tt.setupEnv)
				defer cleanupEnv()
			}

			rc := testutils.NewMockClient(t)
			output, err := executeCommand(t, rc, auth.NewMemoryStore(""), tt.args...)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectErrorContains)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, output, tt.expectOutputContains)
		})
	}
}

func TestRootCommand_ConfigPrecedence(t *testing.T) {
	cleanupEnv := testutils.SetEnv(t, map[string]string{
		"HYDRAI_OUTPUT":  "yaml",
		"HYDRAI_USER_ID": "from-env",
	})
	defer cleanupEnv()

	rc := testutils.NewMockClient(t)
	_, err := executeCommand(t, rc, auth.NewMemoryStore(""), "auth", "status", "--user-id", "from-flag", "--base-url", "http://flag.test/api/")
	require.NoError(t, err)

	require.NotNil(t, session)
	assert.Equal(t, "http://flag.test/api", session.cfg.BaseURL)
	assert.Equal(t, "from-flag", session.cfg.UserID)
	assert.Equal(t, config.OutputYAML, session.cfg.Output)
	assert.Equal(t, api.DefaultTimeout, session.cfg.Timeout)
}

func TestRootCommand_InjectedStore(t *testing.T) {
	store := auth.NewMemoryStore(testutils.Token)
	rc := testutils.NewMockClient(t)

	_, err := executeCommand(t, rc, store, "auth", "status")
	require.NoError(t, err)

	require.NotNil(t, session)
	assert.Same(t, store, session.store)
	assert.Same(t, store, session.client.Store())
}
