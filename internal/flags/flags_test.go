package flags

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOptions struct {
	*Flags
	path   string
	modify bool
}

func newTestCommand(args ...string) (*cobra.Command, *testOptions) {
	o := new(testOptions)
	o.Flags = New().Add("Test", func(fs *pflag.FlagSet) {
		fs.StringVar(&o.path, "some-path", "default", "A path.")
		fs.BoolVar(&o.modify, "modify", false, "Modify.")
	})

	cmd := &cobra.Command{
		Use:  "test",
		Long: "test command",
		RunE: func(*cobra.Command, []string) error { return o.Complete() },
	}
	o.Prepare(cmd)
	cmd.SetArgs(args)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	return cmd, o
}

func TestCompleteDefaults(t *testing.T) {
	cmd, o := newTestCommand()
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "default", o.path)
	assert.False(t, o.modify)
	assert.True(t, o.Logr.Enabled())
}

func TestCompleteEnvironment(t *testing.T) {
	t.Setenv("TAG_SOME_PATH", "/from/env")
	t.Setenv("TAG_MODIFY", "true")

	cmd, o := newTestCommand()
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "/from/env", o.path)
	assert.True(t, o.modify)
}

func TestCompleteFlagWinsOverEnvironment(t *testing.T) {
	t.Setenv("TAG_SOME_PATH", "/from/env")

	cmd, o := newTestCommand("--some-path", "/from/flag")
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "/from/flag", o.path)
}

func TestCompleteConfigFile(t *testing.T) {
	config := filepath.Join(t.TempDir(), "tag.yaml")
	require.NoError(t, os.WriteFile(config, []byte("some-path: /from/config\nmodify: true\n"), 0o600))

	cmd, o := newTestCommand("--config", config)
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "/from/config", o.path)
	assert.True(t, o.modify)

	t.Setenv("TAG_CONFIG", config)
	cmd, o = newTestCommand()
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/from/config", o.path)
}

func TestCompleteErrors(t *testing.T) {
	tests := map[string]struct {
		args []string
		env  map[string]string
	}{
		"missing config file": {
			args: []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")},
		},
		"invalid env value": {
			env: map[string]string{"TAG_MODIFY": "sometimes"},
		},
		"invalid log level": {
			args: []string{"--log-level", "loud"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range test.env {
				t.Setenv(k, v)
			}

			cmd, _ := newTestCommand(test.args...)
			assert.Error(t, cmd.Execute())
		})
	}
}

func TestHelpSections(t *testing.T) {
	cmd, _ := newTestCommand("--help")
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Test flags:")
	assert.Contains(t, out.String(), "Logging flags:")
	assert.Contains(t, out.String(), "--some-path")
}
