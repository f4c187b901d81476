package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perfmodel/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "perfmodel", cmd.Use)
	assert.Contains(t, cmd.Long, "execution traces")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"merge", "show", "export", "validate", "replay", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestMergeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	mergeCmd, _, err := cmd.Find([]string{"merge"})
	require.NoError(t, err)

	for name, short := range map[string]string{"scenario": "s", "file": "f", "dir": "d", "recursive": "R"} {
		flag := mergeCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, short, flag.Shorthand, name)
	}
}

func TestExportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	exportCmd, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)

	outputFlag := exportCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "--format", "xml", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("json"))
	assert.True(t, isValidFormat("text"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}

func TestMissingConfigFile(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--config", env.dir + "/missing.yaml", "show"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSettingsDefaultsWithoutPreRun(t *testing.T) {
	opts := &RootOptions{}
	cfg := opts.settings()
	require.NotNil(t, cfg)
	assert.Equal(t, "default", cfg.Scenario.Default)
	assert.Equal(t, "./perfmodel.db", opts.databasePath())

	opts.Database = "other.db"
	assert.Equal(t, "other.db", opts.databasePath())
}

func TestValidatorDisabledByConfig(t *testing.T) {
	disabled := false
	opts := &RootOptions{Config: config.DefaultConfig()}
	opts.Config.Validation.Enabled = &disabled

	v, err := opts.validator()
	require.NoError(t, err)
	assert.Nil(t, v)

	opts.Config = config.DefaultConfig()
	v, err = opts.validator()
	require.NoError(t, err)
	assert.NotNil(t, v)
}
