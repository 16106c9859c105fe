package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/surch/internal/utils"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationContentConstant  = "common:\n" +
		"  log_level: debug\n" +
		"  log_format: console\n" +
		"tools:\n" +
		"  org:\n" +
		"    search:\n" +
		"      - TODO\n" +
		"    jobs: 4\n" +
		"  repo:\n" +
		"    print: true\n"
)

func writeTestConfigurationFile(testInstance *testing.T) string {
	testInstance.Helper()

	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testConfigurationContentConstant), 0o644))
	return configurationPath
}

func TestNewApplicationRegistersSubcommands(testInstance *testing.T) {
	application := NewApplication()

	registeredCommandNames := make([]string, 0)
	for _, registeredCommand := range application.rootCommand.Commands() {
		registeredCommandNames = append(registeredCommandNames, registeredCommand.Name())
	}

	require.Contains(testInstance, registeredCommandNames, "org")
	require.Contains(testInstance, registeredCommandNames, "user")
	require.Contains(testInstance, registeredCommandNames, "repo")
}

func TestInitializeConfigurationAppliesDefaults(testInstance *testing.T) {
	application := NewApplication()

	initializationError := application.initializeConfiguration(application.rootCommand)
	require.NoError(testInstance, initializationError)

	require.Equal(testInstance, string(utils.LogLevelInfo), application.configuration.Common.LogLevel)
	require.Equal(testInstance, string(utils.LogFormatStructured), application.configuration.Common.LogFormat)
	require.Equal(testInstance, 1, application.configuration.Tools.Organization.Jobs)
	require.Empty(testInstance, application.configuration.Tools.Organization.SearchTerms)
}

func TestInitializeConfigurationReadsConfigurationFile(testInstance *testing.T) {
	application := NewApplication()
	application.configurationFilePath = writeTestConfigurationFile(testInstance)

	initializationError := application.initializeConfiguration(application.rootCommand)
	require.NoError(testInstance, initializationError)

	require.Equal(testInstance, string(utils.LogLevelDebug), application.configuration.Common.LogLevel)
	require.Equal(testInstance, []string{"TODO"}, application.configuration.Tools.Organization.SearchTerms)
	require.Equal(testInstance, 4, application.configuration.Tools.Organization.Jobs)
	require.True(testInstance, application.configuration.Tools.Repository.PrintResults)
	require.Equal(testInstance, application.configurationFilePath, application.configurationMetadata.ConfigFileUsed)
}

func TestLogLevelFlagOverridesConfigurationFile(testInstance *testing.T) {
	application := NewApplication()
	application.configurationFilePath = writeTestConfigurationFile(testInstance)

	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, string(utils.LogLevelWarn)))
	application.logLevelFlagValue = string(utils.LogLevelWarn)

	initializationError := application.initializeConfiguration(application.rootCommand)
	require.NoError(testInstance, initializationError)
	require.Equal(testInstance, string(utils.LogLevelWarn), application.configuration.Common.LogLevel)
}

func TestRootCommandPrintsHelpWithoutArguments(testInstance *testing.T) {
	application := NewApplication()

	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(outputBuffer)
	application.rootCommand.SetArgs(nil)

	executionError := application.Execute()
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, outputBuffer.String(), applicationNameConstant)
	require.Contains(testInstance, outputBuffer.String(), "org")
}

func TestInitializeConfigurationRejectsUnknownLogLevel(testInstance *testing.T) {
	application := NewApplication()

	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, "verbose"))
	application.logLevelFlagValue = "verbose"

	initializationError := application.initializeConfiguration(application.rootCommand)
	require.Error(testInstance, initializationError)
	require.Contains(testInstance, initializationError.Error(), "unsupported log level")
}
