package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/surch/internal/execshell"
	"github.com/temirov/surch/internal/ui"
)

const (
	testRepositoryURLConstant = "https://github.com/acme/alpha.git"
	testCloneTargetConstant   = "/tmp/acme/alpha"
)

func testCloneCommand() execshell.ShellCommand {
	return execshell.ShellCommand{
		Name:    execshell.CommandGit,
		Details: execshell.CommandDetails{Arguments: []string{"clone", testRepositoryURLConstant, testCloneTargetConstant}},
	}
}

func TestConsoleCommandEventLoggerLevels(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zap.InfoLevel)
	eventLogger := ui.NewConsoleCommandEventLogger(zap.New(observerCore))

	eventLogger.CommandStarted(testCloneCommand())
	eventLogger.CommandCompleted(testCloneCommand(), execshell.ExecutionResult{ExitCode: 0})
	eventLogger.CommandCompleted(testCloneCommand(), execshell.ExecutionResult{ExitCode: 128, StandardError: "remote unreachable"})
	eventLogger.CommandExecutionFailed(testCloneCommand(), errors.New("git missing"))

	logEntries := observedLogs.All()
	require.Len(testInstance, logEntries, 4)
	require.Equal(testInstance, zap.InfoLevel, logEntries[0].Level)
	require.Equal(testInstance, zap.InfoLevel, logEntries[1].Level)
	require.Equal(testInstance, zap.WarnLevel, logEntries[2].Level)
	require.Equal(testInstance, zap.ErrorLevel, logEntries[3].Level)
	require.Contains(testInstance, logEntries[0].Message, testRepositoryURLConstant)
}
