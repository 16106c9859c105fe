package execshell

// CommandEventObserver receives the lifecycle of every git invocation the
// executor performs. Observers run on the calling goroutine and must not
// block.
type CommandEventObserver interface {
	// CommandStarted fires before the command process is spawned.
	CommandStarted(command ShellCommand)
	// CommandCompleted fires once the command exits, regardless of exit code.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed fires when the command could not run at all.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// noopCommandEventObserver backs plain executors that observe nothing.
type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
