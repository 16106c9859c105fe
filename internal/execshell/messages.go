package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitCloneSubcommandNameConstant   = "clone"
	gitFetchSubcommandNameConstant   = "fetch"
	gitRevListSubcommandNameConstant = "rev-list"
	gitGrepSubcommandNameConstant    = "grep"
)

const (
	gitCloneStartTemplateConstant              = "Cloning %s into %s"
	gitCloneSuccessTemplateConstant            = "Cloned %s into %s"
	gitCloneFailureTemplateConstant            = "Failed to clone %s into %s (exit code %d%s)"
	gitCloneExecutionFailureTemplateConstant   = "Unable to clone %s into %s: %s"
	gitFetchStartTemplateConstant              = "Refreshing clone in %s"
	gitFetchSuccessTemplateConstant            = "Refreshed clone in %s"
	gitFetchFailureTemplateConstant            = "Failed to refresh clone in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant   = "Unable to refresh clone in %s: %s"
	gitRevListStartTemplateConstant            = "Enumerating commits in %s"
	gitRevListSuccessTemplateConstant          = "Enumerated commits in %s"
	gitRevListFailureTemplateConstant          = "Failed to enumerate commits in %s (exit code %d%s)"
	gitRevListExecutionFailureTemplateConstant = "Unable to enumerate commits in %s: %s"
	gitGrepStartTemplateConstant               = "Searching history in %s"
	gitGrepSuccessTemplateConstant             = "Searched history in %s"
	gitGrepFailureTemplateConstant             = "History search in %s reported exit code %d%s"
	gitGrepExecutionFailureTemplateConstant    = "Unable to search history in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name == CommandGit && len(command.Details.Arguments) > 0 {
		subcommand := strings.TrimSpace(command.Details.Arguments[0])
		switch subcommand {
		case gitCloneSubcommandNameConstant:
			return formatter.describeGitCloneMessage(command, result, failure, stage)
		case gitFetchSubcommandNameConstant:
			return formatter.describeWorkingDirectoryMessage(command, result, failure, stage,
				gitFetchStartTemplateConstant, gitFetchSuccessTemplateConstant, gitFetchFailureTemplateConstant, gitFetchExecutionFailureTemplateConstant)
		case gitRevListSubcommandNameConstant:
			return formatter.describeWorkingDirectoryMessage(command, result, failure, stage,
				gitRevListStartTemplateConstant, gitRevListSuccessTemplateConstant, gitRevListFailureTemplateConstant, gitRevListExecutionFailureTemplateConstant)
		case gitGrepSubcommandNameConstant:
			return formatter.describeWorkingDirectoryMessage(command, result, failure, stage,
				gitGrepStartTemplateConstant, gitGrepSuccessTemplateConstant, gitGrepFailureTemplateConstant, gitGrepExecutionFailureTemplateConstant)
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitCloneMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	repositoryURL := fallbackUnknownValueLabelConstant
	cloneDestination := fallbackUnknownValueLabelConstant

	positionalArguments := collectPositionalArguments(command.Details.Arguments[1:])
	if len(positionalArguments) > 0 {
		repositoryURL = positionalArguments[0]
	}
	if len(positionalArguments) > 1 {
		cloneDestination = positionalArguments[1]
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCloneStartTemplateConstant, repositoryURL, cloneDestination)
	case messageStageSuccess:
		return fmt.Sprintf(gitCloneSuccessTemplateConstant, repositoryURL, cloneDestination)
	case messageStageFailure:
		return fmt.Sprintf(gitCloneFailureTemplateConstant, repositoryURL, cloneDestination, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitCloneExecutionFailureTemplateConstant, repositoryURL, cloneDestination, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeWorkingDirectoryMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string) string {
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(executionFailureTemplate, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)

	workingDirectorySuffix := emptyStringConstant
	if len(strings.TrimSpace(command.Details.WorkingDirectory)) > 0 {
		workingDirectorySuffix = fmt.Sprintf(workingDirectorySuffixTemplateConstant, command.Details.WorkingDirectory)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func collectPositionalArguments(arguments []string) []string {
	positionalArguments := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if strings.HasPrefix(argument, "-") {
			continue
		}
		positionalArguments = append(positionalArguments, argument)
	}
	return positionalArguments
}
