// Package utils exposes reusable helpers consumed by multiple commands.
//
// It currently houses ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, and zap logging for the CLI, plus a
// FlushingWriter used for command output streams.
package utils
