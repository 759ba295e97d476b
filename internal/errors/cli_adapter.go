package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if dse, ok := As(err); ok {
		return exitCodeFromCategory(dse.Category)
	}

	return 1
}

func exitCodeFromCategory(category ErrorCategory) int {
	switch category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryNetwork, CategoryGit:
		return 8 // External system error
	case CategoryBuild, CategoryExtract, CategoryEmit, CategoryFileSystem, CategoryStore:
		return 11 // Build error
	case CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	dse, ok := As(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return err.Error()
	}
	switch dse.Category {
	case CategoryConfig, CategoryValidation:
		return dse.Message
	default:
		return fmt.Sprintf("%s: %s", dse.Category, dse.Message)
	}
}

// HandleError reports err and exits the process with the mapped code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	if a.shouldLog(err) {
		a.logError(err)
	}

	_, _ = fmt.Fprintf(a.out, "%s\n", a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if dse, ok := As(err); ok {
		return dse.Category == CategoryInternal ||
			dse.Category == CategoryRuntime ||
			dse.Severity == SeverityFatal
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	dse, ok := As(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	attrs := []slog.Attr{slog.String("category", string(dse.Category))}
	for k, v := range dse.Context {
		attrs = append(attrs, slog.Any(k, v))
	}
	if dse.Cause != nil {
		attrs = append(attrs, slog.String("cause", dse.Cause.Error()))
	}
	a.logger.LogAttrs(context.Background(), levelFromSeverity(dse.Severity), dse.Message, attrs...)
}

func levelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
