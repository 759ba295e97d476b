package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *DocStageError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(field, reason string) *DocStageError {
	return New(CategoryConfig, SeverityFatal, reason).
		WithContext("field", field)
}

// MatchElementInvalid reports a match element that is neither an exact string nor a pattern.
func MatchElementInvalid(index int, value any) *DocStageError {
	return New(CategoryConfig, SeverityFatal, "match spec element must be a string or a pattern").
		WithContext("index", index).
		WithContext("value", value)
}

// WrapInvalid reports an intro/outro option of an unsupported shape.
func WrapInvalid(field string, value any) *DocStageError {
	return New(CategoryConfig, SeverityFatal, "option must be a string or a function").
		WithContext("field", field).
		WithContext("value", value)
}

func NoEntryInputs() *DocStageError {
	return New(CategoryConfig, SeverityFatal, "at least one entry input is required to compute the root")
}

func ValidationFailed(field, reason string) *DocStageError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Build pipeline errors

func ExtractFailed(moduleID string, cause error) *DocStageError {
	return Wrap(cause, CategoryExtract, SeverityFatal, "documentation extraction failed").
		WithContext("module", moduleID)
}

func EmitFailed(fileName string, cause error) *DocStageError {
	return Wrap(cause, CategoryEmit, SeverityFatal, "artifact emission failed").
		WithContext("artifact", fileName)
}

func PathFailed(moduleID string, cause error) *DocStageError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "artifact path resolution failed").
		WithContext("module", moduleID)
}

func WorkspaceError(operation string, cause error) *DocStageError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

// Git errors

func GitCloneError(url string, cause error) *DocStageError {
	return Wrap(cause, CategoryGit, SeverityFatal, "repository clone failed").
		WithContext("url", url)
}

// Internal errors

func InternalError(message string, cause error) *DocStageError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}

// StoreError wraps a build ledger failure.
func StoreError(operation string, cause error) *DocStageError {
	return Wrap(cause, CategoryStore, SeverityError, "build ledger operation failed").
		WithContext("operation", operation)
}
