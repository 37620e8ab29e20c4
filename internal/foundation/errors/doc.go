// Package errors provides foundational, type-safe error primitives used across markweave.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, validation, parse, render, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and user-facing formatting
//
// Example usage:
//
//	err := errors.ValidationError(summary).
//		WithContext("file", filename).
//		WithContext("threshold", "error").
//		Build()
package errors
