// Package errors provides standardized error handling for renamezip.
// It defines the error kinds raised along the collect, group, name and
// package pipeline together with helpers for creating, wrapping and
// classifying them.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// Common error constants for frequently occurring errors
var (
	ErrFileNotFound       = NewFileError("file not found", "", FileNotFound, nil)
	ErrInvalidDropPayload = NewDropError("dropped items must all be folders", nil)
	ErrEmptyFileSet       = &ApplicationError{msg: "no files loaded", kind: EmptyFileSet}
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	FileAccessDenied
	InvalidPath
	FileCreateFailed
	FileOperationFailed
	InvalidOperation
	// Config error kinds
	InvalidConfig
	ConfigNotFound
	// Pipeline error kinds
	TraversalEntry
	InvalidMappingSource
	InvalidDropPayload
	EmptyFileSet
	ArchiveFailed
)

// String returns a short name for the kind
func (k ErrorKind) String() string {
	switch k {
	case FileNotFound:
		return "file_not_found"
	case FileAccessDenied:
		return "file_access_denied"
	case InvalidPath:
		return "invalid_path"
	case FileCreateFailed:
		return "file_create_failed"
	case FileOperationFailed:
		return "file_operation_failed"
	case InvalidOperation:
		return "invalid_operation"
	case InvalidConfig:
		return "invalid_config"
	case ConfigNotFound:
		return "config_not_found"
	case TraversalEntry:
		return "traversal_entry"
	case InvalidMappingSource:
		return "invalid_mapping_source"
	case InvalidDropPayload:
		return "invalid_drop_payload"
	case EmptyFileSet:
		return "empty_file_set"
	case ArchiveFailed:
		return "archive_failed"
	default:
		return "unknown"
	}
}

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents errors related to file operations
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// Traversal stages
const (
	StageReadEntry    = "read_entry"
	StageReadChildren = "read_children"
	StageReadContent  = "read_content"
)

// TraversalError is a non-fatal failure while discovering one entry.
type TraversalError struct {
	ApplicationError
	path  string
	stage string
}

// NewTraversalError creates a new traversal error for the entry at path
func NewTraversalError(path, stage string, err error) *TraversalError {
	return &TraversalError{
		ApplicationError: ApplicationError{
			msg:  "traversal failed",
			err:  err,
			kind: TraversalEntry,
		},
		path:  path,
		stage: stage,
	}
}

// Error returns the traversal error message
func (e *TraversalError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.msg, e.stage, e.path, e.err)
	}
	return fmt.Sprintf("%s (%s): %s", e.msg, e.stage, e.path)
}

// Path returns the entry path that failed
func (e *TraversalError) Path() string {
	return e.path
}

// Stage returns which step of the traversal failed
func (e *TraversalError) Stage() string {
	return e.stage
}

// MappingError is raised for a rename mapping source that cannot be used.
type MappingError struct {
	ApplicationError
	line int
}

// NewMappingError creates a new mapping error. line is 0 when unknown.
func NewMappingError(msg string, line int, err error) *MappingError {
	return &MappingError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: InvalidMappingSource,
		},
		line: line,
	}
}

// Error returns the mapping error message
func (e *MappingError) Error() string {
	if e.line > 0 {
		if e.err != nil {
			return fmt.Sprintf("%s (line %d): %v", e.msg, e.line, e.err)
		}
		return fmt.Sprintf("%s (line %d)", e.msg, e.line)
	}
	return e.ApplicationError.Error()
}

// Line returns the line of the source the error refers to
func (e *MappingError) Line() int {
	return e.line
}

// ArchiveError is a fatal failure while writing the archive.
type ArchiveError struct {
	ApplicationError
	entry string
}

// NewArchiveError creates a new archive error; entry may be empty.
func NewArchiveError(msg, entry string, err error) *ArchiveError {
	return &ArchiveError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: ArchiveFailed,
		},
		entry: entry,
	}
}

// Error returns the archive error message
func (e *ArchiveError) Error() string {
	if e.entry != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.entry, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.entry)
	}
	return e.ApplicationError.Error()
}

// Entry returns the archive entry path being written
func (e *ArchiveError) Entry() string {
	return e.entry
}

// NewDropError creates an invalid drop payload error
func NewDropError(msg string, err error) *ApplicationError {
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: InvalidDropPayload,
	}
}

// NewOperationError creates an invalid operation error
func NewOperationError(msg string) *ApplicationError {
	return &ApplicationError{
		msg:  msg,
		kind: InvalidOperation,
	}
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

type kinded interface {
	Kind() ErrorKind
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) ErrorKind {
	for err != nil {
		if k, ok := err.(kinded); ok && k.Kind() != Unknown {
			return k.Kind()
		}
		err = errors.Unwrap(err)
	}
	return Unknown
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == FileNotFound
	}
	return false
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}

// IsTraversalEntry checks if the error is a skipped traversal entry
func IsTraversalEntry(err error) bool {
	var travErr *TraversalError
	return errors.As(err, &travErr)
}

// IsInvalidMappingSource checks if the error rejects a mapping source
func IsInvalidMappingSource(err error) bool {
	var mapErr *MappingError
	return errors.As(err, &mapErr)
}

// IsArchiveFailed checks if the error is a fatal archive error
func IsArchiveFailed(err error) bool {
	var archErr *ArchiveError
	return errors.As(err, &archErr)
}

func IsInvalidDropPayload(err error) bool {
	return KindOf(err) == InvalidDropPayload
}

func IsEmptyFileSet(err error) bool {
	return KindOf(err) == EmptyFileSet
}
