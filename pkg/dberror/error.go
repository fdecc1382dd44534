package dberror

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// ErrorCategory classifies errors by their nature and appropriate handling strategy.
type ErrorCategory int

const (
	// ErrCategoryUser represents errors caused by invalid caller input.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategoryTransient represents conditions that may clear if the
	// operation is retried later, such as a full buffer pool.
	ErrCategoryTransient

	// ErrCategorySystem represents failures of the environment: unreadable
	// or unwritable files, closed handles.
	ErrCategorySystem

	// ErrCategoryData represents malformed on-disk content.
	ErrCategoryData

	// ErrCategoryConcurrency represents conflicts between transactions. The
	// affected transaction must be rolled back and may then be retried.
	ErrCategoryConcurrency
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryUser:
		return "USER"
	case ErrCategoryTransient:
		return "TRANSIENT"
	case ErrCategorySystem:
		return "SYSTEM"
	case ErrCategoryData:
		return "DATA"
	case ErrCategoryConcurrency:
		return "CONCURRENCY"
	default:
		return "UNKNOWN"
	}
}

// Error codes understood by the storage core.
const (
	CodeStorageFault       = "STORAGE_FAULT"
	CodeTransactionAborted = "TRANSACTION_ABORTED"
	CodeIllegalState       = "ILLEGAL_STATE"
	CodeBufferPoolFull     = "BUFFER_POOL_FULL"
)

// Sentinels for errors.Is. A DBError matches a sentinel when the codes agree.
var (
	ErrStorageFault       = sentinel(ErrCategorySystem, CodeStorageFault, "storage fault")
	ErrTransactionAborted = sentinel(ErrCategoryConcurrency, CodeTransactionAborted, "transaction aborted")
	ErrIllegalState       = sentinel(ErrCategoryUser, CodeIllegalState, "illegal state")
	ErrBufferPoolFull     = sentinel(ErrCategoryTransient, CodeBufferPoolFull, "buffer pool full")
)

// DBError represents a structured database error with rich context information.
type DBError struct {
	// Code is a unique identifier for this error type (e.g., "STORAGE_FAULT").
	Code string

	// Category classifies the error for appropriate handling strategy.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	Detail string

	// Operation identifies the operation in progress, e.g. "ReadPage" or "Acquire".
	Operation string

	// Component identifies where the error originated, e.g. "HeapFile" or "LockManager".
	Component string

	// Cause is the underlying error that triggered this database error.
	Cause error

	// Stack is the call stack at the point the error was created.
	Stack pkgerrors.StackTrace
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func sentinel(category ErrorCategory, code, message string) *DBError {
	return &DBError{Code: code, Category: category, Message: message}
}

// New creates a new DBError with the specified code, category, and message.
func New(category ErrorCategory, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(2),
	}
}

// Wrap wraps an existing error with database-specific context information.
// If the error is already a DBError, it enriches the existing error with
// operation and component context (only if not already set).
func Wrap(err error, code, operation, component string) *DBError {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return dbErr
	}

	return &DBError{
		Code:      code,
		Category:  categoryOf(code),
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(2),
	}
}

// StorageFault reports an I/O failure while reading or writing pages.
func StorageFault(cause error, operation, component, format string, args ...any) *DBError {
	return build(CodeStorageFault, cause, operation, component, format, args...)
}

// TransactionAborted tells the caller its transaction must be rolled back.
func TransactionAborted(operation, component, format string, args ...any) *DBError {
	return build(CodeTransactionAborted, nil, operation, component, format, args...)
}

// IllegalState reports API misuse such as re-opening an open iterator or
// using a terminated transaction.
func IllegalState(operation, component, format string, args ...any) *DBError {
	return build(CodeIllegalState, nil, operation, component, format, args...)
}

// BufferPoolFull reports that no resident page could be evicted.
func BufferPoolFull(operation, component, format string, args ...any) *DBError {
	return build(CodeBufferPoolFull, nil, operation, component, format, args...)
}

func build(code string, cause error, operation, component, format string, args ...any) *DBError {
	return &DBError{
		Code:      code,
		Category:  categoryOf(code),
		Message:   messageOf(code),
		Detail:    fmt.Sprintf(format, args...),
		Operation: operation,
		Component: component,
		Cause:     cause,
		Stack:     captureStack(3),
	}
}

func categoryOf(code string) ErrorCategory {
	switch code {
	case CodeTransactionAborted:
		return ErrCategoryConcurrency
	case CodeIllegalState:
		return ErrCategoryUser
	case CodeBufferPoolFull:
		return ErrCategoryTransient
	default:
		return ErrCategorySystem
	}
}

func messageOf(code string) string {
	switch code {
	case CodeStorageFault:
		return ErrStorageFault.Message
	case CodeTransactionAborted:
		return ErrTransactionAborted.Message
	case CodeIllegalState:
		return ErrIllegalState.Message
	case CodeBufferPoolFull:
		return ErrBufferPoolFull.Message
	default:
		return strings.ToLower(strings.ReplaceAll(code, "_", " "))
	}
}

// captureStack records the call stack, dropping the innermost skip frames
// that belong to this package.
func captureStack(skip int) pkgerrors.StackTrace {
	st := pkgerrors.New("").(stackTracer).StackTrace()
	if len(st) > skip {
		return st[skip:]
	}
	return st
}

// Error implements the standard Go error interface
//
// The format follows the pattern:
// [ERROR_CODE] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *DBError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}

	if e.Operation != "" {
		fmt.Fprintf(&b, " (operation: %s", e.Operation)
		if e.Component != "" {
			fmt.Fprintf(&b, ", component: %s", e.Component)
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		fmt.Fprintf(&b, " caused by: %v", e.Cause)
	}

	return b.String()
}

// Unwrap returns the underlying cause error, enabling error chain traversal
// with Go's standard error handling functions like errors.Is and errors.As.
func (e *DBError) Unwrap() error {
	return e.Cause
}

// Is matches any DBError carrying the same code, so callers can test
// against the package sentinels.
func (e *DBError) Is(target error) bool {
	t, ok := target.(*DBError)
	return ok && t.Code == e.Code
}

// FormatStack returns a human-readable stack trace for debugging purposes.
func (e *DBError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}
	return "Stack trace:" + fmt.Sprintf("%+v", e.Stack)
}

func IsStorageFault(err error) bool {
	return errors.Is(err, ErrStorageFault)
}

func IsTransactionAborted(err error) bool {
	return errors.Is(err, ErrTransactionAborted)
}

func IsIllegalState(err error) bool {
	return errors.Is(err, ErrIllegalState)
}

func IsBufferPoolFull(err error) bool {
	return errors.Is(err, ErrBufferPoolFull)
}
