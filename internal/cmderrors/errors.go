// Package cmderrors defines the error types understood by the top-level
// command loop, which translates them into process exit codes.
package cmderrors

import "fmt"

// UsageError is returned when the command is invoked with invalid
// arguments. The command loop prints the error followed by the command's
// usage text and exits with code 2.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// Usage returns a new UsageError with the given message.
func Usage(message string) *UsageError {
	return &UsageError{Message: message}
}

// Usagef returns a new UsageError with the given formatted message.
func Usagef(format string, args ...interface{}) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// ExitCodeError carries an explicit process exit code, optionally with an
// error to print before exiting.
type ExitCodeError struct {
	error
	exitCode int
}

func (e *ExitCodeError) Code() int {
	return e.exitCode
}

func (e *ExitCodeError) HasError() bool {
	return e.error != nil
}

// ExitCode returns a new ExitCodeError. err may be nil if the failure has
// already been reported.
func ExitCode(code int, err error) *ExitCodeError {
	return &ExitCodeError{error: err, exitCode: code}
}

// ExitCode1 is the bare non-zero exit used when the failure message has
// already been written.
var ExitCode1 = ExitCode(1, nil)
