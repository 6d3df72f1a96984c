package picterra

import (
	stderrors "errors"

	"github.com/ao-picterra/pycterra-cli/internal/api"
)

// APIError reports a server-side failure that arrived in a well-formed
// response, such as an operation that terminated in the failed state.
type APIError struct {
	Msg string
}

func (e *APIError) Error() string {
	return e.Msg
}

// ValueError reports an argument value the client rejects before or
// while issuing a request.
type ValueError struct {
	Msg string
}

func (e *ValueError) Error() string {
	return e.Msg
}

// IsClientError reports whether err belongs to the error family the CLI
// surfaces as a plain failure message: a transport or server rejection,
// or an invalid argument value. Anything else is an unexpected failure.
func IsClientError(err error) bool {
	var (
		httpErr *api.Error
		apiErr  *APIError
		valErr  *ValueError
	)
	return stderrors.As(err, &httpErr) || stderrors.As(err, &apiErr) || stderrors.As(err, &valErr)
}
