package sources

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	errNilCollector      = errors.New("nil source collector")
	errNilCache          = errors.New("nil response cache")
	errNilParser         = errors.New("nil parser")
	errMissingURL        = errors.New("missing url parameter")
	errUnsupportedMethod = errors.New("unsupported method")
	errInvalidMaxPages   = errors.New("invalid max_pages parameter")
	errUnsupportedFormat = errors.New("unsupported archive format")
	errNoResponses       = errors.New("no responses to parse")
	errMissingParameter  = errors.New("missing parameter")
	errEntityWithoutKey  = errors.New("entity without key")
	errNotANumber        = errors.New("not a number")
	errResponseTooLarge  = errors.New("response too large")
)

type errStatusNotOK int

func (e errStatusNotOK) Error() string {
	return fmt.Sprintf("non-2xx HTTP status code: %d %s", int(e), http.StatusText(int(e)))
}

type errPathNotFound string

func (e errPathNotFound) Error() string {
	return "JSON path not found in response: " + string(e)
}

type errMetricFamilyNotFound string

func (e errMetricFamilyNotFound) Error() string {
	return "metric family not found in response: " + string(e)
}

// parseError marks failures that happen after the source replied, while interpreting its payload
type parseError struct {
	err error
}

func newParseError(err error) error {
	return &parseError{err: err}
}

func (e *parseError) Error() string {
	return e.err.Error()
}

func (e *parseError) Unwrap() error {
	return e.err
}

func isParseError(err error) bool {
	var pe *parseError
	return errors.As(err, &pe)
}
