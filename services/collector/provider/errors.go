package provider

import (
	"errors"
	"fmt"
	"net/http"
)

var errEmptyEndpoint = errors.New("empty metrics endpoint")

type errStatusNotOK int

func (e errStatusNotOK) Error() string {
	return fmt.Sprintf("non-2xx HTTP status code: %d %s", int(e), http.StatusText(int(e)))
}

type errPathNotFound string

func (e errPathNotFound) Error() string {
	return "JSON path not found in response: " + string(e)
}
