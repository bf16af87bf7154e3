package sources

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/iulianpascalau/quality-collector/model"
)

const (
	headerParameterPrefix = "header."
	defaultMaxPages       = 10
	archiveZip            = "zip"
)

// Request describes what to fetch for a source
type Request struct {
	Method       string
	URL          string
	Headers      http.Header
	Body         string
	NextPagePath string
	MaxPages     int
	Archive      string
}

// NewRequest builds the request from the source parameters
func NewRequest(source model.SourceConfig) (Request, error) {
	params := source.Parameters

	url := strings.TrimSpace(params["url"])
	if len(url) == 0 {
		return Request{}, errMissingURL
	}

	method := strings.ToUpper(strings.TrimSpace(params["method"]))
	if len(method) == 0 {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		return Request{}, fmt.Errorf("%w: %s", errUnsupportedMethod, method)
	}

	maxPages := defaultMaxPages
	if raw := strings.TrimSpace(params["max_pages"]); len(raw) > 0 {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Request{}, fmt.Errorf("%w: %q", errInvalidMaxPages, raw)
		}
		maxPages = n
	}

	archive := strings.ToLower(strings.TrimSpace(params["archive"]))
	if len(archive) > 0 && archive != archiveZip {
		return Request{}, fmt.Errorf("%w: %s", errUnsupportedFormat, archive)
	}

	headers := make(http.Header)
	for name, value := range params {
		if strings.HasPrefix(name, headerParameterPrefix) {
			headers.Set(strings.TrimPrefix(name, headerParameterPrefix), value)
		}
	}
	if token := params["private_token"]; len(token) > 0 {
		headers.Set("Private-Token", token)
	}
	if username := params["username"]; len(username) > 0 {
		req := http.Request{Header: make(http.Header)}
		req.SetBasicAuth(username, params["password"])
		headers.Set("Authorization", req.Header.Get("Authorization"))
	}

	return Request{
		Method:       method,
		URL:          url,
		Headers:      headers,
		Body:         params["body"],
		NextPagePath: params["next_page_path"],
		MaxPages:     maxPages,
		Archive:      archive,
	}, nil
}
