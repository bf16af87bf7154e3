package sources

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iulianpascalau/quality-collector/services/collector/cache"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

var log = logger.GetOrCreate("sources")

const defaultMaxResponseSize = 64 * 1024 * 1024

// ArgsHTTPFetcher is the DTO used to create a new HTTP fetcher
type ArgsHTTPFetcher struct {
	Cache           ResponseCache
	Timeout         time.Duration
	CacheTTL        time.Duration
	MaxResponseSize int64
}

type httpFetcher struct {
	cache           ResponseCache
	client          *http.Client
	cacheTTL        time.Duration
	maxResponseSize int64
}

// NewHTTPFetcher creates a fetcher that consults the response cache before every request
func NewHTTPFetcher(args ArgsHTTPFetcher) (*httpFetcher, error) {
	if check.IfNil(args.Cache) {
		return nil, errNilCache
	}

	maxResponseSize := args.MaxResponseSize
	if maxResponseSize <= 0 {
		maxResponseSize = defaultMaxResponseSize
	}

	return &httpFetcher{
		cache: args.Cache,
		client: &http.Client{
			Timeout: args.Timeout,
		},
		cacheTTL:        args.CacheTTL,
		maxResponseSize: maxResponseSize,
	}, nil
}

// Fetch retrieves the request, following the next page links and expanding zip archives
func (f *httpFetcher) Fetch(ctx context.Context, request Request) ([]cache.Response, error) {
	responses := make([]cache.Response, 0, 1)
	url := request.URL
	visited := make(map[string]struct{})

	for page := 0; page < request.MaxPages && len(url) > 0; page++ {
		if _, seen := visited[url]; seen {
			break
		}
		visited[url] = struct{}{}

		response, err := f.fetchOne(ctx, request, url)
		if err != nil {
			return nil, err
		}

		if request.Archive == archiveZip {
			members, errExpand := expandZip(response, f.maxResponseSize)
			if errExpand != nil {
				return nil, newParseError(errExpand)
			}
			responses = append(responses, members...)
			break
		}

		responses = append(responses, response)
		if len(request.NextPagePath) == 0 {
			break
		}
		url = gjson.GetBytes(response.Body, request.NextPagePath).String()
	}

	return responses, nil
}

func (f *httpFetcher) fetchOne(ctx context.Context, request Request, url string) (cache.Response, error) {
	signature := cache.Signature{
		Method:  request.Method,
		URL:     url,
		Headers: request.Headers,
		Body:    request.Body,
	}

	return f.cache.GetOrFetch(signature, f.cacheTTL, func() (cache.Response, error) {
		return f.doRequest(ctx, request, url)
	})
}

func (f *httpFetcher) doRequest(ctx context.Context, request Request, url string) (cache.Response, error) {
	var body io.Reader
	if len(request.Body) > 0 {
		body = strings.NewReader(request.Body)
	}

	req, err := http.NewRequestWithContext(ctx, request.Method, url, body)
	if err != nil {
		return cache.Response{}, err
	}
	for name, values := range request.Headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return cache.Response{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return cache.Response{}, errStatusNotOK(resp.StatusCode)
	}

	payload, err := readLimited(resp.Body, f.maxResponseSize)
	if errors.Is(err, errResponseTooLarge) {
		return cache.Response{}, newParseError(err)
	}
	if err != nil {
		return cache.Response{}, err
	}

	log.Trace("fetched source response", "method", request.Method, "status", resp.StatusCode, "size", len(payload))

	return cache.Response{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        payload,
	}, nil
}

func expandZip(response cache.Response, maxSize int64) ([]cache.Response, error) {
	reader, err := zip.NewReader(bytes.NewReader(response.Body), int64(len(response.Body)))
	if err != nil {
		return nil, fmt.Errorf("invalid zip archive: %w", err)
	}

	members := make([]cache.Response, 0, len(reader.File))
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		contents, errRead := readZipMember(file, maxSize)
		if errRead != nil {
			return nil, fmt.Errorf("reading %s from zip archive: %w", file.Name, errRead)
		}

		members = append(members, cache.Response{
			URL:        response.URL + "#" + file.Name,
			StatusCode: response.StatusCode,
			Body:       contents,
		})
	}

	return members, nil
}

func readZipMember(file *zip.File, maxSize int64) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close()
	}()

	return readLimited(rc, maxSize)
}

// readLimited reads one byte past the limit so that an oversized payload is reported instead of silently truncated
func readLimited(reader io.Reader, limit int64) ([]byte, error) {
	payload, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(payload)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", errResponseTooLarge, limit)
	}

	return payload, nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (f *httpFetcher) IsInterfaceNil() bool {
	return f == nil
}
