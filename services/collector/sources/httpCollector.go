package sources

import (
	"context"
	"fmt"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/collector/stabilizer"
)

type httpCollector struct {
	parser Parser
}

// NewHTTPCollector creates a source collector that fetches the source over HTTP and hands the responses to the parser
func NewHTTPCollector(parser Parser) (*httpCollector, error) {
	if parser == nil {
		return nil, errNilParser
	}

	return &httpCollector{
		parser: parser,
	}, nil
}

// Collect fetches and parses the source. Every failure, including a panicking parser, ends up in the result.
func (c *httpCollector) Collect(ctx context.Context, source model.SourceConfig, fetcher Fetcher) (result model.SourceResult) {
	defer func() {
		r := recover()
		if r != nil {
			log.Error("source parser panicked", "type", source.Type, "panic", r)
			result = model.ParseFailure(stabilizer.Stabilize(fmt.Sprintf("parser panic: %v", r)))
		}
	}()

	request, err := NewRequest(source)
	if err != nil {
		return model.ParseFailure(stabilizer.StabilizeError(fmt.Errorf("invalid source configuration: %w", err)))
	}

	responses, err := fetcher.Fetch(ctx, request)
	if err != nil {
		if isParseError(err) {
			return model.ParseFailure(stabilizer.StabilizeError(err))
		}
		return model.ConnectionFailure(stabilizer.StabilizeError(err))
	}

	parsed, err := c.parser.Parse(responses, source)
	if err != nil {
		return model.ParseFailure(stabilizer.StabilizeError(err))
	}
	if parsed.HasError() {
		parsed.ErrorText = stabilizer.Stabilize(parsed.ErrorText)
	}

	return parsed
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *httpCollector) IsInterfaceNil() bool {
	return c == nil
}
