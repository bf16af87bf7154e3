package model

// ErrorKind tags the outcome of a single source collection
type ErrorKind int

const (
	// NoError means the source was collected and parsed
	NoError ErrorKind = iota
	// ConnectionErrorKind means the source could not be reached or replied with a non-2xx status
	ConnectionErrorKind
	// ParseErrorKind means the source replied but the payload could not be interpreted
	ParseErrorKind
)

// String returns the name of the error kind
func (kind ErrorKind) String() string {
	switch kind {
	case ConnectionErrorKind:
		return "connection_error"
	case ParseErrorKind:
		return "parse_error"
	default:
		return "ok"
	}
}

// SourceResult is the immutable outcome of one source collector invocation
type SourceResult struct {
	Value     *string
	Total     *string
	Entities  []Entity
	ErrorKind ErrorKind
	ErrorText string
}

// Success builds a source result for a source that was collected without errors
func Success(value *string, total *string, entities []Entity) SourceResult {
	return SourceResult{
		Value:    value,
		Total:    total,
		Entities: entities,
	}
}

// ConnectionFailure builds a source result for a source that could not be reached
func ConnectionFailure(errorText string) SourceResult {
	return SourceResult{
		ErrorKind: ConnectionErrorKind,
		ErrorText: errorText,
	}
}

// ParseFailure builds a source result for a source whose response could not be parsed
func ParseFailure(errorText string) SourceResult {
	return SourceResult{
		ErrorKind: ParseErrorKind,
		ErrorText: errorText,
	}
}

// HasError returns true if the source failed
func (result SourceResult) HasError() bool {
	return result.ErrorKind != NoError
}

// StringPtr returns a pointer to a copy of the provided string
func StringPtr(s string) *string {
	return &s
}
