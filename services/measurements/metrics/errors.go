package metrics

import "errors"

var (
	errEmptyPath          = errors.New("empty metric definitions path")
	errEmptyDefinitions   = errors.New("empty metric definitions file")
	errMissingUUID        = errors.New("metric without uuid")
	errDuplicateUUID      = errors.New("duplicate metric uuid")
	errInvalidDirection   = errors.New("invalid direction")
	errInvalidAddition    = errors.New("invalid addition")
	errInvalidScale       = errors.New("invalid scale")
	errMissingSourceType  = errors.New("source without type")
	errInvalidDebtEndDate = errors.New("invalid debt end date")
	errWatcherAlreadyOpen = errors.New("metric definitions are already watched")
)
