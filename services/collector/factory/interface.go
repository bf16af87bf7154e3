package factory

import "context"

// Engine defines the collector's operations
type Engine interface {
	Process(ctx context.Context)
	IsInterfaceNil() bool
}
