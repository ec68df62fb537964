// Package application holds the use-case layer shared contracts.
package application

import "context"

// UseCase is the command-in, result-out shape every orchestrating use case
// satisfies; transports depend on the concrete types, workers may depend on
// this interface.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}
