package gateway

import (
	"context"

	"aigateway/internal/inference"
	"aigateway/internal/modelcheck"
	"aigateway/internal/query"
)

// Aggregator computes the data series behind a chart kind. Optional.
type Aggregator interface {
	Aggregate(ctx context.Context, kind query.ChartKind) (query.ChartData, error)
}

// AggregatorFunc adapts a function to Aggregator.
type AggregatorFunc func(ctx context.Context, kind query.ChartKind) (query.ChartData, error)

func (f AggregatorFunc) Aggregate(ctx context.Context, kind query.ChartKind) (query.ChartData, error) {
	return f(ctx, kind)
}

// FileContexts loads previously extracted file content. Read-only.
type FileContexts interface {
	GetFileContext(ctx context.Context, id string) (query.FileContext, error)
}

// ModelChecker is the model-availability contract; *modelcheck.Checker
// implements it.
type ModelChecker interface {
	Check(ctx context.Context, address string) modelcheck.Status
	Last(address string) (modelcheck.Status, bool)
	Invalidate(address string)
	InvalidateAll()
}

var (
	_ ModelChecker     = (*modelcheck.Checker)(nil)
	_ inference.Client = (*inference.OllamaClient)(nil)
)
