package ai

import "context"

type Client interface {
	Analyze(ctx context.Context, resultJSON string) (string, error)
}
