package engine

import (
	"context"
	"errors"
	"fmt"
)

// CheckUsage returns the account's usage report verbatim from the API.
// Responses are cached briefly: agents tend to poll usage between
// operations and every poll costs a request.
func CheckUsage(ctx context.Context) (*UsageResult, error) {
	IncrUsageRequests()

	key := CacheKey("usage", cfg.APIKey)
	if text, ok := CacheGet(ctx, key); ok {
		return &UsageResult{Summary: text, OK: true, Cached: true}, nil
	}

	resp, err := apiGet(ctx, "/api/v1/usage", nil, nil, cfg.UsageTimeout)
	if err != nil {
		if errors.Is(err, errNoAPIKey) {
			return nil, err
		}
		IncrUsageErrors()
		return &UsageResult{Summary: fmt.Sprintf("Error checking usage: %s", errorDetail(err))}, nil
	}

	text := string(resp.Body)
	CacheSet(ctx, key, text)
	return &UsageResult{Summary: text, OK: true}, nil
}
