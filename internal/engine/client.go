package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// apiResponse is a fully-read API response.
type apiResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// apiError is a non-2xx response whose body was still readable. The
// body is kept so operations can surface the service's own explanation.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api status %d", e.Status)
}

// errNoAPIKey is surfaced as a hard error rather than a report line:
// without credentials no request can ever succeed.
var errNoAPIKey = errors.New("SCRAPINGBEE_API_KEY is not configured")

// apiGet performs one authenticated GET against the ScrapingBee API.
// Failed calls are never retried here; each operation reports its
// failure once and the caller decides whether to try again. A non-OK
// status comes back as an *apiError so callers can quote the body.
func apiGet(ctx context.Context, endpoint string, query url.Values, headers map[string]string, timeout time.Duration) (*apiResponse, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api: %w", errNoAPIKey)
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("api: rate limit wait: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", cfg.APIKey)
	reqURL := cfg.BaseURL + endpoint + "?" + query.Encode()

	var resp *http.Response
	err := TrackOperation(ctx, "api:"+endpoint, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", UserAgentBot)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		var doErr error
		resp, doErr = cfg.HTTPClient.Do(req)
		return doErr
	})
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: %s: read body: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &apiError{Status: resp.StatusCode, Body: string(body)}
	}

	return &apiResponse{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// errorDetail renders an API failure the way operation reports quote
// it: the response body for status errors, the error text otherwise,
// capped to keep tool output readable.
func errorDetail(err error) string {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return TruncateRunes(apiErr.Body, 1000, "...")
	}
	return TruncateRunes(err.Error(), 1000, "...")
}
