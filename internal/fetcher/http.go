package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rohmanhakim/aoc-fetch/internal/metadata"
	"github.com/rohmanhakim/aoc-fetch/pkg/puzzle"
)

const DefaultBaseURL = "https://adventofcode.com"

/*
Responsibilities

- Perform exactly one GET per call
- Attach the session cookie and the user agent
- Classify responses

The fetcher never retries and never parses content; it returns the body
verbatim and reports every call to the metadata sink.
*/
type HTTPFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	baseURL      *url.URL
}

func NewHTTPFetcher(
	metadataSink metadata.MetadataSink,
	httpClient *http.Client,
	baseURL string,
) (*HTTPFetcher, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if metadataSink == nil {
		metadataSink = metadata.NoopSink{}
	}
	return &HTTPFetcher{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		baseURL:      parsed,
	}, nil
}

// URLFor returns the absolute URL of the resource named by key.
func (h *HTTPFetcher) URLFor(key puzzle.Key) string {
	return h.baseURL.JoinPath(key.Path()).String()
}

// Fetch issues one GET for key. credential is the session token, identity
// the User-Agent header value.
func (h *HTTPFetcher) Fetch(
	ctx context.Context,
	key puzzle.Key,
	credential string,
	identity string,
) (string, error) {
	callerMethod := "HTTPFetcher.Fetch"
	startTime := time.Now()
	target := h.URLFor(key)

	body, statusCode, err := h.performFetch(ctx, target, credential, identity)

	h.metadataSink.RecordFetch(key.String(), statusCode, time.Since(startTime), len(body))

	if err != nil {
		h.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			mapFetchErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrKey, key.String()),
				metadata.NewAttr(metadata.AttrURL, target),
				metadata.NewAttr(metadata.AttrHTTPStatus, strconv.Itoa(statusCode)),
			},
		)
		return "", err
	}
	return body, nil
}

func (h *HTTPFetcher) performFetch(ctx context.Context, target, credential, identity string) (string, int, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", 0, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	req.Header.Set("Cookie", "session="+credential)
	req.Header.Set("User-Agent", identity)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", 0, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: !errors.Is(err, context.Canceled),
			Cause:     ErrCauseNetworkFailure,
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return "", resp.StatusCode, &FetchError{
			Message:    fmt.Sprintf("server error: %d", resp.StatusCode),
			Retryable:  true,
			Cause:      ErrCauseRequest5xx,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return "", resp.StatusCode, &FetchError{
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseRequestTooMany,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode == http.StatusNotFound:
		// days unlock at midnight EST; before that the input is a 404
		return "", resp.StatusCode, &FetchError{
			Message:    "resource not found (404)",
			Retryable:  false,
			Cause:      ErrCauseNotFound,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		// an expired or malformed session cookie yields 400
		return "", resp.StatusCode, &FetchError{
			Message:    fmt.Sprintf("session rejected (%d)", resp.StatusCode),
			Retryable:  false,
			Cause:      ErrCauseUnauthorized,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode != http.StatusOK:
		return "", resp.StatusCode, &FetchError{
			Message:    fmt.Sprintf("unexpected status: %d", resp.StatusCode),
			Retryable:  false,
			Cause:      ErrCauseUnexpectedStatus,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, &FetchError{
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			Retryable:  true,
			Cause:      ErrCauseReadResponseBodyError,
			StatusCode: resp.StatusCode,
		}
	}

	return string(body), resp.StatusCode, nil
}
