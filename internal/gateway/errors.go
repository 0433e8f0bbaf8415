package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/go-github/v62/github"
)

// Failure categories surfaced to callers. A categorized error matches both
// its category and the underlying error with errors.Is / errors.As.
// Failures that fit no category are returned unchanged.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrNotFound     = errors.New("not found")
	ErrTimeout      = errors.New("timed out")
)

type categorizedError struct {
	category error
	err      error
}

func (e *categorizedError) Error() string {
	return e.category.Error() + ": " + e.err.Error()
}

func (e *categorizedError) Unwrap() []error {
	return []error{e.category, e.err}
}

func withCategory(category, err error) error {
	return &categorizedError{category: category, err: err}
}

// categorize tags err with the failure category it belongs to.
func categorize(err error) error {
	if err == nil {
		return nil
	}

	var (
		rateLimitErr *github.RateLimitError
		abuseErr     *github.AbuseRateLimitError
		responseErr  *github.ErrorResponse
		netErr       net.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return withCategory(ErrTimeout, err)
	case errors.As(err, &rateLimitErr), errors.As(err, &abuseErr):
		return withCategory(ErrRateLimited, err)
	case errors.As(err, &responseErr) && responseErr.Response != nil:
		if category := statusCategory(responseErr.Response.StatusCode); category != nil {
			return withCategory(category, err)
		}
		return err
	case errors.As(err, &netErr) && netErr.Timeout():
		return withCategory(ErrTimeout, err)
	}

	// The GraphQL client reports HTTP failures only as text.
	if code, ok := graphQLStatus(err.Error()); ok {
		if category := statusCategory(code); category != nil {
			return withCategory(category, err)
		}
	}
	return err
}

func statusCategory(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return ErrTimeout
	}
	return nil
}

func graphQLStatus(msg string) (int, bool) {
	const marker = "status code: "
	i := strings.Index(msg, marker)
	if i < 0 || len(msg) < i+len(marker)+3 {
		return 0, false
	}
	code, err := strconv.Atoi(msg[i+len(marker) : i+len(marker)+3])
	if err != nil {
		return 0, false
	}
	return code, true
}
