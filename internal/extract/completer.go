package extract

import (
	"context"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// Completer sends one prompt to a hosted model and returns its raw reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// checkStatus maps a non-2xx reply to an error. 429 and 5xx are retryable.
func checkStatus(provider string, code int, body []byte) error {
	if code == http.StatusTooManyRequests || code >= 500 {
		return &RetryableError{StatusCode: code, Message: string(body)}
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("%s api status %d: %s", provider, code, truncate(string(body), 500))
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
