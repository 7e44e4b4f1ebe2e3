package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/afero"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/log"
)

// StatusError is an unexpected HTTP response status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Status, http.StatusText(e.Status))
}

// retryable reports whether a failure may succeed on a later attempt.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if fault.Is(err, fault.Contract) {
		return false
	}

	var status *StatusError
	if errors.As(err, &status) {
		switch {
		case status.Status == http.StatusRequestTimeout, status.Status == http.StatusTooManyRequests:
			return true
		case status.Status >= 500:
			return true
		default:
			return false
		}
	}

	return true
}

// fetchHTTP streams rawURL into dest, resuming from what is already written on each retry.
func (t *Transport) fetchHTTP(ctx context.Context, rawURL string, headers map[string]string, dest string, m *meter) error {
	file, err := t.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	var lastErr error
	for attempt := 0; attempt <= t.opts.Retries; attempt++ {
		if attempt > 0 {
			log.With(log.Fields{"url": rawURL, "attempt": attempt}).Warnf("retrying after: %s", lastErr)
			if err := t.wait(ctx, attempt); err != nil {
				return err
			}
		}

		lastErr = t.attempt(ctx, rawURL, headers, file, m)
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

func (t *Transport) attempt(ctx context.Context, rawURL string, headers map[string]string, file afero.File, m *meter) error {
	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	req, err := t.newRequest(ctx, rawURL, headers)
	if err != nil {
		return fault.Wrap(fault.Contract, "request", err)
	}

	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if offset > 0 {
			if err := restart(file); err != nil {
				return err
			}
			m.reset(0)
		}
		if resp.ContentLength > 0 {
			m.total = resp.ContentLength
		}
	case http.StatusPartialContent:
		if resp.ContentLength > 0 {
			m.total = offset + resp.ContentLength
		}
	case http.StatusRequestedRangeNotSatisfiable:
		if offset > 0 {
			return nil
		}
		return &StatusError{URL: rawURL, Status: resp.StatusCode}
	default:
		return &StatusError{URL: rawURL, Status: resp.StatusCode}
	}

	_, err = io.Copy(io.MultiWriter(file, m), resp.Body)
	return err
}

func restart(file afero.File) error {
	if err := file.Truncate(0); err != nil {
		return err
	}

	_, err := file.Seek(0, io.SeekStart)
	return err
}
