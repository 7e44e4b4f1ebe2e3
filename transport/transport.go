// Package transport moves remote bytes into local files: plain HTTP(S) with resume, and HLS playlists.
package transport

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/log"
)

// Options tune retries and progress reporting.
type Options struct {
	// Retries is how many times a failed request is attempted again.
	Retries int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
	// Interval throttles progress callbacks. The final callback is never dropped.
	Interval time.Duration
}

// OptionsFromViper reads transport.retries.
func OptionsFromViper() Options {
	return Options{
		Retries:  viper.GetInt(key.TransportRetries),
		Backoff:  time.Second,
		Interval: 250 * time.Millisecond,
	}
}

// Transport downloads formats and plain URLs through afero.
type Transport struct {
	client *http.Client
	fs     afero.Fs
	opts   Options
}

// New returns a transport using client for requests and fs for files.
func New(client *http.Client, fs afero.Fs, opts Options) *Transport {
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	return &Transport{client: client, fs: fs, opts: opts}
}

// Fetch downloads f into dest and returns the number of bytes written.
// The filesize of f stands in for the total when the server reports none.
func (t *Transport) Fetch(ctx context.Context, f format.Format, dest string, onProgress ProgressFunc) (int64, error) {
	m := newMeter(onProgress, t.opts.Interval)
	if size, ok := f.Filesize.Get(); ok {
		m.total = size
	}

	log.With(log.Fields{"format": f.ID, "dest": dest}).Debugf("fetching %s", f.Protocol)

	var err error
	if isHLS(f) {
		err = t.fetchHLS(ctx, f.URL, f.Headers, dest, m)
	} else {
		err = t.fetchHTTP(ctx, f.URL, f.Headers, dest, m)
	}

	m.flush()

	if err != nil {
		return m.downloaded, wrap("fetch", err)
	}

	return m.downloaded, nil
}

// FetchURL downloads a single auxiliary resource, like a subtitle or a thumbnail, without progress.
func (t *Transport) FetchURL(ctx context.Context, rawURL string, headers map[string]string, dest string) error {
	return wrap("fetch url", t.fetchHTTP(ctx, rawURL, headers, dest, newMeter(nil, 0)))
}

func wrap(op string, err error) error {
	return fault.Wrap(fault.Connection, op, err)
}

func isHLS(f format.Format) bool {
	switch strings.ToLower(f.Protocol) {
	case "m3u8", "m3u8_native", "hls":
		return true
	}

	u, err := url.Parse(f.URL)
	if err != nil {
		return false
	}

	return strings.EqualFold(path.Ext(u.Path), ".m3u8")
}

func (t *Transport) newRequest(ctx context.Context, rawURL string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// wait sleeps the linear backoff for attempt unless ctx ends first.
func (t *Transport) wait(ctx context.Context, attempt int) error {
	if t.opts.Backoff <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(t.opts.Backoff * time.Duration(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
