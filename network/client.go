// Package network builds the HTTP clients shared by extractors and the transport.
package network

import (
	"net/http"
	"time"

	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/constant"
	"github.com/tubedl-cli/tubedl/key"
)

// Options tune a client.
type Options struct {
	// Timeout bounds a whole request, body included. Zero means no timeout.
	Timeout time.Duration
	// Fingerprint makes TLS handshakes look like Chrome's.
	Fingerprint bool
}

// OptionsFromViper reads transport.timeout and transport.tls_fingerprint.
func OptionsFromViper() Options {
	return Options{
		Timeout:     time.Duration(viper.GetInt(key.TransportTimeout)) * time.Second,
		Fingerprint: viper.GetBool(key.TransportTLSFingerprint),
	}
}

// New returns a client for opts. Requests without a User-Agent get the browser one.
func New(opts Options) *http.Client {
	var base http.RoundTripper = newTransport()
	if opts.Fingerprint {
		base = newFingerprintTransport(base)
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: userAgent{next: base},
	}
}

// newTransport initializes a tuned http.Transport with pool limits sized for parallel downloads.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = time.Second
	return t
}

type userAgent struct {
	next http.RoundTripper
}

func (u userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", constant.UserAgent)
	return u.next.RoundTrip(clone)
}
