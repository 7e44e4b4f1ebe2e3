package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/grafov/m3u8"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/tubedl-cli/tubedl/fault"
)

// ErrEncrypted is returned for HLS streams whose segments need a decryption key.
var ErrEncrypted = errors.New("encrypted HLS streams are not supported")

// fetchHLS resolves a master playlist to its highest-bandwidth variant and appends every media segment to dest.
func (t *Transport) fetchHLS(ctx context.Context, rawURL string, headers map[string]string, dest string, m *meter) error {
	playlist, base, err := t.mediaPlaylist(ctx, rawURL, headers, 0)
	if err != nil {
		return err
	}

	file, err := t.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	segments := lo.Filter(playlist.Segments, func(s *m3u8.MediaSegment, _ int) bool {
		return s != nil
	})

	for _, segment := range segments {
		if encrypted(segment.Key) || encrypted(playlist.Key) {
			return fault.Wrap(fault.Contract, "hls", ErrEncrypted)
		}

		segmentURL, err := resolve(base, segment.URI)
		if err != nil {
			return fault.Wrap(fault.Contract, "hls", err)
		}

		if err := t.appendSegment(ctx, segmentURL, headers, file, m); err != nil {
			return err
		}
	}

	return nil
}

const maxPlaylistDepth = 2

func (t *Transport) mediaPlaylist(ctx context.Context, rawURL string, headers map[string]string, depth int) (*m3u8.MediaPlaylist, *url.URL, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fault.Wrap(fault.Contract, "hls", err)
	}

	data, err := t.get(ctx, rawURL, headers)
	if err != nil {
		return nil, nil, err
	}

	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(data), true)
	if err != nil {
		return nil, nil, fault.Wrap(fault.Contract, "hls", err)
	}

	switch listType {
	case m3u8.MEDIA:
		return playlist.(*m3u8.MediaPlaylist), base, nil
	case m3u8.MASTER:
		if depth >= maxPlaylistDepth {
			return nil, nil, fault.Wrapf(fault.Contract, "hls", "nested master playlists at %s", rawURL)
		}

		variant, ok := bestVariant(playlist.(*m3u8.MasterPlaylist))
		if !ok {
			return nil, nil, fault.Wrapf(fault.Contract, "hls", "master playlist without variants")
		}

		next, err := resolve(base, variant.URI)
		if err != nil {
			return nil, nil, fault.Wrap(fault.Contract, "hls", err)
		}

		return t.mediaPlaylist(ctx, next, headers, depth+1)
	default:
		return nil, nil, fault.Wrapf(fault.Contract, "hls", "unknown playlist type")
	}
}

func bestVariant(master *m3u8.MasterPlaylist) (*m3u8.Variant, bool) {
	variants := lo.Filter(master.Variants, func(v *m3u8.Variant, _ int) bool {
		return v != nil && v.URI != ""
	})

	if len(variants) == 0 {
		return nil, false
	}

	return lo.MaxBy(variants, func(a, b *m3u8.Variant) bool {
		return a.Bandwidth > b.Bandwidth
	}), true
}

func encrypted(k *m3u8.Key) bool {
	return k != nil && k.Method != "" && !strings.EqualFold(k.Method, "NONE")
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}

	return base.ResolveReference(u).String(), nil
}

// get reads a small resource into memory with retries.
func (t *Transport) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	var (
		buf     bytes.Buffer
		lastErr error
	)

	for attempt := 0; attempt <= t.opts.Retries; attempt++ {
		if attempt > 0 {
			if err := t.wait(ctx, attempt); err != nil {
				return nil, err
			}
		}

		buf.Reset()
		lastErr = t.read(ctx, rawURL, headers, &buf)
		if lastErr == nil {
			return buf.Bytes(), nil
		}

		if !retryable(lastErr) {
			break
		}
	}

	return nil, lastErr
}

// appendSegment writes one segment after the bytes already in file. A failed attempt is rolled back before retrying.
func (t *Transport) appendSegment(ctx context.Context, rawURL string, headers map[string]string, file afero.File, m *meter) error {
	start, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	counted := m.downloaded

	var lastErr error
	for attempt := 0; attempt <= t.opts.Retries; attempt++ {
		if attempt > 0 {
			if err := file.Truncate(start); err != nil {
				return err
			}
			if _, err := file.Seek(start, io.SeekStart); err != nil {
				return err
			}
			m.reset(counted)

			if err := t.wait(ctx, attempt); err != nil {
				return err
			}
		}

		lastErr = t.read(ctx, rawURL, headers, io.MultiWriter(file, m))
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

func (t *Transport) read(ctx context.Context, rawURL string, headers map[string]string, w io.Writer) error {
	req, err := t.newRequest(ctx, rawURL, headers)
	if err != nil {
		return fault.Wrap(fault.Contract, "request", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return &StatusError{URL: rawURL, Status: resp.StatusCode}
	}

	_, err = io.Copy(w, resp.Body)
	return err
}
