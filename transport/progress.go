package transport

import (
	"time"
)

// Progress is a snapshot of one transfer. Total is zero when unknown.
type Progress struct {
	Downloaded int64
	Total      int64
	Speed      float64
	Elapsed    time.Duration
}

// ProgressFunc receives throttled progress snapshots.
type ProgressFunc func(Progress)

// meter counts written bytes and reports them at most once per interval.
type meter struct {
	fn         ProgressFunc
	interval   time.Duration
	start      time.Time
	last       time.Time
	downloaded int64
	total      int64
}

func newMeter(fn ProgressFunc, interval time.Duration) *meter {
	now := time.Now()
	return &meter{fn: fn, interval: interval, start: now}
}

func (m *meter) Write(p []byte) (int, error) {
	m.add(int64(len(p)))
	return len(p), nil
}

func (m *meter) add(n int64) {
	m.downloaded += n
	if m.total > 0 && m.downloaded > m.total {
		m.total = m.downloaded
	}

	if m.fn == nil {
		return
	}

	now := time.Now()
	if now.Sub(m.last) < m.interval {
		return
	}

	m.last = now
	m.fn(m.snapshot(now))
}

// reset drops the counted bytes, used when a server ignores a range request.
func (m *meter) reset(to int64) {
	m.downloaded = to
}

func (m *meter) flush() {
	if m.fn != nil {
		m.fn(m.snapshot(time.Now()))
	}
}

func (m *meter) snapshot(now time.Time) Progress {
	elapsed := now.Sub(m.start)

	var speed float64
	if secs := elapsed.Seconds(); secs > 0 {
		speed = float64(m.downloaded) / secs
	}

	return Progress{
		Downloaded: m.downloaded,
		Total:      m.total,
		Speed:      speed,
		Elapsed:    elapsed,
	}
}
