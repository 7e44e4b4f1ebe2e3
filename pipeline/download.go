package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/progress"
	"github.com/tubedl-cli/tubedl/scratch"
	"github.com/tubedl-cli/tubedl/selector"
	"github.com/tubedl-cli/tubedl/transport"
)

// downloaded are the scratch files of the selected streams. Either may be empty.
type downloaded struct {
	video string
	audio string
}

func (d downloaded) primary() string {
	if d.video != "" {
		return d.video
	}
	return d.audio
}

// aggregate folds the progress of sequential sub-streams into a single figure.
type aggregate struct {
	mu       sync.Mutex
	start    time.Time
	totals   []int64
	finished int64
	current  int
}

func newAggregate(formats []format.Format) *aggregate {
	totals := make([]int64, len(formats))
	for i, f := range formats {
		totals[i] = f.Filesize.OrEmpty()
	}

	return &aggregate{start: time.Now(), totals: totals}
}

func (a *aggregate) total() int64 {
	var sum int64
	for _, t := range a.totals {
		sum += t
	}
	return sum
}

func (a *aggregate) update(p transport.Progress) (downloaded, total int64, speed float64, elapsed time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p.Total > 0 {
		a.totals[a.current] = p.Total
	}

	downloaded = a.finished + p.Downloaded
	elapsed = time.Since(a.start)
	if secs := elapsed.Seconds(); secs > 0 {
		speed = float64(downloaded) / secs
	}

	return downloaded, a.total(), speed, elapsed
}

// next closes the current sub-stream with its final size.
func (a *aggregate) next(size int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.finished += size
	if a.totals[a.current] <= 0 {
		a.totals[a.current] = size
	}
	a.current++
}

// download fetches the selected streams one after another into scope.
func (r *run) download(scope *scratch.Scope, selection selector.Selection) (downloaded, error) {
	var files downloaded

	formats := selection.Formats()
	agg := newAggregate(formats)

	fetch := func(role string, f format.Format) (string, error) {
		dest := scope.Path(fmt.Sprintf("%s.%s", role, f.Extension))

		size, err := r.deps.Transport.Fetch(r.ctx, f, dest, func(p transport.Progress) {
			done, total, speed, elapsed := agg.update(p)
			r.emit(progress.Downloading{
				Item:       r.item,
				Downloaded: done,
				Total:      total,
				Speed:      speed,
				Elapsed:    elapsed,
			})
		})
		if err != nil {
			return "", fault.Wrap(fault.Connection, "download", err)
		}

		agg.next(size)
		r.result.Bytes += size
		return dest, nil
	}

	var err error
	if v, ok := selection.Video.Get(); ok {
		if files.video, err = fetch("video", v); err != nil {
			return files, err
		}
	}

	if a, ok := selection.Audio.Get(); ok {
		if files.audio, err = fetch("audio", a); err != nil {
			return files, err
		}
	}

	return files, nil
}
