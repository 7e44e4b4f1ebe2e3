package inline

import (
	"time"

	"github.com/tubedl-cli/tubedl/batch"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/pipeline"
	"github.com/tubedl-cli/tubedl/progress"
)

// Event is one JSON line written in JSON mode.
type Event struct {
	// Event is "item", "batch" or "summary".
	Event string    `json:"event" jsonschema:"enum=item,enum=batch,enum=summary"`
	Time  time.Time `json:"time"`

	ID    string `json:"id,omitempty"`
	Phase string `json:"phase,omitempty" jsonschema:"enum=resolving,enum=resolved,enum=downloading,enum=merging,enum=processing,enum=completed,enum=skipped,enum=error"`

	Title       string   `json:"title,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Path        string   `json:"path,omitempty"`
	Downloaded  int64    `json:"downloaded,omitempty"`
	Total       int64    `json:"total,omitempty"`
	Speed       float64  `json:"speed,omitempty"`
	Elapsed     float64  `json:"elapsed,omitempty"`
	Extension   string   `json:"ext,omitempty"`
	Step        string   `json:"step,omitempty"`
	Status      string   `json:"status,omitempty"`
	Error       string   `json:"error,omitempty"`
	Class       string   `json:"class,omitempty"`
	Failures    []string `json:"failures,omitempty"`

	Batch   *progress.BatchProgress `json:"batch,omitempty"`
	Summary *Summary                `json:"summary,omitempty"`
}

// Summary is the final report of a batch.
type Summary struct {
	BatchID    string   `json:"batch_id"`
	Total      int      `json:"total"`
	Succeeded  int      `json:"succeeded"`
	WithErrors int      `json:"with_errors"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Items      []Result `json:"items"`
}

// Result is the outcome of one item.
type Result struct {
	ID       string   `json:"id"`
	Title    string   `json:"title,omitempty"`
	URL      string   `json:"url,omitempty"`
	Path     string   `json:"path,omitempty"`
	Status   string   `json:"status" jsonschema:"enum=success,enum=with errors,enum=skipped,enum=error"`
	Error    string   `json:"error,omitempty"`
	Class    string   `json:"class,omitempty"`
	Failures []string `json:"failures,omitempty"`
	Bytes    int64    `json:"bytes"`
}

func itemEvent(s progress.State) Event {
	e := Event{Event: "item", Time: time.Now(), ID: s.ItemID(), Phase: s.Phase().String()}

	switch s := s.(type) {
	case progress.Resolving:
		e.Title = s.Reference.Title
		e.Placeholder = s.Placeholder
	case progress.Resolved:
		e.Title = s.Title
	case progress.Downloading:
		e.Downloaded = s.Downloaded
		e.Total = s.Total
		e.Speed = s.Speed
		e.Elapsed = s.Elapsed.Seconds()
	case progress.Merging:
		e.Extension = s.Extension
	case progress.Processing:
		e.Step = string(s.Step)
		e.Status = string(s.Status)
		e.Error = s.Error
	case progress.Completed:
		e.Path = s.Path
		e.Failures = s.Failures
		if s.WithErrors {
			e.Status = pipeline.StatusWithErrors.String()
		}
	case progress.Skipped:
		e.Path = s.Path
	case progress.Error:
		e.Error = s.Message
		e.Class = s.Class
	}

	return e
}

// SummaryOf converts a batch summary for reporting.
func SummaryOf(s *batch.Summary) *Summary {
	out := &Summary{
		BatchID:    s.BatchID,
		Total:      s.Total,
		Succeeded:  s.Succeeded(),
		WithErrors: s.WithErrors(),
		Skipped:    s.Skipped(),
		Failed:     s.Failed(),
		Items:      make([]Result, len(s.Results)),
	}

	for i, r := range s.Results {
		out.Items[i] = Result{
			ID:       r.ItemID,
			Title:    r.Title,
			URL:      r.URL,
			Path:     r.Path,
			Status:   r.Status.String(),
			Failures: r.Failures,
			Bytes:    r.Bytes,
		}

		if r.Err != nil {
			out.Items[i].Error = fault.Message(r.Err)
			out.Items[i].Class = fault.ClassOf(r.Err).String()
		}
	}

	return out
}
