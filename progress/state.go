// Package progress defines the observable states of a download and the shared trackers
// that hold the current state of every item and the completion count of a batch.
package progress

import (
	"time"

	"github.com/tubedl-cli/tubedl/source"
)

// Phase names a step of the per-item state machine.
type Phase int

const (
	PhaseResolving Phase = iota
	PhaseResolved
	PhaseDownloading
	PhaseMerging
	PhaseProcessing
	PhaseCompleted
	PhaseSkipped
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseResolving:
		return "resolving"
	case PhaseResolved:
		return "resolved"
	case PhaseDownloading:
		return "downloading"
	case PhaseMerging:
		return "merging"
	case PhaseProcessing:
		return "processing"
	case PhaseCompleted:
		return "completed"
	case PhaseSkipped:
		return "skipped"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further state can follow p.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseSkipped || p == PhaseError
}

// State is one observable state of an item. The concrete types below are the only implementations.
type State interface {
	// ItemID is the key of the item this state belongs to.
	ItemID() string
	Phase() Phase
}

// Item carries the id every state shares.
type Item struct {
	ID string `json:"id"`
}

func (i Item) ItemID() string { return i.ID }

// Resolving is emitted first, when only a lazy reference is known.
type Resolving struct {
	Item
	Reference source.Reference `json:"reference"`
	// Placeholder is the partially rendered output name.
	Placeholder string `json:"placeholder"`
}

func (Resolving) Phase() Phase { return PhaseResolving }

// Resolved carries the full media descriptor.
type Resolved struct {
	Item
	Title    string   `json:"title"`
	Uploader string   `json:"uploader,omitempty"`
	Formats  []string `json:"formats"`
}

func (Resolved) Phase() Phase { return PhaseResolved }

// Downloading aggregates all sub-streams of an item into one progress figure.
type Downloading struct {
	Item
	Downloaded int64         `json:"downloaded"`
	Total      int64         `json:"total"`
	Speed      float64       `json:"speed"`
	Elapsed    time.Duration `json:"elapsed"`
}

func (Downloading) Phase() Phase { return PhaseDownloading }

// Fraction is the completed share in [0, 1], or 0 when the total is unknown.
func (d Downloading) Fraction() float64 {
	if d.Total <= 0 {
		return 0
	}
	return min(float64(d.Downloaded)/float64(d.Total), 1)
}

// Merging is emitted while separate video and audio files are combined.
type Merging struct {
	Item
	Extension string `json:"ext"`
}

func (Merging) Phase() Phase { return PhaseMerging }

// Step names a postprocessing sub-step.
type Step string

const (
	StepRemux     Step = "remux"
	StepSubtitles Step = "subtitles"
	StepThumbnail Step = "thumbnail"
	StepMetadata  Step = "metadata"
)

// StepStatus tracks a sub-step.
type StepStatus string

const (
	StepStarted   StepStatus = "started"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// Processing reports one postprocessing sub-step.
type Processing struct {
	Item
	Step   Step       `json:"step"`
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

func (Processing) Phase() Phase { return PhaseProcessing }

// Completed is the terminal success state. WithErrors is set when a postprocessing step failed.
type Completed struct {
	Item
	Path       string   `json:"path"`
	WithErrors bool     `json:"with_errors"`
	Failures   []string `json:"failures,omitempty"`
}

func (Completed) Phase() Phase { return PhaseCompleted }

// Skipped is the terminal state of an item whose output already exists.
type Skipped struct {
	Item
	Path string `json:"path"`
}

func (Skipped) Phase() Phase { return PhaseSkipped }

// Error is the terminal failure state.
type Error struct {
	Item
	Message string `json:"message"`
	Class   string `json:"class"`
	Err     error  `json:"-"`
}

func (Error) Phase() Phase { return PhaseError }

// IsTerminal reports whether s ends its item.
func IsTerminal(s State) bool {
	return s.Phase().Terminal()
}
