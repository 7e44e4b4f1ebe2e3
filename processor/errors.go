package processor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tubedl-cli/tubedl/fault"
)

// Stderr patterns that mean the codec cannot live in the requested container.
// A transcode may still succeed where a stream copy did not.
var reIncompatible = regexp.MustCompile(
	`(?i)Could not find tag for codec|` +
		`codec not currently supported in container|` +
		`not supported (by|in) (the )?(muxer|container)|` +
		`Only .+ (are|is) supported|` +
		`Incorrect codec parameters|` +
		`incompatible with (the )?output|` +
		`Could not write header`)

// MatchIncompatible reports whether stderr describes a codec/container mismatch.
func MatchIncompatible(stderr string) bool {
	return reIncompatible.MatchString(stderr)
}

// classify turns a failed invocation into a Processing error. Codec mismatches wrap fault.ErrIncompatible.
func classify(op, stderr string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fault.Wrap(fault.Interrupted, op, err)
	}

	detail := lastLine(stderr)
	if detail == "" {
		detail = err.Error()
	}

	if MatchIncompatible(stderr) {
		return fault.Wrap(fault.Processing, op, fmt.Errorf("%w: %s", fault.ErrIncompatible, detail))
	}

	return fault.Wrap(fault.Processing, op, errors.New(detail))
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
