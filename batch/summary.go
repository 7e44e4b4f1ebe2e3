package batch

import (
	"github.com/samber/lo"
	"github.com/tubedl-cli/tubedl/pipeline"
)

// Summary is the outcome of a batch. Results only holds items that were started, in input order.
type Summary struct {
	BatchID string
	Total   int
	Results []pipeline.Result
}

func (s *Summary) count(status pipeline.Status) int {
	return lo.CountBy(s.Results, func(r pipeline.Result) bool {
		return r.Status == status
	})
}

func (s *Summary) Succeeded() int  { return s.count(pipeline.StatusSuccess) }
func (s *Summary) WithErrors() int { return s.count(pipeline.StatusWithErrors) }
func (s *Summary) Skipped() int    { return s.count(pipeline.StatusSkipped) }
func (s *Summary) Failed() int     { return s.count(pipeline.StatusError) }

// Paths lists the files of every item that ended up on disk, skipped ones included.
func (s *Summary) Paths() []string {
	return lo.FilterMap(s.Results, func(r pipeline.Result, _ int) (string, bool) {
		return r.Path, r.Path != "" && r.Status != pipeline.StatusError
	})
}

// Errors lists the errors of failed items.
func (s *Summary) Errors() []error {
	return lo.FilterMap(s.Results, func(r pipeline.Result, _ int) (error, bool) {
		return r.Err, r.Err != nil
	})
}
