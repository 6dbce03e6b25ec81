package batch

import (
	"igaudit/pkg/classifier"
	"igaudit/pkg/errors"
)

// Summary counts batch outcomes by label
type Summary struct {
	Total      int `json:"total"`
	Fake       int `json:"fake"`
	Suspicious int `json:"suspicious"`
	Real       int `json:"real"`
	NotFound   int `json:"not_found"`
	Failed     int `json:"failed"`
}

// Summarize tallies results. A result whose report was produced but not
// saved still counts under its label.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Report != nil:
			switch r.Report.Label {
			case classifier.LabelFake:
				s.Fake++
			case classifier.LabelSuspicious:
				s.Suspicious++
			case classifier.LabelReal:
				s.Real++
			}
		case errors.IsNotFound(r.Error):
			s.NotFound++
		default:
			s.Failed++
		}
	}
	return s
}

// Failures reports whether any result carries an error
func (s Summary) Failures() bool {
	return s.NotFound > 0 || s.Failed > 0
}
