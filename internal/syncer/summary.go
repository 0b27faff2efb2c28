package syncer

import (
	"sort"

	"QuantCache/internal/model"
)

// Summary is the completion report of a batch run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Inserted  int
	// Failures lists failed symbols by error kind.
	Failures map[string][]string
}

// Reasons returns the failure kinds in sorted order.
func (s Summary) Reasons() []string {
	reasons := make([]string, 0, len(s.Failures))
	for r := range s.Failures {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	return reasons
}

// Summarize counts outcomes and groups the failures by reason.
func Summarize(outcomes []model.SyncOutcome) Summary {
	sum := Summary{Total: len(outcomes), Failures: map[string][]string{}}
	for _, o := range outcomes {
		if o.OK() {
			sum.Succeeded++
			sum.Inserted += o.Inserted
			continue
		}
		sum.Failed++
		sum.Failures[o.Reason()] = append(sum.Failures[o.Reason()], o.Symbol)
	}
	return sum
}
