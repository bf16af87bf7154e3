package merge

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/iulianpascalau/quality-collector/model"
)

// SameState returns true if the candidate represents the same computed state as the stored measurement: equal value
// and status on every supported scale, equal issue status and deep-equal sources. Status start timestamps are not
// compared. With compareTotals false the source totals are ignored.
func SameState(candidate model.Measurement, stored model.Measurement, metric model.Metric, compareTotals bool) bool {
	for _, scale := range metric.SupportedScales() {
		a := candidate.Scales[scale]
		b := stored.Scales[scale]
		if a.Status != b.Status || !cmp.Equal(a.Value, b.Value) {
			return false
		}
	}

	options := []cmp.Option{
		cmpopts.EquateEmpty(),
		cmpopts.SortSlices(func(a, b model.SourceMeasurement) bool { return a.SourceUUID < b.SourceUUID }),
		cmpopts.SortSlices(func(a, b model.Entity) bool { return a.Key < b.Key }),
		cmpopts.SortSlices(func(a, b model.IssueStatus) bool { return a.IssueID < b.IssueID }),
	}
	if !compareTotals {
		options = append(options, cmpopts.IgnoreFields(model.SourceMeasurement{}, "Total"))
	}

	if !cmp.Equal(candidate.IssueStatus, stored.IssueStatus, options...) {
		return false
	}

	return cmp.Equal(candidate.Sources, stored.Sources, options...)
}
