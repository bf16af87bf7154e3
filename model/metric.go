package model

import (
	"sort"
	"time"
)

// Addition defines how per-source values are combined into the metric value
type Addition string

const (
	// AdditionSum adds all source values
	AdditionSum Addition = "sum"
	// AdditionMin takes the smallest source value
	AdditionMin Addition = "min"
	// AdditionMax takes the largest source value
	AdditionMax Addition = "max"
)

// Direction tells which values are better
type Direction string

const (
	// LowerIsBetter is used for metrics like violations or security warnings
	LowerIsBetter Direction = "<"
	// HigherIsBetter is used for metrics like coverage or number of tests
	HigherIsBetter Direction = ">"
)

// Scale is the unit a metric value is expressed in
type Scale string

const (
	// ScaleCount is a plain integer count
	ScaleCount Scale = "count"
	// ScalePercentage is value/total expressed as a rounded percentage
	ScalePercentage Scale = "percentage"
	// ScaleVersionNumber is a dotted version number
	ScaleVersionNumber Scale = "version_number"
)

// DebtEndDateLayout is the format of the debt end date
const DebtEndDateLayout = "2006-01-02"

// SourceConfig is the configuration of one source of a metric
type SourceConfig struct {
	Type              string            `json:"type" yaml:"type"`
	Parameters        map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	MeasuredAttribute string            `json:"measured_attribute,omitempty" yaml:"measured_attribute,omitempty"`
}

// Metric is the read-only metric definition the collection core works with
type Metric struct {
	UUID        string                  `json:"uuid" yaml:"uuid"`
	Name        string                  `json:"name,omitempty" yaml:"name,omitempty"`
	Type        string                  `json:"type" yaml:"type"`
	Addition    Addition                `json:"addition" yaml:"addition"`
	Direction   Direction               `json:"direction" yaml:"direction"`
	Target      string                  `json:"target" yaml:"target"`
	NearTarget  string                  `json:"near_target" yaml:"near_target"`
	DebtTarget  string                  `json:"debt_target,omitempty" yaml:"debt_target,omitempty"`
	AcceptDebt  bool                    `json:"accept_debt,omitempty" yaml:"accept_debt,omitempty"`
	DebtEndDate string                  `json:"debt_end_date,omitempty" yaml:"debt_end_date,omitempty"`
	Scale       Scale                   `json:"scale,omitempty" yaml:"scale,omitempty"`
	Scales      []Scale                 `json:"scales,omitempty" yaml:"scales,omitempty"`
	Sources     map[string]SourceConfig `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// SupportedScales returns the scales a value and status are computed for. The default scale is always included.
func (m Metric) SupportedScales() []Scale {
	defaultScale := m.DefaultScale()
	result := []Scale{defaultScale}
	for _, scale := range m.Scales {
		if scale != defaultScale && !containsScale(result, scale) {
			result = append(result, scale)
		}
	}

	return result
}

// DefaultScale returns the configured scale or the count scale if none is set
func (m Metric) DefaultScale() Scale {
	if len(m.Scale) == 0 {
		return ScaleCount
	}

	return m.Scale
}

// SourceUUIDs returns the source identifiers in a stable, sorted order
func (m Metric) SourceUUIDs() []string {
	uuids := make([]string, 0, len(m.Sources))
	for uuid := range m.Sources {
		uuids = append(uuids, uuid)
	}
	sort.Strings(uuids)

	return uuids
}

// HasSource returns true if the source is still part of the metric configuration
func (m Metric) HasSource(sourceUUID string) bool {
	_, found := m.Sources[sourceUUID]
	return found
}

// AdditionOrDefault returns the configured addition or sum if none is set
func (m Metric) AdditionOrDefault() Addition {
	if len(m.Addition) == 0 {
		return AdditionSum
	}

	return m.Addition
}

// DebtValid returns true if debt is accepted and the debt end date has not passed on the provided date.
// A missing debt end date means the accepted debt never expires, a malformed one means it already expired.
func (m Metric) DebtValid(asOf time.Time) bool {
	if !m.AcceptDebt {
		return false
	}
	if len(m.DebtEndDate) == 0 {
		return true
	}

	endDate, err := time.Parse(DebtEndDateLayout, m.DebtEndDate)
	if err != nil {
		return false
	}

	asOfDate, _ := time.Parse(DebtEndDateLayout, asOf.Format(DebtEndDateLayout))

	return !asOfDate.After(endDate)
}

func containsScale(scales []Scale, scale Scale) bool {
	for _, s := range scales {
		if s == scale {
			return true
		}
	}

	return false
}
