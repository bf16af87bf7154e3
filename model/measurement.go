package model

import "time"

// Status is the outcome of comparing a metric value with its targets. The empty status means unknown.
type Status string

const (
	// StatusUnknown is used when no value could be determined
	StatusUnknown Status = ""
	// StatusTargetMet means the value meets the target
	StatusTargetMet Status = "target_met"
	// StatusDebtTargetMet means the value meets the accepted technical debt target
	StatusDebtTargetMet Status = "debt_target_met"
	// StatusNearTargetMet means the value does not meet the target but is within the near target
	StatusNearTargetMet Status = "near_target_met"
	// StatusTargetNotMet means the value does not meet any of the targets
	StatusTargetNotMet Status = "target_not_met"
)

// EntityStatus is the user assessment of a single entity
type EntityStatus string

const (
	// EntityUnconfirmed is the default status of a reported entity
	EntityUnconfirmed EntityStatus = "unconfirmed"
	// EntityConfirmed means a user confirmed the finding
	EntityConfirmed EntityStatus = "confirmed"
	// EntityFixed means the finding was fixed but the source still reports it
	EntityFixed EntityStatus = "fixed"
	// EntityFalsePositive means the finding is not a real problem
	EntityFalsePositive EntityStatus = "false_positive"
	// EntityWontFix means the finding is accepted
	EntityWontFix EntityStatus = "wont_fix"
)

// IsIgnored returns true if entities with this status should not be counted
func (status EntityStatus) IsIgnored() bool {
	switch status {
	case EntityFixed, EntityFalsePositive, EntityWontFix:
		return true
	default:
		return false
	}
}

// IsValid returns true for the known entity statuses
func (status EntityStatus) IsValid() bool {
	switch status {
	case EntityUnconfirmed, EntityConfirmed, EntityFixed, EntityFalsePositive, EntityWontFix:
		return true
	default:
		return false
	}
}

// Entity is a single finding reported by a source
type Entity struct {
	Key        string            `json:"key"`
	FirstSeen  string            `json:"first_seen,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// EntityUserData holds the user annotation of an entity
type EntityUserData struct {
	Status        EntityStatus `json:"status,omitempty"`
	Rationale     string       `json:"rationale,omitempty"`
	OrphanedSince string       `json:"orphaned_since,omitempty"`
}

// SourceMeasurement is the result of one source, as stored in a measurement
type SourceMeasurement struct {
	SourceUUID      string                    `json:"source_uuid"`
	Type            string                    `json:"type"`
	APIURL          string                    `json:"api_url,omitempty"`
	Value           *string                   `json:"value"`
	Total           *string                   `json:"total"`
	Entities        []Entity                  `json:"entities,omitempty"`
	EntityUserData  map[string]EntityUserData `json:"entity_user_data,omitempty"`
	ConnectionError string                    `json:"connection_error,omitempty"`
	ParseError      string                    `json:"parse_error,omitempty"`
}

// NewSourceMeasurement converts a collector result into its stored form
func NewSourceMeasurement(sourceUUID string, sourceType string, apiURL string, result SourceResult) SourceMeasurement {
	sm := SourceMeasurement{
		SourceUUID: sourceUUID,
		Type:       sourceType,
		APIURL:     apiURL,
		Value:      result.Value,
		Total:      result.Total,
		Entities:   result.Entities,
	}

	switch result.ErrorKind {
	case ConnectionErrorKind:
		sm.ConnectionError = result.ErrorText
		sm.Value, sm.Total, sm.Entities = nil, nil, nil
	case ParseErrorKind:
		sm.ParseError = result.ErrorText
		sm.Value, sm.Total, sm.Entities = nil, nil, nil
	}

	return sm
}

// HasError returns true if the source had a connection or a parse error
func (sm SourceMeasurement) HasError() bool {
	return len(sm.ConnectionError) > 0 || len(sm.ParseError) > 0
}

// EntityKeys returns the set of entity keys reported by the source
func (sm SourceMeasurement) EntityKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(sm.Entities))
	for _, entity := range sm.Entities {
		keys[entity.Key] = struct{}{}
	}

	return keys
}

// Clone returns a deep copy so that the copy can be changed without affecting the original
func (sm SourceMeasurement) Clone() SourceMeasurement {
	clone := sm
	if sm.Value != nil {
		clone.Value = StringPtr(*sm.Value)
	}
	if sm.Total != nil {
		clone.Total = StringPtr(*sm.Total)
	}
	if sm.Entities != nil {
		clone.Entities = make([]Entity, len(sm.Entities))
		for i, entity := range sm.Entities {
			clone.Entities[i] = entity.clone()
		}
	}
	if sm.EntityUserData != nil {
		clone.EntityUserData = make(map[string]EntityUserData, len(sm.EntityUserData))
		for key, data := range sm.EntityUserData {
			clone.EntityUserData[key] = data
		}
	}

	return clone
}

func (entity Entity) clone() Entity {
	clone := entity
	if entity.Attributes != nil {
		clone.Attributes = make(map[string]string, len(entity.Attributes))
		for k, v := range entity.Attributes {
			clone.Attributes[k] = v
		}
	}

	return clone
}

// ScaleValue is the computed value and status of a measurement for one scale
type ScaleValue struct {
	Value       *string `json:"value"`
	Status      Status  `json:"status"`
	StatusStart string  `json:"status_start,omitempty"`
}

// IssueStatus is passed through from the issue tracker and only copied by the collection core
type IssueStatus struct {
	IssueID         string `json:"issue_id"`
	Name            string `json:"name,omitempty"`
	Summary         string `json:"summary,omitempty"`
	ConnectionError string `json:"connection_error,omitempty"`
	ParseError      string `json:"parse_error,omitempty"`
}

// Measurement is one element of the time series of a metric
type Measurement struct {
	ID          string               `json:"id,omitempty"`
	MetricUUID  string               `json:"metric_uuid"`
	Start       time.Time            `json:"start"`
	End         time.Time            `json:"end"`
	Sources     []SourceMeasurement  `json:"sources"`
	Scales      map[Scale]ScaleValue `json:"scales,omitempty"`
	IssueStatus []IssueStatus        `json:"issue_status,omitempty"`
	HasError    bool                 `json:"has_error"`
}

// ComputeHasError returns true if any of the sources has an error
func (m Measurement) ComputeHasError() bool {
	for _, source := range m.Sources {
		if source.HasError() {
			return true
		}
	}

	return false
}

// Source returns the source measurement with the provided uuid, if present
func (m Measurement) Source(sourceUUID string) (SourceMeasurement, bool) {
	for _, source := range m.Sources {
		if source.SourceUUID == sourceUUID {
			return source, true
		}
	}

	return SourceMeasurement{}, false
}

// Clone returns a deep copy of the measurement
func (m Measurement) Clone() Measurement {
	clone := m
	if m.Sources != nil {
		clone.Sources = make([]SourceMeasurement, len(m.Sources))
		for i, source := range m.Sources {
			clone.Sources[i] = source.Clone()
		}
	}
	if m.Scales != nil {
		clone.Scales = make(map[Scale]ScaleValue, len(m.Scales))
		for scale, sv := range m.Scales {
			if sv.Value != nil {
				sv.Value = StringPtr(*sv.Value)
			}
			clone.Scales[scale] = sv
		}
	}
	if m.IssueStatus != nil {
		clone.IssueStatus = append([]IssueStatus(nil), m.IssueStatus...)
	}

	return clone
}
