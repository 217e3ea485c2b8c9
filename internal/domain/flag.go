package domain

import (
	"time"

	"github.com/google/uuid"
)

// Severity is the tier of an early-intervention flag.
type Severity string

const (
	// SeverityMedium marks sustained performance below the caution line.
	SeverityMedium Severity = "MEDIUM"

	// SeverityHigh marks sustained performance below the critical line.
	SeverityHigh Severity = "HIGH"
)

// FlagStatus is the lifecycle state of a flag. The core only ever
// creates flags in FlagOpen; the resolution lifecycle belongs to the
// administrative-review collaborator.
type FlagStatus string

const (
	FlagOpen      FlagStatus = "OPEN"
	FlagResolved  FlagStatus = "RESOLVED"
	FlagDismissed FlagStatus = "DISMISSED"
)

// FlagType categorizes what condition a flag was raised for.
type FlagType string

// FlagPerformance is the only type raised by this core.
const FlagPerformance FlagType = "PERFORMANCE"

// Flag is a persisted early-intervention record indicating sustained low
// performance for one person. Flags are created by the risk evaluator
// and never mutated here beyond creation. Repeated qualifying scans
// create repeated flags; deduplication is intentionally not performed.
type Flag struct {
	ID          string     `json:"id"`
	PersonID    PersonID   `json:"person_id"`
	Type        FlagType   `json:"type"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description"`
	Status      FlagStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewPerformanceFlag creates an open performance flag for a person.
func NewPerformanceFlag(personID PersonID, severity Severity, description string, at time.Time) *Flag {
	return &Flag{
		ID:          uuid.NewString(),
		PersonID:    personID,
		Type:        FlagPerformance,
		Severity:    severity,
		Description: description,
		Status:      FlagOpen,
		CreatedAt:   at,
	}
}
