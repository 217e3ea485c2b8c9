package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// PersonID identifies a person (trainee or trainer) in the roster.
type PersonID int64

// ResponseID uniquely identifies a submitted evaluation.
type ResponseID int64

// ResponseStatus is the lifecycle state of an evaluation submission.
// Transitions are owned by the external submission-workflow collaborator;
// this core only reads the status to decide eligibility.
type ResponseStatus string

const (
	// StatusDraft marks an evaluation still being edited by the trainer.
	StatusDraft ResponseStatus = "DRAFT"

	// StatusSubmitted marks an evaluation handed in but not yet reviewed.
	StatusSubmitted ResponseStatus = "SUBMITTED"

	// StatusReviewed marks an evaluation signed off by a supervisor.
	StatusReviewed ResponseStatus = "REVIEWED"
)

// EligibleForAggregation reports whether responses in this status feed
// the trend and category views.
func (s ResponseStatus) EligibleForAggregation() bool {
	return s == StatusSubmitted || s == StatusReviewed
}

// EligibleForRiskScan reports whether responses in this status feed the
// risk window. Only reviewed responses count; an unreviewed submission
// dated today still contributes nothing.
func (s ResponseStatus) EligibleForRiskScan() bool { return s == StatusReviewed }

// AnswerSheet is the typed association from field identifier to raw
// answer text for one response. Keys come from the field identifiers of
// the response's own template snapshot.
type AnswerSheet map[FieldID]string

// Answer looks up the raw answer for a field. The second return value
// distinguishes "field not answered" from "field answered" so callers
// can keep the two exclusion reasons apart even though both are excluded
// from scoring.
func (a AnswerSheet) Answer(id FieldID) (string, bool) {
	raw, ok := a[id]
	return raw, ok
}

// Response is a single submitted evaluation form instance tied to one
// trainee and one trainer. The raw answer payload is kept as JSON until
// a consumer decodes it, so a corrupt payload surfaces as a per-record
// decode error instead of poisoning a whole store read.
type Response struct {
	ID          ResponseID      `json:"id"`
	TraineeID   PersonID        `json:"trainee_id"`
	TrainerID   PersonID        `json:"trainer_id"`
	TemplateID  TemplateID      `json:"template_id"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Status      ResponseStatus  `json:"status"`
	Answers     json.RawMessage `json:"answers,omitempty"`
}

// DecodeAnswers parses the raw answer payload into an AnswerSheet.
// A missing payload decodes to an empty sheet; a malformed payload
// returns an error wrapping ErrMalformedAnswers so aggregation can skip
// just this response.
func (r *Response) DecodeAnswers() (AnswerSheet, error) {
	if len(r.Answers) == 0 {
		return AnswerSheet{}, nil
	}
	var sheet AnswerSheet
	if err := json.Unmarshal(r.Answers, &sheet); err != nil {
		return nil, fmt.Errorf("%w: response %d: %v", ErrMalformedAnswers, r.ID, err)
	}
	return sheet, nil
}
