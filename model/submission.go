/*
Copyright 2025 Adjudex Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// RemoteStatus is the live state of a submission on the crowdsourcing
// platform, snapshotted once per planning run.
type RemoteStatus string

const (
	RemoteAwaitingReview RemoteStatus = "AWAITING REVIEW"
	RemoteApproved       RemoteStatus = "APPROVED"
	RemoteRejected       RemoteStatus = "REJECTED"
	RemoteScreenedOut    RemoteStatus = "SCREENED OUT"
	RemoteActive         RemoteStatus = "ACTIVE"
	RemoteReserved       RemoteStatus = "RESERVED"
	RemoteReturned       RemoteStatus = "RETURNED"
	RemoteTimedOut       RemoteStatus = "TIMED-OUT"
	RemoteUnknown        RemoteStatus = "UNKNOWN"
)

// ParseRemoteStatus maps a platform status string to the enum. Statuses the
// platform adds later come back as RemoteUnknown rather than an error so a
// planning run is never blocked by a new status value.
func ParseRemoteStatus(s string) RemoteStatus {
	switch RemoteStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case RemoteAwaitingReview, RemoteApproved, RemoteRejected, RemoteScreenedOut,
		RemoteActive, RemoteReserved, RemoteReturned, RemoteTimedOut:
		return RemoteStatus(strings.ToUpper(strings.TrimSpace(s)))
	default:
		return RemoteUnknown
	}
}

// Terminal reports whether the submission has already reached a final
// payment decision on the platform.
func (s RemoteStatus) Terminal() bool {
	return s == RemoteApproved || s == RemoteRejected || s == RemoteScreenedOut
}

// RemoteSubmission is a snapshot of one submission's state on the platform.
// It is fetched fresh at the start of each planning run and never cached
// beyond the run's lifetime.
type RemoteSubmission struct {
	SubmissionID  string       `json:"id"`
	ParticipantID string       `json:"participant_id"`
	Status        RemoteStatus `json:"status"`
	StartedAt     time.Time    `json:"started_at"`
	CompletedAt   *time.Time   `json:"completed_at"`
}

// PlanAction is the action proposed for one submission.
type PlanAction string

const (
	ActionApprove         PlanAction = "APPROVE"
	ActionReject          PlanAction = "REJECT"
	ActionAlreadyApproved PlanAction = "NO_ACTION_ALREADY_APPROVED"
	ActionAlreadyRejected PlanAction = "NO_ACTION_ALREADY_REJECTED"
	ActionManualReview    PlanAction = "MANUAL_REVIEW"
)

// Executable reports whether the executor may act on this action. Manual
// review and no-action entries are never executed automatically.
func (a PlanAction) Executable() bool {
	return a == ActionApprove || a == ActionReject
}

// ParsePlanAction maps a stored action string back to the enum.
func ParsePlanAction(s string) (PlanAction, error) {
	switch PlanAction(strings.TrimSpace(s)) {
	case ActionApprove:
		return ActionApprove, nil
	case ActionReject:
		return ActionReject, nil
	case ActionAlreadyApproved:
		return ActionAlreadyApproved, nil
	case ActionAlreadyRejected:
		return ActionAlreadyRejected, nil
	case ActionManualReview:
		return ActionManualReview, nil
	default:
		return "", FieldError{Field: "proposed_action", Value: s}
	}
}

// Rejection categories required by the platform API, with the fixed
// explanatory sentence attached to each.
const (
	CategoryFailedCheck = "FAILED_CHECK"
	CategoryOther       = "OTHER"

	// MinRejectionReasonLength is the platform's hard floor for the length
	// of a rejection reason.
	MinRejectionReasonLength = 100

	ReasonFailedChecks = "Participant failed two or more of the embedded attention checks, indicating insufficient attention to the study requirements to produce usable responses."
	ReasonIncomplete   = "Participant did not complete the survey as required and did not satisfy the participation requirements established for this research study."
)

// RejectionReason derives the rejection reason text and category code from a
// flag set. Attention-check failures carry their own category; every other
// rejecting condition maps to the generic incompletion category.
func RejectionReason(flags RejectionFlagSet) (reason, category string) {
	if flags.FailedTwoPlusAttentionChecks {
		return ReasonFailedChecks, CategoryFailedCheck
	}
	return ReasonIncomplete, CategoryOther
}

// PlanEntry is the join of one local participant decision with zero or one
// remote submission. Entries are immutable once written; a new planning run
// produces a new plan rather than updating entries in place.
type PlanEntry struct {
	PlanID             string            `json:"plan_id"`
	SubmissionID       string            `json:"submission_id"`
	ParticipantID      string            `json:"participant_id"`
	LocalStatus        ParticipantStatus `json:"local_status"`
	RemoteStatus       RemoteStatus      `json:"remote_status"`
	Action             PlanAction        `json:"proposed_action"`
	RejectionReason    string            `json:"rejection_reason"`
	RejectionCategory  string            `json:"rejection_category"`
	ValidationWarnings []string          `json:"validation_warnings"`
	Notes              string            `json:"notes"`
}

// Validate checks the preconditions for executing an entry. It runs before
// any network call; a failing entry is recorded as FailedFatal and the run
// continues with the next entry.
func (e *PlanEntry) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.SubmissionID, validation.Required),
		validation.Field(&e.Action, validation.By(func(interface{}) error {
			_, err := ParsePlanAction(string(e.Action))
			return err
		})),
		validation.Field(&e.RejectionReason, validation.When(e.Action == ActionReject,
			validation.Required, validation.Length(MinRejectionReasonLength, 0))),
		validation.Field(&e.RejectionCategory, validation.When(e.Action == ActionReject,
			validation.Required, validation.In(CategoryFailedCheck, CategoryOther))),
	)
}

// Plan is a persisted, human-reviewable set of proposed actions. The plan
// file is the only interface the executor is permitted to read.
type Plan struct {
	PlanID    string      `json:"plan_id"`
	StudyID   string      `json:"study_id"`
	CreatedAt time.Time   `json:"created_at"`
	Entries   []PlanEntry `json:"entries"`
}

// ActionCounts tallies entries per proposed action, for the run summary.
func (p *Plan) ActionCounts() map[PlanAction]int {
	counts := make(map[PlanAction]int)
	for _, e := range p.Entries {
		counts[e.Action]++
	}
	return counts
}

// PlanRun is the bookkeeping row recorded for each generated plan: where the
// plan file was written and what it proposed.
type PlanRun struct {
	ID            int64     `json:"-"`
	PlanID        string    `json:"plan_id"`
	StudyID       string    `json:"study_id"`
	TotalEntries  int       `json:"total_entries"`
	Approvals     int       `json:"approvals"`
	Rejections    int       `json:"rejections"`
	ManualReviews int       `json:"manual_reviews"`
	FilePath      string    `json:"file_path"`
	CreatedAt     time.Time `json:"created_at"`
}

// Outcome is the final result of one attempted remote transition.
type Outcome string

const (
	OutcomeSucceeded              Outcome = "SUCCEEDED"
	OutcomeFailedRetryable        Outcome = "FAILED_RETRYABLE"
	OutcomeFailedFatal            Outcome = "FAILED_FATAL"
	OutcomeSkippedAlreadyTerminal Outcome = "SKIPPED_ALREADY_TERMINAL"
)

// Resumable reports whether a prior outcome makes the submission safe to
// skip on a re-run. The execution log plus this predicate is what makes
// executor re-invocation idempotent.
func (o Outcome) Resumable() bool {
	return o == OutcomeSucceeded || o == OutcomeSkippedAlreadyTerminal
}

// ExecutionRecord is one row of the append-only execution log.
type ExecutionRecord struct {
	ID           int64      `json:"-"`
	PlanID       string     `json:"plan_id"`
	SubmissionID string     `json:"submission_id"`
	Action       PlanAction `json:"action"`
	Outcome      Outcome    `json:"outcome"`
	Attempts     int        `json:"attempts"`
	LastError    string     `json:"last_error"`
	CreatedAt    time.Time  `json:"created_at"`
}
