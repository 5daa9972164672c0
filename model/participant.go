package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	uuidStr := id.String()
	idWithSuffix := fmt.Sprintf("%s_%s", module, uuidStr)
	return idWithSuffix
}

// Accepted literal values for the enumerated survey fields. Responses are
// validated against these sets at ingestion; an unrecognized value is an
// input-shape error for the affected record, never a silent false.
const (
	ConsentGiven    = "I consent to participate in this study"
	ConsentDeclined = "I do not consent to participate"

	OccupationConfirmedYes = "Yes"
	OccupationConfirmedNo  = "No"

	UnderstoodAllTasks  = "Yes, I understood all of the tasks"
	UnderstoodMostTasks = "I understood most of the tasks"
	UnderstoodSomeTasks = "I understood some of the tasks"
	UnderstoodNoTasks   = "No, I did not understand the tasks"
)

// AcceptedConsent lists every recognized consent response.
var AcceptedConsent = []string{ConsentGiven, ConsentDeclined}

// AcceptedOccupationConfirmation lists every recognized occupation confirmation response.
var AcceptedOccupationConfirmation = []string{OccupationConfirmedYes, OccupationConfirmedNo}

// AcceptedUnderstanding lists every recognized task-understanding response.
var AcceptedUnderstanding = []string{UnderstoodAllTasks, UnderstoodMostTasks, UnderstoodSomeTasks, UnderstoodNoTasks}

// AcceptedExperience lists every recognized work-experience response, ordered
// from least to most experience.
var AcceptedExperience = []string{"None", "0-5 months", "6-11 months", "1-2 years", "3-5 years", "5+ years"}

// InsufficientExperience lists the experience levels that screen a participant out.
var InsufficientExperience = []string{"None", "0-5 months"}

// QualityScale is the five-point scale used for the four per-task quality
// dimensions, ordered from most negative to most positive.
var QualityScale = []string{"Very poor", "Poor", "Acceptable", "Good", "Very good"}

// AcceptanceScale is the five-point overall acceptance scale, ordered from
// most negative to most positive.
var AcceptanceScale = []string{"Definitely reject", "Probably reject", "Unsure", "Probably accept", "Definitely accept"}

// AcceptedRejectReasons lists the recognized free-text rejection reason choices.
var AcceptedRejectReasons = []string{"Too generic", "Confusing", "Unprofessional tone", "Too long", "Factually wrong", "Other"}

// Expected answers for the three embedded attention checks. The first check
// instructs the participant to leave the item blank, so any answer fails it.
const (
	AttentionCheckTwoExpected = "Somewhat agree"
)

// AttentionCheckThreeExpected lists the passing answers for the third check.
var AttentionCheckThreeExpected = []string{"Somewhat disagree", "Strongly disagree"}

// FieldError reports a survey field whose value is outside the accepted
// literal set. It is an input-shape error: fatal for the affected record
// only, the batch continues.
type FieldError struct {
	Field string
	Value string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("unrecognized value %q for field %q", e.Value, e.Field)
}

// ValidateLiteral checks a field value against its accepted literal set.
func ValidateLiteral(field, value string, accepted []string) error {
	for _, a := range accepted {
		if value == a {
			return nil
		}
	}
	return FieldError{Field: field, Value: value}
}

// ScaleIndex returns the position of a value on an ordered scale, or -1 when
// the value is not on the scale.
func ScaleIndex(scale []string, value string) int {
	for i, s := range scale {
		if s == value {
			return i
		}
	}
	return -1
}

// TimeEstimate is one self-reported time estimate, captured as an
// (hours, minutes) pair on the survey.
type TimeEstimate struct {
	Label   string  `json:"label"`
	Hours   float64 `json:"hours"`
	Minutes float64 `json:"minutes"`
}

// TotalHours converts the estimate to hours.
func (t TimeEstimate) TotalHours() float64 {
	return t.Hours + t.Minutes/60
}

// TaskResponse holds one participant's ratings for one of the five tasks.
type TaskResponse struct {
	Clarity         string   `json:"clarity"`
	Accuracy        string   `json:"accuracy"`
	Professionalism string   `json:"professionalism"`
	Completeness    string   `json:"completeness"`
	Acceptance      string   `json:"acceptance"`
	QualityPercent  int      `json:"quality_percent"` // employee-quality percentile, 0-100
	RejectReasons   []string `json:"reject_reasons"`
	DurationSecs    float64  `json:"duration_secs"`
	LastClickSecs   float64  `json:"last_click_secs"`
}

// HasRejectReason reports whether the participant selected the given
// free-text rejection reason for this task.
func (t TaskResponse) HasRejectReason(reason string) bool {
	for _, r := range t.RejectReasons {
		if strings.EqualFold(strings.TrimSpace(r), reason) {
			return true
		}
	}
	return false
}

// ParticipantRecord is one cleaned response session. It is immutable once
// ingested; rule evaluation is a pure function of this value.
type ParticipantRecord struct {
	ParticipantID       string         `json:"participant_id"`
	Cohort              string         `json:"cohort"`
	Consent             string         `json:"consent"`
	Experience          string         `json:"experience"`
	Understanding       string         `json:"understanding"`
	OccupationConfirmed string         `json:"occupation_confirmed"`
	AttentionChecks     [3]string      `json:"attention_checks"`
	Tasks               []TaskResponse `json:"tasks"`
	Estimates           []TimeEstimate `json:"estimates"`
	Finished            bool           `json:"finished"`
}

// RejectionFlagSet is one participant's evaluation result: a fixed set of
// named booleans computed once per participant. Recomputation replaces the
// whole set; individual flags are never mutated in place.
type RejectionFlagSet struct {
	ParticipantID string `json:"participant_id"`
	Cohort        string `json:"cohort"`

	// Flags consumed by the status resolver.
	AttentionChecksFailed        int  `json:"attention_checks_failed"`
	FailedTwoPlusAttentionChecks bool `json:"failed_two_plus_attention_checks"`
	FailedOneAttentionCheck      bool `json:"failed_one_attention_check"` // audit only, non-rejecting
	DidNotGiveConsent            bool `json:"did_not_give_consent"`
	DidNotUnderstandTasks        bool `json:"did_not_understand_tasks"`
	OccupationNotConfirmed       bool `json:"occupation_not_confirmed"`
	InsufficientWorkExperience   bool `json:"insufficient_work_experience"`
	IncompleteSurveyOtherReasons bool `json:"incomplete_survey_other_reasons"`
	CompletedSurvey              bool `json:"completed_survey"`

	// Audit-only flags. These inform the manual audit list and never feed
	// the mutually exclusive participant status.
	RushedResponses     bool `json:"rushed_responses"`
	RepetitiveAnswers   bool `json:"repetitive_answers"`
	ContradictoryLogic  bool `json:"contradictory_logic"`
	ExtremeTimeEstimate bool `json:"extreme_time_estimate"`
	RepetitiveQuestions int  `json:"repetitive_questions"`
}

// AuditFlagged reports whether any audit-only flag fired for this
// participant. Flagged participants land on the manual audit list.
func (f RejectionFlagSet) AuditFlagged() bool {
	return f.FailedOneAttentionCheck || f.RushedResponses || f.RepetitiveAnswers ||
		f.ContradictoryLogic || f.ExtremeTimeEstimate
}

// StatusRecord is one row of the persisted flag/status table: the full flag
// set plus the single resolved status. This table is the audit trail and the
// sole local input to reconciliation planning.
type StatusRecord struct {
	Flags  RejectionFlagSet  `json:"flags"`
	Status ParticipantStatus `json:"status"`
}

// ParticipantStatus is the single terminal status assigned to a participant.
// Exactly one of the four values holds for every participant.
type ParticipantStatus string

const (
	StatusRejected    ParticipantStatus = "REJECTED"
	StatusNoConsent   ParticipantStatus = "NO_CONSENT"
	StatusScreenedOut ParticipantStatus = "SCREENED_OUT"
	StatusApproved    ParticipantStatus = "APPROVED"
)

// ParticipantStatuses lists the four statuses in priority order.
var ParticipantStatuses = []ParticipantStatus{StatusRejected, StatusNoConsent, StatusScreenedOut, StatusApproved}

// ParseParticipantStatus maps a stored status string back to the enum.
func ParseParticipantStatus(s string) (ParticipantStatus, error) {
	for _, st := range ParticipantStatuses {
		if string(st) == strings.TrimSpace(s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown participant status %q", s)
}

// Rejecting reports whether the status blocks payment (anything but approved).
func (s ParticipantStatus) Rejecting() bool {
	return s != StatusApproved
}
