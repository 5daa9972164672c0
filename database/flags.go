package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/studykit/adjudex/internal/apierror"
	"github.com/studykit/adjudex/model"
)

const flagColumns = `participant_id, cohort, attention_checks_failed,
	failed_two_plus_attention_checks, failed_one_attention_check,
	did_not_give_consent, did_not_understand_tasks, occupation_not_confirmed,
	insufficient_work_experience, incomplete_survey_other_reasons, completed_survey,
	rushed_responses, repetitive_answers, contradictory_logic,
	extreme_time_estimate, repetitive_questions, status`

// ReplaceFlags upserts a participant's flag row wholesale. Individual flags
// are never updated in place; re-evaluation rewrites the entire row.
func (d Datasource) ReplaceFlags(ctx context.Context, record *model.StatusRecord) error {
	f := record.Flags
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO rejection_flags (`+flagColumns+`,
			status_rejected, status_no_consent, status_screened_out, status_approved, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, CURRENT_TIMESTAMP)
		ON CONFLICT (participant_id) DO UPDATE SET
			cohort = EXCLUDED.cohort,
			attention_checks_failed = EXCLUDED.attention_checks_failed,
			failed_two_plus_attention_checks = EXCLUDED.failed_two_plus_attention_checks,
			failed_one_attention_check = EXCLUDED.failed_one_attention_check,
			did_not_give_consent = EXCLUDED.did_not_give_consent,
			did_not_understand_tasks = EXCLUDED.did_not_understand_tasks,
			occupation_not_confirmed = EXCLUDED.occupation_not_confirmed,
			insufficient_work_experience = EXCLUDED.insufficient_work_experience,
			incomplete_survey_other_reasons = EXCLUDED.incomplete_survey_other_reasons,
			completed_survey = EXCLUDED.completed_survey,
			rushed_responses = EXCLUDED.rushed_responses,
			repetitive_answers = EXCLUDED.repetitive_answers,
			contradictory_logic = EXCLUDED.contradictory_logic,
			extreme_time_estimate = EXCLUDED.extreme_time_estimate,
			repetitive_questions = EXCLUDED.repetitive_questions,
			status = EXCLUDED.status,
			status_rejected = EXCLUDED.status_rejected,
			status_no_consent = EXCLUDED.status_no_consent,
			status_screened_out = EXCLUDED.status_screened_out,
			status_approved = EXCLUDED.status_approved,
			updated_at = CURRENT_TIMESTAMP`,
		f.ParticipantID, f.Cohort, f.AttentionChecksFailed,
		f.FailedTwoPlusAttentionChecks, f.FailedOneAttentionCheck,
		f.DidNotGiveConsent, f.DidNotUnderstandTasks, f.OccupationNotConfirmed,
		f.InsufficientWorkExperience, f.IncompleteSurveyOtherReasons, f.CompletedSurvey,
		f.RushedResponses, f.RepetitiveAnswers, f.ContradictoryLogic,
		f.ExtremeTimeEstimate, f.RepetitiveQuestions, record.Status,
		record.Status == model.StatusRejected, record.Status == model.StatusNoConsent,
		record.Status == model.StatusScreenedOut, record.Status == model.StatusApproved,
	)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer,
			fmt.Sprintf("failed to replace flags for participant %s", f.ParticipantID), err)
	}
	return nil
}

// GetFlags retrieves one participant's flag row.
func (d Datasource) GetFlags(ctx context.Context, participantID string) (*model.StatusRecord, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+flagColumns+`
		FROM rejection_flags
		WHERE participant_id = $1
	`, participantID)

	record, err := scanStatusRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, apierror.NewAPIError(apierror.ErrNotFound,
			fmt.Sprintf("no flags found for participant %s", participantID), err)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetStatusRecords retrieves the full flag/status table, ordered by
// participant ID so planning runs see a stable snapshot.
func (d Datasource) GetStatusRecords(ctx context.Context) ([]model.StatusRecord, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+flagColumns+`
		FROM rejection_flags
		ORDER BY participant_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStatusRecords(rows)
}

// GetAuditFlagged retrieves the manual audit list: participants whose
// audit-only flags fired. These flags never change the participant status.
func (d Datasource) GetAuditFlagged(ctx context.Context) ([]model.StatusRecord, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+flagColumns+`
		FROM rejection_flags
		WHERE failed_one_attention_check OR rushed_responses OR repetitive_answers
			OR contradictory_logic OR extreme_time_estimate
		ORDER BY participant_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStatusRecords(rows)
}

func collectStatusRecords(rows *sql.Rows) ([]model.StatusRecord, error) {
	var records []model.StatusRecord
	for rows.Next() {
		record, err := scanStatusRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func scanStatusRecord(scan func(dest ...interface{}) error) (*model.StatusRecord, error) {
	var record model.StatusRecord
	var status string
	f := &record.Flags
	err := scan(
		&f.ParticipantID, &f.Cohort, &f.AttentionChecksFailed,
		&f.FailedTwoPlusAttentionChecks, &f.FailedOneAttentionCheck,
		&f.DidNotGiveConsent, &f.DidNotUnderstandTasks, &f.OccupationNotConfirmed,
		&f.InsufficientWorkExperience, &f.IncompleteSurveyOtherReasons, &f.CompletedSurvey,
		&f.RushedResponses, &f.RepetitiveAnswers, &f.ContradictoryLogic,
		&f.ExtremeTimeEstimate, &f.RepetitiveQuestions, &status,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := model.ParseParticipantStatus(status)
	if err != nil {
		return nil, err
	}
	record.Status = parsed
	return &record, nil
}
