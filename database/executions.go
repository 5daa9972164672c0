package database

import (
	"context"

	"github.com/studykit/adjudex/model"
)

// RecordExecution appends one row to the execution log. The log is an
// append-only ledger: rows are never updated or deleted.
func (d Datasource) RecordExecution(ctx context.Context, rec *model.ExecutionRecord) error {
	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO execution_log(
			plan_id, submission_id, action, outcome, attempts, last_error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.PlanID, rec.SubmissionID, rec.Action, rec.Outcome,
		rec.Attempts, rec.LastError, rec.CreatedAt,
	)
	return err
}

// HasTerminalOutcome reports whether a prior run already settled this
// submission. Succeeded and skipped-terminal outcomes make a re-run skip the
// submission without issuing any API call.
func (d Datasource) HasTerminalOutcome(ctx context.Context, submissionID string) (bool, error) {
	var count int
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM execution_log
		WHERE submission_id = $1 AND outcome IN ($2, $3)
	`, submissionID, model.OutcomeSucceeded, model.OutcomeSkippedAlreadyTerminal).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetExecutionsByPlan retrieves the log rows for one plan in append order.
func (d Datasource) GetExecutionsByPlan(ctx context.Context, planID string) ([]model.ExecutionRecord, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, plan_id, submission_id, action, outcome, attempts, last_error, created_at
		FROM execution_log
		WHERE plan_id = $1
		ORDER BY id
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ExecutionRecord
	for rows.Next() {
		var rec model.ExecutionRecord
		var action, outcome string
		err = rows.Scan(
			&rec.ID, &rec.PlanID, &rec.SubmissionID, &action, &outcome,
			&rec.Attempts, &rec.LastError, &rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rec.Action = model.PlanAction(action)
		rec.Outcome = model.Outcome(outcome)
		records = append(records, rec)
	}
	return records, rows.Err()
}
