package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/studykit/adjudex/internal/apierror"
	"github.com/studykit/adjudex/model"
)

// RecordPlanRun inserts the bookkeeping row for a newly generated plan.
func (d Datasource) RecordPlanRun(ctx context.Context, run *model.PlanRun) error {
	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO plan_runs(
			plan_id, study_id, total_entries, approvals, rejections, manual_reviews, file_path, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.PlanID, run.StudyID, run.TotalEntries, run.Approvals,
		run.Rejections, run.ManualReviews, run.FilePath, run.CreatedAt,
	)
	return err
}

// GetPlanRun retrieves a plan run by its plan ID.
func (d Datasource) GetPlanRun(ctx context.Context, planID string) (*model.PlanRun, error) {
	run := &model.PlanRun{}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT id, plan_id, study_id, total_entries, approvals, rejections, manual_reviews, file_path, created_at
		FROM plan_runs
		WHERE plan_id = $1
	`, planID).Scan(
		&run.ID, &run.PlanID, &run.StudyID, &run.TotalEntries, &run.Approvals,
		&run.Rejections, &run.ManualReviews, &run.FilePath, &run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apierror.NewAPIError(apierror.ErrNotFound,
			fmt.Sprintf("plan run %s not found", planID), err)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}
