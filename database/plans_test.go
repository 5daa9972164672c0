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
package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studykit/adjudex/internal/apierror"
	"github.com/studykit/adjudex/model"
)

func TestRecordPlanRun(t *testing.T) {
	ds, mock := newMockDatasource(t)

	run := &model.PlanRun{
		PlanID:        "plan_1",
		StudyID:       "study-1",
		TotalEntries:  10,
		Approvals:     6,
		Rejections:    3,
		ManualReviews: 1,
		FilePath:      "./plans/plan_1.csv",
		CreatedAt:     time.Now(),
	}

	mock.ExpectExec("INSERT INTO plan_runs").
		WithArgs(run.PlanID, run.StudyID, run.TotalEntries, run.Approvals,
			run.Rejections, run.ManualReviews, run.FilePath, run.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, ds.RecordPlanRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPlanRun(t *testing.T) {
	ds, mock := newMockDatasource(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "plan_id", "study_id", "total_entries", "approvals", "rejections",
		"manual_reviews", "file_path", "created_at",
	}).AddRow(int64(1), "plan_1", "study-1", 10, 6, 3, 1, "./plans/plan_1.csv", now)

	mock.ExpectQuery("SELECT (.+) FROM plan_runs WHERE plan_id").
		WithArgs("plan_1").
		WillReturnRows(rows)

	run, err := ds.GetPlanRun(context.Background(), "plan_1")
	require.NoError(t, err)
	assert.Equal(t, "study-1", run.StudyID)
	assert.Equal(t, 10, run.TotalEntries)
	assert.Equal(t, 6, run.Approvals)
}

func TestGetPlanRunNotFound(t *testing.T) {
	ds, mock := newMockDatasource(t)

	mock.ExpectQuery("SELECT (.+) FROM plan_runs WHERE plan_id").
		WithArgs("plan_missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := ds.GetPlanRun(context.Background(), "plan_missing")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrNotFound, apierror.Code(err))
}
