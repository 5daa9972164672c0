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

	"github.com/studykit/adjudex/model"
)

func TestRecordExecution(t *testing.T) {
	ds, mock := newMockDatasource(t)

	rec := &model.ExecutionRecord{
		PlanID:       "plan_1",
		SubmissionID: "s1",
		Action:       model.ActionApprove,
		Outcome:      model.OutcomeSucceeded,
		Attempts:     1,
		CreatedAt:    time.Now(),
	}

	mock.ExpectExec("INSERT INTO execution_log").
		WithArgs(rec.PlanID, rec.SubmissionID, string(rec.Action), string(rec.Outcome),
			rec.Attempts, rec.LastError, rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, ds.RecordExecution(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasTerminalOutcome(t *testing.T) {
	ds, mock := newMockDatasource(t)

	mock.ExpectQuery("SELECT COUNT(.+) FROM execution_log").
		WithArgs("s1", string(model.OutcomeSucceeded), string(model.OutcomeSkippedAlreadyTerminal)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	settled, err := ds.HasTerminalOutcome(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, settled)

	mock.ExpectQuery("SELECT COUNT(.+) FROM execution_log").
		WithArgs("s2", string(model.OutcomeSucceeded), string(model.OutcomeSkippedAlreadyTerminal)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	settled, err = ds.HasTerminalOutcome(context.Background(), "s2")
	require.NoError(t, err)
	assert.False(t, settled, "a failed outcome must not settle the submission")
}

func TestGetExecutionsByPlan(t *testing.T) {
	ds, mock := newMockDatasource(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "plan_id", "submission_id", "action", "outcome", "attempts", "last_error", "created_at",
	}).
		AddRow(int64(1), "plan_1", "s1", "APPROVE", "SUCCEEDED", 1, "", now).
		AddRow(int64(2), "plan_1", "s2", "REJECT", "FAILED_FATAL", 3, "rate limited", now)

	mock.ExpectQuery("SELECT (.+) FROM execution_log WHERE plan_id").
		WithArgs("plan_1").
		WillReturnRows(rows)

	records, err := ds.GetExecutionsByPlan(context.Background(), "plan_1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.ActionApprove, records[0].Action)
	assert.Equal(t, model.OutcomeSucceeded, records[0].Outcome)
	assert.True(t, records[0].Outcome.Resumable())
	assert.Equal(t, model.OutcomeFailedFatal, records[1].Outcome)
	assert.False(t, records[1].Outcome.Resumable())
	assert.Equal(t, "rate limited", records[1].LastError)
}
