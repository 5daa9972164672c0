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
package adjudex

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studykit/adjudex/model"
)

func samplePlan() *model.Plan {
	plan := &model.Plan{
		PlanID:    "plan_test-1",
		StudyID:   "study-1",
		CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	plan.Entries = []model.PlanEntry{
		{
			PlanID:        plan.PlanID,
			SubmissionID:  "s1",
			ParticipantID: "p1",
			LocalStatus:   model.StatusApproved,
			RemoteStatus:  model.RemoteAwaitingReview,
			Action:        model.ActionApprove,
		},
		{
			PlanID:            plan.PlanID,
			SubmissionID:      "s2",
			ParticipantID:     "p2",
			LocalStatus:       model.StatusRejected,
			RemoteStatus:      model.RemoteAwaitingReview,
			Action:            model.ActionReject,
			RejectionReason:   model.ReasonFailedChecks,
			RejectionCategory: model.CategoryFailedCheck,
		},
		{
			PlanID:             plan.PlanID,
			SubmissionID:       "s3",
			ParticipantID:      "p3",
			RemoteStatus:       model.RemoteActive,
			Action:             model.ActionManualReview,
			ValidationWarnings: []string{"first warning", "second warning"},
			Notes:              "remote status ACTIVE is outside the decision table",
		},
	}
	return plan
}

func TestPlanFileRoundTrip(t *testing.T) {
	plan := samplePlan()
	path := filepath.Join(t.TempDir(), "plans", plan.PlanID+".csv")

	require.NoError(t, WritePlanCSV(plan, path))

	loaded, err := ReadPlanFile(path)
	require.NoError(t, err)

	assert.Equal(t, plan.PlanID, loaded.PlanID)
	assert.Equal(t, plan.StudyID, loaded.StudyID)
	assert.True(t, plan.CreatedAt.Equal(loaded.CreatedAt))
	require.Len(t, loaded.Entries, len(plan.Entries))

	for i := range plan.Entries {
		want, got := plan.Entries[i], loaded.Entries[i]
		assert.Equal(t, want.SubmissionID, got.SubmissionID)
		assert.Equal(t, want.ParticipantID, got.ParticipantID)
		assert.Equal(t, want.LocalStatus, got.LocalStatus)
		assert.Equal(t, want.RemoteStatus, got.RemoteStatus)
		assert.Equal(t, want.Action, got.Action)
		assert.Equal(t, want.RejectionReason, got.RejectionReason)
		assert.Equal(t, want.RejectionCategory, got.RejectionCategory)
		assert.Equal(t, want.ValidationWarnings, got.ValidationWarnings)
		assert.Equal(t, want.Notes, got.Notes)
	}
}

func TestReadPlanFileRejectsUnknownAction(t *testing.T) {
	plan := samplePlan()
	path := filepath.Join(t.TempDir(), plan.PlanID+".csv")
	require.NoError(t, WritePlanCSV(plan, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// A reviewer editing the action to something the executor does not know
	// must fail the whole file.
	edited := replaceOnce(string(data), ",APPROVE,", ",PAY_DOUBLE,")
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	_, err = ReadPlanFile(path)
	assert.Error(t, err)
}

func TestReadPlanFileRejectsMixedPlanIDs(t *testing.T) {
	plan := samplePlan()
	path := filepath.Join(t.TempDir(), plan.PlanID+".csv")
	require.NoError(t, WritePlanCSV(plan, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	edited := replaceOnce(string(data), "plan_test-1,study-1,2026-03-14T09:00:00Z,s3", "plan_other,study-1,2026-03-14T09:00:00Z,s3")
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	_, err = ReadPlanFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "plan ID")
}

func TestReadPlanFileRequiresColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.csv")
	require.NoError(t, os.WriteFile(path, []byte("submission_id,proposed_action\ns1,APPROVE\n"), 0o644))

	_, err := ReadPlanFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "required column")
}

func TestReadPlanFileEmptyPlan(t *testing.T) {
	plan := samplePlan()
	plan.Entries = nil
	path := filepath.Join(t.TempDir(), plan.PlanID+".csv")
	require.NoError(t, WritePlanCSV(plan, path))

	_, err := ReadPlanFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no entries")
}

func TestWritePlanWorkbook(t *testing.T) {
	plan := samplePlan()
	path := filepath.Join(t.TempDir(), plan.PlanID+".xlsx")

	require.NoError(t, WritePlanWorkbook(plan, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func replaceOnce(s, old, new string) string {
	for i := 0; i+len(old) <= len(s); i++ {
		if s[i:i+len(old)] == old {
			return s[:i] + new + s[i+len(old):]
		}
	}
	return s
}
