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
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studykit/adjudex/config"
	"github.com/studykit/adjudex/model"
)

// GeneratePlan snapshots the platform's live submission states, joins them
// with the local status table and writes the resulting plan to disk for human
// review. Nothing here mutates remote state. The remote snapshot is fetched
// once, atomically with respect to the plan: every entry in one plan reflects
// the same fetch.
func (a *Adjudex) GeneratePlan(ctx context.Context, studyID string) (*model.Plan, error) {
	submissions, err := a.platform.FetchSubmissions(ctx, studyID)
	if err != nil {
		return nil, err
	}

	statuses, err := a.datasource.GetStatusRecords(ctx)
	if err != nil {
		return nil, err
	}

	plan := BuildPlan(studyID, statuses, submissions)

	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(conf.Output.PlanDir, fmt.Sprintf("%s.csv", plan.PlanID))
	if err := WritePlanCSV(plan, path); err != nil {
		return nil, err
	}

	counts := plan.ActionCounts()
	run := &model.PlanRun{
		PlanID:        plan.PlanID,
		StudyID:       studyID,
		TotalEntries:  len(plan.Entries),
		Approvals:     counts[model.ActionApprove],
		Rejections:    counts[model.ActionReject],
		ManualReviews: counts[model.ActionManualReview],
		FilePath:      path,
		CreatedAt:     plan.CreatedAt,
	}
	if err := a.datasource.RecordPlanRun(ctx, run); err != nil {
		return nil, err
	}

	logrus.Infof("plan %s: %d entries (%d approve, %d reject, %d manual review) written to %s",
		plan.PlanID, run.TotalEntries, run.Approvals, run.Rejections, run.ManualReviews, path)

	return plan, nil
}

// BuildPlan joins local participant statuses with the remote snapshot and
// derives one entry per submission. It is a pure function: identical inputs
// produce an identical plan apart from the plan ID and timestamp. Entries
// come out in submission-ID order so plan files diff cleanly between runs.
func BuildPlan(studyID string, statuses []model.StatusRecord, submissions []model.RemoteSubmission) *model.Plan {
	byParticipant := make(map[string]model.StatusRecord, len(statuses))
	for _, s := range statuses {
		byParticipant[s.Flags.ParticipantID] = s
	}

	plan := &model.Plan{
		PlanID:    model.GenerateUUIDWithSuffix("plan"),
		StudyID:   studyID,
		CreatedAt: time.Now(),
	}

	for _, sub := range submissions {
		entry := model.PlanEntry{
			PlanID:        plan.PlanID,
			SubmissionID:  sub.SubmissionID,
			ParticipantID: sub.ParticipantID,
			RemoteStatus:  sub.Status,
		}

		local, ok := byParticipant[sub.ParticipantID]
		if !ok {
			entry.Action = model.ActionManualReview
			entry.Notes = "no local record for participant"
			plan.Entries = append(plan.Entries, entry)
			continue
		}

		entry.LocalStatus = local.Status
		entry.Action = proposeAction(local.Status, sub.Status)

		if entry.Action == model.ActionReject {
			entry.RejectionReason, entry.RejectionCategory = model.RejectionReason(local.Flags)
			entry.ValidationWarnings = reasonWarnings(entry.RejectionReason)
		}
		if entry.Action == model.ActionManualReview {
			entry.Notes = manualReviewNote(local.Status, sub.Status)
		}

		plan.Entries = append(plan.Entries, entry)
	}

	sort.Slice(plan.Entries, func(i, j int) bool {
		return plan.Entries[i].SubmissionID < plan.Entries[j].SubmissionID
	})

	return plan
}

// reasonWarnings annotates a rejection reason that falls short of the
// platform's length floor. The entry is still emitted: the warning is for
// the human reviewing the plan, not a reason to drop the submission.
func reasonWarnings(reason string) []string {
	if len(reason) < model.MinRejectionReasonLength {
		return []string{fmt.Sprintf("rejection reason is %d characters, platform requires at least %d",
			len(reason), model.MinRejectionReasonLength)}
	}
	return nil
}

// proposeAction is the local-status-by-remote-status decision table. A remote
// state outside the table (still active, returned, timed out, or a status the
// platform added later) is never acted on automatically.
func proposeAction(local model.ParticipantStatus, remote model.RemoteStatus) model.PlanAction {
	switch remote {
	case model.RemoteAwaitingReview:
		if local == model.StatusApproved {
			return model.ActionApprove
		}
		return model.ActionReject
	case model.RemoteApproved:
		if local == model.StatusApproved {
			return model.ActionAlreadyApproved
		}
		return model.ActionManualReview
	case model.RemoteRejected, model.RemoteScreenedOut:
		if local.Rejecting() {
			return model.ActionAlreadyRejected
		}
		return model.ActionManualReview
	default:
		return model.ActionManualReview
	}
}

func manualReviewNote(local model.ParticipantStatus, remote model.RemoteStatus) string {
	switch {
	case remote == model.RemoteApproved && local.Rejecting():
		return fmt.Sprintf("platform already approved but local status is %s", local)
	case remote.Terminal() && !local.Rejecting():
		return fmt.Sprintf("platform already settled as %s but local status is %s", remote, local)
	default:
		return fmt.Sprintf("remote status %s is outside the decision table", remote)
	}
}
