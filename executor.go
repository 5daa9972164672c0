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
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studykit/adjudex/internal/apierror"
	runlock "github.com/studykit/adjudex/internal/lock"
	"github.com/studykit/adjudex/internal/notification"
	"github.com/studykit/adjudex/internal/retry"
	"github.com/studykit/adjudex/model"
)

// ExecutionSummary is the per-outcome tally reported at the end of a run.
type ExecutionSummary struct {
	PlanID    string                `json:"plan_id"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Skipped   int                   `json:"skipped"`
	Outcomes  map[model.Outcome]int `json:"outcomes"`
}

func (s *ExecutionSummary) record(outcome model.Outcome) {
	if s.Outcomes == nil {
		s.Outcomes = make(map[model.Outcome]int)
	}
	s.Outcomes[outcome]++
	switch outcome {
	case model.OutcomeSucceeded:
		s.Succeeded++
	case model.OutcomeSkippedAlreadyTerminal:
		s.Skipped++
	default:
		s.Failed++
	}
}

// ExecutePlan applies a reviewed plan's executable entries against the
// platform, one at a time, in plan order. The confirmation argument is the
// human gate: it must be the plan's own ID, typed by the operator after
// reviewing the plan file. Every attempted transition lands in the execution
// log, which makes re-invocation after a partial run idempotent: settled
// submissions are skipped without an API call and without new log rows.
func (a *Adjudex) ExecutePlan(ctx context.Context, plan *model.Plan, confirmation string) (*ExecutionSummary, error) {
	if confirmation != plan.PlanID {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("confirmation %q does not match plan ID %q; execution refused", confirmation, plan.PlanID), nil)
	}

	if a.redis != nil {
		lock := runlock.ForStudy(a.redis, plan.StudyID)
		if err := lock.Acquire(ctx, a.lockTTL); err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				logrus.Warnf("releasing run lock for study %s: %v", plan.StudyID, err)
			}
		}()
	}

	summary := &ExecutionSummary{PlanID: plan.PlanID}

	for i := range plan.Entries {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		entry := &plan.Entries[i]
		if !entry.Action.Executable() {
			continue
		}

		settled, err := a.datasource.HasTerminalOutcome(ctx, entry.SubmissionID)
		if err != nil {
			return summary, err
		}
		if settled {
			logrus.Infof("submission %s already settled in a prior run, skipping", entry.SubmissionID)
			continue
		}

		if execErr := a.executeEntry(ctx, plan.PlanID, entry, summary); execErr != nil && apierror.Auth(execErr) {
			// A bad token fails every remaining entry the same way.
			notification.NotifyError(execErr)
			return summary, execErr
		}
	}

	logrus.Infof("plan %s executed: %d succeeded, %d skipped, %d failed",
		plan.PlanID, summary.Succeeded, summary.Skipped, summary.Failed)

	return summary, nil
}

// executeEntry validates, attempts and records one transition. The returned
// error is informational for run-level decisions; the entry's fate is already
// recorded in the execution log by the time this returns.
func (a *Adjudex) executeEntry(ctx context.Context, planID string, entry *model.PlanEntry, summary *ExecutionSummary) error {
	rec := &model.ExecutionRecord{
		PlanID:       planID,
		SubmissionID: entry.SubmissionID,
		Action:       entry.Action,
		CreatedAt:    time.Now(),
	}

	if err := entry.Validate(); err != nil {
		rec.Outcome = model.OutcomeFailedFatal
		rec.LastError = err.Error()
		summary.record(rec.Outcome)
		logrus.Errorf("plan %s submission %s failed validation: %v", planID, entry.SubmissionID, err)
		return a.datasource.RecordExecution(ctx, rec)
	}

	attempts, err := a.retryPol.Do(ctx, func() error {
		_, transitionErr := a.platform.TransitionSubmission(ctx, entry.SubmissionID, entry.Action, entry.RejectionReason, entry.RejectionCategory)
		if transitionErr != nil && !apierror.Retryable(transitionErr) {
			return retry.Permanent(transitionErr)
		}
		return transitionErr
	})
	rec.Attempts = attempts

	switch {
	case err == nil:
		rec.Outcome = model.OutcomeSucceeded
	case apierror.Conflict(err):
		// Someone settled it on the platform between planning and now.
		rec.Outcome = model.OutcomeSkippedAlreadyTerminal
		rec.LastError = err.Error()
		logrus.Warnf("submission %s already terminal on platform: %v", entry.SubmissionID, err)
	case ctx.Err() != nil:
		rec.Outcome = model.OutcomeFailedRetryable
		rec.LastError = err.Error()
	default:
		rec.Outcome = model.OutcomeFailedFatal
		rec.LastError = err.Error()
		logrus.Errorf("submission %s transition %s failed after %d attempts: %v",
			entry.SubmissionID, entry.Action, attempts, err)
	}

	summary.record(rec.Outcome)
	if recordErr := a.datasource.RecordExecution(ctx, rec); recordErr != nil {
		return recordErr
	}
	return err
}
