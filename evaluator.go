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
	"sort"
	"strings"

	"github.com/studykit/adjudex/model"
)

// Policy constants for the quality criteria. These are fixed thresholds, not
// derived values, and deliberately not configurable.
const (
	// expectedTaskResponses is the number of task blocks in a complete survey.
	expectedTaskResponses = 5

	// minMeanFastestDurationSecs is the floor for the mean of a
	// participant's 3 smallest per-task response durations.
	minMeanFastestDurationSecs = 4.0

	// minMeanEarliestClickSecs is the floor for the mean of the 3 earliest
	// last-click offsets.
	minMeanEarliestClickSecs = 12.0

	// maxReasonableEstimateHours caps the self-reported time estimates at
	// two weeks.
	maxReasonableEstimateHours = 336.0

	// ratingQuestionCount is the size of the fixed question set used for the
	// repetitiveness check: the four quality dimensions, the acceptance
	// rating and the employee-quality percentile.
	ratingQuestionCount = 6
)

// EvaluateParticipant evaluates one participant record against every quality
// criterion and returns the composed flag set. Each criterion is independent
// and non-interacting; no criterion short-circuits another. The function is
// pure: it has no side effects and recomputation replaces the flag set
// wholesale.
func EvaluateParticipant(record model.ParticipantRecord) model.RejectionFlagSet {
	flags := model.RejectionFlagSet{
		ParticipantID: record.ParticipantID,
		Cohort:        record.Cohort,
	}

	flags.AttentionChecksFailed = attentionCheckFailures(record)
	flags.FailedTwoPlusAttentionChecks = flags.AttentionChecksFailed >= 2
	flags.FailedOneAttentionCheck = flags.AttentionChecksFailed == 1

	flags.DidNotGiveConsent = record.Consent != model.ConsentGiven
	flags.InsufficientWorkExperience = insufficientExperience(record.Experience)
	flags.DidNotUnderstandTasks = didNotUnderstandTasks(record.Understanding)
	flags.OccupationNotConfirmed = record.OccupationConfirmed != model.OccupationConfirmedYes

	flags.CompletedSurvey = record.Finished
	flags.IncompleteSurveyOtherReasons = !record.Finished

	flags.RushedResponses = rushedResponses(record)
	flags.RepetitiveQuestions = repetitiveQuestions(record)
	flags.RepetitiveAnswers = flags.RepetitiveQuestions > ratingQuestionCount/2
	flags.ContradictoryLogic = contradictoryLogic(record)
	flags.ExtremeTimeEstimate = extremeTimeEstimate(record)

	return flags
}

// attentionCheckFailures counts failed checks across the three embedded checks.
// The first check instructs participants to leave the item blank, so any
// answer at all fails it.
func attentionCheckFailures(record model.ParticipantRecord) int {
	failures := 0
	if strings.TrimSpace(record.AttentionChecks[0]) != "" {
		failures++
	}
	if record.AttentionChecks[1] != model.AttentionCheckTwoExpected {
		failures++
	}
	if model.ScaleIndex(model.AttentionCheckThreeExpected, record.AttentionChecks[2]) == -1 {
		failures++
	}
	return failures
}

func insufficientExperience(experience string) bool {
	for _, level := range model.InsufficientExperience {
		if experience == level {
			return true
		}
	}
	return false
}

func didNotUnderstandTasks(understanding string) bool {
	return understanding != model.UnderstoodAllTasks && understanding != model.UnderstoodMostTasks
}

// rushedResponses flags a participant whose fastest answers were too fast to
// be genuine reading: either the mean of the 3 smallest task durations or
// the mean of the 3 earliest last-click offsets falls below its floor.
func rushedResponses(record model.ParticipantRecord) bool {
	var durations, clicks []float64
	for _, task := range record.Tasks {
		if task.DurationSecs > 0 {
			durations = append(durations, task.DurationSecs)
		}
		if task.LastClickSecs > 0 {
			clicks = append(clicks, task.LastClickSecs)
		}
	}

	if mean := meanOfSmallest(durations, 3); len(durations) >= 3 && mean < minMeanFastestDurationSecs {
		return true
	}
	if mean := meanOfSmallest(clicks, 3); len(clicks) >= 3 && mean < minMeanEarliestClickSecs {
		return true
	}
	return false
}

// meanOfSmallest returns the mean of the n smallest values.
func meanOfSmallest(values []float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n > len(sorted) {
		n = len(sorted)
	}
	sum := 0.0
	for _, v := range sorted[:n] {
		sum += v
	}
	return sum / float64(n)
}

// repetitiveQuestions counts rating questions whose answers are identical
// and non-empty across all five tasks. The check only applies to
// participants with exactly five task responses; anyone else is not
// comparable and counts zero.
func repetitiveQuestions(record model.ParticipantRecord) int {
	if len(record.Tasks) != expectedTaskResponses {
		return 0
	}

	questions := []func(model.TaskResponse) string{
		func(t model.TaskResponse) string { return t.Clarity },
		func(t model.TaskResponse) string { return t.Accuracy },
		func(t model.TaskResponse) string { return t.Professionalism },
		func(t model.TaskResponse) string { return t.Completeness },
		func(t model.TaskResponse) string { return t.Acceptance },
	}

	count := 0
	for _, question := range questions {
		if allIdenticalNonEmpty(record.Tasks, question) {
			count++
		}
	}

	// The employee-quality percentile is numeric; zero means unanswered.
	identicalQuality := true
	for _, task := range record.Tasks {
		if task.QualityPercent <= 0 || task.QualityPercent != record.Tasks[0].QualityPercent {
			identicalQuality = false
			break
		}
	}
	if identicalQuality {
		count++
	}

	return count
}

func allIdenticalNonEmpty(tasks []model.TaskResponse, answer func(model.TaskResponse) string) bool {
	first := strings.TrimSpace(answer(tasks[0]))
	if first == "" {
		return false
	}
	for _, task := range tasks[1:] {
		if strings.TrimSpace(answer(task)) != first {
			return false
		}
	}
	return true
}

// contradictoryLogic flags rating combinations that cannot both be meant:
// rating every quality dimension at the most negative level while accepting
// the work at the most positive level (or while placing the author in the
// top decile), or calling the work confusing while rating its clarity above
// the two lowest levels.
func contradictoryLogic(record model.ParticipantRecord) bool {
	mostNegative := model.QualityScale[0]
	mostPositiveAcceptance := model.AcceptanceScale[len(model.AcceptanceScale)-1]

	for _, task := range record.Tasks {
		allNegative := task.Clarity == mostNegative &&
			task.Accuracy == mostNegative &&
			task.Professionalism == mostNegative &&
			task.Completeness == mostNegative

		if allNegative && task.Acceptance == mostPositiveAcceptance {
			return true
		}
		if allNegative && task.QualityPercent >= 90 {
			return true
		}

		if task.HasRejectReason("Confusing") {
			if idx := model.ScaleIndex(model.QualityScale, task.Clarity); idx > 1 {
				return true
			}
		}
	}
	return false
}

// extremeTimeEstimate flags any time estimate above two weeks of hours.
func extremeTimeEstimate(record model.ParticipantRecord) bool {
	for _, estimate := range record.Estimates {
		if estimate.TotalHours() > maxReasonableEstimateHours {
			return true
		}
	}
	return false
}
