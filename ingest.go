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
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studykit/adjudex/model"
)

// Required columns of a cleaned survey export. Task ratings follow a
// t<N>_<question> naming scheme and are resolved per task block; time
// estimate columns are discovered by their estimate_<label>_hours /
// estimate_<label>_minutes prefix so new estimate questions need no code
// change.
var requiredSurveyColumns = []string{
	"participant_id",
	"cohort",
	"consent",
	"experience",
	"understanding",
	"occupation_confirmed",
	"attention_check_1",
	"attention_check_2",
	"attention_check_3",
	"finished",
}

var taskQuestionColumns = []string{
	"clarity",
	"accuracy",
	"professionalism",
	"completeness",
	"acceptance",
	"quality_percent",
	"reject_reasons",
	"duration_secs",
	"last_click_secs",
}

// IngestSurveyCSV parses a cleaned survey export into participant records.
// A row with an unrecognized literal or a malformed number is an input-shape
// error: fatal for that record only, logged, and the batch continues. It
// returns the parsed records plus the number of rows skipped.
func IngestSurveyCSV(ctx context.Context, reader io.Reader) ([]model.ParticipantRecord, int, error) {
	csvReader := csv.NewReader(bufio.NewReader(reader))

	headers, err := csvReader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("error reading survey headers: %w", err)
	}
	columnMap, err := createSurveyColumnMap(headers)
	if err != nil {
		return nil, 0, err
	}

	var records []model.ParticipantRecord
	skipped := 0
	rowNum := 1

	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logrus.Warnf("error reading survey row %d, skipping: %v", rowNum+1, err)
			skipped++
			continue
		}
		rowNum++

		record, err := parseParticipantRow(row, columnMap)
		if err != nil {
			logrus.Warnf("error parsing survey row %d, skipping: %v", rowNum, err)
			skipped++
			continue
		}
		records = append(records, record)

		if rowNum%100 == 0 {
			select {
			case <-ctx.Done():
				return nil, skipped, ctx.Err()
			default:
			}
		}
	}

	return records, skipped, nil
}

// createSurveyColumnMap maps survey column names to indices and verifies the
// required columns plus all five task blocks are present.
func createSurveyColumnMap(headers []string) (map[string]int, error) {
	columnMap := make(map[string]int)
	for i, header := range headers {
		columnMap[strings.ToLower(strings.TrimSpace(header))] = i
	}

	for _, col := range requiredSurveyColumns {
		if _, exists := columnMap[col]; !exists {
			return nil, fmt.Errorf("required column '%s' not found in survey export", col)
		}
	}
	for task := 1; task <= expectedTaskResponses; task++ {
		for _, q := range taskQuestionColumns {
			col := fmt.Sprintf("t%d_%s", task, q)
			if _, exists := columnMap[col]; !exists {
				return nil, fmt.Errorf("required column '%s' not found in survey export", col)
			}
		}
	}
	return columnMap, nil
}

func parseParticipantRow(row []string, columnMap map[string]int) (model.ParticipantRecord, error) {
	if len(row) < len(columnMap) {
		return model.ParticipantRecord{}, fmt.Errorf("incorrect number of fields in record")
	}

	field := func(name string) string {
		return strings.TrimSpace(row[columnMap[name]])
	}

	record := model.ParticipantRecord{
		ParticipantID:       field("participant_id"),
		Cohort:              field("cohort"),
		Consent:             field("consent"),
		Experience:          field("experience"),
		Understanding:       field("understanding"),
		OccupationConfirmed: field("occupation_confirmed"),
		AttentionChecks: [3]string{
			field("attention_check_1"),
			field("attention_check_2"),
			field("attention_check_3"),
		},
		Finished: strings.EqualFold(field("finished"), "true") || field("finished") == "1",
	}

	if record.ParticipantID == "" {
		return model.ParticipantRecord{}, model.FieldError{Field: "participant_id", Value: ""}
	}
	if err := model.ValidateLiteral("consent", record.Consent, model.AcceptedConsent); err != nil {
		return model.ParticipantRecord{}, err
	}
	if err := model.ValidateLiteral("experience", record.Experience, model.AcceptedExperience); err != nil {
		return model.ParticipantRecord{}, err
	}
	if err := model.ValidateLiteral("understanding", record.Understanding, model.AcceptedUnderstanding); err != nil {
		return model.ParticipantRecord{}, err
	}
	if err := model.ValidateLiteral("occupation_confirmed", record.OccupationConfirmed, model.AcceptedOccupationConfirmation); err != nil {
		return model.ParticipantRecord{}, err
	}

	for task := 1; task <= expectedTaskResponses; task++ {
		response, err := parseTaskResponse(task, field)
		if err != nil {
			return model.ParticipantRecord{}, err
		}
		record.Tasks = append(record.Tasks, response)
	}

	record.Estimates = parseEstimates(row, columnMap)

	return record, nil
}

func parseTaskResponse(task int, field func(string) string) (model.TaskResponse, error) {
	col := func(q string) string { return field(fmt.Sprintf("t%d_%s", task, q)) }

	response := model.TaskResponse{
		Clarity:         col("clarity"),
		Accuracy:        col("accuracy"),
		Professionalism: col("professionalism"),
		Completeness:    col("completeness"),
		Acceptance:      col("acceptance"),
	}

	// Rating answers may be blank on partial completions; a present answer
	// must be on its scale.
	for name, value := range map[string]string{
		"clarity":         response.Clarity,
		"accuracy":        response.Accuracy,
		"professionalism": response.Professionalism,
		"completeness":    response.Completeness,
	} {
		if value != "" && model.ScaleIndex(model.QualityScale, value) == -1 {
			return model.TaskResponse{}, model.FieldError{Field: fmt.Sprintf("t%d_%s", task, name), Value: value}
		}
	}
	if response.Acceptance != "" && model.ScaleIndex(model.AcceptanceScale, response.Acceptance) == -1 {
		return model.TaskResponse{}, model.FieldError{Field: fmt.Sprintf("t%d_acceptance", task), Value: response.Acceptance}
	}

	if v := col("quality_percent"); v != "" {
		percent, err := strconv.Atoi(v)
		if err != nil || percent < 0 || percent > 100 {
			return model.TaskResponse{}, model.FieldError{Field: fmt.Sprintf("t%d_quality_percent", task), Value: v}
		}
		response.QualityPercent = percent
	}

	if v := col("reject_reasons"); v != "" {
		for _, reason := range strings.Split(v, ",") {
			reason = strings.TrimSpace(reason)
			if reason == "" {
				continue
			}
			if err := model.ValidateLiteral(fmt.Sprintf("t%d_reject_reasons", task), reason, model.AcceptedRejectReasons); err != nil {
				return model.TaskResponse{}, err
			}
			response.RejectReasons = append(response.RejectReasons, reason)
		}
	}

	for name, target := range map[string]*float64{
		"duration_secs":   &response.DurationSecs,
		"last_click_secs": &response.LastClickSecs,
	} {
		if v := col(name); v != "" {
			secs, err := strconv.ParseFloat(v, 64)
			if err != nil || secs < 0 {
				return model.TaskResponse{}, model.FieldError{Field: fmt.Sprintf("t%d_%s", task, name), Value: v}
			}
			*target = secs
		}
	}

	return response, nil
}

// parseEstimates collects every estimate_<label>_hours / estimate_<label>_minutes
// column pair. A malformed estimate value is treated as unanswered rather
// than failing the record, since estimates only feed an audit-only flag.
func parseEstimates(row []string, columnMap map[string]int) []model.TimeEstimate {
	var estimates []model.TimeEstimate
	for col, idx := range columnMap {
		if !strings.HasPrefix(col, "estimate_") || !strings.HasSuffix(col, "_hours") {
			continue
		}
		label := strings.TrimSuffix(strings.TrimPrefix(col, "estimate_"), "_hours")

		estimate := model.TimeEstimate{Label: label}
		if v := strings.TrimSpace(row[idx]); v != "" {
			if hours, err := strconv.ParseFloat(v, 64); err == nil && hours >= 0 {
				estimate.Hours = hours
			}
		}
		if minutesIdx, ok := columnMap[fmt.Sprintf("estimate_%s_minutes", label)]; ok {
			if v := strings.TrimSpace(row[minutesIdx]); v != "" {
				if minutes, err := strconv.ParseFloat(v, 64); err == nil && minutes >= 0 {
					estimate.Minutes = minutes
				}
			}
		}
		if estimate.Hours > 0 || estimate.Minutes > 0 {
			estimates = append(estimates, estimate)
		}
	}
	return estimates
}

// EvaluateSurvey ingests a cleaned survey export, evaluates every participant
// and persists the resulting flag/status rows. Each participant's row is
// replaced wholesale, so re-running on a corrected export converges rather
// than accumulating stale flags.
func (a *Adjudex) EvaluateSurvey(ctx context.Context, reader io.Reader) ([]model.StatusRecord, error) {
	records, skipped, err := IngestSurveyCSV(ctx, reader)
	if err != nil {
		return nil, err
	}

	results := make([]model.StatusRecord, 0, len(records))
	for _, record := range records {
		flags := EvaluateParticipant(record)
		status := model.StatusRecord{
			Flags:  flags,
			Status: ResolveStatus(flags),
		}
		if err := a.datasource.ReplaceFlags(ctx, &status); err != nil {
			return nil, err
		}
		results = append(results, status)
	}

	logrus.Infof("evaluated %d participants (%d rows skipped)", len(results), skipped)
	return results, nil
}

// WriteAuditList writes the participants whose audit-only flags fired to a
// JSON file for manual review. These flags never change a participant's
// status; the list exists so a human can look at the suspicious sessions.
func (a *Adjudex) WriteAuditList(ctx context.Context, path string) (int, error) {
	flagged, err := a.datasource.GetAuditFlagged(ctx)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	payload := struct {
		GeneratedAt  time.Time            `json:"generated_at"`
		Participants []model.StatusRecord `json:"participants"`
	}{GeneratedAt: time.Now(), Participants: flagged}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return 0, err
	}
	return len(flagged), nil
}
