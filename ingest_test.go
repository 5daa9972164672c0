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
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studykit/adjudex/database/mocks"
	"github.com/studykit/adjudex/model"
)

// surveyHeaders builds the full export header: the participant columns, five
// task blocks and one estimate pair.
func surveyHeaders() []string {
	headers := append([]string{}, requiredSurveyColumns...)
	for task := 1; task <= 5; task++ {
		for _, q := range taskQuestionColumns {
			headers = append(headers, fmt.Sprintf("t%d_%s", task, q))
		}
	}
	headers = append(headers, "estimate_report_hours", "estimate_report_minutes")
	return headers
}

// surveyRow fills a row for the given headers, starting from a clean
// participant and applying overrides by column name.
func surveyRow(headers []string, participantID string, overrides map[string]string) []string {
	values := map[string]string{
		"participant_id":          participantID,
		"cohort":                  "pilot",
		"consent":                 model.ConsentGiven,
		"experience":              "1-2 years",
		"understanding":           model.UnderstoodAllTasks,
		"occupation_confirmed":    model.OccupationConfirmedYes,
		"attention_check_1":       "",
		"attention_check_2":       model.AttentionCheckTwoExpected,
		"attention_check_3":       "Somewhat disagree",
		"finished":                "true",
		"estimate_report_hours":   "2",
		"estimate_report_minutes": "30",
	}
	for task := 1; task <= 5; task++ {
		values[fmt.Sprintf("t%d_clarity", task)] = model.QualityScale[2]
		values[fmt.Sprintf("t%d_accuracy", task)] = model.QualityScale[3]
		values[fmt.Sprintf("t%d_professionalism", task)] = model.QualityScale[2+task%2]
		values[fmt.Sprintf("t%d_completeness", task)] = model.QualityScale[3]
		values[fmt.Sprintf("t%d_acceptance", task)] = model.AcceptanceScale[2+task%3]
		values[fmt.Sprintf("t%d_quality_percent", task)] = fmt.Sprintf("%d", 50+task*5)
		values[fmt.Sprintf("t%d_reject_reasons", task)] = ""
		values[fmt.Sprintf("t%d_duration_secs", task)] = fmt.Sprintf("%d", 30+task*10)
		values[fmt.Sprintf("t%d_last_click_secs", task)] = fmt.Sprintf("%d", 25+task*8)
	}
	for k, v := range overrides {
		values[k] = v
	}

	row := make([]string, len(headers))
	for i, h := range headers {
		row[i] = values[h]
	}
	return row
}

func surveyCSV(t *testing.T, rows ...[]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(surveyHeaders()))
	require.NoError(t, w.WriteAll(rows))
	return buf.String()
}

func TestIngestSurveyCSV(t *testing.T) {
	headers := surveyHeaders()
	data := surveyCSV(t,
		surveyRow(headers, "p1", nil),
		surveyRow(headers, "p2", map[string]string{
			"consent":  model.ConsentDeclined,
			"finished": "false",
		}),
	)

	records, skipped, err := IngestSurveyCSV(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "p1", first.ParticipantID)
	assert.Equal(t, "pilot", first.Cohort)
	assert.Equal(t, model.ConsentGiven, first.Consent)
	assert.True(t, first.Finished)
	require.Len(t, first.Tasks, 5)
	assert.Equal(t, model.QualityScale[2], first.Tasks[0].Clarity)
	assert.Equal(t, 55, first.Tasks[0].QualityPercent)
	assert.Equal(t, 40.0, first.Tasks[0].DurationSecs)
	require.Len(t, first.Estimates, 1)
	assert.Equal(t, "report", first.Estimates[0].Label)
	assert.Equal(t, 2.5, first.Estimates[0].TotalHours())

	second := records[1]
	assert.Equal(t, model.ConsentDeclined, second.Consent)
	assert.False(t, second.Finished)
}

func TestIngestSkipsMalformedRows(t *testing.T) {
	headers := surveyHeaders()
	data := surveyCSV(t,
		surveyRow(headers, "p1", nil),
		surveyRow(headers, "p2", map[string]string{"consent": "maybe later"}),
		surveyRow(headers, "p3", map[string]string{"t2_quality_percent": "over 9000"}),
		surveyRow(headers, "", nil),
		surveyRow(headers, "p5", map[string]string{"t1_clarity": "Amazing"}),
		surveyRow(headers, "p6", nil),
	)

	records, skipped, err := IngestSurveyCSV(context.Background(), strings.NewReader(data))
	require.NoError(t, err, "bad rows are skipped, not fatal for the batch")
	assert.Equal(t, 4, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, "p1", records[0].ParticipantID)
	assert.Equal(t, "p6", records[1].ParticipantID)
}

func TestIngestRejectReasonParsing(t *testing.T) {
	headers := surveyHeaders()
	data := surveyCSV(t,
		surveyRow(headers, "p1", map[string]string{"t3_reject_reasons": "Confusing, Too long"}),
	)

	records, _, err := IngestSurveyCSV(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"Confusing", "Too long"}, records[0].Tasks[2].RejectReasons)
	assert.True(t, records[0].Tasks[2].HasRejectReason("Confusing"))
}

func TestIngestRequiresColumns(t *testing.T) {
	_, _, err := IngestSurveyCSV(context.Background(), strings.NewReader("participant_id,consent\np1,yes\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "required column")
}

func TestEvaluateSurveyPersistsStatuses(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Adjudex{datasource: mockDS}

	headers := surveyHeaders()
	data := surveyCSV(t,
		surveyRow(headers, "p1", nil),
		surveyRow(headers, "p2", map[string]string{"consent": model.ConsentDeclined}),
		surveyRow(headers, "p3", map[string]string{
			"attention_check_1": "Strongly agree",
			"attention_check_2": "Strongly disagree",
		}),
	)

	mockDS.On("ReplaceFlags", mock.Anything, mock.Anything).Return(nil)

	results, err := engine.EvaluateSurvey(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, results, 3)

	byID := make(map[string]model.StatusRecord)
	for _, r := range results {
		byID[r.Flags.ParticipantID] = r
	}
	assert.Equal(t, model.StatusApproved, byID["p1"].Status)
	assert.Equal(t, model.StatusNoConsent, byID["p2"].Status)
	assert.Equal(t, model.StatusRejected, byID["p3"].Status)

	mockDS.AssertNumberOfCalls(t, "ReplaceFlags", 3)
}
