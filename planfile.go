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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/studykit/adjudex/model"
)

// planColumns is the plan file header, in output order. ReadPlanFile resolves
// columns by name rather than position so a hand-edited file with reordered
// columns still loads.
var planColumns = []string{
	"plan_id",
	"study_id",
	"created_at",
	"submission_id",
	"participant_id",
	"local_status",
	"remote_status",
	"proposed_action",
	"rejection_reason",
	"rejection_category",
	"validation_warnings",
	"notes",
}

const warningSeparator = "; "

// WritePlanCSV writes the plan to a CSV file at the given path, creating the
// directory if needed. The CSV file is the reviewable artifact and the only
// input the executor accepts.
func WritePlanCSV(plan *model.Plan, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating plan directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating plan file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(planColumns); err != nil {
		return errors.Wrap(err, "writing plan header")
	}
	for i := range plan.Entries {
		if err := w.Write(planRow(plan, &plan.Entries[i])); err != nil {
			return errors.Wrapf(err, "writing plan entry %s", plan.Entries[i].SubmissionID)
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing plan file")
}

func planRow(plan *model.Plan, e *model.PlanEntry) []string {
	return []string{
		plan.PlanID,
		plan.StudyID,
		plan.CreatedAt.Format(time.RFC3339),
		e.SubmissionID,
		e.ParticipantID,
		string(e.LocalStatus),
		string(e.RemoteStatus),
		string(e.Action),
		e.RejectionReason,
		e.RejectionCategory,
		strings.Join(e.ValidationWarnings, warningSeparator),
		e.Notes,
	}
}

// ReadPlanFile loads a reviewed plan CSV back into memory for execution. A
// malformed row is fatal for the whole file: a plan is executed exactly as
// reviewed or not at all.
func ReadPlanFile(path string) (*model.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening plan file")
	}
	defer f.Close()

	csvReader := csv.NewReader(bufio.NewReader(f))

	headers, err := csvReader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading plan headers")
	}
	columnMap, err := createPlanColumnMap(headers)
	if err != nil {
		return nil, err
	}

	plan := &model.Plan{}
	rowNum := 1
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading plan row %d", rowNum)
		}
		rowNum++

		entry, err := parsePlanEntry(record, columnMap)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing plan row %d", rowNum)
		}

		if plan.PlanID == "" {
			plan.PlanID = entry.PlanID
			plan.StudyID = record[columnMap["study_id"]]
			if createdAt, err := time.Parse(time.RFC3339, record[columnMap["created_at"]]); err == nil {
				plan.CreatedAt = createdAt
			}
		} else if entry.PlanID != plan.PlanID {
			return nil, fmt.Errorf("plan row %d carries plan ID %q, expected %q", rowNum, entry.PlanID, plan.PlanID)
		}

		plan.Entries = append(plan.Entries, entry)
	}

	if plan.PlanID == "" {
		return nil, fmt.Errorf("plan file %s contains no entries", path)
	}
	return plan, nil
}

// createPlanColumnMap maps column names to indices based on the header row
// and verifies every required column is present.
func createPlanColumnMap(headers []string) (map[string]int, error) {
	columnMap := make(map[string]int)
	for i, header := range headers {
		columnMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range planColumns {
		if _, exists := columnMap[col]; !exists {
			return nil, fmt.Errorf("required column '%s' not found in plan file", col)
		}
	}
	return columnMap, nil
}

func parsePlanEntry(record []string, columnMap map[string]int) (model.PlanEntry, error) {
	if len(record) < len(columnMap) {
		return model.PlanEntry{}, fmt.Errorf("incorrect number of fields in record")
	}

	field := func(name string) string {
		return strings.TrimSpace(record[columnMap[name]])
	}

	action, err := model.ParsePlanAction(field("proposed_action"))
	if err != nil {
		return model.PlanEntry{}, err
	}

	entry := model.PlanEntry{
		PlanID:            field("plan_id"),
		SubmissionID:      field("submission_id"),
		ParticipantID:     field("participant_id"),
		RemoteStatus:      model.RemoteStatus(field("remote_status")),
		Action:            action,
		RejectionReason:   field("rejection_reason"),
		RejectionCategory: field("rejection_category"),
		Notes:             field("notes"),
	}
	if localStatus := field("local_status"); localStatus != "" {
		status, err := model.ParseParticipantStatus(localStatus)
		if err != nil {
			return model.PlanEntry{}, err
		}
		entry.LocalStatus = status
	}
	if warnings := field("validation_warnings"); warnings != "" {
		entry.ValidationWarnings = strings.Split(warnings, warningSeparator)
	}
	return entry, nil
}

// WritePlanWorkbook writes the plan as an XLSX workbook next to the CSV, for
// reviewers who annotate in a spreadsheet. The workbook is a convenience
// copy; the CSV remains the authoritative artifact.
func WritePlanWorkbook(plan *model.Plan, path string) error {
	f := excelize.NewFile()
	const sheet = "Plan"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return errors.Wrap(err, "creating plan sheet")
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "removing default sheet")
	}

	for i, h := range planColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.Wrap(err, "writing workbook header")
		}
	}

	for rowIdx := range plan.Entries {
		row := planRow(plan, &plan.Entries[rowIdx])
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrapf(err, "writing workbook row %d", rowIdx+2)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating plan directory")
	}
	return errors.Wrap(f.SaveAs(path), "saving plan workbook")
}
