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

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studykit/adjudex"
	"github.com/studykit/adjudex/model"
)

func planCommands(a *adjudexInstance) *cobra.Command {
	var studyID string
	var workbook bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "generate a reconciliation plan for human review",
		RunE: func(cmd *cobra.Command, args []string) error {
			if studyID == "" {
				studyID = a.cnf.Platform.StudyID
			}
			if studyID == "" {
				return fmt.Errorf("no study ID given and none configured")
			}

			plan, err := a.adjudex.GeneratePlan(cmd.Context(), studyID)
			if err != nil {
				return err
			}

			path := filepath.Join(a.cnf.Output.PlanDir, plan.PlanID+".csv")
			if workbook {
				xlsxPath := strings.TrimSuffix(path, ".csv") + ".xlsx"
				if err := adjudex.WritePlanWorkbook(plan, xlsxPath); err != nil {
					return err
				}
				fmt.Printf("workbook copy written to %s\n", xlsxPath)
			}

			counts := plan.ActionCounts()
			fmt.Printf("plan %s: %d entries\n", plan.PlanID, len(plan.Entries))
			fmt.Printf("  approve        %d\n", counts[model.ActionApprove])
			fmt.Printf("  reject         %d\n", counts[model.ActionReject])
			fmt.Printf("  manual review  %d\n", counts[model.ActionManualReview])
			fmt.Printf("  no action      %d\n", counts[model.ActionAlreadyApproved]+counts[model.ActionAlreadyRejected])
			fmt.Printf("review the plan at %s, then run: adjudex execute --plan %s --confirm %s\n",
				path, path, plan.PlanID)
			return nil
		},
	}
	cmd.Flags().StringVar(&studyID, "study", "", "platform study ID (defaults to the configured one)")
	cmd.Flags().BoolVar(&workbook, "xlsx", false, "also write an XLSX copy of the plan")

	return cmd
}
