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

	"github.com/spf13/cobra"

	"github.com/studykit/adjudex"
)

func executeCommands(a *adjudexInstance) *cobra.Command {
	var planFile string
	var confirm string

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "execute a reviewed plan against the platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := adjudex.ReadPlanFile(planFile)
			if err != nil {
				return err
			}

			summary, err := a.adjudex.ExecutePlan(cmd.Context(), plan, confirm)
			if summary != nil {
				fmt.Printf("plan %s:\n", plan.PlanID)
				fmt.Printf("  succeeded  %d\n", summary.Succeeded)
				fmt.Printf("  skipped    %d\n", summary.Skipped)
				fmt.Printf("  failed     %d\n", summary.Failed)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&planFile, "plan", "", "path to the reviewed plan CSV")
	cmd.Flags().StringVar(&confirm, "confirm", "", "the plan ID, typed to confirm execution")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("confirm")

	return cmd
}
