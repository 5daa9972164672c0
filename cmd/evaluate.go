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
	"os"

	"github.com/spf13/cobra"

	"github.com/studykit/adjudex/model"
)

func evaluateCommands(a *adjudexInstance) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "evaluate a cleaned survey export into participant statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			results, err := a.adjudex.EvaluateSurvey(cmd.Context(), f)
			if err != nil {
				return err
			}

			counts := make(map[model.ParticipantStatus]int)
			for _, r := range results {
				counts[r.Status]++
			}
			for _, status := range model.ParticipantStatuses {
				fmt.Printf("%-13s %d\n", status, counts[status])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to the cleaned survey export CSV")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
