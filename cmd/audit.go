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

	"github.com/spf13/cobra"
)

func auditCommands(a *adjudexInstance) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "write the list of participants flagged for manual audit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = filepath.Join(a.cnf.Output.PlanDir, "audit-list.json")
			}

			n, err := a.adjudex.WriteAuditList(cmd.Context(), out)
			if err != nil {
				return err
			}
			fmt.Printf("%d flagged participants written to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output path (defaults to <plan dir>/audit-list.json)")

	return cmd
}
