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

package database

import (
	"context"

	"github.com/studykit/adjudex/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	flags     // Interface for flag/status table operations
	plans     // Interface for plan bookkeeping operations
	execution // Interface for execution log operations
}

// flags defines methods for the participant flag/status table.
type flags interface {
	ReplaceFlags(ctx context.Context, record *model.StatusRecord) error              // Replaces a participant's flag row wholesale
	GetFlags(ctx context.Context, participantID string) (*model.StatusRecord, error) // Retrieves one participant's flags and status
	GetStatusRecords(ctx context.Context) ([]model.StatusRecord, error)              // Retrieves the full status table for planning
	GetAuditFlagged(ctx context.Context) ([]model.StatusRecord, error)               // Retrieves participants whose audit-only flags fired
}

// plans defines methods for plan run bookkeeping.
type plans interface {
	RecordPlanRun(ctx context.Context, run *model.PlanRun) error           // Records a generated plan
	GetPlanRun(ctx context.Context, planID string) (*model.PlanRun, error) // Retrieves a plan run by plan ID
}

// execution defines methods for the append-only execution log.
type execution interface {
	RecordExecution(ctx context.Context, rec *model.ExecutionRecord) error                   // Appends one execution record
	HasTerminalOutcome(ctx context.Context, submissionID string) (bool, error)               // Reports whether a prior run already settled this submission
	GetExecutionsByPlan(ctx context.Context, planID string) ([]model.ExecutionRecord, error) // Retrieves the log for one plan
}
