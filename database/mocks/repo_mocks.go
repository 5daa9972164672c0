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
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/studykit/adjudex/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Flag/status table methods

func (m *MockDataSource) ReplaceFlags(ctx context.Context, record *model.StatusRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockDataSource) GetFlags(ctx context.Context, participantID string) (*model.StatusRecord, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StatusRecord), args.Error(1)
}

func (m *MockDataSource) GetStatusRecords(ctx context.Context) ([]model.StatusRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatusRecord), args.Error(1)
}

func (m *MockDataSource) GetAuditFlagged(ctx context.Context) ([]model.StatusRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatusRecord), args.Error(1)
}

// Plan run methods

func (m *MockDataSource) RecordPlanRun(ctx context.Context, run *model.PlanRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockDataSource) GetPlanRun(ctx context.Context, planID string) (*model.PlanRun, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlanRun), args.Error(1)
}

// Execution log methods

func (m *MockDataSource) RecordExecution(ctx context.Context, rec *model.ExecutionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockDataSource) HasTerminalOutcome(ctx context.Context, submissionID string) (bool, error) {
	args := m.Called(ctx, submissionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) GetExecutionsByPlan(ctx context.Context, planID string) ([]model.ExecutionRecord, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ExecutionRecord), args.Error(1)
}
