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

// Package platform is the client for the crowdsourcing platform's submission
// API. It exposes exactly two operations: a paginated read of a study's
// submissions and the single irreversible transition call. Every failure is
// mapped to a typed error code so callers can tell retryable, conflict and
// auth failures apart.
package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studykit/adjudex/config"
	"github.com/studykit/adjudex/internal/apierror"
	"github.com/studykit/adjudex/internal/request"
	"github.com/studykit/adjudex/model"
)

// SubmissionService is the boundary the engine depends on. The planner only
// reads; the executor owns the single mutating call.
type SubmissionService interface {
	FetchSubmissions(ctx context.Context, studyID string) ([]model.RemoteSubmission, error)
	TransitionSubmission(ctx context.Context, submissionID string, action model.PlanAction, reason, category string) (*model.RemoteSubmission, error)
}

// Client talks to the platform's REST API using token authentication.
type Client struct {
	baseURL  string
	token    string
	pageSize int
	http     *http.Client
}

// NewClient builds a client from the platform configuration.
func NewClient(cfg config.PlatformConfig) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		token:    cfg.APIToken,
		pageSize: cfg.PageSize,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
	}
}

// submissionPayload is the wire shape of one submission.
type submissionPayload struct {
	ID            string     `json:"id"`
	ParticipantID string     `json:"participant_id"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

func (p submissionPayload) toModel() model.RemoteSubmission {
	return model.RemoteSubmission{
		SubmissionID:  p.ID,
		ParticipantID: p.ParticipantID,
		Status:        model.ParseRemoteStatus(p.Status),
		StartedAt:     p.StartedAt,
		CompletedAt:   p.CompletedAt,
	}
}

type submissionListResponse struct {
	Results []submissionPayload `json:"results"`
	Meta    struct {
		Count int `json:"count"`
	} `json:"meta"`
}

// FetchSubmissions retrieves every submission for a study, transparently
// paginating until the reported count is reached. The result is sorted by
// start time so a plan generated from it has a deterministic order.
func (c *Client) FetchSubmissions(ctx context.Context, studyID string) ([]model.RemoteSubmission, error) {
	var submissions []model.RemoteSubmission
	offset := 0

	for {
		endpoint := fmt.Sprintf("%s/studies/%s/submissions/?limit=%d&offset=%d",
			c.baseURL, studyID, c.pageSize, offset)

		var page submissionListResponse
		if err := c.get(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, p := range page.Results {
			submissions = append(submissions, p.toModel())
		}

		offset += len(page.Results)
		if len(page.Results) == 0 || offset >= page.Meta.Count {
			break
		}
	}

	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].StartedAt.Before(submissions[j].StartedAt)
	})

	logrus.Infof("fetched %d submission(s) for study %s", len(submissions), studyID)
	return submissions, nil
}

// transitionPayload is the body of the transition call. Reason and category
// are only sent for rejections.
type transitionPayload struct {
	Action            string `json:"action"`
	Message           string `json:"message,omitempty"`
	RejectionCategory string `json:"rejection_category,omitempty"`
}

// TransitionSubmission executes one irreversible remote transition. The call
// is a single atomic API request: a submission is never left half-applied.
func (c *Client) TransitionSubmission(ctx context.Context, submissionID string, action model.PlanAction, reason, category string) (*model.RemoteSubmission, error) {
	if !action.Executable() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("action %s cannot be executed against the platform", action), nil)
	}

	payload := transitionPayload{Action: string(action)}
	if action == model.ActionReject {
		payload.Message = reason
		payload.RejectionCategory = category
	}

	body, err := request.ToJsonReq(&payload)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/submissions/%s/transition/", c.baseURL, submissionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", request.TokenAuth(c.token))

	var updated submissionPayload
	resp, err := request.Call(c.http, req, &updated)
	defer c.drain(resp)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierror.NewAPIError(apierror.MapHTTPStatusToCode(resp.StatusCode),
			fmt.Sprintf("transition of submission %s failed with status %d", submissionID, resp.StatusCode), nil)
	}

	sub := updated.toModel()
	return &sub, nil
}

func (c *Client) get(ctx context.Context, endpoint string, response interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", request.TokenAuth(c.token))

	resp, err := request.Call(c.http, req, response)
	defer c.drain(resp)
	if err != nil {
		return classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierror.NewAPIError(apierror.MapHTTPStatusToCode(resp.StatusCode),
			fmt.Sprintf("request to %s failed with status %d", endpoint, resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) drain(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

// classifyTransportError maps connection-level failures to typed errors.
// Timeouts and connection failures are retryable; both are treated the same
// way by the executor's backoff policy.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierror.NewAPIError(apierror.ErrTimeout, "request timed out", err)
	}
	return apierror.NewAPIError(apierror.ErrInternalServer, "request failed", err)
}
