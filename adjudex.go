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

// Package adjudex turns noisy self-reported survey submissions into correct,
// irreversible payment decisions on an external crowdsourcing platform. The
// pipeline is strictly one-directional: raw participant records are evaluated
// into rejection flags, flags resolve to exactly one status per participant,
// local statuses are reconciled against the platform's live submission
// states into a human-reviewed plan, and only the approved plan is executed
// against the platform.
package adjudex

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studykit/adjudex/config"
	"github.com/studykit/adjudex/database"
	redis_db "github.com/studykit/adjudex/internal/redis-db"
	"github.com/studykit/adjudex/internal/retry"
	"github.com/studykit/adjudex/platform"
)

// Adjudex is the main struct for the validation-and-reconciliation engine.
type Adjudex struct {
	datasource database.IDataSource
	platform   platform.SubmissionService
	redis      redis.UniversalClient
	retryPol   retry.Policy
	lockTTL    time.Duration
}

// NewAdjudex initializes the engine with the provided database datasource.
// The platform client and retry policy come from the fetched configuration;
// the redis client is only created when a redis DNS is configured, since the
// run lock is optional for single-operator setups.
func NewAdjudex(db database.IDataSource) (*Adjudex, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	a := &Adjudex{
		datasource: db,
		platform:   platform.NewClient(configuration.Platform),
		retryPol: retry.Policy{
			MaxAttempts: uint64(configuration.Executor.MaxAttempts),
			BaseDelay:   time.Duration(configuration.Executor.BaseDelaySec) * time.Second,
		},
		lockTTL: time.Duration(configuration.Executor.LockTTLMin) * time.Minute,
	}

	if configuration.Redis.Dns != "" {
		redisClient, err := redis_db.NewRedisClient(configuration.Redis.Dns)
		if err != nil {
			return nil, err
		}
		a.redis = redisClient.Client()
	}

	return a, nil
}
