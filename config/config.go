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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PLATFORM_URL = "https://api.prolific.com/api/v1"
	DEFAULT_PLAN_DIR     = "./plans"

	// TokenPlaceholder is the placeholder shipped in adjudex.template.json.
	// A token equal to it is treated as unset.
	TokenPlaceholder = "YOUR_PLATFORM_API_TOKEN"
)

var ConfigStore atomic.Value

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"ADJUDEX_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"ADJUDEX_REDIS_DNS"`
}

// PlatformConfig holds the crowdsourcing platform API settings.
type PlatformConfig struct {
	BaseURL    string `json:"base_url" envconfig:"ADJUDEX_PLATFORM_BASE_URL"`
	APIToken   string `json:"api_token" envconfig:"ADJUDEX_PLATFORM_API_TOKEN"`
	StudyID    string `json:"study_id" envconfig:"ADJUDEX_PLATFORM_STUDY_ID"`
	TimeoutSec int    `json:"timeout_sec" envconfig:"ADJUDEX_PLATFORM_TIMEOUT_SEC"`
	PageSize   int    `json:"page_size" envconfig:"ADJUDEX_PLATFORM_PAGE_SIZE"`
}

// ExecutorConfig tunes the retry policy and the run lock.
type ExecutorConfig struct {
	MaxAttempts  int `json:"max_attempts" envconfig:"ADJUDEX_EXECUTOR_MAX_ATTEMPTS"`
	BaseDelaySec int `json:"base_delay_sec" envconfig:"ADJUDEX_EXECUTOR_BASE_DELAY_SEC"`
	LockTTLMin   int `json:"lock_ttl_min" envconfig:"ADJUDEX_EXECUTOR_LOCK_TTL_MIN"`
}

type OutputConfig struct {
	PlanDir string `json:"plan_dir" envconfig:"ADJUDEX_OUTPUT_PLAN_DIR"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"ADJUDEX_PROJECT_NAME"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Platform     PlatformConfig   `json:"platform"`
	Executor     ExecutorConfig   `json:"executor"`
	Output       OutputConfig     `json:"output"`
	Notification Notification     `json:"notification"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("adjudex", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called adjudex.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Adjudex"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Platform.APIToken == "" || cnf.Platform.APIToken == TokenPlaceholder {
		log.Println("Error: Platform API token is not set or is still the placeholder.")
		return errors.New("platform API token is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.Platform.BaseURL = strings.TrimSpace(cnf.Platform.BaseURL)
	cnf.Platform.APIToken = strings.TrimSpace(cnf.Platform.APIToken)
	cnf.Platform.StudyID = strings.TrimSpace(cnf.Platform.StudyID)

	if cnf.Platform.BaseURL == "" {
		cnf.Platform.BaseURL = DEFAULT_PLATFORM_URL
	}
	cnf.Platform.BaseURL = strings.TrimSuffix(cnf.Platform.BaseURL, "/")

	if cnf.Platform.TimeoutSec <= 0 {
		cnf.Platform.TimeoutSec = 30
	}
	if cnf.Platform.PageSize <= 0 {
		cnf.Platform.PageSize = 200
	}

	if cnf.Executor.MaxAttempts <= 0 {
		cnf.Executor.MaxAttempts = 4
		log.Printf("Warning: Executor max attempts not specified. Setting default value: %d", cnf.Executor.MaxAttempts)
	}
	if cnf.Executor.BaseDelaySec <= 0 {
		cnf.Executor.BaseDelaySec = 2
	}
	if cnf.Executor.LockTTLMin <= 0 {
		cnf.Executor.LockTTLMin = 30
	}

	if cnf.Output.PlanDir == "" {
		cnf.Output.PlanDir = DEFAULT_PLAN_DIR
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
