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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adjudex.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInitConfigAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"data_source": {"dns": "postgres://localhost:5432/adjudex?sslmode=disable"},
		"platform": {"api_token": "real-token"}
	}`)

	require.NoError(t, InitConfig(path))

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "Adjudex", cnf.ProjectName)
	assert.Equal(t, DEFAULT_PLATFORM_URL, cnf.Platform.BaseURL)
	assert.Equal(t, 30, cnf.Platform.TimeoutSec)
	assert.Equal(t, 200, cnf.Platform.PageSize)
	assert.Equal(t, 4, cnf.Executor.MaxAttempts)
	assert.Equal(t, 2, cnf.Executor.BaseDelaySec)
	assert.Equal(t, 30, cnf.Executor.LockTTLMin)
	assert.Equal(t, DEFAULT_PLAN_DIR, cnf.Output.PlanDir)
}

func TestInitConfigRequiresDataSource(t *testing.T) {
	path := writeConfigFile(t, `{
		"platform": {"api_token": "real-token"}
	}`)

	err := InitConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data source DNS")
}

func TestInitConfigRejectsPlaceholderToken(t *testing.T) {
	path := writeConfigFile(t, `{
		"data_source": {"dns": "postgres://localhost:5432/adjudex"},
		"platform": {"api_token": "`+TokenPlaceholder+`"}
	}`)

	err := InitConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API token")
}

func TestInitConfigEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `{
		"data_source": {"dns": "postgres://localhost:5432/adjudex"},
		"platform": {"api_token": "file-token", "page_size": 50}
	}`)

	t.Setenv("ADJUDEX_PLATFORM_API_TOKEN", "env-token")
	t.Setenv("ADJUDEX_PLATFORM_BASE_URL", "https://sandbox.example.com/api/v1/")

	require.NoError(t, InitConfig(path))

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "env-token", cnf.Platform.APIToken)
	assert.Equal(t, "https://sandbox.example.com/api/v1", cnf.Platform.BaseURL,
		"trailing slash is trimmed")
	assert.Equal(t, 50, cnf.Platform.PageSize, "file values survive when no env override exists")
}

func TestInitConfigTrimsWhitespace(t *testing.T) {
	path := writeConfigFile(t, `{
		"data_source": {"dns": "  postgres://localhost:5432/adjudex  "},
		"platform": {"api_token": "  real-token  ", "study_id": "  study-1  "}
	}`)

	require.NoError(t, InitConfig(path))

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/adjudex", cnf.DataSource.Dns)
	assert.Equal(t, "real-token", cnf.Platform.APIToken)
	assert.Equal(t, "study-1", cnf.Platform.StudyID)
}
