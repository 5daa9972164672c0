package database

import (
	"database/sql"
	"log"
	"sync"

	_ "github.com/lib/pq"

	"github.com/studykit/adjudex/config"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	err = createRejectionFlagsTable(db)
	if err != nil {
		return nil, err
	}
	err = createPlanRunsTable(db)
	if err != nil {
		return nil, err
	}
	err = createExecutionLogTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// createRejectionFlagsTable creates the flag/status table. One row per
// participant; recomputation replaces the row wholesale.
func createRejectionFlagsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rejection_flags (
			participant_id TEXT PRIMARY KEY,
			cohort TEXT,
			attention_checks_failed INT NOT NULL DEFAULT 0,
			failed_two_plus_attention_checks BOOLEAN NOT NULL DEFAULT FALSE,
			failed_one_attention_check BOOLEAN NOT NULL DEFAULT FALSE,
			did_not_give_consent BOOLEAN NOT NULL DEFAULT FALSE,
			did_not_understand_tasks BOOLEAN NOT NULL DEFAULT FALSE,
			occupation_not_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
			insufficient_work_experience BOOLEAN NOT NULL DEFAULT FALSE,
			incomplete_survey_other_reasons BOOLEAN NOT NULL DEFAULT FALSE,
			completed_survey BOOLEAN NOT NULL DEFAULT FALSE,
			rushed_responses BOOLEAN NOT NULL DEFAULT FALSE,
			repetitive_answers BOOLEAN NOT NULL DEFAULT FALSE,
			contradictory_logic BOOLEAN NOT NULL DEFAULT FALSE,
			extreme_time_estimate BOOLEAN NOT NULL DEFAULT FALSE,
			repetitive_questions INT NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			status_rejected BOOLEAN NOT NULL DEFAULT FALSE,
			status_no_consent BOOLEAN NOT NULL DEFAULT FALSE,
			status_screened_out BOOLEAN NOT NULL DEFAULT FALSE,
			status_approved BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT one_status CHECK (
				(status_rejected::int + status_no_consent::int +
				 status_screened_out::int + status_approved::int) = 1
			)
		)
	`)
	return err
}

// createPlanRunsTable creates the bookkeeping table for generated plans.
func createPlanRunsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS plan_runs (
			id SERIAL PRIMARY KEY,
			plan_id TEXT NOT NULL UNIQUE,
			study_id TEXT NOT NULL,
			total_entries INT NOT NULL,
			approvals INT NOT NULL,
			rejections INT NOT NULL,
			manual_reviews INT NOT NULL,
			file_path TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// createExecutionLogTable creates the append-only execution log. Rows are
// inserted, never updated or deleted.
func createExecutionLogTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS execution_log (
			id SERIAL PRIMARY KEY,
			plan_id TEXT NOT NULL,
			submission_id TEXT NOT NULL,
			action TEXT NOT NULL,
			outcome TEXT NOT NULL,
			attempts INT NOT NULL,
			last_error TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_execution_log_submission ON execution_log (submission_id)`)
	return err
}
