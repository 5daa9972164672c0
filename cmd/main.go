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
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/studykit/adjudex"
	"github.com/studykit/adjudex/config"
	"github.com/studykit/adjudex/database"
	"github.com/studykit/adjudex/internal/notification"
)

// CLI wraps the root Cobra command.
type CLI struct {
	cmd *cobra.Command
}

// adjudexInstance holds the engine instance and its configuration for use by
// the subcommands.
type adjudexInstance struct {
	adjudex *adjudex.Adjudex
	cnf     *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and initializes the engine before any
// subcommand executes. Environment variables (including a .env file when one
// exists) override the JSON configuration file.
func preRun(app *adjudexInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err == nil {
			logrus.Debug("loaded environment from .env")
		}

		if err := config.InitConfig(*configFile); err != nil {
			log.Fatal("error loading config: ", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		engine, err := setupAdjudex(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.adjudex = engine
		app.cnf = cnf

		return nil
	}
}

// setupAdjudex connects the datasource and builds the engine from it.
func setupAdjudex(cfg *config.Configuration) (*adjudex.Adjudex, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	engine, err := adjudex.NewAdjudex(db)
	if err != nil {
		return nil, fmt.Errorf("error creating adjudex: %v", err)
	}
	return engine, nil
}

// NewCLI assembles the root command and its subcommands.
func NewCLI() *CLI {
	var configFile string
	a := &adjudexInstance{}

	var rootCmd = &cobra.Command{
		Use:   "adjudex",
		Short: "Survey payment validation and reconciliation",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./adjudex.json", "Configuration file for adjudex")
	rootCmd.PersistentPreRunE = preRun(a, &configFile)

	rootCmd.AddCommand(evaluateCommands(a))
	rootCmd.AddCommand(planCommands(a))
	rootCmd.AddCommand(executeCommands(a))
	rootCmd.AddCommand(auditCommands(a))

	return &CLI{cmd: rootCmd}
}

func (c CLI) executeCLI() {
	if err := c.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
