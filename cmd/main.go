/*
Copyright 2024 Perch Authors.

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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/perchstay/perch"
	"github.com/perchstay/perch/config"
	"github.com/perchstay/perch/database"
	"github.com/perchstay/perch/internal/notification"
)

// Perch represents the CLI application, encapsulating the root Cobra command.
type Perch struct {
	cmd *cobra.Command
}

// perchInstance holds the runtime service instance and its configuration,
// shared across subcommands.
type perchInstance struct {
	perch *perch.Perch
	cnf   *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and initializes the service before any
// command executes.
func preRun(app *perchInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("perch.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newPerch, err := setupPerch(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.perch = newPerch
		app.cnf = cnf

		return nil
	}
}

func setupPerch(cfg *config.Configuration) (*perch.Perch, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newPerch, err := perch.NewPerch(db)
	if err != nil {
		return nil, fmt.Errorf("error creating perch: %v", err)
	}
	return newPerch, nil
}

// NewCLI creates the command-line interface for the Perch application.
func NewCLI() *Perch {
	var configFile string
	p := &perchInstance{}

	var rootCmd = &cobra.Command{
		Use:   "perch",
		Short: "Stay marketplace payment escrow",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./perch.json", "Configuration file for perch")

	rootCmd.PersistentPreRunE = preRun(p)

	rootCmd.AddCommand(serverCommands(p))
	rootCmd.AddCommand(workerCommands(p))
	rootCmd.AddCommand(migrateCommands(p))
	rootCmd.AddCommand(backupCommands(p))
	rootCmd.AddCommand(seedCommands(p))

	return &Perch{cmd: rootCmd}
}

func (w Perch) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
