/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/arraydb/pkg/config"
	"github.com/ssargent/arraydb/pkg/di"
	"github.com/ssargent/arraydb/pkg/store"
)

type contextKey struct{}

// cmdState is what PersistentPreRunE hands to the subcommands
type cmdState struct {
	container *di.Container
	store     *store.RecordStore[int64]
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "arraydb",
	Short: "ArrayDB - Embeddable record store",
	Long: `ArrayDB persists arrays of fixed-size records addressed by index,
in a binary file, a JSON or YAML document, or a pebble database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		container, err := di.NewContainer(cfg)
		if err != nil {
			return err
		}
		records, err := container.OpenStore()
		if err != nil {
			container.Close()
			return errors.WithMessage(err, "failed to open store")
		}

		active = &cmdState{container: container, store: records}

		// Store in command context
		cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, active))
		return nil
	},
}

// active is closed once the command finished, whether or not it failed
var active *cmdState

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}

func execute() error {
	defer func() {
		if active != nil {
			if err := active.container.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Error closing store: %v\n", err)
			}
			active = nil
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default is "+config.GetDefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory for the store (overrides config)")
	rootCmd.PersistentFlags().StringP("backend", "b", "", "Storage backend: binary, json, yaml or pebble (overrides config)")
}

// loadConfig reads the config file named by --config, or the default one if
// it exists, and applies the flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" && config.ConfigExists(config.GetDefaultConfigPath()) {
		path = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Backend = backend
	}
	return cfg, cfg.Validate()
}

// storeFrom returns the store PersistentPreRunE opened
func storeFrom(cmd *cobra.Command) (*store.RecordStore[int64], error) {
	rt, ok := cmd.Context().Value(contextKey{}).(*cmdState)
	if !ok {
		return nil, fmt.Errorf("store not found in context")
	}
	return rt.store, nil
}

func containerFrom(cmd *cobra.Command) (*di.Container, error) {
	rt, ok := cmd.Context().Value(contextKey{}).(*cmdState)
	if !ok {
		return nil, fmt.Errorf("container not found in context")
	}
	return rt.container, nil
}
