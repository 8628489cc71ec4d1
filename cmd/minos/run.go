package main

import (
	"log/slog"
	"os"

	"github.com/minos-os/minos"
	"github.com/minos-os/minos/loader/flat"
	"github.com/minos-os/minos/machine"
	"github.com/minos-os/minos/tracing"
	"github.com/spf13/cobra"
)

var (
	runConfig string
	runImages string
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVar(&runConfig, "config", "", "Machine configuration yaml (URL or path)")
	cmd.Flags().StringVar(&runImages, "images", "", "Base URL image names resolve against")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <image> [arg]...",
		Short: "Boot the machine and run an image as the root process",
		Long: `The run command boots a simulated machine, loads the named image into
the root process (pid 0) and waits for the machine to halt.

Example:
  minos run shell.bin
  minos run --config machine.yaml --images file:///opt/images init.bin one two`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMachine(cmd, args)
		},
	}
}

func runMachine(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if traceFile != "" {
		if err := tracing.Init("minos", rootCmd.Version, traceFile); err != nil {
			return err
		}
	}

	config := machine.DefaultConfig()
	if runConfig != "" {
		loaded, err := machine.LoadConfig(ctx, runConfig)
		if err != nil {
			return err
		}
		config = loaded
	}

	service, err := minos.New(
		minos.WithConfig(config),
		minos.WithLogger(logger),
		minos.WithLoader(flat.New(runImages, config.PageSize)),
	)
	if err != nil {
		return err
	}

	if _, err := service.Boot(ctx, args[0], args[1:]...); err != nil {
		return err
	}
	return service.Wait(ctx)
}
