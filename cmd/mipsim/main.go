// Package main provides the entry point for MIPSim, a cycle-accurate
// 5-stage MIPS pipeline simulator for teaching hazards and forwarding.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mipsim/loader"
	"github.com/sarchlab/mipsim/timing/core"
	"github.com/sarchlab/mipsim/timing/pipeline"
	"github.com/sarchlab/mipsim/trace"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mipsim",
		Short: "Cycle-accurate 5-stage MIPS pipeline simulator",
	}

	rootCmd.AddCommand(runCommand())
	rootCmd.AddCommand(checkCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand() *cobra.Command {
	var (
		cycles     uint64
		configPath string
		tracePath  string
		chartPath  string
		window     int
		clearState bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "run <program.asm>",
		Short: "Run a program for a fixed cycle budget and write the trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(verbose)

			cfg := core.DefaultConfig()
			if configPath != "" {
				var err error
				cfg, err = core.LoadConfig(configPath)
				if err != nil {
					return err
				}
			}
			// Flags that were set explicitly win over the config file.
			if cmd.Flags().Changed("cycles") {
				cfg.Cycles = cycles
			}
			if cmd.Flags().Changed("trace") {
				cfg.TracePath = tracePath
			}
			if cmd.Flags().Changed("chart") {
				cfg.ChartPath = chartPath
			}
			if cmd.Flags().Changed("window") {
				cfg.RegisterWindow = window
			}
			if cmd.Flags().Changed("clear-state") {
				cfg.ClearStateOnLoad = clearState
			}

			prog, err := loader.Load(args[0])
			if err != nil {
				return err
			}
			logger.Info("program loaded",
				"path", args[0],
				"instructions", len(prog.Instructions),
				"labels", len(prog.Labels))

			var opts []pipeline.Option
			if cfg.ClearStateOnLoad {
				opts = append(opts, pipeline.WithClearArchStateOnLoad())
			}
			c := core.NewCore(opts...)
			if err := c.Load(prog.Instructions); err != nil {
				return err
			}

			traceFile, err := os.Create(cfg.TracePath)
			if err != nil {
				return fmt.Errorf("failed to create trace file: %w", err)
			}
			defer traceFile.Close()

			writer := trace.NewWriter(traceFile,
				trace.WithRegisterWindow(cfg.RegisterWindow))
			snapshots := make([]pipeline.Snapshot, 0, cfg.Cycles)

			err = c.RunWith(cfg.Cycles, func(s pipeline.Snapshot) {
				snapshots = append(snapshots, s)
				if werr := writer.WriteCycle(s); werr != nil {
					logger.Warn("trace write failed", "err", werr)
				}
				logger.Debug("cycle complete",
					"cycle", s.Cycle, "pc", s.PC,
					"stalled", s.Stalled, "retired", s.Retired)
			})
			if err != nil {
				return err
			}

			stats := c.Stats()
			if werr := writer.WriteSummary(c.Pipeline.Stats()); werr != nil {
				logger.Warn("trace write failed", "err", werr)
			}

			if cfg.ChartPath != "" {
				if err := trace.RenderChart(cfg.ChartPath, snapshots); err != nil {
					return err
				}
				logger.Info("chart written", "path", cfg.ChartPath)
			}

			fmt.Printf("Simulation complete. Trace written to %q.\n", cfg.TracePath)
			fmt.Printf("Cycles: %d  Instructions: %d  Stalls: %d  CPI: %.3f\n",
				stats.Cycles, stats.Instructions, stats.Stalls, stats.CPI)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&cycles, "cycles", 30, "cycle budget for the run")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a JSON run config")
	cmd.Flags().StringVar(&tracePath, "trace", "pipeline_log.txt", "per-cycle trace output path")
	cmd.Flags().StringVar(&chartPath, "chart", "", "HTML activity chart output path")
	cmd.Flags().IntVar(&window, "window", 8, "registers shown per cycle in the trace")
	cmd.Flags().BoolVar(&clearState, "clear-state", false, "clear registers and memory on load")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	return cmd
}

func checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <program.asm>",
		Short: "Assemble and validate a program without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loader.Load(args[0])
			if err != nil {
				return err
			}
			for i, inst := range prog.Instructions {
				if err := inst.Validate(); err != nil {
					return fmt.Errorf("instruction %d: %w", i, err)
				}
				fmt.Printf("%3d: %s\n", i, inst)
			}
			fmt.Printf("%d instructions, %d labels, all valid.\n",
				len(prog.Instructions), len(prog.Labels))
			return nil
		},
	}
	return cmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
