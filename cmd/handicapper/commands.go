package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/clever-handicapper/internal/backtest"
	"github.com/yourusername/clever-handicapper/internal/datasource"
	"github.com/yourusername/clever-handicapper/internal/service"
)

// overrideFlags are shared by every command that analyses a single race
type overrideFlags struct {
	odds    []string
	scratch []string
}

func (o *overrideFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&o.odds, "odds", nil, "Odds override PROGRAM=ODDS, e.g. 3=9-2 (repeatable)")
	cmd.Flags().StringSliceVar(&o.scratch, "scratch", nil, "Program numbers scratched after the snapshot was taken")
}

func (a *app) analyze(ctx context.Context, path string, of overrideFlags) (*service.Analysis, error) {
	snapshot, err := datasource.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	overrides, err := parseOverrides(snapshot, of.odds, of.scratch)
	if err != nil {
		return nil, err
	}
	return a.handicapper.Analyze(ctx, snapshot, overrides, a.profileName)
}

func newScoreCmd(a *app) *cobra.Command {
	var of overrideFlags
	cmd := &cobra.Command{
		Use:   "score RACE.json",
		Short: "Score every horse and estimate win probabilities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := a.analyze(cmd.Context(), args[0], of)
			if err != nil {
				return err
			}
			if a.format == "json" {
				return writeJSON(a.out, analysis.Result)
			}
			if err := renderField(a.out, analysis.Result.Field); err != nil {
				return err
			}
			return renderProbabilities(a.out, analysis.Result.Probabilities)
		},
	}
	of.register(cmd)
	return cmd
}

func newRecommendCmd(a *app) *cobra.Command {
	var of overrideFlags
	cmd := &cobra.Command{
		Use:   "recommend RACE.json",
		Short: "Rank straight and exotic wagers for a race",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := a.analyze(cmd.Context(), args[0], of)
			if err != nil {
				return err
			}
			if a.format == "json" {
				return writeJSON(a.out, analysis)
			}
			return renderAnalysis(a.out, analysis)
		},
	}
	of.register(cmd)
	return cmd
}

func newExoticCmd(a *app) *cobra.Command {
	var (
		of   overrideFlags
		pool string
		key  string
		with []string
		box  []string
	)
	cmd := &cobra.Command{
		Use:   "exotic RACE.json",
		Short: "Price an exotic key or box wager",
		Example: `  handicapper exotic race.json --pool exacta --key 1 --with 2,3,4
  handicapper exotic race.json --pool trifecta --box 1,2,3,5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (key == "") == (len(box) == 0) {
				return fmt.Errorf("exactly one of --key or --box is required")
			}
			betType, err := exoticBetType(pool, len(box) > 0)
			if err != nil {
				return err
			}
			analysis, err := a.analyze(cmd.Context(), args[0], of)
			if err != nil {
				return err
			}
			probs := analysis.Result.Probabilities

			if len(box) > 0 {
				bet, err := a.handicapper.BoxBet(betType, box, probs, a.profileName)
				if err != nil {
					return err
				}
				if a.format == "json" {
					return writeJSON(a.out, bet)
				}
				return renderBox(a.out, bet)
			}

			bet, err := a.handicapper.KeyBet(betType, key, with, probs, a.profileName)
			if err != nil {
				return err
			}
			if a.format == "json" {
				return writeJSON(a.out, bet)
			}
			return renderKey(a.out, bet)
		},
	}
	of.register(cmd)
	cmd.Flags().StringVar(&pool, "pool", "exacta", "Exotic pool: exacta, trifecta or superfecta")
	cmd.Flags().StringVar(&key, "key", "", "Key horse program number")
	cmd.Flags().StringSliceVar(&with, "with", nil, "Horses under the key")
	cmd.Flags().StringSliceVar(&box, "box", nil, "Horses to box")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		workers    int
		topBets    int
		iterations int
		seed       int64
		csvPath    string
		jsonPath   string
	)
	cmd := &cobra.Command{
		Use:   "validate [DIR|FILE|URL]",
		Short: "Replay historical races and report calibration and betting results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location := a.cfg.Backtest.DataDir
			if len(args) == 1 {
				location = args[0]
			}
			if location == "" {
				return fmt.Errorf("no race source given and backtest.data_dir is unset")
			}

			btCfg, err := backtest.FromConfig(a.cfg.Backtest)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				btCfg.Workers = workers
			}
			if cmd.Flags().Changed("top-bets") {
				btCfg.TopBets = topBets
			}
			if cmd.Flags().Changed("iterations") {
				btCfg.MonteCarloIterations = iterations
			}
			if cmd.Flags().Changed("seed") {
				btCfg.Seed = seed
			}
			if err := btCfg.Validate(); err != nil {
				return err
			}

			source, err := datasource.NewSource(location, a.log)
			if err != nil {
				return err
			}

			result, err := a.handicapper.Validate(cmd.Context(), source, btCfg, a.profileName)
			if err != nil {
				return err
			}

			if csvPath != "" {
				if err := backtest.GenerateCSVExport(result, csvPath); err != nil {
					return err
				}
			}
			if jsonPath != "" {
				if err := backtest.GenerateJSONExport(result, jsonPath); err != nil {
					return err
				}
			}

			if a.format == "json" {
				return writeJSON(a.out, result)
			}
			if err := backtest.GenerateConsoleReport(a.out, result); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Completed in %s\n", result.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent races (default from config)")
	cmd.Flags().IntVar(&topBets, "top-bets", 0, "Ranked straight bets settled per race")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Monte Carlo iterations, 0 disables")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Monte Carlo seed")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write per-race results as CSV")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Write the full result as JSON")
	return cmd
}

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List loaded tuning profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := a.handicapper.Profiles()
			if a.format == "json" {
				return writeJSON(a.out, names)
			}
			for _, name := range names {
				fmt.Fprintln(a.out, name)
			}
			return nil
		},
	}
}
