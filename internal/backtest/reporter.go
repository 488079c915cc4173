package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// GenerateConsoleReport writes summary, calibration and betting tables
func GenerateConsoleReport(w io.Writer, result *Result) error {
	fmt.Fprintf(w, "Validation Report (%s)\n", result.Profile)
	fmt.Fprintf(w, "Races: %d  Evaluated: %d  Unresolved: %d  Failed: %d  Top pick won: %.1f%%\n\n",
		result.Races, result.Evaluated, result.Unresolved, result.Failed, result.TopPickRate*100)

	if c := result.Calibration; c != nil {
		summary := tablewriter.NewWriter(w)
		summary.Header("Samples", "Base rate", "Mean pred", "Brier", "Log loss", "ECE")
		summary.Append(
			strconv.Itoa(c.Samples),
			fmt.Sprintf("%.4f", c.BaseRate),
			fmt.Sprintf("%.4f", c.MeanPredict),
			fmt.Sprintf("%.4f", c.Brier),
			fmt.Sprintf("%.4f", c.LogLoss),
			fmt.Sprintf("%.4f", c.ECE),
		)
		if err := summary.Render(); err != nil {
			return err
		}

		reliability := tablewriter.NewWriter(w)
		reliability.Header("Bucket", "Count", "Predicted", "Actual")
		for _, pt := range c.Reliability {
			reliability.Append(
				pt.Bucket,
				strconv.Itoa(pt.Count),
				fmt.Sprintf("%.3f", pt.MeanPredicted),
				fmt.Sprintf("%.3f", pt.ActualRate),
			)
		}
		if err := reliability.Render(); err != nil {
			return err
		}
	}

	m := result.Betting
	betting := tablewriter.NewWriter(w)
	betting.Header("Bets", "Win rate", "Staked", "Net", "ROI", "Profit factor", "Expectancy", "Max DD")
	betting.Append(
		strconv.Itoa(m.TotalBets),
		fmt.Sprintf("%.1f%%", m.WinRate*100),
		fmt.Sprintf("%.2f", m.TotalStaked),
		fmt.Sprintf("%.2f", m.NetProfit),
		fmt.Sprintf("%.2f%%", m.ROI*100),
		fmt.Sprintf("%.2f", m.ProfitFactor),
		fmt.Sprintf("%.3f", m.Expectancy),
		fmt.Sprintf("%.2f%%", m.MaxDrawdown*100),
	)
	if err := betting.Render(); err != nil {
		return err
	}

	if mc := result.MonteCarlo; mc != nil {
		fmt.Fprintf(w, "Model-implied return %.2f%% (sd %.2f%%), P(profit) %.1f%%, realised at percentile %.1f\n",
			mc.MeanReturn*100, mc.StdReturn*100, mc.ProbabilityOfProfit*100, mc.ActualPercentile*100)
	}

	for _, e := range result.Errors {
		fmt.Fprintf(w, "skipped %s: %s\n", e.RaceID, e.Error)
	}
	return nil
}

// GenerateCSVExport writes one row per evaluated race
func GenerateCSVExport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteCSV(f, result); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes the per-race rows to w
func WriteCSV(w io.Writer, result *Result) error {
	cw := csv.NewWriter(w)
	header := []string{"race_id", "winner", "top_pick", "top_pick_won", "winner_rank", "winner_probability", "active_horses", "bets_settled", "race_profit_loss"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range result.RaceResults {
		row := []string{
			r.RaceID,
			r.Winner,
			r.TopPick,
			strconv.FormatBool(r.TopPickWon),
			strconv.Itoa(r.WinnerRank),
			strconv.FormatFloat(r.WinnerProb, 'f', 6, 64),
			strconv.Itoa(r.ActiveHorses),
			strconv.Itoa(r.BetsSettled),
			strconv.FormatFloat(r.RaceProfitLoss, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// GenerateJSONExport writes the full result as indented JSON
func GenerateJSONExport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}
