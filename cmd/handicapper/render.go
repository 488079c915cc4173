package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/yourusername/clever-handicapper/internal/models"
	"github.com/yourusername/clever-handicapper/internal/service"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var categoryColumns = []models.Category{
	models.CategoryForm,
	models.CategorySpeedClass,
	models.CategoryPost,
	models.CategoryEquipment,
	models.CategoryConnections,
	models.CategoryPace,
}

func renderField(w io.Writer, field *models.ScoredField) error {
	h := field.Header
	fmt.Fprintf(w, "%s  %s R%d  %.1ff %s  %s  pace: %s\n\n",
		h.RaceID, h.Track, h.RaceNumber, h.DistanceFurlongs, h.Surface, h.Classification, field.PaceScenario)

	table := tablewriter.NewWriter(w)
	table.Header("Rank", "#", "Horse", "Score", "Form", "Spd/Cls", "Post", "Equip", "Conn", "Pace", "Trip", "Vel", "Conf", "DQ")
	for _, horse := range field.Horses {
		rank := strconv.Itoa(horse.Rank)
		if horse.IsScratched {
			rank = "SCR"
		}
		row := []any{rank, horse.ProgramNumber, horse.Name, fmt.Sprintf("%.2f", horse.BaseScore)}
		for _, c := range categoryColumns {
			cs, _ := horse.CategoryScore(c)
			row = append(row, fmt.Sprintf("%.1f", cs.Score))
		}
		row = append(row,
			signed(horse.Adjustments.TripTrouble.Points),
			signed(horse.Adjustments.Velocity.Points),
			string(horse.Confidence),
			strconv.Itoa(horse.DataQuality),
		)
		table.Append(row...)
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, warn := range field.Warnings {
		fmt.Fprintf(w, "excluded #%s (entry %d): %s\n", warn.ProgramNumber, warn.SourceIndex+1, warn.Message)
	}
	return nil
}

func renderProbabilities(w io.Writer, probs *models.Probabilities) error {
	fmt.Fprintf(w, "\nWin probabilities (%s, overround %.3f)\n", probs.Transform, probs.Overround)

	table := tablewriter.NewWriter(w)
	table.Header("#", "Horse", "Odds", "Model", "Market", "Edge", "Fair", "Verdict")
	for _, est := range probs.Estimates {
		if est.Scratched {
			continue
		}
		market, fair := "-", "-"
		if est.HasOdds {
			market = pct(est.ImpliedProbability)
		}
		if est.FairOdds > 0 {
			fair = fmt.Sprintf("%.2f", est.FairOdds)
		}
		table.Append(est.ProgramNumber, est.Name, est.Odds, pct(est.ModelProbability), market,
			signed(est.Edge*100), fair, string(est.Verdict))
	}
	return table.Render()
}

func renderAnalysis(w io.Writer, analysis *service.Analysis) error {
	rec := analysis.Result.Recommendation
	cached := ""
	if analysis.Cached {
		cached = " (cached)"
	}
	fmt.Fprintf(w, "%s  profile %s  run %s%s\n\n", rec.RaceID, analysis.Profile, analysis.RunID, cached)

	table := tablewriter.NewWriter(w)
	table.Header("Rank", "Bet", "Horses", "Combos", "Cost", "Prob", "EV", "Stake", "Risk", "Reasoning")
	for _, bet := range rec.Bets {
		horses := strings.Join(bet.Horses, ",")
		if bet.KeyHorse != "" {
			horses = bet.KeyHorse + " / " + horses
		}
		ev := "n/a"
		if bet.HasEV() {
			ev = fmt.Sprintf("%+.3f", *bet.ExpectedValue)
		}
		stake := "-"
		if bet.SuggestedStake != nil {
			stake = bet.SuggestedStake.StringFixed(2)
		}
		table.Append(strconv.Itoa(bet.Rank), string(bet.BetType), horses, strconv.Itoa(bet.Combinations),
			bet.Cost.StringFixed(2), pct(bet.Probability), ev, stake, string(bet.RiskTier), bet.Reasoning)
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Total cost %s of budget %s\n", rec.TotalCost.StringFixed(2), rec.Budget.StringFixed(2))
	for _, o := range rec.Omitted {
		fmt.Fprintf(w, "omitted %s: %s\n", o.BetType, o.Reason)
	}

	if op := analysis.Opinion; op != nil {
		fmt.Fprintf(w, "\nAdvisory (%s): %s\n", op.Source, op.Summary)
		for _, pick := range op.Picks {
			fmt.Fprintf(w, "  %d. #%s %s\n", pick.Position, pick.ProgramNumber, pick.Comment)
		}
	}
	return nil
}

func renderKey(w io.Writer, bet models.ExoticKeyBet) error {
	if !bet.Available() {
		fmt.Fprintf(w, "%s %s unavailable: %s\n", bet.BetType, bet.KeyHorse, bet.Reason)
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Bet", "Key", "With", "Combos", "Unit", "Cost", "Prob", "Speculative")
	table.Append(string(bet.BetType), bet.KeyHorse, strings.Join(bet.WithHorses, ","), strconv.Itoa(bet.Combinations),
		bet.CostPerUnit.StringFixed(2), bet.TotalCost.StringFixed(2), pct(bet.EstimatedProbability),
		strconv.FormatBool(bet.IsSpeculative))
	return table.Render()
}

func renderBox(w io.Writer, bet models.ExoticBoxBet) error {
	if !bet.Available() {
		fmt.Fprintf(w, "%s unavailable: %s\n", bet.BetType, bet.Reason)
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Bet", "Horses", "Combos", "Unit", "Cost", "Prob", "Speculative")
	table.Append(string(bet.BetType), strings.Join(bet.Horses, ","), strconv.Itoa(bet.Combinations),
		bet.CostPerUnit.StringFixed(2), bet.TotalCost.StringFixed(2), pct(bet.EstimatedProbability),
		strconv.FormatBool(bet.IsSpeculative))
	return table.Render()
}

func pct(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

func signed(v float64) string {
	return fmt.Sprintf("%+.1f", v)
}
