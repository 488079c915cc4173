// Package odds parses tote and morning-line odds strings and converts them to probabilities.
package odds

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/clever-handicapper/internal/models"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Odds is a parsed odds string with its decimal price (stake included)
type Odds struct {
	Raw     string          `json:"raw"`
	Decimal decimal.Decimal `json:"decimal"`
}

// Parse converts an odds string to decimal odds
//
// Accepted forms:
//   - fractional "5-2" or "5/2" (3.50)
//   - "EVEN", "EVS" or "EV" (2.00)
//   - American "+250" or "-150" (3.50, 1.67)
//   - decimal "3.50"
func Parse(raw string) (Odds, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return Odds{}, fmt.Errorf("%w: empty odds", models.ErrInvalidOdds)
	}

	var dec decimal.Decimal
	var err error
	switch {
	case s == "EVEN" || s == "EVS" || s == "EV":
		dec = decimal.NewFromInt(2)
	case strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-"):
		dec, err = parseAmerican(s)
	case strings.ContainsAny(s, "-/"):
		dec, err = parseFractional(s)
	default:
		dec, err = decimal.NewFromString(s)
	}
	if err != nil {
		return Odds{}, fmt.Errorf("%w: %q: %v", models.ErrInvalidOdds, raw, err)
	}
	if dec.LessThanOrEqual(one) {
		return Odds{}, fmt.Errorf("%w: %q must pay more than the stake", models.ErrInvalidOdds, raw)
	}

	return Odds{Raw: raw, Decimal: dec}, nil
}

func parseFractional(s string) (decimal.Decimal, error) {
	sep := "-"
	if strings.Contains(s, "/") {
		sep = "/"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return decimal.Zero, fmt.Errorf("fractional odds need one separator")
	}
	num, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
	if err != nil {
		return decimal.Zero, err
	}
	den, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return decimal.Zero, err
	}
	if !num.IsPositive() || !den.IsPositive() {
		return decimal.Zero, fmt.Errorf("fractional odds must be positive")
	}
	return num.Div(den).Add(one), nil
}

func parseAmerican(s string) (decimal.Decimal, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return decimal.Zero, err
	}
	if n > -100 && n < 100 {
		return decimal.Zero, fmt.Errorf("american odds must be at least 100 in magnitude")
	}
	if n > 0 {
		return decimal.NewFromInt(int64(n)).Div(hundred).Add(one), nil
	}
	return hundred.Div(decimal.NewFromInt(int64(-n))).Add(one), nil
}

// Float returns the decimal price as a float64
func (o Odds) Float() float64 {
	f, _ := o.Decimal.Float64()
	return f
}

// Profit returns the profit per unit staked on a win
func (o Odds) Profit() float64 {
	f, _ := o.Decimal.Sub(one).Float64()
	return f
}

// ImpliedProbability returns the raw (vig-inclusive) win probability of the price
func (o Odds) ImpliedProbability() float64 {
	f, _ := one.Div(o.Decimal).Float64()
	return f
}

// Fractional renders the price in "N-D" form, reduced to small integers where possible
func (o Odds) Fractional() string {
	profit := o.Decimal.Sub(one)
	for _, den := range []int64{1, 2, 5, 10} {
		num := profit.Mul(decimal.NewFromInt(den))
		if num.Equal(num.Truncate(0)) {
			return fmt.Sprintf("%s-%d", num.Truncate(0).String(), den)
		}
	}
	return profit.StringFixed(2) + "-1"
}

// FromProbability returns the fair decimal price for a probability, 0 when p <= 0
func FromProbability(p float64) float64 {
	if p <= 0 {
		return 0
	}
	return 1 / p
}
