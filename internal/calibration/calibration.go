// Package calibration measures how well historical win probabilities matched outcomes.
package calibration

import (
	"errors"
	"fmt"
	"math"
)

// Buckets is the number of reliability diagram buckets (deciles)
const Buckets = 10

// logLossEpsilon clips predictions away from 0 and 1
const logLossEpsilon = 1e-15

var (
	ErrNoSamples      = errors.New("no calibration samples")
	ErrLengthMismatch = errors.New("predictions and outcomes differ in length")
	ErrOutOfRange     = errors.New("prediction outside [0, 1]")
)

// ReliabilityPoint is one bucket of the reliability diagram
type ReliabilityPoint struct {
	Bucket        string  `json:"bucket"`
	MeanPredicted float64 `json:"mean_predicted"`
	ActualRate    float64 `json:"actual_rate"`
	Count         int     `json:"count"`
}

// Report bundles all calibration metrics for a batch of predictions
type Report struct {
	Samples     int                `json:"samples"`
	BaseRate    float64            `json:"base_rate"`
	MeanPredict float64            `json:"mean_predicted"`
	Brier       float64            `json:"brier_score"`
	LogLoss     float64            `json:"log_loss"`
	ECE         float64            `json:"expected_calibration_error"`
	Reliability []ReliabilityPoint `json:"reliability"`
}

func check(predicted []float64, actual []bool) error {
	if len(predicted) != len(actual) {
		return fmt.Errorf("%w: %d predictions, %d outcomes", ErrLengthMismatch, len(predicted), len(actual))
	}
	if len(predicted) == 0 {
		return ErrNoSamples
	}
	for i, p := range predicted {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("%w: sample %d is %v", ErrOutOfRange, i, p)
		}
	}
	return nil
}

func outcome(won bool) float64 {
	if won {
		return 1
	}
	return 0
}

// BrierScore returns the mean squared error between predictions and outcomes
func BrierScore(predicted []float64, actual []bool) (float64, error) {
	if err := check(predicted, actual); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, p := range predicted {
		d := p - outcome(actual[i])
		sum += d * d
	}
	return sum / float64(len(predicted)), nil
}

// LogLoss returns the mean negative log likelihood, with predictions clipped to [1e-15, 1-1e-15]
func LogLoss(predicted []float64, actual []bool) (float64, error) {
	if err := check(predicted, actual); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, p := range predicted {
		p = math.Min(math.Max(p, logLossEpsilon), 1-logLossEpsilon)
		if actual[i] {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(predicted)), nil
}

// bucketOf places p in a decile; p == 1 belongs to the last bucket
func bucketOf(p float64) int {
	b := int(p * Buckets)
	if b >= Buckets {
		b = Buckets - 1
	}
	return b
}

func bucketLabel(b int) string {
	return fmt.Sprintf("%d-%d%%", b*100/Buckets, (b+1)*100/Buckets)
}

// Reliability returns the reliability diagram points, omitting empty buckets
func Reliability(predicted []float64, actual []bool) ([]ReliabilityPoint, error) {
	if err := check(predicted, actual); err != nil {
		return nil, err
	}

	var sums, wins [Buckets]float64
	var counts [Buckets]int
	for i, p := range predicted {
		b := bucketOf(p)
		sums[b] += p
		wins[b] += outcome(actual[i])
		counts[b]++
	}

	points := make([]ReliabilityPoint, 0, Buckets)
	for b := 0; b < Buckets; b++ {
		if counts[b] == 0 {
			continue
		}
		n := float64(counts[b])
		points = append(points, ReliabilityPoint{
			Bucket:        bucketLabel(b),
			MeanPredicted: sums[b] / n,
			ActualRate:    wins[b] / n,
			Count:         counts[b],
		})
	}
	return points, nil
}

// ExpectedCalibrationError is the sample-weighted mean gap between predicted and actual per bucket
func ExpectedCalibrationError(predicted []float64, actual []bool) (float64, error) {
	points, err := Reliability(predicted, actual)
	if err != nil {
		return 0, err
	}
	total := float64(len(predicted))
	ece := 0.0
	for _, pt := range points {
		ece += float64(pt.Count) / total * math.Abs(pt.MeanPredicted-pt.ActualRate)
	}
	return ece, nil
}

// NewReport computes every metric over one batch
func NewReport(predicted []float64, actual []bool) (*Report, error) {
	if err := check(predicted, actual); err != nil {
		return nil, err
	}

	r := &Report{Samples: len(predicted)}
	var err error
	if r.Brier, err = BrierScore(predicted, actual); err != nil {
		return nil, err
	}
	if r.LogLoss, err = LogLoss(predicted, actual); err != nil {
		return nil, err
	}
	if r.Reliability, err = Reliability(predicted, actual); err != nil {
		return nil, err
	}
	if r.ECE, err = ExpectedCalibrationError(predicted, actual); err != nil {
		return nil, err
	}

	wins, sum := 0.0, 0.0
	for i, p := range predicted {
		wins += outcome(actual[i])
		sum += p
	}
	r.BaseRate = wins / float64(r.Samples)
	r.MeanPredict = sum / float64(r.Samples)
	return r, nil
}
