// Package service composes the pipeline with caching, metrics, audit logging and advisory opinions.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-handicapper/internal/advisory"
	"github.com/yourusername/clever-handicapper/internal/backtest"
	"github.com/yourusername/clever-handicapper/internal/cache"
	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/datasource"
	"github.com/yourusername/clever-handicapper/internal/logger"
	"github.com/yourusername/clever-handicapper/internal/metrics"
	"github.com/yourusername/clever-handicapper/internal/models"
	"github.com/yourusername/clever-handicapper/internal/pipeline"
)

// ErrUnknownProfile is returned when a profile name has not been loaded
var ErrUnknownProfile = errors.New("unknown profile")

// runNamespace scopes deterministic run IDs
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("clever-handicapper/run"))

// Options configures optional collaborators; zero values disable them
type Options struct {
	Cache         *cache.ResultCache
	Advisor       advisory.Advisor
	Logger        *logrus.Logger
	RecordMetrics bool
	// Clock stamps audit records; defaults to time.Now
	Clock func() time.Time
}

// Analysis is one handicapping run with its provenance
type Analysis struct {
	RunID   string            `json:"run_id"`
	Profile string            `json:"profile"`
	Cached  bool              `json:"cached"`
	Result  *pipeline.Result  `json:"result"`
	Opinion *advisory.Opinion `json:"advisory,omitempty"`
}

// Handicapper serves pipeline runs for one or more named profiles
type Handicapper struct {
	engines        map[string]*pipeline.Engine
	defaultProfile string
	cache          *cache.ResultCache
	advisor        advisory.Advisor
	log            *logrus.Logger
	pipelineLog    *logger.PipelineLogger
	audit          *logger.AuditLogger
	recordMetrics  bool
	clock          func() time.Time
}

// NewHandicapper builds an engine per profile; the first profile is the default
func NewHandicapper(profiles []config.Profile, opts Options) (*Handicapper, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("at least one profile is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	advisor := opts.Advisor
	if advisor == nil {
		advisor = advisory.NoopAdvisor{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	h := &Handicapper{
		engines:        make(map[string]*pipeline.Engine, len(profiles)),
		defaultProfile: profiles[0].Name,
		cache:          opts.Cache,
		advisor:        advisor,
		log:            log,
		pipelineLog:    logger.NewPipelineLogger(log),
		audit:          logger.NewAuditLogger(log),
		recordMetrics:  opts.RecordMetrics,
		clock:          clock,
	}
	for _, p := range profiles {
		if _, dup := h.engines[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		engine, err := pipeline.NewEngine(p, log)
		if err != nil {
			return nil, err
		}
		h.engines[p.Name] = engine
		h.audit.LogProfileLoaded(p.Name, p.Scoring.MaxBaseScore, p.Overlay.Transform)
	}
	return h, nil
}

// Profiles returns the loaded profile names, sorted
func (h *Handicapper) Profiles() []string {
	names := make([]string, 0, len(h.engines))
	for name := range h.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Engine returns the pipeline for a profile; "" selects the default
func (h *Handicapper) Engine(profile string) (*pipeline.Engine, error) {
	if profile == "" {
		profile = h.defaultProfile
	}
	engine, ok := h.engines[profile]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, profile)
	}
	return engine, nil
}

// resolvedOverrides is the override state actually applied, used in the cache key
type resolvedOverrides struct {
	Odds      map[int]string `json:"odds,omitempty"`
	Scratched map[int]bool   `json:"scratched,omitempty"`
}

func (h *Handicapper) resolve(snapshot *models.RaceSnapshot, overrides pipeline.Overrides) resolvedOverrides {
	var r resolvedOverrides
	if overrides == nil || snapshot == nil {
		return r
	}
	for i, horse := range snapshot.Horses {
		if odds := overrides.Odds(i, horse.MorningLine); odds != horse.MorningLine {
			if r.Odds == nil {
				r.Odds = make(map[int]string)
			}
			r.Odds[i] = odds
			h.audit.LogOverrideApplied(snapshot.Header.RaceID, i, horse.ProgramNumber, "odds", horse.MorningLine, odds)
		}
		if !horse.Scratched && overrides.IsScratched(i) {
			if r.Scratched == nil {
				r.Scratched = make(map[int]bool)
			}
			r.Scratched[i] = true
			h.audit.LogOverrideApplied(snapshot.Header.RaceID, i, horse.ProgramNumber, "scratch", false, true)
		}
	}
	return r
}

// Analyze scores, estimates and recommends for one race, consulting the cache first
func (h *Handicapper) Analyze(ctx context.Context, snapshot *models.RaceSnapshot, overrides pipeline.Overrides, profile string) (*Analysis, error) {
	engine, err := h.Engine(profile)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", models.ErrEmptyField)
	}
	p := engine.Profile()
	resolved := h.resolve(snapshot, overrides)

	key, err := cache.NewKey(p.Name, snapshot, resolved, p)
	if err != nil {
		return nil, err
	}
	analysis := &Analysis{
		RunID:   uuid.NewSHA1(runNamespace, []byte(key.String())).String(),
		Profile: p.Name,
	}

	if h.cache != nil {
		result, hit := h.cache.Get(key)
		h.pipelineLog.LogCacheLookup(snapshot.Header.RaceID, key.Hash, hit)
		if h.recordMetrics {
			metrics.RecordCacheLookup(hit)
		}
		if hit {
			analysis.Cached = true
			analysis.Result = result
		}
	}

	if analysis.Result == nil {
		result, err := h.run(engine, snapshot, overrides)
		if err != nil {
			return nil, err
		}
		analysis.Result = result
		if h.cache != nil {
			h.cache.Set(key, result)
		}
	}

	rec := analysis.Result.Recommendation
	h.audit.LogRecommendationRun(analysis.RunID, rec.RaceID, p.Name, len(rec.Bets), rec.TotalCost.StringFixed(2),
		describeTopBet(rec), h.clock())

	analysis.Opinion = h.advise(ctx, analysis.Result)
	return analysis, nil
}

func (h *Handicapper) run(engine *pipeline.Engine, snapshot *models.RaceSnapshot, overrides pipeline.Overrides) (*pipeline.Result, error) {
	raceID := snapshot.Header.RaceID
	profile := engine.Profile().Name

	start := time.Now()
	field, err := engine.Score(snapshot, overrides)
	if err != nil {
		h.stageFailed("score")
		return nil, err
	}
	h.stageDone(raceID, "score", start)
	if h.recordMetrics {
		metrics.RecordRaceScored(profile, len(field.Warnings))
	}

	start = time.Now()
	probs, err := engine.Estimate(field, overrides)
	if err != nil {
		h.stageFailed("estimate")
		return nil, err
	}
	h.stageDone(raceID, "estimate", start)
	if h.recordMetrics {
		metrics.RecordProbabilities(len(probs.Overlays()), probs.Overround)
	}

	start = time.Now()
	rec, err := engine.Recommend(field, probs)
	if err != nil {
		h.stageFailed("recommend")
		return nil, err
	}
	h.stageDone(raceID, "recommend", start)
	if h.recordMetrics {
		betTypes := make([]string, len(rec.Bets))
		for i, b := range rec.Bets {
			betTypes[i] = string(b.BetType)
		}
		metrics.RecordRecommendation(betTypes, rec.TotalCost.InexactFloat64())
	}

	return &pipeline.Result{Field: field, Probabilities: probs, Recommendation: rec}, nil
}

func (h *Handicapper) stageDone(raceID, stage string, start time.Time) {
	elapsed := time.Since(start)
	h.pipelineLog.LogStageTiming(raceID, stage, float64(elapsed.Microseconds())/1000)
	if h.recordMetrics {
		metrics.RecordStageDuration(stage, elapsed.Seconds())
	}
}

func (h *Handicapper) stageFailed(stage string) {
	if h.recordMetrics {
		metrics.RecordPipelineError(stage)
	}
}

// advise asks the advisor for an opinion; failures never fail the run
func (h *Handicapper) advise(ctx context.Context, result *pipeline.Result) *advisory.Opinion {
	if _, noop := h.advisor.(advisory.NoopAdvisor); noop {
		return nil
	}
	opinion, err := h.advisor.Advise(ctx, advisory.NewRequest(result.Field, result.Probabilities))
	if h.recordMetrics {
		switch {
		case err != nil:
			metrics.RecordAdvisoryRequest("failure")
		case opinion == nil:
			metrics.RecordAdvisoryRequest("skipped")
		default:
			metrics.RecordAdvisoryRequest("success")
		}
	}
	if err != nil {
		h.log.WithField("race_id", result.Field.Header.RaceID).WithError(err).Warn("Continuing without advisory opinion")
		return nil
	}
	return opinion
}

// Reestimate reruns the probability and recommendation stages on an existing field
func (h *Handicapper) Reestimate(field *models.ScoredField, overrides pipeline.Overrides, profile string) (*pipeline.Result, error) {
	engine, err := h.Engine(profile)
	if err != nil {
		return nil, err
	}
	probs, err := engine.Estimate(field, overrides)
	if err != nil {
		return nil, err
	}
	rec, err := engine.Recommend(field, probs)
	if err != nil {
		return nil, err
	}
	return &pipeline.Result{Field: field, Probabilities: probs, Recommendation: rec}, nil
}

// KeyBet prices a key wager under a profile
func (h *Handicapper) KeyBet(betType models.BetType, key string, with []string, probs *models.Probabilities, profile string) (models.ExoticKeyBet, error) {
	engine, err := h.Engine(profile)
	if err != nil {
		return models.ExoticKeyBet{}, err
	}
	return engine.KeyBet(betType, key, with, probs)
}

// BoxBet prices a box wager under a profile
func (h *Handicapper) BoxBet(betType models.BetType, horses []string, probs *models.Probabilities, profile string) (models.ExoticBoxBet, error) {
	engine, err := h.Engine(profile)
	if err != nil {
		return models.ExoticBoxBet{}, err
	}
	return engine.BoxBet(betType, horses, probs)
}

// Validate runs batch validation for a profile over a source
func (h *Handicapper) Validate(ctx context.Context, source datasource.Source, cfg backtest.Config, profile string) (*backtest.Result, error) {
	engine, err := h.Engine(profile)
	if err != nil {
		return nil, err
	}
	bt, err := backtest.NewEngine(cfg, engine, source, h.log)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := bt.Run(ctx)
	if h.recordMetrics {
		name := engine.Profile().Name
		if err != nil {
			metrics.RecordValidationRun(name, "failure", 0, 0, time.Since(start).Seconds())
		} else {
			metrics.RecordValidationRun(name, "success", result.Calibration.Brier, result.Betting.ROI, time.Since(start).Seconds())
		}
	}
	return result, err
}

func describeTopBet(rec *models.Recommendation) string {
	if rec == nil || len(rec.Bets) == 0 {
		return ""
	}
	top := rec.Bets[0]
	if top.KeyHorse != "" {
		return fmt.Sprintf("%s %s with %v", top.BetType, top.KeyHorse, top.Horses)
	}
	return fmt.Sprintf("%s %v", top.BetType, top.Horses)
}
