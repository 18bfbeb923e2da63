package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/besterhub/kgc-league/internal/models"
	"github.com/besterhub/kgc-league/internal/pairing"
	"github.com/besterhub/kgc-league/pkg/config"
	"github.com/besterhub/kgc-league/pkg/database"
)

// PairingService runs the pairing engine against the club roster and
// persists the outcome.
type PairingService struct {
	db       *database.DB
	cache    *CacheService
	ratings  *RatingClient
	notifier *NotificationService
	cfg      *config.Config
	logger   *logrus.Logger
}

func NewPairingService(
	db *database.DB,
	cache *CacheService,
	ratings *RatingClient,
	notifier *NotificationService,
	cfg *config.Config,
	logger *logrus.Logger,
) *PairingService {
	return &PairingService{
		db:       db,
		cache:    cache,
		ratings:  ratings,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// RunOverrides are per-run tweaks applied on top of stored settings.
type RunOverrides struct {
	Sections         []models.SectionConfig  `json:"sections,omitempty"`
	Rules            *models.ConstraintRules `json:"rules,omitempty"`
	MinSpread        *float64                `json:"min_spread,omitempty"`
	PoolSize         *int                    `json:"pool_size,omitempty"`
	Objective        *string                 `json:"objective,omitempty"`
	BalanceMargin    *float64                `json:"balance_margin,omitempty"`
	ExactSearchLimit *int                    `json:"exact_search_limit,omitempty"`
	MissingRequired  *string                 `json:"missing_required,omitempty"`
}

// RatingSyncSummary reports the outcome of a rating refresh.
type RatingSyncSummary struct {
	Fetched int      `json:"fetched"`
	Updated int      `json:"updated"`
	Absent  []string `json:"absent,omitempty"`
}

// GeneratePairings builds a request from stored settings and the active
// roster, runs the engine, and records the run. Overrides adjust a single
// run without touching stored settings; a dry run skips persistence,
// caching, and notification entirely. Failed runs are persisted with their
// error message so the history shows what happened.
func (s *PairingService) GeneratePairings(ctx context.Context, trigger models.RunTrigger, overrides *RunOverrides, dryRun bool) (*models.PairingRun, *pairing.Result, error) {
	stored, err := models.GetSettings(s.db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load league settings: %w", err)
	}
	settings := applyOverrides(*stored, overrides)

	players, err := s.activeRoster()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load roster: %w", err)
	}

	engineCfg := buildEngineConfig(&settings)
	engine, err := pairing.NewEngine(engineCfg)
	if err != nil {
		return nil, nil, err
	}

	req := pairing.Request{
		Candidates:  buildCandidates(players),
		Constraints: buildConstraints(&settings),
		Slots:       buildSlots(&settings),
		PoolSize:    settings.PoolSize,
	}

	result, err := engine.Run(req)
	if err != nil {
		if dryRun {
			return nil, nil, err
		}
		run := s.recordFailure(trigger, engineCfg, err)
		return run, nil, err
	}

	if dryRun {
		return nil, result, nil
	}

	run, err := s.recordSuccess(trigger, engineCfg, result)
	if err != nil {
		return nil, result, err
	}

	s.cacheRun(ctx, run)

	if s.notifier != nil {
		s.notifier.AnnouncePairings(settings.LeagueName, result)
	}

	return run, result, nil
}

// RefreshRatings pulls the current feed from the rating engine and merges
// it into the roster. Roster members absent from the feed are reported,
// not failed.
func (s *PairingService) RefreshRatings(ctx context.Context) (*RatingSyncSummary, error) {
	if s.ratings == nil {
		return nil, fmt.Errorf("rating feed is not configured")
	}

	players, err := s.activeRoster()
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	feed, err := s.ratings.FetchRatings(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summary := &RatingSyncSummary{Fetched: len(feed)}

	for i := range players {
		data, ok := feed[players[i].MemberNumber]
		if !ok {
			summary.Absent = append(summary.Absent, players[i].MemberNumber)
			continue
		}

		updates := map[string]interface{}{
			"handicap_index":   data.HandicapIndex,
			"rating_synced_at": now,
		}
		if data.Scored() {
			updates["rating"] = *data.FormScore
		} else {
			updates["rating"] = nil
		}
		if data.ConsistencyClass != "" {
			updates["consistency_class"] = data.ConsistencyClass
		}
		if data.Role != "" {
			updates["role"] = data.Role
		}

		if err := s.db.DB.Model(&players[i]).Updates(updates).Error; err != nil {
			s.logger.WithFields(logrus.Fields{
				"component":     "pairing_service",
				"member_number": players[i].MemberNumber,
			}).Errorf("Failed to store rating: %v", err)
			continue
		}
		summary.Updated++
	}

	if len(summary.Absent) > 0 {
		s.logger.WithFields(logrus.Fields{
			"component": "pairing_service",
			"absent":    summary.Absent,
		}).Warn("Some roster members have no entry in the rating feed")
	}

	s.logger.WithFields(logrus.Fields{
		"component": "pairing_service",
		"fetched":   summary.Fetched,
		"updated":   summary.Updated,
	}).Info("Rating refresh complete")

	return summary, nil
}

// GetRun loads a stored run, trying the cache before the database.
func (s *PairingService) GetRun(ctx context.Context, id string) (*models.PairingRun, error) {
	var cached models.PairingRun
	if err := s.cache.Get(ctx, RunCacheKey(id), &cached); err == nil {
		return &cached, nil
	}

	run, err := models.GetRun(s.db, id)
	if err != nil {
		return nil, err
	}

	s.cacheRun(ctx, run)
	return run, nil
}

// LatestRun returns the most recent completed run, if any.
func (s *PairingService) LatestRun(ctx context.Context) (*models.PairingRun, error) {
	var cached models.PairingRun
	if err := s.cache.Get(ctx, LatestRunCacheKey(), &cached); err == nil {
		return &cached, nil
	}

	var run models.PairingRun
	err := s.db.DB.Where("status = ?", models.RunCompleted).
		Order("generated_at DESC").
		First(&run).Error
	if err != nil {
		return nil, err
	}

	s.cacheRun(ctx, &run)
	return &run, nil
}

// ListRuns returns recent run summaries, newest first.
func (s *PairingService) ListRuns(limit int) ([]models.PairingRun, error) {
	return models.RecentRuns(s.db, limit)
}

// activeRoster loads active players in a stable order so repeated runs see
// identical input.
func (s *PairingService) activeRoster() ([]models.Player, error) {
	var players []models.Player
	err := s.db.DB.Where("is_active = ?", true).
		Order("member_number").
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

func (s *PairingService) recordSuccess(trigger models.RunTrigger, engineCfg pairing.Config, result *pairing.Result) (*models.PairingRun, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run payload: %w", err)
	}

	run := &models.PairingRun{
		ID:             result.RunID,
		Trigger:        trigger,
		Status:         models.RunCompleted,
		Objective:      string(engineCfg.Objective),
		Mode:           string(result.Diagnostics.Mode),
		ObjectiveValue: result.Diagnostics.ObjectiveValue,
		PoolSize:       result.Diagnostics.PoolSize,
		PairCount:      len(result.Pairs),
		ReserveCount:   len(result.Reserves),
		Payload:        datatypes.JSON(payload),
		GeneratedAt:    result.GeneratedAt,
	}

	if err := s.db.DB.Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to store pairing run: %w", err)
	}

	return run, nil
}

func (s *PairingService) recordFailure(trigger models.RunTrigger, engineCfg pairing.Config, runErr error) *models.PairingRun {
	run := &models.PairingRun{
		ID:           uuid.New().String(),
		Trigger:      trigger,
		Status:       models.RunFailed,
		Objective:    string(engineCfg.Objective),
		ErrorMessage: runErr.Error(),
		GeneratedAt:  time.Now().UTC(),
	}

	if err := s.db.DB.Create(run).Error; err != nil {
		s.logger.WithField("component", "pairing_service").Errorf("Failed to store failed run: %v", err)
	}

	return run
}

func (s *PairingService) cacheRun(ctx context.Context, run *models.PairingRun) {
	expiration := time.Duration(s.cfg.RunCacheExpiration) * time.Second

	if err := s.cache.Set(ctx, RunCacheKey(run.ID), run, expiration); err != nil {
		s.logger.WithField("component", "pairing_service").Warnf("Failed to cache run %s: %v", run.ID, err)
	}
	if run.Status == models.RunCompleted {
		if err := s.cache.Set(ctx, LatestRunCacheKey(), run, expiration); err != nil {
			s.logger.WithField("component", "pairing_service").Warnf("Failed to cache latest run: %v", err)
		}
	}
}

// applyOverrides copies stored settings with per-run tweaks applied.
func applyOverrides(settings models.LeagueSettings, o *RunOverrides) models.LeagueSettings {
	if o == nil {
		return settings
	}
	if len(o.Sections) > 0 {
		settings.Sections = models.SectionList(o.Sections)
	}
	if o.Rules != nil {
		settings.Rules = *o.Rules
	}
	if o.MinSpread != nil {
		settings.MinSpread = *o.MinSpread
	}
	if o.PoolSize != nil {
		settings.PoolSize = *o.PoolSize
	}
	if o.Objective != nil {
		settings.Objective = *o.Objective
	}
	if o.BalanceMargin != nil {
		settings.BalanceMargin = *o.BalanceMargin
	}
	if o.ExactSearchLimit != nil {
		settings.ExactSearchLimit = *o.ExactSearchLimit
	}
	if o.MissingRequired != nil {
		settings.MissingRequired = *o.MissingRequired
	}
	return settings
}

// buildCandidates converts roster rows into engine candidates. The member
// number doubles as the candidate ID so constraint rules written against
// member numbers line up.
func buildCandidates(players []models.Player) []pairing.Candidate {
	out := make([]pairing.Candidate, 0, len(players))
	for _, p := range players {
		c := pairing.Candidate{
			ID:          p.PairingID(),
			Name:        p.FullName(),
			Index:       p.HandicapIndex,
			Eligibility: []string(p.Eligibility),
			Tier:        p.Commitment.Priority(),
			Tags: pairing.Tags{
				Role:             p.Role,
				ConsistencyClass: p.ConsistencyClass,
			},
		}
		if p.HasRating() {
			c.Value = pairing.Float(*p.Rating)
		}
		out = append(out, c)
	}
	return out
}

func buildConstraints(settings *models.LeagueSettings) pairing.Constraints {
	cons := pairing.Constraints{
		MinSpread: settings.MinSpread,
	}
	for _, r := range settings.Rules.Required {
		cons.Required = append(cons.Required, pairing.RequiredPair{A: r.A, B: r.B})
	}
	for _, e := range settings.Rules.EitherOr {
		cons.EitherOr = append(cons.EitherOr, pairing.EitherOrPair{Fixed: e.Fixed, Options: e.Options})
	}
	for _, f := range settings.Rules.Forbidden {
		cons.Forbidden = append(cons.Forbidden, pairing.ForbiddenPair{ID: f.ID, Excluded: f.Excluded})
	}
	return cons
}

func buildSlots(settings *models.LeagueSettings) []pairing.Slot {
	out := make([]pairing.Slot, 0, len(settings.Sections))
	for _, sec := range settings.Sections {
		out = append(out, pairing.Slot{
			SectionID:        sec.SectionID,
			Capacity:         sec.Capacity,
			RequiredCategory: sec.RequiredCategory,
		})
	}
	return out
}

func buildEngineConfig(settings *models.LeagueSettings) pairing.Config {
	cfg := pairing.DefaultConfig()
	if settings.ExactSearchLimit > 0 {
		cfg.ExactSearchLimit = settings.ExactSearchLimit
	}
	if settings.Objective != "" {
		cfg.Objective = pairing.Objective(settings.Objective)
	}
	cfg.BalanceMargin = settings.BalanceMargin
	if settings.MissingRequired != "" {
		cfg.MissingRequired = pairing.MissingRequiredPolicy(settings.MissingRequired)
	}
	return cfg
}
