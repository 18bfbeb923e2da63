package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/besterhub/kgc-league/internal/models"
	"github.com/besterhub/kgc-league/internal/pairing"
	"github.com/besterhub/kgc-league/pkg/config"
	"github.com/besterhub/kgc-league/pkg/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := "sqlite://" + filepath.Join(t.TempDir(), "league_test.db")
	db, err := database.NewConnection(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Player{}, &models.LeagueSettings{}, &models.PairingRun{}))

	t.Cleanup(func() { db.Close() })
	return db
}

func floatPtr(v float64) *float64 { return &v }

// seedWeeklyRoster inserts four rated members: two low handicappers who
// anchor, two high handicappers who partner.
func seedWeeklyRoster(t *testing.T, db *database.DB) {
	t.Helper()

	players := []models.Player{
		{MemberNumber: "m-101", FirstName: "Alan", LastName: "Brewer", Phone: "+15550100001", HandicapIndex: 1, Rating: floatPtr(40), Commitment: models.CommitmentMember, IsActive: true, SMSOptIn: true},
		{MemberNumber: "m-102", FirstName: "Beth", LastName: "Calloway", Phone: "+15550100002", HandicapIndex: 2, Rating: floatPtr(30), Commitment: models.CommitmentMember, IsActive: true, SMSOptIn: true},
		{MemberNumber: "m-103", FirstName: "Colin", LastName: "Drake", Phone: "+15550100003", HandicapIndex: 10, Rating: floatPtr(20), Commitment: models.CommitmentMember, IsActive: true, SMSOptIn: true},
		{MemberNumber: "m-104", FirstName: "Dana", LastName: "Ellis", Phone: "+15550100004", HandicapIndex: 12, Rating: floatPtr(10), Commitment: models.CommitmentMember, IsActive: true, SMSOptIn: true},
	}
	require.NoError(t, db.Create(&players).Error)
}

// seedSettings writes the singleton settings row with a single open
// section holding two pairs, so the whole seeded roster gets placed.
func seedSettings(t *testing.T, db *database.DB, mutate func(*models.LeagueSettings)) {
	t.Helper()

	settings := &models.LeagueSettings{
		ID:               1,
		LeagueName:       "KGC Weekly League",
		Sections:         models.SectionList{{SectionID: "flight-a", Capacity: 2}},
		Objective:        "balanced",
		BalanceMargin:    0.5,
		ExactSearchLimit: 8,
		MissingRequired:  "fail",
	}
	if mutate != nil {
		mutate(settings)
	}
	require.NoError(t, db.Create(settings).Error)
}

func newTestPairingService(db *database.DB, notifier *NotificationService, ratings *RatingClient) *PairingService {
	cfg := &config.Config{RunCacheExpiration: 300}
	return NewPairingService(db, NewCacheService(nil), ratings, notifier, cfg, testLogger())
}

func TestGeneratePairings_PersistsRun(t *testing.T) {
	db := openTestDB(t)
	seedWeeklyRoster(t, db)
	seedSettings(t, db, nil)
	svc := newTestPairingService(db, nil, nil)

	run, result, err := svc.GeneratePairings(context.Background(), models.TriggerManual, nil, false)
	require.NoError(t, err)
	require.NotNil(t, run)
	require.NotNil(t, result)

	assert.Equal(t, models.RunCompleted, run.Status)
	assert.Equal(t, models.TriggerManual, run.Trigger)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, "balanced", run.Objective)
	assert.Equal(t, "exact", run.Mode)
	assert.Equal(t, 100.0, run.ObjectiveValue)
	assert.Equal(t, 4, run.PoolSize)
	assert.Equal(t, 2, run.PairCount)
	assert.Equal(t, 0, run.ReserveCount)
	assert.NotEmpty(t, run.Payload)

	// The balanced alternative wins here: two even 50-point pairs beat a
	// 60/40 split.
	require.Len(t, result.Pairs, 2)
	assert.Equal(t, "m-102", result.Pairs[0].Anchor.ID)
	assert.Equal(t, "m-103", result.Pairs[0].Partner.ID)
	assert.Equal(t, "m-101", result.Pairs[1].Anchor.ID)
	assert.Equal(t, "m-104", result.Pairs[1].Partner.ID)
	assert.Equal(t, "flight-a", result.Pairs[0].SectionID)
	require.NotNil(t, result.Diagnostics.Balance)
	assert.Equal(t, "balanced", result.Diagnostics.Balance.Chosen)

	var count int64
	require.NoError(t, db.DB.Model(&models.PairingRun{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGeneratePairings_DryRunSkipsPersistence(t *testing.T) {
	db := openTestDB(t)
	seedWeeklyRoster(t, db)
	seedSettings(t, db, nil)
	svc := newTestPairingService(db, nil, nil)

	run, result, err := svc.GeneratePairings(context.Background(), models.TriggerManual, nil, true)
	require.NoError(t, err)
	assert.Nil(t, run)
	require.NotNil(t, result)
	assert.Len(t, result.Pairs, 2)

	var count int64
	require.NoError(t, db.DB.Model(&models.PairingRun{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestGeneratePairings_OverridesLeaveSettingsAlone(t *testing.T) {
	db := openTestDB(t)
	seedWeeklyRoster(t, db)
	seedSettings(t, db, nil)
	svc := newTestPairingService(db, nil, nil)

	objective := "max_value"
	run, result, err := svc.GeneratePairings(context.Background(), models.TriggerManual, &RunOverrides{Objective: &objective}, false)
	require.NoError(t, err)
	assert.Equal(t, "max_value", run.Objective)

	// Value-optimal seating puts the strongest pair first and skips the
	// balance comparison entirely.
	require.Len(t, result.Pairs, 2)
	assert.Equal(t, "m-101", result.Pairs[0].Anchor.ID)
	assert.Equal(t, "m-103", result.Pairs[0].Partner.ID)
	assert.Nil(t, result.Diagnostics.Balance)

	stored, err := models.GetSettings(db)
	require.NoError(t, err)
	assert.Equal(t, "balanced", stored.Objective)
}

func TestGeneratePairings_RequiredRuleHonored(t *testing.T) {
	db := openTestDB(t)
	seedWeeklyRoster(t, db)
	seedSettings(t, db, func(s *models.LeagueSettings) {
		s.Rules = models.ConstraintRules{
			Required: []models.RequiredRule{{A: "m-101", B: "m-103"}},
		}
	})
	svc := newTestPairingService(db, nil, nil)

	_, result, err := svc.GeneratePairings(context.Background(), models.TriggerManual, nil, false)
	require.NoError(t, err)

	require.Len(t, result.Pairs, 2)
	assert.Equal(t, pairing.ProvenanceRequired, result.Pairs[0].Provenance)
	assert.True(t, result.Pairs[0].Contains("m-101"))
	assert.True(t, result.Pairs[0].Contains("m-103"))
	assert.Equal(t, pairing.ProvenanceAuto, result.Pairs[1].Provenance)
	assert.Equal(t, 1, result.Diagnostics.RequiredSatisfied)
}

func TestGeneratePairings_InfeasibleRuleRecordsFailedRun(t *testing.T) {
	db := openTestDB(t)
	seedWeeklyRoster(t, db)
	seedSettings(t, db, func(s *models.LeagueSettings) {
		s.Rules = models.ConstraintRules{
			Required: []models.RequiredRule{{A: "m-101", B: "m-999"}},
		}
	})
	svc := newTestPairingService(db, nil, nil)

	run, result, err := svc.GeneratePairings(context.Background(), models.TriggerScheduled, nil, false)
	require.Error(t, err)
	assert.True(t, pairing.IsInfeasible(err))
	assert.Nil(t, result)

	require.NotNil(t, run)
	assert.Equal(t, models.RunFailed, run.Status)
	assert.Equal(t, models.TriggerScheduled, run.Trigger)
	assert.Contains(t, run.ErrorMessage, "m-999")

	var stored models.PairingRun
	require.NoError(t, db.DB.First(&stored, "id = ?", run.ID).Error)
	assert.Equal(t, models.RunFailed, stored.Status)
}

func TestGeneratePairings_DryRunFailureLeavesNoTrace(t *testing.T) {
	db := openTestDB(t)
	seedWeeklyRoster(t, db)
	seedSettings(t, db, func(s *models.LeagueSettings) {
		s.Rules = models.ConstraintRules{
			Required: []models.RequiredRule{{A: "m-101", B: "m-999"}},
		}
	})
	svc := newTestPairingService(db, nil, nil)

	run, _, err := svc.GeneratePairings(context.Background(), models.TriggerManual, nil, true)
	require.Error(t, err)
	assert.Nil(t, run)

	var count int64
	require.NoError(t, db.DB.Model(&models.PairingRun{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestGeneratePairings_AnnouncesToOptedIn(t *testing.T) {
	db := openTestDB(t)
	seedWeeklyRoster(t, db)
	seedSettings(t, db, nil)

	recorder := &smsRecorder{}
	notifier := NewNotificationService(db, recorder, testLogger())
	svc := newTestPairingService(db, notifier, nil)

	_, _, err := svc.GeneratePairings(context.Background(), models.TriggerManual, nil, false)
	require.NoError(t, err)
	assert.Len(t, recorder.messages(), 4)

	// Dry runs stay silent
	recorder.reset()
	_, _, err = svc.GeneratePairings(context.Background(), models.TriggerManual, nil, true)
	require.NoError(t, err)
	assert.Empty(t, recorder.messages())
}

func TestRefreshRatings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(ratingFeedBody))
	}))
	defer server.Close()

	db := openTestDB(t)
	seedWeeklyRoster(t, db)
	svc := newTestPairingService(db, nil, fastRatingClient(server.URL))

	summary, err := svc.RefreshRatings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Fetched)
	assert.Equal(t, 3, summary.Updated)
	assert.Equal(t, []string{"m-104"}, summary.Absent)

	var scored models.Player
	require.NoError(t, db.DB.Where("member_number = ?", "m-101").First(&scored).Error)
	require.NotNil(t, scored.Rating)
	assert.Equal(t, 55.5, *scored.Rating)
	assert.Equal(t, 1.8, scored.HandicapIndex)
	assert.Equal(t, "steady", scored.ConsistencyClass)
	assert.Equal(t, "captain", scored.Role)
	require.NotNil(t, scored.RatingSyncedAt)

	// m-103 has a feed entry with no matches behind it, so its stale
	// rating is cleared rather than kept.
	var cleared models.Player
	require.NoError(t, db.DB.Where("member_number = ?", "m-103").First(&cleared).Error)
	assert.Nil(t, cleared.Rating)
	assert.Equal(t, 14.2, cleared.HandicapIndex)

	// m-104 was absent from the feed and keeps its old numbers
	var untouched models.Player
	require.NoError(t, db.DB.Where("member_number = ?", "m-104").First(&untouched).Error)
	require.NotNil(t, untouched.Rating)
	assert.Equal(t, 10.0, *untouched.Rating)
	assert.Nil(t, untouched.RatingSyncedAt)
}

func TestRefreshRatings_NotConfigured(t *testing.T) {
	db := openTestDB(t)
	svc := newTestPairingService(db, nil, nil)

	_, err := svc.RefreshRatings(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rating feed is not configured")
}

func TestRunHistory(t *testing.T) {
	db := openTestDB(t)
	seedWeeklyRoster(t, db)
	seedSettings(t, db, nil)
	svc := newTestPairingService(db, nil, nil)
	ctx := context.Background()

	first, _, err := svc.GeneratePairings(ctx, models.TriggerManual, nil, false)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, _, err := svc.GeneratePairings(ctx, models.TriggerScheduled, nil, false)
	require.NoError(t, err)

	fetched, err := svc.GetRun(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, fetched.ID)
	assert.NotEmpty(t, fetched.Payload)

	latest, err := svc.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	runs, err := svc.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)

	_, err = svc.GetRun(ctx, "no-such-run")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
