package gridsim

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withTestDB points the package database at a throwaway file. Persistence
// state is package global, so these tests cannot run in parallel.
func withTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, CloseDatabase())
	require.NoError(t, InitDatabase(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { CloseDatabase() })
}

func TestSaveAndFindTeamProfile(t *testing.T) {
	withTestDB(t)

	p := testProfile(t, "KC")
	require.NoError(t, Save(p))

	loaded := &TeamProfile{}
	err := FindByPrimaryKey(loaded, map[string]interface{}{
		"team_id": "KC", "season": 2025, "week": 5,
	})
	require.NoError(t, err)
	assert.Equal(t, p.TeamID, loaded.TeamID)
	assert.Equal(t, p.OffEPA, loaded.OffEPA)
	assert.Equal(t, p.QBPressuredSackRate, loaded.QBPressuredSackRate)
	assert.Equal(t, p.PuntNetYards, loaded.PuntNetYards)
}

func TestSaveUpdatesExistingRow(t *testing.T) {
	withTestDB(t)

	p := testProfile(t, "KC")
	require.NoError(t, Save(p))

	p.OffEPA = 0.12
	require.NoError(t, Save(p))

	loaded := &TeamProfile{}
	require.NoError(t, FindByPrimaryKey(loaded, p.GetPrimaryKey()))
	assert.Equal(t, 0.12, loaded.OffEPA)

	results, err := FindAll(&TeamProfile{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSaveRejectsInvalidProfile(t *testing.T) {
	withTestDB(t)

	p := testProfile(t, "KC")
	p.PassRateNeutral = 2.0
	require.Error(t, Save(p))
}

func TestExistsAndDelete(t *testing.T) {
	withTestDB(t)

	p := testProfile(t, "KC")

	exists, err := Exists(p)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, Save(p))
	exists, err = Exists(p)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, Delete(p))
	exists, err = Exists(p)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoadTeamProfileRollsForward(t *testing.T) {
	withTestDB(t)

	week3, err := NewTeamProfile("KC", 2025, 3, testStats())
	require.NoError(t, err)
	week5, err := NewTeamProfile("KC", 2025, 5, testStats())
	require.NoError(t, err)
	week5.OffEPA = 0.11
	require.NoError(t, Save(week3))
	require.NoError(t, Save(week5))

	// Predicting week 6 uses the freshest profile before it
	loaded, err := LoadTeamProfile("KC", 2025, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Week)
	assert.Equal(t, 0.11, loaded.OffEPA)

	// Predicting week 5 must not see week 5's own data
	loaded, err = LoadTeamProfile("KC", 2025, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Week)
}

func TestLoadTeamProfileMissing(t *testing.T) {
	withTestDB(t)

	_, err := LoadTeamProfile("KC", 2025, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingData))
}

func TestSaveSimulationResultAndRecommendation(t *testing.T) {
	withTestDB(t)

	result := &SimulationResult{
		BatchID:  "batch-1",
		HomeTeam: "KC", AwayTeam: "BUF",
		Season: 2025, Week: 5,
		Trials: 1000, MarketSpread: -3, MarketTotal: 44.5,
		CoverProb: 0.55, OverProb: 0.48,
	}
	require.NoError(t, Save(result))

	rec := &BettingRecommendation{
		BatchID: "batch-1", Market: MarketSpread,
		Side: SideHome, Line: -3, Price: -110,
		ModelProb: 0.55, BreakEven: 110.0 / 210.0,
		Edge: 0.026, Tier: TierLow,
	}
	require.NoError(t, Save(rec))

	loaded := &BettingRecommendation{}
	require.NoError(t, FindByPrimaryKey(loaded, rec.GetPrimaryKey()))
	assert.Equal(t, SideHome, loaded.Side)
	assert.Equal(t, TierLow, loaded.Tier)
	assert.Equal(t, 0.026, loaded.Edge)
}

func TestBulkSave(t *testing.T) {
	withTestDB(t)

	objects := []Persistable{
		testProfile(t, "KC"),
		testProfile(t, "BUF"),
		testProfile(t, "DET"),
	}
	require.NoError(t, BulkSave(objects))

	results, err := FindAll(&TeamProfile{})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}
