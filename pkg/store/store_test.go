package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/predict"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/store"
)

type seededStore struct {
	*store.Store
	arsenal, chelsea, manCity, manUnited int64
	s2324, s2223                         int64
}

func newSeededStore(t *testing.T) *seededStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// one in-memory database, not one per pooled connection
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	require.NoError(t, s.Migrate())

	ctx := context.Background()
	seeded := &seededStore{Store: s}

	seeded.arsenal = mustInsertTeam(t, s, "Arsenal")
	seeded.chelsea = mustInsertTeam(t, s, "Chelsea")
	seeded.manCity = mustInsertTeam(t, s, "Manchester City")
	seeded.manUnited = mustInsertTeam(t, s, "Manchester United")

	seeded.s2324 = mustInsertSeason(t, s, "202324", 2023)
	seeded.s2223 = mustInsertSeason(t, s, "202223", 2022)

	// Inserted out of date order on purpose
	day := func(m time.Month, d int) time.Time {
		return time.Date(2023, m, d, 0, 0, 0, 0, time.UTC)
	}
	require.NoError(t, s.InsertMatch(ctx, seeded.s2324, day(time.December, 23), seeded.arsenal, seeded.chelsea, "Arsenal", "Chelsea", 2, 1, "H"))
	require.NoError(t, s.InsertMatch(ctx, seeded.s2324, day(time.August, 12), seeded.chelsea, seeded.arsenal, "Chelsea", "Arsenal", 0, 0, "D"))
	require.NoError(t, s.InsertMatch(ctx, seeded.s2324, day(time.October, 8), seeded.arsenal, seeded.manCity, "Arsenal", "Manchester City", 1, 0, "H"))
	require.NoError(t, s.InsertMatch(ctx, seeded.s2223, day(time.March, 4), seeded.arsenal, seeded.manUnited, "Arsenal", "Manchester United", 3, 2, "H"))

	return seeded
}

func mustInsertTeam(t *testing.T, s *store.Store, name string) int64 {
	t.Helper()
	id, err := s.InsertTeam(context.Background(), name)
	require.NoError(t, err)
	return id
}

func mustInsertSeason(t *testing.T, s *store.Store, code string, startYear int) int64 {
	t.Helper()
	id, err := s.InsertSeason(context.Background(), code, startYear)
	require.NoError(t, err)
	return id
}

func TestFindTeamIDByName(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	t.Run("exact name", func(t *testing.T) {
		id, err := s.FindTeamIDByName(ctx, "Arsenal")
		require.NoError(t, err)
		assert.Equal(t, s.arsenal, id)
	})

	t.Run("case insensitive", func(t *testing.T) {
		id, err := s.FindTeamIDByName(ctx, "arsenal")
		require.NoError(t, err)
		assert.Equal(t, s.arsenal, id)
	})

	t.Run("partial substring", func(t *testing.T) {
		id, err := s.FindTeamIDByName(ctx, "chels")
		require.NoError(t, err)
		assert.Equal(t, s.chelsea, id)
	})

	t.Run("ambiguous substring is not found", func(t *testing.T) {
		_, err := s.FindTeamIDByName(ctx, "Manchester")
		assert.ErrorIs(t, err, predict.ErrNotFound)
	})

	t.Run("exact hit wins over substring neighbours", func(t *testing.T) {
		luton := mustInsertTeam(t, s.Store, "Luton")
		mustInsertTeam(t, s.Store, "Luton Town")

		// "luton" is a substring of both rows but an exact fold match
		// for one of them, so it must not count as ambiguous
		id, err := s.FindTeamIDByName(ctx, "luton")
		require.NoError(t, err)
		assert.Equal(t, luton, id)
	})

	t.Run("unknown team", func(t *testing.T) {
		_, err := s.FindTeamIDByName(ctx, "Zzzqq")
		assert.ErrorIs(t, err, predict.ErrNotFound)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := s.FindTeamIDByName(ctx, "   ")
		assert.ErrorIs(t, err, predict.ErrNotFound)
	})

	t.Run("deterministic", func(t *testing.T) {
		first, err := s.FindTeamIDByName(ctx, "Arsenal")
		require.NoError(t, err)
		second, err := s.FindTeamIDByName(ctx, "Arsenal")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestFindSeasonIDByCode(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	id, err := s.FindSeasonIDByCode(ctx, "202324")
	require.NoError(t, err)
	assert.Equal(t, s.s2324, id)

	// surrounding whitespace is trimmed, nothing else is normalized
	id, err = s.FindSeasonIDByCode(ctx, " 202324 ")
	require.NoError(t, err)
	assert.Equal(t, s.s2324, id)

	_, err = s.FindSeasonIDByCode(ctx, "2023/24")
	assert.ErrorIs(t, err, predict.ErrNotFound)

	_, err = s.FindSeasonIDByCode(ctx, "999999")
	assert.ErrorIs(t, err, predict.ErrNotFound)
}

func TestListMatchesOrderedByDate(t *testing.T) {
	s := newSeededStore(t)

	matches, err := s.ListMatches(context.Background(), s.arsenal, s.s2324)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	for i := 1; i < len(matches); i++ {
		assert.False(t, matches[i].Date.Before(matches[i-1].Date),
			"matches must be ordered by date ascending")
	}

	assert.Equal(t, "Chelsea", matches[0].HomeTeam)
	assert.Equal(t, "D", matches[0].Result)
	assert.Equal(t, "202324", matches[0].SeasonCode)
	assert.Equal(t, 2, matches[2].HomeGoals)
}

func TestListMatchesEmptyIsNotAnError(t *testing.T) {
	s := newSeededStore(t)

	matches, err := s.ListMatches(context.Background(), s.manUnited, s.s2324)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestListSeasonsNewestFirst(t *testing.T) {
	s := newSeededStore(t)

	seasons, err := s.ListSeasons(context.Background())
	require.NoError(t, err)
	require.Len(t, seasons, 2)
	assert.Equal(t, "202324", seasons[0].Code)
	assert.Equal(t, "202223", seasons[1].Code)
}

func TestListSeasonTeams(t *testing.T) {
	s := newSeededStore(t)

	teams, err := s.ListSeasonTeams(context.Background(), s.s2324)
	require.NoError(t, err)
	require.Len(t, teams, 3)
	// ordered by name; Manchester United never played in 202324
	assert.Equal(t, "Arsenal", teams[0].Name)
	assert.Equal(t, "Chelsea", teams[1].Name)
	assert.Equal(t, "Manchester City", teams[2].Name)
}

func TestListTeamSeasons(t *testing.T) {
	s := newSeededStore(t)

	seasons, err := s.ListTeamSeasons(context.Background(), s.arsenal)
	require.NoError(t, err)
	require.Len(t, seasons, 2)
	assert.Equal(t, "202324", seasons[0].Code)

	seasons, err = s.ListTeamSeasons(context.Background(), s.manUnited)
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	assert.Equal(t, "202223", seasons[0].Code)
}
