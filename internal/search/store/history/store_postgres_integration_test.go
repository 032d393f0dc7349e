//go:build integration

package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"nexus/internal/search/store/history"
	"nexus/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *history.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), history.Schema)
	s.store = history.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "search_history"))
}

func (s *PostgresStoreSuite) record(query, country string, at time.Time) history.Record {
	return history.Record{
		ID:           uuid.NewString(),
		Query:        query,
		Country:      country,
		NodeCount:    9,
		EdgeCount:    9,
		MaxRiskScore: 9,
		CacheHit:     false,
		Degraded:     false,
		DurationMS:   12.5,
		UserIP:       "203.0.113.7",
		UserAgent:    "Chrome 120.0.0.0 on Linux x86_64",
		CreatedAt:    at,
	}
}

func (s *PostgresStoreSuite) TestInsertAndList() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	s.Require().NoError(s.store.Insert(ctx, s.record("88888888", "sk", base)))
	s.Require().NoError(s.store.Insert(ctx, s.record("27074358", "cz", base.Add(time.Second))))

	records, err := s.store.List(ctx, 10, "")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal("27074358", records[0].Query) // newest first
	s.Equal(9.0, records[0].MaxRiskScore)
	s.Equal("203.0.113.7", records[0].UserIP)
	s.Equal("Chrome 120.0.0.0 on Linux x86_64", records[0].UserAgent)
}

func (s *PostgresStoreSuite) TestStats() {
	ctx := context.Background()

	stats, err := s.store.Stats(ctx)
	s.Require().NoError(err)
	s.Equal(history.Stats{Backend: "postgres", Records: 0}, stats)

	s.Require().NoError(s.store.Insert(ctx, s.record("88888888", "sk", time.Now().UTC())))

	stats, err = s.store.Stats(ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.Records)
}

func (s *PostgresStoreSuite) TestListFiltersByCountry() {
	ctx := context.Background()
	now := time.Now().UTC()

	s.Require().NoError(s.store.Insert(ctx, s.record("88888888", "sk", now)))
	s.Require().NoError(s.store.Insert(ctx, s.record("27074358", "cz", now)))

	records, err := s.store.List(ctx, 10, "sk")
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("88888888", records[0].Query)
}

func (s *PostgresStoreSuite) TestListHonorsLimit() {
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.Insert(ctx, s.record("88888888", "sk", now.Add(time.Duration(i)*time.Second))))
	}

	records, err := s.store.List(ctx, 3, "")
	s.Require().NoError(err)
	s.Len(records, 3)
}
