package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-verifier/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_EmptyURL(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := "sqlite://" + filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		s, err := Open(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, DialectSQLite, s.Dialect())
		require.NoError(t, s.Close())
	}
}

func TestParseURL(t *testing.T) {
	d, dsn := parseURL("postgres://u:p@db:5432/news?sslmode=disable")
	assert.Equal(t, DialectPostgres, d)
	assert.Equal(t, "postgres://u:p@db:5432/news?sslmode=disable", dsn)

	d, _ = parseURL("postgresql://db/news")
	assert.Equal(t, DialectPostgres, d)

	d, dsn = parseURL("sqlite:///var/lib/news.db")
	assert.Equal(t, DialectSQLite, d)
	assert.Equal(t, "/var/lib/news.db", dsn)

	d, dsn = parseURL("news.db")
	assert.Equal(t, DialectSQLite, d)
	assert.Equal(t, "news.db", dsn)
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: DialectPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", pg.rebind("SELECT a FROM t WHERE b = ? AND c = ?"))

	lite := &Store{dialect: DialectSQLite}
	assert.Equal(t, "WHERE b = ?", lite.rebind("WHERE b = ?"))
}

func TestSaveAndGetAnalysis(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec := &models.AnalysisRecord{
		Excerpt:         "This is shocking!",
		SourceURL:       "https://example.com/a",
		IsFake:          true,
		FakeProbability: 0.5498,
		RealProbability: 0.4502,
		Confidence:      0.63,
		Details:         []string{"🧠 Sentiment polarity=-1.00, subjectivity=1.00", "🚨 Sensational words detected (1)."},
	}
	id, err := s.SaveAnalysis(ctx, rec)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, rec.ID)

	got, err := s.GetAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rec.Excerpt, got.Excerpt)
	assert.Equal(t, rec.SourceURL, got.SourceURL)
	assert.True(t, got.IsFake)
	assert.InDelta(t, 0.5498, got.FakeProbability, 1e-12)
	assert.Equal(t, rec.Details, got.Details)
	assert.NotEmpty(t, got.CreatedAt)
}

func TestGetAnalysis_NotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetAnalysis(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAnalysis_NilDetails(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.SaveAnalysis(ctx, &models.AnalysisRecord{Excerpt: "x"})
	require.NoError(t, err)

	got, err := s.GetAnalysis(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, got.Details)
	assert.Empty(t, got.Details)
	assert.False(t, got.IsFake)
}

func TestUpsertDomain(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertDomain(ctx, "example.com", true))
	require.NoError(t, s.UpsertDomain(ctx, "example.com", false))
	require.NoError(t, s.UpsertDomain(ctx, "example.com", true))

	st, err := s.GetDomain(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalAnalyses)
	assert.Equal(t, 2, st.FakeCount)
	assert.Equal(t, 0.67, st.FakeRatio)
	assert.NotEmpty(t, st.LastAnalyzedAt)

	_, err = s.GetDomain(ctx, "missing.org")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTopDomains(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		for j := 0; j <= i; j++ {
			require.NoError(t, s.UpsertDomain(ctx, fmt.Sprintf("d%d.com", i), false))
		}
	}

	top, err := s.TopDomains(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "d4.com", top[0].Domain)
	assert.Equal(t, 5, top[0].TotalAnalyses)
	assert.Equal(t, "d2.com", top[2].Domain)
}

func TestTopDomains_Empty(t *testing.T) {
	s := setupTestStore(t)
	top, err := s.TopDomains(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, top)
	assert.Empty(t, top)
}

func TestStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	st, err := s.Stats(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, st.TotalRequests)
	assert.Empty(t, st.RecentRequests)

	for i, fake := range []bool{true, false, false} {
		_, err := s.SaveAnalysis(ctx, &models.AnalysisRecord{
			Excerpt:    fmt.Sprintf("text %d", i),
			IsFake:     fake,
			Confidence: 0.6 + float64(i)*0.1,
		})
		require.NoError(t, err)
	}

	st, err = s.Stats(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalRequests)
	assert.Equal(t, 1, st.FakeCount)
	assert.Equal(t, 2, st.RealCount)
	assert.Equal(t, 70.0, st.AverageConfidence)
	require.Len(t, st.RecentRequests, 2)
	assert.Equal(t, "text 2", st.RecentRequests[0].Excerpt)
}

func TestUsers(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "ana@example.com", "$2a$10$hash")
	require.NoError(t, err)
	assert.Positive(t, u.ID)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEmpty(t, u.CreatedAt)

	_, err = s.CreateUser(ctx, "ana@example.com", "$2a$10$other")
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := s.GetUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
