package database

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"news-verifier/models"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

var (
	//go:embed sql/*
	ddl embed.FS

	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Store keeps analyses and per-domain counters in postgres or sqlite.
// Queries are written with ? placeholders and rebound for postgres.
type Store struct {
	db      *sql.DB
	dialect string
}

// Open connects to url and creates the schema when missing. postgres:// and
// postgresql:// URLs use postgres; anything else is a sqlite file path,
// optionally prefixed with sqlite://.
func Open(ctx context.Context, url string) (*Store, error) {
	if url == "" {
		return nil, errors.New("database url not specified")
	}

	dialect, dsn := parseURL(url)
	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", dialect)
	}
	if dialect == DialectSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "%s database unreachable", dialect)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("[DB] ✓ connected", "dialect", dialect)
	return s, nil
}

func parseURL(url string) (dialect, dsn string) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DialectPostgres, url
	case strings.HasPrefix(url, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(url, "sqlite://")
	default:
		return DialectSQLite, url
	}
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := ddl.ReadFile("sql/" + s.dialect + ".sql")
	if err != nil {
		return errors.Wrap(err, "failed to read the schema creation file")
	}
	if _, err := s.db.ExecContext(ctx, string(b)); err != nil {
		return errors.Wrap(err, "failed to create database schema")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Dialect() string {
	return s.dialect
}

// rebind turns ? placeholders into $1, $2, ... for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

const insertAnalysis = `INSERT INTO analysis_results
	(excerpt, source_url, is_fake, fake_probability, real_probability, confidence, details)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	RETURNING id`

func (s *Store) SaveAnalysis(ctx context.Context, rec *models.AnalysisRecord) (int64, error) {
	details := rec.Details
	if details == nil {
		details = []string{}
	}
	b, err := json.Marshal(details)
	if err != nil {
		return 0, errors.Wrap(err, "failed to marshal details")
	}

	var id int64
	err = s.db.QueryRowContext(ctx, s.rebind(insertAnalysis),
		rec.Excerpt, rec.SourceURL, rec.IsFake,
		rec.FakeProbability, rec.RealProbability, rec.Confidence, string(b),
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert analysis")
	}
	rec.ID = id
	return id, nil
}

const selectAnalysis = `SELECT id, excerpt, source_url, is_fake, fake_probability,
	real_probability, confidence, details, created_at
	FROM analysis_results`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*models.AnalysisRecord, error) {
	var (
		rec     models.AnalysisRecord
		details string
	)
	if err := row.Scan(&rec.ID, &rec.Excerpt, &rec.SourceURL, &rec.IsFake, &rec.FakeProbability,
		&rec.RealProbability, &rec.Confidence, &details, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(details), &rec.Details); err != nil {
		return nil, errors.Wrapf(err, "analysis %d has malformed details", rec.ID)
	}
	if rec.Details == nil {
		rec.Details = []string{}
	}
	return &rec, nil
}

func (s *Store) GetAnalysis(ctx context.Context, id int64) (*models.AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectAnalysis+" WHERE id = ?"), id)
	rec, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get analysis %d", id)
	}
	return rec, nil
}

const upsertDomain = `INSERT INTO domain_stats (domain, total_analyses, fake_count, last_analyzed_at)
	VALUES (?, 1, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (domain) DO UPDATE SET
		total_analyses   = domain_stats.total_analyses + 1,
		fake_count       = domain_stats.fake_count + excluded.fake_count,
		last_analyzed_at = CURRENT_TIMESTAMP`

func (s *Store) UpsertDomain(ctx context.Context, domain string, isFake bool) error {
	fake := 0
	if isFake {
		fake = 1
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(upsertDomain), domain, fake); err != nil {
		return errors.Wrapf(err, "failed to upsert domain %s", domain)
	}
	return nil
}

const selectDomain = `SELECT domain, total_analyses, fake_count, last_analyzed_at FROM domain_stats`

func scanDomain(row rowScanner) (*models.DomainStats, error) {
	var st models.DomainStats
	if err := row.Scan(&st.Domain, &st.TotalAnalyses, &st.FakeCount, &st.LastAnalyzedAt); err != nil {
		return nil, err
	}
	if st.TotalAnalyses > 0 {
		st.FakeRatio = models.Round2(float64(st.FakeCount) / float64(st.TotalAnalyses))
	}
	return &st, nil
}

func (s *Store) GetDomain(ctx context.Context, domain string) (*models.DomainStats, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectDomain+" WHERE domain = ?"), domain)
	st, err := scanDomain(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get domain %s", domain)
	}
	return st, nil
}

// TopDomains lists the most analyzed domains first.
func (s *Store) TopDomains(ctx context.Context, limit int) ([]models.DomainStats, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(selectDomain+" ORDER BY total_analyses DESC, domain LIMIT ?"), limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query top domains")
	}
	defer rows.Close()

	list := make([]models.DomainStats, 0)
	for rows.Next() {
		st, err := scanDomain(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan domain")
		}
		list = append(list, *st)
	}
	return list, errors.Wrap(rows.Err(), "failed to iterate domains")
}

const selectTotals = `SELECT COUNT(*),
	COALESCE(SUM(CASE WHEN is_fake THEN 1 ELSE 0 END), 0),
	COALESCE(AVG(confidence), 0)
	FROM analysis_results`

// Stats summarizes all analyses and returns the most recent ones.
func (s *Store) Stats(ctx context.Context, recent int) (*models.AdminStats, error) {
	st := &models.AdminStats{RecentRequests: make([]models.AnalysisRecord, 0)}

	var avg float64
	if err := s.db.QueryRowContext(ctx, selectTotals).Scan(&st.TotalRequests, &st.FakeCount, &avg); err != nil {
		return nil, errors.Wrap(err, "failed to count analyses")
	}
	st.RealCount = st.TotalRequests - st.FakeCount
	st.AverageConfidence = models.Round2(avg * 100)

	rows, err := s.db.QueryContext(ctx, s.rebind(selectAnalysis+" ORDER BY id DESC LIMIT ?"), recent)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query recent analyses")
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan analysis")
		}
		st.RecentRequests = append(st.RecentRequests, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate analyses")
	}
	return st, nil
}

const insertUser = `INSERT INTO users (email, password_hash) VALUES (?, ?)
	ON CONFLICT (email) DO NOTHING
	RETURNING id, email, password_hash, created_at`

// CreateUser stores a new account. An email that is already registered
// fails with ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, s.rebind(insertUser), email, passwordHash).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert user")
	}
	return &u, nil
}

const selectUser = `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, s.rebind(selectUser), email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &u, nil
}
