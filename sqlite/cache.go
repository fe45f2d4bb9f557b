package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/medimatch"
)

// DefaultTTL is how long a cached search result stays fresh.
const DefaultTTL = 6 * time.Hour

// timeLayout is fixed width so stored timestamps compare as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Compile-time interface verification.
var _ medimatch.DoctorDirectory = (*DirectoryCache)(nil)

// DirectoryCache implements medimatch.DoctorDirectory by serving fresh
// cached results and delegating misses to another directory.
// Failed searches are never cached. A cache that cannot be read or written
// is bypassed; the search itself only fails when the wrapped directory does.
type DirectoryCache struct {
	db   *DB
	next medimatch.DoctorDirectory
	ttl  time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Logger receives cache failures. Defaults to discarding them.
	Logger *slog.Logger
}

// NewDirectoryCache creates a DirectoryCache in front of next.
// A non-positive ttl uses DefaultTTL.
func NewDirectoryCache(db *DB, next medimatch.DoctorDirectory, ttl time.Duration) *DirectoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DirectoryCache{db: db, next: next, ttl: ttl}
}

// CacheKey returns the cache key for q. Queries differing only in case,
// diacritics or language order share a key.
func CacheKey(q medimatch.Query) string {
	languages := slices.Clone(q.Languages)
	slices.Sort(languages)
	parts := append([]string{medimatch.Slugify(q.Specialty), medimatch.Slugify(q.Location), q.InsuranceSector}, languages...)
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(parts, "\x00")))
}

// Search returns cached entries for q when fresh, otherwise searches the
// wrapped directory and stores the result.
func (c *DirectoryCache) Search(ctx context.Context, q medimatch.Query) ([]medimatch.RawEntry, error) {
	key := CacheKey(q)

	entries, ok, err := c.lookup(ctx, key)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger().Warn("cache lookup", "err", err)
	}
	if ok {
		return entries, nil
	}

	entries, err = c.next.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := c.store(ctx, key, q, entries); err != nil {
		c.logger().Warn("cache store", "err", err)
	}
	return entries, nil
}

func (c *DirectoryCache) lookup(ctx context.Context, key string) ([]medimatch.RawEntry, bool, error) {
	var raw, fetchedAtStr string
	err := c.db.QueryRowContext(ctx, `
		SELECT entries, fetched_at FROM directory_cache WHERE key = ?
	`, key).Scan(&raw, &fetchedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, medimatch.WrapError(medimatch.EINTERNAL, "cache", err, "reading cache")
	}

	fetchedAt, err := parseRFC3339(fetchedAtStr, "fetched_at")
	if err != nil {
		return nil, false, medimatch.WrapError(medimatch.EINTERNAL, "cache", err, "reading cache")
	}
	if c.now().Sub(fetchedAt) >= c.ttl {
		return nil, false, nil
	}

	var entries []medimatch.RawEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		// A corrupt row is treated as a miss and overwritten.
		return nil, false, nil
	}
	return entries, true, nil
}

func (c *DirectoryCache) store(ctx context.Context, key string, q medimatch.Query, entries []medimatch.RawEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return medimatch.WrapError(medimatch.EINTERNAL, "cache", err, "encoding entries")
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO directory_cache (key, specialty, location, entries, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			specialty = excluded.specialty,
			location = excluded.location,
			entries = excluded.entries,
			fetched_at = excluded.fetched_at
	`, key, q.Specialty, q.Location, string(raw), c.now().UTC().Format(timeLayout))
	if err != nil {
		return medimatch.WrapError(medimatch.EINTERNAL, "cache", err, "writing cache")
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *DirectoryCache) Prune(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.ttl).UTC().Format(timeLayout)
	res, err := c.db.ExecContext(ctx, `DELETE FROM directory_cache WHERE fetched_at <= ?`, cutoff)
	if err != nil {
		return 0, medimatch.WrapError(medimatch.EINTERNAL, "cache", err, "pruning cache")
	}
	return res.RowsAffected()
}

func (c *DirectoryCache) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (c *DirectoryCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
