package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/platform/db"
	"hos-trip-planner/internal/platform/obs"
	"maps"
	"math"
	"slices"
	"strings"
	"time"
)

// SQLGeocodeCache maps normalized addresses to coordinates in the
// geocode_cache table. Entries older than MaxAge are treated as misses so
// moved or corrected addresses are eventually geocoded again; zero keeps
// entries forever.
type SQLGeocodeCache struct {
	DB      *sql.DB
	Dialect db.Dialect
	MaxAge  time.Duration
	Now     func() time.Time
}

func NewSQLGeocodeCache(conn *sql.DB, dialect db.Dialect) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: conn, Dialect: dialect, MaxAge: 90 * 24 * time.Hour, Now: time.Now}
}

// GetMany returns the fresh entries among addresses. Blank and repeated
// addresses are ignored.
func (s *SQLGeocodeCache) GetMany(ctx context.Context, addresses []string) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	keys := cacheKeys(addresses)
	out := make(map[string]domain.Coordinates, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	q := `SELECT address, lon, lat, resolved_at FROM geocode_cache WHERE address IN (` + db.Placeholders(len(keys)) + `);`

	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("lookup %d geocodes: %w", len(keys), err)
	}
	defer rows.Close()

	var cutoff time.Time
	if s.MaxAge > 0 {
		cutoff = s.Now().Add(-s.MaxAge)
	}
	for rows.Next() {
		var (
			addr     string
			c        domain.Coordinates
			resolved db.Time
		)
		if err := rows.Scan(&addr, &c.Lon, &c.Lat, &resolved); err != nil {
			return nil, fmt.Errorf("lookup geocodes: scan: %w", err)
		}
		if !cutoff.IsZero() && (!resolved.Valid || resolved.Time.Before(cutoff)) {
			continue
		}
		out[addr] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lookup geocodes: %w", err)
	}
	return out, nil
}

// PutMany upserts results in one statement and stamps them as resolved now.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "geocode.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if len(results) == 0 {
		return nil
	}

	now := s.Now().UTC()
	rows := make([]string, 0, len(results))
	args := make([]any, 0, 4*len(results))
	for _, addr := range slices.Sorted(maps.Keys(results)) {
		c := results[addr]
		if strings.TrimSpace(addr) == "" {
			return errors.New("store geocodes: empty address key")
		}
		if !validCoordinates(c) {
			return fmt.Errorf("store geocode %q: coordinates %v,%v out of range", addr, c.Lon, c.Lat)
		}
		rows = append(rows, "(?, ?, ?, ?)")
		args = append(args, addr, c.Lon, c.Lat, now)
	}

	q := `INSERT INTO geocode_cache (address, lon, lat, resolved_at) VALUES ` + strings.Join(rows, ", ") + `
	ON CONFLICT (address) DO UPDATE
	SET lon = excluded.lon,
		lat = excluded.lat,
		resolved_at = excluded.resolved_at;`

	if _, err := s.DB.ExecContext(ctx, s.Dialect.Rebind(q), args...); err != nil {
		return fmt.Errorf("store %d geocodes: %w", len(rows), err)
	}
	return nil
}

// Invalidate drops every cached geocode.
func (s *SQLGeocodeCache) Invalidate(ctx context.Context) (err error) {
	defer obs.Time(ctx, "geocode.cache.Invalidate")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM geocode_cache;`); err != nil {
		return fmt.Errorf("invalidate geocode cache: %w", err)
	}
	return nil
}

func cacheKeys(addresses []string) []string {
	keys := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if a = strings.TrimSpace(a); a != "" {
			keys = append(keys, a)
		}
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}

func validCoordinates(c domain.Coordinates) bool {
	if math.IsNaN(c.Lon) || math.IsNaN(c.Lat) {
		return false
	}
	return c.Lon >= -180 && c.Lon <= 180 && c.Lat >= -90 && c.Lat <= 90
}
