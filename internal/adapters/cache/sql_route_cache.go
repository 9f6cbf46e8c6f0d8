package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/platform/db"
	"hos-trip-planner/internal/platform/obs"
	"strings"
	"time"
)

// SQLRouteCache persists routed paths as JSON so restarts keep the cache warm.
// It serves deployments without Redis.
type SQLRouteCache struct {
	DB      *sql.DB
	Dialect db.Dialect
	Now     func() time.Time
}

func NewSQLRouteCache(conn *sql.DB, dialect db.Dialect) *SQLRouteCache {
	return &SQLRouteCache{DB: conn, Dialect: dialect, Now: time.Now}
}

func (s *SQLRouteCache) GetRoute(ctx context.Context, key string) (_ domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.sql.Get")(&err)

	if s.DB == nil {
		return domain.Route{}, false, errors.New("route cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return domain.Route{}, false, errors.New("get route cache: key must not be empty")
	}

	var payload string
	var expires db.Time
	err = s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`
	SELECT payload, expires_at
	FROM route_cache
	WHERE cache_key = ?;
	`), key).Scan(&payload, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Route{}, false, nil
	}
	if err != nil {
		return domain.Route{}, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}
	if expires.Valid && !expires.Time.After(s.Now()) {
		return domain.Route{}, false, nil
	}

	var route domain.Route
	if err := json.Unmarshal([]byte(payload), &route); err != nil {
		return domain.Route{}, false, fmt.Errorf("get route cache: decode payload: %w", err)
	}
	return route, true, nil
}

func (s *SQLRouteCache) PutRoute(ctx context.Context, key string, route domain.Route, ttl time.Duration) (err error) {
	defer obs.Time(ctx, "route.cache.sql.Put")(&err)

	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("insert route cache: key must not be empty")
	}

	payload, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("insert route cache: encode payload: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, s.Dialect.Rebind(`
	INSERT INTO route_cache (cache_key, payload, expires_at)
	VALUES (?, ?, ?)
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = excluded.payload,
		expires_at = excluded.expires_at;
	`), key, string(payload), s.Now().Add(ttl).UTC())
	if err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", key, err)
	}
	return nil
}

// Invalidate drops every cached route.
func (s *SQLRouteCache) Invalidate(ctx context.Context) (err error) {
	defer obs.Time(ctx, "route.cache.sql.Invalidate")(&err)

	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM route_cache;`); err != nil {
		return fmt.Errorf("invalidate route cache: %w", err)
	}
	return nil
}
