package db

import (
	"testing"
	"time"
)

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c IN (?, ?)"

	if got := SQLite.Rebind(q); got != q {
		t.Fatalf("sqlite Rebind = %q, want unchanged", got)
	}
	want := "SELECT a FROM t WHERE b = $1 AND c IN ($2, $3)"
	if got := Postgres.Rebind(q); got != want {
		t.Fatalf("postgres Rebind = %q, want %q", got, want)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(3); got != "?, ?, ?" {
		t.Fatalf("Placeholders(3) = %q", got)
	}
	if got := Placeholders(0); got != "" {
		t.Fatalf("Placeholders(0) = %q, want empty", got)
	}
}

func TestTimeScan(t *testing.T) {
	want := time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC)

	inputs := []any{
		want,
		"2026-03-02T06:30:00Z",
		"2026-03-02 06:30:00+00:00",
		[]byte("2026-03-02 06:30:00 +0000 UTC"),
	}
	for _, in := range inputs {
		var got Time
		if err := got.Scan(in); err != nil {
			t.Fatalf("Scan(%v): unexpected error: %v", in, err)
		}
		if !got.Valid || !got.Time.Equal(want) {
			t.Fatalf("Scan(%v) = %v, want %v", in, got.Time, want)
		}
	}

	var null Time
	if err := null.Scan(nil); err != nil || null.Valid || null.Ptr() != nil {
		t.Fatalf("Scan(nil) = %+v, %v; want invalid", null, err)
	}
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{"postgres": Postgres, "PGX": Postgres, "sqlite": SQLite, " sqlite3 ": SQLite} {
		got, err := ParseDialect(in)
		if err != nil || got != want {
			t.Fatalf("ParseDialect(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseDialect("mysql"); err == nil {
		t.Fatalf("expected an error for mysql")
	}
}
