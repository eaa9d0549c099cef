package repo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestNullString(t *testing.T) {
	if nullString("") != nil {
		t.Error("empty string should map to NULL")
	}
	if s := nullString("x"); s == nil || *s != "x" {
		t.Errorf("expected pointer to x, got %v", s)
	}
}

func TestRunFilterLimit(t *testing.T) {
	if got := (RunFilter{}).limit(); got != 50 {
		t.Errorf("expected default limit 50, got %d", got)
	}
	if got := (RunFilter{Limit: 5}).limit(); got != 5 {
		t.Errorf("expected limit 5, got %d", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(dup) {
		t.Error("23505 should be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("23503 is not a unique violation")
	}
	if isUniqueViolation(nil) {
		t.Error("nil is not a unique violation")
	}
}

func TestSchema(t *testing.T) {
	for _, table := range []string{"runs", "samples"} {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("schema should create %s", table)
		}
	}
}
