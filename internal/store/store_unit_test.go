package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestDiffIDs(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name       string
		current    []uuid.UUID
		want       []uuid.UUID
		wantAdd    []uuid.UUID
		wantRemove []uuid.UUID
	}{
		{"empty to some", nil, []uuid.UUID{a, b}, []uuid.UUID{a, b}, nil},
		{"some to empty", []uuid.UUID{a, b}, []uuid.UUID{}, nil, []uuid.UUID{a, b}},
		{"unchanged", []uuid.UUID{a, b}, []uuid.UUID{b, a}, nil, nil},
		{"swap one", []uuid.UUID{a, b, c}, []uuid.UUID{a, d, c}, []uuid.UUID{d}, []uuid.UUID{b}},
		{"duplicates ignored", nil, []uuid.UUID{a, a, b}, []uuid.UUID{a, b}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			add, remove := diffIDs(tt.current, tt.want)
			if fmt.Sprint(add) != fmt.Sprint(tt.wantAdd) {
				t.Errorf("add: got %v, want %v", add, tt.wantAdd)
			}
			if fmt.Sprint(remove) != fmt.Sprint(tt.wantRemove) {
				t.Errorf("remove: got %v, want %v", remove, tt.wantRemove)
			}
		})
	}
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"shoes":     "shoes",
		"50%_off":   `50\%\_off`,
		`back\path`: `back\\path`,
	}
	for in, want := range tests {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsSlugViolation(t *testing.T) {
	slugErr := fmt.Errorf("create: %w", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "products_slug_key"})
	emailErr := &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "users_email_key"}
	fkErr := &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "product_categories_category_id_fkey"}

	if !isSlugViolation(slugErr) {
		t.Error("wrapped slug violation should be detected")
	}
	if isSlugViolation(emailErr) {
		t.Error("email violation is not a slug violation")
	}
	if isSlugViolation(errors.New("boom")) {
		t.Error("plain error is not a slug violation")
	}
	if !isForeignKeyViolation(fkErr) {
		t.Error("foreign key violation should be detected")
	}
}
