// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides PostgreSQL access for every storefront entity.
// Each store struct wraps a *sqlx.DB and exposes typed, context-aware query
// methods. Lookups return (nil, nil) when nothing matches.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned by writes that target a row that does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrSlugTaken is returned when an insert or update hits the unique
	// slug constraint. Callers pick another slug and retry.
	ErrSlugTaken = errors.New("store: slug already taken")

	// ErrInUse is returned when a row is still referenced and the schema
	// forbids removing it (e.g. a category with products).
	ErrInUse = errors.New("store: row is still referenced")

	// ErrEmailTaken is returned when registering an email that exists.
	ErrEmailTaken = errors.New("store: email already registered")
)

// PostgreSQL error codes the stores translate into sentinel errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// pgError extracts the server error from err, if any.
func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// isSlugViolation reports whether err is a unique violation on a slug column.
func isSlugViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == codeUniqueViolation && strings.Contains(pgErr.ConstraintName, "slug")
}

// isForeignKeyViolation reports whether err is a foreign key violation.
func isForeignKeyViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == codeForeignKeyViolation
}

// withTx runs fn inside a transaction and commits if fn returns nil.
// Any error rolls the whole transaction back.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// escapeLike escapes LIKE metacharacters so s matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// diffIDs returns the ids in want that are missing from current (add) and
// the ids in current that are not wanted (remove). Duplicates in want are
// ignored; add keeps the order of want.
func diffIDs(current, want []uuid.UUID) (add, remove []uuid.UUID) {
	have := make(map[uuid.UUID]bool, len(current))
	for _, id := range current {
		have[id] = true
	}
	wanted := make(map[uuid.UUID]bool, len(want))
	for _, id := range want {
		if wanted[id] {
			continue
		}
		wanted[id] = true
		if !have[id] {
			add = append(add, id)
		}
	}
	for _, id := range current {
		if !wanted[id] {
			remove = append(remove, id)
		}
	}
	return add, remove
}
