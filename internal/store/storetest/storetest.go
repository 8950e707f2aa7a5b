// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storetest provides in-memory implementations of the store types
// for service and handler tests. They follow the same contracts as the
// PostgreSQL stores: lookups return (nil, nil) on a miss, slug collisions
// return store.ErrSlugTaken, referenced rows return store.ErrInUse and
// multi-row writes are all-or-nothing.
package storetest

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// ErrInjected is returned by writes after FailNextWrite is called.
var ErrInjected = errors.New("storetest: injected failure")

// DB holds every table. The typed views returned by its accessors share it,
// so foreign-key style checks work across them.
type DB struct {
	mu sync.Mutex

	categories map[uuid.UUID]models.Category
	products   map[uuid.UUID]models.Product
	links      map[uuid.UUID]map[uuid.UUID]bool // product -> categories
	orders     map[uuid.UUID]models.Order
	reviews    []models.Review
	users      map[uuid.UUID]models.User

	now       time.Time
	slugRaces int
	failNext  bool
}

// New returns an empty database.
func New() *DB {
	return &DB{
		categories: make(map[uuid.UUID]models.Category),
		products:   make(map[uuid.UUID]models.Product),
		links:      make(map[uuid.UUID]map[uuid.UUID]bool),
		orders:     make(map[uuid.UUID]models.Order),
		users:      make(map[uuid.UUID]models.User),
		now:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// LoseSlugRaces makes the next n slug writes fail with store.ErrSlugTaken
// as if a concurrent writer had claimed the slug first.
func (db *DB) LoseSlugRaces(n int) {
	db.mu.Lock()
	db.slugRaces = n
	db.mu.Unlock()
}

// FailNextWrite makes the next order, product or review write fail with
// ErrInjected after it has started, leaving the data untouched.
func (db *DB) FailNextWrite() {
	db.mu.Lock()
	db.failNext = true
	db.mu.Unlock()
}

// Categories returns the category store view.
func (db *DB) Categories() *Categories { return &Categories{db: db} }

// Products returns the product store view.
func (db *DB) Products() *Products { return &Products{db: db} }

// Reviews returns the review store view.
func (db *DB) Reviews() *Reviews { return &Reviews{db: db} }

// Orders returns the order store view.
func (db *DB) Orders() *Orders { return &Orders{db: db} }

// Users returns the user store view.
func (db *DB) Users() *Users { return &Users{db: db} }

// tick advances the clock so rows get strictly increasing timestamps.
// Callers hold db.mu.
func (db *DB) tick() time.Time {
	db.now = db.now.Add(time.Second)
	return db.now
}

// takeSlugRace reports whether this write should lose a slug race.
// Callers hold db.mu.
func (db *DB) takeSlugRace() bool {
	if db.slugRaces > 0 {
		db.slugRaces--
		return true
	}
	return false
}

// takeFailure reports whether this write should fail. Callers hold db.mu.
func (db *DB) takeFailure() bool {
	if db.failNext {
		db.failNext = false
		return true
	}
	return false
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
