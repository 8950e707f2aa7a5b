// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings
// and picks collision-free slugs within a collection.
package slug

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrEmpty is returned by Unique when the name has no letters or digits
// left after slugification.
var ErrEmpty = errors.New("slug: name produces an empty slug")

// nonAlphanumeric matches runs of anything that isn't an ASCII letter or digit.
var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given string.
// Example: "Café Déjà Vu, 2026!" → "cafe-deja-vu-2026"
func Generate(s string) string {
	// Chained transformers carry state, so build one per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(fold, s)
	if err != nil {
		result = s
	}
	result = strings.ToLower(result)
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Unique returns a slug for name that is not present in existing.
// existing holds the slugs already stored in the target collection that
// share the candidate's prefix. self is the entity's current slug when
// renaming (empty on create); it never counts as a collision.
//
// The plain slug is tried first, then name-1, name-2, ... in order, so the
// result depends only on the inputs.
func Unique(name string, existing []string, self string) (string, error) {
	base := Generate(name)
	if base == "" {
		return "", ErrEmpty
	}

	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		if s != self {
			taken[s] = struct{}{}
		}
	}

	if _, ok := taken[base]; !ok {
		return base, nil
	}
	for n := 1; ; n++ {
		candidate := Generate(name + "-" + strconv.Itoa(n))
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
}
