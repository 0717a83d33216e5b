// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simplestreams

// selectBuild picks the build key to use from a product's versions
// map. If the requested version string is itself a build key (a caller
// pinning an exact build serial), that build is used. Otherwise the
// newest build wins: greatest embedded serial, ties broken by greatest
// full key, so the choice never depends on map iteration order.
//
// Build keys embed a date serial ("20260218_07:42"); the serial is the
// leading run of digits, compared numerically by length-then-value
// (equivalent to numeric comparison for fixed-width dates, and still
// total for irregular keys).
func selectBuild(versions map[string]Build, requested string) (string, bool) {
	if len(versions) == 0 {
		return "", false
	}
	if _, ok := versions[requested]; ok {
		return requested, true
	}

	var best string
	for key := range versions {
		if best == "" || buildLess(best, key) {
			best = key
		}
	}
	return best, true
}

// buildLess reports whether build key a orders before b: first by
// embedded serial, then by the full key.
func buildLess(a, b string) bool {
	serialA, serialB := serialOf(a), serialOf(b)
	if serialA != serialB {
		if len(serialA) != len(serialB) {
			return len(serialA) < len(serialB)
		}
		return serialA < serialB
	}
	return a < b
}

// serialOf returns the leading run of decimal digits in a build key.
func serialOf(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return key[:i]
		}
	}
	return key
}
