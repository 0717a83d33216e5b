// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestRealNow(t *testing.T) {
	before := time.Now()
	now := Real().Now()
	after := time.Now()
	if now.Before(before) || now.After(after) {
		t.Errorf("Real().Now() = %v outside [%v, %v]", now, before, after)
	}
}

func TestFakeAdvance(t *testing.T) {
	fake := NewFake()
	start := fake.Now()

	fake.Advance(90 * time.Second)
	if got := fake.Now().Sub(start); got != 90*time.Second {
		t.Errorf("advanced by %v, want 90s", got)
	}

	// Without Advance, time stands still.
	if !fake.Now().Equal(start.Add(90 * time.Second)) {
		t.Error("fake time moved without Advance")
	}
}
