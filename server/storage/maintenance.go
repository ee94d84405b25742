// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package storage

import (
	"fmt"
	"math"
	"strings"
)

const statsEpsilon = 1e-6

// StatsMismatch describes a bootcamp average which differs from the one
// computed from the current courses or reviews.
type StatsMismatch struct {
	BootcampID string
	Field      string
	Stored     *float64
	Actual     *float64
}

func (m StatsMismatch) String() string {
	return fmt.Sprintf("bootcamp %s: %s is %s, should be %s",
		m.BootcampID, m.Field, fmtAvg(m.Stored), fmtAvg(m.Actual),
	)
}

func fmtAvg(v *float64) string {
	if v == nil {
		return "unset"
	}
	return fmt.Sprintf("%g", *v)
}

// IntegrityError is returned by Storage.CheckIntegrity.
type IntegrityError struct {
	Mismatches []StatsMismatch
}

func (e *IntegrityError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts, m.String())
	}
	return fmt.Sprintf("%d stats mismatches: %s", len(parts), strings.Join(parts, "; "))
}

// CompareStat returns ms with a mismatch appended, if stored and actual
// differ.
func CompareStat(
	ms []StatsMismatch, bootcampID, field string, stored, actual *float64,
) []StatsMismatch {
	same := false
	switch {
	case stored == nil && actual == nil:
		same = true
	case stored != nil && actual != nil:
		same = math.Abs(*stored-*actual) < statsEpsilon
	}

	if same {
		return ms
	}

	return append(ms, StatsMismatch{
		BootcampID: bootcampID,
		Field:      field,
		Stored:     stored,
		Actual:     actual,
	})
}

// IntegrityResult returns nil if there are no mismatches, or *IntegrityError.
func IntegrityResult(ms []StatsMismatch) error {
	if len(ms) == 0 {
		return nil
	}
	return &IntegrityError{Mismatches: ms}
}
