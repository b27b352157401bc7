// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scoring implements the hub's rule evaluators: metric review
// status, process health scoring, and per-user compliance.
//
// Everything in this package is a pure function of its inputs. Callers
// fetch rows from the store, map them into the fact structs defined
// here, and render the results; no scoring function touches the
// database or the clock implicitly.
package scoring

import "time"

// Cadence is the expected re-measurement frequency of a metric.
type Cadence string

const (
	CadenceWeekly    Cadence = "weekly"
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceAnnual    Cadence = "annual"
)

// ReviewState classifies how current a metric's entries are.
type ReviewState string

const (
	ReviewCurrent ReviewState = "current"
	ReviewDueSoon ReviewState = "due-soon"
	ReviewOverdue ReviewState = "overdue"
	ReviewNoData  ReviewState = "no-data"
)

// Cadence-to-max-age mapping. A metric whose newest entry is older than
// its cadence's max age is overdue. These are deliberate constants, not
// configuration; changing them changes what "compliant" means for every
// tenant at once.
var cadenceMaxAge = map[Cadence]time.Duration{
	CadenceWeekly:    7 * 24 * time.Hour,
	CadenceMonthly:   31 * 24 * time.Hour,
	CadenceQuarterly: 92 * 24 * time.Hour,
	CadenceAnnual:    366 * 24 * time.Hour,
}

// Per-cadence windows before the deadline in which a metric flips from
// current to due-soon. Each window must stay below its cadence's max
// age or a fresh entry could never read as current.
var cadenceDueSoon = map[Cadence]time.Duration{
	CadenceWeekly:    2 * 24 * time.Hour,
	CadenceMonthly:   7 * 24 * time.Hour,
	CadenceQuarterly: 14 * 24 * time.Hour,
	CadenceAnnual:    31 * 24 * time.Hour,
}

// complianceGrace is the extra allowance applied on top of the cadence
// max age before an overdue metric makes its owner non-compliant.
const complianceGrace = 7 * 24 * time.Hour

// ReviewStatus classifies a metric's last entry date against its
// cadence. The result is no-data if and only if lastEntry is nil.
// Unknown cadences fall back to monthly.
func ReviewStatus(cadence Cadence, lastEntry *time.Time, now time.Time) ReviewState {
	if lastEntry == nil {
		return ReviewNoData
	}
	maxAge, ok := cadenceMaxAge[cadence]
	if !ok {
		cadence = CadenceMonthly
		maxAge = cadenceMaxAge[CadenceMonthly]
	}
	age := now.Sub(*lastEntry)
	switch {
	case age > maxAge:
		return ReviewOverdue
	case age > maxAge-cadenceDueSoon[cadence]:
		return ReviewDueSoon
	default:
		return ReviewCurrent
	}
}

// MetricFacts is the slice of a metric row that review and compliance
// rules care about.
type MetricFacts struct {
	Name      string
	Cadence   Cadence
	LastEntry *time.Time
	HasTarget bool
}
