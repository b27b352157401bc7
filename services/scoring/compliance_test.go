// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateCompliance_HappyPath(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	onboarded := now.Add(-30 * 24 * time.Hour)
	entry := now.Add(-5 * 24 * time.Hour)

	res := EvaluateCompliance(ComplianceInput{
		OnboardingCompletedAt: &onboarded,
		Processes: []ProcessCompliance{
			{
				Name:   "Customer Onboarding",
				Health: 85,
				Metrics: []MetricFacts{
					{Name: "NPS", Cadence: CadenceQuarterly, LastEntry: &entry},
				},
			},
		},
	}, now)

	assert.True(t, res.Compliant)
	assert.Empty(t, res.Reasons)
}

func TestEvaluateCompliance_OnboardingNeverCompleted(t *testing.T) {
	now := time.Now()

	res := EvaluateCompliance(ComplianceInput{
		OnboardingCompletedAt: nil,
		Processes:             []ProcessCompliance{{Name: "p", Health: 90}},
	}, now)

	assert.False(t, res.Compliant)
	require.Len(t, res.Reasons, 1)
	assert.Contains(t, res.Reasons[0], "onboarding")
}

func TestEvaluateCompliance_ZeroProcessesIsNonCompliant(t *testing.T) {
	now := time.Now()
	onboarded := now.Add(-time.Hour)

	res := EvaluateCompliance(ComplianceInput{OnboardingCompletedAt: &onboarded}, now)

	assert.False(t, res.Compliant)
	require.Len(t, res.Reasons, 1)
	assert.Equal(t, "no processes documented", res.Reasons[0])
}

func TestEvaluateCompliance_BelowHealthThreshold(t *testing.T) {
	now := time.Now()
	onboarded := now.Add(-time.Hour)

	res := EvaluateCompliance(ComplianceInput{
		OnboardingCompletedAt: &onboarded,
		Processes: []ProcessCompliance{
			{Name: "a", Health: 40},
			{Name: "b", Health: 69},
		},
	}, now)

	assert.False(t, res.Compliant)
	require.Len(t, res.Reasons, 1)
	assert.Contains(t, res.Reasons[0], "minimum health score")
}

func TestEvaluateCompliance_ThresholdIsInclusive(t *testing.T) {
	now := time.Now()
	onboarded := now.Add(-time.Hour)

	res := EvaluateCompliance(ComplianceInput{
		OnboardingCompletedAt: &onboarded,
		Processes:             []ProcessCompliance{{Name: "a", Health: ComplianceHealthThreshold}},
	}, now)

	assert.True(t, res.Compliant)
}

func TestEvaluateCompliance_MetricPastGrace(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	onboarded := now.Add(-time.Hour)

	// 31 days cadence + 7 days grace = 38; 40 days is past it.
	stale := now.Add(-40 * 24 * time.Hour)
	res := EvaluateCompliance(ComplianceInput{
		OnboardingCompletedAt: &onboarded,
		Processes: []ProcessCompliance{
			{
				Name:   "Billing",
				Health: 80,
				Metrics: []MetricFacts{
					{Name: "invoices per week", Cadence: CadenceMonthly, LastEntry: &stale},
				},
			},
		},
	}, now)

	assert.False(t, res.Compliant)
	require.Len(t, res.Reasons, 1)
	assert.Contains(t, res.Reasons[0], "overdue")
}

func TestEvaluateCompliance_OverdueWithinGraceStillCompliant(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	onboarded := now.Add(-time.Hour)

	// 35 days is overdue for a monthly cadence but inside the grace
	// buffer, so the review page flags it without failing compliance.
	stale := now.Add(-35 * 24 * time.Hour)
	res := EvaluateCompliance(ComplianceInput{
		OnboardingCompletedAt: &onboarded,
		Processes: []ProcessCompliance{
			{
				Name:   "Billing",
				Health: 80,
				Metrics: []MetricFacts{
					{Name: "invoices per week", Cadence: CadenceMonthly, LastEntry: &stale},
				},
			},
		},
	}, now)

	assert.True(t, res.Compliant)
}

func TestEvaluateCompliance_MetricWithNoEntriesDoesNotFailGrace(t *testing.T) {
	now := time.Now()
	onboarded := now.Add(-time.Hour)

	res := EvaluateCompliance(ComplianceInput{
		OnboardingCompletedAt: &onboarded,
		Processes: []ProcessCompliance{
			{Name: "a", Health: 75, Metrics: []MetricFacts{{Name: "m", Cadence: CadenceMonthly}}},
		},
	}, now)

	assert.True(t, res.Compliant)
}
