// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"fmt"
	"time"
)

// ComplianceHealthThreshold is the minimum process health score that
// counts toward compliance. A user needs at least one process at or
// above it.
const ComplianceHealthThreshold = 70

// ComplianceInput is everything the compliance rule reads for one user.
type ComplianceInput struct {
	// OnboardingCompletedAt is nil when the user never finished
	// onboarding.
	OnboardingCompletedAt *time.Time

	Processes []ProcessCompliance
}

// ProcessCompliance is one owned process as the compliance rule sees it.
type ProcessCompliance struct {
	Name    string
	Health  int // 0-100, from ScoreProcess
	Metrics []MetricFacts
}

// ComplianceResult is the verdict plus human-readable reasons. Reasons
// is empty exactly when Compliant is true.
type ComplianceResult struct {
	Compliant bool     `json:"is_compliant"`
	Reasons   []string `json:"reasons"`
}

// EvaluateCompliance applies the account compliance rule:
//
//   - onboarding must be completed;
//   - the user must own at least one process (zero processes is
//     treated as insufficient data, not compliant-by-default);
//   - at least one owned process must reach the health threshold;
//   - no linked metric may be overdue past its cadence plus the grace
//     buffer.
func EvaluateCompliance(in ComplianceInput, now time.Time) ComplianceResult {
	var reasons []string

	if in.OnboardingCompletedAt == nil {
		reasons = append(reasons, "onboarding has not been completed")
	}

	if len(in.Processes) == 0 {
		reasons = append(reasons, "no processes documented")
	} else {
		healthy := false
		for _, p := range in.Processes {
			if p.Health >= ComplianceHealthThreshold {
				healthy = true
				break
			}
		}
		if !healthy {
			reasons = append(reasons, fmt.Sprintf("no process meets the minimum health score of %d", ComplianceHealthThreshold))
		}

		for _, p := range in.Processes {
			for _, m := range p.Metrics {
				if metricPastGrace(m, now) {
					reasons = append(reasons, fmt.Sprintf("metric %q on process %q is overdue", m.Name, p.Name))
				}
			}
		}
	}

	return ComplianceResult{Compliant: len(reasons) == 0, Reasons: reasons}
}

// metricPastGrace reports whether a metric is overdue beyond the grace
// buffer. Metrics with no entries at all are handled by the health
// threshold, not here.
func metricPastGrace(m MetricFacts, now time.Time) bool {
	if m.LastEntry == nil {
		return false
	}
	maxAge, ok := cadenceMaxAge[m.Cadence]
	if !ok {
		maxAge = cadenceMaxAge[CadenceMonthly]
	}
	return now.Sub(*m.LastEntry) > maxAge+complianceGrace
}
