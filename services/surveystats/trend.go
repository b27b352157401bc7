// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package surveystats

// AttachTrend copies the previous wave's averages onto the current
// summaries as previous_avg. The comparison only makes sense for
// question types that reduce to a scalar: rating, yes_no, nps, and
// matrix. Multiple-choice, checkbox, and open-text summaries are left
// untouched.
//
// For matrix questions the trend is attached per row; rows with zero
// responses in the previous wave are skipped.
func AttachTrend(current, previous []Summary) []Summary {
	prevByID := make(map[string]Summary, len(previous))
	for _, p := range previous {
		prevByID[p.QuestionID] = p
	}

	for i := range current {
		prev, ok := prevByID[current[i].QuestionID]
		if !ok || prev.Type != current[i].Type {
			continue
		}
		switch current[i].Type {
		case TypeRating, TypeYesNo, TypeNPS:
			if prev.Average != nil {
				avg := *prev.Average
				current[i].PreviousAvg = &avg
			}
		case TypeMatrix:
			if prev.Average != nil {
				avg := *prev.Average
				current[i].PreviousAvg = &avg
			}
			attachMatrixRowTrend(current[i].Rows, prev.Rows)
		}
	}
	return current
}

func attachMatrixRowTrend(rows []MatrixRowSummary, prevRows []MatrixRowSummary) {
	prevByRow := make(map[string]MatrixRowSummary, len(prevRows))
	for _, r := range prevRows {
		prevByRow[r.Row] = r
	}
	for i := range rows {
		prev, ok := prevByRow[rows[i].Row]
		if !ok || prev.Count == 0 {
			continue
		}
		avg := prev.Average
		rows[i].PreviousAvg = &avg
	}
}
