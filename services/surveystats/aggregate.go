// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package surveystats

import (
	"math"
	"sort"
)

// Aggregate reduces the answer rows of one wave into per-question
// summaries. Answers for unknown question IDs are ignored; questions
// with no answers still produce a zero-count summary so the UI can
// render every question.
func Aggregate(questions []Question, answers []Answer) []Summary {
	byQuestion := map[string][]Answer{}
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}

	summaries := make([]Summary, 0, len(questions))
	for _, q := range questions {
		summaries = append(summaries, summarize(q, byQuestion[q.ID]))
	}
	return summaries
}

func summarize(q Question, answers []Answer) Summary {
	switch q.Type {
	case TypeRating:
		return summarizeRating(q, answers)
	case TypeYesNo:
		return summarizeYesNo(q, answers)
	case TypeNPS:
		return summarizeNPS(q, answers)
	case TypeMultipleChoice:
		return summarizeMultipleChoice(q, answers)
	case TypeCheckbox:
		return summarizeCheckbox(q, answers)
	case TypeOpenText:
		return summarizeOpenText(q, answers)
	case TypeMatrix:
		return summarizeMatrix(q, answers)
	default:
		return Summary{QuestionID: q.ID, Type: q.Type}
	}
}

func summarizeRating(q Question, answers []Answer) Summary {
	s := Summary{QuestionID: q.ID, Type: q.Type, Histogram: map[int]int{}}
	var sum float64
	for _, a := range answers {
		if a.Number == nil {
			continue
		}
		s.Count++
		sum += *a.Number
		s.Histogram[int(math.Round(*a.Number))]++
	}
	if s.Count > 0 {
		avg := sum / float64(s.Count)
		s.Average = &avg
	}
	return s
}

func summarizeYesNo(q Question, answers []Answer) Summary {
	s := Summary{QuestionID: q.ID, Type: q.Type}
	var yes int
	for _, a := range answers {
		if a.Number == nil {
			continue
		}
		s.Count++
		if *a.Number >= 1 {
			yes++
		}
	}
	if s.Count > 0 {
		share := float64(yes) / float64(s.Count)
		s.Average = &share
	}
	return s
}

func summarizeNPS(q Question, answers []Answer) Summary {
	s := Summary{QuestionID: q.ID, Type: q.Type, Histogram: map[int]int{}}
	for b := 0; b <= 10; b++ {
		s.Histogram[b] = 0
	}

	values := make([]int, 0, len(answers))
	for _, a := range answers {
		if a.Number == nil {
			continue
		}
		v := int(math.Round(*a.Number))
		if v < 0 || v > 10 {
			continue
		}
		values = append(values, v)
		s.Histogram[v]++
	}
	s.Count = len(values)

	score := NPSScore(values)
	s.NPSScore = &score
	avg := float64(score)
	s.Average = &avg
	s.Segments = npsSegments(values)
	return s
}

func summarizeMultipleChoice(q Question, answers []Answer) Summary {
	s := Summary{QuestionID: q.ID, Type: q.Type}
	counts := make([]int, len(q.Choices))
	for _, a := range answers {
		switch {
		case a.Choice != nil && *a.Choice >= 0 && *a.Choice < len(counts):
			s.Count++
			counts[*a.Choice]++
		case a.Text != "":
			s.Count++
			s.OtherCount++
		}
	}
	for i, label := range q.Choices {
		s.ChoiceCounts = append(s.ChoiceCounts, ChoiceCount{Label: label, Count: counts[i]})
	}
	return s
}

func summarizeCheckbox(q Question, answers []Answer) Summary {
	s := Summary{QuestionID: q.ID, Type: q.Type}
	counts := make([]int, len(q.Choices))
	var selections int
	for _, a := range answers {
		if len(a.Choices) == 0 {
			continue
		}
		s.Count++
		for _, c := range a.Choices {
			if c >= 0 && c < len(counts) {
				counts[c]++
				selections++
			}
		}
	}
	for i, label := range q.Choices {
		s.ChoiceCounts = append(s.ChoiceCounts, ChoiceCount{Label: label, Count: counts[i]})
	}
	if s.Count > 0 {
		s.AvgSelections = float64(selections) / float64(s.Count)
	}
	return s
}

func summarizeOpenText(q Question, answers []Answer) Summary {
	s := Summary{QuestionID: q.ID, Type: q.Type}
	for _, a := range answers {
		if a.Text == "" {
			continue
		}
		s.Count++
		s.Texts = append(s.Texts, a.Text)
	}
	return s
}

func summarizeMatrix(q Question, answers []Answer) Summary {
	s := Summary{QuestionID: q.ID, Type: q.Type, ColumnDistribution: map[int]int{}}

	byRow := map[string][]float64{}
	responders := map[string]bool{}
	for _, a := range answers {
		if a.Number == nil || a.Row == "" {
			continue
		}
		byRow[a.Row] = append(byRow[a.Row], *a.Number)
		responders[a.ResponseID] = true
		s.ColumnDistribution[int(math.Round(*a.Number))]++
	}
	s.Count = len(responders)

	// Preserve the declared row order; rows nobody answered still
	// appear with a zero count.
	rows := q.Rows
	if len(rows) == 0 {
		for r := range byRow {
			rows = append(rows, r)
		}
		sort.Strings(rows)
	}

	var rowMeanSum float64
	var scoredRows int
	for _, row := range rows {
		values := byRow[row]
		rs := MatrixRowSummary{Row: row, Count: len(values), Distribution: map[int]int{}}
		if len(values) > 0 {
			var sum float64
			for _, v := range values {
				sum += v
				rs.Distribution[int(math.Round(v))]++
			}
			rs.Average = sum / float64(len(values))
			rowMeanSum += rs.Average
			scoredRows++
		}
		s.Rows = append(s.Rows, rs)
	}
	if scoredRows > 0 {
		overall := rowMeanSum / float64(scoredRows)
		s.Average = &overall
	}
	return s
}
