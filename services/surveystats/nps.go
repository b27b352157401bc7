// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package surveystats

import "math"

// NPSScore computes a Net Promoter Score from 0-10 responses:
// round(((promoters - detractors) / total) * 100), where promoters
// score >= 9 and detractors <= 6. Always in [-100, 100]; 0 for an
// empty set.
func NPSScore(values []int) int {
	if len(values) == 0 {
		return 0
	}
	seg := npsSegments(values)
	return int(math.Round(float64(seg.Promoters-seg.Detractors) / float64(len(values)) * 100))
}

func npsSegments(values []int) *NPSSegments {
	seg := &NPSSegments{}
	for _, v := range values {
		switch {
		case v >= 9:
			seg.Promoters++
		case v <= 6:
			seg.Detractors++
		default:
			seg.Passives++
		}
	}
	return seg
}
