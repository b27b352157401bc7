// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatValue renders a metric value for display according to its unit.
//
//	FormatValue(42, "currency") == "$42.00"
//	FormatValue(42, "percent")  == "42%"
//	FormatValue(42.5, "number") == "42.5"
//
// Unknown units render like "number".
func FormatValue(v float64, unit string) string {
	switch unit {
	case "currency":
		return fmt.Sprintf("$%.2f", v)
	case "percent":
		return trimDecimal(v) + "%"
	default:
		return trimDecimal(v)
	}
}

// trimDecimal formats with up to two decimals and strips trailing
// zeros, so 42.00 renders as "42" and 42.50 as "42.5".
func trimDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
