package domain

import "strconv"

// FormatMinorUnits renders an amount in integer minor currency units
// as whole dollars with digit grouping, e.g. 1500000 -> "$15,000".
func FormatMinorUnits(amount int64) string {
	dollars := amount / 100
	if dollars < 0 {
		return "-$" + GroupInt(-dollars)
	}
	return "$" + GroupInt(dollars)
}

// GroupInt renders a non-negative integer with comma thousands
// separators.
func GroupInt(v int64) string {
	s := strconv.FormatInt(v, 10)
	n := len(s)
	if n <= 3 {
		return s
	}
	out := make([]byte, 0, n+(n-1)/3)
	for i := 0; i < n; i++ {
		if i > 0 && (n-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out)
}
