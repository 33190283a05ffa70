package service

import "sort"

// BestKAverage returns the arithmetic mean of the k highest percentages.
// A nil k counts every entry; an empty input yields 0. Callers feed only
// present, graded marks; absent or ungraded tests are excluded from both
// numerator and denominator rather than counted as zero.
func BestKAverage(percentages []float64, k *int) float64 {
	if len(percentages) == 0 {
		return 0
	}

	sorted := make([]float64, len(percentages))
	copy(sorted, percentages)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	count := len(sorted)
	if k != nil && *k < count {
		count = *k
	}
	if count <= 0 {
		return 0
	}

	var total float64
	for _, pct := range sorted[:count] {
		total += pct
	}

	return total / float64(count)
}

// AttendanceGradeContribution converts an attendance percentage into grade
// marks on a stepped scale, out of a maximum of credit*10 points. The steps
// are half-open on the lower bound.
func AttendanceGradeContribution(attendancePercentage, courseCredit float64) float64 {
	maxPoints := courseCredit * 10

	switch {
	case attendancePercentage < 60:
		return 0
	case attendancePercentage < 70:
		return maxPoints * 0.2
	case attendancePercentage < 80:
		return maxPoints * 0.4
	case attendancePercentage < 90:
		return maxPoints * 0.6
	case attendancePercentage < 95:
		return maxPoints * 0.8
	default:
		return maxPoints
	}
}
