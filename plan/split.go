package plan

import "time"

// SplitWheelRanges logically partitions range into the maximal sequence of
// non-overlapping sub-ranges, each aligned to and contained within a single
// granularity's slot boundaries, suitable for a CombinedAggregation plan.
//
// This corrects a calendar bug: the original implementation advanced a
// day-granularity boundary by a hardcoded `31 - day` duration, which both
// overshoots for months shorter than 31 days and can leave current_start
// stuck past end for some start dates. Alignment to the next calendar
// month boundary here uses time.Time's own calendar arithmetic instead.
func SplitWheelRanges(r Range) []Range {
	var ranges []Range
	currentStart := r.Start
	for currentStart.Before(r.End) {
		currentEnd := nextAlignedEnd(currentStart, r.End)
		ranges = append(ranges, Range{Start: currentStart, End: currentEnd})
		currentStart = currentEnd
	}
	return ranges
}

// nextAlignedEnd returns the next granularity-aligned boundary strictly
// after start, clamped to end.
func nextAlignedEnd(start, end time.Time) time.Time {
	second := start.Second()
	minute := start.Minute()
	hour := start.Hour()
	day := start.Day()

	var next time.Time
	switch {
	case second > 0:
		next = start.Add(time.Duration(60-second) * time.Second)
	case minute > 0:
		next = start.Add(time.Duration(60-minute) * time.Minute)
	case hour > 0:
		next = start.Add(time.Duration(24-hour) * time.Hour)
	case day != 1:
		// advance to the first of next calendar month; AddDate normalizes
		// correctly regardless of the current month's length.
		next = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location()).AddDate(0, 1, 0)
	default:
		panic("plan: weeks and years granularity ranges are not supported")
	}

	if next.After(end) {
		return clampToCoarsestRemaining(start, end)
	}
	return next
}

// clampToCoarsestRemaining jumps from start by the coarsest whole unit that
// still fits within [start, end), so the splitter converges in a bounded
// number of iterations even when the naive next-boundary jump overshoots.
func clampToCoarsestRemaining(start, end time.Time) time.Time {
	rem := end.Sub(start)

	remSecs := int64(rem / time.Second)
	remMins := int64(rem / time.Minute)
	remHours := int64(rem / time.Hour)
	remDays := int64(rem / (24 * time.Hour))

	switch {
	case remDays > 0:
		return start.Add(time.Duration(remDays) * 24 * time.Hour)
	case remHours > 0:
		return start.Add(time.Duration(remHours) * time.Hour)
	case remMins > 0:
		return start.Add(time.Duration(remMins) * time.Minute)
	case remSecs > 0:
		return start.Add(time.Duration(remSecs) * time.Second)
	default:
		return end
	}
}
