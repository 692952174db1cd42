package alerts

import (
	"strings"
	"time"

	"github.com/retailops/shelfwatch/pkg/domain/entities"
)

// SortKey selects the ordering Process applies after filtering.
type SortKey int

const (
	SortPriority SortKey = iota
	SortNewest
	SortShelf
	SortProduct
)

func (k SortKey) String() string {
	switch k {
	case SortPriority:
		return "priority"
	case SortNewest:
		return "newest"
	case SortShelf:
		return "shelf"
	case SortProduct:
		return "product"
	default:
		return "unknown"
	}
}

// DateRange restricts alerts to a rolling window ending now.
type DateRange int

const (
	RangeAll DateRange = iota
	RangeToday
	RangeWeek
	RangeMonth
)

func (r DateRange) String() string {
	switch r {
	case RangeAll:
		return "all"
	case RangeToday:
		return "today"
	case RangeWeek:
		return "week"
	case RangeMonth:
		return "month"
	default:
		return "unknown"
	}
}

// Options configures Process. Zero value means no filtering, sorted by
// priority. The filters are independent predicates, so the outcome does not
// depend on application order.
type Options struct {
	// Types keeps only alerts whose type is in the set; empty means all.
	Types []entities.AlertType
	// Acknowledged keeps only alerts matching the flag when non-nil.
	Acknowledged *bool
	// Range keeps only alerts newer than the window cutoff.
	Range DateRange
	// Search keeps alerts whose product name or shelf id contains the text,
	// case-insensitively.
	Search string
	// Severities keeps only alerts whose severity is in the set; empty means all.
	Severities []entities.Severity
	// SortBy selects the final ordering.
	SortBy SortKey
}

// Process applies every configured filter and then exactly one sort.
// Re-applying Process with identical options is a no-op on content.
func Process(alerts []entities.Alert, opts Options, now time.Time) []entities.Alert {
	out := make([]entities.Alert, 0, len(alerts))
	for _, a := range alerts {
		if matches(a, opts, now) {
			out = append(out, a)
		}
	}

	switch opts.SortBy {
	case SortNewest:
		return SortByNewest(out)
	case SortShelf:
		return SortByShelf(out)
	case SortProduct:
		return SortByProduct(out)
	default:
		return SortByPriority(out, now)
	}
}

func matches(a entities.Alert, opts Options, now time.Time) bool {
	if len(opts.Types) > 0 && !containsType(opts.Types, a.Type) {
		return false
	}
	if opts.Acknowledged != nil && a.Acknowledged != *opts.Acknowledged {
		return false
	}
	if cutoff, bounded := rangeCutoff(opts.Range, now); bounded && a.Timestamp.Before(cutoff) {
		return false
	}
	if opts.Search != "" && !matchesSearch(a, opts.Search) {
		return false
	}
	if len(opts.Severities) > 0 && !containsSeverity(opts.Severities, ComputeSeverity(a, now)) {
		return false
	}
	return true
}

// rangeCutoff computes the window start at call time: today is midnight in
// now's location, week and month are rolling 7 and 30 day windows.
func rangeCutoff(r DateRange, now time.Time) (time.Time, bool) {
	switch r {
	case RangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case RangeWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case RangeMonth:
		return now.Add(-30 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

func matchesSearch(a entities.Alert, search string) bool {
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(a.Product), needle) ||
		strings.Contains(strings.ToLower(a.ShelfID), needle)
}

func containsType(set []entities.AlertType, t entities.AlertType) bool {
	for _, candidate := range set {
		if candidate == t {
			return true
		}
	}
	return false
}

func containsSeverity(set []entities.Severity, s entities.Severity) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}
