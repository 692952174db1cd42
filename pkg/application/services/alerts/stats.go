package alerts

import (
	"time"

	"github.com/retailops/shelfwatch/pkg/domain/entities"
)

// Stats aggregates a collection of alerts for dashboard summary tiles.
type Stats struct {
	Total          int                        `json:"total"`
	Unacknowledged int                        `json:"unacknowledged"`
	Acknowledged   int                        `json:"acknowledged"`
	Urgent         int                        `json:"urgent"`
	ByType         map[entities.AlertType]int `json:"byType"`
	BySeverity     map[entities.Severity]int  `json:"bySeverity"`
}

// ComputeStats reduces alerts into summary counts. The counts are consistent
// with the per-alert classifiers: type counts sum to the total and the urgent
// count equals the number of alerts for which IsUrgent holds.
func ComputeStats(alerts []entities.Alert, now time.Time) Stats {
	stats := Stats{
		Total:      len(alerts),
		ByType:     make(map[entities.AlertType]int),
		BySeverity: make(map[entities.Severity]int),
	}
	for _, a := range alerts {
		if a.Acknowledged {
			stats.Acknowledged++
		} else {
			stats.Unacknowledged++
		}
		if IsUrgent(a, now) {
			stats.Urgent++
		}
		stats.ByType[a.Type]++
		stats.BySeverity[ComputeSeverity(a, now)]++
	}
	return stats
}
