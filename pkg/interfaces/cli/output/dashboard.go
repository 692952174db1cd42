// Package output renders store snapshots as a terminal dashboard.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/retailops/shelfwatch/pkg/application/services/alerts"
	"github.com/retailops/shelfwatch/pkg/application/services/reconcile"
	"github.com/retailops/shelfwatch/pkg/domain/entities"
	"github.com/retailops/shelfwatch/pkg/infrastructure/store"
)

const maxAlertRows = 10

// RenderDashboard writes the shelf grid, the most urgent alerts, and summary
// counters for one state snapshot.
func RenderDashboard(w io.Writer, state store.State, stats reconcile.Stats, now time.Time) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  SHELFWATCH  %s\n", now.Format("15:04:05"))
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════════")

	fmt.Fprintln(w, "\n🗄  SHELVES")
	for _, shelf := range state.Shelves {
		scanning := ""
		if state.ScanningShelfID == shelf.ID {
			scanning = "  (scanning…)"
		}
		fmt.Fprintf(w, "  %s %-4s %-8s items: %d  last scan: %s%s\n",
			statusGlyph(shelf.Status),
			shelf.ID,
			shelf.Status,
			len(shelf.Items),
			shelf.LastScanned.Format("15:04:05"),
			scanning)
	}

	visible := alerts.Process(state.Alerts, state.Filter, now)
	fmt.Fprintf(w, "\n🔔 ALERTS (%d", len(visible))
	if len(visible) > maxAlertRows {
		fmt.Fprintf(w, ", showing %d", maxAlertRows)
	}
	fmt.Fprintln(w, ")")
	for i, alert := range visible {
		if i == maxAlertRows {
			break
		}
		ack := " "
		if alert.Acknowledged {
			ack = "✓"
		}
		fmt.Fprintf(w, "  [%s] %-5s %-8s %-20s shelf %-4s age %s\n",
			ack,
			alert.Type,
			alerts.ComputeSeverity(alert, now),
			alert.Product,
			alert.ShelfID,
			formatAge(alert.Age(now)))
	}

	alertStats := alerts.ComputeStats(state.Alerts, now)
	fmt.Fprintf(w, "\n📊 total: %d  open: %d  urgent: %d  applied scans: %d  stale: %d  invalid: %d\n",
		alertStats.Total,
		alertStats.Unacknowledged,
		alertStats.Urgent,
		stats.Applied,
		stats.StaleObserved,
		stats.DroppedInvalid)

	if state.Err != "" {
		fmt.Fprintf(w, "\n⚠️  %s\n", state.Err)
	}
	fmt.Fprintln(w)
}

func statusGlyph(status entities.ShelfStatus) string {
	switch status {
	case entities.StatusEmpty:
		return "🟥"
	case entities.StatusLow:
		return "🟨"
	default:
		return "🟩"
	}
}

func formatAge(age time.Duration) string {
	if age < 0 {
		age = 0
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm", int(age.Minutes()))
	}
	return fmt.Sprintf("%dh%dm", int(age.Hours()), int(age.Minutes())%60)
}
