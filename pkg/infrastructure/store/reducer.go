// Package store owns the authoritative application state. All mutation flows
// through a pure reducer applied one action at a time; consumers observe
// snapshots through a non-blocking subscriber interface.
package store

import (
	"github.com/retailops/shelfwatch/pkg/application/services/alerts"
	"github.com/retailops/shelfwatch/pkg/domain/entities"
)

// State is the complete application state. Transitions never mutate a prior
// State value; slices are replaced, not patched.
type State struct {
	Shelves         []entities.Shelf
	Alerts          []entities.Alert
	LoadingShelves  bool
	LoadingAlerts   bool
	ScanningShelfID string
	Err             string
	SelectedShelfID string
	Filter          alerts.Options
}

// Apply is the reducer: a pure function from (state, action) to the next
// state. Unknown actions pass the state through unchanged.
func Apply(state State, action Action) State {
	switch a := action.(type) {
	case Initialize:
		state.Shelves = cloneShelves(a.Shelves)
		state.Alerts = cloneAlertList(a.Alerts)
		state.LoadingShelves = false
		state.LoadingAlerts = false
		state.Err = ""
		return state

	case ShelvesLoading:
		state.LoadingShelves = true
		return state

	case ShelvesLoaded:
		state.Shelves = cloneShelves(a.Shelves)
		state.LoadingShelves = false
		return state

	case ShelvesLoadFailed:
		state.LoadingShelves = false
		state.Err = a.Err
		return state

	case UpsertShelf:
		state.Shelves = upsertShelf(state.Shelves, a.Shelf)
		if state.ScanningShelfID == a.Shelf.ID {
			state.ScanningShelfID = ""
		}
		return state

	case ReplaceShelves:
		state.Shelves = cloneShelves(a.Shelves)
		return state

	case AlertsLoading:
		state.LoadingAlerts = true
		return state

	case AlertsLoaded:
		state.Alerts = cloneAlertList(a.Alerts)
		state.LoadingAlerts = false
		return state

	case AlertsLoadFailed:
		state.LoadingAlerts = false
		state.Err = a.Err
		return state

	case AddAlert:
		next := make([]entities.Alert, 0, len(state.Alerts)+1)
		next = append(next, state.Alerts...)
		state.Alerts = append(next, a.Alert)
		return state

	case AcknowledgeAlert:
		next := cloneAlertList(state.Alerts)
		for i := range next {
			if next[i].ID == a.ID {
				next[i].Acknowledged = true
			}
		}
		state.Alerts = next
		return state

	case RemoveAlert:
		next := make([]entities.Alert, 0, len(state.Alerts))
		for _, alert := range state.Alerts {
			if alert.ID != a.ID {
				next = append(next, alert)
			}
		}
		state.Alerts = next
		return state

	case ReplaceAlerts:
		state.Alerts = cloneAlertList(a.Alerts)
		return state

	case SelectShelf:
		state.SelectedShelfID = a.ID
		return state

	case SetFilter:
		state.Filter = a.Filter
		return state

	case ClearFilter:
		state.Filter = alerts.Options{}
		return state

	case MarkRestocked:
		return applyRestock(state, a)

	case RequestRescan:
		next := cloneShelves(state.Shelves)
		for i := range next {
			if next[i].ID == a.ShelfID {
				next[i].LastScanned = a.At
			}
		}
		state.Shelves = next
		state.ScanningShelfID = a.ShelfID
		return state

	case SetError:
		state.Err = a.Err
		return state

	case ClearError:
		state.Err = ""
		return state

	default:
		return state
	}
}

func applyRestock(state State, a MarkRestocked) State {
	nextShelves := cloneShelves(state.Shelves)
	for i := range nextShelves {
		if nextShelves[i].ID != a.ShelfID {
			continue
		}
		items := entities.CloneProducts(nextShelves[i].Items)
		for j := range items {
			if items[j].Name == a.Product {
				items[j].Count++
			}
		}
		nextShelves[i] = nextShelves[i].WithItems(items, nextShelves[i].LastScanned)
	}
	state.Shelves = nextShelves

	// Restock clears the underlying condition, so acknowledged alerts for the
	// pair go too.
	nextAlerts := make([]entities.Alert, 0, len(state.Alerts))
	for _, alert := range state.Alerts {
		if alert.Matches(a.ShelfID, a.Product) {
			continue
		}
		nextAlerts = append(nextAlerts, alert)
	}
	state.Alerts = nextAlerts
	return state
}

func upsertShelf(shelves []entities.Shelf, shelf entities.Shelf) []entities.Shelf {
	next := cloneShelves(shelves)
	for i := range next {
		if next[i].ID == shelf.ID {
			next[i] = shelf
			return next
		}
	}
	return append(next, shelf)
}

func cloneShelves(shelves []entities.Shelf) []entities.Shelf {
	out := make([]entities.Shelf, len(shelves))
	copy(out, shelves)
	return out
}

func cloneAlertList(alerts []entities.Alert) []entities.Alert {
	out := make([]entities.Alert, len(alerts))
	copy(out, alerts)
	return out
}
