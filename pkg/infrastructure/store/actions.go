package store

import (
	"time"

	"github.com/retailops/shelfwatch/pkg/application/services/alerts"
	"github.com/retailops/shelfwatch/pkg/domain/entities"
)

// Action is the closed set of state transitions. Only types in this package
// implement it, so the reducer can match exhaustively.
type Action interface {
	isAction()
}

// Initialize seeds the store with generated shelves and alerts.
type Initialize struct {
	Shelves []entities.Shelf
	Alerts  []entities.Alert
}

// ShelvesLoading marks the start of a shelf fetch.
type ShelvesLoading struct{}

// ShelvesLoaded replaces all shelves and clears the loading flag.
type ShelvesLoaded struct {
	Shelves []entities.Shelf
}

// ShelvesLoadFailed records a shelf fetch error.
type ShelvesLoadFailed struct {
	Err string
}

// UpsertShelf replaces the shelf with a matching id, or appends it.
type UpsertShelf struct {
	Shelf entities.Shelf
}

// ReplaceShelves swaps in a whole new shelf set.
type ReplaceShelves struct {
	Shelves []entities.Shelf
}

// AlertsLoading marks the start of an alert fetch.
type AlertsLoading struct{}

// AlertsLoaded replaces all alerts and clears the loading flag.
type AlertsLoaded struct {
	Alerts []entities.Alert
}

// AlertsLoadFailed records an alert fetch error.
type AlertsLoadFailed struct {
	Err string
}

// AddAlert appends one alert.
type AddAlert struct {
	Alert entities.Alert
}

// AcknowledgeAlert soft-resolves one alert by id.
type AcknowledgeAlert struct {
	ID string
}

// RemoveAlert deletes one alert by id.
type RemoveAlert struct {
	ID string
}

// ReplaceAlerts swaps in a whole new alert set.
type ReplaceAlerts struct {
	Alerts []entities.Alert
}

// SelectShelf sets the selected shelf; an empty id deselects.
type SelectShelf struct {
	ID string
}

// SetFilter replaces the alert filter options.
type SetFilter struct {
	Filter alerts.Options
}

// ClearFilter resets the filter options to their zero value.
type ClearFilter struct{}

// MarkRestocked increments the named product's count by one on the shelf,
// recomputes the shelf status, and removes the alerts for that shelf and
// product pair.
type MarkRestocked struct {
	ShelfID string
	Product string
}

// RequestRescan stamps the shelf's LastScanned and flags it as scanning until
// the next upsert for that shelf lands.
type RequestRescan struct {
	ShelfID string
	At      time.Time
}

// SetError records a user-visible error string.
type SetError struct {
	Err string
}

// ClearError dismisses the user-visible error.
type ClearError struct{}

func (Initialize) isAction()        {}
func (ShelvesLoading) isAction()    {}
func (ShelvesLoaded) isAction()     {}
func (ShelvesLoadFailed) isAction() {}
func (UpsertShelf) isAction()       {}
func (ReplaceShelves) isAction()    {}
func (AlertsLoading) isAction()     {}
func (AlertsLoaded) isAction()      {}
func (AlertsLoadFailed) isAction()  {}
func (AddAlert) isAction()          {}
func (AcknowledgeAlert) isAction()  {}
func (RemoveAlert) isAction()       {}
func (ReplaceAlerts) isAction()     {}
func (SelectShelf) isAction()       {}
func (SetFilter) isAction()         {}
func (ClearFilter) isAction()       {}
func (MarkRestocked) isAction()     {}
func (RequestRescan) isAction()     {}
func (SetError) isAction()          {}
func (ClearError) isAction()        {}
