package events

import "github.com/retailops/shelfwatch/pkg/domain/entities"

const (
	ShelfUpdatedEvent    = "shelf.updated"
	ShelvesReplacedEvent = "shelves.replaced"
	RescanRequestedEvent = "shelf.rescan.requested"
	RestockAppliedEvent  = "shelf.restock.applied"

	AlertAddedEvent        = "alert.added"
	AlertAcknowledgedEvent = "alert.acknowledged"
	AlertRemovedEvent      = "alert.removed"
	AlertsReplacedEvent    = "alerts.replaced"
)

// Per-shelf events use the shelf id as their stream; collection-wide events
// use these synthetic streams.
const (
	AlertsStream  = "alerts"
	ShelvesStream = "shelves"
)

type ShelfUpdated struct {
	Shelf entities.Shelf `json:"shelf"`
}

type ShelvesReplaced struct {
	Count int `json:"count"`
}

type RescanRequested struct {
	ShelfID string `json:"shelf"`
}

type RestockApplied struct {
	ShelfID string `json:"shelf"`
	Product string `json:"product"`
}

type AlertAdded struct {
	Alert entities.Alert `json:"alert"`
}

type AlertAcknowledged struct {
	AlertID string `json:"alert_id"`
}

type AlertRemoved struct {
	AlertID string `json:"alert_id"`
}

type AlertsReplaced struct {
	Count int `json:"count"`
}
