package cloudevents

import (
	"time"
)

// EventType constants for POS domain events
const (
	SaleCompleted = "pos.sale.completed"
	SaleCancelled = "pos.sale.cancelled"
	ReturnCreated = "pos.return.created"

	InventoryAdjusted = "pos.inventory.adjusted"
	LowStockAlert     = "pos.inventory.low-stock-alert"
)

// Source constants for event sources
const (
	SourcePOS       = "/pos/pos-api"
	SourceInventory = "/pos/inventory-worker"
)

// POSCloudEvent represents a CloudEvents v1.0 compliant event
type POSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// POS-specific extensions
	CorrelationID string `json:"poscorrelationid,omitempty"`
	StoreID       string `json:"posstoreid,omitempty"`

	// W3C trace context
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}
