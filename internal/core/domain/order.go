package domain

import "encoding/json"

// OrderStatus is the lifecycle state of an order as reported by the server.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderItem is one line of an order.
type OrderItem struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name,omitempty"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// Order is the payload of a new-order emission.
type Order struct {
	ID          string      `json:"id,omitempty"`
	TableID     string      `json:"tableId,omitempty"`
	TableNumber int         `json:"tableNumber,omitempty"`
	Items       []OrderItem `json:"items"`
	Notes       string      `json:"notes,omitempty"`
}

// OrderCancellation is the payload of an order-cancelled emission.
type OrderCancellation struct {
	OrderID     string `json:"orderId"`
	TableNumber int    `json:"tableNumber"`
}

// CustomerRequest is a call for staff from a table.
type CustomerRequest struct {
	TableID string `json:"tableId,omitempty"`
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// OrderStatusChange is delivered on order-status-changed.
type OrderStatusChange struct {
	OrderID   string      `json:"orderId"`
	Status    OrderStatus `json:"status"`
	TableID   string      `json:"tableId,omitempty"`
	UpdatedAt int64       `json:"updatedAt,omitempty"`
}

// KitchenUpdate is delivered on kitchen-update.
type KitchenUpdate struct {
	OrderID string          `json:"orderId,omitempty"`
	Station string          `json:"station,omitempty"`
	Status  OrderStatus     `json:"status,omitempty"`
	Extra   json.RawMessage `json:"extra,omitempty"`
}

// OrderReadyNotice is delivered on order-ready.
type OrderReadyNotice struct {
	OrderID     string `json:"orderId"`
	TableNumber int    `json:"tableNumber,omitempty"`
}

// TableStatus is delivered on table-status-update.
type TableStatus struct {
	TableID string `json:"tableId"`
	Status  string `json:"status"`
}

// MenuChange is delivered on menu-changed.
type MenuChange struct {
	ItemIDs   []string `json:"itemIds,omitempty"`
	Available *bool    `json:"available,omitempty"`
}
