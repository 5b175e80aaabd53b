// Package model holds the records exchanged with the restaurant API.
package model

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tableside/console/internal/enum"
	"github.com/tableside/console/internal/workflow"
)

// Category groups menu items.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MenuItem is a dish or drink on the menu.
type MenuItem struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Img        string          `json:"img,omitempty"`
	CategoryID *int64          `json:"category_id"`
	Category   *Category       `json:"category,omitempty"`
}

// CategoryName returns the category name, or NoCategory when the item has
// none or references a category that no longer exists.
func (m MenuItem) CategoryName() string {
	if m.Category == nil || m.Category.Name == "" {
		return enum.NoCategory
	}
	return m.Category.Name
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ID       int64    `json:"id"`
	ItemID   int64    `json:"item_id"`
	Quantity int      `json:"quantity"`
	Item     MenuItem `json:"item"`
}

// LineTotal is price x quantity, for display only.
func (oi OrderItem) LineTotal() decimal.Decimal {
	return oi.Item.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// Order is a table's order as reported by the API. TotalPrice is fixed at
// creation time and is never recomputed here.
type Order struct {
	ID         int64           `json:"id"`
	Table      string          `json:"table"`
	Items      []OrderItem     `json:"order_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     workflow.Status `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewOrderLine is one line of a customer's order request.
type NewOrderLine struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// NewOrder is the body of POST orders.
type NewOrder struct {
	Table string         `json:"table"`
	Items []NewOrderLine `json:"items"`
}
