package service

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tableside/console/internal/api"
	"github.com/tableside/console/internal/model"
)

// PlaceOrderFailed is shown when the API rejects an order without a message.
const PlaceOrderFailed = "Failed to place order."

// MenuAPI is the slice of the API client the customer view uses.
type MenuAPI interface {
	ListItems(ctx context.Context) ([]model.MenuItem, error)
	PlaceOrder(ctx context.Context, o model.NewOrder) error
}

// CustomerMenu is the per-table ordering view. Each table keeps its own
// quantity counters.
type CustomerMenu struct {
	api MenuAPI
	log logrus.FieldLogger

	mu    sync.Mutex
	items []model.MenuItem
	carts map[string]map[int64]int
}

// NewCustomerMenu creates the controller.
func NewCustomerMenu(menu MenuAPI, log logrus.FieldLogger) *CustomerMenu {
	return &CustomerMenu{
		api:   menu,
		log:   log.WithField("view", "customer"),
		carts: make(map[string]map[int64]int),
	}
}

// Load fetches the menu. Quantities already chosen for items that are still
// on the menu are kept.
func (m *CustomerMenu) Load(ctx context.Context) error {
	items, err := m.api.ListItems(ctx)
	if err != nil {
		m.log.WithError(err).Warn("failed to load menu")
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
	for _, cart := range m.carts {
		for id := range cart {
			if m.indexOf(id) < 0 {
				delete(cart, id)
			}
		}
	}
	return nil
}

// indexOf finds an item by id. Caller holds m.mu.
func (m *CustomerMenu) indexOf(id int64) int {
	return slices.IndexFunc(m.items, func(it model.MenuItem) bool { return it.ID == id })
}

// MenuRow is a menu item with the table's chosen quantity.
type MenuRow struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Img          string          `json:"img"`
	CategoryName string          `json:"category_name"`
	Quantity     int             `json:"quantity"`
}

// MenuView is the customer page for one table.
type MenuView struct {
	Table string          `json:"table"`
	Items []MenuRow       `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// View renders the menu for table.
func (m *CustomerMenu) View(table string) MenuView {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart := m.carts[table]
	v := MenuView{Table: table, Items: make([]MenuRow, 0, len(m.items)), Total: decimal.Zero}
	for _, it := range m.items {
		qty := cart[it.ID]
		v.Items = append(v.Items, MenuRow{
			ID:           it.ID,
			Name:         it.Name,
			Price:        it.Price,
			Img:          it.Img,
			CategoryName: it.CategoryName(),
			Quantity:     qty,
		})
		v.Total = v.Total.Add(it.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return v
}

// Increase adds one of itemID to table's selection and returns the new
// quantity.
func (m *CustomerMenu) Increase(table string, itemID int64) (int, error) {
	return m.adjust(table, itemID, 1)
}

// Decrease removes one of itemID. Quantities never go below zero.
func (m *CustomerMenu) Decrease(table string, itemID int64) (int, error) {
	return m.adjust(table, itemID, -1)
}

func (m *CustomerMenu) adjust(table string, itemID int64, delta int) (int, error) {
	if strings.TrimSpace(table) == "" {
		return 0, ErrTableRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(itemID) < 0 {
		return 0, ErrItemNotFound
	}
	cart := m.carts[table]
	if cart == nil {
		cart = make(map[int64]int)
		m.carts[table] = cart
	}
	qty := max(cart[itemID]+delta, 0)
	if qty == 0 {
		delete(cart, itemID)
	} else {
		cart[itemID] = qty
	}
	return qty, nil
}

// PlaceOrder submits table's selection. Only items with a positive quantity
// are sent; on success every quantity is reset.
func (m *CustomerMenu) PlaceOrder(ctx context.Context, table string) error {
	if strings.TrimSpace(table) == "" {
		return ErrTableRequired
	}

	m.mu.Lock()
	order := model.NewOrder{Table: table}
	for _, it := range m.items {
		if qty := m.carts[table][it.ID]; qty > 0 {
			order.Items = append(order.Items, model.NewOrderLine{ItemID: it.ID, Quantity: qty})
		}
	}
	m.mu.Unlock()

	if len(order.Items) == 0 {
		return ErrEmptyOrder
	}

	log := m.log.WithFields(logrus.Fields{"table": table, "lines": len(order.Items)})
	if err := m.api.PlaceOrder(ctx, order); err != nil {
		log.WithError(err).Warn("order rejected")
		return &MutationError{Message: api.Message(err, PlaceOrderFailed), Err: err}
	}
	log.Info("order placed")

	m.mu.Lock()
	delete(m.carts, table)
	m.mu.Unlock()
	return nil
}
