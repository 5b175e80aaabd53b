package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tableside/console/internal/api"
	"github.com/tableside/console/internal/board"
	"github.com/tableside/console/internal/enum"
	"github.com/tableside/console/internal/model"
	"github.com/tableside/console/internal/notify"
	"github.com/tableside/console/internal/push"
	"github.com/tableside/console/internal/store"
	"github.com/tableside/console/internal/workflow"
)

// NewOrderMessage is shown when a pushed order arrives.
const NewOrderMessage = "You have a new order"

type actionMessages struct {
	success  string
	fallback string
}

var messages = map[workflow.Action]actionMessages{
	workflow.ActionConfirm:       {"Order confirmed successfully!", "Failed to confirm order."},
	workflow.ActionStartDelivery: {"Delivery started successfully!", "Failed to start delivery."},
	workflow.ActionComplete:      {"Delivery completed successfully!", "Failed to complete delivery."},
	workflow.ActionMarkPaid:      {"Order marked as paid!", "Failed to mark as paid."},
	workflow.ActionCancel:        {"Order cancelled successfully!", "Failed to cancel order."},
}

// OrderAPI is the slice of the API client the staff board uses.
type OrderAPI interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	Transition(ctx context.Context, id int64, a workflow.Action) (model.Order, error)
}

// Subscriber delivers push events until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, channel, event string, h push.Handler) error
}

// StaffBoardConfig names the push subscription.
type StaffBoardConfig struct {
	Channel string
	Event   string
}

// StaffBoard is the staff view controller. It owns the order collection;
// the push subscription and the re-fetch after a mutation are its only
// writers.
type StaffBoard struct {
	feedback
	api    OrderAPI
	sub    Subscriber
	cfg    StaffBoardConfig
	orders *store.Orders

	mu            sync.Mutex
	query         board.Query
	mounted       bool
	pendingCancel int64
	stop          context.CancelFunc
	done          chan struct{}
}

// NewStaffBoard creates an unmounted board.
func NewStaffBoard(orders OrderAPI, session SessionCloser, sub Subscriber, n notify.Notifier, cfg StaffBoardConfig, log logrus.FieldLogger) *StaffBoard {
	if cfg.Channel == "" {
		cfg.Channel = enum.PushChannelOrders
	}
	if cfg.Event == "" {
		cfg.Event = enum.PushEventNewOrder
	}
	return &StaffBoard{
		feedback: feedback{session: session, notify: n, log: log.WithField("view", "staff")},
		api:      orders,
		sub:      sub,
		cfg:      cfg,
		orders:   store.New(),
		query:    board.NewQuery(),
	}
}

// Mount loads the orders and starts the push subscription. Mounting an
// already mounted board is a no-op.
func (b *StaffBoard) Mount(ctx context.Context) error {
	b.mu.Lock()
	if b.mounted {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	if err := b.Refresh(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mounted {
		return nil
	}
	subCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	b.stop, b.done, b.mounted = cancel, done, true

	go func() {
		defer close(done)
		if err := b.sub.Subscribe(subCtx, b.cfg.Channel, b.cfg.Event, b.Ingest); err != nil {
			b.log.WithError(err).Error("push subscription ended")
		}
	}()
	b.log.WithField("orders", b.orders.Len()).Info("staff board mounted")
	return nil
}

// Unmount stops the subscription and discards the board state.
func (b *StaffBoard) Unmount() {
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	stop, done := b.stop, b.done
	b.mounted, b.stop, b.done = false, nil, nil
	b.query = board.NewQuery()
	b.pendingCancel = 0
	b.mu.Unlock()

	stop()
	<-done
	b.orders.Clear()
	b.log.Info("staff board unmounted")
}

// Mounted reports whether the board is live.
func (b *StaffBoard) Mounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mounted
}

// Refresh re-fetches every order. A failure ends the session.
func (b *StaffBoard) Refresh(ctx context.Context) error {
	r := b.orders.BeginRefresh()
	list, err := b.api.ListOrders(ctx)
	if err != nil {
		return b.invalidate(err)
	}
	b.orders.Replace(r, list)
	b.notify.Publish(enum.EventOrdersSynced, map[string]int{"count": b.orders.Len()})
	return nil
}

// Ingest merges a pushed order into the board.
func (b *StaffBoard) Ingest(raw json.RawMessage) {
	o, err := api.DecodeOrder(raw)
	if err != nil {
		b.log.WithError(err).Warn("ignoring push payload")
		return
	}
	if !b.orders.Upsert(o) {
		b.log.WithFields(logrus.Fields{"order_id": o.ID, "status": o.Status}).Debug("pushed order is behind local state")
	}
	b.log.WithFields(logrus.Fields{"order_id": o.ID, "table": o.Table}).Info("order received")
	b.notify.Toast(enum.LevelInfo, NewOrderMessage)
	b.notify.Alert()
	b.notify.Publish(enum.EventOrderCreated, newOrderRow(o))
}

// Navigation changes the board query. Nil fields are left alone.
type Navigation struct {
	Tab    *string
	Status *string
	Search *string
	Page   *int
}

// Navigate applies nav to the current query. Values equal to the current
// state are ignored, so resubmitting a form does not reset the page.
func (b *StaffBoard) Navigate(nav Navigation) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := b.query
	if nav.Tab != nil && *nav.Tab != string(q.Bucket) {
		bucket, err := board.ParseBucket(*nav.Tab)
		if err != nil {
			return err
		}
		q = q.WithBucket(bucket)
	}
	if nav.Status != nil && *nav.Status != q.Status {
		status, err := board.ParseStatusFilter(*nav.Status)
		if err != nil {
			return err
		}
		if status != enum.StatusFilterAll && !slices.Contains(q.Bucket.Statuses(), workflow.Status(status)) {
			return fmt.Errorf("%w: %q is not shown on %s", board.ErrInvalidStatusFilter, status, q.Bucket)
		}
		if status != q.Status {
			q = q.WithStatus(status)
		}
	}
	if nav.Search != nil && *nav.Search != q.Search {
		q = q.WithSearch(*nav.Search)
	}
	if nav.Page != nil {
		q = q.WithPage(*nav.Page)
	}
	b.query = q
	return nil
}

// ItemRow is one line of an order as displayed.
type ItemRow struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderRow is an order as displayed on the board.
type OrderRow struct {
	ID          int64             `json:"id"`
	Table       string            `json:"table"`
	Status      workflow.Status   `json:"status"`
	StatusLabel string            `json:"status_label"`
	TotalPrice  decimal.Decimal   `json:"total_price"`
	CreatedAt   time.Time         `json:"created_at"`
	Items       []ItemRow         `json:"items"`
	Actions     []workflow.Action `json:"actions"`
}

func itemRows(items []model.OrderItem) []ItemRow {
	rows := make([]ItemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, ItemRow{
			Name:      it.Item.Name,
			Quantity:  it.Quantity,
			Price:     it.Item.Price,
			LineTotal: it.LineTotal(),
		})
	}
	return rows
}

func newOrderRow(o model.Order) OrderRow {
	actions := workflow.Actions(o.Status)
	if actions == nil {
		actions = []workflow.Action{}
	}
	return OrderRow{
		ID:          o.ID,
		Table:       o.Table,
		Status:      o.Status,
		StatusLabel: o.Status.Label(),
		TotalPrice:  o.TotalPrice,
		CreatedAt:   o.CreatedAt,
		Items:       itemRows(o.Items),
		Actions:     actions,
	}
}

// StatusOption is an entry of the status filter select.
type StatusOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// BoardView is the rendered staff board.
type BoardView struct {
	Query         board.Query    `json:"query"`
	Orders        []OrderRow     `json:"orders"`
	Page          int            `json:"page"`
	TotalPages    int            `json:"total_pages"`
	Total         int            `json:"total"`
	StatusOptions []StatusOption `json:"status_options"`
}

// View renders the current query against the current orders. The stored
// page is clamped to what the result allows.
func (b *StaffBoard) View() BoardView {
	b.mu.Lock()
	defer b.mu.Unlock()

	page := board.Select(b.orders.Snapshot(), b.query)
	b.query.Page = page.Page

	rows := make([]OrderRow, 0, len(page.Items))
	for _, o := range page.Items {
		rows = append(rows, newOrderRow(o))
	}

	opts := []StatusOption{{Value: enum.StatusFilterAll, Label: "All"}}
	for _, s := range b.query.Bucket.Statuses() {
		opts = append(opts, StatusOption{Value: string(s), Label: s.Label()})
	}

	return BoardView{
		Query:         b.query,
		Orders:        rows,
		Page:          page.Page,
		TotalPages:    page.TotalPages,
		Total:         page.Total,
		StatusOptions: opts,
	}
}

// Do applies a staff action to an order. Cancellation goes through
// PrepareCancel and ConfirmCancel instead.
func (b *StaffBoard) Do(ctx context.Context, id int64, a workflow.Action) error {
	if a == workflow.ActionCancel {
		return ErrConfirmationRequired
	}
	return b.apply(ctx, id, a)
}

// CancelPreview is what the operator confirms before cancelling.
type CancelPreview struct {
	ID         int64           `json:"id"`
	Table      string          `json:"table"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []ItemRow       `json:"items"`
}

// PrepareCancel opens the confirmation step for cancelling an order.
func (b *StaffBoard) PrepareCancel(id int64) (CancelPreview, error) {
	o, ok := b.orders.Get(id)
	if !ok {
		return CancelPreview{}, ErrOrderNotFound
	}
	if _, err := workflow.Next(o.Status, workflow.ActionCancel); err != nil {
		return CancelPreview{}, err
	}

	b.mu.Lock()
	b.pendingCancel = id
	b.mu.Unlock()

	return CancelPreview{
		ID:         o.ID,
		Table:      o.Table,
		TotalPrice: o.TotalPrice,
		Items:      itemRows(o.Items),
	}, nil
}

// ConfirmCancel cancels the order opened by PrepareCancel.
func (b *StaffBoard) ConfirmCancel(ctx context.Context, id int64) error {
	b.mu.Lock()
	pending := b.pendingCancel
	if pending == id {
		b.pendingCancel = 0
	}
	b.mu.Unlock()

	if pending != id {
		return ErrConfirmationRequired
	}
	return b.apply(ctx, id, workflow.ActionCancel)
}

// AbortCancel closes the confirmation step without cancelling.
func (b *StaffBoard) AbortCancel() {
	b.mu.Lock()
	b.pendingCancel = 0
	b.mu.Unlock()
}

func (b *StaffBoard) apply(ctx context.Context, id int64, a workflow.Action) error {
	msgs, ok := messages[a]
	if !ok {
		return fmt.Errorf("%w: %q", workflow.ErrUnknownAction, a)
	}
	o, ok := b.orders.Get(id)
	if !ok {
		return ErrOrderNotFound
	}
	if _, err := workflow.Next(o.Status, a); err != nil {
		return err
	}

	log := b.log.WithFields(logrus.Fields{"order_id": id, "action": a, "from": o.Status})
	got, err := b.api.Transition(ctx, id, a)
	if err != nil {
		return b.failed(err, msgs.fallback)
	}
	if got.ID != 0 {
		if err := workflow.CheckResult(o.Status, a, got.Status); err != nil {
			log.WithError(err).Warn("transition result disagrees with workflow")
		}
	}
	log.Info("order transitioned")
	b.succeeded(msgs.success)

	return b.Refresh(ctx)
}
