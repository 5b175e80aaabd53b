package enum

// ── Group A: Order state machine (validated server-side as well) ──

const (
	OrderStatusPending    = "pending"
	OrderStatusPreparing  = "preparing"
	OrderStatusDelivering = "delivering"
	OrderStatusDelivered  = "delivered"
	OrderStatusPaid       = "paid"
	OrderStatusCancelled  = "cancelled"
)

// Staff actions. Each maps to one PUT orders/{id}/{endpoint} call.
const (
	ActionConfirm       = "confirm"
	ActionStartDelivery = "start_delivery"
	ActionComplete      = "complete"
	ActionMarkPaid      = "mark_paid"
	ActionCancel        = "cancel"
)

// ── Group B: Staff board buckets ──

const (
	BucketActive     = "new"
	BucketSettlement = "payment"
	BucketArchived   = "archived"
)

// StatusFilterAll disables the status-equality filter.
const StatusFilterAll = "all"

// ── Group C: Event names ──

// Pusher defaults used by the upstream API.
const (
	PushChannelOrders = "orders"
	PushEventNewOrder = `App\Events\NewOrder`
)

// Events fanned out to connected view clients.
const (
	EventOrderCreated = "order.created"
	EventOrdersSynced = "orders.synced"
	EventToast        = "toast"
	EventAlert        = "alert"
)

// Toast levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// NoCategory is shown for items without (or with a deleted) category.
const NoCategory = "No Category"
