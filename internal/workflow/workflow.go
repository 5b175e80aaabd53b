// Package workflow holds the order status state machine.
//
// The transition table is consulted twice per staff action: before the
// request is issued (so illegal actions are never sent) and again when the
// authoritative response is merged back.
package workflow

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tableside/console/internal/enum"
)

// Status is an order status. The zero value is invalid.
type Status string

const (
	StatusPending    Status = enum.OrderStatusPending
	StatusPreparing  Status = enum.OrderStatusPreparing
	StatusDelivering Status = enum.OrderStatusDelivering
	StatusDelivered  Status = enum.OrderStatusDelivered
	StatusPaid       Status = enum.OrderStatusPaid
	StatusCancelled  Status = enum.OrderStatusCancelled
)

// Action is a staff-initiated transition.
type Action string

const (
	ActionConfirm       Action = enum.ActionConfirm
	ActionStartDelivery Action = enum.ActionStartDelivery
	ActionComplete      Action = enum.ActionComplete
	ActionMarkPaid      Action = enum.ActionMarkPaid
	ActionCancel        Action = enum.ActionCancel
)

// Errors returned by the state machine.
var (
	ErrUnknownStatus        = errors.New("unknown order status")
	ErrUnknownAction        = errors.New("unknown order action")
	ErrTransitionNotAllowed = errors.New("transition not allowed")
	ErrUnexpectedResult     = errors.New("unexpected status after transition")
)

type transition struct {
	from     Status
	to       Status
	endpoint string
}

// transitions is keyed by action; each action has exactly one legal source status.
var transitions = map[Action]transition{
	ActionConfirm:       {from: StatusPending, to: StatusPreparing, endpoint: "prepare"},
	ActionStartDelivery: {from: StatusPreparing, to: StatusDelivering, endpoint: "deliver"},
	ActionComplete:      {from: StatusDelivering, to: StatusDelivered, endpoint: "complete"},
	ActionMarkPaid:      {from: StatusDelivered, to: StatusPaid, endpoint: "pay"},
	ActionCancel:        {from: StatusPending, to: StatusCancelled, endpoint: "cancel"},
}

// actionOrder fixes the order in which offered actions are listed.
var actionOrder = []Action{
	ActionConfirm,
	ActionCancel,
	ActionStartDelivery,
	ActionComplete,
	ActionMarkPaid,
}

// rank is the position of a status along the forward path. Cancelled sits
// beside preparing: both are one step away from pending.
var rank = map[Status]int{
	StatusPending:    0,
	StatusPreparing:  1,
	StatusCancelled:  1,
	StatusDelivering: 2,
	StatusDelivered:  3,
	StatusPaid:       4,
}

var labels = map[Status]string{
	StatusPending:    "Pending confirmation",
	StatusPreparing:  "Preparing",
	StatusDelivering: "Delivering",
	StatusDelivered:  "Awaiting payment",
	StatusPaid:       "Paid",
	StatusCancelled:  "Cancelled",
}

// ParseStatus converts a raw status string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := rank[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// ParseAction converts a raw action name into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := transitions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := rank[s]
	return ok
}

// Terminal reports whether no action leaves s.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Label is the human-readable status shown on the board.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// UnmarshalJSON rejects statuses outside the state machine.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Endpoint is the path segment of the remote transition call.
func (a Action) Endpoint() string {
	return transitions[a].endpoint
}

// Next returns the status reached by applying a to current.
func Next(current Status, a Action) (Status, error) {
	t, ok := transitions[a]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}
	if t.from != current {
		return "", fmt.Errorf("%w: cannot %s from %s", ErrTransitionNotAllowed, a, current)
	}
	return t.to, nil
}

// Allowed reports whether a may be offered for an order in status current.
func Allowed(current Status, a Action) bool {
	_, err := Next(current, a)
	return err == nil
}

// Actions lists the actions offered for an order in status s.
func Actions(s Status) []Action {
	var out []Action
	for _, a := range actionOrder {
		if transitions[a].from == s {
			out = append(out, a)
		}
	}
	return out
}

// CheckResult validates the status returned by the API after applying a to
// from.
func CheckResult(from Status, a Action, got Status) error {
	want, err := Next(from, a)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s from %s returned %s, want %s", ErrUnexpectedResult, a, from, got, want)
	}
	return nil
}

// Precedes reports whether a sits strictly before b on the status path.
// Used to reject merges that would move an order backwards.
func Precedes(a, b Status) bool {
	ra, okA := rank[a]
	rb, okB := rank[b]
	if !okA || !okB {
		return false
	}
	return ra < rb
}
