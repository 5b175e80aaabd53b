package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tableside/console/internal/model"
	"github.com/tableside/console/internal/workflow"
)

// ListOrders fetches every order visible to the session.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "orders"}, &raw); err != nil {
		return nil, err
	}
	return decodeList[model.Order](c.log, "order", raw), nil
}

// PlaceOrder submits a customer's order for a table. The API creates it in
// the pending state.
func (c *Client) PlaceOrder(ctx context.Context, o model.NewOrder) error {
	req, err := jsonRequest(http.MethodPost, "orders", o)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// Transition applies a staff action to an order. The returned order is the
// API's view after the change; it is the zero Order when the response body
// carried none.
func (c *Client) Transition(ctx context.Context, id int64, a workflow.Action) (model.Order, error) {
	if a.Endpoint() == "" {
		return model.Order{}, fmt.Errorf("%w: %q", workflow.ErrUnknownAction, a)
	}
	path := fmt.Sprintf("orders/%d/%s", id, a.Endpoint())

	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodPut, path: path}, &raw); err != nil {
		return model.Order{}, err
	}
	o, err := DecodeOrder(raw)
	if err != nil {
		c.log.WithError(err).WithField("order_id", id).Debug("transition response carried no order")
		return model.Order{}, nil
	}
	return o, nil
}

// DecodeOrder reads either a bare order object or one wrapped as
// {"order": {...}}, the shape used by transition responses and push events.
func DecodeOrder(raw json.RawMessage) (model.Order, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return model.Order{}, fmt.Errorf("empty order payload")
	}

	var wrapped struct {
		Order json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Order) > 0 && string(wrapped.Order) != "null" {
		raw = wrapped.Order
	}

	var o model.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return model.Order{}, fmt.Errorf("decode order: %w", err)
	}
	if o.ID == 0 {
		return model.Order{}, fmt.Errorf("order payload has no id")
	}
	if !o.Status.Valid() {
		return model.Order{}, fmt.Errorf("%w: %q", workflow.ErrUnknownStatus, o.Status)
	}
	return o, nil
}
