package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tableside/console/internal/api"
	"github.com/tableside/console/internal/model"
	"github.com/tableside/console/internal/workflow"
)

type staticToken string

func (s staticToken) Token() (string, bool) { return string(s), s != "" }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newClient(t *testing.T, h http.HandlerFunc, token string) *api.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := api.New(srv.URL+"/api", 5*time.Second, staticToken(token), quietLogger())
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := api.New("/api/", time.Second, nil, quietLogger())
	assert.Error(t, err)
}

func TestListOrders_SendsBearerAndDecodes(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":1,"table":"T1","status":"pending","total_price":"45000.00","created_at":"2025-03-01T12:00:00Z",
			 "order_items":[{"id":10,"item_id":3,"quantity":2,"item":{"id":3,"name":"Latte","price":22500}}]},
			{"id":2,"table":"T2","status":"teleported","created_at":"2025-03-01T12:01:00Z"}
		]`))
	}, "tok-1")

	orders, err := c.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1, "order with unknown status is skipped")

	o := orders[0]
	assert.Equal(t, int64(1), o.ID)
	assert.Equal(t, workflow.StatusPending, o.Status)
	assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(45000)))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Latte", o.Items[0].Item.Name)
	assert.True(t, o.Items[0].LineTotal().Equal(decimal.NewFromInt(45000)))
}

func TestListOrders_NonArrayBodyIsEmpty(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":"nope"}`))
	}, "tok")

	orders, err := c.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestErrors_CarryRemoteMessage(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Order is not pending"}`))
	}, "tok")

	_, err := c.Transition(context.Background(), 5, workflow.ActionCancel)
	require.Error(t, err)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "Order is not pending", api.Message(err, "fallback"))
	assert.False(t, errors.Is(err, api.ErrUnauthorized))
}

func TestErrors_UnauthorizedSentinel(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}, "tok")

		_, err := c.ListOrders(context.Background())
		assert.ErrorIs(t, err, api.ErrUnauthorized)
		assert.Equal(t, "fallback", api.Message(err, "fallback"))
	}
}

func TestMessage_TransportFailureUsesFallback(t *testing.T) {
	assert.Equal(t, "Failed to confirm order.", api.Message(errors.New("dial tcp: refused"), "Failed to confirm order."))
}

func TestTransition_Endpoints(t *testing.T) {
	tests := []struct {
		action workflow.Action
		path   string
		status string
	}{
		{workflow.ActionConfirm, "/api/orders/7/prepare", "preparing"},
		{workflow.ActionStartDelivery, "/api/orders/7/deliver", "delivering"},
		{workflow.ActionComplete, "/api/orders/7/complete", "delivered"},
		{workflow.ActionMarkPaid, "/api/orders/7/pay", "paid"},
		{workflow.ActionCancel, "/api/orders/7/cancel", "cancelled"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				w.Write([]byte(`{"order":{"id":7,"table":"T1","status":"` + tt.status + `"}}`))
			}, "tok")

			o, err := c.Transition(context.Background(), 7, tt.action)
			require.NoError(t, err)
			assert.Equal(t, workflow.Status(tt.status), o.Status)
		})
	}
}

func TestTransition_EmptyBodyGivesZeroOrder(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, "tok")

	o, err := c.Transition(context.Background(), 7, workflow.ActionConfirm)
	require.NoError(t, err)
	assert.Zero(t, o.ID)
}

func TestDecodeOrder(t *testing.T) {
	o, err := api.DecodeOrder(json.RawMessage(`{"order":{"id":2,"table":"T2","status":"pending"}}`))
	require.NoError(t, err)
	assert.Equal(t, "T2", o.Table)

	o, err = api.DecodeOrder(json.RawMessage(`{"id":3,"table":"T3","status":"paid"}`))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPaid, o.Status)

	_, err = api.DecodeOrder(json.RawMessage(`{"message":"ok"}`))
	assert.Error(t, err)

	_, err = api.DecodeOrder(json.RawMessage(`{"id":4,"status":"exploded"}`))
	assert.ErrorIs(t, err, workflow.ErrUnknownStatus)

	_, err = api.DecodeOrder(nil)
	assert.Error(t, err)
}

func TestPlaceOrder_Body(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body model.NewOrder
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "T4", body.Table)
		assert.Equal(t, []model.NewOrderLine{{ItemID: 1, Quantity: 2}}, body.Items)
		w.WriteHeader(http.StatusCreated)
	}, "")

	err := c.PlaceOrder(context.Background(), model.NewOrder{Table: "T4", Items: []model.NewOrderLine{{ItemID: 1, Quantity: 2}}})
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		w.Write([]byte(`{"token":"new-token"}`))
	}, "")

	tok, err := c.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "new-token", tok)

	_, err = c.Login(context.Background(), "a@b.c", "wrong")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestLogin_MissingToken(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}, "")

	_, err := c.Login(context.Background(), "a@b.c", "secret")
	assert.ErrorIs(t, err, api.ErrNoToken)
}

func TestCreateItem_Multipart(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/items", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Espresso", r.FormValue("name"))
		assert.Equal(t, "18000", r.FormValue("price"))
		assert.Equal(t, "3", r.FormValue("category_id"))

		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "espresso.png", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "PNGDATA", string(data))
		w.WriteHeader(http.StatusCreated)
	}, "tok")

	cat := int64(3)
	err := c.CreateItem(context.Background(), api.ItemForm{
		Name:       "Espresso",
		Price:      decimal.NewFromInt(18000),
		CategoryID: &cat,
		Image:      &api.Image{Filename: "espresso.png", ContentType: "image/png", Body: strings.NewReader("PNGDATA")},
	})
	require.NoError(t, err)
}

func TestUpdateItem_NoCategoryNoImage(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/items/9", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "", r.FormValue("category_id"))
		_, _, err := r.FormFile("image")
		assert.ErrorIs(t, err, http.ErrMissingFile)
	}, "tok")

	err := c.UpdateItem(context.Background(), 9, api.ItemForm{Name: "Tea", Price: decimal.NewFromInt(10000)})
	require.NoError(t, err)
}

func TestCategoryCRUD(t *testing.T) {
	var calls []string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodGet {
			w.Write([]byte(`[{"id":1,"name":"Coffee"},{"id":2,"name":"Tea"}]`))
		}
	}, "tok")
	ctx := context.Background()

	cats, err := c.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)
	require.NoError(t, c.CreateCategory(ctx, "Juice"))
	require.NoError(t, c.UpdateCategory(ctx, 2, "Herbal tea"))
	require.NoError(t, c.DeleteCategory(ctx, 1))
	require.NoError(t, c.DeleteItem(ctx, 4))

	assert.Equal(t, []string{
		"GET /api/categories",
		"POST /api/categories",
		"PUT /api/categories/2",
		"DELETE /api/categories/1",
		"DELETE /api/items/4",
	}, calls)
}

func TestListItems_CategoryName(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":1,"name":"Latte","price":"25000","category_id":1,"category":{"id":1,"name":"Coffee"}},
			{"id":2,"name":"Water","price":5000,"category_id":null}
		]`))
	}, "")

	items, err := c.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Coffee", items[0].CategoryName())
	assert.Equal(t, "No Category", items[1].CategoryName())
}

func TestLogout(t *testing.T) {
	called := false
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/logout", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
	}, "tok")

	require.NoError(t, c.Logout(context.Background()))
	assert.True(t, called)
}
