package handlers

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// orderFixture stores a customer, an admin and two products.
type orderFixture struct {
	env      *testEnv
	customer models.User
	other    models.User
	admin    models.User
	shoe     models.Product
	sock     models.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	env := newTestEnv(t)
	return &orderFixture{
		env:      env,
		customer: env.DB.Users().Add("ana@example.com", models.RoleUser),
		other:    env.DB.Users().Add("bob@example.com", models.RoleUser),
		admin:    env.DB.Users().Add("root@example.com", models.RoleAdmin),
		shoe:     env.DB.Products().Add(models.Product{Slug: "shoe", Price: decimal.NewFromInt(50)}),
		sock:     env.DB.Products().Add(models.Product{Slug: "sock", Price: decimal.NewFromInt(5)}),
	}
}

func (f *orderFixture) body(lines ...models.Product) map[string]any {
	details := make([]map[string]any, len(lines))
	for i, p := range lines {
		details[i] = map[string]any{"product_id": p.ID, "unit_price": p.Price.String(), "quantity": i + 1}
	}
	return map[string]any{
		"grand_total":   "60",
		"shipping_cost": "5",
		"order_details": details,
	}
}

// place creates an order as sess and returns it.
func (f *orderFixture) place(t *testing.T, sessUser models.User, body map[string]any) models.Order {
	t.Helper()
	var o models.Order
	req := jsonRequest(t, http.MethodPost, "/api/v1/orders", body)
	decodeResponse(t, serve(f.env.Orders.Create, req, testSession(sessUser)), http.StatusCreated, &o)
	return o
}

func TestCreateOrder(t *testing.T) {
	f := newOrderFixture(t)

	o := f.place(t, f.customer, f.body(f.shoe, f.sock))
	if o.UserID != f.customer.ID {
		t.Errorf("user_id = %s, want the caller", o.UserID)
	}
	if len(o.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(o.Lines))
	}
	if o.Lines[0].ProductID != f.shoe.ID || o.Lines[1].ProductID != f.sock.ID {
		t.Error("lines should keep submission order")
	}
	if o.Lines[0].Product == nil || o.Lines[0].Product.Slug != "shoe" {
		t.Errorf("line product not embedded: %+v", o.Lines[0].Product)
	}
	if !o.Discount.IsZero() {
		t.Errorf("discount = %s, want 0", o.Discount)
	}
}

func TestCreateOrder_ForSomeoneElse(t *testing.T) {
	f := newOrderFixture(t)

	body := f.body(f.shoe)
	body["user_id"] = f.other.ID
	req := jsonRequest(t, http.MethodPost, "/", body)
	decodeResponse(t, serve(f.env.Orders.Create, req, testSession(f.customer)), http.StatusForbidden, nil)

	// Admins may.
	o := f.place(t, f.admin, body)
	if o.UserID != f.other.ID {
		t.Errorf("user_id = %s, want %s", o.UserID, f.other.ID)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newOrderFixture(t)

	tests := []struct {
		name   string
		body   map[string]any
		fields []string
	}{
		{
			name:   "no lines",
			body:   map[string]any{"grand_total": "10", "shipping_cost": "0", "order_details": []any{}},
			fields: []string{"order_details"},
		},
		{
			name:   "missing header",
			body:   map[string]any{"order_details": []any{map[string]any{"product_id": f.shoe.ID, "unit_price": "1", "quantity": 1}}},
			fields: []string{"grand_total", "shipping_cost"},
		},
		{
			name: "bad lines",
			body: map[string]any{
				"grand_total": "10", "shipping_cost": "0",
				"order_details": []any{
					map[string]any{"product_id": "3f0c1a52-6d1e-4c55-9a43-3c7f0b3e2a10", "unit_price": "1", "quantity": 1},
					map[string]any{"product_id": f.shoe.ID, "unit_price": "-1", "quantity": 0},
				},
			},
			fields: []string{"order_details.0.product_id", "order_details.1.unit_price", "order_details.1.quantity"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, http.MethodPost, "/", tt.body)
			resp := decodeResponse(t, serve(f.env.Orders.Create, req, testSession(f.customer)), http.StatusUnprocessableEntity, nil)
			for _, field := range tt.fields {
				assertFieldError(t, resp, field)
			}
		})
	}

	if items, _ := f.env.DB.Orders().List(t.Context(), nil); len(items) != 0 {
		t.Errorf("no order should be stored, got %d", len(items))
	}
}

func TestListAndGetOrders(t *testing.T) {
	f := newOrderFixture(t)
	mine := f.place(t, f.customer, f.body(f.shoe))
	theirs := f.place(t, f.other, f.body(f.sock))

	var list []models.Order
	decodeResponse(t, serve(f.env.Orders.List, jsonRequest(t, http.MethodGet, "/", nil), testSession(f.customer)), http.StatusOK, &list)
	if len(list) != 1 || list[0].ID != mine.ID {
		t.Errorf("customer should only see their own order, got %+v", list)
	}

	decodeResponse(t, serve(f.env.Orders.List, jsonRequest(t, http.MethodGet, "/", nil), testSession(f.admin)), http.StatusOK, &list)
	if len(list) != 2 {
		t.Errorf("admin should see all orders, got %d", len(list))
	}

	req := withChiURLParam(jsonRequest(t, http.MethodGet, "/", nil), "id", mine.ID.String())
	decodeResponse(t, serve(f.env.Orders.Get, req, testSession(f.customer)), http.StatusOK, nil)

	req = withChiURLParam(jsonRequest(t, http.MethodGet, "/", nil), "id", theirs.ID.String())
	decodeResponse(t, serve(f.env.Orders.Get, req, testSession(f.customer)), http.StatusForbidden, nil)

	req = withChiURLParam(jsonRequest(t, http.MethodGet, "/", nil), "id", theirs.ID.String())
	decodeResponse(t, serve(f.env.Orders.Get, req, testSession(f.admin)), http.StatusOK, nil)

	req = withChiURLParam(jsonRequest(t, http.MethodGet, "/", nil), "id", "not-a-uuid")
	decodeResponse(t, serve(f.env.Orders.Get, req, testSession(f.admin)), http.StatusNotFound, nil)
}

func TestUpdateOrder(t *testing.T) {
	f := newOrderFixture(t)
	o := f.place(t, f.customer, f.body(f.shoe, f.sock, f.shoe))

	// Header-only patch keeps the lines.
	var got models.Order
	req := withChiURLParam(jsonRequest(t, http.MethodPut, "/", map[string]any{"discount": "2.50"}), "id", o.ID.String())
	decodeResponse(t, serve(f.env.Orders.Update, req, testSession(f.admin)), http.StatusOK, &got)
	if !got.Discount.Equal(decimal.RequireFromString("2.5")) || len(got.Lines) != 3 {
		t.Errorf("unexpected patch result: discount=%s lines=%d", got.Discount, len(got.Lines))
	}

	// A failing replacement leaves the lines alone.
	f.env.DB.FailNextWrite()
	req = withChiURLParam(jsonRequest(t, http.MethodPut, "/", map[string]any{"order_details": []any{}}), "id", o.ID.String())
	decodeResponse(t, serve(f.env.Orders.Update, req, testSession(f.admin)), http.StatusInternalServerError, nil)

	req = withChiURLParam(jsonRequest(t, http.MethodGet, "/", nil), "id", o.ID.String())
	decodeResponse(t, serve(f.env.Orders.Get, req, testSession(f.admin)), http.StatusOK, &got)
	if len(got.Lines) != 3 {
		t.Fatalf("got %d lines after failed update, want 3", len(got.Lines))
	}

	// An empty list removes every line.
	req = withChiURLParam(jsonRequest(t, http.MethodPut, "/", map[string]any{"order_details": []any{}}), "id", o.ID.String())
	decodeResponse(t, serve(f.env.Orders.Update, req, testSession(f.admin)), http.StatusOK, &got)
	if len(got.Lines) != 0 {
		t.Errorf("got %d lines, want 0", len(got.Lines))
	}

	// Missing order.
	req = withChiURLParam(jsonRequest(t, http.MethodPut, "/", map[string]any{}), "id", "3f0c1a52-6d1e-4c55-9a43-3c7f0b3e2a10")
	decodeResponse(t, serve(f.env.Orders.Update, req, testSession(f.admin)), http.StatusNotFound, nil)
}

func TestDeleteOrder(t *testing.T) {
	f := newOrderFixture(t)
	o := f.place(t, f.customer, f.body(f.shoe))

	req := withChiURLParam(jsonRequest(t, http.MethodDelete, "/", nil), "id", o.ID.String())
	decodeResponse(t, serve(f.env.Orders.Delete, req, testSession(f.admin)), http.StatusOK, nil)

	req = withChiURLParam(jsonRequest(t, http.MethodDelete, "/", nil), "id", o.ID.String())
	decodeResponse(t, serve(f.env.Orders.Delete, req, testSession(f.admin)), http.StatusNotFound, nil)
}
