package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/session"
)

// Orders groups the order handlers.
type Orders struct {
	svc *orders.Service
}

// NewOrders creates the order handler group.
func NewOrders(svc *orders.Service) *Orders {
	return &Orders{svc: svc}
}

type orderLineRequest struct {
	ProductID *uuid.UUID       `json:"product_id"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Quantity  *int             `json:"quantity"`
}

type orderRequest struct {
	GrandTotal   *decimal.Decimal    `json:"grand_total"`
	ShippingCost *decimal.Decimal    `json:"shipping_cost"`
	Discount     *decimal.Decimal    `json:"discount"`
	UserID       *uuid.UUID          `json:"user_id"`
	Lines        *[]orderLineRequest `json:"order_details"`
}

func (req orderRequest) lines() []orders.LineInput {
	if req.Lines == nil {
		return nil
	}
	out := make([]orders.LineInput, len(*req.Lines))
	for i, l := range *req.Lines {
		out[i] = orders.LineInput{ProductID: l.ProductID, UnitPrice: l.UnitPrice, Quantity: l.Quantity}
	}
	return out
}

// List returns every order to admins and sellers, and only their own
// orders to customers.
func (o *Orders) List(w http.ResponseWriter, r *http.Request) {
	sess, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var owner *uuid.UUID
	if !seesAllOrders(sess) {
		owner = &sess.UserID
	}
	items, err := o.svc.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Orders retrieved successfully", items)
}

// Get returns one order. Customers may only read their own.
func (o *Orders) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := urlID(r, "id", "Order")
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := o.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !seesAllOrders(sess) && order.UserID != sess.UserID {
		writeError(w, r, apperr.Forbidden("You are not allowed to view this order."))
		return
	}
	writeJSON(w, http.StatusOK, "Order retrieved successfully", order)
}

// Create places an order. user_id defaults to the caller; customers may
// not order on behalf of someone else.
func (o *Orders) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	userID := sess.UserID
	if req.UserID != nil {
		userID = *req.UserID
	}
	if userID != sess.UserID && !seesAllOrders(sess) {
		writeError(w, r, apperr.Forbidden("You may only place orders for yourself."))
		return
	}

	order, err := o.svc.Create(r.Context(), orders.Input{
		GrandTotal:   req.GrandTotal,
		ShippingCost: req.ShippingCost,
		Discount:     req.Discount,
		UserID:       userID,
		Lines:        req.lines(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Order created successfully", order)
}

// Update patches an order. Sending order_details replaces all lines.
func (o *Orders) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id", "Order")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := orders.Patch{
		GrandTotal:   req.GrandTotal,
		ShippingCost: req.ShippingCost,
		Discount:     req.Discount,
		UserID:       req.UserID,
	}
	if req.Lines != nil {
		lines := req.lines()
		patch.Lines = &lines
	}

	order, err := o.svc.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Order updated successfully", order)
}

// Delete removes an order with its lines.
func (o *Orders) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id", "Order")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := o.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Order deleted successfully", nil)
}

// seesAllOrders reports whether the session may read other users' orders.
func seesAllOrders(sess *session.Data) bool {
	role := models.Role(sess.Role)
	return role == models.RoleAdmin || role == models.RoleSeller
}
