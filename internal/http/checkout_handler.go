package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mkraev/storefront/internal/domain"
	"github.com/mkraev/storefront/internal/service"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
}

func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type CheckoutRequestDTO struct {
	UserID            int64  `json:"user_id"`
	CartID            string `json:"cart_id"`
	ShippingAddressID int64  `json:"shipping_address_id"`
	BillingAddressID  int64  `json:"billing_address_id"`
}

type PaymentRequestDTO struct {
	Amount string `json:"amount"`
	Method string `json:"method"`
	Status string `json:"status"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.UserID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id must be positive")
		return
	}
	if req.CartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_id", "cart_id is required")
		return
	}

	order, err := h.checkout.Checkout(r.Context(), req.UserID, req.CartID, req.ShippingAddressID, req.BillingAddressID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// GET /api/v1/orders/{order_id}
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	order, err := h.checkout.GetOrder(r.Context(), orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// GET /api/v1/orders/number/{number}
func (h *CheckoutHandler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		respondError(w, http.StatusBadRequest, "missing_number", "order number is required")
		return
	}

	order, err := h.checkout.GetOrderByNumber(r.Context(), number)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// GET /api/v1/users/{user_id}/orders
func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id must be a positive integer")
		return
	}

	orders, err := h.checkout.ListOrdersByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/orders?from=RFC3339&to=RFC3339
func (h *CheckoutHandler) ListOrdersByDateRange(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_from", "from must be an RFC3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_to", "to must be an RFC3339 timestamp")
		return
	}

	orders, err := h.checkout.ListOrdersByDateRange(r.Context(), from, to)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// POST /api/v1/orders/{order_id}/payments
func (h *CheckoutHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	var req PaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount", "amount must be a decimal string")
		return
	}

	order, err := h.checkout.RecordPayment(r.Context(), orderID, amount, req.Method, domain.PaymentStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}
