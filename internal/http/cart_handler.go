package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkraev/storefront/internal/service"
)

type CartHandler struct {
	carts *service.CartService
}

func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type CreateCartRequestDTO struct {
	UserID int64 `json:"user_id,omitempty"`
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type MergeRequestDTO struct {
	GuestCartID string `json:"guest_cart_id"`
	UserID      int64  `json:"user_id"`
}

// POST /api/v1/carts
func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var req CreateCartRequestDTO
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	if req.UserID != 0 {
		cart, err := h.carts.OpenCartForUser(r.Context(), req.UserID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, cart)
		return
	}

	cart, err := h.carts.CreateGuestCart(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cart)
}

// GET /api/v1/carts/{cart_id}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cart_id")
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_id", "cart_id is required")
		return
	}

	cart, err := h.carts.GetCart(r.Context(), cartID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// POST /api/v1/carts/{cart_id}/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cart_id")

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	cart, err := h.carts.AddItem(r.Context(), cartID, req.ProductID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cart)
}

// PUT /api/v1/carts/{cart_id}/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cart_id")
	productID, err := parseProductID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.carts.UpdateItemQuantity(r.Context(), cartID, productID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// DELETE /api/v1/carts/{cart_id}/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cart_id")
	productID, err := parseProductID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), cartID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// DELETE /api/v1/carts/{cart_id}/items
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cart_id")

	cart, err := h.carts.ClearCart(r.Context(), cartID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// GET /api/v1/carts/{cart_id}/total
func (h *CartHandler) GetTotal(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cart_id")

	total, err := h.carts.Total(r.Context(), cartID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"total": total.StringFixed(2)})
}

// POST /api/v1/carts/merge
func (h *CartHandler) MergeCart(w http.ResponseWriter, r *http.Request) {
	var req MergeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.GuestCartID == "" {
		respondError(w, http.StatusBadRequest, "missing_guest_cart_id", "guest_cart_id is required")
		return
	}
	if req.UserID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id must be positive")
		return
	}

	cart, err := h.carts.MergeGuestCart(r.Context(), req.GuestCartID, req.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func parseProductID(r *http.Request) (int64, error) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		return 0, strconv.ErrSyntax
	}
	return productID, nil
}
