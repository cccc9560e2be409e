package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/seleena/storefront/internal/cart"
)

type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	VariantID string `json:"variant_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

type CartResponse struct {
	Items    []cart.Item `json:"items"`
	Subtotal float64     `json:"subtotal"`
	Count    int         `json:"count"`
}

type CartHandler struct {
	svc      cart.Service
	validate *validator.Validate
}

func NewCartHandler(svc cart.Service) *CartHandler {
	return &CartHandler{svc: svc, validate: validator.New()}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session id is required")
		return
	}

	items, err := h.svc.Get(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load cart")
		respondWithError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	respondWithJSON(w, http.StatusOK, CartResponse{
		Items:    items,
		Subtotal: cart.Total(items),
		Count:    cart.Count(items),
	})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			respondWithError(w, http.StatusBadRequest, formatValidationErrors(validationErrors)[0])
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	productID, err := uuid.FromString(req.ProductID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	variantID, err := uuid.FromString(req.VariantID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	err = h.svc.AddItem(r.Context(), sessionID, productID, variantID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrVariantNotFound):
			respondWithError(w, http.StatusNotFound, "product variant not found")
		case errors.Is(err, cart.ErrInsufficientStock):
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to add cart item")
			respondWithError(w, http.StatusInternalServerError, "failed to add item to cart")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session id is required")
		return
	}

	itemID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid cart item id")
		return
	}

	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err = h.svc.UpdateQuantity(r.Context(), sessionID, itemID, req.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			respondWithError(w, http.StatusNotFound, "cart item not found")
			return
		}
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to update cart item")
		respondWithError(w, http.StatusInternalServerError, "failed to update cart item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session id is required")
		return
	}

	itemID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid cart item id")
		return
	}

	err = h.svc.RemoveItem(r.Context(), sessionID, itemID)
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			respondWithError(w, http.StatusNotFound, "cart item not found")
			return
		}
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to remove cart item")
		respondWithError(w, http.StatusInternalServerError, "failed to remove cart item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session id is required")
		return
	}

	if err := h.svc.Clear(r.Context(), sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to clear cart")
		respondWithError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
