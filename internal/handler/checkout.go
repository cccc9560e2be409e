package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/seleena/storefront/internal/cart"
	"github.com/seleena/storefront/internal/order"
)

type AddressPayload struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type CheckoutRequest struct {
	CustomerName    string         `json:"customer_name" validate:"required,min=2"`
	CustomerEmail   string         `json:"customer_email" validate:"required,email"`
	CustomerPhone   string         `json:"customer_phone" validate:"required,min=5"`
	ShippingAddress AddressPayload `json:"shipping_address" validate:"required"`
	Notes           string         `json:"notes"`
}

// CheckoutResponse is the structured result the storefront renders: either an
// order confirmation or an inline error message.
type CheckoutResponse struct {
	Success bool           `json:"success"`
	Order   *order.Receipt `json:"order,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type CheckoutHandler struct {
	carts    cart.Service
	orders   order.Service
	validate *validator.Validate
}

func NewCheckoutHandler(carts cart.Service, orders order.Service) *CheckoutHandler {
	return &CheckoutHandler{
		carts:    carts,
		orders:   orders,
		validate: validator.New(),
	}
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		respondWithJSON(w, http.StatusBadRequest, CheckoutResponse{Success: false, Error: "session id is required"})
		return
	}

	var req CheckoutRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to decode checkout request")
		respondWithJSON(w, http.StatusBadRequest, CheckoutResponse{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			details := formatValidationErrors(validationErrors)
			respondWithJSON(w, http.StatusBadRequest, CheckoutResponse{Success: false, Error: details[0]})
			return
		}
		respondWithJSON(w, http.StatusBadRequest, CheckoutResponse{Success: false, Error: err.Error()})
		return
	}

	ctx := r.Context()

	items, err := h.carts.Get(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load cart for checkout")
		respondWithJSON(w, http.StatusInternalServerError, CheckoutResponse{Success: false, Error: "failed to load cart"})
		return
	}

	input := order.OrderInput{
		SessionID:     sessionID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		ShippingAddress: order.ShippingAddress{
			Street:     req.ShippingAddress.Street,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
		Notes: req.Notes,
	}

	receipt, err := h.orders.ExecuteOrder(ctx, input, toCartLines(items))
	if err != nil {
		respondWithJSON(w, statusForOrderError(err), CheckoutResponse{Success: false, Error: err.Error()})
		return
	}

	respondWithJSON(w, http.StatusCreated, CheckoutResponse{Success: true, Order: receipt})
}

// toCartLines freezes cart rows into explicit order lines. This is the one
// place cart data crosses into the order workflow.
func toCartLines(items []cart.Item) []order.CartLine {
	lines := make([]order.CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, order.CartLine{
			ProductID:     item.ProductID,
			VariantID:     item.VariantID,
			ProductName:   item.ProductNameEN,
			WeightVariant: item.WeightVariant,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
		})
	}
	return lines
}
