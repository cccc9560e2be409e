package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/seleena/storefront/internal/order"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenTTL = 24 * time.Hour

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	Token string `json:"token"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type AdminHandler struct {
	orders       order.Service
	username     string
	passwordHash string
	jwtSecret    []byte
}

func NewAdminHandler(orders order.Service, username, passwordHash, jwtSecret string) *AdminHandler {
	return &AdminHandler{
		orders:       orders,
		username:     username,
		passwordHash: passwordHash,
		jwtSecret:    []byte(jwtSecret),
	}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	usernameMatch := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username)) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password))
	if !usernameMatch || passwordErr != nil {
		log.Warn().Str("username", req.Username).Msg("Admin login rejected")
		respondWithError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	claims := jwt.RegisteredClaims{
		Subject:   h.username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(adminTokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.jwtSecret)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign admin token")
		respondWithError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondWithJSON(w, http.StatusOK, AdminLoginResponse{Token: signed})
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders")
		respondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.GetOrderByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("Failed to get order")
		respondWithError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		respondWithError(w, http.StatusBadRequest, "status is required")
		return
	}

	err = h.orders.UpdateOrderStatus(r.Context(), id, order.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			respondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrInvalidStatusTransition):
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			log.Error().Err(err).Stringer("order_id", id).Msg("Failed to update order status")
			respondWithError(w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
