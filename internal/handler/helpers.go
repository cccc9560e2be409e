package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/seleena/storefront/internal/order"
)

const sessionHeader = "X-Session-ID"

// respondWithError отправляет JSON ошибку
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON отправляет JSON ответ
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Interface("payload", payload).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func formatValidationErrors(errs validator.ValidationErrors) []string {
	details := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		details = append(details, fmt.Sprintf("field %s failed on the %s rule", fieldErr.Field(), fieldErr.Tag()))
	}
	return details
}

// statusForOrderError maps a workflow failure code to an HTTP status.
func statusForOrderError(err error) int {
	switch order.CodeOf(err) {
	case order.CodeInvalidInput, order.CodeMissingField:
		return http.StatusBadRequest
	case order.CodeVariantNotFound:
		return http.StatusNotFound
	case order.CodeInsufficientStock, order.CodeNegativeStock:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
