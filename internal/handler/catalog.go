package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/seleena/storefront/internal/catalog"
)

type VariantPayload struct {
	WeightVariant string  `json:"weight_variant" validate:"required,oneof=500g 1kg 5kg"`
	Price         float64 `json:"price" validate:"min=0"`
	StockQuantity int     `json:"stock_quantity" validate:"min=0"`
}

type ProductRequest struct {
	NameEN   string           `json:"name_en" validate:"required"`
	NameAR   string           `json:"name_ar"`
	Price    float64          `json:"price" validate:"min=0"`
	Stock    int              `json:"stock" validate:"min=0"`
	ImageURL string           `json:"image_url"`
	Variants []VariantPayload `json:"variants" validate:"dive"`
}

type CatalogHandler struct {
	svc      catalog.Service
	validate *validator.Validate
}

func NewCatalogHandler(svc catalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc, validate: validator.New()}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		respondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("Failed to get product")
		respondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	respondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProductRequest(w, r)
	if !ok {
		return
	}

	product := productFromRequest(req)
	created, err := h.svc.CreateProduct(r.Context(), product)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create product")
		respondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	req, ok := h.decodeProductRequest(w, r)
	if !ok {
		return
	}

	product := productFromRequest(req)
	product.ID = id

	if err := h.svc.UpdateProduct(r.Context(), product); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("Failed to update product")
		respondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	respondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("Failed to delete product")
		respondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) decodeProductRequest(w http.ResponseWriter, r *http.Request) (*ProductRequest, bool) {
	var req ProductRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			respondWithError(w, http.StatusBadRequest, formatValidationErrors(validationErrors)[0])
			return nil, false
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func productFromRequest(req *ProductRequest) *catalog.Product {
	product := &catalog.Product{
		NameEN:   req.NameEN,
		NameAR:   req.NameAR,
		Price:    req.Price,
		Stock:    req.Stock,
		ImageURL: req.ImageURL,
	}
	for _, v := range req.Variants {
		product.Variants = append(product.Variants, catalog.Variant{
			WeightVariant: v.WeightVariant,
			Price:         v.Price,
			StockQuantity: v.StockQuantity,
		})
	}
	return product
}
