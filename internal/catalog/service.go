package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	productListCacheKey = "catalog:products"
	productCachePrefix  = "catalog:product:"
	cacheTTL            = time.Minute
)

type Service interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error)
}

type service struct {
	repo        Repository
	redisClient *redis.Client
}

// NewService builds the catalog service. redisClient may be nil, in which
// case every read goes straight to the database.
func NewService(repo Repository, redisClient *redis.Client) Service {
	return &service{repo: repo, redisClient: redisClient}
}

func (s *service) ListProducts(ctx context.Context) ([]Product, error) {
	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, productListCacheKey).Result()
		if err == nil {
			var products []Product
			if err := json.Unmarshal([]byte(cached), &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products in repository")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(products); err == nil {
			s.redisClient.Set(ctx, productListCacheKey, data, cacheTTL)
		}
	}

	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	cacheKey := productCachePrefix + id.String()

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var p Product
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to fetch product in repository")
		return nil, fmt.Errorf("service: failed to fetch product: %w", err)
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(p); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, cacheTTL)
		}
	}

	return p, nil
}

func (s *service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if p.NameEN == "" {
		return nil, errors.New("service: product name is required")
	}
	if p.Price < 0 {
		return nil, errors.New("service: product price cannot be negative")
	}
	if p.Stock < 0 {
		return nil, errors.New("service: product stock cannot be negative")
	}

	// A product created without explicit variants gets the standard weight
	// options derived from its base price and stock.
	if len(p.Variants) == 0 {
		p.Variants = DefaultVariants(p.Price, p.Stock)
	}
	for _, v := range p.Variants {
		if v.WeightVariant != Weight500g && v.WeightVariant != Weight1kg && v.WeightVariant != Weight5kg {
			return nil, fmt.Errorf("service: unknown weight variant %q", v.WeightVariant)
		}
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		log.Error().Err(err).Msg("service: failed to create product in repository")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	s.invalidateCache(ctx, p.ID)
	log.Info().Stringer("product_id", p.ID).Str("name", p.NameEN).Msg("service: product created")
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, p *Product) error {
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", p.ID).Msg("service: failed to update product in repository")
		return fmt.Errorf("service: failed to update product: %w", err)
	}

	s.invalidateCache(ctx, p.ID)
	return nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to delete product in repository")
		return fmt.Errorf("service: failed to delete product: %w", err)
	}

	s.invalidateCache(ctx, id)
	return nil
}

func (s *service) GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error) {
	v, err := s.repo.GetVariant(ctx, id)
	if err != nil {
		if errors.Is(err, ErrVariantNotFound) {
			return nil, ErrVariantNotFound
		}
		log.Error().Err(err).Stringer("variant_id", id).Msg("service: failed to fetch variant in repository")
		return nil, fmt.Errorf("service: failed to fetch variant: %w", err)
	}
	return v, nil
}

func (s *service) invalidateCache(ctx context.Context, productID uuid.UUID) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, productListCacheKey, productCachePrefix+productID.String()).Err(); err != nil {
		log.Warn().Err(err).Msg("service: failed to invalidate product cache")
	}
}
