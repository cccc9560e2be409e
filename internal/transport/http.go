package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/seleena/storefront/internal/cart"
	"github.com/seleena/storefront/internal/catalog"
	"github.com/seleena/storefront/internal/config"
	"github.com/seleena/storefront/internal/errlog"
	"github.com/seleena/storefront/internal/handler"
	"github.com/seleena/storefront/internal/order"
)

type Deps struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client // nil disables the catalog cache
	Publisher order.Publisher
	Cfg       *config.Config
}

func NewRouter(d Deps) *chi.Mux {
	errs := errlog.New(d.DB)

	catalogSvc := catalog.NewService(catalog.NewRepository(d.DB), d.Redis)
	cartSvc := cart.NewService(cart.NewRepository(d.DB), catalogSvc, errs)
	orderSvc := order.NewService(order.NewRepository(d.DB), cartSvc, errs, d.Publisher)

	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	cartHandler := handler.NewCartHandler(cartSvc)
	checkoutHandler := handler.NewCheckoutHandler(cartSvc, orderSvc)
	adminHandler := handler.NewAdminHandler(orderSvc, d.Cfg.Admin.Username, d.Cfg.Admin.PasswordHash, d.Cfg.Admin.JWTSecret)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", catalogHandler.ListProducts)
		r.Get("/products/{id}", catalogHandler.GetProduct)

		r.Get("/cart", cartHandler.GetCart)
		r.Post("/cart/items", cartHandler.AddItem)
		r.Patch("/cart/items/{id}", cartHandler.UpdateItem)
		r.Delete("/cart/items/{id}", cartHandler.RemoveItem)
		r.Delete("/cart", cartHandler.ClearCart)

		r.Post("/checkout", checkoutHandler.Checkout)

		r.Post("/admin/login", adminHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(handler.RequireAdmin(d.Cfg.Admin.JWTSecret))

			r.Post("/admin/products", catalogHandler.CreateProduct)
			r.Put("/admin/products/{id}", catalogHandler.UpdateProduct)
			r.Delete("/admin/products/{id}", catalogHandler.DeleteProduct)

			r.Get("/admin/orders", adminHandler.ListOrders)
			r.Get("/admin/orders/{id}", adminHandler.GetOrder)
			r.Patch("/admin/orders/{id}/status", adminHandler.UpdateOrderStatus)
		})
	})

	return r
}
