package categories

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dam/supermarket/app/catalog"
	"github.com/dam/supermarket/app/response"
	"github.com/dam/supermarket/models"
)

type CategoryProvider interface {
	ListCategories(ctx context.Context) ([]string, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
}

type CategoryHandler struct {
	svc CategoryProvider
	log *zap.Logger
}

func NewCategoryHandler(svc CategoryProvider, log *zap.Logger) *CategoryHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CategoryHandler{svc: svc, log: log}
}

// Routes mounts the category endpoints on the /categories sub-router.
func (h *CategoryHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleGetAll)
	r.Get("/{category}/products", h.HandleGetProducts)
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		h.log.Error("failed to fetch categories", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	if categories == nil {
		categories = []string{}
	}
	response.JSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) HandleGetProducts(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	products, err := h.svc.ListByCategory(r.Context(), category)
	if err != nil {
		h.log.Error("failed to fetch products", zap.String("category", category), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}

	response.JSON(w, http.StatusOK, catalog.NewProducts(products))
}
