package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dam/supermarket/app/response"
	"github.com/dam/supermarket/models"
)

// Product is the JSON shape of a stored product. Price is encoded as a
// decimal string so it round-trips without loss.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
}

type CountResponse struct {
	Total int64 `json:"total"`
}

// ProductInput is the body accepted by create and update. Price accepts
// both JSON numbers and strings.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
}

func (in ProductInput) toModel(id int64) models.Product {
	return models.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
	}
}

type ProductProvider interface {
	ListAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, p models.Product) (bool, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
	SearchByName(ctx context.Context, fragment string) ([]models.Product, error)
	ListByMaxPrice(ctx context.Context, maxPrice decimal.Decimal) ([]models.Product, error)
	ListAvailable(ctx context.Context) ([]models.Product, error)
	ListAllByPrice(ctx context.Context) ([]models.Product, error)
}

type CatalogHandler struct {
	svc ProductProvider
	log *zap.Logger
}

func NewCatalogHandler(svc ProductProvider, log *zap.Logger) *CatalogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogHandler{
		svc: svc,
		log: log,
	}
}

// Routes mounts the product endpoints on r, which is expected to be the
// /products sub-router.
func (h *CatalogHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/by-price", h.HandleListByPrice)
	r.Get("/available", h.HandleListAvailable)
	r.Get("/search", h.HandleSearch)
	r.Get("/cheaper", h.HandleListByMaxPrice)
	r.Get("/count", h.HandleCount)
	r.Get("/{id}", h.HandleGetProduct)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
}

func (h *CatalogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.svc.ListAll)
}

func (h *CatalogHandler) HandleListByPrice(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.svc.ListAllByPrice)
}

func (h *CatalogHandler) HandleListAvailable(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.svc.ListAvailable)
}

func (h *CatalogHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		response.Error(w, http.StatusBadRequest, "Missing name")
		return
	}

	h.writeList(w, r, func(ctx context.Context) ([]models.Product, error) {
		return h.svc.SearchByName(ctx, name)
	})
}

func (h *CatalogHandler) HandleListByMaxPrice(w http.ResponseWriter, r *http.Request) {
	maxPrice, err := decimal.NewFromString(r.URL.Query().Get("max"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid max price")
		return
	}

	h.writeList(w, r, func(ctx context.Context) ([]models.Product, error) {
		return h.svc.ListByMaxPrice(ctx, maxPrice)
	})
}

func (h *CatalogHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.Count(r.Context())
	if err != nil {
		h.internalError(w, "failed to count products", err)
		return
	}
	response.JSON(w, http.StatusOK, CountResponse{Total: total})
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	product, err := h.svc.GetByID(r.Context(), id)
	if errors.Is(err, models.ErrProductNotFound) {
		response.Error(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		h.internalError(w, "failed to fetch product", err)
		return
	}

	response.JSON(w, http.StatusOK, NewProduct(*product))
}

func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	product := input.toModel(0)
	saved, err := h.svc.Create(r.Context(), &product)
	if err != nil {
		h.internalError(w, "Failed to create product", err)
		return
	}

	response.JSON(w, http.StatusCreated, NewProduct(*saved))
}

func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	product := input.toModel(id)
	updated, err := h.svc.Update(r.Context(), product)
	if err != nil {
		h.internalError(w, "Failed to update product", err)
		return
	}
	if !updated {
		response.Error(w, http.StatusNotFound, "Product not found")
		return
	}

	response.JSON(w, http.StatusOK, NewProduct(product))
}

func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteByID(r.Context(), id)
	if err != nil {
		h.internalError(w, "Failed to delete product", err)
		return
	}
	if !deleted {
		response.Error(w, http.StatusNotFound, "Product not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// NewProduct maps a stored product to its JSON shape.
func NewProduct(p models.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
	}
}

// NewProducts maps a list, always returning a non-nil slice.
func NewProducts(list []models.Product) []Product {
	products := make([]Product, len(list))
	for i, p := range list {
		products[i] = NewProduct(p)
	}
	return products
}

func (h *CatalogHandler) writeList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]models.Product, error)) {
	res, err := list(r.Context())
	if err != nil {
		h.internalError(w, "failed to fetch products", err)
		return
	}
	response.JSON(w, http.StatusOK, NewProducts(res))
}

func (h *CatalogHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.log.Error(msg, zap.Error(err))
	response.Error(w, http.StatusInternalServerError, msg)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return 0, false
	}
	return id, true
}
