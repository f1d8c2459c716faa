package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dejobratic/errorfix/internal/catalog/domain"
	"github.com/dejobratic/errorfix/internal/catalog/ports"
)

const ProductsPath = "/api/products"

const (
	CodeInvalidID        = "INVALID_ID"
	CodeProductNotFound  = "PRODUCT_NOT_FOUND"
	CodeProductLoadError = "PRODUCT_LOAD_ERROR"
)

type listResponse struct {
	Success  bool             `json:"success"`
	Products []domain.Product `json:"products"`
	Message  string           `json:"message,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Handler exposes the read-only catalog.
type Handler struct {
	repo   ports.ProductRepository
	logger *slog.Logger
}

func NewHandler(repo ports.ProductRepository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Register binds the catalog handlers to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(ProductsPath, h.listProducts)
	mux.HandleFunc(ProductsPath+"/", h.getProduct)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	filter := ports.ListFilter{Category: r.URL.Query().Get("category")}
	if featured, err := strconv.ParseBool(r.URL.Query().Get("featured")); err == nil {
		filter.FeaturedOnly = featured
	}

	products, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list products", "error", err)
		writeJSON(w, http.StatusInternalServerError, listResponse{
			Success: false,
			Message: "Error processing request",
			Error:   err.Error(),
		})
		return
	}

	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, Products: products})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	raw := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, ProductsPath+"/"), "/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   fmt.Sprintf("Invalid product ID: %s", raw),
			Message: "The product ID must be a valid number",
			Code:    CodeInvalidID,
		})
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{
				Error:   fmt.Sprintf("Product not found: %d", id),
				Message: "The requested product does not exist in the database",
				Code:    CodeProductNotFound,
			})
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to load product", "product_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   fmt.Sprintf("Error loading product %d", id),
			Message: "An error occurred while fetching the product",
			Code:    CodeProductLoadError,
		})
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
