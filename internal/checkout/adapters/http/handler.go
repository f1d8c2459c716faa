package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/dejobratic/errorfix/internal/auth/token"
	"github.com/dejobratic/errorfix/internal/checkout/app"
	"github.com/dejobratic/errorfix/internal/checkout/app/commands"
	"github.com/dejobratic/errorfix/internal/checkout/domain"
	"github.com/dejobratic/errorfix/internal/checkout/ports"
)

const (
	PurchasePath     = "/api/checkout/purchase"
	TransactionsPath = "/api/checkout/transactions"

	replayedHeader = "Idempotent-Replayed"
)

// Messages returned in the error field of rejected purchases.
const (
	MessageAuthRequired      = "Authentication required"
	MessageInvalidAuth       = "Invalid authentication"
	MessageInvalidBody       = "Invalid request body"
	MessageNoItems           = "No items in cart"
	MessageMissingPayment    = "Missing payment details or total amount"
	MessageInvalidItems      = "Invalid cart items"
	MessageProcessingFailed  = "Payment processing failed"
	MessageTransactionAbsent = "Transaction not found"
	MessagePurchaseInFlight  = "A purchase with this Idempotency-Key is already in progress"
)

type purchaseItem struct {
	ID            int64           `json:"id" validate:"required,gt=0"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity" validate:"gte=1"`
	SelectedSize  string          `json:"selectedSize"`
	SelectedColor string          `json:"selectedColor"`
}

type paymentDetails struct {
	CardNumber     string `json:"cardNumber"`
	CardholderName string `json:"cardholderName"`
	ExpiryDate     string `json:"expiryDate"`
	CVV            string `json:"cvv"`
}

type purchaseRequest struct {
	Items          []purchaseItem  `json:"items" validate:"dive"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaymentDetails *paymentDetails `json:"paymentDetails"`
}

type purchaseResponse struct {
	Success       bool            `json:"success"`
	TransactionID string          `json:"transactionId,omitempty"`
	Timestamp     *time.Time      `json:"timestamp,omitempty"`
	Amount        decimal.Decimal `json:"amount,omitzero"`
	ItemCount     int             `json:"itemCount,omitempty"`
	Error         string          `json:"error,omitempty"`
	Message       string          `json:"message,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Handler exposes the checkout endpoints. Every route requires a bearer token.
type Handler struct {
	service  *app.Service
	verifier token.Verifier
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service *app.Service, verifier token.Verifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:  service,
		verifier: verifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Register binds the checkout handlers to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(PurchasePath, h.handlePurchase)
	mux.HandleFunc(TransactionsPath, h.listTransactions)
	mux.HandleFunc(TransactionsPath+"/", h.getTransaction)
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	customer, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	idemKey := scopedIdempotencyKey(customer, r.Header.Get("Idempotency-Key"))
	reserved := false
	if idemKey != "" {
		if reserved = h.reserveKey(w, r, idemKey); !reserved {
			return
		}
	}
	saved := false
	defer func() {
		if reserved && !saved {
			if err := h.service.ReleaseIdempotencyKey(context.WithoutCancel(ctx), idemKey); err != nil {
				h.logger.ErrorContext(ctx, "failed to release idempotency key", "error", err)
			}
		}
	}()

	var payload purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, MessageInvalidBody)
		return
	}

	if len(payload.Items) == 0 {
		writeError(w, http.StatusBadRequest, MessageNoItems)
		return
	}
	if payload.PaymentDetails == nil || strings.TrimSpace(payload.PaymentDetails.CardNumber) == "" || domain.ToCents(payload.TotalAmount) <= 0 {
		writeError(w, http.StatusBadRequest, MessageMissingPayment)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, MessageInvalidItems)
		return
	}

	txn, err := h.service.ProcessPurchase(ctx, app.PurchaseInput{
		Customer:    customer,
		Items:       toLineItems(payload.Items),
		TotalAmount: payload.TotalAmount,
		CardNumber:  payload.PaymentDetails.CardNumber,
	})

	status, response := purchaseOutcome(txn, err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "purchase failed", "error", err)
	}

	body, marshalErr := json.Marshal(response)
	if marshalErr != nil {
		writeError(w, http.StatusInternalServerError, MessageProcessingFailed)
		return
	}

	if reserved && status != http.StatusInternalServerError {
		stored := ports.StoredResponse{StatusCode: status, Body: body, TransactionID: response.TransactionID}
		if err := h.service.SaveIdempotentResponse(context.WithoutCancel(ctx), idemKey, stored); err != nil {
			h.logger.ErrorContext(ctx, "failed to save idempotency key", "error", err)
		} else {
			saved = true
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// scopedIdempotencyKey namespaces the client key by customer so two
// customers never share a stored response.
func scopedIdempotencyKey(customer, header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	return customer + ":" + header
}

// reserveKey claims key for this request. When the key is taken it writes
// the stored response, or 409 while the first request is still running.
func (h *Handler) reserveKey(w http.ResponseWriter, r *http.Request, key string) bool {
	ctx := r.Context()
	reserved, err := h.service.ReserveIdempotencyKey(ctx, key)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to reserve idempotency key", "error", err)
		writeError(w, http.StatusInternalServerError, MessageProcessingFailed)
		return false
	}
	if reserved {
		return true
	}

	stored, err := h.service.GetIdempotentResponse(ctx, key)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read idempotency key", "error", err)
		writeError(w, http.StatusInternalServerError, MessageProcessingFailed)
		return false
	}
	if stored == nil || stored.Pending() {
		writeError(w, http.StatusConflict, MessagePurchaseInFlight)
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(stored.StatusCode)
	_, _ = w.Write(stored.Body)
	return false
}

func purchaseOutcome(txn *domain.Transaction, err error) (int, purchaseResponse) {
	if err == nil {
		timestamp := txn.UpdatedAt
		return http.StatusOK, purchaseResponse{
			Success:       true,
			TransactionID: txn.ID,
			Timestamp:     &timestamp,
			Amount:        txn.Amount(),
			ItemCount:     txn.ItemCount,
		}
	}

	var declined *domain.DeclinedError
	switch {
	case errors.As(err, &declined):
		resp := purchaseResponse{Error: declined.Reason, Message: declined.Reason}
		if txn != nil {
			resp.TransactionID = txn.ID
		}
		return http.StatusPaymentRequired, resp
	case errors.Is(err, domain.ErrNoItems):
		return http.StatusBadRequest, purchaseResponse{Error: MessageNoItems}
	case errors.Is(err, domain.ErrMissingPaymentDetails):
		return http.StatusBadRequest, purchaseResponse{Error: MessageMissingPayment}
	default:
		return http.StatusInternalServerError, purchaseResponse{Error: MessageProcessingFailed}
	}
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	customer, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	filter := ports.ListFilter{Customer: customer}
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status := domain.Status(statusParam)
		filter.Status = &status
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		filter.PageSize = pageSize
	}

	txns, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "Error processing request")
		return
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transactions": txns})
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	customer, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, TransactionsPath+"/"), "/")
	if id == "" {
		writeError(w, http.StatusNotFound, MessageTransactionAbsent)
		return
	}

	txn, err := h.service.GetTransaction(r.Context(), id, customer)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, MessageTransactionAbsent)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to load transaction", "transaction_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error processing request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transaction": txn})
}

// authenticate resolves the bearer token to a customer id, writing a 401
// when it cannot.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	bearer, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(bearer) == "" {
		writeError(w, http.StatusUnauthorized, MessageAuthRequired)
		return "", false
	}

	claims, err := h.verifier.Verify(strings.TrimSpace(bearer))
	if err != nil {
		h.logger.WarnContext(r.Context(), "rejected bearer token", "error", err)
		writeError(w, http.StatusUnauthorized, MessageInvalidAuth)
		return "", false
	}

	if claims.Email != "" {
		return claims.Email, true
	}
	return claims.UserID, true
}

func toLineItems(items []purchaseItem) []commands.LineItem {
	out := make([]commands.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, commands.LineItem{
			ProductID: item.ID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}
