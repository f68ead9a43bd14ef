package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rl1809/catalog/internal/core/domain"
	"github.com/rl1809/catalog/internal/core/service"
	"github.com/rl1809/catalog/internal/port"
)

type HTTPHandler struct {
	users    *service.UserService
	products *service.ProductService
	orders   *service.OrderService
	logger   *slog.Logger
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type RegisterUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Stock       int     `json:"stock"`
}

func (r CreateProductRequest) input() service.CreateProductInput {
	return service.CreateProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Currency:    r.Currency,
		Stock:       r.Stock,
	}
}

type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
}

type PlaceOrderRequest struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func NewHTTPHandler(users *service.UserService, products *service.ProductService, orders *service.OrderService, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HTTPHandler{users: users, products: products, orders: orders, logger: logger}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/users", h.RegisterUser)
	mux.HandleFunc("GET /api/users", h.ListUsers)
	mux.HandleFunc("GET /api/users/{id}", h.GetUser)
	mux.HandleFunc("PATCH /api/users/{id}", h.UpdateUser)
	mux.HandleFunc("DELETE /api/users/{id}", h.DeleteUser)

	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("POST /api/products/batch", h.CreateProducts)
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("PATCH /api/products/{id}", h.UpdateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.DeleteProduct)

	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("POST /api/orders/{id}/{action}", h.TransitionOrder)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.users.Register(r.Context(), service.RegisterUserInput{Name: req.Name, Email: req.Email})
	h.respond(w, r, http.StatusCreated, "user registered", user, err)
}

func (h *HTTPHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), port.UserFilter{EmailContains: r.URL.Query().Get("email")})
	h.respond(w, r, http.StatusOK, "", users, err)
}

func (h *HTTPHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), r.PathValue("id"))
	h.respond(w, r, http.StatusOK, "", user, err)
}

func (h *HTTPHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.users.Update(r.Context(), r.PathValue("id"), service.UpdateUserInput{Name: req.Name, Email: req.Email})
	h.respond(w, r, http.StatusOK, "user updated", user, err)
}

func (h *HTTPHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	err := h.users.Delete(r.Context(), r.PathValue("id"))
	h.respond(w, r, http.StatusOK, "user deleted", nil, err)
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decode(w, r, &req) {
		return
	}
	product, err := h.products.Create(r.Context(), req.input())
	h.respond(w, r, http.StatusCreated, "product created", product, err)
}

func (h *HTTPHandler) CreateProducts(w http.ResponseWriter, r *http.Request) {
	var req []CreateProductRequest
	if !decode(w, r, &req) {
		return
	}
	inputs := make([]service.CreateProductInput, 0, len(req))
	for _, p := range req {
		inputs = append(inputs, p.input())
	}
	products, err := h.products.CreateMany(r.Context(), inputs)
	h.respond(w, r, http.StatusCreated, "products created", products, err)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := port.ProductFilter{NameContains: q.Get("q")}
	if raw := q.Get("in_stock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Message: "in_stock must be a boolean"})
			return
		}
		filter.InStockOnly = inStock
	}
	products, err := h.products.List(r.Context(), filter)
	h.respond(w, r, http.StatusOK, "", products, err)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Get(r.Context(), r.PathValue("id"))
	h.respond(w, r, http.StatusOK, "", product, err)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if !decode(w, r, &req) {
		return
	}
	product, err := h.products.Update(r.Context(), r.PathValue("id"), service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	h.respond(w, r, http.StatusOK, "product updated", product, err)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.products.Delete(r.Context(), r.PathValue("id"))
	h.respond(w, r, http.StatusOK, "product deleted", nil, err)
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.orders.PlaceOrder(r.Context(), service.PlaceOrderInput{
		RequestID: req.RequestID,
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	h.respond(w, r, http.StatusCreated, "order placed successfully", order, err)
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.orders.List(r.Context(), service.ListOrdersInput{
		UserID:    q.Get("user_id"),
		ProductID: q.Get("product_id"),
		Status:    q.Get("status"),
	})
	h.respond(w, r, http.StatusOK, "", orders, err)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), r.PathValue("id"))
	h.respond(w, r, http.StatusOK, "", order, err)
}

func (h *HTTPHandler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var (
		order service.OrderDTO
		err   error
	)
	switch action := r.PathValue("action"); action {
	case "confirm":
		order, err = h.orders.Confirm(r.Context(), id)
	case "ship":
		order, err = h.orders.Ship(r.Context(), id)
	case "deliver":
		order, err = h.orders.Deliver(r.Context(), id)
	case "cancel":
		order, err = h.orders.Cancel(r.Context(), id)
	default:
		writeJSON(w, http.StatusNotFound, Response{Message: "unknown action " + strconv.Quote(action)})
		return
	}
	h.respond(w, r, http.StatusOK, "order status is "+order.Status, order, err)
}

func (h *HTTPHandler) respond(w http.ResponseWriter, r *http.Request, status int, message string, data any, err error) {
	if err != nil {
		code, msg := statusFor(err)
		if code >= http.StatusInternalServerError {
			h.logger.Error("http.request_failed", "method", r.Method, "path", r.URL.Path, "error", err)
		}
		writeJSON(w, code, Response{Success: false, Message: msg})
		return
	}
	writeJSON(w, status, Response{Success: true, Message: message, Data: data})
}

// statusFor maps service errors onto HTTP status codes. Internal errors are
// not echoed to the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate request"
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusConflict, err.Error()
	}

	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound, err.Error()
	case domain.KindAlreadyExists, domain.KindInvalidTransition:
		return http.StatusConflict, err.Error()
	case domain.KindInvalidArgument, domain.KindValidation:
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LogRequests emits one http.request event per request.
func LogRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
