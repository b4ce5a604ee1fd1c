package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"storefront-service/internal/store"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	categoryStore store.CategoryStorer
	productStore  store.ProductStorer
	orderStore    store.OrderStorer
	userStore     store.UserStorer
	statsStore    store.StatsStorer
	validate      *validator.Validate
	jwtSecret     []byte
}

// NewHTTPHandler creates a new HTTPHandler with dependencies. A single
// *store.PostgresStore satisfies every storer interface, so main passes the
// same value for each.
func NewHTTPHandler(
	cs store.CategoryStorer,
	ps store.ProductStorer,
	os store.OrderStorer,
	us store.UserStorer,
	ss store.StatsStorer,
	jwtSecret string,
) *HTTPHandler {
	return &HTTPHandler{
		categoryStore: cs,
		productStore:  ps,
		orderStore:    os,
		userStore:     us,
		statsStore:    ss,
		validate:      validator.New(),
		jwtSecret:     []byte(jwtSecret),
	}
}

// --- Helpers ---

// envelope is the uniform JSON response shape: {success, data} on success,
// {success:false, message, errors?} on failure.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
			http.Error(w, `{"success":false,"message":"Internal server error during JSON encoding"}`, http.StatusInternalServerError)
		}
	}
}

func respondWithData(w http.ResponseWriter, code int, data interface{}) {
	respondWithJSON(w, code, envelope{Success: true, Data: data})
}

func respondWithMessage(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, envelope{Success: true, Message: message})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, envelope{Success: false, Message: message})
}

// respondWithValidationError turns a validator error into a 400 response
// carrying one message per failed field.
func respondWithValidationError(w http.ResponseWriter, err error) {
	messages := []string{err.Error()}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		messages = make([]string, 0, len(verrs))
		for _, fe := range verrs {
			messages = append(messages, fieldErrorMessage(fe))
		}
	}
	respondWithJSON(w, http.StatusBadRequest, envelope{
		Success: false,
		Message: "Validation Error",
		Errors:  messages,
	})
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Please add a " + fe.Field()
	case "min", "gte":
		return fe.Field() + " is below the allowed minimum"
	case "max", "lte":
		return fe.Field() + " exceeds the allowed maximum"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// parsePagination reads page/limit query parameters with the usual defaults
// and caps.
func parsePagination(r *http.Request) (page, limit int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	page, err = strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	return page, limit
}

// pagination matches the {current, pages, total} block the admin frontend
// expects.
type pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

func newPagination(page, limit, total int) pagination {
	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	return pagination{Current: page, Pages: pages, Total: total}
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service. Storefront routes
// are public, order placement needs a valid token and everything under
// /api/admin needs the admin role.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{slug}", h.GetCategoryBySlug)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListPublishedProducts)
		r.Get("/{productId}", h.GetPublishedProduct)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Post("/", h.CreateOrder)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.RequireAuth, h.RequireAdmin)

		r.Get("/dashboard", h.GetDashboardStats)
		r.Get("/analytics/sales", h.GetSalesAnalytics)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Route("/{productId}", func(r chi.Router) {
				r.Put("/", h.UpdateProduct)
				r.Delete("/", h.DeleteProduct)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListAllCategories)
			r.Post("/", h.CreateCategory)
			r.Get("/{categoryId}", h.GetCategoryByID)
			r.Put("/{categoryId}", h.UpdateCategory)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Get("/{orderId}", h.GetOrderByID)
			r.Put("/{orderId}/status", h.UpdateOrderStatus)
		})

		r.Get("/users", h.ListUsers)
	})
}
