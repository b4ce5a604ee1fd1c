package store

import (
	"context"
	"time"

	"storefront-service/internal/domain"
)

// ListCategoriesParams holds parameters for listing categories.
type ListCategoriesParams struct {
	Limit      int
	Offset     int
	ActiveOnly bool
}

// CategoryStorer defines the database operations for categories.
// There is deliberately no DeleteCategory: category deletion is not exposed,
// so stale parent references never have to be repaired here.
type CategoryStorer interface {
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListCategories(ctx context.Context, params ListCategoriesParams) ([]domain.Category, int, error)
	UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	// RecountCategoryProducts overwrites the category's cached product count
	// with a fresh count of its published products. It runs after the product
	// write that triggered it and is not atomic with it; a failure here
	// leaves the cache stale until the next successful recount.
	RecountCategoryProducts(ctx context.Context, categoryID int64) error
}

// ListProductsParams holds parameters for listing products
// (pagination, filtering, sorting).
type ListProductsParams struct {
	Limit         int
	Offset        int
	Search        *string // matches name, description or SKU
	CategoryID    *int64
	Status        string // "", "published", "unpublished" or "lowstock"
	SortBy        string // API-level field name, e.g. "createdAt", "price"
	SortOrder     string // "asc" or "desc"
	PublishedOnly bool   // storefront listings never see unpublished products
}

// ProductStorer defines the database operations for products.
type ProductStorer interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error)
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	IncrementViewCount(ctx context.Context, id int64) error
}

// ListOrdersParams holds parameters for listing orders.
type ListOrdersParams struct {
	Limit  int
	Offset int
	Status *domain.OrderStatus
}

// OrderStorer defines the database operations for orders. CreateOrder and
// UpdateOrder recompute the order's totals from its items before writing, so
// stored totals are always consistent with the stored items as of that save.
type OrderStorer interface {
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, params ListOrdersParams) ([]domain.Order, int, error)
	UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
}

// UserStorer defines the read-only user operations this service needs.
// Account management lives in a separate service.
type UserStorer interface {
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int, error)
}

// DashboardOverview is the counters block of the admin dashboard.
type DashboardOverview struct {
	TotalUsers       int64   `json:"totalUsers"`
	TotalProducts    int64   `json:"totalProducts"`
	TotalOrders      int64   `json:"totalOrders"`
	TotalCategories  int64   `json:"totalCategories"`
	TodayOrders      int64   `json:"todayOrders"`
	TodayRevenue     float64 `json:"todayRevenue"`
	MonthlyRevenue   float64 `json:"monthlyRevenue"`
	LowStockProducts int64   `json:"lowStockProducts"`
	NewUsers         int64   `json:"newUsers"`
}

// TopProduct is the trimmed product projection shown on the dashboard.
type TopProduct struct {
	ID         int64                 `json:"id"`
	Name       string                `json:"name"`
	Price      float64               `json:"price"`
	SalesCount int                   `json:"salesCount"`
	Images     []domain.ProductImage `json:"images"`
}

// DashboardStats is the full dashboard payload.
type DashboardStats struct {
	Overview     DashboardOverview `json:"overview"`
	RecentOrders []domain.Order    `json:"recentOrders"`
	TopProducts  []TopProduct      `json:"topProducts"`
}

// SalesPoint is one day of paid-order sales. The _id key mirrors the wire
// format the dashboard frontend consumes.
type SalesPoint struct {
	Date       string  `json:"_id"` // YYYY-MM-DD
	TotalSales float64 `json:"totalSales"`
	OrderCount int64   `json:"orderCount"`
}

// CategoryRevenue is paid-order revenue attributed to one category by
// joining order line items through products to categories.
type CategoryRevenue struct {
	Category   string  `json:"_id"`
	Revenue    float64 `json:"revenue"`
	OrderCount int64   `json:"orderCount"`
}

// StatsStorer defines the read-only reporting queries. Every call recomputes
// its aggregates in full; nothing is cached or incrementally maintained.
type StatsStorer interface {
	DashboardStats(ctx context.Context, now time.Time) (*DashboardStats, error)
	SalesData(ctx context.Context, since time.Time) ([]SalesPoint, error)
	RevenueByCategory(ctx context.Context, since time.Time) ([]CategoryRevenue, error)
}
