package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

// MockCategoryStorer is a mock implementation of store.CategoryStorer
type MockCategoryStorer struct {
	mock.Mock
}

func (m *MockCategoryStorer) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) ListCategories(ctx context.Context, params store.ListCategoriesParams) ([]domain.Category, int, error) {
	args := m.Called(ctx, params)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Int(1), args.Error(2)
}

func (m *MockCategoryStorer) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) RecountCategoryProducts(ctx context.Context, categoryID int64) error {
	args := m.Called(ctx, categoryID)
	return args.Error(0)
}

// MockProductStorer is a mock implementation of store.ProductStorer
type MockProductStorer struct {
	mock.Mock
}

func (m *MockProductStorer) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) ListProducts(ctx context.Context, params store.ListProductsParams) ([]domain.Product, int, error) {
	args := m.Called(ctx, params)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Int(1), args.Error(2)
}

func (m *MockProductStorer) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) DeleteProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductStorer) IncrementViewCount(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockOrderStorer is a mock implementation of store.OrderStorer
type MockOrderStorer struct {
	mock.Mock
}

func (m *MockOrderStorer) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderStorer) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderStorer) ListOrders(ctx context.Context, params store.ListOrdersParams) ([]domain.Order, int, error) {
	args := m.Called(ctx, params)
	var orders []domain.Order
	if arg0 := args.Get(0); arg0 != nil {
		orders = arg0.([]domain.Order)
	}
	return orders, args.Int(1), args.Error(2)
}

func (m *MockOrderStorer) UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// MockUserStorer is a mock implementation of store.UserStorer
type MockUserStorer struct {
	mock.Mock
}

func (m *MockUserStorer) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	args := m.Called(ctx, limit, offset)
	var users []domain.User
	if arg0 := args.Get(0); arg0 != nil {
		users = arg0.([]domain.User)
	}
	return users, args.Int(1), args.Error(2)
}

// MockStatsStorer is a mock implementation of store.StatsStorer
type MockStatsStorer struct {
	mock.Mock
}

func (m *MockStatsStorer) DashboardStats(ctx context.Context, now time.Time) (*store.DashboardStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.DashboardStats), args.Error(1)
}

func (m *MockStatsStorer) SalesData(ctx context.Context, since time.Time) ([]store.SalesPoint, error) {
	args := m.Called(ctx, since)
	var points []store.SalesPoint
	if arg0 := args.Get(0); arg0 != nil {
		points = arg0.([]store.SalesPoint)
	}
	return points, args.Error(1)
}

func (m *MockStatsStorer) RevenueByCategory(ctx context.Context, since time.Time) ([]store.CategoryRevenue, error) {
	args := m.Called(ctx, since)
	var results []store.CategoryRevenue
	if arg0 := args.Get(0); arg0 != nil {
		results = arg0.([]store.CategoryRevenue)
	}
	return results, args.Error(1)
}

// handlerMocks bundles one mock per storer interface.
type handlerMocks struct {
	categories *MockCategoryStorer
	products   *MockProductStorer
	orders     *MockOrderStorer
	users      *MockUserStorer
	stats      *MockStatsStorer
}

// setupTestChiServer wires a handler backed entirely by mocks behind a chi
// router, the same way main wires the real store.
func setupTestChiServer(t *testing.T) (*httptest.Server, *handlerMocks) {
	m := &handlerMocks{
		categories: new(MockCategoryStorer),
		products:   new(MockProductStorer),
		orders:     new(MockOrderStorer),
		users:      new(MockUserStorer),
		stats:      new(MockStatsStorer),
	}
	handler := NewHTTPHandler(m.categories, m.products, m.orders, m.users, m.stats, testJWTSecret)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, m
}

// authToken signs a token the middleware accepts.
func authToken(t *testing.T, userID int64, role string) string {
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

// expiredToken signs a token whose expiry is already in the past.
func expiredToken(t *testing.T) string {
	claims := tokenClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

// doJSON performs a JSON request with an optional bearer token.
func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return res
}

// Helper function to get a pointer (useful for optional fields in domain structs)
func PtrTo[T any](v T) *T {
	return &v
}
