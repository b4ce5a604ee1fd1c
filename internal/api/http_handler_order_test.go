package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHTTPHandler_CreateOrder_SnapshotsCatalogPrices(t *testing.T) {
	server, m := setupTestChiServer(t)

	product := &domain.Product{ID: 1, Name: "Widget", Price: 9.99, IsPublished: true}
	m.products.On("GetProductByID", mock.Anything, int64(1)).Return(product, nil).Once()

	createdOrder := &domain.Order{ID: 10, OrderNumber: "ORD-1-000001", UserID: 42}
	m.orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		// The user comes from the token, the item name and unit price from the
		// catalog, never from the request body.
		return o.UserID == int64(42) &&
			len(o.Items) == 1 &&
			o.Items[0].Name == "Widget" &&
			o.Items[0].Price == 9.99 &&
			o.Items[0].Quantity == 2 &&
			o.Status == domain.OrderStatusPending &&
			o.PaymentStatus == domain.PaymentStatusPending
	})).Return(createdOrder, nil).Once()

	input := OrderCreateInput{
		Items:         []OrderItemInput{{Product: 1, Quantity: 2}},
		PaymentMethod: "card",
	}
	res := doJSON(t, http.MethodPost, server.URL+"/api/orders", authToken(t, 42, "customer"), input)
	defer res.Body.Close()

	require.Equal(t, http.StatusCreated, res.StatusCode)

	var response struct {
		Success bool         `json:"success"`
		Data    domain.Order `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.True(t, response.Success)
	assert.Equal(t, "ORD-1-000001", response.Data.OrderNumber)

	m.products.AssertExpectations(t)
	m.orders.AssertExpectations(t)
}

func TestHTTPHandler_CreateOrder_EmptyItemsAccepted(t *testing.T) {
	server, m := setupTestChiServer(t)

	createdOrder := &domain.Order{ID: 11, OrderNumber: "ORD-1-000002", UserID: 42}
	m.orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return len(o.Items) == 0
	})).Return(createdOrder, nil).Once()

	input := OrderCreateInput{PaymentMethod: "cash", ShippingAmount: 5}
	res := doJSON(t, http.MethodPost, server.URL+"/api/orders", authToken(t, 42, "customer"), input)
	defer res.Body.Close()

	require.Equal(t, http.StatusCreated, res.StatusCode)
	m.orders.AssertExpectations(t)
}

func TestHTTPHandler_CreateOrder_NumberCollision(t *testing.T) {
	server, m := setupTestChiServer(t)

	m.orders.On("CreateOrder", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Return(nil, store.ErrOrderNumberExists).Once()

	input := OrderCreateInput{PaymentMethod: "card"}
	res := doJSON(t, http.MethodPost, server.URL+"/api/orders", authToken(t, 42, "customer"), input)
	defer res.Body.Close()

	// Uniqueness conflicts respond 400 like every other duplicate-key case.
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.False(t, response.Success)
	assert.Equal(t, "Order number collision, please retry", response.Message)

	m.orders.AssertExpectations(t)
}

func TestHTTPHandler_CreateOrder_UnknownProduct(t *testing.T) {
	server, m := setupTestChiServer(t)

	m.products.On("GetProductByID", mock.Anything, int64(7)).Return(nil, store.ErrProductNotFound).Once()

	input := OrderCreateInput{
		Items:         []OrderItemInput{{Product: 7, Quantity: 1}},
		PaymentMethod: "card",
	}
	res := doJSON(t, http.MethodPost, server.URL+"/api/orders", authToken(t, 42, "customer"), input)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var response struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "Product not found: 7", response.Message)

	m.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestHTTPHandler_CreateOrder_InvalidPaymentMethod(t *testing.T) {
	server, m := setupTestChiServer(t)

	input := OrderCreateInput{PaymentMethod: "crypto"}
	res := doJSON(t, http.MethodPost, server.URL+"/api/orders", authToken(t, 42, "customer"), input)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var response struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "Validation Error", response.Message)
	assert.Contains(t, response.Errors, "PaymentMethod must be one of: card paypal momo bank_transfer cash")

	m.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestHTTPHandler_CreateOrder_RequiresToken(t *testing.T) {
	server, _ := setupTestChiServer(t)

	res := doJSON(t, http.MethodPost, server.URL+"/api/orders", "", OrderCreateInput{PaymentMethod: "card"})
	defer res.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	var response struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "Not authorized to access this route", response.Message)
}

func TestHTTPHandler_ListOrders_InvalidStatus(t *testing.T) {
	server, m := setupTestChiServer(t)

	res := doJSON(t, http.MethodGet, server.URL+"/api/admin/orders?status=archived", authToken(t, 1, "admin"), nil)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	m.orders.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
}

func TestHTTPHandler_ListOrders_StatusFilter(t *testing.T) {
	server, m := setupTestChiServer(t)

	shipped := domain.OrderStatusShipped
	m.orders.On("ListOrders", mock.Anything, store.ListOrdersParams{Limit: 10, Offset: 0, Status: &shipped}).
		Return([]domain.Order{{ID: 10, OrderNumber: "ORD-1-000001", Status: shipped}}, 1, nil).Once()

	res := doJSON(t, http.MethodGet, server.URL+"/api/admin/orders?status=shipped", authToken(t, 1, "admin"), nil)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var response struct {
		Data struct {
			Orders     []domain.Order `json:"orders"`
			Pagination struct {
				Total int `json:"total"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Len(t, response.Data.Orders, 1)
	assert.Equal(t, 1, response.Data.Pagination.Total)

	m.orders.AssertExpectations(t)
}

func TestHTTPHandler_GetOrderByID_NotFound(t *testing.T) {
	server, m := setupTestChiServer(t)

	m.orders.On("GetOrderByID", mock.Anything, int64(99)).Return(nil, store.ErrOrderNotFound).Once()

	res := doJSON(t, http.MethodGet, server.URL+"/api/admin/orders/99", authToken(t, 1, "admin"), nil)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	var response struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "Order not found", response.Message)

	m.orders.AssertExpectations(t)
}

func TestHTTPHandler_UpdateOrderStatus_CancelStampsTimestamp(t *testing.T) {
	server, m := setupTestChiServer(t)

	existingOrder := &domain.Order{ID: 10, OrderNumber: "ORD-1-000001", Status: domain.OrderStatusPending}
	m.orders.On("GetOrderByID", mock.Anything, int64(10)).Return(existingOrder, nil).Once()

	m.orders.On("UpdateOrder", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.Status == domain.OrderStatusCancelled &&
			o.CancelledAt != nil &&
			o.CancelledReason == "customer request"
	})).Return(existingOrder, nil).Once()

	input := OrderStatusInput{Status: "cancelled", CancelledReason: "customer request"}
	res := doJSON(t, http.MethodPut, server.URL+"/api/admin/orders/10/status", authToken(t, 1, "admin"), input)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	m.orders.AssertExpectations(t)
}

func TestHTTPHandler_UpdateOrderStatus_ShippedKeepsTracking(t *testing.T) {
	server, m := setupTestChiServer(t)

	existingOrder := &domain.Order{ID: 10, Status: domain.OrderStatusProcessing}
	m.orders.On("GetOrderByID", mock.Anything, int64(10)).Return(existingOrder, nil).Once()
	m.orders.On("UpdateOrder", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.Status == domain.OrderStatusShipped &&
			o.TrackingNumber == "TRACK123" &&
			o.Carrier == "DHL" &&
			o.CancelledAt == nil && o.DeliveredAt == nil
	})).Return(existingOrder, nil).Once()

	input := OrderStatusInput{Status: "shipped", TrackingNumber: "TRACK123", Carrier: "DHL"}
	res := doJSON(t, http.MethodPut, server.URL+"/api/admin/orders/10/status", authToken(t, 1, "admin"), input)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	m.orders.AssertExpectations(t)
}

func TestHTTPHandler_UpdateOrderStatus_PaymentStatusMovesAlong(t *testing.T) {
	server, m := setupTestChiServer(t)

	existingOrder := &domain.Order{ID: 10, Status: domain.OrderStatusPending, PaymentStatus: domain.PaymentStatusPending}
	m.orders.On("GetOrderByID", mock.Anything, int64(10)).Return(existingOrder, nil).Once()
	m.orders.On("UpdateOrder", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.Status == domain.OrderStatusConfirmed && o.PaymentStatus == domain.PaymentStatusPaid
	})).Return(existingOrder, nil).Once()

	input := OrderStatusInput{Status: "confirmed", PaymentStatus: "paid"}
	res := doJSON(t, http.MethodPut, server.URL+"/api/admin/orders/10/status", authToken(t, 1, "admin"), input)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	m.orders.AssertExpectations(t)
}

func TestHTTPHandler_UpdateOrderStatus_InvalidPaymentStatus(t *testing.T) {
	server, m := setupTestChiServer(t)

	input := OrderStatusInput{Status: "confirmed", PaymentStatus: "iou"}
	res := doJSON(t, http.MethodPut, server.URL+"/api/admin/orders/10/status", authToken(t, 1, "admin"), input)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var response struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "Invalid payment status", response.Message)

	m.orders.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything)
}

func TestHTTPHandler_UpdateOrderStatus_InvalidStatus(t *testing.T) {
	server, m := setupTestChiServer(t)

	input := OrderStatusInput{Status: "archived"}
	res := doJSON(t, http.MethodPut, server.URL+"/api/admin/orders/10/status", authToken(t, 1, "admin"), input)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var response struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "Invalid order status", response.Message)

	m.orders.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything)
}
