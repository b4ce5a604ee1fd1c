package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// OrderItemInput is one requested line item. Only the product reference and
// quantity are trusted from the client; name and unit price are snapshotted
// from the catalog at order time.
type OrderItemInput struct {
	Product  int64 `json:"product" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,min=1"`
}

// AddressInput mirrors domain.Address for request payloads.
type AddressInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

func (a *AddressInput) toDomain() domain.Address {
	return domain.Address{
		FirstName: a.FirstName, LastName: a.LastName, Company: a.Company,
		Address1: a.Address1, Address2: a.Address2,
		City: a.City, State: a.State, ZipCode: a.ZipCode, Country: a.Country,
		Phone: a.Phone,
	}
}

// OrderCreateInput defines the expected input for placing an order. An empty
// items list is accepted; the resulting order simply totals to
// tax + shipping - discount.
type OrderCreateInput struct {
	Items           []OrderItemInput `json:"items" validate:"dive"`
	TaxAmount       float64          `json:"taxAmount" validate:"gte=0"`
	ShippingAmount  float64          `json:"shippingAmount" validate:"gte=0"`
	DiscountAmount  float64          `json:"discountAmount" validate:"gte=0"`
	PaymentMethod   string           `json:"paymentMethod" validate:"required,oneof=card paypal momo bank_transfer cash"`
	ShippingAddress AddressInput     `json:"shippingAddress"`
	BillingAddress  AddressInput     `json:"billingAddress"`
	ShippingMethod  string           `json:"shippingMethod"`
	CustomerNote    string           `json:"customerNote" validate:"max=500"`
}

// --- Storefront Order Handlers ---

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}

	var input OrderCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithValidationError(w, err)
		return
	}

	// Snapshot name and unit price per item from the current catalog. The
	// order keeps these values forever; later price changes never touch it.
	items := make([]domain.OrderItem, 0, len(input.Items))
	for _, it := range input.Items {
		product, err := h.productStore.GetProductByID(r.Context(), it.Product)
		if err != nil {
			if errors.Is(err, store.ErrProductNotFound) {
				respondWithError(w, http.StatusBadRequest, "Product not found: "+strconv.FormatInt(it.Product, 10))
			} else {
				log.Printf("ERROR: CreateOrder product lookup for ID %d failed: %v", it.Product, err)
				respondWithError(w, http.StatusInternalServerError, "Error creating order")
			}
			return
		}
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  it.Quantity,
			Price:     product.Price,
		})
	}

	order := &domain.Order{
		UserID:          claims.UserID,
		Items:           items,
		TaxAmount:       input.TaxAmount,
		ShippingAmount:  input.ShippingAmount,
		DiscountAmount:  input.DiscountAmount,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		PaymentMethod:   domain.PaymentMethod(input.PaymentMethod),
		ShippingAddress: input.ShippingAddress.toDomain(),
		BillingAddress:  input.BillingAddress.toDomain(),
		ShippingMethod:  input.ShippingMethod,
		CustomerNote:    input.CustomerNote,
	}

	createdOrder, err := h.orderStore.CreateOrder(r.Context(), order)
	if err != nil {
		log.Printf("ERROR: CreateOrder store operation failed: %v", err)
		if errors.Is(err, store.ErrOrderNumberExists) {
			respondWithError(w, http.StatusBadRequest, "Order number collision, please retry")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Error creating order")
		}
		return
	}

	respondWithData(w, http.StatusCreated, createdOrder)
}

// --- Admin Order Handlers ---

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	params := store.ListOrdersParams{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := domain.OrderStatus(statusStr)
		if !status.Valid() {
			respondWithError(w, http.StatusBadRequest, "Invalid order status")
			return
		}
		params.Status = &status
	}

	orders, totalCount, err := h.orderStore.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: ListOrders store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Error fetching orders")
		return
	}

	respondWithData(w, http.StatusOK, map[string]interface{}{
		"orders":     orders,
		"pagination": newPagination(page, limit, totalCount),
	})
}

func (h *HTTPHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil || orderID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	order, err := h.orderStore.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found")
		} else {
			log.Printf("ERROR: GetOrderByID store operation for ID %d failed: %v", orderID, err)
			respondWithError(w, http.StatusInternalServerError, "Error fetching order")
		}
		return
	}

	respondWithData(w, http.StatusOK, order)
}

// OrderStatusInput defines the expected input for an order status change.
// PaymentStatus is optional; when present it moves along with the fulfilment
// status.
type OrderStatusInput struct {
	Status          string `json:"status" validate:"required"`
	PaymentStatus   string `json:"paymentStatus"`
	TrackingNumber  string `json:"trackingNumber"`
	Carrier         string `json:"carrier"`
	Notes           string `json:"notes" validate:"max=500"`
	CancelledReason string `json:"cancelledReason" validate:"max=500"`
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil || orderID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	var input OrderStatusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithValidationError(w, err)
		return
	}

	status := domain.OrderStatus(input.Status)
	if !status.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid order status")
		return
	}
	var paymentStatus domain.PaymentStatus
	if input.PaymentStatus != "" {
		paymentStatus = domain.PaymentStatus(input.PaymentStatus)
		if !paymentStatus.Valid() {
			respondWithError(w, http.StatusBadRequest, "Invalid payment status")
			return
		}
	}

	order, err := h.orderStore.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found")
		} else {
			log.Printf("ERROR: UpdateOrderStatus lookup for ID %d failed: %v", orderID, err)
			respondWithError(w, http.StatusInternalServerError, "Error updating order")
		}
		return
	}

	order.Status = status
	if paymentStatus != "" {
		order.PaymentStatus = paymentStatus
	}
	if input.TrackingNumber != "" {
		order.TrackingNumber = input.TrackingNumber
	}
	if input.Carrier != "" {
		order.Carrier = input.Carrier
	}
	if input.Notes != "" {
		order.Notes = input.Notes
	}

	// Terminal transitions stamp their timestamp once; moving into the same
	// state again keeps the original stamp.
	now := time.Now()
	switch status {
	case domain.OrderStatusCancelled:
		if order.CancelledAt == nil {
			order.CancelledAt = &now
		}
		if input.CancelledReason != "" {
			order.CancelledReason = input.CancelledReason
		}
	case domain.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
	}

	updatedOrder, err := h.orderStore.UpdateOrder(r.Context(), order)
	if err != nil {
		log.Printf("ERROR: UpdateOrderStatus store operation for ID %d failed: %v", orderID, err)
		if errors.Is(err, store.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Error updating order")
		}
		return
	}

	respondWithData(w, http.StatusOK, updatedOrder)
}
