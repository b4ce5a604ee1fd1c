package domain

import (
	"time"
)

// Category represents a product category. Categories form a tree through
// ParentID; depth is unconstrained and orphaned parents are possible because
// there is no delete endpoint and no FK enforcement beyond the application.
type Category struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	Slug         string  `json:"slug"`
	ParentID     *int64  `json:"parent,omitempty"`
	Image        string  `json:"image"`
	IsActive     bool    `json:"isActive"`
	DisplayOrder int     `json:"displayOrder"`

	// ProductCount is a cached, best-effort count of published products in
	// this category. It is recomputed after product mutations but can drift
	// if a recount fails after the product write has committed.
	ProductCount int `json:"productCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductImage is an embedded image entry. Zero or many entries may carry
// IsPrimary; consumers must tolerate both.
type ProductImage struct {
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"isPrimary"`
}

// ProductReview is an embedded customer review. Only approved reviews
// contribute to the product's AverageRating and ReviewCount.
type ProductReview struct {
	UserID     int64     `json:"user"`
	Rating     int       `json:"rating"` // 1..5
	Comment    string    `json:"comment,omitempty"`
	IsApproved bool      `json:"isApproved"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Product represents a catalog product.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         float64         `json:"price"`
	ComparePrice  *float64        `json:"comparePrice,omitempty"`
	Cost          *float64        `json:"cost,omitempty"`
	CategoryID    int64           `json:"category"`
	CategoryName  string          `json:"categoryName,omitempty"` // joined, not stored
	Subcategory   string          `json:"subcategory,omitempty"`
	Brand         string          `json:"brand,omitempty"`
	SKU           string          `json:"sku"`
	Barcode       string          `json:"barcode,omitempty"`
	TrackQuantity bool            `json:"trackQuantity"`
	Quantity      int             `json:"quantity"` // meaningful only when TrackQuantity
	LowStockAlert int             `json:"lowStockAlert"`
	IsPublished   bool            `json:"isPublished"`
	IsFeatured    bool            `json:"isFeatured"`
	Images        []ProductImage  `json:"images"`
	Tags          []string        `json:"tags,omitempty"`
	Reviews       []ProductReview `json:"reviews,omitempty"`
	AverageRating float64         `json:"averageRating"`
	ReviewCount   int             `json:"reviewCount"`
	SalesCount    int             `json:"salesCount"`
	ViewCount     int             `json:"viewCount"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// OrderStatus is the fulfilment state of an order. The expected flow is
// pending -> confirmed -> processing -> shipped -> delivered, with cancelled
// and refunded as alternate terminal states.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// PaymentStatus tracks payment independently of fulfilment.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed,
		PaymentStatusRefunded, PaymentStatusPartiallyRefunded:
		return true
	}
	return false
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodPaypal       PaymentMethod = "paypal"
	PaymentMethodMomo         PaymentMethod = "momo"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodPaypal, PaymentMethodMomo,
		PaymentMethodBankTransfer, PaymentMethodCash:
		return true
	}
	return false
}

// OrderItem is one line item in an order. Price is the unit price
// snapshotted at the time the order was saved; later product price changes
// do not touch stored orders.
type OrderItem struct {
	ProductID int64   `json:"product"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"` // >= 1
	Price     float64 `json:"price"`    // >= 0
	Total     float64 `json:"total"`    // price * quantity, recomputed on save
}

// Address is a point-in-time snapshot embedded in the order; it is not a
// reference to any user profile record.
type Address struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Order represents a customer order.
type Order struct {
	ID                int64         `json:"id"`
	OrderNumber       string        `json:"orderNumber"`
	UserID            int64         `json:"user"`
	UserName          string        `json:"userName,omitempty"`  // joined, not stored
	UserEmail         string        `json:"userEmail,omitempty"` // joined, not stored
	Items             []OrderItem   `json:"items"`
	Subtotal          float64       `json:"subtotal"`
	TaxAmount         float64       `json:"taxAmount"`
	ShippingAmount    float64       `json:"shippingAmount"`
	DiscountAmount    float64       `json:"discountAmount"`
	Total             float64       `json:"total"`
	Status            OrderStatus   `json:"status"`
	PaymentStatus     PaymentStatus `json:"paymentStatus"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	ShippingAddress   Address       `json:"shippingAddress"`
	BillingAddress    Address       `json:"billingAddress"`
	ShippingMethod    string        `json:"shippingMethod,omitempty"`
	TrackingNumber    string        `json:"trackingNumber,omitempty"`
	Carrier           string        `json:"carrier,omitempty"`
	Notes             string        `json:"notes,omitempty"`
	CustomerNote      string        `json:"customerNote,omitempty"`
	RefundAmount      float64       `json:"refundAmount"`
	RefundReason      string        `json:"refundReason,omitempty"`
	CancelledAt       *time.Time    `json:"cancelledAt,omitempty"`
	CancelledReason   string        `json:"cancelledReason,omitempty"`
	DeliveredAt       *time.Time    `json:"deliveredAt,omitempty"`
	EstimatedDelivery *time.Time    `json:"estimatedDelivery,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// User is the slice of the users collection this service needs for the
// dashboard counts and the recent-orders join. Account management itself
// lives elsewhere.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
