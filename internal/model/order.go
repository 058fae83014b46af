package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderApproved   OrderStatus = "approved"
	OrderDenied     OrderStatus = "denied"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderApproved, OrderDenied, OrderProcessing, OrderShipped, OrderDelivered:
		return true
	}
	return false
}

// DeliveryType is how the order reaches the customer.
type DeliveryType string

const (
	DeliveryPickup   DeliveryType = "pickup"
	DeliveryDelivery DeliveryType = "delivery"
)

// Order represents a customer order. Voucher code, discount and total are
// snapshots taken at creation and are never recomputed.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          string          `json:"userId" db:"user_id"`
	OrderDate       time.Time       `json:"orderDate" db:"order_date"`
	Status          OrderStatus     `json:"status" db:"status"`
	Items           []OrderItem     `json:"items"`
	DeliveryType    DeliveryType    `json:"deliveryType" db:"delivery_type"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee" db:"delivery_fee"`
	ShippingWaived  bool            `json:"shippingWaived" db:"shipping_waived"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	VoucherID       *uuid.UUID      `json:"voucherId,omitempty" db:"voucher_id"`
	VoucherCode     *string         `json:"voucherCode,omitempty" db:"voucher_code"`
	VoucherDiscount decimal.Decimal `json:"voucherDiscount" db:"voucher_discount"`
	VoucherCounted  bool            `json:"-" db:"voucher_counted"`
	TotalAmount     decimal.Decimal `json:"totalAmount" db:"total_amount"`
	AdminNotes      *string         `json:"adminNotes,omitempty" db:"admin_notes"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ID          uuid.UUID       `json:"-" db:"id"`
	OrderID     uuid.UUID       `json:"-" db:"order_id"`
	Position    int             `json:"-" db:"position"`
	ProductID   string          `json:"productId" db:"product_id"`
	ProductName string          `json:"productName" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	Items        []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryType DeliveryType       `json:"deliveryType" validate:"required,oneof=pickup delivery"`
	DeliveryFee  decimal.Decimal    `json:"deliveryFee"`
	VoucherCode  *string            `json:"voucherCode,omitempty"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=10000"`
}

// DenyRequest carries the optional JSON body of a deny call.
type DenyRequest struct {
	Reason string `json:"reason"`
}

// DenyResult is returned by a successful denial.
type DenyResult struct {
	Order           *Order `json:"order"`
	VoucherReversed bool   `json:"voucher_reversed"`
}

// OrderFilter narrows an order listing.
type OrderFilter struct {
	UserID string
	Status OrderStatus
	Limit  int
	Offset int
}
