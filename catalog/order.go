package catalog

import (
	"errors"
	"strings"

	"shopfront/state"
)

// Order statuses.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusShipped   = "SHIPPED"
	StatusDelivered = "DELIVERED"
	StatusCancelled = "CANCELLED"
)

// ErrMissingCustomer signals a checkout without the required contact fields.
var ErrMissingCustomer = errors.New("catalog: customer name, email, phone and address are required")

// Customer is the contact block of a checkout.
type Customer struct {
	Name    string `json:"customerName"`
	Email   string `json:"customerEmail"`
	Phone   string `json:"customerPhone"`
	Address string `json:"address"`
}

// Validate reports ErrMissingCustomer when a field is blank.
func (c Customer) Validate() error {
	for _, v := range []string{c.Name, c.Email, c.Phone, c.Address} {
		if strings.TrimSpace(v) == "" {
			return ErrMissingCustomer
		}
	}
	return nil
}

// CheckoutRequest is the body of POST /public/orders.
type CheckoutRequest struct {
	Customer
	CartItems []state.CartItem `json:"cartItems"`
}

// OrderItem is one line of a placed order.
type OrderItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Image       string  `json:"productImageUrl,omitempty"`
	StudentID   int64   `json:"studentId,omitempty"`
	StudentName string  `json:"studentName,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
}

// Order is a placed order.
type Order struct {
	Customer
	ID          int64       `json:"id"`
	Reference   string      `json:"reference,omitempty"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"totalAmount"`
	CreatedAt   string      `json:"createdAt,omitempty"`
	Items       []OrderItem `json:"orderItems"`
}
