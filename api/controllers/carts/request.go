package carts

import "github.com/google/uuid"

type createCartRequest struct {
	Name string `json:"name" validate:"max=80"`
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type applyDiscountRequest struct {
	DiscountID uuid.UUID `json:"discount_id" validate:"required"`
}

// setCustomerRequest detaches the customer when CustomerID is null.
type setCustomerRequest struct {
	CustomerID *uuid.UUID `json:"customer_id"`
}
