package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/internal/products"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

// State is derived from the lines; a checked out cart is cleared back to empty.
type State string

const (
	StateEmpty    State = "empty"
	StateHasItems State = "has_items"
)

// Aggregate mutates one cart and its lines in memory. Callers persist it and
// must call Recompute after each mutation.
type Aggregate struct {
	cart *models.Cart
	now  func() time.Time
}

func NewAggregate(cart *models.Cart, now func() time.Time) *Aggregate {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Aggregate{cart: cart, now: now}
}

func (a *Aggregate) Cart() *models.Cart {
	return a.cart
}

func (a *Aggregate) State() State {
	if len(a.cart.Items) == 0 {
		return StateEmpty
	}
	return StateHasItems
}

// AddItem bumps the quantity of an existing line for the product, otherwise
// appends a line at quantity 1 with price and tax rate snapshotted now.
func (a *Aggregate) AddItem(price products.BranchPrice) *models.CartItem {
	for i := range a.cart.Items {
		if a.cart.Items[i].ProductID == price.ProductID {
			a.cart.Items[i].Quantity++
			return &a.cart.Items[i]
		}
	}

	position := 0
	for _, item := range a.cart.Items {
		if item.Position >= position {
			position = item.Position + 1
		}
	}
	a.cart.Items = append(a.cart.Items, models.CartItem{
		ID:         uuid.New(),
		CartID:     a.cart.ID,
		ProductID:  price.ProductID,
		CategoryID: price.CategoryID,
		Name:       price.Name,
		UnitPrice:  price.UnitPrice,
		Quantity:   1,
		TaxRate:    price.TaxRate,
		Position:   position,
		CreatedAt:  a.now(),
	})
	return &a.cart.Items[len(a.cart.Items)-1]
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (a *Aggregate) UpdateQuantity(itemID uuid.UUID, quantity int) error {
	idx := a.indexOf(itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	if quantity <= 0 {
		a.removeAt(idx)
		return nil
	}
	a.cart.Items[idx].Quantity = quantity
	return nil
}

func (a *Aggregate) RemoveItem(itemID uuid.UUID) error {
	idx := a.indexOf(itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	a.removeAt(idx)
	return nil
}

// ApplyDiscount fills the single discount slot, replacing any previous one.
func (a *Aggregate) ApplyDiscount(discountID uuid.UUID) {
	id := discountID
	a.cart.DiscountID = &id
}

func (a *Aggregate) RemoveDiscount() {
	a.cart.DiscountID = nil
}

func (a *Aggregate) SetCustomer(customerID *uuid.UUID) {
	a.cart.CustomerID = customerID
}

// Clear drops every line and the discount. The customer stays attached.
func (a *Aggregate) Clear() {
	a.cart.Items = nil
	a.cart.DiscountID = nil
}

// Lines converts cart items into calculator lines, preserving order.
func (a *Aggregate) Lines() []pricing.Line {
	return Lines(a.cart.Items)
}

// Recompute rewrites the derived totals from scratch.
func (a *Aggregate) Recompute(discount *pricing.Discount, taxExempt bool, policy pricing.Policy) pricing.Totals {
	totals := pricing.Compute(pricing.Input{
		Lines:     a.Lines(),
		Discount:  discount,
		TaxExempt: taxExempt,
		Now:       a.now(),
	}, policy)

	a.cart.Subtotal = totals.Subtotal
	a.cart.DiscountTotal = totals.Discount
	a.cart.TaxTotal = totals.Tax
	a.cart.TotalAmount = totals.Total
	return totals
}

func (a *Aggregate) indexOf(itemID uuid.UUID) int {
	for i := range a.cart.Items {
		if a.cart.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (a *Aggregate) removeAt(idx int) {
	a.cart.Items = append(a.cart.Items[:idx], a.cart.Items[idx+1:]...)
}

func Lines(items []models.CartItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{
			ProductID:  item.ProductID,
			CategoryID: item.CategoryID,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			TaxRate:    item.TaxRate,
		})
	}
	return lines
}

// ZeroTotals resets derived amounts, used for freshly created carts.
func ZeroTotals(c *models.Cart) {
	c.Subtotal = decimal.Zero
	c.DiscountTotal = decimal.Zero
	c.TaxTotal = decimal.Zero
	c.TotalAmount = decimal.Zero
}
