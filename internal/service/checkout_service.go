package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkraev/storefront/internal/apperr"
	"github.com/mkraev/storefront/internal/cache"
	"github.com/mkraev/storefront/internal/config"
	"github.com/mkraev/storefront/internal/domain"
	"github.com/mkraev/storefront/internal/inventory"
	"github.com/mkraev/storefront/internal/money"
	"github.com/mkraev/storefront/internal/repository"
)

const maxOrderNumberAttempts = 5

// CheckoutService converts an OPEN cart into an immutable order:
// validate everything, freeze prices into order lines, compute totals,
// decrement stock and mark the cart CONVERTED, all or nothing.
type CheckoutService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	products  repository.ProductRepository
	users     repository.UserRepository
	addresses repository.AddressRepository
	ledger    *inventory.Ledger
	cache     cache.CartCache // optional; nil disables invalidation
	locks     *CartLocks

	taxRatePercent        decimal.Decimal
	freeShippingThreshold decimal.Decimal
	baseShippingCost      decimal.Decimal
	shippingRatePercent   decimal.Decimal
	orderNumberPrefix     string
}

func NewCheckoutService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	addresses repository.AddressRepository,
	ledger *inventory.Ledger,
	cartCache cache.CartCache,
	locks *CartLocks,
	cfg config.Config,
) *CheckoutService {
	return &CheckoutService{
		orders:                orders,
		carts:                 carts,
		products:              products,
		users:                 users,
		addresses:             addresses,
		ledger:                ledger,
		cache:                 cartCache,
		locks:                 locks,
		taxRatePercent:        cfg.TaxRatePercent,
		freeShippingThreshold: cfg.FreeShippingThreshold,
		baseShippingCost:      cfg.BaseShippingCost,
		shippingRatePercent:   cfg.ShippingRatePercent,
		orderNumberPrefix:     cfg.OrderNumberPrefix,
	}
}

// Checkout runs the cart-to-order transaction for userID's cart. The
// precondition chain aborts with no side effects on the first failure;
// after it passes, stock is decremented (re-validated under the ledger
// lock), the order is created and the cart becomes CONVERTED.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, cartID string, shippingAddressID, billingAddressID int64) (*domain.Order, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.IsOpen() {
		return nil, &apperr.InvalidStateError{
			Entity:    "Cart",
			ID:        cart.ID,
			Current:   string(cart.Status),
			Required:  string(domain.CartStatusOpen),
			Operation: "checkout",
		}
	}
	if len(cart.Lines) == 0 {
		return nil, apperr.Validation("cart_id", cartID, "cannot checkout an empty cart")
	}
	if cart.UserID != userID {
		return nil, apperr.Validation("cart_id", cartID, "cart does not belong to user")
	}

	if err := s.requireOwnedAddress(ctx, shippingAddressID, userID, "shipping_address_id"); err != nil {
		return nil, err
	}
	if err := s.requireOwnedAddress(ctx, billingAddressID, userID, "billing_address_id"); err != nil {
		return nil, err
	}

	// Validate every line before any stock is touched.
	movements := make([]inventory.Movement, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Active {
			return nil, apperr.Validation("product_id", line.ProductID, fmt.Sprintf("product %q is no longer available", product.Name))
		}
		if !product.HasStock(line.Quantity) {
			return nil, &apperr.InsufficientStockError{
				ProductID: product.ID,
				SKU:       product.SKU,
				Requested: line.Quantity,
				Available: product.StockQty,
			}
		}
		movements = append(movements, inventory.Movement{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	number, err := s.generateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(cart, number, shippingAddressID, billingAddressID)

	// Commit. The decrement re-validates under the ledger lock, because
	// stock may have moved since the precondition pass.
	if err := s.ledger.DecrementAll(ctx, movements); err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if restoreErr := s.ledger.IncrementAll(ctx, movements); restoreErr != nil {
			log.Printf("stock restore after failed order create: %v", restoreErr)
		}
		return nil, err
	}

	converted := cart.Clone()
	converted.Status = domain.CartStatusConverted
	converted.Touch(time.Now())
	if err := s.carts.Update(ctx, converted); err != nil {
		// The cart exists and is locked by us, so this cannot happen
		// with the in-memory store; surface it rather than hide it.
		return nil, fmt.Errorf("mark cart converted: %w", err)
	}
	s.invalidateCart(cartID)

	return order, nil
}

// GetOrder returns an order by ID.
func (s *CheckoutService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// GetOrderByNumber returns an order by its order number,
// case-insensitively.
func (s *CheckoutService) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.orders.GetByNumber(ctx, number)
}

// ListOrdersByUser returns all orders placed by a user.
func (s *CheckoutService) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.orders.ListByUser(ctx, userID)
}

// ListOrdersByDateRange returns the orders placed in [from, to].
func (s *CheckoutService) ListOrdersByDateRange(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	if to.Before(from) {
		return nil, apperr.Validation("to", to.Format(time.RFC3339), "must not be before from")
	}
	return s.orders.ListByDateRange(ctx, from, to)
}

// RecordPayment appends a payment outcome to an order. The order's
// monetary fields are never modified.
func (s *CheckoutService) RecordPayment(ctx context.Context, orderID string, amount decimal.Decimal, method string, status domain.PaymentStatus) (*domain.Order, error) {
	if amount.IsNegative() {
		return nil, apperr.Validation("amount", amount.String(), "cannot be negative")
	}
	if method == "" {
		return nil, apperr.Validation("method", method, "cannot be blank")
	}
	switch status {
	case domain.PaymentStatusPending, domain.PaymentStatusCompleted, domain.PaymentStatusFailed:
	default:
		return nil, apperr.Validation("status", string(status), "unknown payment status")
	}

	payment := domain.Payment{
		Amount:    money.Normalize(amount),
		Method:    method,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if err := s.orders.AppendPayment(ctx, orderID, payment); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, orderID)
}

func (s *CheckoutService) requireOwnedAddress(ctx context.Context, addressID, userID int64, field string) error {
	address, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		return err
	}
	if address.UserID != userID {
		return apperr.Validation(field, addressID, "address does not belong to user")
	}
	return nil
}

func (s *CheckoutService) buildOrder(cart *domain.Cart, number string, shippingAddressID, billingAddressID int64) *domain.Order {
	lines := make([]domain.OrderLine, 0, len(cart.Lines))
	lineTotals := make([]decimal.Decimal, 0, len(cart.Lines))
	for _, cl := range cart.Lines {
		lineTotal := money.Mul(cl.UnitPrice, cl.Quantity)
		lines = append(lines, domain.OrderLine{
			ProductID: cl.ProductID,
			Quantity:  cl.Quantity,
			UnitPrice: money.Normalize(cl.UnitPrice),
			LineTotal: lineTotal,
		})
		lineTotals = append(lineTotals, lineTotal)
	}

	subtotal := money.Sum(lineTotals...)
	tax := money.PercentOf(subtotal, s.taxRatePercent)
	shipping := s.shippingCost(subtotal)
	total := money.Add(money.Add(subtotal, tax), shipping)

	return &domain.Order{
		Number:            number,
		UserID:            cart.UserID,
		ShippingAddressID: shippingAddressID,
		BillingAddressID:  billingAddressID,
		Subtotal:          subtotal,
		Tax:               tax,
		ShippingCost:      shipping,
		Total:             total,
		Lines:             lines,
		CreatedAt:         time.Now(),
	}
}

// shippingCost is zero at or above the free-shipping threshold,
// otherwise a base cost plus a percentage of the subtotal.
func (s *CheckoutService) shippingCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(money.Normalize(s.freeShippingThreshold)) {
		return money.Zero()
	}
	return money.Add(s.baseShippingCost, money.PercentOf(subtotal, s.shippingRatePercent))
}

// generateOrderNumber produces "<prefix><yyyyMMdd>-<6 digits>" and
// retries on the unlikely collision instead of trusting probability.
func (s *CheckoutService) generateOrderNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		number := fmt.Sprintf("%s%s-%06d", s.orderNumberPrefix, time.Now().Format("20060102"), rand.Intn(1000000))
		exists, err := s.orders.ExistsByNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique order number after %d attempts", maxOrderNumberAttempts)
}

func (s *CheckoutService) invalidateCart(cartID string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, cartID); err != nil {
		log.Printf("cart cache invalidate error: %v", err)
	}
}
