package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/mkraev/storefront/internal/apperr"
	"github.com/mkraev/storefront/internal/cache"
	"github.com/mkraev/storefront/internal/domain"
	"github.com/mkraev/storefront/internal/inventory"
	"github.com/mkraev/storefront/internal/repository"
)

// CartService implements the cart lifecycle: creation, line mutations,
// totals and the guest-to-user merge. Only OPEN carts accept mutations;
// all writes to a cart are serialized through CartLocks.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	users    repository.UserRepository
	ledger   *inventory.Ledger
	cache    cache.CartCache // optional; nil disables caching
	locks    *CartLocks
	sfg      singleflight.Group

	maxLineQty int
}

func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	ledger *inventory.Ledger,
	cartCache cache.CartCache,
	locks *CartLocks,
	maxLineQty int,
) *CartService {
	return &CartService{
		carts:      carts,
		products:   products,
		users:      users,
		ledger:     ledger,
		cache:      cartCache,
		locks:      locks,
		maxLineQty: maxLineQty,
	}
}

// CreateGuestCart opens a new cart with no owning user.
func (s *CartService) CreateGuestCart(ctx context.Context) (*domain.Cart, error) {
	now := time.Now()
	cart := &domain.Cart{
		Status:    domain.CartStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// OpenCartForUser returns the user's OPEN cart, creating one if none
// exists. A user has at most one OPEN cart at any time.
func (s *CartService) OpenCartForUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetOpenByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	cart = &domain.Cart{
		UserID:    userID,
		Status:    domain.CartStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// GetCart reads a cart, trying the cache first. Concurrent misses for
// the same cart collapse into one repository read via singleflight.
func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {
		if s.cache != nil {
			cart, err := s.cache.Get(ctx, cartID)
			if err == nil {
				return cart, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				log.Printf("cart cache get error: %v", err)
			}
		}

		cart, err := s.carts.GetByID(ctx, cartID)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			go func() {
				if err := s.cache.Set(context.Background(), cartID, cart); err != nil {
					log.Printf("cart cache set error: %v", err)
				}
			}()
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddItem puts quantity units of a product into the cart at the
// product's current price. If the cart already holds a line for the
// product, the quantities are summed and the whole operation is
// re-validated against stock for the summed quantity.
func (s *CartService) AddItem(ctx context.Context, cartID string, productID int64, quantity int) (*domain.Cart, error) {
	if err := s.validateQuantity(quantity); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.IsOpen() {
		return nil, s.invalidState(cart, "add item")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, apperr.Validation("product_id", productID, fmt.Sprintf("product %q is not active", product.Name))
	}

	if line := cart.LineFor(productID); line != nil {
		newQuantity := line.Quantity + quantity
		if newQuantity > s.maxLineQty {
			return nil, apperr.Validation("quantity", newQuantity, fmt.Sprintf("exceeds maximum of %d per line", s.maxLineQty))
		}
		if err := s.requireStock(ctx, product, newQuantity); err != nil {
			return nil, err
		}
		line.Quantity = newQuantity
	} else {
		if err := s.requireStock(ctx, product, quantity); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, domain.CartLine{
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.Price,
			AddedAt:   time.Now(),
		})
	}

	cart.Touch(time.Now())
	if err := s.carts.Update(ctx, cart); err != nil {
		return nil, err
	}
	s.invalidate(cartID)
	return cart, nil
}

// UpdateItemQuantity replaces the quantity of an existing line after
// re-validating stock for the new quantity.
func (s *CartService) UpdateItemQuantity(ctx context.Context, cartID string, productID int64, quantity int) (*domain.Cart, error) {
	if err := s.validateQuantity(quantity); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.IsOpen() {
		return nil, s.invalidState(cart, "update item")
	}

	line := cart.LineFor(productID)
	if line == nil {
		return nil, apperr.Validation("product_id", productID, "product is not in the cart")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStock(ctx, product, quantity); err != nil {
		return nil, err
	}

	line.Quantity = quantity
	cart.Touch(time.Now())
	if err := s.carts.Update(ctx, cart); err != nil {
		return nil, err
	}
	s.invalidate(cartID)
	return cart, nil
}

// RemoveItem drops the line for a product from the cart.
func (s *CartService) RemoveItem(ctx context.Context, cartID string, productID int64) (*domain.Cart, error) {
	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.IsOpen() {
		return nil, s.invalidState(cart, "remove item")
	}

	if !cart.RemoveLine(productID) {
		return nil, apperr.Validation("product_id", productID, "product is not in the cart")
	}

	cart.Touch(time.Now())
	if err := s.carts.Update(ctx, cart); err != nil {
		return nil, err
	}
	s.invalidate(cartID)
	return cart, nil
}

// ClearCart removes every line from an OPEN cart.
func (s *CartService) ClearCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.IsOpen() {
		return nil, s.invalidState(cart, "clear")
	}

	cart.Lines = nil
	cart.Touch(time.Now())
	if err := s.carts.Update(ctx, cart); err != nil {
		return nil, err
	}
	s.invalidate(cartID)
	return cart, nil
}

// Total returns the sum of the cart's line subtotals.
func (s *CartService) Total(ctx context.Context, cartID string) (decimal.Decimal, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return cart.Total(), nil
}

func (s *CartService) validateQuantity(quantity int) error {
	if quantity < 1 {
		return apperr.Validation("quantity", quantity, "must be positive")
	}
	if quantity > s.maxLineQty {
		return apperr.Validation("quantity", quantity, fmt.Sprintf("exceeds maximum of %d per line", s.maxLineQty))
	}
	return nil
}

func (s *CartService) invalidState(cart *domain.Cart, operation string) error {
	return &apperr.InvalidStateError{
		Entity:    "Cart",
		ID:        cart.ID,
		Current:   string(cart.Status),
		Required:  string(domain.CartStatusOpen),
		Operation: operation,
	}
}

func (s *CartService) requireStock(ctx context.Context, product *domain.Product, quantity int) error {
	ok, err := s.ledger.HasSufficient(ctx, product.ID, quantity)
	if err != nil {
		return err
	}
	if !ok {
		return &apperr.InsufficientStockError{
			ProductID: product.ID,
			SKU:       product.SKU,
			Requested: quantity,
			Available: product.StockQty,
		}
	}
	return nil
}

func (s *CartService) invalidate(cartID string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, cartID); err != nil {
		log.Printf("cart cache invalidate error: %v", err)
	}
}
