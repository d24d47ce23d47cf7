package service

import (
	"context"
	"time"

	"github.com/mkraev/storefront/internal/apperr"
	"github.com/mkraev/storefront/internal/domain"
)

// MergeGuestCart folds a guest cart into the user's OPEN cart after
// authentication. Per product: quantities are summed (the combined
// quantity re-validated against stock) with the more recently added
// line's price winning, or the line moves over unchanged. The merge is
// staged on copies and committed in one write; any failure leaves both
// carts exactly as they were. The guest cart ends up ABANDONED.
func (s *CartService) MergeGuestCart(ctx context.Context, guestCartID string, userID int64) (*domain.Cart, error) {
	unlockGuest := s.locks.Lock(guestCartID)
	defer unlockGuest()

	guest, err := s.carts.GetByID(ctx, guestCartID)
	if err != nil {
		return nil, err
	}

	// Guest preconditions come before the user cart is touched: nothing
	// is created for a merge that cannot proceed, and a cart that is
	// user-owned is rejected while only its own lock is held. That keeps
	// the lock order strictly guest first, then user cart; a user cart
	// can never be held as the guest side while a second lock is taken,
	// so two crossed merges cannot deadlock.
	if !guest.IsOpen() {
		return nil, s.invalidState(guest, "merge")
	}
	if !guest.IsGuest() {
		return nil, &apperr.MergeConflictError{
			GuestCartID: guest.ID,
			Reason:      "guest cart already has a user assigned",
		}
	}

	userCart, err := s.OpenCartForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlockUser := s.locks.Lock(userCart.ID)
	defer unlockUser()

	// Reload under the lock; the cart may have changed since the lookup.
	userCart, err = s.carts.GetByID(ctx, userCart.ID)
	if err != nil {
		return nil, err
	}
	if !userCart.IsOpen() {
		return nil, s.invalidState(userCart, "merge")
	}

	// Stage the merge on a copy. Each guest product is handled exactly
	// once, so the outcome does not depend on line order.
	merged := userCart.Clone()
	for _, guestLine := range guest.Lines {
		product, err := s.products.GetByID(ctx, guestLine.ProductID)
		if err != nil {
			return nil, err
		}

		if userLine := merged.LineFor(guestLine.ProductID); userLine != nil {
			combined := userLine.Quantity + guestLine.Quantity
			if err := s.requireStock(ctx, product, combined); err != nil {
				return nil, err
			}
			userLine.Quantity = combined
			// Price conflict: the more recently added line wins.
			if guestLine.AddedAt.After(userLine.AddedAt) {
				userLine.UnitPrice = guestLine.UnitPrice
			}
		} else {
			if err := s.requireStock(ctx, product, guestLine.Quantity); err != nil {
				return nil, err
			}
			merged.Lines = append(merged.Lines, guestLine)
		}
	}

	retired := guest.Clone()
	retired.Status = domain.CartStatusAbandoned
	now := time.Now()
	retired.Touch(now)
	merged.Touch(now)

	if err := s.carts.UpdateBoth(ctx, retired, merged); err != nil {
		return nil, err
	}
	s.invalidate(retired.ID)
	s.invalidate(merged.ID)
	return merged, nil
}
