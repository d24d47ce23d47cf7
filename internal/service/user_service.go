package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mkraev/storefront/internal/apperr"
	"github.com/mkraev/storefront/internal/domain"
	"github.com/mkraev/storefront/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserService manages registered users and their address books.
type UserService struct {
	users        repository.UserRepository
	addresses    repository.AddressRepository
	maxAddresses int
}

func NewUserService(users repository.UserRepository, addresses repository.AddressRepository, maxAddresses int) *UserService {
	return &UserService{users: users, addresses: addresses, maxAddresses: maxAddresses}
}

// Register creates a user. Emails are trimmed, lowercased and unique.
func (s *UserService) Register(ctx context.Context, email, firstName, lastName, phone string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, apperr.Validation("email", email, "is not a valid email address")
	}
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return nil, apperr.Validation("first_name", firstName, "cannot be blank")
	}
	lastName = strings.TrimSpace(lastName)
	if lastName == "" {
		return nil, apperr.Validation("last_name", lastName, "cannot be blank")
	}

	user := &domain.User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Phone:     strings.TrimSpace(phone),
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile changes a user's name and phone. The email is the
// account identity and cannot be changed here.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, firstName, lastName, phone string) (*domain.User, error) {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return nil, apperr.Validation("first_name", firstName, "cannot be blank")
	}
	lastName = strings.TrimSpace(lastName)
	if lastName == "" {
		return nil, apperr.Validation("last_name", lastName, "cannot be blank")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.FirstName = firstName
	user.LastName = lastName
	user.Phone = strings.TrimSpace(phone)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeactivateUser retires an account. The record stays, so the user's
// orders keep a valid owner.
func (s *UserService) DeactivateUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Active = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// AddAddress stores a new address for a user. The first address becomes
// the default; marking a later one default clears the previous default.
// A user holds at most maxAddresses addresses.
func (s *UserService) AddAddress(ctx context.Context, userID int64, address domain.Address) (*domain.Address, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(address.Line1) == "" {
		return nil, apperr.Validation("line1", address.Line1, "cannot be blank")
	}
	if strings.TrimSpace(address.City) == "" {
		return nil, apperr.Validation("city", address.City, "cannot be blank")
	}
	if strings.TrimSpace(address.Country) == "" {
		return nil, apperr.Validation("country", address.Country, "cannot be blank")
	}

	existing, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= s.maxAddresses {
		return nil, apperr.Validation("addresses", len(existing), fmt.Sprintf("user already has the maximum of %d addresses", s.maxAddresses))
	}

	address.ID = 0
	address.UserID = userID
	if len(existing) == 0 {
		address.Default = true
	} else if address.Default {
		for i := range existing {
			if existing[i].Default {
				existing[i].Default = false
				if err := s.addresses.Update(ctx, &existing[i]); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := s.addresses.Create(ctx, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

// GetAddress returns an address, verifying it belongs to the user.
func (s *UserService) GetAddress(ctx context.Context, userID, addressID int64) (*domain.Address, error) {
	address, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != userID {
		return nil, apperr.NotFound("Address", fmt.Sprintf("%d", addressID))
	}
	return address, nil
}

func (s *UserService) ListAddresses(ctx context.Context, userID int64) ([]domain.Address, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.addresses.ListByUser(ctx, userID)
}

// UpdateAddress replaces an address's fields. Ownership and the default
// flag are managed separately and are not changed here.
func (s *UserService) UpdateAddress(ctx context.Context, userID, addressID int64, address domain.Address) (*domain.Address, error) {
	current, err := s.GetAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(address.Line1) == "" {
		return nil, apperr.Validation("line1", address.Line1, "cannot be blank")
	}
	if strings.TrimSpace(address.City) == "" {
		return nil, apperr.Validation("city", address.City, "cannot be blank")
	}
	if strings.TrimSpace(address.Country) == "" {
		return nil, apperr.Validation("country", address.Country, "cannot be blank")
	}

	current.Line1 = address.Line1
	current.Line2 = address.Line2
	current.City = address.City
	current.Region = address.Region
	current.PostalCode = address.PostalCode
	current.Country = address.Country
	if err := s.addresses.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// DeleteAddress removes an address. When the default address is
// deleted and others remain, one of them becomes the new default.
func (s *UserService) DeleteAddress(ctx context.Context, userID, addressID int64) error {
	address, err := s.GetAddress(ctx, userID, addressID)
	if err != nil {
		return err
	}
	if err := s.addresses.Delete(ctx, addressID); err != nil {
		return err
	}

	if !address.Default {
		return nil
	}
	remaining, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return nil
	}
	remaining[0].Default = true
	return s.addresses.Update(ctx, &remaining[0])
}

// SetDefaultAddress marks one address as the default and clears the
// flag on every other address of the user.
func (s *UserService) SetDefaultAddress(ctx context.Context, userID, addressID int64) (*domain.Address, error) {
	target, err := s.GetAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	all, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Default && all[i].ID != addressID {
			all[i].Default = false
			if err := s.addresses.Update(ctx, &all[i]); err != nil {
				return nil, err
			}
		}
	}

	target.Default = true
	if err := s.addresses.Update(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}
