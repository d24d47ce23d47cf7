package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkraev/storefront/internal/apperr"
	"github.com/mkraev/storefront/internal/domain"
	"github.com/mkraev/storefront/internal/inventory"
	"github.com/mkraev/storefront/internal/money"
	"github.com/mkraev/storefront/internal/repository"
)

// CatalogService manages products and the category tree. Stock counters
// are never written here; every stock change goes through the inventory
// ledger, and catalog edits write descriptive fields only.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	ledger     *inventory.Ledger
}

func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository, ledger *inventory.Ledger) *CatalogService {
	return &CatalogService{products: products, categories: categories, ledger: ledger}
}

// CreateProduct registers a new catalog entry. SKUs are unique
// case-insensitively; prices are normalized to two decimals.
func (s *CatalogService) CreateProduct(ctx context.Context, sku, name, description string, price decimal.Decimal, stockQty int) (*domain.Product, error) {
	sku = strings.TrimSpace(sku)
	name = strings.TrimSpace(name)
	if sku == "" {
		return nil, apperr.Validation("sku", sku, "cannot be blank")
	}
	if name == "" {
		return nil, apperr.Validation("name", name, "cannot be blank")
	}
	if price.IsNegative() {
		return nil, apperr.Validation("price", price.String(), "cannot be negative")
	}
	if stockQty < 0 {
		return nil, apperr.Validation("stock_qty", stockQty, "cannot be negative")
	}

	product := &domain.Product{
		SKU:         sku,
		Name:        name,
		Description: description,
		Price:       money.Normalize(price),
		StockQty:    stockQty,
		Active:      true,
		CreatedAt:   time.Now(),
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct changes a product's descriptive fields and price. The
// write never carries the stock counter, so a concurrent ledger
// movement cannot be overwritten by this edit.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, name, description string, price decimal.Decimal) (*domain.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name", name, "cannot be blank")
	}
	if price.IsNegative() {
		return nil, apperr.Validation("price", price.String(), "cannot be negative")
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Name = name
	product.Description = description
	product.Price = money.Normalize(price)
	if err := s.products.UpdateDetails(ctx, product); err != nil {
		return nil, err
	}
	return s.products.GetByID(ctx, id)
}

// Deactivate retires a product from sale. Existing cart lines keep the
// product; checkout and further adds will reject it.
func (s *CatalogService) Deactivate(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Active = false
	if err := s.products.UpdateDetails(ctx, product); err != nil {
		return nil, err
	}
	return s.products.GetByID(ctx, id)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *CatalogService) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return s.products.GetBySKU(ctx, sku)
}

func (s *CatalogService) ListActive(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListActive(ctx)
}

func (s *CatalogService) SearchByName(ctx context.Context, query string) ([]domain.Product, error) {
	return s.products.SearchByName(ctx, query)
}

// CheckAvailability reports whether the product can currently satisfy
// the requested quantity.
func (s *CatalogService) CheckAvailability(ctx context.Context, id int64, quantity int) (bool, error) {
	if quantity < 1 {
		return false, apperr.Validation("quantity", quantity, "must be positive")
	}
	return s.ledger.HasSufficient(ctx, id, quantity)
}

// Restock adds units to a product's stock through the ledger.
func (s *CatalogService) Restock(ctx context.Context, id int64, quantity int) (*domain.Product, error) {
	if err := s.ledger.Increment(ctx, id, quantity); err != nil {
		return nil, err
	}
	return s.products.GetByID(ctx, id)
}

// SetStock overwrites a product's stock counter through the ledger.
func (s *CatalogService) SetStock(ctx context.Context, id int64, quantity int) (*domain.Product, error) {
	if err := s.ledger.SetStock(ctx, id, quantity); err != nil {
		return nil, err
	}
	return s.products.GetByID(ctx, id)
}

// CreateCategory adds a node to the category tree. Slugs are unique
// case-insensitively across the whole tree; a non-zero parentID must
// name an existing category.
func (s *CatalogService) CreateCategory(ctx context.Context, name, slug string, parentID int64) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name", name, "cannot be blank")
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, apperr.Validation("slug", slug, "cannot be blank")
	}
	if parentID != 0 {
		if _, err := s.categories.GetByID(ctx, parentID); err != nil {
			return nil, err
		}
	}

	category := &domain.Category{
		Name:      name,
		Slug:      slug,
		ParentID:  parentID,
		CreatedAt: time.Now(),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return s.categories.GetBySlug(ctx, slug)
}

// ListRootCategories returns the categories without a parent.
func (s *CatalogService) ListRootCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.ListRoots(ctx)
}

// ListSubcategories returns the direct children of a category.
func (s *CatalogService) ListSubcategories(ctx context.Context, parentID int64) ([]domain.Category, error) {
	if _, err := s.categories.GetByID(ctx, parentID); err != nil {
		return nil, err
	}
	return s.categories.ListChildren(ctx, parentID)
}

// AssignCategory files a product under a category. A zero categoryID
// removes the assignment.
func (s *CatalogService) AssignCategory(ctx context.Context, productID, categoryID int64) (*domain.Product, error) {
	if categoryID != 0 {
		if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
			return nil, err
		}
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	product.CategoryID = categoryID
	if err := s.products.UpdateDetails(ctx, product); err != nil {
		return nil, err
	}
	return s.products.GetByID(ctx, productID)
}

// ProductsByCategory returns the active products filed under a category.
func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.products.ListByCategory(ctx, categoryID)
}
