package services

import (
	"fmt"

	"firstcome/internal/models"
	"firstcome/internal/repositories"
)

// ProductService handles the menu.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListMenu retrieves every menu item that can currently be ordered.
func (s *ProductService) ListMenu() ([]models.Product, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	menu := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Available {
			menu = append(menu, p)
		}
	}
	return menu, nil
}

// GetMenuItem retrieves a single menu item by its ID.
func (s *ProductService) GetMenuItem(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// SetAvailability marks a menu item as orderable or sold out.
func (s *ProductService) SetAvailability(id string, available bool) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	product.Available = available
	if err := s.repo.Update(product); err != nil {
		return nil, fmt.Errorf("failed to update menu item %s: %w", id, err)
	}
	return product, nil
}

// RemoveMenuItem takes an item off the menu. Existing orders keep their copy of it.
func (s *ProductService) RemoveMenuItem(id string) error {
	return s.repo.Delete(id)
}

// SeedMenu fills an empty menu with items. It does nothing when the menu already has entries.
func (s *ProductService) SeedMenu(items []models.Product) (int, error) {
	existing, err := s.repo.GetAll()
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i := range items {
		if err := s.repo.Create(&items[i]); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

// DefaultMenu is the menu a fresh installation starts with.
func DefaultMenu() []models.Product {
	return []models.Product{
		{Name: "Margherita", Description: "Tomato, mozzarella, basil", Price: 9.50, Available: true},
		{Name: "Pepperoni", Description: "Tomato, mozzarella, pepperoni", Price: 11.00, Available: true},
		{Name: "Quattro Formaggi", Description: "Four cheeses", Price: 12.50, Available: true},
		{Name: "Garlic Bread", Description: "Baked with herb butter", Price: 4.50, Available: true},
	}
}
