package database

import (
	"fmt"

	"github.com/example/wordpool/pkg/models"
)

// CurriculumRepository handles database operations for the level/category
// grid the curriculum walker advances a user through.
type CurriculumRepository struct{}

// NewCurriculumRepository creates a new repository instance.
func NewCurriculumRepository() *CurriculumRepository {
	return &CurriculumRepository{}
}

// GetLevels returns every level, ordered by its position in the ladder.
func (r *CurriculumRepository) GetLevels() ([]models.Level, error) {
	var levels []models.Level
	if err := DB.Select(&levels, "SELECT * FROM levels ORDER BY order_index"); err != nil {
		return nil, fmt.Errorf("failed to get levels: %v", err)
	}
	return levels, nil
}

// GetCategories returns every category, ordered by its position in the grid.
func (r *CurriculumRepository) GetCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := DB.Select(&categories, "SELECT * FROM categories ORDER BY order_index"); err != nil {
		return nil, fmt.Errorf("failed to get categories: %v", err)
	}
	return categories, nil
}

// GetLevelByLabel finds a level by its display label, used by the
// importer to resolve (and lazily create) a level from a catalog row.
func (r *CurriculumRepository) GetLevelByLabel(label string) (*models.Level, error) {
	var l models.Level
	err := DB.Get(&l, rebind("SELECT * FROM levels WHERE label = ?"), label)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetCategoryByLabel finds a category by its display label.
func (r *CurriculumRepository) GetCategoryByLabel(label string) (*models.Category, error) {
	var c models.Category
	err := DB.Get(&c, rebind("SELECT * FROM categories WHERE label = ?"), label)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateLevel inserts a new level at the given order position.
func (r *CurriculumRepository) CreateLevel(label string, order int) (*models.Level, error) {
	query := rebind("INSERT INTO levels (label, order_index) VALUES (?, ?)")
	result, err := DB.Exec(query, label, order)
	if err != nil {
		return nil, fmt.Errorf("failed to create level: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return r.GetLevelByLabel(label)
	}
	return &models.Level{ID: id, Label: label, Order: order}, nil
}

// CreateCategory inserts a new category at the given order position.
func (r *CurriculumRepository) CreateCategory(label string, order int) (*models.Category, error) {
	query := rebind("INSERT INTO categories (label, order_index) VALUES (?, ?)")
	result, err := DB.Exec(query, label, order)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return r.GetCategoryByLabel(label)
	}
	return &models.Category{ID: id, Label: label, Order: order}, nil
}

// CountLevels reports the number of distinct levels in the catalog.
func (r *CurriculumRepository) CountLevels() (int, error) {
	var n int
	if err := DB.Get(&n, "SELECT COUNT(*) FROM levels"); err != nil {
		return 0, fmt.Errorf("failed to count levels: %v", err)
	}
	return n, nil
}
