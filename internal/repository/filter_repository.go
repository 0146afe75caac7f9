package repository

import (
	"context"

	"github.com/Baaaki/instagallery/internal/models"
	"gorm.io/gorm"
)

type FilterRepository struct {
	db *gorm.DB
}

func NewFilterRepository(db *gorm.DB) *FilterRepository {
	return &FilterRepository{db: db}
}

func (r *FilterRepository) ListFilters(ctx context.Context) ([]models.Filter, error) {
	var filters []models.Filter
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&filters).Error; err != nil {
		return nil, err
	}
	return filters, nil
}

// ExistingIDs returns the subset of ids that refer to a filter
func (r *FilterRepository) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return []uint{}, nil
	}
	var found []uint
	err := r.db.WithContext(ctx).Model(&models.Filter{}).Where("id IN ?", ids).Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}
