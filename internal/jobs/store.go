package jobs

import (
	"context"

	"github.com/samber/oops"
	"gorm.io/gorm"
)

type Store interface {
	ListByUser(ctx context.Context, userID uint) ([]Application, error)
	Create(ctx context.Context, a *Application) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(d *gorm.DB) *GormStore {
	return &GormStore{db: d}
}

func (s *GormStore) ListByUser(ctx context.Context, userID uint) ([]Application, error) {
	apps := []Application{}
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&apps).Error
	if err != nil {
		return nil, oops.Code("JOBS_STORE_FAILED").With("user_id", userID).Wrap(err)
	}
	return apps, nil
}

func (s *GormStore) Create(ctx context.Context, a *Application) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return oops.Code("JOBS_STORE_FAILED").With("user_id", a.UserID).Wrap(err)
	}
	return nil
}
