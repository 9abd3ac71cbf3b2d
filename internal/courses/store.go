package courses

import (
	"context"
	"errors"

	"github.com/prephub/prephub-api/internal/db"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("course not found")

type Store interface {
	List(ctx context.Context, f Filter) ([]Course, error)
	Get(ctx context.Context, id uint) (*Course, error)
	Create(ctx context.Context, c *Course) error
	Update(ctx context.Context, c *Course) error
	Delete(ctx context.Context, id uint) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(d *gorm.DB) *GormStore {
	return &GormStore{db: d}
}

func (s *GormStore) List(ctx context.Context, f Filter) ([]Course, error) {
	q := s.db.WithContext(ctx).Model(&Course{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}

	courses := []Course{}
	if err := q.Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, oops.Code("COURSES_STORE_FAILED").With("op", "list").Wrap(err)
	}
	return courses, nil
}

func (s *GormStore) Get(ctx context.Context, id uint) (*Course, error) {
	var c Course
	err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if db.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("COURSES_STORE_FAILED").With("op", "get", "id", id).Wrap(err)
	}
	return &c, nil
}

func (s *GormStore) Create(ctx context.Context, c *Course) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return oops.Code("COURSES_STORE_FAILED").With("op", "create").Wrap(err)
	}
	c.fillDerived()
	return nil
}

// Update overwrites every writable column of the course with c's values.
func (s *GormStore) Update(ctx context.Context, c *Course) error {
	res := s.db.WithContext(ctx).Model(c).
		Select("title", "description", "category", "level", "is_free", "url", "tags").
		Updates(c)
	if res.Error != nil {
		return oops.Code("COURSES_STORE_FAILED").With("op", "update", "id", c.ID).Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	c.fillDerived()
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&Course{}, id)
	if res.Error != nil {
		return oops.Code("COURSES_STORE_FAILED").With("op", "delete", "id", id).Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
