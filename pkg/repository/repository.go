package repository

import (
	"context"

	"gorm.io/gorm"
)

// QueryOption mutates a gorm query before execution.
type QueryOption func(*gorm.DB) *gorm.DB

// Where filters by an arbitrary condition.
func Where(query any, args ...any) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(query, args...)
	}
}

// OrderBy appends an ORDER BY clause.
func OrderBy(expr string) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Order(expr)
	}
}

// Limit caps the number of returned rows.
func Limit(n int) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(n)
	}
}

// Offset skips the first n rows.
func Offset(n int) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Offset(n)
	}
}

// Repository is a generic gorm-backed store shared by the feature slices.
type Repository[T any] interface {
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, entity *T) error
	FindOne(ctx context.Context, opts ...QueryOption) (*T, error)
	Find(ctx context.Context, opts ...QueryOption) ([]T, error)
	Count(ctx context.Context, opts ...QueryOption) (int64, error)
}

type repository[T any] struct {
	db *gorm.DB
}

// New builds a Repository for T on top of the given connection.
func New[T any](db *gorm.DB) Repository[T] {
	return &repository[T]{db: db}
}

func (r *repository[T]) apply(ctx context.Context, opts []QueryOption) *gorm.DB {
	tx := r.db.WithContext(ctx)
	for _, opt := range opts {
		tx = opt(tx)
	}
	return tx
}

func (r *repository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

func (r *repository[T]) Update(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

func (r *repository[T]) Delete(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Delete(entity).Error
}

func (r *repository[T]) FindOne(ctx context.Context, opts ...QueryOption) (*T, error) {
	var entity T
	if err := r.apply(ctx, opts).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *repository[T]) Find(ctx context.Context, opts ...QueryOption) ([]T, error) {
	var entities []T
	if err := r.apply(ctx, opts).Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *repository[T]) Count(ctx context.Context, opts ...QueryOption) (int64, error) {
	var entity T
	var count int64
	if err := r.apply(ctx, opts).Model(&entity).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
