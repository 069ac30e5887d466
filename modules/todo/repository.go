package todo

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/todo-tracker/domain/todo"
	"gorm.io/gorm"
)

// Repository persists todo rows. Every single-row call is scoped by id and
// owner; list calls by owner.
type Repository interface {
	Migrate(ctx context.Context) error
	ListByOwner(ctx context.Context, owner string) ([]domain.Todo, error)
	Get(ctx context.Context, owner, id string) (*domain.Todo, error)
	Insert(ctx context.Context, t *domain.Todo) error
	// Update writes cols and returns the number of rows matched.
	Update(ctx context.Context, owner, id string, cols map[string]any) (int64, error)
	Delete(ctx context.Context, owner, id string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// GormRepository stores todos with GORM (SQLite by default).
type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

// NewGormRepository creates a repository over db.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the todos table.
func (r *GormRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&domain.Todo{}); err != nil {
		return fmt.Errorf("failed to migrate todos: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's todos, newest first.
func (r *GormRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Todo, error) {
	var todos []domain.Todo
	err := r.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("created_at DESC").
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// Get returns one todo of the owner.
func (r *GormRepository) Get(ctx context.Context, owner, id string) (*domain.Todo, error) {
	var t domain.Todo
	if err := r.db.WithContext(ctx).First(&t, "id = ? AND user_id = ?", id, owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return &t, nil
}

// Insert saves a new row.
func (r *GormRepository) Insert(ctx context.Context, t *domain.Todo) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// Update writes cols to the row matching id and owner. No match is not an error.
func (r *GormRepository) Update(ctx context.Context, owner, id string, cols map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Todo{}).
		Where("id = ? AND user_id = ?", id, owner).
		Updates(cols)
	if err := result.Error; err != nil {
		return 0, fmt.Errorf("failed to update todo: %w", err)
	}
	return result.RowsAffected, nil
}

// Delete removes the row matching id and owner.
func (r *GormRepository) Delete(ctx context.Context, owner, id string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Todo{}, "id = ? AND user_id = ?", id, owner)
	if err := result.Error; err != nil {
		return 0, fmt.Errorf("failed to delete todo: %w", err)
	}
	return result.RowsAffected, nil
}

// Ping checks the database connection.
func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
