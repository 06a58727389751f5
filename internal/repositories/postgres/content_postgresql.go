package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

// ownedStore is the CRUD shared by documents, games and notebooks: rows owned
// by one teacher, searchable by title.
type ownedStore[T any] struct {
	db      *gorm.DB
	name    string
	subject bool
}

func (o *ownedStore[T]) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return o.db
}

func (o *ownedStore[T]) Create(ctx context.Context, tx *gorm.DB, item *T) error {
	if err := o.getDB(tx).WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", o.name, err)
	}
	return nil
}

func (o *ownedStore[T]) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*T, error) {
	item := new(T)
	if err := o.getDB(tx).WithContext(ctx).First(item, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", o.name, err)
	}
	return item, nil
}

// Update writes every column except identity and ownership.
func (o *ownedStore[T]) Update(ctx context.Context, tx *gorm.DB, item *T) error {
	err := o.getDB(tx).WithContext(ctx).
		Model(item).
		Select("*").
		Omit("id", "owner_id", "created_at", "deleted_at").
		Updates(item).Error
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", o.name, err)
	}
	return nil
}

func (o *ownedStore[T]) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := o.getDB(tx).WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", o.name, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (o *ownedStore[T]) List(ctx context.Context, tx *gorm.DB, filters repositories.OwnerFilters) ([]*T, int64, error) {
	query := o.getDB(tx).WithContext(ctx).
		Model(new(T)).
		Where("owner_id = ?", filters.OwnerID)

	if o.subject && filters.Subject != nil && *filters.Subject != "" {
		query = query.Where("subject = ?", *filters.Subject)
	}
	query = ApplySearch(query, filters.Query, "title")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %ss: %w", o.name, err)
	}

	var items []*T
	query = ApplyPaginationAndSort(query, "updated_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list %ss: %w", o.name, err)
	}
	return items, total, nil
}

func NewDocumentPostgreSQL(db *gorm.DB) repositories.DocumentRepository {
	return &ownedStore[models.Document]{db: db, name: "document", subject: true}
}

func NewNotebookPostgreSQL(db *gorm.DB) repositories.NotebookRepository {
	return &ownedStore[models.Notebook]{db: db, name: "notebook"}
}

type GamePostgreSQL struct {
	*ownedStore[models.Game]
}

func NewGamePostgreSQL(db *gorm.DB) repositories.GameRepository {
	return &GamePostgreSQL{ownedStore: &ownedStore[models.Game]{db: db, name: "game", subject: true}}
}

func (g *GamePostgreSQL) IncrementPlayCount(ctx context.Context, tx *gorm.DB, id uint) error {
	err := g.getDB(tx).WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ?", id).
		UpdateColumn("play_count", gorm.Expr("play_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment play count: %w", err)
	}
	return nil
}

type SettingsPostgreSQL struct {
	db *gorm.DB
}

func NewSettingsPostgreSQL(db *gorm.DB) repositories.SettingsRepository {
	return &SettingsPostgreSQL{db: db}
}

func (s *SettingsPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SettingsPostgreSQL) Get(ctx context.Context, tx *gorm.DB, teacherID string) (*models.TeacherSettings, error) {
	var settings models.TeacherSettings
	err := s.getDB(tx).WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		First(&settings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

// Upsert inserts or replaces the teacher's row.
func (s *SettingsPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, settings *models.TeacherSettings) error {
	if err := s.getDB(tx).WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
