package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/repository/common"
)

// ErrMediaNotFound возвращается, когда файл не найден.
var ErrMediaNotFound = errors.New("media not found")

// MediaRepository отвечает за работу с таблицей media_files.
type MediaRepository struct {
	db *sqlx.DB
}

// NewMediaRepository создаёт экземпляр репозитория.
func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Create сохраняет метаданные загруженного файла.
func (r *MediaRepository) Create(ctx context.Context, media *models.MediaFile) error {
	query := `
		INSERT INTO media_files (user_id, file_path, file_type, file_size, is_public)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		media.UserID, media.FilePath, media.FileType, media.FileSize, media.IsPublic,
	).Scan(&media.ID, &media.CreatedAt); err != nil {
		return fmt.Errorf("media repository: create %w", err)
	}

	return nil
}

// GetByID возвращает файл по идентификатору.
func (r *MediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaFile, error) {
	return common.GetByID[models.MediaFile](ctx, r.db, "media_files", id, ErrMediaNotFound)
}

// Delete удаляет метаданные файла.
func (r *MediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("media repository: delete %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("media repository: delete rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrMediaNotFound
	}

	return nil
}
