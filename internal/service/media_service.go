package service

import (
	"bytes"
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/mkuleshov/gigmarket-backend/internal/logger"
	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
)

// Типы файлов определяем по магическим байтам, расширению не доверяем.
var allowedMediaTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"image/gif":       {},
	"application/pdf": {},
	"application/zip": {},
}

// MediaRepositoryIface описывает зависимости MediaService от слоя хранилища.
type MediaRepositoryIface interface {
	Create(ctx context.Context, media *models.MediaFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MediaFile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FileStore — файловое хранилище вложений.
type FileStore interface {
	Save(ctx context.Context, userID uuid.UUID, originalName string, r io.Reader) (string, int64, error)
	Delete(ctx context.Context, relativePath string) error
}

// MediaService управляет загрузкой и удалением файлов.
type MediaService struct {
	repo  MediaRepositoryIface
	store FileStore
}

// NewMediaService создаёт сервис файлов.
func NewMediaService(repo MediaRepositoryIface, store FileStore) *MediaService {
	return &MediaService{repo: repo, store: store}
}

// Upload сохраняет файл в хранилище и регистрирует его метаданные.
func (s *MediaService) Upload(ctx context.Context, userID uuid.UUID, originalName string, r io.Reader, isPublic bool) (*models.MediaFile, error) {
	// Для определения типа достаточно первых 261 байта.
	head := make([]byte, 261)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "не удалось прочитать файл")
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return nil, apperror.New(apperror.ErrCodeValidation, "не удалось определить тип файла")
	}
	if _, ok := allowedMediaTypes[kind.MIME.Value]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимый тип файла")
	}

	path, size, err := s.store.Save(ctx, userID, originalName, io.MultiReader(bytes.NewReader(head), r))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "не удалось сохранить файл")
	}

	media := &models.MediaFile{
		UserID:   &userID,
		FilePath: path,
		FileType: kind.MIME.Value,
		FileSize: size,
		IsPublic: isPublic,
	}

	if err := s.repo.Create(ctx, media); err != nil {
		// Метаданные не записались: убираем осиротевший файл.
		if removeErr := s.store.Delete(ctx, path); removeErr != nil {
			logger.Log.Errorf("media service: не удалось удалить файл %s: %v", path, removeErr)
		}
		return nil, err
	}

	return media, nil
}

// GetByID возвращает метаданные файла.
func (s *MediaService) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaFile, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete удаляет файл. Доступно владельцу и администраторам.
func (s *MediaService) Delete(ctx context.Context, id, userID uuid.UUID, role string) error {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if (media.UserID == nil || *media.UserID != userID) && role != models.RoleAdmin {
		return apperror.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, media.FilePath); err != nil {
		logger.Log.Errorf("media service: не удалось удалить файл %s: %v", media.FilePath, err)
	}

	return nil
}
