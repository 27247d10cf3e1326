package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
	"github.com/mkuleshov/gigmarket-backend/internal/repository"
	"github.com/mkuleshov/gigmarket-backend/internal/validation"
)

// GigRepositoryIface описывает зависимости GigService от слоя хранилища.
type GigRepositoryIface interface {
	Create(ctx context.Context, gig *models.Gig) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
	Update(ctx context.Context, gig *models.Gig) error
	Archive(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params repository.GigSearchParams) ([]models.Gig, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Gig, error)
}

// GigService управляет каталогом услуг.
type GigService struct {
	repo GigRepositoryIface
}

// NewGigService создаёт сервис услуг.
func NewGigService(repo GigRepositoryIface) *GigService {
	return &GigService{repo: repo}
}

// GigInput содержит данные для создания или обновления услуги.
type GigInput struct {
	Title         string
	Description   string
	Category      string
	Tags          []string
	Pricing       models.Pricing
	DeliveryDays  int
	RevisionCount int
	Status        string
}

// validate проверяет поля услуги.
func (in *GigInput) validate() error {
	if err := validation.ValidateLength("заголовок", in.Title, validation.MinGigTitleLength, validation.MaxGigTitleLength); err != nil {
		return err
	}
	if err := validation.ValidateLength("описание", in.Description, validation.MinGigDescriptionLength, validation.MaxGigDescriptionLength); err != nil {
		return err
	}
	if in.Category == "" {
		return fmt.Errorf("категория обязательна")
	}
	if err := validation.ValidateTags(in.Tags); err != nil {
		return err
	}
	if err := in.Pricing.Validate(); err != nil {
		return err
	}
	if in.DeliveryDays < validation.MinDeliveryDays || in.DeliveryDays > validation.MaxDeliveryDays {
		return fmt.Errorf("срок выполнения должен быть от %d до %d дней", validation.MinDeliveryDays, validation.MaxDeliveryDays)
	}
	if in.RevisionCount < 0 {
		return fmt.Errorf("число правок не может быть отрицательным")
	}
	return nil
}

// Create создаёт услугу от имени фрилансера.
func (s *GigService) Create(ctx context.Context, freelancerID uuid.UUID, in GigInput) (*models.Gig, error) {
	if err := in.validate(); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	status := in.Status
	if status == "" {
		status = models.GigStatusDraft
	}
	if _, ok := models.ValidGigStatuses[status]; !ok || status == models.GigStatusArchived {
		return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("недопустимый статус %q", status))
	}

	gig := &models.Gig{
		FreelancerID:  freelancerID,
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		Tags:          in.Tags,
		Pricing:       in.Pricing,
		DeliveryDays:  in.DeliveryDays,
		RevisionCount: in.RevisionCount,
		Status:        status,
	}

	if err := s.repo.Create(ctx, gig); err != nil {
		return nil, err
	}

	return gig, nil
}

// GetByID возвращает услугу.
func (s *GigService) GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	return s.repo.GetByID(ctx, id)
}

// Update обновляет услугу. Разрешено только владельцу.
func (s *GigService) Update(ctx context.Context, gigID, freelancerID uuid.UUID, in GigInput) (*models.Gig, error) {
	gig, err := s.repo.GetByID(ctx, gigID)
	if err != nil {
		return nil, err
	}

	if gig.FreelancerID != freelancerID {
		return nil, apperror.ErrForbidden
	}

	if err := in.validate(); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	if in.Status != "" {
		if _, ok := models.ValidGigStatuses[in.Status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("недопустимый статус %q", in.Status))
		}
		gig.Status = in.Status
	}

	gig.Title = in.Title
	gig.Description = in.Description
	gig.Category = in.Category
	gig.Tags = in.Tags
	gig.Pricing = in.Pricing
	gig.DeliveryDays = in.DeliveryDays
	gig.RevisionCount = in.RevisionCount

	if err := s.repo.Update(ctx, gig); err != nil {
		return nil, err
	}

	return gig, nil
}

// Archive снимает услугу с публикации. Разрешено только владельцу.
func (s *GigService) Archive(ctx context.Context, gigID, freelancerID uuid.UUID) error {
	gig, err := s.repo.GetByID(ctx, gigID)
	if err != nil {
		return err
	}

	if gig.FreelancerID != freelancerID {
		return apperror.ErrForbidden
	}

	return s.repo.Archive(ctx, gigID)
}

// Search ищет активные услуги.
func (s *GigService) Search(ctx context.Context, params repository.GigSearchParams) ([]models.Gig, error) {
	params.Limit, params.Offset = clampPage(params.Limit, params.Offset)

	return s.repo.Search(ctx, params)
}

// ListByFreelancer возвращает услуги фрилансера, включая черновики.
func (s *GigService) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Gig, error) {
	limit, offset = clampPage(limit, offset)

	return s.repo.ListByFreelancer(ctx, freelancerID, limit, offset)
}
