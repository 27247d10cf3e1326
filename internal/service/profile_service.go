package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
	"github.com/mkuleshov/gigmarket-backend/internal/validation"
)

// ProfileRepository описывает зависимости ProfileService от слоя хранилища.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error)
	UpsertProfile(ctx context.Context, profile *models.FreelancerProfile) error
}

// ProfileService управляет профилями фрилансеров.
type ProfileService struct {
	repo ProfileRepository
}

// NewProfileService создаёт сервис профилей.
func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// ProfileInput содержит редактируемые поля профиля.
type ProfileInput struct {
	DisplayName string
	Bio         *string
	Skills      []string
	HourlyRate  *float64
}

// Get возвращает публичный профиль фрилансера.
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// Update обновляет собственный профиль фрилансера.
// Рейтинг и счётчик отзывов при этом не затрагиваются.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.FreelancerProfile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Role != models.RoleFreelancer {
		return nil, apperror.New(apperror.ErrCodeForbidden, "профиль доступен только фрилансерам")
	}

	if err := validation.ValidateLength("имя", in.DisplayName, validation.MinDisplayNameLength, validation.MaxDisplayNameLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.Bio != nil {
		if err := validation.ValidateLength("о себе", *in.Bio, 0, validation.MaxBioLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if err := validation.ValidateSkills(in.Skills); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.HourlyRate != nil && (*in.HourlyRate < validation.MinPrice || *in.HourlyRate > validation.MaxPrice) {
		return nil, apperror.New(apperror.ErrCodeValidation, "часовая ставка вне допустимого диапазона")
	}

	profile := &models.FreelancerProfile{
		UserID:      userID,
		DisplayName: in.DisplayName,
		Bio:         in.Bio,
		Skills:      in.Skills,
		HourlyRate:  in.HourlyRate,
	}

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}
