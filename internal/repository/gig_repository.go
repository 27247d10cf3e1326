package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
)

// ErrGigNotFound возвращается, когда услуга не найдена.
var ErrGigNotFound = errors.New("gig not found")

// GigRepository отвечает за работу с таблицей gigs.
type GigRepository struct {
	db *sqlx.DB
}

// NewGigRepository создаёт экземпляр репозитория.
func NewGigRepository(db *sqlx.DB) *GigRepository {
	return &GigRepository{db: db}
}

const gigColumns = `id, freelancer_id, title, description, category, tags, pricing, delivery_days, revision_count, status, created_at, updated_at`

// Create создаёт новую услугу.
func (r *GigRepository) Create(ctx context.Context, gig *models.Gig) error {
	query := `
		INSERT INTO gigs (freelancer_id, title, description, category, tags, pricing, delivery_days, revision_count, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		gig.FreelancerID,
		gig.Title,
		gig.Description,
		gig.Category,
		pq.Array(gig.Tags),
		gig.Pricing,
		gig.DeliveryDays,
		gig.RevisionCount,
		gig.Status,
	).Scan(&gig.ID, &gig.CreatedAt, &gig.UpdatedAt); err != nil {
		return fmt.Errorf("gig repository: create %w", err)
	}

	return nil
}

// GetByID возвращает услугу по идентификатору.
func (r *GigRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	query := `SELECT ` + gigColumns + ` FROM gigs WHERE id = $1`

	gig, err := r.scanGig(r.db.QueryRowxContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGigNotFound
		}
		return nil, fmt.Errorf("gig repository: get by id %w", err)
	}

	return gig, nil
}

// Update обновляет услугу.
func (r *GigRepository) Update(ctx context.Context, gig *models.Gig) error {
	query := `
		UPDATE gigs
		SET title = $2, description = $3, category = $4, tags = $5, pricing = $6,
			delivery_days = $7, revision_count = $8, status = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		gig.ID,
		gig.Title,
		gig.Description,
		gig.Category,
		pq.Array(gig.Tags),
		gig.Pricing,
		gig.DeliveryDays,
		gig.RevisionCount,
		gig.Status,
	).Scan(&gig.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGigNotFound
		}
		return fmt.Errorf("gig repository: update %w", err)
	}

	return nil
}

// Archive переводит услугу в статус ARCHIVED. Услуги не удаляются,
// чтобы не ломать ссылки из существующих заказов.
func (r *GigRepository) Archive(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE gigs SET status = $2, updated_at = NOW() WHERE id = $1`, id, models.GigStatusArchived)
	if err != nil {
		return fmt.Errorf("gig repository: archive %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("gig repository: archive rows affected %w", err)
	}
	if affected == 0 {
		return ErrGigNotFound
	}

	return nil
}

// GigSearchParams параметры поиска услуг.
type GigSearchParams struct {
	Query        string
	Category     string
	Tags         []string
	FreelancerID *uuid.UUID
	MinPrice     *float64
	MaxPrice     *float64
	Limit        int
	Offset       int
}

// Search ищет активные услуги по параметрам.
func (r *GigRepository) Search(ctx context.Context, params GigSearchParams) ([]models.Gig, error) {
	query, args := buildGigSearchQuery(params)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("gig repository: search %w", err)
	}
	defer rows.Close()

	var gigs []models.Gig
	for rows.Next() {
		gig, err := r.scanGig(rows)
		if err != nil {
			return nil, fmt.Errorf("gig repository: search scan %w", err)
		}
		gigs = append(gigs, *gig)
	}

	return gigs, rows.Err()
}

// Минимальная цена пакета услуги: по ней работает фильтр min_price/max_price.
const gigMinPriceExpr = `(SELECT MIN((p.value)::numeric) FROM jsonb_each_text(pricing) p)`

// buildGigSearchQuery собирает SQL запрос поиска по заданным фильтрам.
func buildGigSearchQuery(params GigSearchParams) (string, []interface{}) {
	query := `SELECT ` + gigColumns + ` FROM gigs WHERE status = 'ACTIVE'`
	args := []interface{}{}
	argNum := 1

	if params.Query != "" {
		query += fmt.Sprintf(` AND (title ILIKE $%d OR description ILIKE $%d)`, argNum, argNum)
		args = append(args, "%"+params.Query+"%")
		argNum++
	}
	if params.Category != "" {
		query += fmt.Sprintf(` AND category = $%d`, argNum)
		args = append(args, params.Category)
		argNum++
	}
	if len(params.Tags) > 0 {
		query += fmt.Sprintf(` AND tags && $%d`, argNum)
		args = append(args, pq.Array(params.Tags))
		argNum++
	}
	if params.FreelancerID != nil {
		query += fmt.Sprintf(` AND freelancer_id = $%d`, argNum)
		args = append(args, *params.FreelancerID)
		argNum++
	}
	if params.MinPrice != nil {
		query += fmt.Sprintf(` AND %s >= $%d`, gigMinPriceExpr, argNum)
		args = append(args, *params.MinPrice)
		argNum++
	}
	if params.MaxPrice != nil {
		query += fmt.Sprintf(` AND %s <= $%d`, gigMinPriceExpr, argNum)
		args = append(args, *params.MaxPrice)
		argNum++
	}

	query += ` ORDER BY created_at DESC`
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, argNum, argNum+1)
	args = append(args, params.Limit, params.Offset)

	return query, args
}

// ListByFreelancer возвращает все услуги фрилансера, включая черновики.
func (r *GigRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Gig, error) {
	query := `SELECT ` + gigColumns + ` FROM gigs WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryxContext(ctx, query, freelancerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("gig repository: list by freelancer %w", err)
	}
	defer rows.Close()

	var gigs []models.Gig
	for rows.Next() {
		gig, err := r.scanGig(rows)
		if err != nil {
			return nil, fmt.Errorf("gig repository: list scan %w", err)
		}
		gigs = append(gigs, *gig)
	}

	return gigs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanGig читает строку услуги с распаковкой массива тегов и JSONB прайсинга.
func (r *GigRepository) scanGig(row rowScanner) (*models.Gig, error) {
	var gig models.Gig
	var tags pq.StringArray

	if err := row.Scan(
		&gig.ID,
		&gig.FreelancerID,
		&gig.Title,
		&gig.Description,
		&gig.Category,
		&tags,
		&gig.Pricing,
		&gig.DeliveryDays,
		&gig.RevisionCount,
		&gig.Status,
		&gig.CreatedAt,
		&gig.UpdatedAt,
	); err != nil {
		return nil, err
	}

	gig.Tags = []string(tags)
	return &gig, nil
}
