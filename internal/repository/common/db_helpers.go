package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// GetByID загружает запись таблицы по первичному ключу.
// sql.ErrNoRows переводится в доменную ошибку notFoundErr.
func GetByID[T any](ctx context.Context, db *sqlx.DB, table string, id interface{}, notFoundErr error) (*T, error) {
	var entity T
	query := fmt.Sprintf(`SELECT * FROM %s WHERE id = $1`, table)

	if err := db.GetContext(ctx, &entity, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr
		}
		return nil, fmt.Errorf("%s: get by id %w", table, err)
	}

	return &entity, nil
}
