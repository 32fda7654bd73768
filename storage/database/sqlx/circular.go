package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/circular"
)

type circularRepository struct {
	db *sqlx.DB
}

var _ circular.Repository = (*circularRepository)(nil) // interface compliance check

func NewCircularRepository(db *sqlx.DB) *circularRepository {
	return &circularRepository{db: db}
}

type circularRow struct {
	ID        string         `db:"id"`
	SchoolID  string         `db:"school_id"`
	Title     string         `db:"title"`
	Body      string         `db:"body"`
	Audience  string         `db:"audience"`
	CreatedBy sql.NullString `db:"created_by"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (repo circularRepository) toRow(circ circular.Circular) circularRow {
	return circularRow{
		ID:        circ.ID,
		SchoolID:  circ.SchoolID,
		Title:     circ.Title,
		Body:      circ.Body,
		Audience:  circ.Audience,
		CreatedBy: sql.NullString{String: circ.CreatedBy, Valid: circ.CreatedBy != ""},
		CreatedAt: circ.CreatedAt.UTC(),
		UpdatedAt: circ.UpdatedAt.UTC(),
	}
}

func (repo circularRepository) fromRow(row circularRow) circular.Circular {
	return circular.Circular{
		ID:        row.ID,
		SchoolID:  row.SchoolID,
		Title:     row.Title,
		Body:      row.Body,
		Audience:  row.Audience,
		CreatedBy: row.CreatedBy.String,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func (repo circularRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return circular.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo circularRepository) CreateCircular(ctx context.Context, circ circular.Circular) (circular.Circular, error) {
	circ.ID = uuid.New().String()
	row := repo.toRow(circ)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO circular (id, school_id, title, body, audience, created_by, created_at, updated_at)
		VALUES (:id, :school_id, :title, :body, :audience, :created_by, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return circular.Circular{}, errors.Wrap(err, "inserting circular")
	}
	return repo.fromRow(row), nil
}

func (repo circularRepository) GetCircularByID(ctx context.Context, id string) (circular.Circular, error) {
	if _, err := uuid.Parse(id); err != nil {
		return circular.Circular{}, circular.ErrNotFound
	}
	var row circularRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM circular WHERE id = $1`, id); err != nil {
		return circular.Circular{}, repo.trapNoRowsErr(err, "finding circular")
	}
	return repo.fromRow(row), nil
}

func (repo circularRepository) QueryCirculars(ctx context.Context, filter *circular.QueryFilter) ([]circular.Circular, error) {
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.SchoolID != "" {
			args = append(args, filter.SchoolID)
			conds = append(conds, fmt.Sprintf("school_id = $%d", len(args)))
		}
		if filter.Audience != "" {
			args = append(args, filter.Audience)
			conds = append(conds, fmt.Sprintf("audience = $%d", len(args)))
		}
	}

	query := `SELECT * FROM circular`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var rows []circularRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying circulars")
	}
	circs := make([]circular.Circular, 0, len(rows))
	for _, row := range rows {
		circs = append(circs, repo.fromRow(row))
	}
	return circs, nil
}

func (repo circularRepository) UpdateCircular(ctx context.Context, circ circular.Circular) (circular.Circular, error) {
	orig, err := repo.GetCircularByID(ctx, circ.ID)
	if err != nil {
		return circular.Circular{}, err
	}
	if circ.Title != "" {
		orig.Title = circ.Title
	}
	if circ.Body != "" {
		orig.Body = circ.Body
	}
	if circ.Audience != "" {
		orig.Audience = circ.Audience
	}
	if !circ.UpdatedAt.IsZero() {
		orig.UpdatedAt = circ.UpdatedAt
	}

	row := repo.toRow(orig)
	_, err = repo.db.NamedExecContext(ctx, `
		UPDATE circular
		SET title = :title, body = :body, audience = :audience, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return circular.Circular{}, errors.Wrap(err, "updating circular")
	}
	return repo.fromRow(row), nil
}

func (repo circularRepository) DeleteCircularsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM circular WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting circulars")
	}
	return nil
}
