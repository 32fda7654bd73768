package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

type schoolRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Address   sql.NullString `db:"address"`
	Phone     sql.NullString `db:"phone"`
	Email     sql.NullString `db:"email"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (repo schoolRepository) toRow(sch school.School) schoolRow {
	return schoolRow{
		ID:        sch.ID,
		Name:      sch.Name,
		Address:   sql.NullString{String: sch.Address, Valid: sch.Address != ""},
		Phone:     sql.NullString{String: sch.Phone, Valid: sch.Phone != ""},
		Email:     sql.NullString{String: sch.Email, Valid: sch.Email != ""},
		CreatedAt: sch.CreatedAt.UTC(),
		UpdatedAt: sch.UpdatedAt.UTC(),
	}
}

func (repo schoolRepository) fromRow(row schoolRow) school.School {
	return school.School{
		ID:        row.ID,
		Name:      row.Name,
		Address:   row.Address.String,
		Phone:     row.Phone.String,
		Email:     row.Email.String,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func (repo schoolRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return school.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	sch.ID = uuid.New().String()
	row := repo.toRow(sch)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO school (id, name, address, phone, email, created_at, updated_at)
		VALUES (:id, :name, :address, :phone, :email, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return repo.fromRow(row), nil
}

func (repo schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.School{}, school.ErrNotFound
	}
	var row schoolRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM school WHERE id = $1`, id); err != nil {
		return school.School{}, repo.trapNoRowsErr(err, "finding school")
	}
	return repo.fromRow(row), nil
}

func (repo schoolRepository) QueryAllSchools(ctx context.Context) ([]school.School, error) {
	var rows []schoolRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM school ORDER BY name ASC`); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, repo.fromRow(row))
	}
	return schools, nil
}

func (repo schoolRepository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	orig, err := repo.GetSchoolByID(ctx, sch.ID)
	if err != nil {
		return school.School{}, err
	}
	if sch.Name != "" {
		orig.Name = sch.Name
	}
	if sch.Address != "" {
		orig.Address = sch.Address
	}
	if sch.Phone != "" {
		orig.Phone = sch.Phone
	}
	if sch.Email != "" {
		orig.Email = sch.Email
	}
	if !sch.UpdatedAt.IsZero() {
		orig.UpdatedAt = sch.UpdatedAt
	}

	row := repo.toRow(orig)
	_, err = repo.db.NamedExecContext(ctx, `
		UPDATE school
		SET name = :name, address = :address, phone = :phone, email = :email, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	}
	return repo.fromRow(row), nil
}

func (repo schoolRepository) DeleteSchoolsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM school WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting schools")
	}
	return nil
}
