package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/circular"
)

type circularRepository struct {
	db *circularTable
}

func NewCircularRepository(db *DB) circular.Repository {
	return &circularRepository{db: db.circular}
}

func (repo *circularRepository) CreateCircular(ctx context.Context, circ circular.Circular) (circular.Circular, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	circ.ID = uuid.New().String()
	repo.db.table[circ.ID] = &circ
	return circ, nil
}

func (repo *circularRepository) GetCircularByID(ctx context.Context, id string) (circular.Circular, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if circ, ok := repo.db.table[id]; ok {
		return *circ, nil
	}
	return circular.Circular{}, circular.ErrNotFound
}

func (repo *circularRepository) QueryCirculars(ctx context.Context, filter *circular.QueryFilter) ([]circular.Circular, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	circs := make([]circular.Circular, 0, len(repo.db.table))
	for _, circ := range repo.db.table {
		if filter != nil {
			if filter.SchoolID != "" && circ.SchoolID != filter.SchoolID {
				continue
			}
			if filter.Audience != "" && circ.Audience != filter.Audience {
				continue
			}
		}
		circs = append(circs, *circ)
	}
	sort.Slice(circs, func(i, j int) bool { return circs[i].CreatedAt.After(circs[j].CreatedAt) })
	return circs, nil
}

func (repo *circularRepository) UpdateCircular(ctx context.Context, circ circular.Circular) (circular.Circular, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	origCirc, ok := repo.db.table[circ.ID]
	if !ok {
		return circular.Circular{}, circular.ErrNotFound
	}
	if circ.Title != "" {
		origCirc.Title = circ.Title
	}
	if circ.Body != "" {
		origCirc.Body = circ.Body
	}
	if circ.Audience != "" {
		origCirc.Audience = circ.Audience
	}
	if !circ.UpdatedAt.IsZero() {
		origCirc.UpdatedAt = circ.UpdatedAt
	}

	repo.db.table[circ.ID] = origCirc
	return *origCirc, nil
}

func (repo *circularRepository) DeleteCircularsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
