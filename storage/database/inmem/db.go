package inmemdb

import (
	"sync"

	"github.com/trezcool/shule/core/circular"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type (
	DB struct {
		user     *userTable
		school   *schoolTable
		circular *circularTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	schoolTable struct {
		sync.RWMutex
		table map[string]*school.School
	}

	circularTable struct {
		sync.RWMutex
		table map[string]*circular.Circular
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		school:   &schoolTable{table: make(map[string]*school.School)},
		circular: &circularTable{table: make(map[string]*circular.Circular)},
	}
	return db, nil
}
