package inmemdb

import (
	"sync"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

// DB is an in-memory database used in DEV mode and tests.
type DB struct {
	mutex  sync.RWMutex
	users  map[string]*user.User
	tables map[school.Resource]map[string]school.Record
}

func Open() (*DB, error) {
	db := &DB{
		users:  make(map[string]*user.User),
		tables: make(map[school.Resource]map[string]school.Record),
	}
	for _, res := range school.Resources {
		db.tables[res] = make(map[string]school.Record)
	}
	return db, nil
}

// Reset drops all data; test helper.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.users = make(map[string]*user.User)
	for _, res := range school.Resources {
		db.tables[res] = make(map[string]school.Record)
	}
}
