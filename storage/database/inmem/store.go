package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/school"
)

// Store implements school.Store against the in-memory tables.
type Store struct {
	db *DB
}

var _ school.Store = (*Store)(nil)

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) Query(_ context.Context, res school.Resource, pred school.Predicate) ([]school.Record, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	table, ok := s.db.tables[res]
	if !ok {
		return nil, school.ErrNotFound
	}
	recs := make([]school.Record, 0, len(table))
	for _, rec := range table {
		if isArchived(rec) {
			continue
		}
		if school.Matches(rec, pred) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].RecordID() < recs[j].RecordID() })
	return recs, nil
}

func (s *Store) Get(_ context.Context, res school.Resource, id string) (school.Record, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	if rec, ok := s.db.tables[res][id]; ok && !isArchived(rec) {
		return rec, nil
	}
	return nil, school.ErrNotFound
}

func (s *Store) Create(_ context.Context, res school.Resource, rec school.Record) (school.Record, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	if rec.RecordID() == "" {
		rec = school.WithID(rec, uuid.New().String())
	}
	table := s.db.tables[res]
	if _, exists := table[rec.RecordID()]; exists {
		return nil, school.ErrConflict
	}
	if err := checkUnique(table, rec); err != nil {
		return nil, err
	}
	table[rec.RecordID()] = rec
	return rec, nil
}

func (s *Store) Update(_ context.Context, res school.Resource, rec school.Record) (school.Record, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	table := s.db.tables[res]
	existing, ok := table[rec.RecordID()]
	if !ok || isArchived(existing) {
		return nil, school.ErrNotFound
	}
	if err := checkUnique(table, rec); err != nil {
		return nil, err
	}
	table[rec.RecordID()] = rec
	return rec, nil
}

func (s *Store) Delete(_ context.Context, res school.Resource, id string) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	table := s.db.tables[res]
	rec, ok := table[id]
	if !ok || isArchived(rec) {
		return school.ErrNotFound
	}
	if res.Retained() {
		table[id] = withArchived(rec)
		return nil
	}
	delete(table, id)
	return nil
}

func isArchived(rec school.Record) bool {
	switch r := rec.(type) {
	case school.Result:
		return r.Archived
	case school.Attendance:
		return r.Archived
	case school.FeePayment:
		return r.Archived
	}
	return false
}

func withArchived(rec school.Record) school.Record {
	switch r := rec.(type) {
	case school.Result:
		r.Archived = true
		return r
	case school.Attendance:
		r.Archived = true
		return r
	case school.FeePayment:
		r.Archived = true
		return r
	}
	return rec
}

// checkUnique enforces the natural uniqueness key against live rows. Archived
// rows do not count: a re-upload after an archive must go through.
func checkUnique(table map[string]school.Record, rec school.Record) error {
	key := uniqueKey(rec)
	if key == "" {
		return nil
	}
	for id, other := range table {
		if id != rec.RecordID() && !isArchived(other) && uniqueKey(other) == key {
			return school.ErrConflict
		}
	}
	return nil
}

// uniqueKey returns the natural uniqueness key of a record, or "" when the
// resource has none beyond its id.
func uniqueKey(rec school.Record) string {
	switch r := rec.(type) {
	case school.Subject:
		return r.Code
	case school.AcademicYear:
		return r.Name
	case school.Result:
		return r.StudentID + "|" + r.SubjectID + "|" + r.AcademicYearID + "|" + r.Term
	case school.Attendance:
		return r.StudentID + "|" + r.ClassID + "|" + r.Date.Format("2006-01-02")
	case school.FeePayment:
		if r.Term == "" {
			return ""
		}
		return r.StudentID + "|" + r.AcademicYearID + "|" + r.Term
	}
	return ""
}
