package school

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound indicates a record is absent from the store.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a uniqueness or concurrency violation.
	ErrConflict = errors.New("record conflict")
	// ErrTransient indicates a temporary storage failure; callers may retry once.
	ErrTransient = errors.New("transient storage error")
)

// Store is the persistence contract all resource operations go through.
// Query filters with the given predicate; stores compile it to their own
// filter form and must exclude archived records of retained resources.
// Delete archives retained resources instead of removing them.
type Store interface {
	Query(ctx context.Context, res Resource, pred Predicate) ([]Record, error)
	Get(ctx context.Context, res Resource, id string) (Record, error)
	Create(ctx context.Context, res Resource, rec Record) (Record, error)
	Update(ctx context.Context, res Resource, rec Record) (Record, error)
	Delete(ctx context.Context, res Resource, id string) error
}

// IsTransient reports whether err is a retriable storage failure.
func IsTransient(err error) bool {
	return errors.Cause(err) == ErrTransient
}

// WithID returns a copy of rec with its ID set. Stores use it to assign
// generated identifiers on create.
func WithID(rec Record, id string) Record {
	switch r := rec.(type) {
	case Student:
		r.ID = id
		return r
	case Staff:
		r.ID = id
		return r
	case Parent:
		r.ID = id
		return r
	case Class:
		r.ID = id
		return r
	case Subject:
		r.ID = id
		return r
	case AcademicYear:
		r.ID = id
		return r
	case Result:
		r.ID = id
		return r
	case Attendance:
		r.ID = id
		return r
	case FeeStructure:
		r.ID = id
		return r
	case FeePayment:
		r.ID = id
		return r
	case Announcement:
		r.ID = id
		return r
	}
	return rec
}

// StudentByUser fetches the student profile linked to an identity.
func StudentByUser(ctx context.Context, s Store, userID string) (Student, error) {
	recs, err := s.Query(ctx, ResourceStudent, Where("user_id", OpEq, userID))
	if err != nil {
		return Student{}, err
	}
	if len(recs) == 0 {
		return Student{}, ErrNotFound
	}
	std, ok := recs[0].(Student)
	if !ok {
		return Student{}, errors.Errorf("unexpected record type %T for student", recs[0])
	}
	return std, nil
}

// StaffByUser fetches the staff profile linked to an identity.
func StaffByUser(ctx context.Context, s Store, userID string) (Staff, error) {
	recs, err := s.Query(ctx, ResourceStaff, Where("user_id", OpEq, userID))
	if err != nil {
		return Staff{}, err
	}
	if len(recs) == 0 {
		return Staff{}, ErrNotFound
	}
	stf, ok := recs[0].(Staff)
	if !ok {
		return Staff{}, errors.Errorf("unexpected record type %T for staff", recs[0])
	}
	return stf, nil
}

// ParentByUser fetches the parent profile linked to an identity.
func ParentByUser(ctx context.Context, s Store, userID string) (Parent, error) {
	recs, err := s.Query(ctx, ResourceParent, Where("user_id", OpEq, userID))
	if err != nil {
		return Parent{}, err
	}
	if len(recs) == 0 {
		return Parent{}, ErrNotFound
	}
	par, ok := recs[0].(Parent)
	if !ok {
		return Parent{}, errors.Errorf("unexpected record type %T for parent", recs[0])
	}
	return par, nil
}
