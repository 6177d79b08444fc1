package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

// Gateway is the single choke point all resource operations funnel through:
// authenticate → policy check → scope resolution → store call → in-scope
// re-check for single-record operations.
type Gateway struct {
	store    school.Store
	resolver *Resolver
	log      core.Logger
}

func NewGateway(store school.Store, resolver *Resolver, log core.Logger) *Gateway {
	if log == nil {
		log = core.NopLogger{}
	}
	return &Gateway{store: store, resolver: resolver, log: log}
}

// Resolver exposes the gateway's scope resolver (for actor loading).
func (g *Gateway) Resolver() *Resolver { return g.resolver }

// authorize runs the policy lookup and, for scoped decisions, resolves the
// predicate. The predicate is computed once per request; retries reuse it.
func (g *Gateway) authorize(actor Actor, res school.Resource, op Operation) (school.Predicate, bool, error) {
	if !actor.Authenticated() {
		return school.Predicate{}, false, ErrUnauthenticated
	}
	switch Authorize(actor.User.Role, res, op) {
	case AllowedUnscoped:
		return school.Predicate{}, false, nil
	case AllowedScoped:
		return g.resolver.Scope(actor, res, op), true, nil
	}
	return school.Predicate{}, false, ErrForbidden
}

// List returns the records of res visible to the actor. The caller-supplied
// filter is ANDed with the resolved scope: request filters may only narrow
// the scope, never widen it.
func (g *Gateway) List(ctx context.Context, actor Actor, res school.Resource, filter school.Predicate) ([]school.Record, error) {
	pred, scoped, err := g.authorize(actor, res, OpList)
	if err != nil {
		return nil, err
	}
	if scoped {
		pred = pred.And(filter)
	} else {
		pred = filter
	}
	recs, err := g.query(ctx, res, pred)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", res)
	}
	return recs, nil
}

// Read fetches a single record. A record that exists but lies outside the
// actor's scope is reported as not found, indistinguishable from an absent id.
func (g *Gateway) Read(ctx context.Context, actor Actor, res school.Resource, id string) (school.Record, error) {
	pred, scoped, err := g.authorize(actor, res, OpRead)
	if err != nil {
		return nil, err
	}
	rec, err := g.get(ctx, res, id)
	if err != nil {
		return nil, err
	}
	if scoped && !school.Matches(rec, pred) {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Create persists a new record. A scoped actor may only create records that
// fall inside their own resolved scope; attempting otherwise is forbidden
// (unlike reads, creation leaks no record existence, so Forbidden is safe).
func (g *Gateway) Create(ctx context.Context, actor Actor, res school.Resource, rec school.Record) (school.Record, error) {
	pred, scoped, err := g.authorize(actor, res, OpCreate)
	if err != nil {
		return nil, err
	}
	if rec, err = g.pinStudentClass(ctx, rec); err != nil {
		return nil, err
	}
	if scoped && !school.Matches(rec, pred) {
		return nil, ErrForbidden
	}
	created, err := g.store.Create(ctx, res, rec)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", res)
	}
	return created, nil
}

// Update replaces an existing record. The current record must be in scope
// (otherwise not found, as for reads) and the updated record must remain in
// scope (otherwise forbidden: updates cannot move records out of a scope the
// actor could not reach).
func (g *Gateway) Update(ctx context.Context, actor Actor, res school.Resource, rec school.Record) (school.Record, error) {
	pred, scoped, err := g.authorize(actor, res, OpUpdate)
	if err != nil {
		return nil, err
	}
	existing, err := g.get(ctx, res, rec.RecordID())
	if err != nil {
		return nil, err
	}
	if scoped && !school.Matches(existing, pred) {
		return nil, ErrNotFound
	}
	if rec, err = g.pinStudentClass(ctx, rec); err != nil {
		return nil, err
	}
	if scoped && !school.Matches(rec, pred) {
		return nil, ErrForbidden
	}
	updated, err := g.store.Update(ctx, res, rec)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "updating %s", res)
	}
	return updated, nil
}

// Delete removes (or archives, for retained resources) a record in scope.
func (g *Gateway) Delete(ctx context.Context, actor Actor, res school.Resource, id string) error {
	pred, scoped, err := g.authorize(actor, res, OpDelete)
	if err != nil {
		return err
	}
	existing, err := g.get(ctx, res, id)
	if err != nil {
		return err
	}
	if scoped && !school.Matches(existing, pred) {
		return ErrNotFound
	}
	if err := g.store.Delete(ctx, res, id); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return ErrNotFound
		}
		return errors.Wrapf(err, "deleting %s", res)
	}
	return nil
}

// pinStudentClass overwrites the class on student-anchored records with the
// referenced student's actual class. The stamped class_id is client-supplied
// and must never decide where a write lands; only the student relationship
// does. A write naming a student whose class lies outside the writer's scope
// then fails the scope check regardless of the class stamped on the record.
func (g *Gateway) pinStudentClass(ctx context.Context, rec school.Record) (school.Record, error) {
	var studentID string
	switch r := rec.(type) {
	case school.Result:
		studentID = r.StudentID
	case school.Attendance:
		studentID = r.StudentID
	default:
		return rec, nil
	}

	raw, err := g.get(ctx, school.ResourceStudent, studentID)
	if err != nil {
		return nil, err
	}
	std, ok := raw.(school.Student)
	if !ok {
		return nil, errors.Errorf("unexpected record type %T for student", raw)
	}
	switch r := rec.(type) {
	case school.Result:
		r.ClassID = std.ClassID
		return r, nil
	case school.Attendance:
		r.ClassID = std.ClassID
		return r, nil
	}
	return rec, nil
}

// query calls the store, retrying once on a transient failure. The scope
// predicate is not recomputed for the retry.
func (g *Gateway) query(ctx context.Context, res school.Resource, pred school.Predicate) ([]school.Record, error) {
	recs, err := g.store.Query(ctx, res, pred)
	if school.IsTransient(err) {
		recs, err = g.store.Query(ctx, res, pred)
	}
	return recs, err
}

func (g *Gateway) get(ctx context.Context, res school.Resource, id string) (school.Record, error) {
	rec, err := g.store.Get(ctx, res, id)
	if school.IsTransient(err) {
		rec, err = g.store.Get(ctx, res, id)
	}
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "fetching %s", res)
	}
	return rec, nil
}
