package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

// Actor is an authenticated identity plus its linked profile, loaded fresh
// from the store for each request. The profile pointer matching the role is
// nil when the link is missing; scoped operations then degrade to empty
// results instead of failing.
type Actor struct {
	User    user.User
	Student *school.Student
	Staff   *school.Staff
	Parent  *school.Parent
}

func (a Actor) Authenticated() bool { return a.User.ID != "" }

// Resolver computes record-level scope predicates for scoped decisions.
type Resolver struct {
	store school.Store
	log   core.Logger
}

func NewResolver(store school.Store, log core.Logger) *Resolver {
	if log == nil {
		log = core.NopLogger{}
	}
	return &Resolver{store: store, log: log}
}

// LoadActor resolves the identity's linked profile. A missing profile row is
// not an error here; it surfaces later as a scoped-empty result.
func (r *Resolver) LoadActor(ctx context.Context, usr user.User) (Actor, error) {
	actor := Actor{User: usr}
	var err error
	switch usr.Role {
	case user.RoleStudent:
		var std school.Student
		if std, err = school.StudentByUser(ctx, r.store, usr.ID); err == nil {
			actor.Student = &std
		}
	case user.RoleStaff:
		var stf school.Staff
		if stf, err = school.StaffByUser(ctx, r.store, usr.ID); err == nil {
			actor.Staff = &stf
		}
	case user.RoleParent:
		var par school.Parent
		if par, err = school.ParentByUser(ctx, r.store, usr.ID); err == nil {
			actor.Parent = &par
		}
	default:
		return actor, nil
	}
	if err != nil && errors.Cause(err) != school.ErrNotFound {
		return Actor{}, errors.Wrap(err, "loading actor profile")
	}
	return actor, nil
}

// Scope resolves the filter predicate for a scoped decision. It is only
// called after Authorize returned AllowedScoped. The op matters for resources
// whose write scope is narrower than their read scope (a staff member may see
// any result of their classes but only touch those they entered).
func (r *Resolver) Scope(actor Actor, res school.Resource, op Operation) school.Predicate {
	role := actor.User.Role

	// announcements are audience-targeted the same way for every scoped role
	if res == school.ResourceAnnouncement {
		return school.Where("audience", school.OpAnyOf, []string{role, school.AudienceAll})
	}

	switch role {
	case user.RoleStaff:
		if actor.Staff == nil {
			r.warnUnlinked(actor)
			return school.MatchNone()
		}
		classes := actor.Staff.ClassIDs
		if classes == nil {
			classes = []string{}
		}
		switch res {
		case school.ResourceResult:
			pred := school.Where("class_id", school.OpIn, classes)
			if op == OpUpdate || op == OpDelete {
				pred = pred.And(school.Where("uploaded_by", school.OpEq, actor.Staff.ID))
			}
			return pred
		case school.ResourceAttendance, school.ResourceStudent:
			return school.Where("class_id", school.OpIn, classes)
		case school.ResourceStaff:
			return school.Where("id", school.OpEq, actor.Staff.ID)
		}

	case user.RoleStudent:
		if actor.Student == nil {
			r.warnUnlinked(actor)
			return school.MatchNone()
		}
		switch res {
		case school.ResourceResult, school.ResourceAttendance, school.ResourceFeePayment:
			return school.Where("student_id", school.OpEq, actor.Student.ID)
		case school.ResourceStudent:
			return school.Where("id", school.OpEq, actor.Student.ID)
		}

	case user.RoleParent:
		if actor.Parent == nil {
			r.warnUnlinked(actor)
			return school.MatchNone()
		}
		// one traversal hop through the parent→student relation; a parent
		// with no linked students gets a predicate that matches nothing
		children := actor.Parent.StudentIDs
		if children == nil {
			children = []string{}
		}
		switch res {
		case school.ResourceResult, school.ResourceAttendance, school.ResourceFeePayment:
			return school.Where("student_id", school.OpIn, children)
		case school.ResourceStudent:
			return school.Where("id", school.OpIn, children)
		case school.ResourceParent:
			return school.Where("id", school.OpEq, actor.Parent.ID)
		}
	}

	return school.MatchNone()
}

func (r *Resolver) warnUnlinked(actor Actor) {
	if r.log != nil {
		r.log.Warn("profile not linked; scoping to empty result", actor.User)
	}
}
