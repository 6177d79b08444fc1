package dashboard

import (
	"context"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type (
	// SchoolSummary is the admin/management dashboard.
	SchoolSummary struct {
		TotalStudents     int     `json:"total_students"`
		TotalStaff        int     `json:"total_staff"`
		TotalParents      int     `json:"total_parents"`
		TotalClasses      int     `json:"total_classes"`
		TotalSubjects     int     `json:"total_subjects"`
		PendingFees       int     `json:"pending_fees"`
		PendingFeeAmount  float64 `json:"pending_fee_amount"`
		Announcements     int     `json:"announcements"`
	}

	StaffSummary struct {
		AssignedClasses  int `json:"assigned_classes"`
		AssignedSubjects int `json:"assigned_subjects"`
		Students         int `json:"students"`
		Announcements    int `json:"announcements"`
	}

	StudentSummary struct {
		ClassID       string `json:"class_id"`
		TotalResults  int    `json:"total_results"`
		PendingFees   int    `json:"pending_fees"`
		Announcements int    `json:"announcements"`
	}

	ChildSummary struct {
		StudentID    string         `json:"student_id"`
		LatestResult *school.Result `json:"latest_result"`
		PendingFees  int            `json:"pending_fees"`
		AmountDue    float64        `json:"amount_due"`
	}

	ParentSummary struct {
		Children      []ChildSummary `json:"children"`
		Announcements int            `json:"announcements"`
	}
)

// Service composes role-specific dashboard summaries out of gateway calls; it
// never bypasses the gateway, so every count is scope-correct by construction.
// A failed sub-query degrades its metric to zero instead of failing the
// summary.
type Service struct {
	gw  *access.Gateway
	log core.Logger
}

func NewService(gw *access.Gateway, log core.Logger) *Service {
	if log == nil {
		log = core.NopLogger{}
	}
	return &Service{gw: gw, log: log}
}

func (svc *Service) Summary(ctx context.Context, actor access.Actor) (interface{}, error) {
	if !actor.Authenticated() {
		return nil, access.ErrUnauthenticated
	}
	switch actor.User.Role {
	case user.RoleAdmin, user.RoleManagement:
		return svc.schoolSummary(ctx, actor), nil
	case user.RoleStaff:
		return svc.staffSummary(ctx, actor), nil
	case user.RoleStudent:
		return svc.studentSummary(ctx, actor), nil
	case user.RoleParent:
		return svc.parentSummary(ctx, actor), nil
	}
	return nil, access.ErrForbidden
}

func (svc *Service) schoolSummary(ctx context.Context, actor access.Actor) SchoolSummary {
	sum := SchoolSummary{
		TotalStudents: svc.count(ctx, actor, school.ResourceStudent, school.Predicate{}),
		TotalStaff:    svc.count(ctx, actor, school.ResourceStaff, school.Predicate{}),
		TotalParents:  svc.count(ctx, actor, school.ResourceParent, school.Predicate{}),
		TotalClasses:  svc.count(ctx, actor, school.ResourceClass, school.Predicate{}),
		TotalSubjects: svc.count(ctx, actor, school.ResourceSubject, school.Predicate{}),
		Announcements: svc.count(ctx, actor, school.ResourceAnnouncement, school.Predicate{}),
	}
	pending := svc.list(ctx, actor, school.ResourceFeePayment, school.Where("status", school.OpEq, school.FeePending))
	sum.PendingFees = len(pending)
	for _, rec := range pending {
		if fee, ok := rec.(school.FeePayment); ok {
			sum.PendingFeeAmount += fee.TotalAmount - fee.AmountPaid
		}
	}
	return sum
}

func (svc *Service) staffSummary(ctx context.Context, actor access.Actor) StaffSummary {
	sum := StaffSummary{
		Students:      svc.count(ctx, actor, school.ResourceStudent, school.Predicate{}),
		Announcements: svc.count(ctx, actor, school.ResourceAnnouncement, school.Predicate{}),
	}
	if actor.Staff != nil {
		sum.AssignedClasses = len(actor.Staff.ClassIDs)
		sum.AssignedSubjects = len(actor.Staff.SubjectIDs)
	}
	return sum
}

func (svc *Service) studentSummary(ctx context.Context, actor access.Actor) StudentSummary {
	sum := StudentSummary{
		TotalResults:  svc.count(ctx, actor, school.ResourceResult, school.Predicate{}),
		PendingFees:   svc.count(ctx, actor, school.ResourceFeePayment, school.Where("status", school.OpEq, school.FeePending)),
		Announcements: svc.count(ctx, actor, school.ResourceAnnouncement, school.Predicate{}),
	}
	if actor.Student != nil {
		sum.ClassID = actor.Student.ClassID
	}
	return sum
}

func (svc *Service) parentSummary(ctx context.Context, actor access.Actor) ParentSummary {
	sum := ParentSummary{
		Children:      []ChildSummary{},
		Announcements: svc.count(ctx, actor, school.ResourceAnnouncement, school.Predicate{}),
	}
	if actor.Parent == nil {
		return sum
	}
	for _, studentID := range actor.Parent.StudentIDs {
		child := ChildSummary{StudentID: studentID}

		results := svc.list(ctx, actor, school.ResourceResult, school.Where("student_id", school.OpEq, studentID))
		for _, rec := range results {
			if res, ok := rec.(school.Result); ok {
				if child.LatestResult == nil || res.UploadedAt.After(child.LatestResult.UploadedAt) {
					latest := res
					child.LatestResult = &latest
				}
			}
		}

		fees := svc.list(ctx, actor, school.ResourceFeePayment,
			school.Where("student_id", school.OpEq, studentID).And(school.Where("status", school.OpEq, school.FeePending)))
		child.PendingFees = len(fees)
		for _, rec := range fees {
			if fee, ok := rec.(school.FeePayment); ok {
				child.AmountDue += fee.TotalAmount - fee.AmountPaid
			}
		}

		sum.Children = append(sum.Children, child)
	}
	return sum
}

// list degrades to an empty slice on error so a single failing sub-query
// zeroes its metric without failing the dashboard.
func (svc *Service) list(ctx context.Context, actor access.Actor, res school.Resource, pred school.Predicate) []school.Record {
	recs, err := svc.gw.List(ctx, actor, res, pred)
	if err != nil {
		if svc.log != nil {
			svc.log.Warn("dashboard sub-query degraded", err, actor.User)
		}
		return nil
	}
	return recs
}

func (svc *Service) count(ctx context.Context, actor access.Actor, res school.Resource, pred school.Predicate) int {
	return len(svc.list(ctx, actor, res, pred))
}
