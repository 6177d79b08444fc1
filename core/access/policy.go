package access

import (
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

// Decision is the outcome of a policy lookup.
type Decision int

const (
	// Denied: the role may not perform the operation on this resource at all.
	Denied Decision = iota
	// AllowedUnscoped: permitted with no record-level filter.
	AllowedUnscoped
	// AllowedScoped: permitted within the predicate resolved for the identity.
	AllowedScoped
)

// Operation is an operation class on a resource.
type Operation string

const (
	OpList   Operation = "list"
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

var readOps = []Operation{OpList, OpRead}
var writeOps = []Operation{OpCreate, OpUpdate}
var allOps = []Operation{OpList, OpRead, OpCreate, OpUpdate, OpDelete}

type ruleKey struct {
	role string
	res  school.Resource
	op   Operation
}

// rules is the policy table, exhaustively enumerated at init. Lookups of any
// combination absent from it return Denied: the table fails closed.
var rules = map[ruleKey]Decision{}

func grant(role string, res school.Resource, d Decision, ops ...Operation) {
	for _, op := range ops {
		rules[ruleKey{role, res, op}] = d
	}
}

func init() {
	// reference data is readable by every authenticated role
	refData := []school.Resource{
		school.ResourceClass,
		school.ResourceSubject,
		school.ResourceAcademicYear,
		school.ResourceFeeStructure,
	}

	// admin: everything, unscoped
	for _, res := range school.Resources {
		grant(user.RoleAdmin, res, AllowedUnscoped, allOps...)
	}

	// management: school-wide reads; writes on reference data, fees and
	// announcements. Results/attendance stay staff-owned; retained resources
	// are never deleted by management.
	for _, res := range school.Resources {
		grant(user.RoleManagement, res, AllowedUnscoped, readOps...)
	}
	for _, res := range refData {
		grant(user.RoleManagement, res, AllowedUnscoped, writeOps...)
	}
	grant(user.RoleManagement, school.ResourceFeePayment, AllowedUnscoped, writeOps...)
	grant(user.RoleManagement, school.ResourceAnnouncement, AllowedUnscoped, OpCreate, OpUpdate, OpDelete)

	// staff
	for _, res := range refData {
		grant(user.RoleStaff, res, AllowedUnscoped, readOps...)
	}
	grant(user.RoleStaff, school.ResourceResult, AllowedScoped, OpList, OpRead, OpCreate, OpUpdate)
	grant(user.RoleStaff, school.ResourceAttendance, AllowedScoped, OpList, OpRead, OpCreate, OpUpdate)
	grant(user.RoleStaff, school.ResourceStudent, AllowedScoped, readOps...)
	grant(user.RoleStaff, school.ResourceStaff, AllowedScoped, readOps...)
	grant(user.RoleStaff, school.ResourceAnnouncement, AllowedScoped, readOps...)

	// student
	for _, res := range refData {
		grant(user.RoleStudent, res, AllowedUnscoped, readOps...)
	}
	grant(user.RoleStudent, school.ResourceResult, AllowedScoped, readOps...)
	grant(user.RoleStudent, school.ResourceAttendance, AllowedScoped, readOps...)
	grant(user.RoleStudent, school.ResourceFeePayment, AllowedScoped, readOps...)
	grant(user.RoleStudent, school.ResourceStudent, AllowedScoped, readOps...)
	grant(user.RoleStudent, school.ResourceAnnouncement, AllowedScoped, readOps...)

	// parent
	for _, res := range refData {
		grant(user.RoleParent, res, AllowedUnscoped, readOps...)
	}
	grant(user.RoleParent, school.ResourceResult, AllowedScoped, readOps...)
	grant(user.RoleParent, school.ResourceAttendance, AllowedScoped, readOps...)
	grant(user.RoleParent, school.ResourceFeePayment, AllowedScoped, readOps...)
	grant(user.RoleParent, school.ResourceStudent, AllowedScoped, readOps...)
	grant(user.RoleParent, school.ResourceParent, AllowedScoped, readOps...)
	grant(user.RoleParent, school.ResourceAnnouncement, AllowedScoped, readOps...)
}

// Authorize is a pure table lookup deciding whether role may perform op on
// res. Unknown combinations are Denied.
func Authorize(role string, res school.Resource, op Operation) Decision {
	if d, ok := rules[ruleKey{role, res, op}]; ok {
		return d
	}
	return Denied
}
