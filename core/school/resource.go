package school

// Resource identifies a record type exposed through the access gateway.
type Resource string

const (
	ResourceStudent      Resource = "student"
	ResourceStaff        Resource = "staff"
	ResourceParent       Resource = "parent"
	ResourceClass        Resource = "class"
	ResourceSubject      Resource = "subject"
	ResourceAcademicYear Resource = "academic-year"
	ResourceResult       Resource = "result"
	ResourceAttendance   Resource = "attendance"
	ResourceFeeStructure Resource = "fee-structure"
	ResourceFeePayment   Resource = "fee-payment"
	ResourceAnnouncement Resource = "announcement"
)

// Resources lists all known resource types.
var Resources = []Resource{
	ResourceStudent,
	ResourceStaff,
	ResourceParent,
	ResourceClass,
	ResourceSubject,
	ResourceAcademicYear,
	ResourceResult,
	ResourceAttendance,
	ResourceFeeStructure,
	ResourceFeePayment,
	ResourceAnnouncement,
}

// retainedResources are never hard-deleted: academic & financial history must be
// kept, so deletion archives the record instead.
var retainedResources = map[Resource]bool{
	ResourceResult:     true,
	ResourceAttendance: true,
	ResourceFeePayment: true,
}

// Retained reports whether records of this resource are archived on delete
// instead of being removed.
func (r Resource) Retained() bool {
	return retainedResources[r]
}
