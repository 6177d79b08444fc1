package school

import "time"

// Record is the minimal contract every stored entity fulfills. Attr exposes
// filterable attributes by their wire name; scalar attributes are strings,
// list attributes are []string.
type Record interface {
	RecordID() string
	Attr(field string) interface{}
}

// Announcement audiences.
const (
	AudienceAll        = "all"
	AudienceStudents   = "student"
	AudienceParents    = "parent"
	AudienceStaff      = "staff"
	AudienceManagement = "management"
)

// FeePayment statuses.
const (
	FeePending = "pending"
	FeePaid    = "paid"
	FeeOverdue = "overdue"
	FeePartial = "partial"
)

// Attendance statuses.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

type Student struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id" validate:"required"`
	StudentNo string    `json:"student_no" db:"student_no" validate:"required"`
	ClassID   string    `json:"class_id" db:"class_id"`
	AdmissionDate time.Time `json:"admission_date" db:"admission_date"`
	EmergencyContact string `json:"emergency_contact,omitempty" db:"emergency_contact"`
}

func (s Student) RecordID() string { return s.ID }

func (s Student) Attr(field string) interface{} {
	switch field {
	case "id":
		return s.ID
	case "user_id":
		return s.UserID
	case "student_no":
		return s.StudentNo
	case "class_id":
		return s.ClassID
	}
	return nil
}

type Staff struct {
	ID          string   `json:"id" db:"id"`
	UserID      string   `json:"user_id" db:"user_id" validate:"required"`
	StaffNo     string   `json:"staff_no" db:"staff_no" validate:"required"`
	Designation string   `json:"designation" db:"designation"`
	ClassIDs    []string `json:"class_ids"`
	SubjectIDs  []string `json:"subject_ids"`
	JoinedAt    time.Time `json:"joined_at" db:"joined_at"`
}

func (s Staff) RecordID() string { return s.ID }

func (s Staff) Attr(field string) interface{} {
	switch field {
	case "id":
		return s.ID
	case "user_id":
		return s.UserID
	case "staff_no":
		return s.StaffNo
	case "class_ids":
		return s.ClassIDs
	case "subject_ids":
		return s.SubjectIDs
	}
	return nil
}

// Parent carries the parent↔student relation the scope resolver traverses.
// It is an explicit edge set, not nested record duplication.
type Parent struct {
	ID         string   `json:"id" db:"id"`
	UserID     string   `json:"user_id" db:"user_id" validate:"required"`
	ParentNo   string   `json:"parent_no" db:"parent_no" validate:"required"`
	StudentIDs []string `json:"student_ids"`
}

func (p Parent) RecordID() string { return p.ID }

func (p Parent) Attr(field string) interface{} {
	switch field {
	case "id":
		return p.ID
	case "user_id":
		return p.UserID
	case "parent_no":
		return p.ParentNo
	case "student_ids":
		return p.StudentIDs
	}
	return nil
}

type Class struct {
	ID             string `json:"id" db:"id"`
	Name           string `json:"name" db:"name" validate:"required"`
	Grade          int    `json:"grade" db:"grade" validate:"min=1,max=12"`
	Section        string `json:"section,omitempty" db:"section"`
	AcademicYearID string `json:"academic_year_id" db:"academic_year_id" validate:"required"`
}

func (c Class) RecordID() string { return c.ID }

func (c Class) Attr(field string) interface{} {
	switch field {
	case "id":
		return c.ID
	case "academic_year_id":
		return c.AcademicYearID
	}
	return nil
}

type Subject struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name" validate:"required"`
	Code        string `json:"code" db:"code" validate:"required,alphanum_"`
	Description string `json:"description,omitempty" db:"description"`
}

func (s Subject) RecordID() string { return s.ID }

func (s Subject) Attr(field string) interface{} {
	switch field {
	case "id":
		return s.ID
	case "code":
		return s.Code
	}
	return nil
}

type AcademicYear struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required"` // e.g. "2023-2024"
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
	IsActive  bool      `json:"is_active" db:"is_active"`
}

func (y AcademicYear) RecordID() string { return y.ID }

func (y AcademicYear) Attr(field string) interface{} {
	switch field {
	case "id":
		return y.ID
	case "name":
		return y.Name
	}
	return nil
}

// Result is an academic result. Continuous assessment tests are worth 10 marks
// each, the final exam 60; Finalize derives the totals and the letter grade.
type Result struct {
	ID             string  `json:"id" db:"id"`
	StudentID      string  `json:"student_id" db:"student_id" validate:"required"`
	SubjectID      string  `json:"subject_id" db:"subject_id" validate:"required"`
	ClassID        string  `json:"class_id" db:"class_id"`
	AcademicYearID string  `json:"academic_year_id" db:"academic_year_id" validate:"required"`
	Term           string  `json:"term" db:"term" validate:"required,oneof=first second third final"`
	CA1Score       float64 `json:"ca1_score" db:"ca1_score" validate:"min=0,max=10"`
	CA2Score       float64 `json:"ca2_score" db:"ca2_score" validate:"min=0,max=10"`
	CA3Score       float64 `json:"ca3_score" db:"ca3_score" validate:"min=0,max=10"`
	CA4Score       float64 `json:"ca4_score" db:"ca4_score" validate:"min=0,max=10"`
	ExamScore      float64 `json:"exam_score" db:"exam_score" validate:"min=0,max=60"`
	MarksObtained  float64 `json:"marks_obtained" db:"marks_obtained"`
	TotalMarks     float64 `json:"total_marks" db:"total_marks"`
	Grade          string  `json:"grade" db:"grade"`
	Remarks        string  `json:"remarks,omitempty" db:"remarks"`
	UploadedBy     string  `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt     time.Time `json:"uploaded_at" db:"uploaded_at"`
	Archived       bool      `json:"-" db:"archived"`
}

func (r Result) RecordID() string { return r.ID }

func (r Result) Attr(field string) interface{} {
	switch field {
	case "id":
		return r.ID
	case "student_id":
		return r.StudentID
	case "subject_id":
		return r.SubjectID
	case "class_id":
		return r.ClassID
	case "academic_year_id":
		return r.AcademicYearID
	case "term":
		return r.Term
	case "uploaded_by":
		return r.UploadedBy
	}
	return nil
}

// Finalize computes the obtained marks and grade from the raw scores.
func (r *Result) Finalize() {
	r.MarksObtained = r.CA1Score + r.CA2Score + r.CA3Score + r.CA4Score + r.ExamScore
	r.TotalMarks = 100
	pct := r.MarksObtained / r.TotalMarks * 100
	switch {
	case pct >= 90:
		r.Grade = "A+"
	case pct >= 80:
		r.Grade = "A"
	case pct >= 70:
		r.Grade = "B+"
	case pct >= 60:
		r.Grade = "B"
	case pct >= 50:
		r.Grade = "C+"
	case pct >= 40:
		r.Grade = "C"
	case pct >= 30:
		r.Grade = "D"
	default:
		r.Grade = "F"
	}
}

type Attendance struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id" validate:"required"`
	ClassID   string    `json:"class_id" db:"class_id"`
	Date      time.Time `json:"date" db:"date"`
	Status    string    `json:"status" db:"status" validate:"required,oneof=present absent late excused"`
	MarkedBy  string    `json:"marked_by" db:"marked_by"`
	Remarks   string    `json:"remarks,omitempty" db:"remarks"`
	Archived  bool      `json:"-" db:"archived"`
}

func (a Attendance) RecordID() string { return a.ID }

func (a Attendance) Attr(field string) interface{} {
	switch field {
	case "id":
		return a.ID
	case "student_id":
		return a.StudentID
	case "class_id":
		return a.ClassID
	case "status":
		return a.Status
	case "marked_by":
		return a.MarkedBy
	}
	return nil
}

type FeeStructure struct {
	ID             string  `json:"id" db:"id"`
	AcademicYearID string  `json:"academic_year_id" db:"academic_year_id" validate:"required"`
	Grade          int     `json:"grade" db:"grade" validate:"min=1,max=12"`
	FeeType        string  `json:"fee_type" db:"fee_type" validate:"required,oneof=tuition examination transport hostel other"`
	Amount         float64 `json:"amount" db:"amount" validate:"min=0"`
	Description    string  `json:"description,omitempty" db:"description"`
}

func (f FeeStructure) RecordID() string { return f.ID }

func (f FeeStructure) Attr(field string) interface{} {
	switch field {
	case "id":
		return f.ID
	case "academic_year_id":
		return f.AcademicYearID
	case "fee_type":
		return f.FeeType
	}
	return nil
}

type FeePayment struct {
	ID             string    `json:"id" db:"id"`
	StudentID      string    `json:"student_id" db:"student_id" validate:"required"`
	FeeStructureID string    `json:"fee_structure_id" db:"fee_structure_id" validate:"required"`
	AcademicYearID string    `json:"academic_year_id" db:"academic_year_id"`
	Term           string    `json:"term,omitempty" db:"term"`
	AmountPaid     float64   `json:"amount_paid" db:"amount_paid" validate:"min=0"`
	TotalAmount    float64   `json:"total_amount" db:"total_amount" validate:"min=0"`
	DueDate        time.Time `json:"due_date" db:"due_date"`
	PaidAt         time.Time `json:"paid_at" db:"paid_at"`
	Status         string    `json:"status" db:"status" validate:"omitempty,oneof=pending paid overdue partial"`
	Method         string    `json:"method,omitempty" db:"method"`
	TransactionID  string    `json:"transaction_id,omitempty" db:"transaction_id"`
	Remarks        string    `json:"remarks,omitempty" db:"remarks"`
	Archived       bool      `json:"-" db:"archived"`
}

func (f FeePayment) RecordID() string { return f.ID }

func (f FeePayment) Attr(field string) interface{} {
	switch field {
	case "id":
		return f.ID
	case "student_id":
		return f.StudentID
	case "fee_structure_id":
		return f.FeeStructureID
	case "academic_year_id":
		return f.AcademicYearID
	case "term":
		return f.Term
	case "status":
		return f.Status
	}
	return nil
}

type Announcement struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title" validate:"required"`
	Content   string    `json:"content" db:"content" validate:"required"`
	Priority  string    `json:"priority" db:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Audience  []string  `json:"audience" validate:"omitempty,dive,oneof=all student parent staff management"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty" db:"expires_at"`
	IsActive  bool      `json:"is_active" db:"is_active"`
}

func (a Announcement) RecordID() string { return a.ID }

func (a Announcement) Attr(field string) interface{} {
	switch field {
	case "id":
		return a.ID
	case "audience":
		return a.Audience
	case "priority":
		return a.Priority
	case "created_by":
		return a.CreatedBy
	}
	return nil
}
