package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
)

// Store implements school.Store on Postgres via sqlx.
type Store struct {
	db *sqlx.DB
}

var _ school.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "postgres")}
}

var tables = map[school.Resource]string{
	school.ResourceStudent:      "student",
	school.ResourceStaff:        "staff",
	school.ResourceParent:       "parent",
	school.ResourceClass:        "class",
	school.ResourceSubject:      "subject",
	school.ResourceAcademicYear: "academic_year",
	school.ResourceResult:       "result",
	school.ResourceAttendance:   "attendance",
	school.ResourceFeeStructure: "fee_structure",
	school.ResourceFeePayment:   "fee_payment",
	school.ResourceAnnouncement: "announcement",
}

func (s *Store) Query(ctx context.Context, res school.Resource, pred school.Predicate) ([]school.Record, error) {
	table, ok := tables[res]
	if !ok {
		return nil, errors.Errorf("unknown resource %q", res)
	}
	where, args := BuildWhere(pred, 1)
	if res.Retained() {
		where += " AND NOT archived"
	}
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY id", table, where)
	return s.selectRecords(ctx, res, q, args...)
}

func (s *Store) Get(ctx context.Context, res school.Resource, id string) (school.Record, error) {
	table, ok := tables[res]
	if !ok {
		return nil, errors.Errorf("unknown resource %q", res)
	}
	where := "id = $1"
	if res.Retained() {
		where += " AND NOT archived"
	}
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s", table, where)
	recs, err := s.selectRecords(ctx, res, q, id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, school.ErrNotFound
	}
	return recs[0], nil
}

func (s *Store) Create(ctx context.Context, res school.Resource, rec school.Record) (school.Record, error) {
	q, ok := insertQueries[res]
	if !ok {
		return nil, errors.Errorf("unknown resource %q", res)
	}
	if rec.RecordID() == "" {
		rec = school.WithID(rec, uuid.New().String())
	}
	if _, err := s.db.NamedExecContext(ctx, q, toRow(rec)); err != nil {
		return nil, dbErr(err, "creating record")
	}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, res school.Resource, rec school.Record) (school.Record, error) {
	q, ok := updateQueries[res]
	if !ok {
		return nil, errors.Errorf("unknown resource %q", res)
	}
	result, err := s.db.NamedExecContext(ctx, q, toRow(rec))
	if err != nil {
		return nil, dbErr(err, "updating record")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, school.ErrNotFound
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, res school.Resource, id string) error {
	table, ok := tables[res]
	if !ok {
		return errors.Errorf("unknown resource %q", res)
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE id = $1", table)
	if res.Retained() {
		// academic & financial history is archived, never removed
		q = fmt.Sprintf("UPDATE %s SET archived = TRUE WHERE id = $1 AND NOT archived", table)
	}
	result, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return dbErr(err, "deleting record")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

func (s *Store) selectRecords(ctx context.Context, res school.Resource, q string, args ...interface{}) ([]school.Record, error) {
	var recs []school.Record
	switch res {
	case school.ResourceStudent:
		var rows []school.Student
		if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
			return nil, dbErr(err, "querying students")
		}
		for _, r := range rows {
			recs = append(recs, r)
		}
	case school.ResourceStaff:
		var rows []staffRow
		if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
			return nil, dbErr(err, "querying staff")
		}
		for _, r := range rows {
			recs = append(recs, r.record())
		}
	case school.ResourceParent:
		var rows []parentRow
		if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
			return nil, dbErr(err, "querying parents")
		}
		for _, r := range rows {
			recs = append(recs, r.record())
		}
	case school.ResourceClass:
		var rows []school.Class
		if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
			return nil, dbErr(err, "querying classes")
		}
		for _, r := range rows {
			recs = append(recs, r)
		}
	case school.ResourceSubject:
		var rows []school.Subject
		if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
			return nil, dbErr(err, "querying subjects")
		}
		for _, r := range rows {
			recs = append(recs, r)
		}
	case school.ResourceAcademicYear:
		var rows []school.AcademicYear
		if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
			return nil, dbErr(err, "querying academic years")
		}
		for _, r := range rows {
			recs = append(recs, r)
		}
	case school.ResourceResult:
		var rows []school.Result
		if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
			return nil, dbErr(err, "querying results")
		}
		for _, r := range rows {
			recs = append(recs, r)
		}
	case school.ResourceAttendance:
		var rows []school.Attendance
		if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
			return nil, dbErr(err, "querying attendance")
		}
		for _, r := range rows {
			recs = append(recs, r)
		}
	case school.ResourceFeeStructure:
		var rows []school.FeeStructure
		if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
			return nil, dbErr(err, "querying fee structures")
		}
		for _, r := range rows {
			recs = append(recs, r)
		}
	case school.ResourceFeePayment:
		var rows []school.FeePayment
		if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
			return nil, dbErr(err, "querying fee payments")
		}
		for _, r := range rows {
			recs = append(recs, r)
		}
	case school.ResourceAnnouncement:
		var rows []announcementRow
		if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
			return nil, dbErr(err, "querying announcements")
		}
		for _, r := range rows {
			recs = append(recs, r.record())
		}
	default:
		return nil, errors.Errorf("unknown resource %q", res)
	}
	return recs, nil
}

// row adapters for array-valued columns

type staffRow struct {
	school.Staff
	ClassIDs   pq.StringArray `db:"class_ids"`
	SubjectIDs pq.StringArray `db:"subject_ids"`
}

func (r staffRow) record() school.Staff {
	stf := r.Staff
	stf.ClassIDs = []string(r.ClassIDs)
	stf.SubjectIDs = []string(r.SubjectIDs)
	return stf
}

type parentRow struct {
	school.Parent
	StudentIDs pq.StringArray `db:"student_ids"`
}

func (r parentRow) record() school.Parent {
	par := r.Parent
	par.StudentIDs = []string(r.StudentIDs)
	return par
}

type announcementRow struct {
	school.Announcement
	Audience pq.StringArray `db:"audience"`
}

func (r announcementRow) record() school.Announcement {
	ann := r.Announcement
	ann.Audience = []string(r.Audience)
	return ann
}

// toRow wraps records whose array fields need pq adapters for named binding.
func toRow(rec school.Record) interface{} {
	switch r := rec.(type) {
	case school.Staff:
		return staffRow{Staff: r, ClassIDs: pq.StringArray(r.ClassIDs), SubjectIDs: pq.StringArray(r.SubjectIDs)}
	case school.Parent:
		return parentRow{Parent: r, StudentIDs: pq.StringArray(r.StudentIDs)}
	case school.Announcement:
		return announcementRow{Announcement: r, Audience: pq.StringArray(r.Audience)}
	}
	return rec
}

var insertQueries = map[school.Resource]string{
	school.ResourceStudent: `INSERT INTO student (id, user_id, student_no, class_id, admission_date, emergency_contact)
		VALUES (:id, :user_id, :student_no, :class_id, :admission_date, :emergency_contact)`,
	school.ResourceStaff: `INSERT INTO staff (id, user_id, staff_no, designation, class_ids, subject_ids, joined_at)
		VALUES (:id, :user_id, :staff_no, :designation, :class_ids, :subject_ids, :joined_at)`,
	school.ResourceParent: `INSERT INTO parent (id, user_id, parent_no, student_ids)
		VALUES (:id, :user_id, :parent_no, :student_ids)`,
	school.ResourceClass: `INSERT INTO class (id, name, grade, section, academic_year_id)
		VALUES (:id, :name, :grade, :section, :academic_year_id)`,
	school.ResourceSubject: `INSERT INTO subject (id, name, code, description)
		VALUES (:id, :name, :code, :description)`,
	school.ResourceAcademicYear: `INSERT INTO academic_year (id, name, start_date, end_date, is_active)
		VALUES (:id, :name, :start_date, :end_date, :is_active)`,
	school.ResourceResult: `INSERT INTO result (id, student_id, subject_id, class_id, academic_year_id, term,
			ca1_score, ca2_score, ca3_score, ca4_score, exam_score, marks_obtained, total_marks, grade,
			remarks, uploaded_by, uploaded_at, archived)
		VALUES (:id, :student_id, :subject_id, :class_id, :academic_year_id, :term,
			:ca1_score, :ca2_score, :ca3_score, :ca4_score, :exam_score, :marks_obtained, :total_marks, :grade,
			:remarks, :uploaded_by, :uploaded_at, :archived)`,
	school.ResourceAttendance: `INSERT INTO attendance (id, student_id, class_id, date, status, marked_by, remarks, archived)
		VALUES (:id, :student_id, :class_id, :date, :status, :marked_by, :remarks, :archived)`,
	school.ResourceFeeStructure: `INSERT INTO fee_structure (id, academic_year_id, grade, fee_type, amount, description)
		VALUES (:id, :academic_year_id, :grade, :fee_type, :amount, :description)`,
	school.ResourceFeePayment: `INSERT INTO fee_payment (id, student_id, fee_structure_id, academic_year_id, term,
			amount_paid, total_amount, due_date, paid_at, status, method, transaction_id, remarks, archived)
		VALUES (:id, :student_id, :fee_structure_id, :academic_year_id, :term,
			:amount_paid, :total_amount, :due_date, :paid_at, :status, :method, :transaction_id, :remarks, :archived)`,
	school.ResourceAnnouncement: `INSERT INTO announcement (id, title, content, priority, audience, created_by, created_at, expires_at, is_active)
		VALUES (:id, :title, :content, :priority, :audience, :created_by, :created_at, :expires_at, :is_active)`,
}

var updateQueries = map[school.Resource]string{
	school.ResourceStudent: `UPDATE student SET user_id = :user_id, student_no = :student_no, class_id = :class_id,
		admission_date = :admission_date, emergency_contact = :emergency_contact WHERE id = :id`,
	school.ResourceStaff: `UPDATE staff SET user_id = :user_id, staff_no = :staff_no, designation = :designation,
		class_ids = :class_ids, subject_ids = :subject_ids, joined_at = :joined_at WHERE id = :id`,
	school.ResourceParent: `UPDATE parent SET user_id = :user_id, parent_no = :parent_no, student_ids = :student_ids WHERE id = :id`,
	school.ResourceClass: `UPDATE class SET name = :name, grade = :grade, section = :section,
		academic_year_id = :academic_year_id WHERE id = :id`,
	school.ResourceSubject:      `UPDATE subject SET name = :name, code = :code, description = :description WHERE id = :id`,
	school.ResourceAcademicYear: `UPDATE academic_year SET name = :name, start_date = :start_date, end_date = :end_date, is_active = :is_active WHERE id = :id`,
	school.ResourceResult: `UPDATE result SET student_id = :student_id, subject_id = :subject_id, class_id = :class_id,
		academic_year_id = :academic_year_id, term = :term, ca1_score = :ca1_score, ca2_score = :ca2_score,
		ca3_score = :ca3_score, ca4_score = :ca4_score, exam_score = :exam_score, marks_obtained = :marks_obtained,
		total_marks = :total_marks, grade = :grade, remarks = :remarks, uploaded_by = :uploaded_by,
		uploaded_at = :uploaded_at WHERE id = :id AND NOT archived`,
	school.ResourceAttendance: `UPDATE attendance SET student_id = :student_id, class_id = :class_id, date = :date,
		status = :status, marked_by = :marked_by, remarks = :remarks WHERE id = :id AND NOT archived`,
	school.ResourceFeeStructure: `UPDATE fee_structure SET academic_year_id = :academic_year_id, grade = :grade,
		fee_type = :fee_type, amount = :amount, description = :description WHERE id = :id`,
	school.ResourceFeePayment: `UPDATE fee_payment SET student_id = :student_id, fee_structure_id = :fee_structure_id,
		academic_year_id = :academic_year_id, term = :term, amount_paid = :amount_paid, total_amount = :total_amount,
		due_date = :due_date, paid_at = :paid_at, status = :status, method = :method, transaction_id = :transaction_id,
		remarks = :remarks WHERE id = :id AND NOT archived`,
	school.ResourceAnnouncement: `UPDATE announcement SET title = :title, content = :content, priority = :priority,
		audience = :audience, created_by = :created_by, created_at = :created_at, expires_at = :expires_at,
		is_active = :is_active WHERE id = :id`,
}

func dbErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return school.ErrNotFound
	}
	if err == driver.ErrBadConn {
		return school.ErrTransient
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Class() == "23" { // integrity violations
		return school.ErrConflict
	}
	return errors.Wrap(err, msg)
}
