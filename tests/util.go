package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

// PrepareDB opens a fresh in-memory database for a test.
func PrepareDB(t *testing.T) *inmemdb.DB {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(db.Reset)
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role string,
	isActive bool,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func createRecord(t *testing.T, store school.Store, res school.Resource, rec school.Record) school.Record {
	t.Helper()
	rec, err := store.Create(context.Background(), res, rec)
	if err != nil {
		t.Fatalf("creating %s failed: %v", res, err)
	}
	return rec
}

func CreateYear(t *testing.T, store school.Store, name string, active bool) school.AcademicYear {
	rec := createRecord(t, store, school.ResourceAcademicYear, school.AcademicYear{
		Name:      name,
		StartDate: time.Now().UTC().AddDate(0, -3, 0),
		EndDate:   time.Now().UTC().AddDate(0, 9, 0),
		IsActive:  active,
	})
	return rec.(school.AcademicYear)
}

func CreateClass(t *testing.T, store school.Store, name string, grade int, yearID string) school.Class {
	rec := createRecord(t, store, school.ResourceClass, school.Class{
		Name:           name,
		Grade:          grade,
		AcademicYearID: yearID,
	})
	return rec.(school.Class)
}

func CreateSubject(t *testing.T, store school.Store, name, code string) school.Subject {
	rec := createRecord(t, store, school.ResourceSubject, school.Subject{
		Name: name,
		Code: code,
	})
	return rec.(school.Subject)
}

func CreateStudent(t *testing.T, store school.Store, userID, studentNo, classID string) school.Student {
	rec := createRecord(t, store, school.ResourceStudent, school.Student{
		UserID:        userID,
		StudentNo:     studentNo,
		ClassID:       classID,
		AdmissionDate: time.Now().UTC(),
	})
	return rec.(school.Student)
}

func CreateStaff(t *testing.T, store school.Store, userID, staffNo string, classIDs, subjectIDs []string) school.Staff {
	rec := createRecord(t, store, school.ResourceStaff, school.Staff{
		UserID:     userID,
		StaffNo:    staffNo,
		ClassIDs:   classIDs,
		SubjectIDs: subjectIDs,
		JoinedAt:   time.Now().UTC(),
	})
	return rec.(school.Staff)
}

func CreateParent(t *testing.T, store school.Store, userID, parentNo string, studentIDs []string) school.Parent {
	rec := createRecord(t, store, school.ResourceParent, school.Parent{
		UserID:     userID,
		ParentNo:   parentNo,
		StudentIDs: studentIDs,
	})
	return rec.(school.Parent)
}

func CreateResult(t *testing.T, store school.Store, studentID, subjectID, classID, yearID, term, staffID string, exam float64) school.Result {
	res := school.Result{
		StudentID:      studentID,
		SubjectID:      subjectID,
		ClassID:        classID,
		AcademicYearID: yearID,
		Term:           term,
		CA1Score:       8,
		CA2Score:       7,
		CA3Score:       9,
		CA4Score:       6,
		ExamScore:      exam,
		UploadedBy:     staffID,
		UploadedAt:     time.Now().UTC(),
	}
	res.Finalize()
	rec := createRecord(t, store, school.ResourceResult, res)
	return rec.(school.Result)
}

func CreateAttendance(t *testing.T, store school.Store, studentID, classID, status, staffID string, date time.Time) school.Attendance {
	rec := createRecord(t, store, school.ResourceAttendance, school.Attendance{
		StudentID: studentID,
		ClassID:   classID,
		Date:      date,
		Status:    status,
		MarkedBy:  staffID,
	})
	return rec.(school.Attendance)
}

func CreateFeeStructure(t *testing.T, store school.Store, yearID string, grade int, feeType string, amount float64) school.FeeStructure {
	rec := createRecord(t, store, school.ResourceFeeStructure, school.FeeStructure{
		AcademicYearID: yearID,
		Grade:          grade,
		FeeType:        feeType,
		Amount:         amount,
	})
	return rec.(school.FeeStructure)
}

func CreateFeePayment(t *testing.T, store school.Store, studentID, structureID, yearID, term, status string, paid, total float64) school.FeePayment {
	rec := createRecord(t, store, school.ResourceFeePayment, school.FeePayment{
		StudentID:      studentID,
		FeeStructureID: structureID,
		AcademicYearID: yearID,
		Term:           term,
		AmountPaid:     paid,
		TotalAmount:    total,
		DueDate:        time.Now().UTC().AddDate(0, 1, 0),
		Status:         status,
	})
	return rec.(school.FeePayment)
}

func CreateAnnouncement(t *testing.T, store school.Store, title, createdBy string, audience []string) school.Announcement {
	rec := createRecord(t, store, school.ResourceAnnouncement, school.Announcement{
		Title:     title,
		Content:   title + " content",
		Priority:  "medium",
		Audience:  audience,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		IsActive:  true,
	})
	return rec.(school.Announcement)
}
