package access

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

// world seeds a small school: two classes, one staff member assigned to class
// A, three students (two in A, one in B) and a parent linked to s1 and s3.
type world struct {
	store school.Store
	gw    *Gateway

	admin, mgmt, staffA, staffB, student1, student2, parent Actor

	classA, classB school.Class
	s1, s2, s3     school.Student
	tA, tB         school.Staff
	par            school.Parent

	s1Results []school.Result
	allCount  int
}

func newWorld(t *testing.T) *world {
	t.Helper()
	db := testutil.PrepareDB(t)
	store := inmemdb.NewStore(db)
	resolver := NewResolver(store, nil)

	w := &world{store: store, gw: NewGateway(store, resolver, nil)}

	year := testutil.CreateYear(t, store, "2025-2026", true)
	w.classA = testutil.CreateClass(t, store, "5A", 5, year.ID)
	w.classB = testutil.CreateClass(t, store, "5B", 5, year.ID)
	subj := testutil.CreateSubject(t, store, "Mathematics", "MATH5")

	w.s1 = testutil.CreateStudent(t, store, "u-s1", "S001", w.classA.ID)
	w.s2 = testutil.CreateStudent(t, store, "u-s2", "S002", w.classA.ID)
	w.s3 = testutil.CreateStudent(t, store, "u-s3", "S003", w.classB.ID)
	w.tA = testutil.CreateStaff(t, store, "u-tA", "T001", []string{w.classA.ID}, []string{subj.ID})
	w.tB = testutil.CreateStaff(t, store, "u-tB", "T002", []string{w.classB.ID}, []string{subj.ID})
	w.par = testutil.CreateParent(t, store, "u-par", "P001", []string{w.s1.ID, w.s3.ID})

	// s1: 3 results, s2: 1, s3: 2 (6 total, 4 in class A)
	for _, term := range []string{"first", "second", "third"} {
		w.s1Results = append(w.s1Results,
			testutil.CreateResult(t, store, w.s1.ID, subj.ID, w.classA.ID, year.ID, term, w.tA.ID, 40))
	}
	testutil.CreateResult(t, store, w.s2.ID, subj.ID, w.classA.ID, year.ID, "first", w.tA.ID, 35)
	testutil.CreateResult(t, store, w.s3.ID, subj.ID, w.classB.ID, year.ID, "first", w.tB.ID, 50)
	testutil.CreateResult(t, store, w.s3.ID, subj.ID, w.classB.ID, year.ID, "second", w.tB.ID, 52)
	w.allCount = 6

	w.admin = Actor{User: user.User{ID: "u-adm", Role: user.RoleAdmin}}
	w.mgmt = Actor{User: user.User{ID: "u-mgmt", Role: user.RoleManagement}}
	w.staffA = Actor{User: user.User{ID: "u-tA", Role: user.RoleStaff}, Staff: &w.tA}
	w.staffB = Actor{User: user.User{ID: "u-tB", Role: user.RoleStaff}, Staff: &w.tB}
	w.student1 = Actor{User: user.User{ID: "u-s1", Role: user.RoleStudent}, Student: &w.s1}
	w.student2 = Actor{User: user.User{ID: "u-s2", Role: user.RoleStudent}, Student: &w.s2}
	w.parent = Actor{User: user.User{ID: "u-par", Role: user.RoleParent}, Parent: &w.par}
	return w
}

func listResults(t *testing.T, w *world, actor Actor, filter school.Predicate) []school.Record {
	t.Helper()
	recs, err := w.gw.List(context.Background(), actor, school.ResourceResult, filter)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	return recs
}

func TestGateway_List_scoping(t *testing.T) {
	w := newWorld(t)

	t.Run("admin sees everything", func(t *testing.T) {
		if got := len(listResults(t, w, w.admin, school.Predicate{})); got != w.allCount {
			t.Errorf("admin list = %d results, want %d", got, w.allCount)
		}
	})

	t.Run("management sees everything", func(t *testing.T) {
		if got := len(listResults(t, w, w.mgmt, school.Predicate{})); got != w.allCount {
			t.Errorf("management list = %d results, want %d", got, w.allCount)
		}
	})

	t.Run("student sees only their own", func(t *testing.T) {
		recs := listResults(t, w, w.student1, school.Predicate{})
		if len(recs) != 3 {
			t.Fatalf("student list = %d results, want 3", len(recs))
		}
		for _, rec := range recs {
			if rec.Attr("student_id") != w.s1.ID {
				t.Errorf("student list leaked result of %v", rec.Attr("student_id"))
			}
		}
	})

	t.Run("parent sees the union of their children", func(t *testing.T) {
		recs := listResults(t, w, w.parent, school.Predicate{})
		if len(recs) != 5 {
			t.Fatalf("parent list = %d results, want 5", len(recs))
		}
		for _, rec := range recs {
			sid := rec.Attr("student_id")
			if sid != w.s1.ID && sid != w.s3.ID {
				t.Errorf("parent list leaked result of %v", sid)
			}
		}
	})

	t.Run("staff sees assigned classes only", func(t *testing.T) {
		recs := listResults(t, w, w.staffA, school.Predicate{})
		if len(recs) != 4 {
			t.Fatalf("staff list = %d results, want 4", len(recs))
		}
		for _, rec := range recs {
			if rec.Attr("class_id") != w.classA.ID {
				t.Errorf("staff list leaked result of class %v", rec.Attr("class_id"))
			}
		}
	})

	t.Run("request filters narrow", func(t *testing.T) {
		recs := listResults(t, w, w.staffA, school.Where("student_id", school.OpEq, w.s1.ID))
		if len(recs) != 3 {
			t.Errorf("filtered list = %d results, want 3", len(recs))
		}
	})

	t.Run("request filters cannot widen", func(t *testing.T) {
		// s3 is outside staff A's classes; filtering for it yields nothing
		recs := listResults(t, w, w.staffA, school.Where("student_id", school.OpEq, w.s3.ID))
		if len(recs) != 0 {
			t.Errorf("filtered list = %d results, want 0", len(recs))
		}
		// same for class B directly
		recs = listResults(t, w, w.staffA, school.Where("class_id", school.OpEq, w.classB.ID))
		if len(recs) != 0 {
			t.Errorf("filtered list = %d results, want 0", len(recs))
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := w.gw.List(context.Background(), Actor{}, school.ResourceResult, school.Predicate{})
		if errors.Cause(err) != ErrUnauthenticated {
			t.Errorf("err = %v, want ErrUnauthenticated", err)
		}
	})

	t.Run("denied role", func(t *testing.T) {
		_, err := w.gw.List(context.Background(), w.student1, school.ResourceStaff, school.Predicate{})
		if errors.Cause(err) != ErrForbidden {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})
}

func TestGateway_Read_outOfScopeReadsAsNotFound(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	otherResult := listResults(t, w, w.student2, school.Predicate{})[0]

	t.Run("own record", func(t *testing.T) {
		rec, err := w.gw.Read(ctx, w.student1, school.ResourceResult, w.s1Results[0].ID)
		if err != nil {
			t.Fatalf("Read() failed: %v", err)
		}
		if rec.RecordID() != w.s1Results[0].ID {
			t.Errorf("Read() = %s, want %s", rec.RecordID(), w.s1Results[0].ID)
		}
	})

	t.Run("existing but out of scope", func(t *testing.T) {
		_, err := w.gw.Read(ctx, w.student1, school.ResourceResult, otherResult.RecordID())
		if errors.Cause(err) != ErrNotFound {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("genuinely absent", func(t *testing.T) {
		_, absentErr := w.gw.Read(ctx, w.student1, school.ResourceResult, "no-such-id")
		_, scopeErr := w.gw.Read(ctx, w.student1, school.ResourceResult, otherResult.RecordID())
		if errors.Cause(absentErr) != ErrNotFound {
			t.Fatalf("absent err = %v, want ErrNotFound", absentErr)
		}
		// indistinguishable from the out-of-scope case
		if errors.Cause(absentErr) != errors.Cause(scopeErr) {
			t.Errorf("absent (%v) and out-of-scope (%v) must be the same error", absentErr, scopeErr)
		}
	})
}

func TestGateway_Create(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	inScope := school.Result{
		StudentID:      w.s2.ID,
		SubjectID:      "subj",
		ClassID:        w.classA.ID,
		AcademicYearID: "year",
		Term:           "second",
		UploadedBy:     w.tA.ID,
	}

	t.Run("staff creates within their classes", func(t *testing.T) {
		rec, err := w.gw.Create(ctx, w.staffA, school.ResourceResult, inScope)
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if rec.RecordID() == "" {
			t.Error("Create() did not assign an ID")
		}
	})

	t.Run("staff cannot create outside their classes", func(t *testing.T) {
		outOfScope := inScope
		outOfScope.StudentID = w.s3.ID
		outOfScope.ClassID = w.classB.ID
		_, err := w.gw.Create(ctx, w.staffA, school.ResourceResult, outOfScope)
		if errors.Cause(err) != ErrForbidden {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("a forged class does not widen the scope", func(t *testing.T) {
		// s3 sits in class B; stamping class A on the record must not help
		forged := inScope
		forged.StudentID = w.s3.ID
		forged.ClassID = w.classA.ID
		_, err := w.gw.Create(ctx, w.staffA, school.ResourceResult, forged)
		if errors.Cause(err) != ErrForbidden {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
		if got := len(listResults(t, w, w.admin, school.Where("student_id", school.OpEq, w.s3.ID))); got != 2 {
			t.Errorf("s3 has %d results, want 2 (nothing persisted)", got)
		}
	})

	t.Run("the class comes from the student, not the payload", func(t *testing.T) {
		stamped := inScope
		stamped.Term = "third"
		stamped.ClassID = "" // and any stamp would be overwritten anyway
		rec, err := w.gw.Create(ctx, w.staffA, school.ResourceResult, stamped)
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if res, ok := rec.(school.Result); !ok || res.ClassID != w.classA.ID {
			t.Errorf("created class = %v, want %s", rec.Attr("class_id"), w.classA.ID)
		}
	})

	t.Run("forged attendance is rejected the same way", func(t *testing.T) {
		att := school.Attendance{
			StudentID: w.s3.ID,
			ClassID:   w.classA.ID,
			Status:    school.AttendancePresent,
			Date:      time.Now().UTC(),
			MarkedBy:  w.tA.ID,
		}
		_, err := w.gw.Create(ctx, w.staffA, school.ResourceAttendance, att)
		if errors.Cause(err) != ErrForbidden {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("student cannot create at all", func(t *testing.T) {
		_, err := w.gw.Create(ctx, w.student1, school.ResourceResult, inScope)
		if errors.Cause(err) != ErrForbidden {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})
}

func TestGateway_Update(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	own := w.s1Results[0]

	t.Run("staff updates their own entry", func(t *testing.T) {
		own.Remarks = "moderated"
		rec, err := w.gw.Update(ctx, w.staffA, school.ResourceResult, own)
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if res, ok := rec.(school.Result); !ok || res.Remarks != "moderated" {
			t.Errorf("Update() = %+v, want remarks set", rec)
		}
	})

	t.Run("entry uploaded by another staff member reads as absent", func(t *testing.T) {
		foreign := listResults(t, w, w.staffB, school.Predicate{})[0].(school.Result)
		foreign.Remarks = "tampered"
		_, err := w.gw.Update(ctx, w.staffA, school.ResourceResult, foreign)
		if errors.Cause(err) != ErrNotFound {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("update may not retarget another class's student", func(t *testing.T) {
		// the class stamp stays on A; the switched student decides the scope
		escaped := own
		escaped.StudentID = w.s3.ID
		_, err := w.gw.Update(ctx, w.staffA, school.ResourceResult, escaped)
		if errors.Cause(err) != ErrForbidden {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("a forged class stamp is corrected, not trusted", func(t *testing.T) {
		stamped := own
		stamped.ClassID = w.classB.ID
		rec, err := w.gw.Update(ctx, w.staffA, school.ResourceResult, stamped)
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if res, ok := rec.(school.Result); !ok || res.ClassID != w.classA.ID {
			t.Errorf("updated class = %v, want %s", rec.Attr("class_id"), w.classA.ID)
		}
	})

	t.Run("admin updates anything", func(t *testing.T) {
		own.Remarks = "admin override"
		if _, err := w.gw.Update(ctx, w.admin, school.ResourceResult, own); err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
	})
}

func TestGateway_Delete_archivesRetained(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	target := w.s1Results[0]

	t.Run("management may not delete results", func(t *testing.T) {
		err := w.gw.Delete(ctx, w.mgmt, school.ResourceResult, target.ID)
		if errors.Cause(err) != ErrForbidden {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("admin delete archives", func(t *testing.T) {
		if err := w.gw.Delete(ctx, w.admin, school.ResourceResult, target.ID); err != nil {
			t.Fatalf("Delete() failed: %v", err)
		}
		// gone from reads and lists alike
		if _, err := w.gw.Read(ctx, w.admin, school.ResourceResult, target.ID); errors.Cause(err) != ErrNotFound {
			t.Errorf("Read() after delete err = %v, want ErrNotFound", err)
		}
		if got := len(listResults(t, w, w.admin, school.Predicate{})); got != w.allCount-1 {
			t.Errorf("list after delete = %d results, want %d", got, w.allCount-1)
		}
	})
}

// flakyStore fails each operation once with a transient error before
// delegating.
type flakyStore struct {
	school.Store
	failures int
}

func (s *flakyStore) Query(ctx context.Context, res school.Resource, pred school.Predicate) ([]school.Record, error) {
	if s.failures > 0 {
		s.failures--
		return nil, school.ErrTransient
	}
	return s.Store.Query(ctx, res, pred)
}

func (s *flakyStore) Get(ctx context.Context, res school.Resource, id string) (school.Record, error) {
	if s.failures > 0 {
		s.failures--
		return nil, school.ErrTransient
	}
	return s.Store.Get(ctx, res, id)
}

func TestGateway_retriesTransientOnce(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	flaky := &flakyStore{Store: w.store, failures: 1}
	gw := NewGateway(flaky, NewResolver(w.store, nil), nil)

	recs, err := gw.List(ctx, w.student1, school.ResourceResult, school.Predicate{})
	if err != nil {
		t.Fatalf("List() with one transient failure must succeed, got %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("List() = %d results, want 3", len(recs))
	}

	// two consecutive failures exhaust the single retry
	flaky.failures = 2
	if _, err := gw.List(ctx, w.student1, school.ResourceResult, school.Predicate{}); !school.IsTransient(err) {
		t.Errorf("err = %v, want transient", err)
	}
}
