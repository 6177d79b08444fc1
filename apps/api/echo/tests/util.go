package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/dashboard"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

type httpErr struct {
	Error string `json:"error"`
}

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	ctxBG           = context.Background()
)

// fixture is a fully seeded school behind a running API handler.
type fixture struct {
	app     Server
	store   school.Store
	usrRepo user.Repository
	usrSvc  *user.Service

	adminUsr, mgmtUsr, staffAUsr, staffBUsr, s1Usr, s2Usr, parentUsr user.User

	classA, classB school.Class
	subject        school.Subject
	year           school.AcademicYear
	s1, s2, s3     school.Student
	tA, tB         school.Staff
	par            school.Parent

	s1Results []school.Result
}

const testPassword = "s3cr3t!Pass"

func setup(t *testing.T) *fixture {
	t.Helper()

	db := testutil.PrepareDB(t)
	store := inmemdb.NewStore(db)
	usrRepo := inmemdb.NewUserRepository(db)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	usrSvc := user.NewService(usrRepo, validate)
	resolver := access.NewResolver(store, nil)
	gateway := access.NewGateway(store, resolver, nil)
	dashSvc := dashboard.NewService(gateway, nil)

	f := &fixture{
		app: NewServer(&Options{
			DisableReqLogs: true,
			UserSvc:        usrSvc,
			Gateway:        gateway,
			Dashboard:      dashSvc,
			Logger:         nil,
			Validate:       validate,
			Translator:     translator,
		}),
		store:   store,
		usrRepo: usrRepo,
		usrSvc:  usrSvc,
	}
	f.seed(t)
	return f
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()

	f.adminUsr = testutil.CreateUser(t, f.usrRepo, "Admin", "admin", "admin@test.cd", testPassword, user.RoleAdmin, true)
	f.mgmtUsr = testutil.CreateUser(t, f.usrRepo, "Head", "head", "head@test.cd", testPassword, user.RoleManagement, true)
	f.staffAUsr = testutil.CreateUser(t, f.usrRepo, "Teacher A", "teacha", "teacha@test.cd", testPassword, user.RoleStaff, true)
	f.staffBUsr = testutil.CreateUser(t, f.usrRepo, "Teacher B", "teachb", "teachb@test.cd", testPassword, user.RoleStaff, true)
	f.s1Usr = testutil.CreateUser(t, f.usrRepo, "Student One", "stdone", "stdone@test.cd", testPassword, user.RoleStudent, true)
	f.s2Usr = testutil.CreateUser(t, f.usrRepo, "Student Two", "stdtwo", "stdtwo@test.cd", testPassword, user.RoleStudent, true)
	f.parentUsr = testutil.CreateUser(t, f.usrRepo, "Parent", "parent", "parent@test.cd", testPassword, user.RoleParent, true)

	f.year = testutil.CreateYear(t, f.store, "2025-2026", true)
	f.classA = testutil.CreateClass(t, f.store, "5A", 5, f.year.ID)
	f.classB = testutil.CreateClass(t, f.store, "5B", 5, f.year.ID)
	f.subject = testutil.CreateSubject(t, f.store, "Mathematics", "MATH5")

	f.s1 = testutil.CreateStudent(t, f.store, f.s1Usr.ID, "S001", f.classA.ID)
	f.s2 = testutil.CreateStudent(t, f.store, f.s2Usr.ID, "S002", f.classA.ID)
	s3Usr := testutil.CreateUser(t, f.usrRepo, "Student Three", "stdthree", "stdthree@test.cd", testPassword, user.RoleStudent, true)
	f.s3 = testutil.CreateStudent(t, f.store, s3Usr.ID, "S003", f.classB.ID)
	f.tA = testutil.CreateStaff(t, f.store, f.staffAUsr.ID, "T001", []string{f.classA.ID}, []string{f.subject.ID})
	f.tB = testutil.CreateStaff(t, f.store, f.staffBUsr.ID, "T002", []string{f.classB.ID}, []string{f.subject.ID})
	f.par = testutil.CreateParent(t, f.store, f.parentUsr.ID, "P001", []string{f.s1.ID, f.s3.ID})

	for _, term := range []string{"first", "second", "third"} {
		f.s1Results = append(f.s1Results,
			testutil.CreateResult(t, f.store, f.s1.ID, f.subject.ID, f.classA.ID, f.year.ID, term, f.tA.ID, 40))
	}
	testutil.CreateResult(t, f.store, f.s2.ID, f.subject.ID, f.classA.ID, f.year.ID, "first", f.tA.ID, 35)
	testutil.CreateResult(t, f.store, f.s3.ID, f.subject.ID, f.classB.ID, f.year.ID, "first", f.tB.ID, 50)
	testutil.CreateResult(t, f.store, f.s3.ID, f.subject.ID, f.classB.ID, f.year.ID, "second", f.tB.ID, 52)

	testutil.CreateAnnouncement(t, f.store, "Exams start Monday", f.adminUsr.ID, []string{school.AudienceAll})
	testutil.CreateAnnouncement(t, f.store, "Staff meeting", f.adminUsr.ID, []string{school.AudienceStaff})
}

func (f *fixture) token(t *testing.T, usr user.User) string {
	t.Helper()
	pair, err := user.IssueTokens(usr)
	if err != nil {
		t.Fatalf("token(): %v", err)
	}
	return pair.Access
}

func (f *fixture) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, req)
	return rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func wantCode(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("code = %d, want %d; body: %s", rec.Code, code, rec.Body.String())
	}
}
