package access

import (
	"context"
	"reflect"
	"testing"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

func newTestResolver(t *testing.T) (*Resolver, school.Store) {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	store := inmemdb.NewStore(db)
	return NewResolver(store, nil), store
}

func staffActor(classIDs ...string) Actor {
	return Actor{
		User:  user.User{ID: "u-staff", Role: user.RoleStaff},
		Staff: &school.Staff{ID: "t1", UserID: "u-staff", ClassIDs: classIDs},
	}
}

func studentActor() Actor {
	return Actor{
		User:    user.User{ID: "u-std", Role: user.RoleStudent},
		Student: &school.Student{ID: "s1", UserID: "u-std", ClassID: "c1"},
	}
}

func parentActor(studentIDs ...string) Actor {
	return Actor{
		User:   user.User{ID: "u-par", Role: user.RoleParent},
		Parent: &school.Parent{ID: "p1", UserID: "u-par", StudentIDs: studentIDs},
	}
}

func TestResolver_Scope(t *testing.T) {
	r, _ := newTestResolver(t)

	tests := []struct {
		name  string
		actor Actor
		res   school.Resource
		op    Operation
		want  school.Predicate
	}{
		{
			name:  "staff results by assigned classes",
			actor: staffActor("c1", "c2"),
			res:   school.ResourceResult,
			op:    OpList,
			want:  school.Where("class_id", school.OpIn, []string{"c1", "c2"}),
		},
		{
			name:  "staff result updates only their own entries",
			actor: staffActor("c1", "c2"),
			res:   school.ResourceResult,
			op:    OpUpdate,
			want: school.Where("class_id", school.OpIn, []string{"c1", "c2"}).
				And(school.Where("uploaded_by", school.OpEq, "t1")),
		},
		{
			name:  "staff students by assigned classes",
			actor: staffActor("c1"),
			res:   school.ResourceStudent,
			op:    OpList,
			want:  school.Where("class_id", school.OpIn, []string{"c1"}),
		},
		{
			name:  "staff with no classes sees nothing",
			actor: staffActor(),
			res:   school.ResourceResult,
			op:    OpList,
			want:  school.Where("class_id", school.OpIn, []string{}),
		},
		{
			name:  "staff sees own staff record",
			actor: staffActor("c1"),
			res:   school.ResourceStaff,
			op:    OpRead,
			want:  school.Where("id", school.OpEq, "t1"),
		},
		{
			name:  "student results by own id",
			actor: studentActor(),
			res:   school.ResourceResult,
			op:    OpList,
			want:  school.Where("student_id", school.OpEq, "s1"),
		},
		{
			name:  "student sees own student record",
			actor: studentActor(),
			res:   school.ResourceStudent,
			op:    OpRead,
			want:  school.Where("id", school.OpEq, "s1"),
		},
		{
			name:  "parent results by children",
			actor: parentActor("s1", "s3"),
			res:   school.ResourceResult,
			op:    OpList,
			want:  school.Where("student_id", school.OpIn, []string{"s1", "s3"}),
		},
		{
			name:  "parent with no linked students matches nothing",
			actor: parentActor(),
			res:   school.ResourceResult,
			op:    OpList,
			want:  school.Where("student_id", school.OpIn, []string{}),
		},
		{
			name:  "parent sees own parent record",
			actor: parentActor("s1"),
			res:   school.ResourceParent,
			op:    OpRead,
			want:  school.Where("id", school.OpEq, "p1"),
		},
		{
			name:  "announcements targeted by audience",
			actor: studentActor(),
			res:   school.ResourceAnnouncement,
			op:    OpList,
			want:  school.Where("audience", school.OpAnyOf, []string{user.RoleStudent, school.AudienceAll}),
		},
		{
			name:  "unlinked staff profile scopes to nothing",
			actor: Actor{User: user.User{ID: "u-x", Role: user.RoleStaff}},
			res:   school.ResourceResult,
			op:    OpList,
			want:  school.MatchNone(),
		},
		{
			name:  "unlinked student profile scopes to nothing",
			actor: Actor{User: user.User{ID: "u-x", Role: user.RoleStudent}},
			res:   school.ResourceResult,
			op:    OpList,
			want:  school.MatchNone(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Scope(tt.actor, tt.res, tt.op)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Scope() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolver_LoadActor(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	std, err := store.Create(ctx, school.ResourceStudent, school.Student{UserID: "u-std", StudentNo: "S001", ClassID: "c1"})
	if err != nil {
		t.Fatalf("seeding student: %v", err)
	}

	t.Run("linked student", func(t *testing.T) {
		actor, err := r.LoadActor(ctx, user.User{ID: "u-std", Role: user.RoleStudent})
		if err != nil {
			t.Fatalf("LoadActor() failed: %v", err)
		}
		if actor.Student == nil || actor.Student.ID != std.RecordID() {
			t.Errorf("actor.Student = %+v, want id %s", actor.Student, std.RecordID())
		}
	})

	t.Run("missing profile is tolerated", func(t *testing.T) {
		actor, err := r.LoadActor(ctx, user.User{ID: "u-ghost", Role: user.RoleParent})
		if err != nil {
			t.Fatalf("LoadActor() failed: %v", err)
		}
		if actor.Parent != nil {
			t.Errorf("actor.Parent = %+v, want nil", actor.Parent)
		}
	})

	t.Run("admin needs no profile", func(t *testing.T) {
		actor, err := r.LoadActor(ctx, user.User{ID: "u-adm", Role: user.RoleAdmin})
		if err != nil {
			t.Fatalf("LoadActor() failed: %v", err)
		}
		if actor.Student != nil || actor.Staff != nil || actor.Parent != nil {
			t.Error("admin actor must carry no profile")
		}
	})
}
