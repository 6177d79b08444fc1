package sqlxrepos

import (
	"testing"

	"github.com/trezcool/shule/core/school"
)

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name     string
		pred     school.Predicate
		want     string
		wantArgs int
	}{
		{
			name: "empty predicate matches everything",
			pred: school.Predicate{},
			want: "TRUE",
		},
		{
			name:     "eq",
			pred:     school.Where("student_id", school.OpEq, "s1"),
			want:     "student_id = $1",
			wantArgs: 1,
		},
		{
			name:     "in",
			pred:     school.Where("class_id", school.OpIn, []string{"c1", "c2"}),
			want:     "class_id = ANY($1)",
			wantArgs: 1,
		},
		{
			name:     "anyof",
			pred:     school.Where("audience", school.OpAnyOf, []string{"student", "all"}),
			want:     "audience && $1",
			wantArgs: 1,
		},
		{
			name: "conjunction numbers args in order",
			pred: school.Where("class_id", school.OpIn, []string{"c1"}).
				And(school.Where("uploaded_by", school.OpEq, "t1")),
			want:     "class_id = ANY($1) AND uploaded_by = $2",
			wantArgs: 2,
		},
		{
			name: "empty in-set fails closed",
			pred: school.Where("id", school.OpIn, []string{}),
			want: "FALSE",
		},
		{
			name: "match none fails closed",
			pred: school.MatchNone(),
			want: "FALSE",
		},
		{
			name: "injection in field name fails closed",
			pred: school.Where("id; DROP TABLE student --", school.OpEq, "x"),
			want: "FALSE",
		},
		{
			name: "wrong value type fails closed",
			pred: school.Where("id", school.OpEq, 42),
			want: "FALSE",
		},
		{
			name: "unknown operator fails closed",
			pred: school.Where("id", school.Op("like"), "x"),
			want: "FALSE",
		},
		{
			name: "one bad condition poisons only itself",
			pred: school.Where("id", school.OpIn, []string{}).
				And(school.Where("term", school.OpEq, "first")),
			want:     "FALSE AND term = $1",
			wantArgs: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args := BuildWhere(tt.pred, 1)
			if got != tt.want {
				t.Errorf("BuildWhere() = %q, want %q", got, tt.want)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("BuildWhere() args = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestBuildWhere_startArg(t *testing.T) {
	got, args := BuildWhere(school.Where("student_id", school.OpEq, "s1"), 3)
	if got != "student_id = $3" {
		t.Errorf("BuildWhere() = %q, want %q", got, "student_id = $3")
	}
	if len(args) != 1 {
		t.Errorf("BuildWhere() args = %d, want 1", len(args))
	}
}
