package school

import "testing"

func TestMatches(t *testing.T) {
	res := Result{
		ID:        "r1",
		StudentID: "s1",
		ClassID:   "c1",
		Term:      "first",
	}
	stf := Staff{
		ID:       "t1",
		ClassIDs: []string{"c1", "c2"},
	}

	tests := []struct {
		name string
		rec  Record
		pred Predicate
		want bool
	}{
		{name: "empty predicate matches everything", rec: res, pred: Predicate{}, want: true},
		{name: "eq match", rec: res, pred: Where("student_id", OpEq, "s1"), want: true},
		{name: "eq mismatch", rec: res, pred: Where("student_id", OpEq, "s2"), want: false},
		{name: "eq on unknown field", rec: res, pred: Where("nope", OpEq, "s1"), want: false},
		{name: "eq with wrong value type", rec: res, pred: Where("student_id", OpEq, 42), want: false},
		{name: "in match", rec: res, pred: Where("class_id", OpIn, []string{"c9", "c1"}), want: true},
		{name: "in mismatch", rec: res, pred: Where("class_id", OpIn, []string{"c9"}), want: false},
		{name: "in with empty set matches nothing", rec: res, pred: Where("class_id", OpIn, []string{}), want: false},
		{name: "anyof match", rec: stf, pred: Where("class_ids", OpAnyOf, []string{"c2", "c3"}), want: true},
		{name: "anyof mismatch", rec: stf, pred: Where("class_ids", OpAnyOf, []string{"c3"}), want: false},
		{name: "anyof on scalar attr", rec: res, pred: Where("class_id", OpAnyOf, []string{"c1"}), want: false},
		{name: "conjunction all match", rec: res, pred: Where("student_id", OpEq, "s1").And(Where("term", OpEq, "first")), want: true},
		{name: "conjunction one mismatch", rec: res, pred: Where("student_id", OpEq, "s1").And(Where("term", OpEq, "second")), want: false},
		{name: "match none", rec: res, pred: MatchNone(), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.rec, tt.pred); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPredicate_And(t *testing.T) {
	p := Where("a", OpEq, "1")

	anded := p.And(Where("b", OpEq, "2"))
	if len(anded.Conds) != 2 {
		t.Errorf("And() conds = %d, want 2", len(anded.Conds))
	}
	// conjunction with the empty predicate keeps the original
	if got := p.And(Predicate{}); len(got.Conds) != 1 {
		t.Errorf("And(empty) conds = %d, want 1", len(got.Conds))
	}
	if !(Predicate{}).IsEmpty() {
		t.Error("zero predicate must be empty")
	}
}
