package school

// Op is a predicate condition operator.
type Op string

const (
	// OpEq matches a scalar attribute equal to the condition value (string).
	OpEq Op = "eq"
	// OpIn matches a scalar attribute contained in the condition value ([]string).
	// An empty value set matches nothing.
	OpIn Op = "in"
	// OpAnyOf matches a list attribute sharing at least one element with the
	// condition value ([]string).
	OpAnyOf Op = "anyof"
)

type (
	// Condition is a single declarative relationship constraint on a record
	// attribute. It is not evaluated by the gateway for queries; stores compile
	// it to their own filter form (e.g. a SQL WHERE clause).
	Condition struct {
		Field string
		Op    Op
		Value interface{}
	}

	// Predicate is a conjunction of conditions: a record is in scope iff it
	// satisfies all of them. The zero value matches everything.
	Predicate struct {
		Conds []Condition
	}
)

// Where builds a single-condition predicate.
func Where(field string, op Op, value interface{}) Predicate {
	return Predicate{Conds: []Condition{{Field: field, Op: op, Value: value}}}
}

// And returns the conjunction of both predicates. Composition only ever
// narrows a scope; there is deliberately no union operation.
func (p Predicate) And(other Predicate) Predicate {
	if len(other.Conds) == 0 {
		return p
	}
	conds := make([]Condition, 0, len(p.Conds)+len(other.Conds))
	conds = append(conds, p.Conds...)
	conds = append(conds, other.Conds...)
	return Predicate{Conds: conds}
}

// IsEmpty reports whether the predicate has no conditions (matches everything).
func (p Predicate) IsEmpty() bool {
	return len(p.Conds) == 0
}

// MatchNone returns a predicate that no record satisfies. Used for scoped-empty
// degradation (e.g. an identity without its linked profile).
func MatchNone() Predicate {
	return Where("id", OpIn, []string{})
}

// Matches evaluates the predicate against a record in-process. Stores may use
// it (the in-memory store does); the gateway uses it to re-check single-record
// operations against the resolved scope.
func Matches(r Record, p Predicate) bool {
	for _, c := range p.Conds {
		if !c.matches(r) {
			return false
		}
	}
	return true
}

func (c Condition) matches(r Record) bool {
	attr := r.Attr(c.Field)
	switch c.Op {
	case OpEq:
		val, ok := attr.(string)
		want, wok := c.Value.(string)
		return ok && wok && val == want
	case OpIn:
		val, ok := attr.(string)
		want, wok := c.Value.([]string)
		if !(ok && wok) {
			return false
		}
		for _, w := range want {
			if val == w {
				return true
			}
		}
		return false
	case OpAnyOf:
		val, ok := attr.([]string)
		want, wok := c.Value.([]string)
		if !(ok && wok) {
			return false
		}
		for _, v := range val {
			for _, w := range want {
				if v == w {
					return true
				}
			}
		}
		return false
	}
	return false
}
