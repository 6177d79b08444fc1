package sqlxrepos

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/trezcool/shule/core/school"
)

var identRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// BuildWhere compiles a predicate into a SQL conjunction and its bind args.
// Returns "TRUE" for an empty predicate and "FALSE" for conditions no row can
// satisfy (an empty `in` set, or an unknown field/operator; filters fail
// closed, never open).
func BuildWhere(pred school.Predicate, startArg int) (string, []interface{}) {
	if pred.IsEmpty() {
		return "TRUE", nil
	}

	clauses := make([]string, 0, len(pred.Conds))
	args := make([]interface{}, 0, len(pred.Conds))
	n := startArg
	for _, c := range pred.Conds {
		if !identRegex.MatchString(c.Field) {
			clauses = append(clauses, "FALSE")
			continue
		}
		switch c.Op {
		case school.OpEq:
			val, ok := c.Value.(string)
			if !ok {
				clauses = append(clauses, "FALSE")
				continue
			}
			clauses = append(clauses, fmt.Sprintf("%s = $%d", c.Field, n))
			args = append(args, val)
			n++
		case school.OpIn:
			vals, ok := c.Value.([]string)
			if !ok || len(vals) == 0 {
				clauses = append(clauses, "FALSE")
				continue
			}
			clauses = append(clauses, fmt.Sprintf("%s = ANY($%d)", c.Field, n))
			args = append(args, pq.Array(vals))
			n++
		case school.OpAnyOf:
			vals, ok := c.Value.([]string)
			if !ok || len(vals) == 0 {
				clauses = append(clauses, "FALSE")
				continue
			}
			clauses = append(clauses, fmt.Sprintf("%s && $%d", c.Field, n))
			args = append(args, pq.Array(vals))
			n++
		default:
			clauses = append(clauses, "FALSE")
		}
	}
	return strings.Join(clauses, " AND "), args
}
