package comment

import (
	"slices"
	"strings"
)

// Clause is one SQL condition with its bound arguments.
type Clause struct {
	SQL  string
	Args []any
}

// Predicate is a conjunction of clauses. The zero value matches every row.
type Predicate []Clause

// And returns a new predicate with the clause appended. The receiver is
// not modified.
func (p Predicate) And(sql string, args ...any) Predicate {
	out := make(Predicate, len(p), len(p)+1)
	copy(out, p)
	return append(out, Clause{SQL: sql, Args: args})
}

// Contains reports whether an identical clause is already present.
func (p Predicate) Contains(c Clause) bool {
	return slices.ContainsFunc(p, func(have Clause) bool {
		return have.SQL == c.SQL && slices.Equal(have.Args, c.Args)
	})
}

// Where renders the predicate as a WHERE clause, or "" when empty.
func (p Predicate) Where() (string, []any) {
	if len(p) == 0 {
		return "", nil
	}

	parts := make([]string, len(p))
	var args []any
	for i, c := range p {
		parts[i] = "(" + c.SQL + ")"
		args = append(args, c.Args...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

var excludeNotes = Clause{SQL: "comment_type != ?", Args: []any{NoteType}}

// ApplyVisibility is the filter every comment listing goes through.
// Unless requestedType is NoteType, it conjoins a clause excluding
// moderator notes. Applying it more than once has no further effect.
func ApplyVisibility(p Predicate, requestedType string) Predicate {
	if requestedType == NoteType {
		return p
	}
	if p.Contains(excludeNotes) {
		return p
	}
	return p.And(excludeNotes.SQL, excludeNotes.Args...)
}
