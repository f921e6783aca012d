package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// Cond is a predicate ANDed onto a conditional update. Conditional updates are
// a single UPDATE ... WHERE statement; the caller learns whether the
// precondition held from the affected row count.
type Cond struct {
	query string
	args  []any
}

func Where(query string, args ...any) Cond {
	return Cond{query: query, args: args}
}

// And combines two predicates.
func (c Cond) And(o Cond) Cond {
	if c.query == "" {
		return o
	}
	if o.query == "" {
		return c
	}
	return Cond{
		query: "(" + c.query + ") AND (" + o.query + ")",
		args:  append(append([]any{}, c.args...), o.args...),
	}
}

func (c Cond) apply(db *gorm.DB) *gorm.DB {
	if strings.TrimSpace(c.query) == "" {
		return db
	}
	return db.Where(c.query, c.args...)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
