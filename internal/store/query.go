package store

import (
	"fmt"
	"sort"
	"strings"

	"agencyboard/internal/pipeline"
)

// Query selects records of one board. Equal filters and OrderBy only accept
// the columns listed in filterColumns and orderColumns.
type Query struct {
	Board      pipeline.Board
	Equal      map[string]string
	OrderBy    string
	Descending bool
	Limit      int
}

var filterColumns = map[string]struct{}{
	"status":         {},
	"client_name":    {},
	"payment_method": {},
	"handler":        {},
}

var orderColumns = map[string]struct{}{
	"created_at":   {},
	"updated_at":   {},
	"title":        {},
	"client_name":  {},
	"amount_cents": {},
}

// BoardQuery is the default fetch for a board: newest first.
func BoardQuery(board pipeline.Board, limit int) Query {
	return Query{Board: board, OrderBy: "created_at", Descending: true, Limit: limit}
}

func (q Query) build() (string, []any, error) {
	if strings.TrimSpace(string(q.Board)) == "" {
		return "", nil, fmt.Errorf("query: board is required")
	}
	var (
		clauses = []string{"board = ?"}
		args    = []any{string(q.Board)}
	)

	keys := make([]string, 0, len(q.Equal))
	for key := range q.Equal {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, ok := filterColumns[key]; !ok {
			return "", nil, fmt.Errorf("query: cannot filter on %q", key)
		}
		clauses = append(clauses, key+" = ?")
		args = append(args, q.Equal[key])
	}

	order := q.OrderBy
	if order == "" {
		order = "created_at"
	}
	if _, ok := orderColumns[order]; !ok {
		return "", nil, fmt.Errorf("query: cannot order by %q", order)
	}
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(recordColumns)
	b.WriteString(" FROM records WHERE ")
	b.WriteString(strings.Join(clauses, " AND "))
	fmt.Fprintf(&b, " ORDER BY %s %s, id %s", order, direction, direction)
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return b.String(), args, nil
}
