package collection

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
)

// reserved query parameters; every other parameter is an equality filter.
var reserved = map[string]bool{ //nolint:gochecknoglobals
	"q": true, "page": true, "size": true, "sortKey": true, "sortDir": true, "filters": true, "id": true,
}

// listQuery is a parsed listing request.
type listQuery struct {
	search  string
	page    int
	size    int
	sortKey string
	sortDir entity.SortDir
	equal   map[string]string
	filters entity.Filters
}

func parseListQuery(params map[string]string) (listQuery, error) {
	q := listQuery{
		search:  params["q"],
		page:    1,
		sortKey: params["sortKey"],
		sortDir: entity.SortAsc,
		equal:   map[string]string{},
	}

	if params["sortDir"] == string(entity.SortDesc) {
		q.sortDir = entity.SortDesc
	}

	if v := params["page"]; v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return q, errors.Wrap(err, "invalid page")
		}

		q.page = max(p, 1)
	}

	if v := params["size"]; v != "" {
		s, err := strconv.Atoi(v)
		if err != nil {
			return q, errors.Wrap(err, "invalid size")
		}

		q.size = max(s, 0)
	}

	if v := params["filters"]; v != "" {
		if err := json.Unmarshal([]byte(v), &q.filters); err != nil {
			return q, errors.Wrap(err, "invalid filters")
		}
	}

	for k, v := range params {
		if !reserved[k] {
			q.equal[k] = v
		}
	}

	return q, nil
}

// apply runs search, filters and sort over rows and returns the requested page with the filtered total.
// A size of 0 returns every row.
func (q listQuery) apply(rows []entity.Row, fields []string) ([]entity.Row, int) {
	rows = entity.Search(rows, q.search, fields)

	if len(q.equal) > 0 {
		out := make([]entity.Row, 0, len(rows))

		for _, r := range rows {
			if q.matchesEqual(r) {
				out = append(out, r)
			}
		}

		rows = out
	}

	rows = entity.ApplyFilters(rows, q.filters)

	if q.sortKey != "" {
		rows = entity.SortRows(rows, q.sortKey, q.sortDir)
	}

	total := len(rows)
	if q.size == 0 {
		return rows, total
	}

	return entity.Paginate(rows, q.page, q.size), total
}

// matchesEqual compares the string forms, since query parameters carry no type.
func (q listQuery) matchesEqual(r entity.Row) bool {
	for k, v := range q.equal {
		if entity.ToString(r[k]) != v {
			return false
		}
	}

	return true
}
