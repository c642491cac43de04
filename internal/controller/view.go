package controller

import (
	"slices"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
)

// View is a consistent snapshot of the controller state with the derived paging values.
type View struct {
	Entity      string
	Mode        Mode
	Loading     bool
	Error       string
	Items       []entity.Row
	Fields      []string
	Cols        []string
	SearchInput string
	Search      string
	Page        int
	PageSize    int
	Total       int
	TotalPages  int
	CurPage     int
	StartIndex  int
	SortKey     string
	SortDir     entity.SortDir
	PageItems   []entity.Row
	Schema      entity.Schema
	Table       entity.TableConfig
	Filters     entity.Filters
}

// Snapshot returns the current state. In remote mode PageItems are the items of the requested page as
// returned by the backend; in local mode they are sliced from the filtered and sorted items.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	totalPages := entity.TotalPages(c.r.total, c.q.pageSize)
	curPage := min(c.q.page, totalPages)
	fields := slices.Clone(c.r.fields)

	v := View{
		Entity:      c.q.entity,
		Mode:        c.q.mode,
		Loading:     c.r.loading,
		Error:       c.r.err,
		Items:       slices.Clone(c.r.items),
		Fields:      fields,
		Cols:        entity.Columns(fields, c.opts.PreferredColumns, c.opts.MaxColumns),
		SearchInput: c.q.searchInput,
		Search:      c.q.search,
		Page:        c.q.page,
		PageSize:    c.q.pageSize,
		Total:       c.r.total,
		TotalPages:  totalPages,
		CurPage:     curPage,
		StartIndex:  (curPage - 1) * c.q.pageSize,
		SortKey:     c.q.sortKey,
		SortDir:     c.q.sortDir,
		Schema:      slices.Clone(c.r.schema),
		Table:       c.r.table,
		Filters:     c.q.filters.Clone(),
	}

	if c.q.mode == ModeRemote {
		v.PageItems = v.Items
	} else {
		v.PageItems = entity.Paginate(v.Items, curPage, c.q.pageSize)
	}

	return v
}

// IsSortedAsc reports whether the snapshot is sorted ascending by key.
func (v View) IsSortedAsc(key string) bool {
	return v.SortKey == key && v.SortDir == entity.SortAsc
}

// IsSortedDesc reports whether the snapshot is sorted descending by key.
func (v View) IsSortedDesc(key string) bool {
	return v.SortKey == key && v.SortDir == entity.SortDesc
}
