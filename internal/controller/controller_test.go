package controller

import (
	"context"
	"encoding/base64"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/api"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/upload"
)

type call struct {
	entity  string
	op      api.Operation
	payload any
}

// fakeBackend is an in-memory api.Client. get answers with rows unless getFn is set.
type fakeBackend struct {
	mu         sync.Mutex
	calls      []call
	rows       []any
	options    any
	optionsErr error
	getFn      func(entityName string, payload any) (any, error)
	export     any
}

func (f *fakeBackend) Fetch(_ context.Context, entityName string, op api.Operation, payload any) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{entity: entityName, op: op, payload: payload})
	getFn := f.getFn
	f.mu.Unlock()

	switch op {
	case api.OpOptions:
		if f.optionsErr != nil {
			return nil, f.optionsErr
		}

		return f.options, nil
	case api.OpGet:
		if getFn != nil {
			return getFn(entityName, payload)
		}

		return f.rows, nil
	case api.OpGetOne:
		return map[string]any{"id": payload, "name": "one"}, nil
	case api.OpPost, api.OpUpdate:
		return payload, nil
	case api.OpDelete:
		return true, nil
	case api.OpExport:
		return f.export, nil
	}

	return nil, api.ErrUnknownOperation
}

func (f *fakeBackend) callsFor(op api.Operation) []call {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []call

	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}

	return out
}

func people() []any {
	return []any{
		map[string]any{"id": 1.0, "name": "Bob", "age": 30.0},
		map[string]any{"id": 2.0, "name": "Amy", "age": 25.0},
	}
}

func newLocal(t *testing.T, backend *fakeBackend, opts Options) *Controller {
	t.Helper()

	opts.Mode = ModeLocal
	c := New("user", backend, opts)
	t.Cleanup(c.Close)

	require.NoError(t, c.Start(context.Background()))

	return c
}

func names(rows []entity.Row) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r["name"])
	}

	return out
}

func TestLocalPipeline(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		apply    func(c *Controller)
		expected []any
	}{
		{
			name:     "sort by age ascending",
			apply:    func(c *Controller) { c.SetSortKey(ctx, "age") },
			expected: []any{"Amy", "Bob"},
		},
		{
			name: "sort by age descending",
			apply: func(c *Controller) {
				c.ToggleSort(ctx, "age")
				c.ToggleSort(ctx, "age")
			},
			expected: []any{"Bob", "Amy"},
		},
		{
			name: "operator filter",
			apply: func(c *Controller) {
				c.SetFilters(ctx, entity.Filters{"age": map[string]any{"op": "gte", "value": 28.0}})
			},
			expected: []any{"Bob"},
		},
		{
			name:     "search over known fields",
			apply:    func(c *Controller) { c.SetSearch(ctx, " am ") },
			expected: []any{"Amy"},
		},
		{
			name:     "search input without local delay",
			apply:    func(c *Controller) { c.SetSearchInput(ctx, "bo") },
			expected: []any{"Bob"},
		},
		{
			name: "search then filter excludes everything",
			apply: func(c *Controller) {
				c.SetSearch(ctx, "am")
				c.UpdateFilters(ctx, entity.Filters{"age": entity.Condition{Op: entity.OpGt, Value: 28.0}})
			},
			expected: []any{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{rows: people(), options: map[string]any{"schema": []any{"id", "name", "age"}}}
			c := newLocal(t, backend, Options{})

			tc.apply(c)

			v := c.Snapshot()
			assert.Empty(t, v.Error)
			assert.False(t, v.Loading)
			assert.Equal(t, tc.expected, names(v.Items))
			assert.Equal(t, len(tc.expected), v.Total)
		})
	}
}

func TestStartFetchesOptionsBeforeFirstLoad(t *testing.T) {
	testCases := []struct {
		name       string
		backend    *fakeBackend
		wantFields []string
	}{
		{
			name:       "options available",
			backend:    &fakeBackend{rows: people(), options: map[string]any{"schema": []any{"name", "id"}}},
			wantFields: []string{"name", "id"},
		},
		{
			name:       "options failing do not block the load",
			backend:    &fakeBackend{rows: people(), optionsErr: errors.New("no options")},
			wantFields: []string{"age", "id", "name"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newLocal(t, tc.backend, Options{})

			require.Len(t, tc.backend.calls, 2)
			assert.Equal(t, api.OpOptions, tc.backend.calls[0].op)
			assert.Equal(t, api.OpGet, tc.backend.calls[1].op)

			v := c.Snapshot()
			assert.Empty(t, v.Error)
			assert.Equal(t, 2, v.Total)
			assert.Equal(t, tc.wantFields, v.Fields)
		})
	}
}

func TestLocalLoadIsIdempotent(t *testing.T) {
	backend := &fakeBackend{rows: people()}
	c := newLocal(t, backend, Options{})
	c.SetSortKey(context.Background(), "name")

	first := c.Snapshot()
	require.NoError(t, c.Refresh(context.Background()))
	second := c.Snapshot()

	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, []string{"age", "id", "name"}, second.Fields, "fields come from the first row without options")
}

func TestLocalPagination(t *testing.T) {
	rows := make([]any, 0, 21)
	for i := range 21 {
		rows = append(rows, map[string]any{"id": float64(i + 1)})
	}

	backend := &fakeBackend{rows: rows}
	c := newLocal(t, backend, Options{PageSize: 10})

	c.SetPage(context.Background(), 3)

	v := c.Snapshot()
	assert.Equal(t, 21, v.Total)
	assert.Equal(t, 3, v.TotalPages)
	assert.Equal(t, 3, v.CurPage)
	assert.Equal(t, 20, v.StartIndex)
	require.Len(t, v.PageItems, 1)
	assert.Equal(t, 21.0, v.PageItems[0]["id"])
	assert.Len(t, v.Items, 21)

	c.SetPage(context.Background(), 9)
	v = c.Snapshot()
	assert.Equal(t, 9, v.Page)
	assert.Equal(t, 3, v.CurPage, "current page is clamped to the last page")
}

func TestRemoteClampsCurrentPage(t *testing.T) {
	backend := &fakeBackend{getFn: func(string, any) (any, error) {
		return map[string]any{"items": []any{map[string]any{"id": 9.0}}, "total": 1.0}, nil
	}}

	c := New("user", backend, Options{Mode: ModeRemote, PageSize: 10})
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	c.SetPage(context.Background(), 2)

	v := c.Snapshot()
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, 1, v.TotalPages)
	assert.Equal(t, 1, v.CurPage)
	assert.Len(t, v.PageItems, 1)

	gets := backend.callsFor(api.OpGet)
	require.Len(t, gets, 2)
	assert.Equal(t, 2, gets[1].payload.(api.Query)["page"])
	assert.Equal(t, 10, gets[1].payload.(api.Query)["size"])
}

func TestRemoteRequest(t *testing.T) {
	backend := &fakeBackend{
		optionsErr: errors.New("no options"),
		getFn: func(string, any) (any, error) {
			return map[string]any{"id": 5.0, "name": "Amy"}, nil
		},
	}

	c := New("user", backend, Options{
		Mode:    ModeRemote,
		ID:      5,
		Filters: entity.Filters{"status": "active", "age": entity.Condition{Op: entity.OpGte, Value: 18.0}, "skip": ""},
	})
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	c.SetSortKey(context.Background(), "name")

	v := c.Snapshot()
	assert.Empty(t, v.Error, "options failure does not set the controller error")
	assert.Empty(t, v.Schema)
	assert.Equal(t, []string{"id", "name"}, v.Fields)
	assert.Equal(t, 1, v.Total)

	gets := backend.callsFor(api.OpGet)
	require.NotEmpty(t, gets)

	last := gets[len(gets)-1]
	assert.Equal(t, "user/5", last.entity)
	assert.Equal(t, api.Query{
		"page": 1, "size": DefaultPageSize, "q": "", "sortKey": "name", "sortDir": "asc",
		"id": 5, "status": "active", "age": 18.0,
	}, last.payload)
}

func TestLoadError(t *testing.T) {
	fail := false
	backend := &fakeBackend{}
	backend.getFn = func(string, any) (any, error) {
		if fail {
			return nil, &api.StatusError{StatusCode: 500, Body: "backend down"}
		}

		return people(), nil
	}

	c := newLocal(t, backend, Options{})
	require.Equal(t, 2, c.Snapshot().Total)

	fail = true
	err := c.Refresh(context.Background())
	require.Error(t, err)

	v := c.Snapshot()
	assert.Equal(t, "backend down", v.Error)
	assert.Empty(t, v.Items)
	assert.Zero(t, v.Total)
	assert.Equal(t, 1, v.TotalPages)
	assert.False(t, v.Loading)
}

func TestQueryChangesResetPage(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name   string
		change func(c *Controller)
	}{
		{name: "search", change: func(c *Controller) { c.SetSearch(ctx, "x") }},
		{name: "entity", change: func(c *Controller) { c.SetEntity(ctx, "order") }},
		{name: "mode", change: func(c *Controller) { c.SetMode(ctx, ModeRemote) }},
		{name: "page size", change: func(c *Controller) { c.SetPageSize(ctx, 5) }},
		{name: "sort key", change: func(c *Controller) { c.SetSortKey(ctx, "id") }},
		{name: "sort direction", change: func(c *Controller) { c.SetSortDir(ctx, entity.SortDesc) }},
		{name: "filters", change: func(c *Controller) { c.UpdateFilters(ctx, entity.Filters{"id": 1.0}) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newLocal(t, &fakeBackend{rows: people()}, Options{PageSize: 1})

			c.SetPage(ctx, 2)
			require.Equal(t, 2, c.Snapshot().Page)

			tc.change(c)
			assert.Equal(t, 1, c.Snapshot().Page)
		})
	}
}

func TestUnchangedQueryDoesNotReload(t *testing.T) {
	backend := &fakeBackend{rows: people()}
	c := newLocal(t, backend, Options{Filters: entity.Filters{"id": 1.0}})
	ctx := context.Background()

	c.SetSortKey(ctx, "")
	c.SetPage(ctx, 1)
	c.UpdateFilters(ctx, entity.Filters{"id": 1.0})
	c.SetEntity(ctx, "user")

	assert.Len(t, backend.callsFor(api.OpGet), 1)
}

func TestUpdateFilters(t *testing.T) {
	c := newLocal(t, &fakeBackend{rows: people()}, Options{})
	ctx := context.Background()

	c.UpdateFilters(ctx, entity.Filters{"status": "active"})
	c.UpdateFilters(ctx, entity.Filters{"region": "west"})
	assert.Equal(t, entity.Filters{"status": "active", "region": "west"}, c.Snapshot().Filters)

	c.UpdateFilters(ctx, entity.Filters{"status": "closed"})
	assert.Equal(t, entity.Filters{"status": "closed", "region": "west"}, c.Snapshot().Filters)

	c.ClearFilters(ctx)
	assert.Empty(t, c.Snapshot().Filters)
}

func TestToggleSort(t *testing.T) {
	c := newLocal(t, &fakeBackend{rows: people()}, Options{})
	ctx := context.Background()

	c.ToggleSort(ctx, "name")
	assert.True(t, c.IsSortedAsc("name"))

	c.ToggleSort(ctx, "name")
	assert.True(t, c.IsSortedDesc("name"))
	assert.True(t, c.Snapshot().IsSortedDesc("name"))

	c.ToggleSort(ctx, "age")
	assert.True(t, c.IsSortedAsc("age"))
	assert.False(t, c.IsSortedDesc("name"))
}

func TestRemoteSearchDebounce(t *testing.T) {
	backend := &fakeBackend{getFn: func(string, any) (any, error) { return []any{}, nil }}

	c := New("user", backend, Options{Mode: ModeRemote, RemoteDebounce: 30 * time.Millisecond})
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	c.SetSearchInput(ctx, "a")
	c.SetSearchInput(ctx, "ab")
	c.SetSearchInput(ctx, "  abc ")

	v := c.Snapshot()
	assert.Equal(t, "  abc ", v.SearchInput)
	assert.Empty(t, v.Search, "nothing is committed before the quiet period")

	assert.Eventually(t, func() bool {
		return c.Snapshot().Search == "abc" && !c.Snapshot().Loading
	}, time.Second, 5*time.Millisecond)

	gets := backend.callsFor(api.OpGet)
	require.Len(t, gets, 2, "only the final input is committed")
	assert.Equal(t, "abc", gets[1].payload.(api.Query)["q"])
}

func TestCloseCancelsPendingSearch(t *testing.T) {
	backend := &fakeBackend{getFn: func(string, any) (any, error) { return []any{}, nil }}

	c := New("user", backend, Options{Mode: ModeRemote, RemoteDebounce: 10 * time.Millisecond})
	require.NoError(t, c.Start(context.Background()))

	c.SetSearchInput(context.Background(), "abc")
	c.Close()

	time.Sleep(50 * time.Millisecond)

	assert.Len(t, backend.callsFor(api.OpGet), 1)
	assert.ErrorIs(t, c.Load(context.Background(), nil), ErrClosed)
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	backend := &fakeBackend{}
	backend.getFn = func(_ string, payload any) (any, error) {
		if payload.(api.Query)["q"] == "slow" {
			close(entered)
			<-release

			return []any{map[string]any{"id": 1.0, "name": "stale"}}, nil
		}

		return []any{map[string]any{"id": 2.0, "name": "fresh"}}, nil
	}

	c := New("user", backend, Options{Mode: ModeRemote})
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	done := make(chan struct{})

	go func() {
		defer close(done)
		c.SetSearch(ctx, "slow")
	}()

	<-entered
	c.SetSearch(ctx, "fast")
	close(release)
	<-done

	v := c.Snapshot()
	assert.Equal(t, []any{"fresh"}, names(v.Items))
	assert.Equal(t, "fast", v.Search)
	assert.False(t, v.Loading)
}

func TestCreate(t *testing.T) {
	backend := &fakeBackend{
		rows:    people(),
		options: map[string]any{"schema": []any{"name", map[string]any{"name": "photo", "kind": "image"}}},
	}

	failing := upload.NewMaterializer(failingUploader{})
	c := newLocal(t, backend, Options{Materializer: failing})
	ctx := context.Background()

	data := []byte("png")

	res, err := c.Create(ctx, entity.Row{"name": "Zed", "photo": &upload.File{Name: "z.png", Data: data}})
	require.NoError(t, err)

	posted := res.(entity.Row)
	assert.Equal(t, base64.StdEncoding.EncodeToString(data), posted["photo"])
	assert.Equal(t, "Zed", posted["name"])
	assert.Len(t, backend.callsFor(api.OpGet), 2, "create reloads")

	_, err = c.Create(ctx, entity.Row{"name": "Quiet"}, WithoutReload())
	require.NoError(t, err)
	assert.Len(t, backend.callsFor(api.OpGet), 2)
}

func TestCreateWithTargetEntity(t *testing.T) {
	backend := &fakeBackend{rows: people()}
	backend.options = map[string]any{"schema": []any{map[string]any{"name": "doc", "kind": "file"}}}

	c := newLocal(t, backend, Options{})

	backend.mu.Lock()
	backend.options = map[string]any{"schema": []any{"doc"}}
	backend.mu.Unlock()

	res, err := c.Create(context.Background(), entity.Row{"doc": &upload.File{Data: []byte("x")}},
		WithTargetEntity("note"), WithoutReload())
	require.NoError(t, err)

	posts := backend.callsFor(api.OpPost)
	require.Len(t, posts, 1)
	assert.Equal(t, "note", posts[0].entity)
	assert.IsType(t, &upload.File{}, res.(entity.Row)["doc"], "the target schema has no file field")

	opts := backend.callsFor(api.OpOptions)
	require.Len(t, opts, 2)
	assert.Equal(t, "note", opts[1].entity)
}

func TestUpdate(t *testing.T) {
	backend := &fakeBackend{rows: people()}
	c := newLocal(t, backend, Options{})
	ctx := context.Background()

	res, err := c.Update(ctx, 7, entity.Row{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, 7, res.(entity.Row)["id"])

	res, err = c.Update(ctx, 7, entity.Row{"id": 3.0, "name": "x"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.(entity.Row)["id"], "an id already present is kept")

	assert.Len(t, backend.callsFor(api.OpGet), 3, "update always reloads")
}

func TestDeleteByID(t *testing.T) {
	backend := &fakeBackend{rows: people()}
	c := newLocal(t, backend, Options{})
	ctx := context.Background()

	for _, id := range []any{nil, 0, "", 0.0, false} {
		require.NoError(t, c.DeleteByID(ctx, id))
	}

	assert.Empty(t, backend.callsFor(api.OpDelete))

	require.NoError(t, c.DeleteByID(ctx, 5.0))
	require.NoError(t, c.DeleteByID(ctx, "abc", WithTargetEntity("order"), WithoutReload()))

	deletes := backend.callsFor(api.OpDelete)
	require.Len(t, deletes, 2)
	assert.Equal(t, call{entity: "user", op: api.OpDelete, payload: 5.0}, deletes[0])
	assert.Equal(t, "order", deletes[1].entity)
	assert.Len(t, backend.callsFor(api.OpGet), 2)
}

func TestSetFiltersWithUnencodableValue(t *testing.T) {
	backend := &fakeBackend{rows: []any{
		map[string]any{"id": 1.0, "name": "Bob", "age": 30.0},
		map[string]any{"id": 2.0, "name": "Amy", "age": math.Inf(1)},
	}}
	c := newLocal(t, backend, Options{})
	ctx := context.Background()

	require.Len(t, backend.callsFor(api.OpGet), 1)

	atInf := entity.Filters{"age": entity.Condition{Op: entity.OpGte, Value: math.Inf(1)}}
	c.SetFilters(ctx, atInf)

	v := c.Snapshot()
	assert.Len(t, backend.callsFor(api.OpGet), 2, "a new filter reloads")
	assert.True(t, atInf.Equal(v.Filters))
	assert.Equal(t, []any{"Amy"}, names(v.Items))

	c.SetFilters(ctx, atInf)
	assert.Len(t, backend.callsFor(api.OpGet), 2, "the same filter does not reload")

	_, err := c.ExportBlob(ctx)
	require.Error(t, err)
	assert.Empty(t, backend.callsFor(api.OpExport), "no export with filters that cannot be sent")
}

func TestExportBlob(t *testing.T) {
	backend := &fakeBackend{rows: people(), export: &api.Blob{ContentType: "text/csv", Data: []byte("id\n1\n")}}
	c := newLocal(t, backend, Options{Filters: entity.Filters{"age": 30.0}})

	blob, err := c.ExportBlob(context.Background())
	require.NoError(t, err)
	require.NotNil(t, blob)
	assert.Equal(t, "text/csv", blob.ContentType)

	exports := backend.callsFor(api.OpExport)
	require.Len(t, exports, 1)
	assert.Equal(t, `{"age":30}`, exports[0].payload.(api.Query)["filters"])

	backend.export = map[string]any{"status": "queued"}

	blob, err = c.ExportBlob(context.Background())
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestColumnsAndRefOptions(t *testing.T) {
	two := 2
	backend := &fakeBackend{
		rows:    people(),
		options: map[string]any{"schema": []any{"id", "name", "age"}, "table": map[string]any{"columns": []any{"id", "name", "age"}}},
	}

	c := newLocal(t, backend, Options{PreferredColumns: []string{"name"}, MaxColumns: &two, RefPageSize: 50})
	assert.Equal(t, []string{"name", "id"}, c.Snapshot().Cols)

	items, err := c.LoadRefOptions(context.Background(), &entity.Ref{Entity: "user"})
	require.NoError(t, err)
	assert.Equal(t, []entity.Option{{Value: 1.0, Label: "Bob"}, {Value: 2.0, Label: "Amy"}}, items)

	gets := backend.callsFor(api.OpGet)
	assert.Equal(t, api.Query{"page": 1, "size": 50}, gets[len(gets)-1].payload)

	items, err = c.LoadRefOptions(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetOne(t *testing.T) {
	c := newLocal(t, &fakeBackend{rows: people()}, Options{})

	row, err := c.GetOne(context.Background(), 4.0)
	require.NoError(t, err)
	assert.Equal(t, entity.Row{"id": 4.0, "name": "one"}, row)
}

func TestOnChange(t *testing.T) {
	var (
		mu    sync.Mutex
		views []View
	)

	backend := &fakeBackend{rows: people()}
	c := New("user", backend, Options{OnChange: func(v View) {
		mu.Lock()
		views = append(views, v)
		mu.Unlock()
	}})
	defer c.Close()

	assert.True(t, c.Snapshot().Loading, "a new controller starts loading")
	require.NoError(t, c.Start(context.Background()))

	mu.Lock()
	defer mu.Unlock()

	require.NotEmpty(t, views)
	assert.False(t, views[len(views)-1].Loading)
	assert.Equal(t, 2, views[len(views)-1].Total)
}

func TestParseMode(t *testing.T) {
	testCases := []struct {
		in       string
		expected Mode
		ok       bool
	}{
		{in: "client", expected: ModeLocal, ok: true},
		{in: "Local", expected: ModeLocal, ok: true},
		{in: "server", expected: ModeRemote, ok: true},
		{in: " remote ", expected: ModeRemote, ok: true},
		{in: "hybrid"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			m, ok := ParseMode(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, m)
		})
	}
}

type failingUploader struct{}

func (failingUploader) Upload(context.Context, string, string, *upload.File) (any, error) {
	return nil, errors.New("upload endpoint unavailable")
}
