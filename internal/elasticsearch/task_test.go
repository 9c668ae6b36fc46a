package elasticsearch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	esv7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/elasticsearch"
)

// fakeIndex serves the subset of the Elasticsearch API used by Task, storing documents in memory.
type fakeIndex struct {
	mu       sync.Mutex
	docs     map[string]json.RawMessage
	searches int
	fail     bool
}

func (f *fakeIndex) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/" {
		_, _ = w.Write([]byte(`{"version":{"number":"7.17.10"},"tagline":"You Know, for Search"}`))
		return
	}

	if f.fail {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))

		return
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/tasks/_doc/"):
		id := strings.TrimPrefix(r.URL.Path, "/tasks/_doc/")

		switch r.Method {
		case http.MethodPut, http.MethodPost:
			var doc json.RawMessage
			if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			f.docs[id] = doc

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"result":"created"}`))
		case http.MethodDelete:
			if _, ok := f.docs[id]; !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"result":"not_found"}`))

				return
			}

			delete(f.docs, id)

			_, _ = w.Write([]byte(`{"result":"deleted"}`))
		}
	case r.URL.Path == "/tasks/_search":
		f.searches++

		ids := make([]string, 0, len(f.docs))
		for id := range f.docs {
			ids = append(ids, id)
		}

		sort.Sort(sort.Reverse(sort.StringSlice(ids)))

		hits := make([]map[string]json.RawMessage, len(ids))
		for i, id := range ids {
			hits[i] = map[string]json.RawMessage{"_source": f.docs[id]}
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{
				"total": map[string]interface{}{"value": len(hits)},
				"hits":  hits,
			},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeIndex) doc(id string) (map[string]interface{}, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, ok := f.docs[id]
	if !ok {
		return nil, false
	}

	var res map[string]interface{}
	_ = json.Unmarshal(raw, &res)

	return res, true
}

func newTask(t *testing.T) (*elasticsearch.Task, *fakeIndex) {
	t.Helper()

	idx := &fakeIndex{docs: map[string]json.RawMessage{}}

	srv := httptest.NewServer(idx)
	t.Cleanup(srv.Close)

	client, err := esv7.NewClient(esv7.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return elasticsearch.NewTask(client), idx
}

func TestTask_Index(t *testing.T) {
	t.Parallel()

	task, idx := newTask(t)
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	err := task.Index(context.Background(), internal.Task{ID: 1, Title: "buy milk", Completed: true, CreatedAt: created})
	require.NoError(t, err)

	doc, ok := idx.doc("1")
	require.True(t, ok)
	require.Equal(t, "buy milk", doc["title"])
	require.Equal(t, true, doc["completed"])
	require.EqualValues(t, float64(created.UnixNano()), doc["created_at"])
}

func TestTask_Delete(t *testing.T) {
	t.Parallel()

	task, idx := newTask(t)
	ctx := context.Background()

	require.NoError(t, task.Index(ctx, internal.Task{ID: 1, Title: "buy milk"}))
	require.NoError(t, task.Delete(ctx, 1))

	_, ok := idx.doc("1")
	require.False(t, ok)

	require.Error(t, task.Delete(ctx, 1))
}

func TestTask_Search(t *testing.T) {
	t.Parallel()

	task, idx := newTask(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, task.Index(ctx, internal.Task{ID: 1, Title: "buy milk", CreatedAt: created}))
	require.NoError(t, task.Index(ctx, internal.Task{ID: 2, Title: "buy bread", Completed: true, CreatedAt: created}))

	t.Run("OK", func(t *testing.T) {
		title := "buy"

		res, err := task.Search(ctx, internal.SearchParams{Title: &title, Size: 10})
		require.NoError(t, err)
		require.Equal(t, int64(2), res.Total)
		require.Equal(t, []internal.Task{
			{ID: 2, Title: "buy bread", Completed: true, CreatedAt: created},
			{ID: 1, Title: "buy milk", CreatedAt: created},
		}, res.Tasks)
	})

	t.Run("OK: no arguments skips the query", func(t *testing.T) {
		idx.mu.Lock()
		before := idx.searches
		idx.mu.Unlock()

		res, err := task.Search(ctx, internal.SearchParams{})
		require.NoError(t, err)
		require.Empty(t, res.Tasks)

		idx.mu.Lock()
		require.Equal(t, before, idx.searches)
		idx.mu.Unlock()
	})
}

func TestTask_ServerError(t *testing.T) {
	t.Parallel()

	task, idx := newTask(t)
	ctx := context.Background()

	idx.mu.Lock()
	idx.fail = true
	idx.mu.Unlock()

	completed := true

	_, err := task.Search(ctx, internal.SearchParams{Completed: &completed})
	require.Error(t, err)

	require.Error(t, task.Index(ctx, internal.Task{ID: 1, Title: "buy milk"}))
}
