package queryd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MilaVelkova/NoSQLRiak/internal/index"
	"github.com/MilaVelkova/NoSQLRiak/internal/indexer"
	"github.com/MilaVelkova/NoSQLRiak/internal/query"
	"github.com/MilaVelkova/NoSQLRiak/pkg/config"
	apperrors "github.com/MilaVelkova/NoSQLRiak/pkg/errors"
	"github.com/MilaVelkova/NoSQLRiak/pkg/metrics"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	ctx := context.Background()
	s := index.NewMemStore()
	docs := []string{
		`{"id": "1", "title": "Heat", "release_year": 1995, "vote_average": 8.3, "budget": 60000000, "revenue": 187000000, "genres_list": "['Action', 'Crime']", "cast_list": "['Al Pacino', 'Robert De Niro']"}`,
		`{"id": "2", "title": "Casino", "release_year": 1995, "vote_average": 8.0, "budget": 52000000, "revenue": 116000000, "genres_list": "['Crime', 'Drama']", "cast_list": "['Robert De Niro']"}`,
		`{"id": "3", "title": "Ronin", "release_year": 1998, "vote_average": 7.0, "budget": 55000000, "revenue": 41000000, "genres_list": "['Action', 'Crime']", "cast_list": "['Robert De Niro']"}`,
	}
	for i, doc := range docs {
		if err := s.Put(ctx, fmt.Sprintf("movie:%d", i+1), []byte(doc)); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}
	ix := indexer.New(s.Primary(), s, config.IndexerConfig{})
	if _, err := ix.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	engine := query.New(s.Primary(), s)
	return New(engine, nil, nil, config.QueryConfig{DefaultLimit: 10, MaxLimit: 100})
}

func doRequest(t *testing.T, handler http.HandlerFunc, url string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rr := httptest.NewRecorder()
	handler(rr, req)
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
	return rr.Code, body
}

func TestMoviesSingleDim(t *testing.T) {
	h := newTestHandler(t)
	code, body := doRequest(t, h.Movies, "/api/v1/movies?dim=genre:Action")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["total"].(float64) != 2 {
		t.Errorf("total = %v, want 2", body["total"])
	}
}

func TestMoviesIntersection(t *testing.T) {
	h := newTestHandler(t)
	code, body := doRequest(t, h.Movies, "/api/v1/movies?dim=genre:Crime&dim=year:1995&resolve=true")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["total"].(float64) != 2 {
		t.Errorf("total = %v, want 2", body["total"])
	}
	movies, ok := body["movies"].([]any)
	if !ok || len(movies) != 2 {
		t.Fatalf("movies = %v", body["movies"])
	}
}

func TestMoviesBadDim(t *testing.T) {
	h := newTestHandler(t)
	code, _ := doRequest(t, h.Movies, "/api/v1/movies?dim=noseparator")
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
	code, _ = doRequest(t, h.Movies, "/api/v1/movies")
	if code != http.StatusBadRequest {
		t.Errorf("missing dim status = %d, want 400", code)
	}
}

func TestMoviesUnknownCategory(t *testing.T) {
	h := newTestHandler(t)
	code, body := doRequest(t, h.Movies, "/api/v1/movies?dim=bogus:Action")
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
	if body["error"] == "" {
		t.Error("expected an error message in the body")
	}
}

// downStore fails every index operation the way the Redis store reports a
// lost connection.
type downStore struct{}

func (downStore) Clear(ctx context.Context, category string) error {
	return fmt.Errorf("clearing: %w", apperrors.ErrStoreUnavailable)
}

func (downStore) GetMembers(ctx context.Context, category, key string) (index.MemberSet, error) {
	return nil, fmt.Errorf("reading: %w", apperrors.ErrStoreUnavailable)
}

func (downStore) PutMembers(ctx context.Context, category, key string, members index.MemberSet) error {
	return fmt.Errorf("writing: %w", apperrors.ErrStoreUnavailable)
}

func (downStore) GetRanked(ctx context.Context, category, key string) ([]index.ScoredRef, error) {
	return nil, fmt.Errorf("reading: %w", apperrors.ErrStoreUnavailable)
}

func (downStore) PutRanked(ctx context.Context, category, key string, refs []index.ScoredRef) error {
	return fmt.Errorf("writing: %w", apperrors.ErrStoreUnavailable)
}

func (downStore) Keys(ctx context.Context, category string) ([]string, error) {
	return nil, fmt.Errorf("listing: %w", apperrors.ErrStoreUnavailable)
}

func TestMoviesStoreFailureMapsToServiceUnavailable(t *testing.T) {
	s := index.NewMemStore()
	h := New(query.New(s.Primary(), downStore{}), nil, nil, config.QueryConfig{DefaultLimit: 10, MaxLimit: 100})

	code, body := doRequest(t, h.Movies, "/api/v1/movies?dim=genre:Action")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", code)
	}
	if body["error"] != apperrors.ErrStoreUnavailable.Error() {
		t.Errorf("error = %v, want the store-unavailable message", body["error"])
	}
}

func TestTop(t *testing.T) {
	h := newTestHandler(t)
	code, body := doRequest(t, h.Top, "/api/v1/top?genre=Crime&n=2")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	results, ok := body["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("results = %v", body["results"])
	}
	first := results[0].(map[string]any)
	if first["title"] != "Heat" || first["score"].(float64) != 8.3 {
		t.Errorf("first result = %v, want Heat at 8.3", first)
	}
}

func TestTopWithYearFilter(t *testing.T) {
	h := newTestHandler(t)
	code, body := doRequest(t, h.Top, "/api/v1/top?genre=Crime&year=1998")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	results := body["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("results = %v, want only the 1998 entry", results)
	}
	if results[0].(map[string]any)["title"] != "Ronin" {
		t.Errorf("result = %v, want Ronin", results[0])
	}
}

func TestTopMissingGenre(t *testing.T) {
	h := newTestHandler(t)
	code, _ := doRequest(t, h.Top, "/api/v1/top")
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestCounts(t *testing.T) {
	h := newTestHandler(t)
	code, body := doRequest(t, h.Counts, "/api/v1/stats/counts?category=genre")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	counts := body["counts"].([]any)
	if len(counts) != 3 {
		t.Fatalf("counts = %v, want 3 genres", counts)
	}
	top := counts[0].(map[string]any)
	if top["key"] != "Crime" || top["count"].(float64) != 3 {
		t.Errorf("top count = %v, want Crime at 3", top)
	}
}

func TestCountsUnknownCategory(t *testing.T) {
	h := newTestHandler(t)
	code, _ := doRequest(t, h.Counts, "/api/v1/stats/counts?category=bogus")
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestAverages(t *testing.T) {
	h := newTestHandler(t)
	code, body := doRequest(t, h.Averages, "/api/v1/stats/averages?category=year&metric=vote_average")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["metric"] != "vote_average" {
		t.Errorf("metric = %v", body["metric"])
	}

	code, _ = doRequest(t, h.Averages, "/api/v1/stats/averages?category=year&metric=bogus")
	if code != http.StatusBadRequest {
		t.Errorf("unknown metric status = %d, want 400", code)
	}
}

func TestCombinations(t *testing.T) {
	h := newTestHandler(t)
	code, body := doRequest(t, h.Combinations, "/api/v1/stats/combinations?min_support=2")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	combos := body["combinations"].([]any)
	// Action|Crime occurs twice (Heat, Ronin).
	if len(combos) != 1 {
		t.Errorf("combinations = %v, want one", combos)
	}
}

func TestProfitable(t *testing.T) {
	h := newTestHandler(t)
	code, body := doRequest(t, h.Profitable, "/api/v1/stats/profitable?multiplier=2&budget_floor=50000000")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	// Heat and Casino return over 2x; Ronin loses money.
	if body["total"].(float64) != 2 {
		t.Errorf("total = %v, want 2", body["total"])
	}

	code, _ = doRequest(t, h.Profitable, "/api/v1/stats/profitable?multiplier=-1")
	if code != http.StatusBadRequest {
		t.Errorf("negative multiplier status = %d, want 400", code)
	}
}

func TestHandlerRecordsQueryMetrics(t *testing.T) {
	m := metrics.New()
	h := newTestHandler(t)
	h.metrics = m

	if code, _ := doRequest(t, h.Top, "/api/v1/top?genre=Crime&n=2"); code != http.StatusOK {
		t.Fatalf("top status = %d, want 200", code)
	}
	if code, _ := doRequest(t, h.Movies, "/api/v1/movies?dim=genre:Western"); code != http.StatusOK {
		t.Fatalf("movies status = %d, want 200", code)
	}

	failing := New(query.New(index.NewMemStore().Primary(), downStore{}), nil, m, config.QueryConfig{DefaultLimit: 10, MaxLimit: 100})
	if code, _ := doRequest(t, failing.Movies, "/api/v1/movies?dim=genre:Action"); code != http.StatusServiceUnavailable {
		t.Fatalf("failing movies status = %d, want 503", code)
	}

	if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("top_k", "hit")); got != 1 {
		t.Errorf("top_k hit count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("by_dimension", "zero_result")); got != 1 {
		t.Errorf("by_dimension zero_result count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("by_dimension", "error")); got != 1 {
		t.Errorf("by_dimension error count = %v, want 1", got)
	}
	// One latency series per operation seen: top_k and by_dimension.
	if got := testutil.CollectAndCount(m.QueryLatency); got != 2 {
		t.Errorf("query latency series = %d, want 2", got)
	}
}
