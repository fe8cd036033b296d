package query

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/MilaVelkova/NoSQLRiak/internal/movie"
)

func TestCountPerKey(t *testing.T) {
	e, _ := newFixtureEngine(t)
	counts, err := e.CountPerKey(context.Background(), movie.CategoryGenre)
	if err != nil {
		t.Fatalf("CountPerKey: %v", err)
	}
	want := map[string]int{"Action": 2, "Crime": 3, "Drama": 3, "Romance": 2}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("genre counts = %v, want %v", counts, want)
	}
}

func TestAvgMetricPerKey(t *testing.T) {
	e, _ := newFixtureEngine(t)
	averages, err := e.AvgMetricPerKey(context.Background(), movie.CategoryYear,
		func(rec movie.Record) float64 { return rec.VoteAverage })
	if err != nil {
		t.Fatalf("AvgMetricPerKey: %v", err)
	}
	// 1995 holds Heat (8.3) and Casino (8.0).
	got, ok := averages["1995"]
	if !ok {
		t.Fatal("no average for 1995")
	}
	if math.Abs(got-8.15) > 1e-9 {
		t.Errorf("1995 average = %v, want 8.15", got)
	}
}

// Members whose metric is non-positive count toward neither the sum nor the
// divisor.
func TestAvgMetricPerKeyExcludesNonPositive(t *testing.T) {
	e, _ := newFixtureEngine(t)
	averages, err := e.AvgMetricPerKey(context.Background(), movie.CategoryYear,
		func(rec movie.Record) float64 {
			if rec.Title == "Casino" {
				return 0
			}
			return rec.VoteAverage
		})
	if err != nil {
		t.Fatalf("AvgMetricPerKey: %v", err)
	}
	if got := averages["1995"]; got != 8.3 {
		t.Errorf("1995 average with Casino excluded = %v, want 8.3", got)
	}
}

func TestGenreCombinations(t *testing.T) {
	e, _ := newFixtureEngine(t)
	combos, err := e.GenreCombinations(context.Background(), 2)
	if err != nil {
		t.Fatalf("GenreCombinations: %v", err)
	}
	// Action|Crime occurs twice (Heat, Ronin), Drama|Romance twice
	// (Titanic, Romeo + Juliet); Crime|Drama only once and is dropped.
	if len(combos) != 2 {
		t.Fatalf("combos = %+v, want 2 combinations", combos)
	}
	for _, combo := range combos {
		if combo.Count != 2 {
			t.Errorf("combo %v count = %d, want 2", combo.Genres, combo.Count)
		}
	}
	// Equal counts order by combination id: Action|Crime before Drama|Romance.
	if !reflect.DeepEqual(combos[0].Genres, []string{"Action", "Crime"}) {
		t.Errorf("first combo = %v, want [Action Crime]", combos[0].Genres)
	}
	wantAvg := (8.3 + 7.0) / 2
	if math.Abs(combos[0].AvgRating-wantAvg) > 1e-9 {
		t.Errorf("Action|Crime avg rating = %v, want %v", combos[0].AvgRating, wantAvg)
	}
}

func TestGenreCombinationsMinSupport(t *testing.T) {
	e, _ := newFixtureEngine(t)
	combos, err := e.GenreCombinations(context.Background(), 1)
	if err != nil {
		t.Fatalf("GenreCombinations: %v", err)
	}
	// With minSupport 1 the single Crime|Drama combination surfaces too.
	if len(combos) != 3 {
		t.Errorf("combos = %+v, want 3 combinations", combos)
	}

	combos, err = e.GenreCombinations(context.Background(), 3)
	if err != nil {
		t.Fatalf("GenreCombinations: %v", err)
	}
	if len(combos) != 0 {
		t.Errorf("combos at support 3 = %+v, want none", combos)
	}
}

func TestProfitableMovies(t *testing.T) {
	e, _ := newFixtureEngine(t)
	// Revenue at least twice the budget, budget at least 50 million:
	// Heat (187M/60M) qualifies, Casino (116M/52M) qualifies, Ronin loses
	// money, Titanic (2.2B/200M) qualifies, Romeo + Juliet's budget is
	// below the floor despite its tenfold return.
	movies, err := e.ProfitableMovies(context.Background(), 2.0, 50_000_000)
	if err != nil {
		t.Fatalf("ProfitableMovies: %v", err)
	}
	if len(movies) != 3 {
		t.Fatalf("profitable = %+v, want 3 movies", movies)
	}
	// Ordered by profit descending: Titanic 2B, Heat 127M, Casino 64M.
	wantOrder := []string{"movie:4", "movie:1", "movie:2"}
	for i, want := range wantOrder {
		if movies[i].Key != want {
			t.Errorf("profitable[%d] = %s, want %s", i, movies[i].Key, want)
		}
	}
	if movies[0].Profit != 2_000_000_000 {
		t.Errorf("Titanic profit = %v, want 2000000000", movies[0].Profit)
	}
}

// The boundary bucket is pre-filtered in, then records inside it are
// re-checked exactly: a budget just under the floor sharing a bucket with a
// qualifying budget must not slip through.
func TestProfitableMoviesExactRecheck(t *testing.T) {
	e, s := newFixtureEngine(t)
	ctx := context.Background()

	// Both land in budget bucket 50, one on each side of the 50.5M floor.
	s.Put(ctx, "movie:10", []byte(`{"id": "10", "title": "Just Below", "budget": 50400000, "revenue": 500000000, "genres_list": "['Drama']"}`))
	s.Put(ctx, "movie:11", []byte(`{"id": "11", "title": "Just Above", "budget": 50600000, "revenue": 500000000, "genres_list": "['Drama']"}`))
	if _, err := newIndexerForTest(s).Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	movies, err := e.ProfitableMovies(ctx, 2.0, 50_500_000)
	if err != nil {
		t.Fatalf("ProfitableMovies: %v", err)
	}
	for _, m := range movies {
		if m.Key == "movie:10" {
			t.Errorf("movie:10 budget %v is below the floor and must be excluded", m.Budget)
		}
		if m.Budget < 50_500_000 {
			t.Errorf("result %s violates the budget floor: %v", m.Key, m.Budget)
		}
	}
	found := false
	for _, m := range movies {
		if m.Key == "movie:11" {
			found = true
		}
	}
	if !found {
		t.Error("movie:11 qualifies and must be included")
	}
}

func TestSortedByCount(t *testing.T) {
	got := SortedByCount(map[string]int{"Drama": 3, "Action": 2, "Crime": 3})
	want := []KeyCount{{"Crime", 3}, {"Drama", 3}, {"Action", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedByCount = %v, want %v", got, want)
	}
}

func TestSortedByKey(t *testing.T) {
	got := SortedByKey(map[string]int{"1995": 2, "1998": 1, "1996": 1})
	want := []KeyCount{{"1998", 1}, {"1996", 1}, {"1995", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedByKey = %v, want %v", got, want)
	}
}

func TestSortedByAverage(t *testing.T) {
	got := SortedByAverage(map[string]float64{"a": 1.5, "b": 2.5, "c": 1.5})
	want := []KeyAverage{{"b", 2.5}, {"a", 1.5}, {"c", 1.5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedByAverage = %v, want %v", got, want)
	}
}
