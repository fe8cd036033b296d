package movie

import (
	"math"
	"strconv"
)

// Index category names. Each category is one named key-value collection in
// the backing store.
const (
	CategoryGenre       = "genre"
	CategoryActor       = "actor"
	CategoryYear        = "year"
	CategoryLanguage    = "language"
	CategoryCountry     = "country"
	CategoryTopRated    = "top_rated"
	CategoryBudget      = "budget"
	CategoryRevenue     = "revenue"
	CategoryProfit      = "profit"
	CategoryRuntime     = "runtime"
	CategoryVoteAverage = "vote_average"
	CategoryPopularity  = "popularity"
)

// Categories lists every index category the rebuild maintains. CategoryTopRated
// holds ranked entries; all others hold membership sets.
var Categories = []string{
	CategoryGenre,
	CategoryActor,
	CategoryYear,
	CategoryLanguage,
	CategoryCountry,
	CategoryTopRated,
	CategoryBudget,
	CategoryRevenue,
	CategoryProfit,
	CategoryRuntime,
	CategoryVoteAverage,
	CategoryPopularity,
}

// KnownCategory reports whether name is one of the maintained index
// categories.
func KnownCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// bucketWidths maps each bucketed numeric category to its bucket width in
// raw units. The bucket key is floor(value/width); vote_average's width of
// 0.1 makes its key floor(value*10). The same table drives the inverse
// (BucketLowerBound), so both indexing and query-side filters share one
// bucketing convention.
var bucketWidths = map[string]float64{
	CategoryBudget:      1_000_000,
	CategoryRevenue:     1_000_000,
	CategoryProfit:      1_000_000,
	CategoryRuntime:     10,
	CategoryVoteAverage: 0.1,
	CategoryPopularity:  10,
}

// BucketWidth returns the bucket width of a bucketed category.
func BucketWidth(category string) (float64, bool) {
	width, ok := bucketWidths[category]
	return width, ok
}

// IsBucketed reports whether the category discretises a numeric field.
func IsBucketed(category string) bool {
	_, ok := bucketWidths[category]
	return ok
}

// BucketKey maps a raw numeric value to its bucket key for the category.
// Values that are zero or negative are excluded from bucketed categories
// entirely; the second return value is false for them and for categories
// that are not bucketed.
func BucketKey(category string, value float64) (string, bool) {
	width, ok := bucketWidths[category]
	if !ok || value <= 0 {
		return "", false
	}
	return strconv.FormatInt(int64(math.Floor(value/width)), 10), true
}

// BucketLowerBound returns the smallest raw value falling into the bucket
// identified by key, inverting BucketKey with the same width table.
func BucketLowerBound(category, key string) (float64, bool) {
	width, ok := bucketWidths[category]
	if !ok {
		return 0, false
	}
	bucket, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(bucket) * width, true
}
