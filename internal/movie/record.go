// Package movie defines the movie record model, tolerant decoding of the
// self-describing JSON documents held in the primary store, and the numeric
// bucketing scheme shared by the indexer and the query engine.
package movie

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/MilaVelkova/NoSQLRiak/pkg/errors"
)

// KeyPrefix is prepended to a movie id to form its primary-store key.
const KeyPrefix = "movie:"

// Record is one movie as read from the primary store. The indexer and query
// engine never mutate a Record.
type Record struct {
	ID               string
	Title            string
	ReleaseYear      int
	VoteAverage      float64
	Popularity       float64
	Budget           float64
	Revenue          float64
	Runtime          float64
	OriginalLanguage string
	Countries        []string
	Genres           []string
	Cast             []string
}

// Key returns the primary-store key for the record ("movie:" + id).
func (r Record) Key() string {
	return KeyPrefix + r.ID
}

// Profit returns revenue minus budget when revenue is positive, else 0.
func (r Record) Profit() float64 {
	if r.Revenue > 0 {
		return r.Revenue - r.Budget
	}
	return 0
}

// Decode parses a primary-store document into a Record. Documents come from
// CSV rows serialised as JSON, so numeric fields may arrive as numbers or as
// strings; any field that is absent or fails coercion gets its documented
// default (empty string, empty list, zero). Decode returns an error only
// when the document itself is unparseable or carries no id.
func Decode(data []byte) (Record, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Record{}, fmt.Errorf("%w: %v", errors.ErrInvalidRecord, err)
	}

	id := asString(doc["id"])
	if id == "" {
		return Record{}, fmt.Errorf("%w: missing id", errors.ErrInvalidRecord)
	}

	rec := Record{
		ID:               id,
		Title:            asString(doc["title"]),
		ReleaseYear:      asYear(doc["release_year"]),
		VoteAverage:      asFloat(doc["vote_average"]),
		Popularity:       asFloat(doc["popularity"]),
		Budget:           asFloat(doc["budget"]),
		Revenue:          asFloat(doc["revenue"]),
		Runtime:          asFloat(doc["runtime"]),
		OriginalLanguage: strings.TrimSpace(asString(doc["original_language"])),
		Countries:        ParseList(asString(doc["production_countries"])),
		Genres:           ParseList(asString(doc["genres_list"])),
	}
	rec.Cast = castMembers(doc)
	return rec, nil
}

// castMembers merges the Star1..Star4 columns with the optional cast_list
// field, deduplicated in encounter order.
func castMembers(doc map[string]any) []string {
	seen := make(map[string]struct{})
	cast := make([]string, 0, 4)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		cast = append(cast, name)
	}
	for _, field := range []string{"Star1", "Star2", "Star3", "Star4"} {
		add(asString(doc[field]))
	}
	for _, name := range ParseList(asString(doc["cast_list"])) {
		add(name)
	}
	return cast
}

// asString coerces a JSON value to a string. Numeric ids like 42 or 42.0
// render without a fractional part.
func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// asFloat coerces a JSON value to a float64, returning 0 for anything that
// is absent or does not parse.
func asFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// asYear coerces a release-year value to an int, returning 0 for anything
// absent or non-numeric.
func asYear(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		trimmed := strings.TrimSpace(val)
		year, err := strconv.Atoi(trimmed)
		if err != nil {
			// Years sometimes arrive as "2015.0" from CSV round-trips.
			f, ferr := strconv.ParseFloat(trimmed, 64)
			if ferr != nil {
				return 0
			}
			return int(f)
		}
		return year
	default:
		return 0
	}
}
