package movie

import "testing"

func TestBucketKey(t *testing.T) {
	tests := []struct {
		name     string
		category string
		value    float64
		wantKey  string
		wantOK   bool
	}{
		{"budget 15 million", CategoryBudget, 15_000_000, "15", true},
		{"budget just below boundary", CategoryBudget, 14_999_999, "14", true},
		{"budget below one million", CategoryBudget, 400_000, "0", true},
		{"revenue 2.5 million", CategoryRevenue, 2_500_000, "2", true},
		{"profit 1 million exactly", CategoryProfit, 1_000_000, "1", true},
		{"runtime 95 minutes", CategoryRuntime, 95, "9", true},
		{"runtime 90 minutes", CategoryRuntime, 90, "9", true},
		{"vote average 7.85", CategoryVoteAverage, 7.85, "78", true},
		{"vote average 8.0", CategoryVoteAverage, 8.0, "80", true},
		{"popularity 42", CategoryPopularity, 42, "4", true},
		{"zero excluded", CategoryBudget, 0, "", false},
		{"negative excluded", CategoryProfit, -5_000_000, "", false},
		{"non-bucketed category", CategoryGenre, 10, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := BucketKey(tt.category, tt.value)
			if ok != tt.wantOK {
				t.Fatalf("BucketKey(%s, %v) ok = %v, want %v", tt.category, tt.value, ok, tt.wantOK)
			}
			if key != tt.wantKey {
				t.Errorf("BucketKey(%s, %v) = %q, want %q", tt.category, tt.value, key, tt.wantKey)
			}
		})
	}
}

func TestBucketLowerBound(t *testing.T) {
	lower, ok := BucketLowerBound(CategoryBudget, "15")
	if !ok || lower != 15_000_000 {
		t.Errorf("BucketLowerBound(budget, 15) = %v, %v; want 15000000, true", lower, ok)
	}

	lower, ok = BucketLowerBound(CategoryVoteAverage, "78")
	if !ok || lower < 7.79 || lower > 7.81 {
		t.Errorf("BucketLowerBound(vote_average, 78) = %v, %v; want 7.8, true", lower, ok)
	}

	if _, ok := BucketLowerBound(CategoryGenre, "5"); ok {
		t.Error("BucketLowerBound should reject non-bucketed categories")
	}
	if _, ok := BucketLowerBound(CategoryBudget, "abc"); ok {
		t.Error("BucketLowerBound should reject non-numeric keys")
	}
}

// Every value must land in the bucket whose lower bound is at most the value
// and whose upper bound exceeds it.
func TestBucketRoundTrip(t *testing.T) {
	values := []float64{1, 999_999, 1_000_000, 7_300_000, 123_456_789}
	for _, v := range values {
		key, ok := BucketKey(CategoryBudget, v)
		if !ok {
			t.Fatalf("BucketKey(budget, %v) unexpectedly excluded", v)
		}
		lower, ok := BucketLowerBound(CategoryBudget, key)
		if !ok {
			t.Fatalf("BucketLowerBound(budget, %s) failed", key)
		}
		width, _ := BucketWidth(CategoryBudget)
		if v < lower || v >= lower+width {
			t.Errorf("value %v outside bucket %s [%v, %v)", v, key, lower, lower+width)
		}
	}
}

func TestIsBucketed(t *testing.T) {
	for _, category := range []string{CategoryBudget, CategoryRevenue, CategoryProfit, CategoryRuntime, CategoryVoteAverage, CategoryPopularity} {
		if !IsBucketed(category) {
			t.Errorf("IsBucketed(%s) = false, want true", category)
		}
	}
	for _, category := range []string{CategoryGenre, CategoryActor, CategoryYear, CategoryLanguage, CategoryCountry, CategoryTopRated} {
		if IsBucketed(category) {
			t.Errorf("IsBucketed(%s) = true, want false", category)
		}
	}
}

func TestKnownCategory(t *testing.T) {
	for _, c := range Categories {
		if !KnownCategory(c) {
			t.Errorf("KnownCategory(%q) = false", c)
		}
	}
	if KnownCategory("bogus") {
		t.Error("KnownCategory must reject names outside the maintained set")
	}
}
