package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{context.Canceled, "canceled"},
		{fmt.Errorf("step 3: %w", context.Canceled), "canceled"},
		{context.DeadlineExceeded, "deadline"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := Result(tt.err); got != tt.want {
			t.Errorf("Result(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(CacheQueries.WithLabelValues("hit"))
	CacheQueries.WithLabelValues("hit").Inc()
	if got := testutil.ToFloat64(CacheQueries.WithLabelValues("hit")); got != before+1 {
		t.Fatalf("cache hit counter = %f, want %f", got, before+1)
	}
}

func TestHandler(t *testing.T) {
	EphemerisCalls.WithLabelValues("NONE").Inc()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "traj_ephemeris_calls_total") {
		t.Fatal("metrics output does not list the ephemeris counter")
	}
}
