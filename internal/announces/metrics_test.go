package announces

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewMetrics(reg)
	second := NewMetrics(reg)

	first.observeRun(&RunState{Documents: 3, Errors: []string{"boom"}}, 0.5, 3)

	if got := testutil.ToFloat64(second.documentsIndexed); got != 3 {
		t.Errorf("documents_indexed_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(second.indexErrors); got != 1 {
		t.Errorf("index_errors_total = %v, want 1", got)
	}

	count, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if count != 4 {
		t.Errorf("Registered metrics = %d, want 4", count)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.observeRun(&RunState{Documents: 1}, 1, 1)
}
