package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordQuery("get_transactions", "success", "ledger", 0.1)
		m.RecordDelegation("archive")
		m.RecordReplySize("ledger", 3)
		m.RecordNormalized("mint", "success")
		m.RecordRowEmitted("pipe")
		m.RecordRowFiltered()
		m.RecordNATSPublish("ledger.txns.x", "success", 0.01)
	})
}

func TestRecordQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordQuery("get_transactions", "success", "zfcdd-tqaaa-aaaaq-aaaga-cai", 0.2)
	m.RecordQuery("get_transactions", "success", "zfcdd-tqaaa-aaaaq-aaaga-cai", 0.3)
	m.RecordQuery("get_transactions", "error", "zfcdd-tqaaa-aaaaq-aaaga-cai", 0.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.ledgerQueriesTotal.WithLabelValues("get_transactions", "success", "zfcdd-tqaaa-aaaaq-aaaga-cai")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.ledgerQueriesTotal.WithLabelValues("get_transactions", "error", "zfcdd-tqaaa-aaaaq-aaaga-cai")))
}

func TestRecordRows(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRowEmitted("pipe")
	m.RecordRowEmitted("pipe")
	m.RecordRowFiltered()
	m.RecordNormalized("transfer", "success")
	m.RecordNormalized("approve", "unknown_kind")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rowsEmittedTotal.WithLabelValues("pipe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rowsFilteredTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactionsNormalizedTotal.WithLabelValues("approve", "unknown_kind")))
}

func TestTimer(t *testing.T) {
	var recorded float64
	done := Timer(time.Now().Add(-time.Second), func(d float64) { recorded = d })
	done()
	assert.GreaterOrEqual(t, recorded, 1.0)
}

func TestPush(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordRowEmitted("json")

	err := Push(context.Background(), server.URL, "ledgerdump", reg)
	require.NoError(t, err)
	assert.Equal(t, "/metrics/job/ledgerdump", gotPath)
}

func TestPush_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := Push(context.Background(), server.URL, "ledgerdump", prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to push metrics")
}
