package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlreport/internal/compiler"
)

func TestObserveCompile(t *testing.T) {
	m := New()

	m.ObserveCompile(&compiler.Plan{Dropped: []compiler.Dropped{
		{Kind: compiler.DroppedTable, Name: "brands"},
		{Kind: compiler.DroppedOrderBy, Name: "sales.id"},
		{Kind: compiler.DroppedOrderBy, Name: "sales.total"},
	}}, nil)
	m.ObserveCompile(nil, errors.New("invalid"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.compiles.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compiles.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped.WithLabelValues("table")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.dropped.WithLabelValues("order_by")))
}

func TestObserveCatalogFetch(t *testing.T) {
	m := New()
	m.ObserveCatalogFetch("tables", nil)
	m.ObserveCatalogFetch("tables", errors.New("down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogFetches.WithLabelValues("tables", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogFetches.WithLabelValues("tables", "error")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("GET /tables", http.StatusOK, 12*time.Millisecond)
	m.ObserveRows(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `sqlreport_http_requests_total{route="GET /tables",status="200"} 1`)
	assert.Contains(t, body, "sqlreport_http_request_duration_seconds_bucket")
	assert.Contains(t, body, "sqlreport_report_rows_count 1")
	assert.Contains(t, body, "go_goroutines")
}
