package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPoll(t *testing.T) {
	errsBefore := testutil.ToFloat64(DefaultMetrics.PollErrors)

	RecordPoll(1234, nil)
	assert.Equal(t, float64(1234), testutil.ToFloat64(DefaultMetrics.TotalMinted))
	assert.Greater(t, testutil.ToFloat64(DefaultMetrics.LastSuccessfulPoll), float64(0))

	RecordPoll(0, errors.New("rpc down"))
	assert.Equal(t, errsBefore+1, testutil.ToFloat64(DefaultMetrics.PollErrors))
	// a failed poll keeps the last good value
	assert.Equal(t, float64(1234), testutil.ToFloat64(DefaultMetrics.TotalMinted))
}

func TestRecordContractRead(t *testing.T) {
	hit := DefaultMetrics.ContractReads.WithLabelValues("totalMinted", "hit")
	miss := DefaultMetrics.ContractReads.WithLabelValues("totalMinted", "miss")
	hitBefore, missBefore := testutil.ToFloat64(hit), testutil.ToFloat64(miss)

	RecordContractRead("totalMinted", true)
	RecordContractRead("totalMinted", false)
	RecordContractRead("totalMinted", false)

	assert.Equal(t, hitBefore+1, testutil.ToFloat64(hit))
	assert.Equal(t, missBefore+2, testutil.ToFloat64(miss))
}

func TestRecordDBQuery(t *testing.T) {
	errs := DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "test_op")
	before := testutil.ToFloat64(errs)

	RecordDBQuery("postgres", "test_op", 0.01, nil)
	RecordDBQuery("postgres", "test_op", 0.02, errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(errs))
}

func TestHandler(t *testing.T) {
	RecordMintTransition("SUBMITTING")
	RecordMintOutcome("succeeded")
	RecordConfirmationDuration(3 * time.Second)
	RecordNotification("normal")
	SetWSClients(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{
		"where_money_moves_mint_transitions_total",
		"where_money_moves_mint_outcomes_total",
		"where_money_moves_mint_confirmation_seconds",
		"where_money_moves_stream_websocket_clients 2",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}
