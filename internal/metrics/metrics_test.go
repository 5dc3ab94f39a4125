package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
)

func TestRecordOutcomeCountsRollAndWins(t *testing.T) {
	before := testutil.ToFloat64(rolls)
	beforeRare := testutil.ToFloat64(tierWins.WithLabelValues("rare"))

	RecordOutcome(gacha.Outcome{
		{Tier: gacha.Common, Name: "Pidgey"},
		{Tier: gacha.Rare, Name: "Eevee"},
	})

	assert.Equal(t, before+1, testutil.ToFloat64(rolls))
	assert.Equal(t, beforeRare+1, testutil.ToFloat64(tierWins.WithLabelValues("rare")))
}

func TestRecordSimulation(t *testing.T) {
	beforeCases := testutil.ToFloat64(simulatedCases)
	beforeDraws := testutil.ToFloat64(simulatedDraws)
	beforeRolls := testutil.ToFloat64(rolls)
	RecordSimulation(3, 120)
	assert.Equal(t, beforeCases+3, testutil.ToFloat64(simulatedCases))
	assert.Equal(t, beforeDraws+120, testutil.ToFloat64(simulatedDraws))
	assert.Equal(t, beforeRolls, testutil.ToFloat64(rolls), "live roll counter untouched")
}

func TestSetProbabilitiesAndReload(t *testing.T) {
	SetProbabilities(gacha.ProbabilitySet{0.5, 0.25, 0.1, 0.05, 0.01, 0.001})
	assert.Equal(t, 0.25, testutil.ToFloat64(probability.WithLabelValues("uncommon")))

	ok := testutil.ToFloat64(reloads.WithLabelValues("ok"))
	bad := testutil.ToFloat64(reloads.WithLabelValues("error"))
	RecordReload(nil)
	RecordReload(errors.New("boom"))
	assert.Equal(t, ok+1, testutil.ToFloat64(reloads.WithLabelValues("ok")))
	assert.Equal(t, bad+1, testutil.ToFloat64(reloads.WithLabelValues("error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordRPC("Roll", "OK", 3*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `pokeslots_rpc_requests_total{code="OK",method="Roll"}`))
	assert.Contains(t, body, "pokeslots_rpc_request_duration_seconds_bucket")
}
