package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compensation-engine/metrics"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := metrics.New()
	b := metrics.New()

	a.IncrementMutation("add_beneficiary")
	a.IncrementMutation("add_beneficiary")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.Mutations.WithLabelValues("add_beneficiary")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Mutations.WithLabelValues("add_beneficiary")))
}

func TestObserve(t *testing.T) {
	m := metrics.New()
	m.Observe(3, 2, 120.5)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Beneficiaries))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Compensations))
	assert.Equal(t, 120.5, testutil.ToFloat64(m.NetPayableTotal))

	n, err := testutil.GatherAndCount(m.Registry, "compensation_beneficiaries")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
