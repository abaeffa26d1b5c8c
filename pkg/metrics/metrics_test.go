package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLookup_NoopBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() { RecordLookup("cache") })
}

func TestInitAndRecord(t *testing.T) {
	Init()
	Init() // registering twice must not panic

	before := testutil.ToFloat64(lookups.WithLabelValues("pipeline"))
	RecordLookup("pipeline")
	RecordLookup("pipeline")
	RecordLookup("fallback")

	assert.Equal(t, before+2, testutil.ToFloat64(lookups.WithLabelValues("pipeline")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(lookups.WithLabelValues("fallback")), 1.0)
	require.NotNil(t, Handler())
}
