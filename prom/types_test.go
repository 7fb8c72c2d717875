package prom

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAPICalls_ConcurrentIncrements(t *testing.T) {
	counter := APICalls.WithLabelValues("save")
	before := testutil.ToFloat64(counter)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				counter.Inc()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, before+2000, testutil.ToFloat64(counter))
}

func TestAppliedPatches_Add(t *testing.T) {
	before := testutil.ToFloat64(AppliedPatches)
	AppliedPatches.Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(AppliedPatches))
}
