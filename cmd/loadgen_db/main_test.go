package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputePercentiles(t *testing.T) {
	var l []time.Duration
	for i := 1; i <= 100; i++ {
		l = append(l, time.Duration(i)*time.Millisecond)
	}

	p50, p95, p99 := computePercentiles(l)
	assert.Equal(t, 51.0, p50)
	assert.Equal(t, 96.0, p95)
	assert.Equal(t, 100.0, p99)
	assert.Equal(t, 50.5, computeAvg(l))
}

func TestComputePercentiles_Empty(t *testing.T) {
	p50, p95, p99 := computePercentiles(nil)
	assert.Zero(t, p50+p95+p99)
	assert.Zero(t, computeAvg(nil))
}
