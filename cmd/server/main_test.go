package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atharv3903/servicelocator/internal/algo"
	"github.com/atharv3903/servicelocator/internal/apperr"
	"github.com/atharv3903/servicelocator/internal/config"
)

func TestNewFinder(t *testing.T) {
	cfg := config.Defaults()
	cfg.Heuristic = "start"

	f, err := newFinder(cfg)
	require.NoError(t, err)
	assert.Equal(t, algo.Grid{Rows: cfg.Rows, Cols: cfg.Cols}, f.Grid())
	assert.Equal(t, algo.HeuristicStart, f.Heuristic())
}

func TestNewFinder_RejectsBadConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Heuristic = "euclid"
	_, err := newFinder(cfg)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	cfg = config.Defaults()
	cfg.Rows = 0
	_, err = newFinder(cfg)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
