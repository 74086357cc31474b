//go:build openmeteo

package openmeteo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Open-Meteo archive API.
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func TestSmoke_FetchDaily(t *testing.T) {
	c := NewClient("", 10*time.Second, testLogger())

	// Prince George, BC; a fixed historical window.
	start := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)

	doc, err := c.FetchDaily(context.Background(), 53.916, -122.75, start, end)
	require.NoError(t, err)

	assert.Len(t, doc.Daily.Time, 15)
	assert.Equal(t, "2020-06-01", doc.Daily.Time[0])
	assert.Equal(t, "2020-06-15", doc.Daily.Time[14])
	assert.Greater(t, doc.Elevation, 0.0)
	require.NoError(t, doc.Daily.Validate())
}
