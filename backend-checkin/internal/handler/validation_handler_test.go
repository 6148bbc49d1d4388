package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/analyzer"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidation_Capacity(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, http.MethodGet, "/api/v1/venues/v-1/validation/capacity", nil, "op-7", "operator")
	require.Equal(t, http.StatusOK, w.Code)

	var report dto.CapacityReport
	decodeData(t, resp, &report)
	assert.Equal(t, "Grand Hall", report.VenueName)
	assert.Equal(t, 95, report.Occupied)
	assert.Equal(t, 5, report.Available)
	assert.Equal(t, 95.0, report.Percentage)
	assert.Equal(t, analyzer.OccupancyWarning, report.Status)

	w, resp = f.do(t, http.MethodGet, "/api/v1/venues/nowhere/validation/capacity", nil, "op-7", "operator")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.CodeVenueNotFound, resp.Error.Code)
}

func TestValidation_Schedule(t *testing.T) {
	f := newAPIFixture(t)
	f.store.AddSession(domain.Session{
		ID:        "s-2",
		EventID:   "e-1",
		Name:      "Late",
		StartTime: showStart.Add(90 * time.Minute),
		EndTime:   showStart.Add(3 * time.Hour),
	})

	w, resp := f.do(t, http.MethodGet, "/api/v1/venues/v-1/validation/schedule", nil, "op-7", "operator")
	require.Equal(t, http.StatusOK, w.Code)

	var report dto.ScheduleReport
	decodeData(t, resp, &report)
	assert.Equal(t, 2, report.SessionCount)
	require.Equal(t, 1, report.ConflictCount)
	assert.Equal(t, "s-1", report.Conflicts[0].First.ID)
	assert.Equal(t, "s-2", report.Conflicts[0].Second.ID)
	assert.Equal(t, 30, report.Conflicts[0].OverlapMinutes)
}

func TestValidation_Stock(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		threshold int
		items     []string
		critical  int
	}{
		{"default threshold", "", 10, []string{"p-2", "p-1"}, 1},
		{"explicit threshold", "?threshold=1", 1, []string{"p-2"}, 1},
		{"malformed threshold falls back", "?threshold=lots", 10, []string{"p-2", "p-1"}, 1},
		{"negative threshold clamps to zero", "?threshold=-4", 0, []string{"p-2"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)

			w, resp := f.do(t, http.MethodGet, "/api/v1/venues/v-1/validation/stock"+tt.query, nil, "op-7", "operator")
			require.Equal(t, http.StatusOK, w.Code)

			var report dto.StockReport
			decodeData(t, resp, &report)
			assert.Equal(t, tt.threshold, report.Threshold)
			assert.Equal(t, tt.critical, report.Critical)
			ids := make([]string, 0, len(report.Items))
			for _, it := range report.Items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.items, ids)
		})
	}
}
