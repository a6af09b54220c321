package engine

import (
	"testing"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateWindow_NonCrossing(t *testing.T) {
	london := models.TimeWindow{Name: "London", Start: 120, End: 300}

	tests := []struct {
		name      string
		now       int
		status    string
		countdown string
		active    bool
	}{
		{"before start", 100, models.WindowUpcoming, "20m", false},
		{"midnight", 0, models.WindowUpcoming, "2h 0m", false},
		{"at start", 120, models.WindowActive, "3h 0m", true},
		{"last minute", 299, models.WindowActive, "1m", true},
		{"at end", 300, models.WindowClosed, "", false},
		{"late evening", 1300, models.WindowClosed, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateWindow(tt.now, london)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.countdown, got.Countdown)
			assert.Equal(t, tt.active, got.Active)
		})
	}
}

func TestEvaluateWindow_CrossingMidnight(t *testing.T) {
	asia := models.TimeWindow{Name: "Asia", Start: 19 * 60, End: 0, CrossesMidnight: true}

	tests := []struct {
		name      string
		now       int
		status    string
		countdown string
	}{
		{"at start", 19 * 60, models.WindowActive, "5h 0m"},
		{"one minute before midnight", 23*60 + 59, models.WindowActive, "1m"},
		{"exactly midnight", 0, models.WindowUpcoming, "19h 0m"},
		{"one minute after midnight", 1, models.WindowUpcoming, "18h 59m"},
		{"afternoon", 18 * 60, models.WindowUpcoming, "1h 0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateWindow(tt.now, asia)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.countdown, got.Countdown)
			assert.Equal(t, tt.status == models.WindowActive, got.Active)
		})
	}
}

func TestEvaluateWindow_CrossingWithNonZeroEnd(t *testing.T) {
	overnight := models.TimeWindow{Name: "Overnight", Start: 22 * 60, End: 2 * 60, CrossesMidnight: true}

	got := EvaluateWindow(23*60, overnight)
	assert.True(t, got.Active)
	assert.Equal(t, "3h 0m", got.Countdown)

	got = EvaluateWindow(60, overnight)
	assert.True(t, got.Active)
	assert.Equal(t, "1h 0m", got.Countdown)

	got = EvaluateWindow(10*60, overnight)
	assert.Equal(t, models.WindowUpcoming, got.Status)
	assert.Equal(t, "12h 0m", got.Countdown)
}

func TestEngine_KillZonesAndMacros(t *testing.T) {
	eng := newTestEngine(t)
	now := ny(t, 2024, 1, 16, 10, 0)

	zones := eng.killZones(now)
	assert.Len(t, zones, 5)
	byName := map[string]models.KillZoneStatus{}
	for _, z := range zones {
		byName[z.Name] = z
	}
	assert.Equal(t, models.WindowUpcoming, byName["Asia"].Status)
	assert.Equal(t, "9h 0m", byName["Asia"].Countdown)
	assert.Equal(t, models.WindowClosed, byName["London"].Status)
	assert.True(t, byName["NY AM"].Active)
	assert.Equal(t, "2h 0m", byName["NY AM"].Countdown)
	assert.Equal(t, models.WindowUpcoming, byName["NY Lunch"].Status)

	macros := eng.macros(now)
	assert.Len(t, macros, 4)
	assert.Equal(t, "9:50–10:10", macros[0].Label)
	assert.True(t, macros[0].Active)
	assert.Equal(t, "10m", macros[0].Countdown)
	assert.Equal(t, "50m", macros[1].Countdown)
}
