package schedule

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsync/internal/model"
)

func TestSessionReadinessGating(t *testing.T) {
	s := NewSession(time.UTC, 8, 21, 10, 2)
	now := time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)

	assert.False(t, s.CalendarReady())
	assert.False(t, s.BuildingsReady())
	assert.Nil(t, s.BestRoomSchedule(now))
	assert.Empty(t, s.ScheduleICS(now))

	s.SetCalendar([]model.Event{*dailyEvent("ev-class", 30)})
	assert.True(t, s.CalendarReady())
	assert.Nil(t, s.BestRoomSchedule(now), "still waiting on availability")

	s.SetBuildings([]model.Building{})
	assert.True(t, s.BuildingsReady())
	assert.NotNil(t, s.BestRoomSchedule(now))
}

func TestSessionScheduleICS(t *testing.T) {
	s := NewSession(time.UTC, 8, 21, 10, 2)
	now := time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)
	monday := dayKeyUTC(2026, 8, 31)

	s.SetCalendar([]model.Event{*dailyEvent("ev-class", 30)})
	s.SetBuildings([]model.Building{{
		Code:  "MY",
		Rooms: []model.RoomSlot{{Room: "150"}},
		AvailableRooms: map[int64]map[int][]string{
			monday: hoursOpen("150", 8, 21),
		},
	}})

	doc := s.ScheduleICS(now)
	require.NotEmpty(t, doc)
	assert.True(t, strings.HasPrefix(doc, "BEGIN:VCALENDAR"))
	assert.Contains(t, doc, "SUMMARY:1 Hour Break")
	assert.Contains(t, doc, "SUMMARY:11 Hour Break")
}

func TestSessionNewCalendarDropsCursorState(t *testing.T) {
	s := NewSession(time.UTC, 8, 21, 10, 2)
	now := time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)

	s.SetBuildings([]model.Building{})
	s.SetCalendar([]model.Event{*dailyEvent("ev-class", 30)})
	require.NotNil(t, s.BestRoomSchedule(now))
	firstCache := s.cache

	s.SetCalendar([]model.Event{})
	assert.NotSame(t, firstCache, s.cache)

	// With no events every weekday is one free block.
	schedule := s.BestRoomSchedule(now)
	require.Len(t, schedule, 5)
	for _, entries := range schedule {
		require.Len(t, entries, 1)
		assert.Equal(t, model.FreeInterval{Start: 8, End: 21}, entries[0].Interval)
	}
}

func TestSessionClosestRooms(t *testing.T) {
	s := NewSession(time.UTC, 8, 21, 10, 2)
	monday := dayKeyUTC(2026, 8, 31)
	s.SetBuildings([]model.Building{{
		Code:   "BA",
		Name:   "Bahen Centre",
		LatLng: [2]float64{1, 1},
		Rooms:  []model.RoomSlot{{Room: "1130"}},
		AvailableRooms: map[int64]map[int][]string{
			monday: {14: {"1130"}},
		},
	}})

	open := s.ClosestRooms(2026, 8, 31, 14, 0, 0)
	require.Len(t, open, 1)
	assert.Equal(t, "BA", open[0].Code)

	assert.Empty(t, s.ClosestRooms(2026, 8, 31, 9, 0, 0))
}
