package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsync/internal/model"
)

// hoursOpen marks the room open for every hour in [from, to).
func hoursOpen(room string, from, to int) map[int][]string {
	open := make(map[int][]string)
	for h := from; h < to; h++ {
		open[h] = append(open[h], room)
	}
	return open
}

func weekBuilder(buildings []model.Building) *Builder {
	return &Builder{
		Buildings:        buildings,
		WorkStart:        8,
		WorkEnd:          21,
		TopN:             10,
		PerBuildingLimit: 2,
	}
}

func TestBuildWeekFullPipeline(t *testing.T) {
	// Monday 2026-08-31. One daily 9-10 class in MY all week.
	now := time.Date(2026, 8, 31, 7, 30, 0, 0, time.UTC)
	monday := dayKeyUTC(2026, 8, 31)

	events := []model.Event{*dailyEvent("ev-class", 30)}

	my := model.Building{
		Code:   "MY",
		Name:   "Myhal Centre",
		LatLng: [2]float64{1, 1},
		Rooms:  []model.RoomSlot{{Room: "150"}},
		AvailableRooms: map[int64]map[int][]string{
			monday: hoursOpen("150", 8, 21),
		},
	}

	b := weekBuilder([]model.Building{my})
	schedule := b.BuildWeek(NewCursorCache(time.UTC), events, now)

	// Monday through Friday, nothing for the weekend.
	require.Len(t, schedule, 5)
	require.Contains(t, schedule, monday)
	assert.NotContains(t, schedule, dayKeyUTC(2026, 8, 30))
	assert.NotContains(t, schedule, dayKeyUTC(2026, 9, 5))

	mondayEntries := schedule[monday]
	require.Len(t, mondayEntries, 2)

	// The class splits the day; room 150 covers both gaps on Monday.
	first := mondayEntries[0]
	assert.Equal(t, model.FreeInterval{Start: 8, End: 9, AfterBuilding: "MY"}, first.Interval)
	require.Len(t, first.TopPaths, 1)
	assert.Equal(t, "MY", first.TopPaths[0].Path.BuildingCode)
	assert.Equal(t, 1, first.TopPaths[0].Path.Len())

	second := mondayEntries[1]
	assert.Equal(t, model.FreeInterval{Start: 10, End: 21, BeforeBuilding: "MY"}, second.Interval)
	require.Len(t, second.TopPaths, 1)

	// Tuesday has no availability data: intervals still emitted, with
	// empty path lists.
	tuesday := schedule[dayKeyUTC(2026, 9, 1)]
	require.Len(t, tuesday, 2)
	assert.Empty(t, tuesday[0].TopPaths)
	assert.Empty(t, tuesday[1].TopPaths)
}

func TestBuildWeekSkipsPastDays(t *testing.T) {
	// Wednesday: Monday and Tuesday are gone, Wednesday-Friday remain.
	now := time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)

	b := weekBuilder(nil)
	schedule := b.BuildWeek(NewCursorCache(time.UTC), nil, now)

	require.Len(t, schedule, 3)
	assert.NotContains(t, schedule, dayKeyUTC(2026, 8, 31))
	assert.NotContains(t, schedule, dayKeyUTC(2026, 9, 1))
	require.Contains(t, schedule, dayKeyUTC(2026, 9, 2))
	require.Contains(t, schedule, dayKeyUTC(2026, 9, 4))

	// No events: every remaining day is one whole-window free interval.
	wednesday := schedule[dayKeyUTC(2026, 9, 2)]
	require.Len(t, wednesday, 1)
	assert.Equal(t, model.FreeInterval{Start: 8, End: 21}, wednesday[0].Interval)
}

func TestBuildWeekFavoritesWinTies(t *testing.T) {
	now := time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)
	monday := dayKeyUTC(2026, 8, 31)

	// Identical geometry and coverage; only the favorite discount differs.
	mkBuilding := func(code string) model.Building {
		return model.Building{
			Code:   code,
			LatLng: [2]float64{2, 2},
			Rooms:  []model.RoomSlot{{Room: "100"}},
			AvailableRooms: map[int64]map[int][]string{
				monday: hoursOpen("100", 8, 21),
			},
		}
	}

	events := []model.Event{*dailyEvent("ev-class", 30)}
	b := weekBuilder([]model.Building{mkBuilding("AA"), mkBuilding("BB")})
	b.Favorites = []string{"BB"}

	schedule := b.BuildWeek(NewCursorCache(time.UTC), events, now)
	first := schedule[monday][0]
	require.NotEmpty(t, first.TopPaths)
	assert.Equal(t, "BB", first.TopPaths[0].Path.BuildingCode)
	assert.Equal(t, first.TopPaths[1].Score/100, first.TopPaths[0].Score)
}
