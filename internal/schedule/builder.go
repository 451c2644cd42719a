package schedule

import (
	"time"

	appLog "roomsync/internal/log"
	"roomsync/internal/model"
	"roomsync/internal/rooms"
)

// Builder runs the full matching pipeline over a work week: day occurrences
// to free intervals, then per-building path search, scoring and top-N
// selection for each interval.
type Builder struct {
	Buildings []model.Building
	Favorites []string

	WorkStart float64
	WorkEnd   float64

	TopN             int
	PerBuildingLimit int

	// Comparator breaks room ties during path extension; nil means the
	// suffix-similarity default.
	Comparator rooms.RoomComparator
}

// BuildWeek produces the day-keyed schedule for the Monday–Friday week
// containing now. Days strictly before now's day are skipped. An interval
// with no full-coverage path in any building is still emitted, with an
// empty path list.
func (b *Builder) BuildWeek(cache *CursorCache, events []model.Event, now time.Time) model.Schedule {
	local := now.In(cache.loc)
	todayKey := model.DayKey(local)

	// Back up to the Sunday of this week; the loop below then visits
	// Monday through Friday.
	weekStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, cache.loc)
	weekStart = weekStart.AddDate(0, 0, -int(weekStart.Weekday()))

	schedule := make(model.Schedule)
	for i := 0; i < 5; i++ {
		weekStart = weekStart.AddDate(0, 0, 1)
		dayKey := model.DayKey(weekStart)
		if dayKey < todayKey {
			continue
		}

		occurrences := cache.OccurrencesOnDay(events, weekStart)
		intervals := FreeIntervals(occurrences, b.WorkStart, b.WorkEnd)

		entries := make([]model.IntervalPaths, 0, len(intervals))
		for _, iv := range intervals {
			entries = append(entries, model.IntervalPaths{
				Interval: iv,
				TopPaths: b.bestPaths(dayKey, iv),
			})
		}
		schedule[dayKey] = entries

		appLog.Debug("day scheduled",
			"day", weekStart.Format("2006-01-02"),
			"occurrences", len(occurrences),
			"free_intervals", len(intervals),
		)
	}
	return schedule
}

// bestPaths searches every building for paths covering the interval, scores
// them against the interval's bounding buildings, and keeps the top set.
func (b *Builder) bestPaths(dayKey int64, iv model.FreeInterval) []model.ScoredPath {
	from := b.latLngOf(iv.BeforeBuilding)
	to := b.latLngOf(iv.AfterBuilding)

	scored := make([]model.ScoredPath, 0)
	for i := range b.Buildings {
		building := &b.Buildings[i]
		for _, path := range rooms.SearchPaths(building, dayKey, iv.Start, iv.End, b.Comparator) {
			scored = append(scored, model.ScoredPath{
				Score: rooms.ScorePath(path, from, building.LatLng, to, b.Favorites),
				Path:  path,
			})
		}
	}
	return rooms.SelectTop(scored, b.TopN, b.PerBuildingLimit)
}

// latLngOf resolves a building code to coordinates, defaulting to the
// origin when the code is empty or unknown.
func (b *Builder) latLngOf(code string) [2]float64 {
	if code == "" {
		return [2]float64{}
	}
	for i := range b.Buildings {
		if b.Buildings[i].Code == code {
			return b.Buildings[i].LatLng
		}
	}
	return [2]float64{}
}
