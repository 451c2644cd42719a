package ics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"roomsync/internal/model"
)

const noCoverageDescription = "There is no building with a room open for this entire break. " +
	"Check sync search for individual rooms."

// ExportSchedule renders a week schedule into a portable ICS document: one
// VEVENT per free interval, titled by break length, with the suggested
// room paths in the description. loc is the timezone day keys were built in.
func ExportSchedule(schedule model.Schedule, loc *time.Location) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//roomsync//schedule//EN")

	// Deterministic output: days ascending, intervals in schedule order.
	days := make([]int64, 0, len(schedule))
	for day := range schedule {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	now := time.Now()
	for _, day := range days {
		dayStart := model.DayTime(day, loc)
		for _, entry := range schedule[day] {
			ev := cal.AddEvent(intervalUID(day, entry.Interval))
			ev.SetDtStampTime(now)

			start := intervalClock(dayStart, entry.Interval.Start)
			end := intervalClock(dayStart, entry.Interval.End)
			ev.SetStartAt(start)
			ev.SetEndAt(end)

			hours := int(math.Floor(entry.Interval.End - entry.Interval.Start))
			ev.SetSummary(fmt.Sprintf("%d Hour Break", hours))
			ev.SetDescription(describePaths(entry.TopPaths))
		}
	}

	return cal.Serialize()
}

// intervalUID derives a stable per-interval UID from the day key and the
// interval's start minute.
func intervalUID(day int64, iv model.FreeInterval) string {
	return fmt.Sprintf("%d-%04d@roomsync", day, int(iv.Start*60))
}

// intervalClock converts a fractional hour-of-day into a concrete time on
// the given day.
func intervalClock(dayStart time.Time, hour float64) time.Time {
	h := int(math.Floor(hour))
	m := int(math.Round((hour - math.Floor(hour)) * 60))
	return dayStart.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

// describePaths renders the suggested paths as human-readable text, one
// building per line: "BA: 1130(10-12) -> 1170(12-14)".
func describePaths(paths []model.ScoredPath) string {
	if len(paths) == 0 {
		return noCoverageDescription
	}

	var b strings.Builder
	b.WriteString("These rooms are open for your entire break:\n\n")
	for _, sp := range paths {
		b.WriteString(sp.Path.BuildingCode)
		b.WriteString(": ")
		for i, step := range sp.Path.Steps {
			if i > 0 {
				b.WriteString(" -> ")
			}
			fmt.Fprintf(&b, "%s(%d-%d)", step.Room, step.Interval.Start, step.Interval.End)
		}
		b.WriteString("\n")
	}
	return b.String()
}
