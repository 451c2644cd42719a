package rooms

import (
	"roomsync/internal/model"
)

// BuildWindows scans one building's per-hour availability table for the
// given day and accumulates, per room, the maximal contiguous [start, end)
// hour spans inside [floorStart, ceilEnd) during which that room is open.
// A gap of one or more hours ends the current span and starts a new one.
//
// Rooms never marked open in the range produce no entry. A day absent from
// the table means no data and yields an empty map.
func BuildWindows(b *model.Building, day int64, floorStart, ceilEnd int) map[string][]model.Window {
	windows := make(map[string][]model.Window)

	hourRooms := b.AvailableRooms[day]
	if hourRooms == nil {
		return windows
	}

	type run struct {
		start, end int
		open       bool
	}
	runs := make(map[string]*run, len(b.Rooms))
	for _, slot := range b.Rooms {
		runs[slot.Room] = &run{}
	}

	for hour := floorStart; hour < ceilEnd; hour++ {
		for _, room := range hourRooms[hour] {
			r, known := runs[room]
			if !known {
				// Feed row for a room the building metadata does not list.
				continue
			}
			switch {
			case !r.open:
				// First time this room is open in the range.
				r.start = hour
				r.end = hour + 1
				r.open = true
			case r.end < hour:
				// Gap: close the previous span and start a new one.
				windows[room] = append(windows[room], model.Window{Start: r.start, End: r.end})
				r.start = hour
				r.end = hour + 1
			default:
				// Continuation of the current span.
				r.end = hour + 1
			}
		}
	}

	// Close the span still open at the end of the range, per room.
	for _, slot := range b.Rooms {
		if r := runs[slot.Room]; r.open {
			windows[slot.Room] = append(windows[slot.Room], model.Window{Start: r.start, End: r.end})
		}
	}

	return windows
}
