package model

import (
	"strings"
	"time"
)

// Event represents a logical calendar event before recurrence expansion.
// Immutable once parsed.
type Event struct {
	UID string

	Summary     string
	Description string
	Location    string

	// Start is the first (or only) start time in the event's own timezone.
	Start    time.Time
	Duration time.Duration

	// RawRRule is the unexpanded RRULE string; empty for single events.
	RawRRule string
	ExDates  []time.Time
}

// Recurring reports whether the event carries a recurrence rule.
func (e *Event) Recurring() bool {
	return e.RawRRule != ""
}

// BuildingCode derives the building code as the first whitespace-delimited
// token of the location. Empty location means no known building.
func (e *Event) BuildingCode() string {
	return BuildingCodeOf(e.Location)
}

// BuildingCodeOf extracts a building code from a free-form location string.
func BuildingCodeOf(location string) string {
	fields := strings.Fields(location)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Occurrence is a materialized instance of an Event on one calendar day.
// An event may occur more than once on the same day; such occurrences are
// merged into one Occurrence with multiple TimesOfDay entries.
type Occurrence struct {
	UID string

	// Day is the Unix-milli timestamp of local midnight of the day.
	Day int64

	Summary     string
	Description string
	Location    string

	Duration time.Duration

	// TimesOfDay holds fractional-hour start times (8:30 = 8.5).
	TimesOfDay []float64

	BuildingCode string
}

// RoomSlot describes one room of a building as reported by the feed.
type RoomSlot struct {
	Room                 string `json:"room"`
	Capacity             int    `json:"capacity"`
	WheelchairAccessible bool   `json:"wheelchair_accessible"`
}

// Building is an immutable availability snapshot for one building.
type Building struct {
	Code    string     `json:"code"`
	Name    string     `json:"name"`
	Address string     `json:"address"`
	LatLng  [2]float64 `json:"latlng"`
	Rooms   []RoomSlot `json:"rooms"`

	// AvailableRooms maps day timestamp -> hour of day -> open room ids.
	AvailableRooms map[int64]map[int][]string `json:"available_rooms"`
}

// FreeInterval is a gap in a day's schedule, in fractional hours.
// Before/After name the buildings of the classes bounding the gap; empty
// at the edges of the day.
type FreeInterval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`

	BeforeBuilding string `json:"before_building,omitempty"`
	AfterBuilding  string `json:"after_building,omitempty"`
}

// Window is a maximal contiguous [Start, End) span of integer hours during
// which one room is open.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Covers reports whether the given hour falls inside the window.
func (w Window) Covers(hour int) bool {
	return w.Start <= hour && hour < w.End
}

// PathStep is one room/interval leg of a candidate path.
type PathStep struct {
	Room     string `json:"room"`
	Interval Window `json:"interval"`
}

// CandidatePath is an ordered room sequence inside one building whose step
// intervals are contiguous and jointly cover a target hour range exactly.
type CandidatePath struct {
	BuildingCode string     `json:"building_code"`
	Steps        []PathStep `json:"steps"`
}

// Len returns the number of room switches plus one.
func (p CandidatePath) Len() int {
	return len(p.Steps)
}

// End returns the hour the path currently reaches, or 0 for an empty path.
func (p CandidatePath) End() int {
	if len(p.Steps) == 0 {
		return 0
	}
	return p.Steps[len(p.Steps)-1].Interval.End
}

// ScoredPath pairs a candidate path with its score. Lower is better.
type ScoredPath struct {
	Score float64       `json:"score"`
	Path  CandidatePath `json:"path"`
}

// IntervalPaths is one schedule entry: a free interval and the best paths
// found for it. TopPaths may be empty, meaning no single building covers
// the whole interval.
type IntervalPaths struct {
	Interval FreeInterval `json:"interval"`
	TopPaths []ScoredPath `json:"top_paths"`
}

// Schedule maps day timestamps to that day's interval entries.
type Schedule map[int64][]IntervalPaths

// DayKey returns the Unix-milli timestamp of midnight of t's day, in t's
// location. All day-keyed maps in the system use this representation.
func DayKey(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).UnixMilli()
}

// DayTime converts a day key back into a midnight time in loc.
func DayTime(key int64, loc *time.Location) time.Time {
	return time.UnixMilli(key).In(loc)
}
