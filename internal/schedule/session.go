package schedule

import (
	"time"

	"roomsync/internal/ics"
	appLog "roomsync/internal/log"
	"roomsync/internal/model"
	"roomsync/internal/rooms"
)

// Session holds one loaded calendar together with the availability
// snapshot and preferences it is matched against. The recurrence cursor
// cache is owned here and rebuilt whenever the calendar is replaced, so
// stale expansions can never leak across calendars.
//
// A Session is not safe for concurrent use; schedule building advances the
// cursor cache. Callers that share a session across goroutines serialize
// access themselves.
type Session struct {
	loc *time.Location

	events []model.Event
	cache  *CursorCache

	buildings []model.Building
	favorites []string

	workStart float64
	workEnd   float64

	topN             int
	perBuildingLimit int
}

// NewSession creates an empty session resolving all wall-clock values and
// day keys in loc.
func NewSession(loc *time.Location, workStart, workEnd float64, topN, perBuildingLimit int) *Session {
	if loc == nil {
		loc = time.Local
	}
	return &Session{
		loc:              loc,
		cache:            NewCursorCache(loc),
		workStart:        workStart,
		workEnd:          workEnd,
		topN:             topN,
		perBuildingLimit: perBuildingLimit,
	}
}

// SetCalendar replaces the loaded calendar and discards the cursor cache.
func (s *Session) SetCalendar(events []model.Event) {
	s.events = events
	s.cache = NewCursorCache(s.loc)
	appLog.Info("calendar loaded", "event_count", len(events))
}

// SetBuildings replaces the availability snapshot.
func (s *Session) SetBuildings(buildings []model.Building) {
	s.buildings = buildings
	appLog.Info("availability loaded", "building_count", len(buildings))
}

// SetFavorites replaces the preferred building codes.
func (s *Session) SetFavorites(favorites []string) {
	s.favorites = favorites
}

// Favorites returns the current preferred building codes.
func (s *Session) Favorites() []string {
	return s.favorites
}

// Buildings returns the current availability snapshot.
func (s *Session) Buildings() []model.Building {
	return s.buildings
}

// Location returns the session timezone.
func (s *Session) Location() *time.Location {
	return s.loc
}

// CalendarReady reports whether a calendar has been loaded.
func (s *Session) CalendarReady() bool {
	return s.events != nil
}

// BuildingsReady reports whether availability data has been loaded.
func (s *Session) BuildingsReady() bool {
	return s.buildings != nil
}

// BestRoomSchedule matches the calendar's free intervals against room
// availability for the work week containing now. It returns nil until both
// the calendar and the availability snapshot are loaded; callers gate on
// the readiness accessors rather than treating that as an error.
func (s *Session) BestRoomSchedule(now time.Time) model.Schedule {
	if !s.CalendarReady() || !s.BuildingsReady() {
		return nil
	}

	builder := &Builder{
		Buildings:        s.buildings,
		Favorites:        s.favorites,
		WorkStart:        s.workStart,
		WorkEnd:          s.workEnd,
		TopN:             s.topN,
		PerBuildingLimit: s.perBuildingLimit,
	}
	return builder.BuildWeek(s.cache, s.events, now)
}

// ScheduleICS builds the week schedule and renders it as an ICS document.
// Empty until both inputs are ready.
func (s *Session) ScheduleICS(now time.Time) string {
	schedule := s.BestRoomSchedule(now)
	if schedule == nil {
		return ""
	}
	return ics.ExportSchedule(schedule, s.loc)
}

// ClosestRooms returns the buildings with rooms open at the given local
// date and hour, nearest first.
func (s *Session) ClosestRooms(year, month, day, hour int, lat, lng float64) []rooms.OpenBuilding {
	key := model.DayKey(time.Date(year, time.Month(month), day, 0, 0, 0, 0, s.loc))
	return rooms.ClosestRooms(s.buildings, key, hour, lat, lng)
}
