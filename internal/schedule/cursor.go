package schedule

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "roomsync/internal/log"
	"roomsync/internal/model"
)

// Cursor incrementally expands one recurring event. It pulls occurrences
// from the event's recurrence iterator on demand and remembers how far it
// has advanced, so repeated day queries never re-scan from the rule's start.
//
// Advancing is monotonic: the cursor is never rewound, and days already
// recorded are never mutated (beyond gaining additional same-day start
// times while that day is still being pulled). The iterator is assumed to
// always move forward in time per step; the day bound is what terminates
// each advance.
type Cursor struct {
	event *model.Event
	loc   *time.Location

	// next yields the event's occurrence start times in order.
	next      func() (time.Time, bool)
	exhausted bool

	// lastCheckedDay is the day key of the furthest pulled occurrence.
	// Zero means the cursor has not pulled anything yet.
	lastCheckedDay int64

	// occurrencesByDay only ever contains days <= lastCheckedDay.
	occurrencesByDay map[int64]*model.Occurrence
}

// NewCursor builds a cursor for a recurring event. Occurrence times are
// normalized into loc before day bucketing. A malformed RRULE yields an
// already-exhausted cursor; the error is logged once here rather than on
// every query.
func NewCursor(event *model.Event, loc *time.Location) *Cursor {
	c := &Cursor{
		event:            event,
		loc:              loc,
		occurrencesByDay: make(map[int64]*model.Occurrence),
	}

	r, err := rrule.StrToRRule(event.RawRRule)
	if err != nil {
		appLog.Error("cursor: failed to parse RRULE", err, "uid", event.UID, "rrule", event.RawRRule)
		c.exhausted = true
		return c
	}
	r.DTStart(event.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range event.ExDates {
		// Align EXDATE location with the event's start for exact matching.
		set.ExDate(ex.In(event.Start.Location()))
	}

	c.next = set.Iterator()
	return c
}

// Advance pulls occurrences until the iterator is exhausted or the next
// occurrence falls on a day strictly after throughDay. Idempotent: once the
// cursor has moved past throughDay, calling Advance again is a no-op.
//
// Pulling continues through the whole of throughDay (not just to its first
// occurrence) so that an event occurring twice on the same day is fully
// recorded before the day is served.
func (c *Cursor) Advance(throughDay int64) {
	for !c.exhausted && c.lastCheckedDay <= throughDay {
		t, ok := c.next()
		if !ok {
			c.exhausted = true
			return
		}

		local := t.In(c.loc)
		day := model.DayKey(local)
		timeOfDay := float64(local.Hour()) + float64(local.Minute())/60

		if occ, seen := c.occurrencesByDay[day]; seen {
			occ.TimesOfDay = append(occ.TimesOfDay, timeOfDay)
		} else {
			c.occurrencesByDay[day] = &model.Occurrence{
				UID:          c.event.UID,
				Day:          day,
				Summary:      c.event.Summary,
				Description:  c.event.Description,
				Location:     c.event.Location,
				Duration:     c.event.Duration,
				TimesOfDay:   []float64{timeOfDay},
				BuildingCode: c.event.BuildingCode(),
			}
		}

		if day > c.lastCheckedDay {
			c.lastCheckedDay = day
		}
	}
}

// LastCheckedDay returns the furthest day key the cursor has pulled, or
// zero if it has not advanced yet.
func (c *Cursor) LastCheckedDay() int64 {
	return c.lastCheckedDay
}

// OccurrenceOn returns the cached occurrence for the given day key, or nil.
// Callers must Advance past the day first.
func (c *Cursor) OccurrenceOn(day int64) *model.Occurrence {
	return c.occurrencesByDay[day]
}

// CursorCache owns one cursor per recurring event, keyed by UID. It lives
// for the lifetime of one loaded calendar and is discarded wholesale when
// the calendar is replaced.
type CursorCache struct {
	loc     *time.Location
	cursors map[string]*Cursor
}

// NewCursorCache creates an empty cache resolving occurrence times in loc.
func NewCursorCache(loc *time.Location) *CursorCache {
	return &CursorCache{
		loc:     loc,
		cursors: make(map[string]*Cursor),
	}
}

// Advance ensures the event's cursor has been pulled through throughDay,
// creating the cursor on first use. Non-recurring events are not handled
// here and return nil.
func (cc *CursorCache) Advance(event *model.Event, throughDay int64) *Cursor {
	if !event.Recurring() {
		return nil
	}
	c, ok := cc.cursors[event.UID]
	if !ok {
		c = NewCursor(event, cc.loc)
		cc.cursors[event.UID] = c
	}
	c.Advance(throughDay)
	return c
}
