package schedule

import (
	"time"

	"roomsync/internal/model"
)

// OccurrencesOnDay returns every occurrence overlapping the given day:
// recurring events through their cursors, single events by direct day
// equality. day may be any time within the target day; it is truncated to
// the cache's timezone midnight.
func (cc *CursorCache) OccurrencesOnDay(events []model.Event, day time.Time) []model.Occurrence {
	dayKey := model.DayKey(day.In(cc.loc))

	out := make([]model.Occurrence, 0)
	for i := range events {
		ev := &events[i]

		if ev.Recurring() {
			c := cc.Advance(ev, dayKey)
			if occ := c.OccurrenceOn(dayKey); occ != nil {
				out = append(out, *occ)
			}
			continue
		}

		local := ev.Start.In(cc.loc)
		if model.DayKey(local) != dayKey {
			continue
		}
		out = append(out, model.Occurrence{
			UID:          ev.UID,
			Day:          dayKey,
			Summary:      ev.Summary,
			Description:  ev.Description,
			Location:     ev.Location,
			Duration:     ev.Duration,
			TimesOfDay:   []float64{float64(local.Hour()) + float64(local.Minute())/60},
			BuildingCode: ev.BuildingCode(),
		})
	}
	return out
}
