package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calendarDoc(veventLines ...string) []byte {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
	}
	lines = append(lines, veventLines...)
	lines = append(lines, "END:VCALENDAR", "")
	return []byte(strings.Join(lines, "\r\n"))
}

func TestParseCalendarRecurringEvent(t *testing.T) {
	body := calendarDoc(
		"BEGIN:VEVENT",
		"UID:ev-1",
		"DTSTART:20260831T090000Z",
		"DTEND:20260831T100000Z",
		"SUMMARY:Algorithms",
		"LOCATION:MY 150",
		"RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=12",
		"EXDATE:20260907T090000Z",
		"END:VEVENT",
	)

	events, err := ParseCalendar("test", body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "ev-1", ev.UID)
	assert.Equal(t, "Algorithms", ev.Summary)
	assert.Equal(t, "MY 150", ev.Location)
	assert.Equal(t, "MY", ev.BuildingCode())
	assert.True(t, ev.Recurring())
	assert.Equal(t, time.Hour, ev.Duration)
	assert.True(t, ev.Start.Equal(time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)))
	require.Len(t, ev.ExDates, 1)
	assert.True(t, ev.ExDates[0].Equal(time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)))
}

func TestParseCalendarSkipsBadVEvents(t *testing.T) {
	body := calendarDoc(
		"BEGIN:VEVENT",
		"DTSTART:20260831T090000Z",
		"DTEND:20260831T100000Z",
		"SUMMARY:No UID",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ev-good",
		"DTSTART:20260901T130000Z",
		"DTEND:20260901T143000Z",
		"SUMMARY:Good",
		"END:VEVENT",
	)

	events, err := ParseCalendar("test", body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev-good", events[0].UID)
	assert.False(t, events[0].Recurring())
	assert.Equal(t, 90*time.Minute, events[0].Duration)
}

func TestParseCalendarEmptyBody(t *testing.T) {
	_, err := ParseCalendar("test", nil)
	assert.Error(t, err)
}

func TestParseICSTimeForms(t *testing.T) {
	utc, err := parseICSTime("20260101T090000Z")
	require.NoError(t, err)
	assert.True(t, utc.Equal(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)))

	local, err := parseICSTime("20260101T090000")
	require.NoError(t, err)
	assert.Equal(t, 9, local.Hour())

	dateOnly, err := parseICSTime("20260101")
	require.NoError(t, err)
	assert.Equal(t, 0, dateOnly.Hour())

	_, err = parseICSTime("")
	assert.Error(t, err)
}
