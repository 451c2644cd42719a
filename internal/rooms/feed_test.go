package rooms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsync/internal/fetch"
	"roomsync/internal/model"
)

const sampleBookings = `{
  "items": [
    {"book_date": 260901, "building": "BA", "room": "1130", "time": "10:00"},
    {"book_date": 260901, "building": "BA", "room": "1130", "time": "11:00"},
    {"book_date": 260901, "building": "BA", "room": "2208", "time": "10:00"},
    {"book_date": 260902, "building": "MY", "room": "150", "time": "14:00"},
    {"book_date": 260901, "building": "ZZ", "room": "1", "time": "10:00"}
  ]
}`

const sampleBuildings = `{
  "items": [
    {
      "bd_code": "BA",
      "bd_name": "Bahen Centre",
      "bd_address": "40 St George St",
      "bd_marker": "43.6596,-79.3976",
      "rooms": [
        {"room_number": "1130", "capacity": 60, "wheelchair_accessible": true},
        {"room_number": "2208", "capacity": 30, "wheelchair_accessible": false}
      ]
    },
    {
      "bd_code": "MY",
      "bd_name": "Myhal Centre",
      "bd_address": "55 St George St",
      "bd_marker": "43.6606,-79.3966",
      "rooms": [{"room_number": "150", "capacity": 468, "wheelchair_accessible": true}]
    }
  ]
}`

func TestIngestFeeds(t *testing.T) {
	buildings, err := IngestFeeds([]byte(sampleBookings), []byte(sampleBuildings), time.UTC)
	require.NoError(t, err)
	require.Len(t, buildings, 2)

	ba := buildings[0]
	assert.Equal(t, "BA", ba.Code)
	assert.Equal(t, "Bahen Centre", ba.Name)
	assert.InDelta(t, 43.6596, ba.LatLng[0], 1e-9)
	assert.InDelta(t, -79.3976, ba.LatLng[1], 1e-9)
	require.Len(t, ba.Rooms, 2)
	assert.True(t, ba.Rooms[0].WheelchairAccessible)

	day := model.DayKey(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, ba.AvailableRooms[day])
	assert.ElementsMatch(t, []string{"1130", "2208"}, ba.AvailableRooms[day][10])
	assert.Equal(t, []string{"1130"}, ba.AvailableRooms[day][11])

	my := buildings[1]
	day2 := model.DayKey(time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, []string{"150"}, my.AvailableRooms[day2][14])

	// The ZZ row names a building missing from the metadata; it is skipped,
	// not fatal.
}

func TestIngestFeedsBadPayloads(t *testing.T) {
	_, err := IngestFeeds([]byte("not json"), []byte(sampleBuildings), time.UTC)
	assert.Error(t, err)

	_, err = IngestFeeds([]byte(sampleBookings), []byte("not json"), time.UTC)
	assert.Error(t, err)
}

func TestFetchBuildings(t *testing.T) {
	bookingsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBookings))
	}))
	defer bookingsSrv.Close()

	metaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBuildings))
	}))
	defer metaSrv.Close()

	f := fetch.NewFetcher(t.TempDir())
	buildings, err := FetchBuildings(context.Background(), f, bookingsSrv.URL, metaSrv.URL, time.UTC)
	require.NoError(t, err)
	assert.Len(t, buildings, 2)
}

func TestParseHelpers(t *testing.T) {
	day, err := parseBookDate(260901, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, model.DayKey(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)), day)

	_, err = parseBookDate(261345, time.UTC)
	assert.Error(t, err)

	hour, err := parseFeedHour("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, hour)

	_, err = parseFeedHour("nine")
	assert.Error(t, err)

	latLng, err := parseMarker("43.66,-79.39")
	require.NoError(t, err)
	assert.InDelta(t, 43.66, latLng[0], 1e-9)

	_, err = parseMarker("garbage")
	assert.Error(t, err)
}
