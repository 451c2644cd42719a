package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"roomsync/internal/fetch"
	appLog "roomsync/internal/log"
	"roomsync/internal/model"
)

// bookingRow is one open-room record of the third-party booking feed.
type bookingRow struct {
	// BookDate is a yymmdd integer, e.g. 260901.
	BookDate int    `json:"book_date"`
	Building string `json:"building"`
	Room     string `json:"room"`
	// Time is "HH:MM" wall-clock; availability granularity is one hour, so
	// minutes are truncated.
	Time string `json:"time"`
}

type bookingFeed struct {
	Items []bookingRow `json:"items"`
}

type roomRow struct {
	RoomNumber           string `json:"room_number"`
	Capacity             int    `json:"capacity"`
	WheelchairAccessible bool   `json:"wheelchair_accessible"`
}

// buildingRow is one building of the metadata feed.
type buildingRow struct {
	Code    string    `json:"bd_code"`
	Name    string    `json:"bd_name"`
	Address string    `json:"bd_address"`
	Marker  string    `json:"bd_marker"` // "lat,lng"
	Rooms   []roomRow `json:"rooms"`
}

type buildingFeed struct {
	Items []buildingRow `json:"items"`
}

// IngestFeeds wrangles the raw booking and building-metadata payloads into
// the availability snapshot the matcher consumes: each building carries a
// day-keyed, hour-keyed table of open room ids. Day keys are midnights in
// loc. Rows naming a building absent from the metadata are logged and
// skipped.
func IngestFeeds(bookings, meta []byte, loc *time.Location) ([]model.Building, error) {
	var bf buildingFeed
	if err := json.Unmarshal(meta, &bf); err != nil {
		return nil, err
	}
	var qf bookingFeed
	if err := json.Unmarshal(bookings, &qf); err != nil {
		return nil, err
	}

	buildings := make([]model.Building, 0, len(bf.Items))
	byCode := make(map[string]int, len(bf.Items))
	for _, row := range bf.Items {
		latLng, err := parseMarker(row.Marker)
		if err != nil {
			appLog.Error("feed: bad building marker", err, "code", row.Code, "marker", row.Marker)
		}
		rooms := make([]model.RoomSlot, 0, len(row.Rooms))
		for _, r := range row.Rooms {
			rooms = append(rooms, model.RoomSlot{
				Room:                 r.RoomNumber,
				Capacity:             r.Capacity,
				WheelchairAccessible: r.WheelchairAccessible,
			})
		}
		byCode[row.Code] = len(buildings)
		buildings = append(buildings, model.Building{
			Code:           row.Code,
			Name:           row.Name,
			Address:        row.Address,
			LatLng:         latLng,
			Rooms:          rooms,
			AvailableRooms: make(map[int64]map[int][]string),
		})
	}

	skipped := 0
	for _, row := range qf.Items {
		idx, known := byCode[row.Building]
		if !known {
			skipped++
			appLog.Debug("feed: room has no building", "building", row.Building, "room", row.Room)
			continue
		}

		day, err := parseBookDate(row.BookDate, loc)
		if err != nil {
			skipped++
			appLog.Error("feed: bad book_date", err, "book_date", row.BookDate)
			continue
		}
		hour, err := parseFeedHour(row.Time)
		if err != nil {
			skipped++
			appLog.Error("feed: bad time", err, "time", row.Time)
			continue
		}

		avail := buildings[idx].AvailableRooms
		if avail[day] == nil {
			avail[day] = make(map[int][]string)
		}
		avail[day][hour] = append(avail[day][hour], row.Room)
	}

	appLog.Info("feed ingested",
		"buildings", len(buildings),
		"rows", len(qf.Items),
		"skipped", skipped,
	)
	return buildings, nil
}

// FetchBuildings fetches both feed endpoints through the shared cached
// fetcher and ingests them.
func FetchBuildings(ctx context.Context, f *fetch.Fetcher, availabilityURL, buildingsURL string, loc *time.Location) ([]model.Building, error) {
	bookings, err := f.FetchOne(ctx, fetch.Source{ID: "availability", URL: availabilityURL})
	if err != nil {
		return nil, err
	}
	meta, err := f.FetchOne(ctx, fetch.Source{ID: "buildings", URL: buildingsURL})
	if err != nil {
		return nil, err
	}
	return IngestFeeds(bookings.Body, meta.Body, loc)
}

// parseBookDate converts a yymmdd integer into the day key of that date's
// midnight in loc. Two-digit years are anchored at 2000.
func parseBookDate(v int, loc *time.Location) (int64, error) {
	if v < 0 {
		return 0, errors.New("negative book_date")
	}
	year := 2000 + v/10000
	month := (v / 100) % 100
	day := v % 100
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, errors.New("book_date out of range")
	}
	return model.DayKey(time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)), nil
}

// parseFeedHour extracts the integer hour from an "HH:MM" string.
func parseFeedHour(v string) (int, error) {
	h, _, ok := strings.Cut(v, ":")
	if !ok {
		return 0, errors.New("time not in HH:MM form")
	}
	hour, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, err
	}
	if hour < 0 || hour > 23 {
		return 0, errors.New("hour out of range")
	}
	return hour, nil
}

// parseMarker parses a "lat,lng" marker string into a float pair.
func parseMarker(v string) ([2]float64, error) {
	latStr, lngStr, ok := strings.Cut(v, ",")
	if !ok {
		return [2]float64{}, errors.New("marker not in lat,lng form")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return [2]float64{}, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return [2]float64{}, err
	}
	return [2]float64{lat, lng}, nil
}
