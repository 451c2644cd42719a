package rooms

import (
	"sort"

	"roomsync/internal/model"
)

// OpenBuilding is one building with rooms open at a queried hour.
type OpenBuilding struct {
	Building       string           `json:"building"`
	Code           string           `json:"code"`
	Address        string           `json:"address"`
	LatLng         [2]float64       `json:"latlng"`
	Rooms          []model.RoomSlot `json:"rooms"`
	AvailableRooms []string         `json:"available_rooms"`
}

// ClosestRooms returns the buildings that have at least one room open at
// the given day and hour, sorted ascending by squared distance from the
// queried point.
func ClosestRooms(buildings []model.Building, day int64, hour int, lat, lng float64) []OpenBuilding {
	from := [2]float64{lat, lng}

	open := make([]OpenBuilding, 0)
	for i := range buildings {
		b := &buildings[i]
		hourRooms := b.AvailableRooms[day]
		if hourRooms == nil {
			continue
		}
		rooms := hourRooms[hour]
		if len(rooms) == 0 {
			continue
		}
		open = append(open, OpenBuilding{
			Building:       b.Name,
			Code:           b.Code,
			Address:        b.Address,
			LatLng:         b.LatLng,
			Rooms:          b.Rooms,
			AvailableRooms: rooms,
		})
	}

	sort.SliceStable(open, func(i, j int) bool {
		return SqDist(open[i].LatLng, from) < SqDist(open[j].LatLng, from)
	})
	return open
}
