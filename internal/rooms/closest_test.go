package rooms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsync/internal/model"
)

func TestClosestRoomsSortedByDistance(t *testing.T) {
	near := testBuilding("NEAR", []string{"101"}, map[int][]string{14: {"101"}})
	near.LatLng = [2]float64{1, 1}
	far := testBuilding("FAR", []string{"201"}, map[int][]string{14: {"201"}})
	far.LatLng = [2]float64{5, 5}
	closed := testBuilding("CLOSED", []string{"301"}, map[int][]string{9: {"301"}})
	closed.LatLng = [2]float64{0, 0}

	buildings := []model.Building{*far, *near, *closed}

	open := ClosestRooms(buildings, testDay, 14, 0, 0)
	require.Len(t, open, 2)
	assert.Equal(t, "NEAR", open[0].Code)
	assert.Equal(t, "FAR", open[1].Code)
	assert.Equal(t, []string{"101"}, open[0].AvailableRooms)
}

func TestClosestRoomsNoData(t *testing.T) {
	b := testBuilding("BA", []string{"101"}, map[int][]string{14: {"101"}})
	// Different day: the building has no table for it.
	assert.Empty(t, ClosestRooms([]model.Building{*b}, testDay+86_400_000, 14, 0, 0))
}
