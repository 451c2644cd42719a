package rooms

import (
	"sort"

	"roomsync/internal/model"
)

// SelectTop ranks scored paths ascending and picks at most n of them, with
// no more than perBuildingCap drawn from any single building. The cap keeps
// one well-placed building from crowding out every suggestion.
//
// The result is sorted ascending by score; equal scores keep their input
// order.
func SelectTop(paths []model.ScoredPath, n, perBuildingCap int) []model.ScoredPath {
	sorted := make([]model.ScoredPath, len(paths))
	copy(sorted, paths)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })

	top := make([]model.ScoredPath, 0, n)
	perBuilding := make(map[string]int)
	for _, sp := range sorted {
		if len(top) >= n {
			break
		}
		if perBuilding[sp.Path.BuildingCode] >= perBuildingCap {
			continue
		}
		top = append(top, sp)
		perBuilding[sp.Path.BuildingCode]++
	}
	return top
}
