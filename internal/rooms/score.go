package rooms

import (
	"slices"

	"roomsync/internal/model"
)

// favoriteDiscount divides the score of paths through favorite buildings.
// Lower scores are better, so this is a strong preference boost.
const favoriteDiscount = 100

// SqDist returns the squared lat/lng distance between two points.
func SqDist(a, b [2]float64) float64 {
	dLat := a[0] - b[0]
	dLng := a[1] - b[1]
	return dLat*dLat + dLng*dLng
}

// ScorePath scores a candidate path by the geometric detour it implies
// (previous class -> this building -> next class, squared distances)
// multiplied by the number of room switches. Lower is better. Callers pass
// (0,0) for from/to when the adjacent building is unknown (interval at the
// day's edge).
func ScorePath(path model.CandidatePath, from, at, to [2]float64, favorites []string) float64 {
	score := (SqDist(from, at) + SqDist(at, to)) * float64(path.Len())
	if slices.Contains(favorites, path.BuildingCode) {
		return score / favoriteDiscount
	}
	return score
}
