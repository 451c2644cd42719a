package rooms

import (
	"math"

	"roomsync/internal/model"
)

// maxExtensions bounds the greedy extension loop per path. Availability
// data that kept yielding windows without ever reaching the target end
// would otherwise spin forever.
const maxExtensions = 100

// RoomComparator scores how similar two room identifiers are; higher means
// more similar. It breaks ties between candidate rooms whose windows end at
// the same hour. Pluggable so identifier heuristics can be swapped for real
// spatial data.
type RoomComparator func(a, b string) float64

// SearchPaths finds, for one building, every minimal room-switch path that
// covers the target interval [start, end) exactly. The interval is rounded
// outward to whole hours. cmp defaults to SuffixSimilarity when nil.
//
// The search is a greedy heuristic, not an exhaustive optimum: a path is
// seeded for every room whose availability window opens exactly at the
// interval start, then repeatedly extended with the candidate room staying
// open longest (ties going to the room most similar to the current one).
// Paths that fail to reach the interval end are discarded.
func SearchPaths(b *model.Building, day int64, start, end float64, cmp RoomComparator) []model.CandidatePath {
	if cmp == nil {
		cmp = SuffixSimilarity
	}

	floorStart := int(math.Floor(start))
	ceilEnd := int(math.Ceil(end))
	if floorStart >= ceilEnd {
		return nil
	}

	windows := BuildWindows(b, day, floorStart, ceilEnd)
	if len(windows) == 0 {
		return nil
	}

	// Seed one path per room with a window opening exactly at floorStart.
	// Windows are in scan order, so such a window is always the room's first.
	paths := make([]model.CandidatePath, 0)
	for _, slot := range b.Rooms {
		ws := windows[slot.Room]
		if len(ws) > 0 && ws[0].Start == floorStart {
			paths = append(paths, model.CandidatePath{
				BuildingCode: b.Code,
				Steps:        []model.PathStep{{Room: slot.Room, Interval: ws[0]}},
			})
		}
	}

	valid := paths[:0]
	for _, path := range paths {
		if extendPath(&path, b, windows, ceilEnd, cmp) {
			valid = append(valid, path)
		}
	}
	return valid
}

// extendPath greedily extends a seeded path until it reaches ceilEnd,
// reporting whether it got there.
func extendPath(path *model.CandidatePath, b *model.Building, windows map[string][]model.Window, ceilEnd int, cmp RoomComparator) bool {
	pathEnd := path.End()
	lastRoom := path.Steps[len(path.Steps)-1].Room

	for i := 0; pathEnd < ceilEnd && i < maxExtensions; i++ {
		bestRoom := ""
		var bestWindow model.Window

		// Any room in the building qualifies, not just unused ones; room
		// order follows the building's room list for stable tie handling.
		for _, slot := range b.Rooms {
			for _, w := range windows[slot.Room] {
				if !w.Covers(pathEnd) {
					continue
				}
				better := bestRoom == "" ||
					w.End > bestWindow.End ||
					(w.End == bestWindow.End && cmp(lastRoom, slot.Room) > cmp(lastRoom, bestRoom))
				if better {
					bestRoom = slot.Room
					bestWindow = w
				}
			}
		}

		if bestRoom == "" {
			// No room carries past pathEnd; the path cannot cover the interval.
			return false
		}

		path.Steps = append(path.Steps, model.PathStep{
			Room:     bestRoom,
			Interval: model.Window{Start: pathEnd, End: bestWindow.End},
		})
		pathEnd = bestWindow.End
		lastRoom = bestRoom
	}

	return pathEnd == ceilEnd
}

// SuffixSimilarity compares two room identifiers from their last character
// backward. A matching character at backward-position i contributes 2^i; a
// near-miss between two digits contributes a smoothed fraction of 2^i; any
// other mismatch contributes nothing. Shared suffixes tend to mean the same
// floor or wing, which is the proximity being approximated.
func SuffixSimilarity(a, b string) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	score := 0.0
	for i := 0; i < n; i++ {
		ca := a[len(a)-1-i]
		cb := b[len(b)-1-i]
		weight := math.Pow(2, float64(i))
		switch {
		case ca == cb:
			score += weight
		case isDigit(ca) && isDigit(cb):
			score += difSigmoid(float64(ca)-float64(cb)) * weight
		}
	}
	return score
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// difSigmoid is a bell curve peaking at 1 for x=0 and falling off as the
// character-code difference grows.
func difSigmoid(x float64) float64 {
	s := sigmoid(2 * x)
	return 4 * s * (1 - s)
}
