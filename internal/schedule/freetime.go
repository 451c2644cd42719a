package schedule

import (
	"sort"

	"roomsync/internal/model"
)

// busySpan is one concrete busy block of a day. startBuilding/endBuilding
// name the buildings of the classes at either end of the block; after
// merging, a block can start in one building and end in another.
type busySpan struct {
	start, end    float64
	startBuilding string
	endBuilding   string
}

// FreeIntervals computes the ordered free gaps of a day within the working
// window [workStart, workEnd), in fractional hours. Each gap is annotated
// with the buildings of the classes bounding it, so path scoring can weigh
// the walk from the previous class and to the next one.
//
// Zero occurrences yield a single interval spanning the whole window.
func FreeIntervals(occurrences []model.Occurrence, workStart, workEnd float64) []model.FreeInterval {
	// Expand every occurrence into one busy span per start time.
	busy := make([]busySpan, 0, len(occurrences))
	for _, occ := range occurrences {
		for _, tod := range occ.TimesOfDay {
			busy = append(busy, busySpan{
				start:         tod,
				end:           tod + occ.Duration.Hours(),
				startBuilding: occ.BuildingCode,
				endBuilding:   occ.BuildingCode,
			})
		}
	}

	sort.SliceStable(busy, func(i, j int) bool { return busy[i].start < busy[j].start })

	// Merge overlapping/adjacent spans right to left, carrying the later
	// span's end building forward.
	for i := len(busy) - 1; i > 0; i-- {
		if busy[i].start <= busy[i-1].end {
			if busy[i].end > busy[i-1].end {
				busy[i-1].end = busy[i].end
			}
			busy[i-1].endBuilding = busy[i].endBuilding
			busy = append(busy[:i], busy[i+1:]...)
		}
	}

	// Walk the merged spans, emitting the gaps between them.
	free := make([]model.FreeInterval, 0, len(busy)+1)
	currentStart := workStart
	before := ""
	for _, b := range busy {
		if b.start > currentStart {
			free = append(free, model.FreeInterval{
				Start:          currentStart,
				End:            b.start,
				BeforeBuilding: before,
				AfterBuilding:  b.startBuilding,
			})
		}
		if b.end > currentStart {
			currentStart = b.end
			before = b.endBuilding
		}
	}
	if currentStart < workEnd {
		free = append(free, model.FreeInterval{
			Start:          currentStart,
			End:            workEnd,
			BeforeBuilding: before,
			AfterBuilding:  "",
		})
	}
	return free
}
