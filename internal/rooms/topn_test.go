package rooms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsync/internal/model"
)

func scored(building string, score float64) model.ScoredPath {
	return model.ScoredPath{
		Score: score,
		Path: model.CandidatePath{
			BuildingCode: building,
			Steps:        []model.PathStep{{Room: "R", Interval: model.Window{Start: 10, End: 12}}},
		},
	}
}

func TestSelectTopPerBuildingCap(t *testing.T) {
	paths := []model.ScoredPath{
		scored("BA", 1),
		scored("BA", 2),
		scored("BA", 3),
		scored("MY", 4),
		scored("SS", 5),
	}

	top := SelectTop(paths, 10, 2)
	require.Len(t, top, 4)
	assert.Equal(t, []float64{1, 2, 4, 5}, scoresOf(top))

	counts := make(map[string]int)
	for _, sp := range top {
		counts[sp.Path.BuildingCode]++
	}
	for building, n := range counts {
		assert.LessOrEqual(t, n, 2, "building %s exceeds cap", building)
	}
}

func TestSelectTopHonorsN(t *testing.T) {
	paths := []model.ScoredPath{
		scored("BA", 3),
		scored("MY", 1),
		scored("SS", 2),
	}

	top := SelectTop(paths, 2, 2)
	assert.Equal(t, []float64{1, 2}, scoresOf(top))
}

func TestSelectTopSortsAscendingWithStableTies(t *testing.T) {
	paths := []model.ScoredPath{
		scored("BA", 2),
		scored("MY", 2),
		scored("SS", 1),
	}

	top := SelectTop(paths, 10, 2)
	require.Len(t, top, 3)
	assert.Equal(t, "SS", top[0].Path.BuildingCode)
	// Equal scores keep their input order.
	assert.Equal(t, "BA", top[1].Path.BuildingCode)
	assert.Equal(t, "MY", top[2].Path.BuildingCode)
}

func TestSelectTopLeavesInputUntouched(t *testing.T) {
	paths := []model.ScoredPath{
		scored("BA", 3),
		scored("MY", 1),
	}
	_ = SelectTop(paths, 10, 2)
	assert.Equal(t, 3.0, paths[0].Score)
}

func scoresOf(paths []model.ScoredPath) []float64 {
	out := make([]float64, 0, len(paths))
	for _, sp := range paths {
		out = append(out, sp.Score)
	}
	return out
}
