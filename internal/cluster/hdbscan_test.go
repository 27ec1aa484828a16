package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blob(cx, cy float32) [][]float32 {
	offsets := [][2]float32{{0, 0}, {0.1, 0}, {0, 0.1}, {0.1, 0.1}, {0.05, 0.05}}
	out := make([][]float32, 0, len(offsets))
	for _, o := range offsets {
		out = append(out, []float32{cx + o[0], cy + o[1]})
	}
	return out
}

func TestHDBSCAN_TwoBlobsAndNoise(t *testing.T) {
	var points [][]float32
	points = append(points, blob(0, 0)...)
	points = append(points, blob(10, 10)...)
	points = append(points, []float32{50, -50})

	labels := HDBSCAN(points, 3)
	require.Len(t, labels, 11)

	a, b := labels[0], labels[5]
	assert.NotEqual(t, Noise, a)
	assert.NotEqual(t, Noise, b)
	assert.NotEqual(t, a, b)
	for i := 0; i < 5; i++ {
		assert.Equal(t, a, labels[i], "point %d", i)
		assert.Equal(t, b, labels[5+i], "point %d", 5+i)
	}
	assert.Equal(t, Noise, labels[10])
}

func TestHDBSCAN_ClustersMeetMinimumSize(t *testing.T) {
	var points [][]float32
	points = append(points, blob(0, 0)...)
	points = append(points, blob(5, 0)...)
	points = append(points, blob(0, 5)...)
	points = append(points, []float32{2.5, 2.5}, []float32{-20, 7})

	labels := HDBSCAN(points, 4)
	sizes := make(map[int]int)
	for _, l := range labels {
		if l != Noise {
			sizes[l]++
		}
	}
	require.NotEmpty(t, sizes)
	for label, size := range sizes {
		assert.GreaterOrEqual(t, size, 4, "cluster %d", label)
	}
}

func TestHDBSCAN_TooFewPoints(t *testing.T) {
	labels := HDBSCAN([][]float32{{0, 0}, {1, 1}}, 3)
	assert.Equal(t, []int{Noise, Noise}, labels)
	assert.Empty(t, HDBSCAN(nil, 3))
}

func TestHDBSCAN_DuplicatePointsStayFinite(t *testing.T) {
	points := make([][]float32, 0, 8)
	for i := 0; i < 4; i++ {
		points = append(points, []float32{0, 0})
	}
	for i := 0; i < 4; i++ {
		points = append(points, []float32{3, 3})
	}

	labels := HDBSCAN(points, 3)
	assert.NotEqual(t, Noise, labels[0])
	assert.NotEqual(t, labels[0], labels[4])
	for i := 1; i < 4; i++ {
		assert.Equal(t, labels[0], labels[i])
		assert.Equal(t, labels[4], labels[4+i])
	}
}

func TestHDBSCAN_RaggedInput(t *testing.T) {
	var labels []int
	require.NotPanics(t, func() { labels = HDBSCAN([][]float32{{0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0}}, 2) })
	require.Len(t, labels, 3)
	assert.Equal(t, Noise, labels[2])

	points := append(blob(0, 0), blob(10, 10)...)
	points = append(points, []float32{0, 0, 0})
	labels = HDBSCAN(points, 3)
	require.Len(t, labels, 11)
	assert.NotEqual(t, Noise, labels[0])
	assert.NotEqual(t, labels[0], labels[5])
	assert.Equal(t, Noise, labels[10])
}
