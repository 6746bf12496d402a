package domain

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveOutliers_DropsUpperOutlier(t *testing.T) {
	values := []float64{100, 102, 98, 101, 99, 103, 97, 500}
	out := RemoveOutliers(values)

	assert.NotContains(t, out, 500.0)
	assert.True(t, sort.Float64sAreSorted(out))
	assert.Len(t, out, 7)
}

func TestRemoveOutliers_KeepsLowerOutlier(t *testing.T) {
	// Solo recorte superior: un precio anómalamente bajo se conserva.
	values := []float64{1, 100, 102, 98, 101, 99, 103, 97}
	out := RemoveOutliers(values)
	assert.Contains(t, out, 1.0)
}

func TestRemoveOutliers_Degenerate(t *testing.T) {
	assert.Empty(t, RemoveOutliers(nil))
	assert.Equal(t, []float64{42}, RemoveOutliers([]float64{42}))
}

func TestRemoveOutliers_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	RemoveOutliers(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestRemoveOutliers_OutputIsSubsequence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		values := make([]float64, rng.Intn(30))
		for j := range values {
			values[j] = rng.Float64() * 1000
		}
		out := RemoveOutliers(values)
		assert.LessOrEqual(t, len(out), len(values))
		assert.True(t, sort.Float64sAreSorted(out))
	}
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 0.0001)
}

func TestStdDev_Population(t *testing.T) {
	// Poblacional: divide por n. Para {2,4,4,4,5,5,7,9} la σ es exactamente 2.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.0, StdDev(values, Mean(values)), 0.0001)
}

func TestStudentT_TableBounds(t *testing.T) {
	assert.InDelta(t, 12.71, StudentT(1), 0.001)
	assert.InDelta(t, 12.71, StudentT(0), 0.001)  // df ≤ 1 usa la primera entrada
	assert.InDelta(t, 12.71, StudentT(-3), 0.001)
	assert.InDelta(t, 4.30, StudentT(2), 0.001)
	assert.InDelta(t, 1.97, StudentT(200), 0.001)
	assert.InDelta(t, 1.96, StudentT(201), 0.001) // clamp asintótico
	assert.InDelta(t, 1.96, StudentT(10000), 0.001)
}

func TestStudentT_Monotone(t *testing.T) {
	for df := 1; df < 250; df++ {
		assert.GreaterOrEqual(t, StudentT(df), StudentT(df+1),
			"la tabla debe ser no creciente en df=%d", df)
	}
}

func TestConfidenceInterval_ShrinksWithSampleSize(t *testing.T) {
	// Misma distribución subyacente, distinto n: el intervalo con n=100
	// debe ser menor que con n=4.
	small := []float64{90, 100, 110, 100}
	var large []float64
	for i := 0; i < 25; i++ {
		large = append(large, 90, 100, 110, 100)
	}

	ciSmall := ConfidenceInterval(small, Mean(small))
	ciLarge := ConfidenceInterval(large, Mean(large))

	require.False(t, math.IsNaN(ciSmall))
	assert.Less(t, ciLarge, ciSmall)
}

func TestConfidenceInterval_SingleSample(t *testing.T) {
	// Un solo punto: σ=0 → intervalo 0, no NaN.
	ci := ConfidenceInterval([]float64{50}, 50)
	assert.Equal(t, 0.0, ci)
}
