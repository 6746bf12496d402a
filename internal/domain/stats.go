package domain

import (
	"math"
	"sort"
)

// RemoveOutliers elimina los outliers superiores de una muestra usando el
// criterio IQR (Q3 + 1.5·IQR). Solo recorta por arriba: el riesgo que nos
// importa es sobrepagar, no infravalorar. Devuelve una copia ordenada
// ascendente; con 0 o 1 elementos devuelve la muestra tal cual.
func RemoveOutliers(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) <= 1 {
		return sorted
	}

	n := len(sorted)
	q1 := sorted[n/4]
	q3 := sorted[int(math.Ceil(float64(n)*3.0/4.0))-1]
	iqr := q3 - q1
	maxValue := q3 + iqr*1.5

	out := sorted[:0]
	for _, v := range sorted {
		if v <= maxValue {
			out = append(out, v)
		}
	}
	return out
}

// Mean devuelve la media aritmética. NaN con muestra vacía.
func Mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev devuelve la desviación estándar poblacional (divide por n, no n-1).
// mean es la media precalculada de la muestra.
func StdDev(values []float64, mean float64) float64 {
	var squares float64
	for _, v := range values {
		d := v - mean
		squares += d * d
	}
	return math.Sqrt(squares / float64(len(values)))
}

// studentT975 es la tabla de valores críticos de la distribución t de Student
// al 97.5% (dos colas, α=0.05), indexada por grados de libertad 1..200.
// El último valor (1.96) es el límite asintótico normal.
var studentT975 = []float64{
	12.71, 4.30, 3.18, 2.78, 2.57, 2.45, 2.36, 2.31, 2.26, 2.23, // 1-10
	2.20, 2.18, 2.16, 2.14, 2.13, 2.12, 2.11, 2.10, 2.09, 2.09, // 11-20
	2.08, 2.07, 2.07, 2.06, 2.06, 2.06, 2.05, 2.05, 2.05, 2.04, // 21-30
	2.04, 2.04, 2.03, 2.03, 2.03, 2.03, 2.03, 2.02, 2.02, 2.02, // 31-40
	2.02, 2.02, 2.02, 2.02, 2.01, 2.01, 2.01, 2.01, 2.01, 2.01, // 41-50
	2.01, 2.01, 2.01, 2.00, 2.00, 2.00, 2.00, 2.00, 2.00, 2.00, // 51-60
	2.00, 2.00, 2.00, 2.00, 2.00, 2.00, 2.00, 2.00, 1.99, 1.99, // 61-70
	1.99, 1.99, 1.99, 1.99, 1.99, 1.99, 1.99, 1.99, 1.99, 1.99, // 71-80
	1.99, 1.99, 1.99, 1.99, 1.99, 1.99, 1.99, 1.99, 1.99, 1.99, // 81-90
	1.99, 1.99, 1.99, 1.99, 1.99, 1.98, 1.98, 1.98, 1.98, 1.98, // 91-100
	1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, // 101-110
	1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, // 111-120
	1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, // 121-130
	1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, // 131-140
	1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, // 141-150
	1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.98, 1.97, // 151-160
	1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, // 161-170
	1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, // 171-180
	1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, // 181-190
	1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, 1.97, // 191-200
	1.96, // asintótico
}

// StudentT devuelve el valor crítico t al 97.5% para df grados de libertad.
// df ≤ 1 usa la primera entrada; df > 200 usa el valor asintótico 1.96.
func StudentT(df int) float64 {
	if df <= 1 {
		return studentT975[0]
	}
	if df > 200 {
		return studentT975[len(studentT975)-1]
	}
	return studentT975[df-1]
}

// ConfidenceInterval devuelve el semiancho del intervalo de confianza t de
// una muestra (one-sample t-interval half-width) para la media dada.
func ConfidenceInterval(values []float64, mean float64) float64 {
	df := len(values) - 1
	if df < 1 {
		df = 1
	}
	return StudentT(df) * StdDev(values, mean) / math.Sqrt(float64(len(values)))
}
