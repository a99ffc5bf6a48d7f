// pkg/qc/scaler.go
package qc

import (
	"gonum.org/v1/gonum/stat"
)

// Scaler standardises each feature to zero mean and unit variance
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// fitScaler computes population mean and standard deviation per column
func fitScaler(rows [][]float64) *Scaler {
	width := len(rows[0])
	s := &Scaler{Mean: make([]float64, width), Scale: make([]float64, width)}
	column := make([]float64, len(rows))
	for j := 0; j < width; j++ {
		for i, r := range rows {
			column[i] = r[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s
}

// Transform returns a scaled copy of one row
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, x := range row {
		out[j] = (x - s.Mean[j]) / s.Scale[j]
	}
	return out
}
