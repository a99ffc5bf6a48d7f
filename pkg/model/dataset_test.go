package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrsOrderAndDefaults(t *testing.T) {
	a := NewAttrs()
	a.Set("title", "CTD")
	a.Set("institution", "OOI")
	a.Set("title", "CTD profile")

	assert.Equal(t, []string{"title", "institution"}, a.Keys())
	assert.Equal(t, "CTD profile", a.String("title"))

	assert.False(t, a.SetDefault("title", "other"))
	assert.True(t, a.SetDefault("license", "CC-BY"))
	assert.Equal(t, 3, a.Len())

	a.Delete("institution")
	assert.Equal(t, []string{"title", "license"}, a.Keys())
}

func TestAttrsFloatCoercion(t *testing.T) {
	a := NewAttrs()
	a.Set("lat", "44.6")
	a.Set("lon", float32(-124.5))
	a.Set("bad", "not a number")

	lat, ok := a.Float("lat")
	require.True(t, ok)
	assert.InDelta(t, 44.6, lat, 1e-9)

	lon, ok := a.Float("lon")
	require.True(t, ok)
	assert.InDelta(t, -124.5, lon, 1e-6)

	_, ok = a.Float("bad")
	assert.False(t, ok)
	_, ok = a.Float("missing")
	assert.False(t, ok)
}

func TestAttrsFloatValues(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  float64
		ok    bool
	}{
		{"float", 44.5, 44.5, true},
		{"int", int32(12), 12, true},
		{"padded numeric string", " -124.3 ", -124.3, true},
		{"text", "north", 0, false},
		{"empty", "", 0, false},
		{"nan", math.NaN(), 0, false},
		{"single float", []float64{12.5}, 12.5, true},
		{"single float32", []float32{-999}, -999, true},
		{"single int64", []int64{7}, 7, true},
		{"single nan", []float64{math.NaN()}, 0, false},
		{"long slice", []float64{1, 2}, 0, false},
		{"empty slice", []int32{}, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAttrs()
			a.Set("value", tt.value)
			got, ok := a.Float("value")
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestAttrsStringValues(t *testing.T) {
	a := NewAttrs()
	a.Set("keywords", []string{"ph", "oxygen"})
	a.Set("platform_number", 5904468)
	a.Set("fill", math.NaN())

	assert.Equal(t, "ph, oxygen", a.String("keywords"))
	assert.Equal(t, "5904468", a.String("platform_number"))
	assert.Equal(t, "", a.String("fill"))
	assert.Equal(t, "", a.String("missing"))
}

func TestDatasetVariablesAndCoords(t *testing.T) {
	ds := NewDataset("x.nc")
	time := NewVariable("time", []string{"time"}, []int{3}, []float64{0, 1, 2})
	require.NoError(t, ds.AddCoordinate(time))
	require.NoError(t, ds.AddVariable(NewVariable("temp", []string{"time"}, []int{3}, []float64{10, math.NaN(), 12})))

	assert.Len(t, ds.Variables(), 2)
	assert.Len(t, ds.DataVars(), 1)
	assert.Len(t, ds.Coords(), 1)
	assert.True(t, ds.CoordNameContains("TIME"))

	temp, ok := ds.Variable("temp")
	require.True(t, ok)
	assert.Equal(t, []float64{10, 12}, temp.ValidValues())

	err := ds.AddVariable(NewVariable("bad", []string{"time"}, []int{4}, make([]float64, 4)))
	assert.Error(t, err)
	assert.Error(t, ds.AddVariable(NewScalar("temp", 1)))
}

func TestDatasetCloneIsIndependent(t *testing.T) {
	ds := NewDataset("x.nc")
	ds.Attrs.Set("title", "a")
	require.NoError(t, ds.AddVariable(NewVariable("temp", []string{"t"}, []int{2}, []float64{1, 2})))

	c := ds.Clone()
	c.Attrs.Set("title", "b")
	v, _ := c.Variable("temp")
	v.Data[0] = 99
	v.Attrs.Set("units", "degree_C")

	orig, _ := ds.Variable("temp")
	assert.Equal(t, "a", ds.Attrs.String("title"))
	assert.Equal(t, 1.0, orig.Data[0])
	assert.False(t, orig.Attrs.Has("units"))
}

func TestResolveFirstMatch(t *testing.T) {
	present := map[string]bool{"PRES": true, "PRES_ADJUSTED": true}
	has := func(n string) bool { return present[n] }

	name, ok := Resolve([]string{"PRES_ADJUSTED", "PRES"}, has)
	assert.True(t, ok)
	assert.Equal(t, "PRES_ADJUSTED", name)

	_, ok = Resolve([]string{"TEMP"}, has)
	assert.False(t, ok)
}

func TestLedger(t *testing.T) {
	var l Ledger
	l.Change("attribute_added", "Added title")
	l.Issue("missing_depth", "No depth")

	var other Ledger
	other.Change("coordinate_added", "Added lat = 1")
	l.Merge(other)

	assert.Len(t, l.Changes(), 2)
	assert.True(t, l.HasIssue("missing_depth"))
	assert.False(t, l.HasIssue("no_time"))
}
