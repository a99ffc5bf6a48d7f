package converter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

func TestExtractWMO(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"BD5904468_001.nc", "5904468", true},
		{"R5904471_001.nc", "5904471", true},
		{"/data/aoml/5906320/profiles/SD5906320_012.nc", "5906320", true},
		{"argo_float_12345.nc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := ExtractWMO(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuessDAC(t *testing.T) {
	assert.Equal(t, "AOML", GuessDAC("/dac/aoml/5904468/BD5904468_001.nc"))
	assert.Equal(t, "CORIOLIS", GuessDAC("Coriolis/R6901234_001.nc"))
	assert.Equal(t, "GDAC", GuessDAC("BD5904468_001.nc"))
}

func TestFlattenAndUnflatten(t *testing.T) {
	in := [][]float32{{1, 2, 3}, {4, 5, 6}}
	flat, err := Flatten(in)
	require.NoError(t, err)
	assert.Equal(t, model.KindFloat32, flat.Kind)
	assert.Equal(t, []int{2, 3}, flat.Shape)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, flat.Data)

	out, err := Unflatten(flat.Kind, flat.Data, nil, flat.Shape)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	scalar, err := Unflatten(model.KindInt8, []float64{-1}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int8(-1), scalar)

	text, err := Flatten([]string{"PRES", "TEMP"})
	require.NoError(t, err)
	assert.Equal(t, model.KindText, text.Kind)
	assert.Equal(t, []string{"PRES", "TEMP"}, text.Text)

	_, err = Unflatten(model.KindFloat64, []float64{1}, nil, []int{2})
	assert.Error(t, err)
}

func TestTimeUnits(t *testing.T) {
	u, err := ParseTimeUnits("days since 1950-01-01 00:00:00 UTC")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1950, 1, 11, 12, 0, 0, 0, time.UTC), u.At(10.5))

	u, err = ParseTimeUnits("seconds since 1900-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1900, 1, 1, 0, 1, 0, 0, time.UTC), u.At(60))

	_, err = ParseTimeUnits("fortnights since 1950-01-01")
	assert.Error(t, err)

	assert.Equal(t, "1950-01-11T00:00:00Z", FormatISO(JulianDay(10.9)))
}
