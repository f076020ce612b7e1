package groundwater

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/groundwater-monitoring/internal/raster"
)

func TestMonthlyComposites(t *testing.T) {
	partial := sourceImage(date(2013, 2, 10), func(col int) float64 {
		if col == 0 {
			return math.NaN()
		}
		return 600
	})
	source := raster.Collection{
		sourceImage(date(2013, 1, 1), constant(1000)),
		sourceImage(date(2013, 1, 31), constant(2000)),
		sourceImage(date(2013, 2, 1), constant(900)),
		partial,
		sourceImage(date(2013, 3, 1), constant(math.NaN())),
	}
	starts := MonthStarts(date(2013, 1, 1), date(2013, 5, 1))

	monthly, months, err := MonthlyComposites(source, starts)
	require.NoError(t, err)
	require.Len(t, monthly, 2, "March is fully masked and April has no images")
	require.Len(t, months, 2)

	jan := monthly[0]
	assert.Equal(t, "2013-01-01", jan.Index)
	assert.Equal(t, date(2013, 1, 1), jan.Start)
	assert.Equal(t, date(2013, 2, 1), jan.End)
	assert.Equal(t, []string{Band}, jan.BandNames())
	assert.Equal(t, 1, jan.Properties[PropNumBands])
	v, ok := jan.First().At(3, 3)
	require.True(t, ok)
	assert.Equal(t, 1500.0, v)

	feb := monthly[1]
	v, ok = feb.First().At(0, 0)
	require.True(t, ok)
	assert.Equal(t, 900.0, v, "masked pixels do not pull the mean")
	v, ok = feb.First().At(1, 0)
	require.True(t, ok)
	assert.Equal(t, 750.0, v)

	assert.Equal(t, 2, months[1].Images)
	assert.Equal(t, testGrid.Size(), months[1].ValidPixels)
}

func TestMonthlyComposites_GridMismatch(t *testing.T) {
	other := sourceImage(date(2013, 1, 2), constant(1))
	other.Bands[0].Grid.OriginLon = 0

	_, _, err := MonthlyComposites(raster.Collection{
		sourceImage(date(2013, 1, 1), constant(1)),
		other,
	}, MonthStarts(date(2013, 1, 1), date(2013, 2, 1)))
	assert.ErrorIs(t, err, raster.ErrGridMismatch)
}
