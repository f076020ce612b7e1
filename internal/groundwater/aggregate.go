package groundwater

import (
	"fmt"
	"time"

	"github.com/i474232898/groundwater-monitoring/internal/raster"
)

// IndexFormat is the layout of a monthly image's index.
const IndexFormat = "2006-01-02"

// MonthlyComposites averages the source images of each month into one image
// with a single Groundwater band. Months without data are left out; a band
// with no valid pixel does not count as data.
func MonthlyComposites(source raster.Collection, starts []time.Time) (raster.Collection, []MonthSummary, error) {
	monthly := make(raster.Collection, 0, len(starts))
	for _, start := range starts {
		end := start.AddDate(0, 1, 0)
		month := source.FilterDate(start, end)

		mean, err := month.Mean()
		if err != nil {
			return nil, nil, fmt.Errorf("month %s: %w", start.Format(IndexFormat), err)
		}
		renamed, err := mean.Rename(Band)
		if err != nil {
			return nil, nil, fmt.Errorf("month %s: %w", start.Format(IndexFormat), err)
		}

		img := renamed.Set(PropNumBands, len(renamed.Bands))
		img.Start = start
		img.End = end
		img.Index = start.Format(IndexFormat)
		img.ID = img.Index
		monthly = append(monthly, img)
	}

	kept := monthly.FilterGT(PropNumBands, 0)
	summaries := make([]MonthSummary, 0, len(kept))
	for _, img := range kept {
		summaries = append(summaries, MonthSummary{
			Index:       img.Index,
			Start:       img.Start,
			End:         img.End,
			Images:      len(source.FilterDate(img.Start, img.End)),
			NumBands:    len(img.Bands),
			ValidPixels: img.First().ValidCount(),
		})
	}
	return kept, summaries, nil
}
