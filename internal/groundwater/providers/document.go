package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/i474232898/groundwater-monitoring/internal/groundwater"
	"github.com/i474232898/groundwater-monitoring/internal/raster"
)

// imageDocument is the JSON layout served by the dataset API and stored in
// image files and the cache.
type imageDocument struct {
	Images        []imageRecord `json:"images"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type imageRecord struct {
	ID        string                `json:"id"`
	TimeStart time.Time             `json:"time_start"`
	TimeEnd   time.Time             `json:"time_end"`
	Grid      raster.Grid           `json:"grid"`
	NoData    *float64              `json:"nodata,omitempty"`
	Bands     map[string][]*float64 `json:"bands"`
}

func decodeDocument(r io.Reader) (imageDocument, error) {
	var doc imageDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return imageDocument{}, fmt.Errorf("decode image document: %w", err)
	}
	return doc, nil
}

// images converts the records matching q and selects q.Band from each.
// Records without that band are skipped.
func (d imageDocument) images(q groundwater.Query) (raster.Collection, error) {
	var out raster.Collection
	for _, rec := range d.Images {
		if !matches(rec, q) {
			continue
		}
		img, err := rec.image()
		if err != nil {
			return nil, err
		}
		img = img.Select(q.Band)
		if len(img.Bands) == 0 {
			continue
		}
		out = append(out, img)
	}
	return out, nil
}

func (rec imageRecord) image() (*raster.Image, error) {
	names := make([]string, 0, len(rec.Bands))
	for name := range rec.Bands {
		names = append(names, name)
	}
	sort.Strings(names)

	img := &raster.Image{
		ID:         rec.ID,
		Start:      rec.TimeStart.UTC(),
		End:        rec.TimeEnd.UTC(),
		Index:      rec.ID,
		Properties: map[string]interface{}{},
	}
	for _, name := range names {
		band, err := toBand(name, rec, rec.Bands[name])
		if err != nil {
			return nil, err
		}
		img.Bands = append(img.Bands, band)
	}
	return img, nil
}

func matches(rec imageRecord, q groundwater.Query) bool {
	if rec.TimeStart.Before(q.Start) || !rec.TimeStart.Before(q.End) {
		return false
	}
	if q.Bounds == (raster.Bounds{}) {
		return true
	}
	return rec.Grid.Bounds().Intersects(q.Bounds)
}

func toBand(name string, rec imageRecord, values []*float64) (*raster.Band, error) {
	if rec.Grid.Width <= 0 || rec.Grid.Height <= 0 {
		return nil, fmt.Errorf("image %s: empty grid", rec.ID)
	}
	if len(values) != rec.Grid.Size() {
		return nil, fmt.Errorf("image %s band %s: %d values for a %dx%d grid",
			rec.ID, name, len(values), rec.Grid.Width, rec.Grid.Height)
	}
	band := raster.NewBand(name, rec.Grid)
	for i, v := range values {
		if v == nil || (rec.NoData != nil && *v == *rec.NoData) {
			continue
		}
		band.Values[i] = *v
	}
	return band, nil
}

// encodeDocument is the inverse of images. Masked pixels become null.
func encodeDocument(c raster.Collection) imageDocument {
	doc := imageDocument{Images: make([]imageRecord, 0, len(c))}
	for _, img := range c {
		rec := imageRecord{
			ID:        img.ID,
			TimeStart: img.Start,
			TimeEnd:   img.End,
			Bands:     make(map[string][]*float64, len(img.Bands)),
		}
		for _, b := range img.Bands {
			rec.Grid = b.Grid
			values := make([]*float64, len(b.Values))
			for i := range b.Values {
				if math.IsNaN(b.Values[i]) {
					continue
				}
				v := b.Values[i]
				values[i] = &v
			}
			rec.Bands[b.Name] = values
		}
		doc.Images = append(doc.Images, rec)
	}
	return doc
}
