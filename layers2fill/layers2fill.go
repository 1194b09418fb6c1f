// Package layers2fill turns the tracer's fill-opacity tiers into
// concrete solid colors. A tier's final opacity is what an observer
// sees after every lighter tier underneath it has stacked up, so the
// darkest tier always resolves darkest.
package layers2fill

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"img2svg/markup"
)

// Resolve replaces every distinct fill-opacity tier in doc with one
// solid color. With strokeEmphasis each tier also gets a matching
// width-1 stroke. Geometry is never touched; a document without
// opacity tiers passes through unchanged.
func Resolve(doc *markup.Document, strokeEmphasis bool) (*markup.Document, error) {
	tiers := map[string]float64{}
	for _, s := range doc.Shapes {
		if s.FillOpacity == "" {
			continue
		}
		if _, ok := tiers[s.FillOpacity]; ok {
			continue
		}
		o, err := strconv.ParseFloat(s.FillOpacity, 64)
		if err != nil {
			return nil, fmt.Errorf("layers2fill: bad fill-opacity %q: %w", s.FillOpacity, err)
		}
		tiers[s.FillOpacity] = o
	}
	if len(tiers) == 0 {
		return doc, nil
	}

	fills := resolveTiers(tiers)

	out := &markup.Document{Width: doc.Width, Height: doc.Height}
	for _, s := range doc.Shapes {
		if s.FillOpacity == "" {
			// Strip the tracer's flat black marker even off
			// untiered shapes; it is redundant once tiers
			// resolve.
			if s.Fill == "black" || s.Fill == "#000000" {
				s.Fill = ""
			}
			out.Shapes = append(out.Shapes, s)
			continue
		}
		hex := fills[s.FillOpacity]
		s.Fill = hex
		s.FillOpacity = ""
		if strokeEmphasis {
			s.Stroke = hex
			s.StrokeWidth = "1"
		} else if s.Stroke == "none" {
			s.Stroke = ""
		}
		out.Shapes = append(out.Shapes, s)
	}
	return out, nil
}

// resolveTiers maps each distinct opacity attribute value to its
// solid fill. Tiers sort descending; the tier at position k composites
// with every less-opaque tier after it, because regions traced at a
// darker threshold are always covered by the lighter tiers too.
func resolveTiers(tiers map[string]float64) map[string]string {
	keys := make([]string, 0, len(tiers))
	for k := range tiers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return tiers[keys[i]] > tiers[keys[j]] })

	fills := make(map[string]string, len(keys))
	for i, k := range keys {
		transmitted := 1.0
		for _, below := range keys[i:] {
			transmitted *= 1 - tiers[below]
		}
		fills[k] = grayHex(1 - transmitted)
	}
	return fills
}

// grayHex is black at the given opacity composited source-over onto a
// white backdrop.
func grayHex(opacity float64) string {
	v := int(math.Round(255 * (1 - opacity)))
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return fmt.Sprintf("#%02x%02x%02x", v, v, v)
}

// CompositedOpacity exposes the stacking formula for a descending
// opacity list: the value at index k after combining tiers k..end.
func CompositedOpacity(sortedDesc []float64, k int) float64 {
	transmitted := 1.0
	for _, o := range sortedDesc[k:] {
		transmitted *= 1 - o
	}
	return 1 - transmitted
}
