// Package markup holds the structured form of the traced vector
// document. Stages annotate shapes on the parsed form and serialize
// once, instead of rewriting the document text per shape.
package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	svgo "github.com/ajstarks/svgo"
	rsvg "github.com/rustyoz/svg"
	"github.com/tdewolff/minify/v2"
	minifysvg "github.com/tdewolff/minify/v2/svg"
)

var (
	// ErrNoViewport means the root element carries no usable
	// width/height pair.
	ErrNoViewport = errors.New("markup: no width/height on root element")
)

// Shape is one path with its presentation attributes. Attributes are
// kept as raw text so absent ones stay absent on serialization.
type Shape struct {
	D           string
	Transform   string
	Fill        string
	Stroke      string
	StrokeWidth string
	FillOpacity string
}

// Document is a parsed vector document: a pixel viewport plus an
// ordered shape list. Slice position is z-order, later shapes render
// on top.
type Document struct {
	Width  int
	Height int
	Shapes []Shape
}

var digits = regexp.MustCompile(`[0-9]+`)

// parseDimension reads the leading integer out of a width/height value
// like "120", "120px" or "120pt".
func parseDimension(s string) (int, bool) {
	m := digits.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Parse reads vector markup into a Document, preserving document
// order so slice position stays z-order. Paths inherit the enclosing
// groups' presentation attributes unless they carry their own.
func Parse(data string) (*Document, error) {
	dec := xml.NewDecoder(strings.NewReader(data))
	doc := &Document{}
	sawRoot := false
	// Innermost group frame last; the root sits at index 0.
	stack := []Shape{{}}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("markup: parse: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "svg":
				sawRoot = true
				w, okW := parseDimension(attrValue(t, "width"))
				h, okH := parseDimension(attrValue(t, "height"))
				if !okW || !okH {
					return nil, ErrNoViewport
				}
				doc.Width, doc.Height = w, h
			case "g":
				stack = append(stack, shapeFromStart(t, stack[len(stack)-1]))
			case "path":
				doc.Shapes = append(doc.Shapes, shapeFromStart(t, stack[len(stack)-1]))
			}
		case xml.EndElement:
			if t.Name.Local == "g" && len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if !sawRoot {
		return nil, ErrNoViewport
	}
	return doc, nil
}

func attrValue(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func shapeFromStart(t xml.StartElement, inherited Shape) Shape {
	return Shape{
		D:           attrValue(t, "d"),
		Transform:   firstOf(attrValue(t, "transform"), inherited.Transform),
		Fill:        firstOf(attrValue(t, "fill"), inherited.Fill),
		Stroke:      firstOf(attrValue(t, "stroke"), inherited.Stroke),
		StrokeWidth: firstOf(attrValue(t, "stroke-width"), inherited.StrokeWidth),
		FillOpacity: firstOf(attrValue(t, "fill-opacity"), inherited.FillOpacity),
	}
}

func firstOf(own, inherited string) string {
	if own != "" {
		return own
	}
	return inherited
}

// groupKey bundles the attributes shapes must share to be serialized
// under one group element.
type groupKey struct {
	Transform   string
	Fill        string
	Stroke      string
	StrokeWidth string
	FillOpacity string
}

func (s Shape) key() groupKey {
	return groupKey{s.Transform, s.Fill, s.Stroke, s.StrokeWidth, s.FillOpacity}
}

func (k groupKey) attrs() []string {
	var out []string
	if k.Transform != "" {
		out = append(out, fmt.Sprintf(`transform="%s"`, k.Transform))
	}
	if k.Fill != "" {
		out = append(out, fmt.Sprintf(`fill="%s"`, k.Fill))
	}
	if k.Stroke != "" {
		out = append(out, fmt.Sprintf(`stroke="%s"`, k.Stroke))
	}
	if k.StrokeWidth != "" {
		out = append(out, fmt.Sprintf(`stroke-width="%s"`, k.StrokeWidth))
	}
	if k.FillOpacity != "" {
		out = append(out, fmt.Sprintf(`fill-opacity="%s"`, k.FillOpacity))
	}
	return out
}

// String serializes the document. Consecutive shapes sharing the same
// presentation attributes collapse into one group, so a traced tier
// stays one <g> element.
func (d *Document) String() string {
	var buf bytes.Buffer
	canvas := svgo.New(&buf)
	canvas.Start(d.Width, d.Height)

	i := 0
	for i < len(d.Shapes) {
		k := d.Shapes[i].key()
		j := i
		for j < len(d.Shapes) && d.Shapes[j].key() == k {
			j++
		}
		canvas.Group(k.attrs()...)
		for ; i < j; i++ {
			canvas.Path(d.Shapes[i].D)
		}
		canvas.Gend()
	}
	canvas.End()
	return buf.String()
}

// FillColors returns the distinct fill values present, in first-seen
// order.
func (d *Document) FillColors() []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range d.Shapes {
		if s.Fill == "" || s.Fill == "none" || seen[s.Fill] {
			continue
		}
		seen[s.Fill] = true
		out = append(out, s.Fill)
	}
	return out
}

// Optimize minifies markup while preserving its semantics.
func Optimize(data string) (string, error) {
	m := minify.New()
	m.AddFunc("image/svg+xml", minifysvg.Minify)
	out, err := m.String("image/svg+xml", data)
	if err != nil {
		return "", fmt.Errorf("markup: minify: %w", err)
	}
	return out, nil
}

var rootViewport = regexp.MustCompile(`<svg([^>]*?)\swidth="([0-9]+)(?:px|pt)?"\s+height="([0-9]+)(?:px|pt)?"`)

// RewriteViewBox replaces the root element's fixed width/height pair
// with a viewBox so the image scales to its container. Markup without
// the pair is malformed for this operation.
func RewriteViewBox(data string) (string, error) {
	loc := rootViewport.FindStringSubmatchIndex(data)
	if loc == nil {
		return "", ErrNoViewport
	}
	sub := rootViewport.FindStringSubmatch(data)
	repl := fmt.Sprintf(`<svg%s viewBox="0 0 %s %s"`, sub[1], sub[2], sub[3])
	return data[:loc[0]] + repl + data[loc[1]:], nil
}

// ViewBox parses final markup with the rustyoz parser and returns the
// viewBox extent. Used as an output sanity check before persisting.
func ViewBox(data string) (w, h int, err error) {
	parsed, err := rsvg.ParseSvg(data, "out", 1.0)
	if err != nil {
		return 0, 0, fmt.Errorf("markup: validate: %w", err)
	}
	fields := strings.Fields(parsed.ViewBox)
	if len(fields) != 4 {
		return 0, 0, ErrNoViewport
	}
	fw, err1 := strconv.ParseFloat(fields[2], 64)
	fh, err2 := strconv.ParseFloat(fields[3], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, ErrNoViewport
	}
	return int(fw), int(fh), nil
}
