// Package img2svg converts raster images into simplified flat-color
// vector markup. The pipeline per image: sample a palette, decide a
// posterization plan, trace opacity tiers, resolve tiers into solid
// colors, remap those colors onto source-sampled ones, minify and
// rewrite the viewport.
package img2svg

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"

	"img2svg/fill2color"
	"img2svg/img2layers"
	"img2svg/img2palette"
	"img2svg/layers2fill"
	"img2svg/markup"
	"img2svg/palette2steps"
	"img2svg/raster"
	"img2svg/storage"
	i2stypes "img2svg/type"
)

// Options selects pipeline behavior. The zero value means defaults.
type Options struct {
	// Steps caps the posterization step count; 0 lets the palette
	// decide (up to 4). Forced single-color classifications always
	// win over this.
	Steps int
	// OptTolerance is the tracer's curve optimization tolerance.
	OptTolerance float64
	// StrokeEmphasis adds a matching width-1 stroke per tier.
	StrokeEmphasis bool
	// PaletteMethod selects the sampling method.
	PaletteMethod img2palette.Method
	// Inspector carries the plan classification thresholds.
	Inspector palette2steps.Config
	// Log receives stage-transition entries. Nil stays silent.
	Log *logrus.Entry
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Steps:        0,
		OptTolerance: 0.2,
		Inspector:    palette2steps.DefaultConfig(),
	}
}

func (o Options) withDefaults() Options {
	if o.OptTolerance == 0 {
		o.OptTolerance = 0.2
	}
	return o
}

func (o Options) logger() *logrus.Entry {
	if o.Log != nil {
		return o.Log
	}
	silent := logrus.New()
	silent.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(silent)
}

// Convert runs the whole pipeline on an encoded image buffer and
// returns the final markup.
func Convert(ctx context.Context, src []byte, opt Options) (string, error) {
	img, err := raster.DecodeImage(src)
	if err != nil {
		return "", err
	}
	return ConvertImage(ctx, img, opt)
}

// ConvertImage runs the pipeline on an already-decoded image.
func ConvertImage(ctx context.Context, img image.Image, opt Options) (string, error) {
	opt = opt.withDefaults()
	log := opt.logger()
	px := raster.FromImage(img)

	palette, err := img2palette.Sample(img, opt.PaletteMethod)
	if err != nil {
		return "", err
	}
	log.WithFields(logrus.Fields{
		"palette": len(palette),
		"method":  opt.PaletteMethod.String(),
	}).Debug("palette sampled")

	plan := selectPlan(palette2steps.Plans(palette, opt.Inspector), opt.Steps)
	log.WithField("steps", plan.Steps).Debug("plan selected")

	doc, err := img2layers.Trace(img, plan.Steps, opt.OptTolerance)
	if err != nil {
		return "", err
	}

	doc, err = layers2fill.Resolve(doc, opt.StrokeEmphasis)
	if err != nil {
		return "", err
	}
	log.WithField("fills", len(doc.FillColors())).Debug("layers resolved")

	if plan.Steps > 1 {
		doc, err = fill2color.Remap(doc, px)
		if err != nil {
			return "", err
		}
		log.WithField("fills", len(doc.FillColors())).Debug("colors remapped")
	}

	out, err := markup.Optimize(doc.String())
	if err != nil {
		return "", err
	}
	out, err = markup.RewriteViewBox(out)
	if err != nil {
		return "", err
	}

	w, h, err := markup.ViewBox(out)
	if err != nil {
		return "", err
	}
	log.WithFields(logrus.Fields{"width": w, "height": h}).Debug("markup optimized")
	return out, nil
}

// selectPlan picks the candidate to trace with. A single candidate is
// a forced classification and is taken as-is; otherwise steps caps the
// choice, defaulting to the richest plan.
func selectPlan(plans []i2stypes.Plan, steps int) i2stypes.Plan {
	if len(plans) == 1 {
		return plans[0]
	}
	if steps < 1 || steps > len(plans) {
		steps = len(plans)
	}
	return plans[steps-1]
}

// ConvertFile reads <name>.png, converts it, and writes <name>.svg
// through the path's storage backend.
func ConvertFile(ctx context.Context, path string, opt Options) error {
	store, err := storage.Open(path)
	if err != nil {
		return err
	}
	buf, err := store.ReadImage(ctx)
	if err != nil {
		return err
	}
	out, err := Convert(ctx, buf, opt)
	if err != nil {
		return fmt.Errorf("convert %s: %w", store.Name(), err)
	}
	return store.WriteMarkup(ctx, out)
}

// ConvertAll converts independent images concurrently, at most
// parallel at a time. Images share no state; the first error wins.
func ConvertAll(ctx context.Context, paths []string, parallel int, opt Options) error {
	if parallel <= 0 {
		parallel = 1
	}
	errs := make(chan error, len(paths))
	sem := make(chan struct{}, parallel)

	var wg sync.WaitGroup
	for _, p := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := ConvertFile(ctx, path, opt); err != nil {
				errs <- err
			}
		}(p)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		return err
	}
	return nil
}
