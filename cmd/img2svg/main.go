package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"img2svg"
	"img2svg/img2palette"
	"img2svg/storage"
	"img2svg/video2img"
)

var log = logrus.New()

func init() {
	// .env is optional; flags still win over whatever it sets.
	_ = godotenv.Load()
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
}

func main() {
	app := cli.NewApp()
	app.Name = "img2svg"
	app.Usage = "img2svg [options] <image.png>..."
	app.Description = "Convert raster images (or video frames) into flat-color SVG"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:   "steps",
			Usage:  "Posterization step count 1-4 (0 = decide from the palette)",
			Value:  0,
			EnvVar: "IMG2SVG_STEPS",
		},
		cli.Float64Flag{
			Name:   "tolerance",
			Usage:  "Tracer curve optimization tolerance",
			Value:  0.2,
			EnvVar: "IMG2SVG_TOLERANCE",
		},
		cli.BoolFlag{
			Name:   "stroke",
			Usage:  "Add a matching width-1 stroke per color tier",
			EnvVar: "IMG2SVG_STROKE",
		},
		cli.StringFlag{
			Name:   "palette",
			Usage:  "Palette sampling method: dominant or kmeans",
			Value:  "dominant",
			EnvVar: "IMG2SVG_PALETTE",
		},
		cli.IntFlag{
			Name:   "parallel",
			Usage:  "Max images converted concurrently",
			Value:  4,
			EnvVar: "IMG2SVG_PARALLEL",
		},
		cli.StringFlag{
			Name:   "video",
			Usage:  "Convert every extracted frame of this video instead of image arguments",
			EnvVar: "IMG2SVG_VIDEO",
		},
		cli.IntFlag{
			Name:   "fps",
			Usage:  "Frames per second to extract from --video",
			Value:  10,
			EnvVar: "IMG2SVG_FPS",
		},
		cli.IntFlag{
			Name:   "width",
			Usage:  "Max frame width when extracting from --video",
			Value:  96,
			EnvVar: "IMG2SVG_WIDTH",
		},
		cli.BoolFlag{
			Name:  "json",
			Usage: "Log as JSON",
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "Only log warnings and errors",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("conversion failed")
	}
}

func run(c *cli.Context) error {
	if c.Bool("json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if c.Bool("quiet") {
		log.SetLevel(logrus.WarnLevel)
	} else {
		log.SetLevel(logrus.DebugLevel)
	}

	method, err := img2palette.ParseMethod(c.String("palette"))
	if err != nil {
		return err
	}
	opt := img2svg.DefaultOptions()
	opt.Steps = c.Int("steps")
	opt.OptTolerance = c.Float64("tolerance")
	opt.StrokeEmphasis = c.Bool("stroke")
	opt.PaletteMethod = method
	opt.Log = log.WithField("component", "pipeline")

	ctx := context.Background()

	if video := c.String("video"); video != "" {
		return runVideo(ctx, video, c.Int("fps"), c.Int("width"), opt)
	}

	paths := c.Args()
	if len(paths) == 0 {
		return cli.ShowAppHelp(c)
	}
	log.WithField("images", len(paths)).Info("converting")
	return img2svg.ConvertAll(ctx, paths, c.Int("parallel"), opt)
}

func runVideo(ctx context.Context, video string, fps, width int, opt img2svg.Options) error {
	if n, err := video2img.CountFrames(video); err == nil {
		log.WithField("frames", n).Info("probed video")
	}
	frames, err := video2img.ExtractFrames(ctx, video, fps, width)
	if err != nil {
		return err
	}
	log.WithField("frames", len(frames)).Info("extracted frames")

	for _, f := range frames {
		out, err := img2svg.ConvertImage(ctx, f.Image, opt)
		if err != nil {
			return fmt.Errorf("frame %d: %w", f.Index, err)
		}
		store, err := storage.Open(fmt.Sprintf("%s_%04d", video, f.Index))
		if err != nil {
			return err
		}
		if err := store.WriteMarkup(ctx, out); err != nil {
			return err
		}
	}
	return nil
}
