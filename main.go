package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/df07/go-mcrt/pkg/engine"
	"github.com/df07/go-mcrt/pkg/log"
	"github.com/df07/go-mcrt/pkg/scene"
	"github.com/df07/go-mcrt/pkg/tally"
)

var logger = log.New("mcrt")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	defaults := engine.DefaultConfig()

	app := cli.NewApp()
	app.Name = "go-mcrt"
	app.Usage = "Monte Carlo photon transport through layered media"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set the log level by name (debug, info, notice, warning, error); overrides -v and -vv",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "simulate a built-in scene",
			ArgsUsage: "scene",
			Description: `
Transport a packet budget through one of the built-in scenes and print the
merged tallies. Interrupting the run reports the batches finished so far.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "packets, n",
					Value: defaults.Packets,
					Usage: "packet budget",
				},
				cli.IntFlag{
					Name:  "batch",
					Value: defaults.BatchSize,
					Usage: "packets per batch",
				},
				cli.IntFlag{
					Name:  "workers, w",
					Value: defaults.Workers,
					Usage: "worker goroutines (0 = one per CPU)",
				},
				cli.Uint64Flag{
					Name:  "seed, s",
					Value: defaults.Seed,
					Usage: "master seed",
				},
				cli.Float64Flag{
					Name:  "target-error",
					Value: defaults.TargetRelativeError,
					Usage: "stop once the relative standard error drops below this (0 = run the full budget)",
				},
				cli.StringFlag{
					Name:  "observable",
					Usage: "primary observable, escaped or absorbed (default: the scene's)",
				},
				cli.BoolFlag{
					Name:  "implicit-capture",
					Usage: "deposit absorption as a weight fraction at every interaction",
				},
			},
			Action: runScene,
		},
		{
			Name:  "scenes",
			Usage: "list built-in scenes",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "json",
					Usage: "print the list as JSON",
				},
			},
			Action: listScenes,
		},
	}
	return app
}

func setupLogging(ctx *cli.Context) error {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	if name := ctx.GlobalString("log-level"); name != "" {
		level, err := log.ParseLevel(name)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}
	return nil
}

// runScene simulates the scene named by the first argument
func runScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("run needs exactly one scene name")
	}
	s, err := scene.Load(ctx.Args().First())
	if err != nil {
		return err
	}
	s.Settings.ImplicitCapture = ctx.Bool("implicit-capture")

	config, err := configFromFlags(ctx, s)
	if err != nil {
		return err
	}
	tracer, err := s.Tracer()
	if err != nil {
		return err
	}
	sim, err := engine.NewSimulation(engine.Problem{Tracer: tracer, Source: s.Source}, config)
	if err != nil {
		return err
	}

	logger.Noticef("scene %s: %d regions, %d surfaces, %d triangles",
		s.Info.ID, s.Kernel.NumRegions(), s.PrimitiveCount(), s.TriangleCount())

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := sim.Run(runCtx)
	if res != nil {
		logger.Noticef("run summary\n%s", summaryTable(s, res))
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// configFromFlags builds the engine configuration for a scene
func configFromFlags(ctx *cli.Context, s *scene.Scene) (engine.Config, error) {
	config := engine.DefaultConfig()
	config.Packets = ctx.Int("packets")
	config.BatchSize = ctx.Int("batch")
	config.Workers = ctx.Int("workers")
	config.Seed = ctx.Uint64("seed")
	config.TargetRelativeError = ctx.Float64("target-error")
	config.Observable = s.Observable
	config.SpectrumBins = s.SpectrumBins
	config.SpectrumMin = s.SpectrumMin
	config.SpectrumMax = s.SpectrumMax

	if name := ctx.String("observable"); name != "" {
		o, err := tally.ParseObservable(name)
		if err != nil {
			return config, err
		}
		config.Observable = o
	}
	return config, config.Validate()
}

func summaryTable(s *scene.Scene, res *engine.Result) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Quantity", "Total", "Per packet"})

	emitted := res.Tally.Scalar(tally.Emitted)
	for _, q := range tally.Scalars() {
		value := res.Tally.Scalar(q)
		perPacket := "-"
		if emitted > 0 {
			perPacket = fmt.Sprintf("%.6g", value/emitted)
		}
		table.Append([]string{q.String(), fmt.Sprintf("%.6g", value), perPacket})
	}
	table.Append([]string{"balance", fmt.Sprintf("%.3g", res.Tally.Balance()), ""})

	expected := "unknown"
	if s.HasExpected() && res.Observable == s.Observable {
		expected = fmt.Sprintf("%.6g", s.Expected)
	}
	table.SetFooter([]string{
		res.Observable.String(),
		fmt.Sprintf("%.6g ± %.2g%%", res.Estimate(), 100*res.RelativeError),
		"expected " + expected,
	})
	table.Render()

	fmt.Fprintf(&buf, "%d packets in %d batches, %s (%.0f packets/s)", res.Packets, res.Batches,
		res.WallTime, res.PacketsPerSecond())
	switch {
	case res.Converged:
		buf.WriteString(", converged")
	case res.Cancelled:
		buf.WriteString(", cancelled")
	}
	if d := res.Diagnostics; d.Discarded > 0 || d.Capped > 0 {
		fmt.Fprintf(&buf, "\n%.0f capped, %.0f resampled, %.0f discarded (anomaly rate %.2g)",
			d.Capped, d.Resampled, d.Discarded, d.AnomalyRate)
	}
	return buf.String()
}

// listScenes prints the built-in scenes
func listScenes(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	infos := scene.ListScenes()
	if ctx.Bool("json") {
		return writeScenesJSON(os.Stdout, infos)
	}
	fmt.Fprint(os.Stdout, scenesTable(infos))
	return nil
}

func writeScenesJSON(w io.Writer, infos []scene.SceneInfo) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(infos)
}

func scenesTable(infos []scene.SceneInfo) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Scene", "Group", "Name", "Description"})
	for _, info := range infos {
		table.Append([]string{info.ID, info.Group, info.Name, info.Description})
	}
	table.Render()
	return buf.String()
}
