package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"time"

	fcolor "github.com/fatih/color"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"edgecam/bridge"
	"edgecam/capture"
	"edgecam/core"
	"edgecam/core/validation"
	"edgecam/edges"
	"edgecam/logging"
	"edgecam/mat"
	"edgecam/pixbuf"
)

// newRootCmd builds the command tree. Running the root command with no
// subcommand starts the service in the foreground.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "edgecam",
		Short: "Live edge detection over shared pixel buffers",
		Long: `edgecam pulls frames from a source, runs a fixed Canny edge filter through
a zero-copy buffer bridge and streams the result to browsers over WebSocket.

Configuration is read from EDGECAM_* environment variables, .env and the YAML
file named by EDGECAM_CONFIG.

Examples:
  edgecam                            # serve on :8080
  edgecam selftest                   # check the filter
  edgecam process in.jpg edges.png   # filter one file
  edgecam service install            # install as a system service`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.ErrOrStderr())
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return withExitCode(core.ExitCodeUsage, err)
	})

	root.AddCommand(
		newRunCmd(),
		newSelfTestCmd(),
		newProcessCmd(),
		newServiceCmd(),
		newVersionCmd(),
	)
	return root
}

// usageArgs tags argument validation failures with ExitCodeUsage.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return withExitCode(core.ExitCodeUsage, err)
		}
		return nil
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Serve the camera stream (default)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.ErrOrStderr())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "edgecam", core.GetVersionInfo())
		},
	}
}

// runServe runs the service until SIGINT, SIGTERM or a service manager stop.
func runServe(stderr io.Writer) error {
	if !service.Interactive() {
		return runAsService()
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		fmt.Fprintln(stderr, describeStartupError(err))
		return withExitCode(core.ExitCodeError, nil)
	}
	defer logger.Sync()

	if !runPreflight(cfg, logger, stderr) {
		return withExitCode(core.ExitCodeError, nil)
	}

	logger.Info("Starting edgecam",
		zap.String("version", core.GetVersion()),
		zap.String("commit", core.GetGitCommit()),
		zap.Bool("dev_mode", cfg.DevMode),
	)

	app, err := NewApp(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", zap.Error(err))
		return withExitCode(core.ExitCodeError, nil)
	}
	app.HandleSignals()
	if err := app.Run(); err != nil {
		logger.Error("Stopped with error", zap.Error(err))
		return withExitCode(core.ExitCodeError, nil)
	}
	logger.Info("Goodbye!")
	return nil
}

// runPreflight runs the startup validation suite and logs failed steps.
func runPreflight(cfg *core.Config, logger *logging.Logger, out io.Writer) bool {
	result := validation.NewValidationSuite(cfg).WithOutput(out).Validate()
	for _, step := range result.Steps {
		switch step.Status {
		case validation.StepFailed:
			logger.Error("Preflight step failed",
				zap.String("step", step.Name),
				zap.String("message", step.Message),
				zap.Error(step.Error),
			)
		case validation.StepWarning:
			logger.Warn("Preflight warning",
				zap.String("step", step.Name),
				zap.String("message", step.Message),
				zap.Error(step.Error),
			)
		}
	}
	if !result.Success {
		return false
	}
	logger.Info("Preflight passed",
		zap.Int("checks_passed", result.PassedSteps),
		zap.Duration("duration", result.Duration),
	)
	return true
}

func newSelfTestCmd() *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Filter probe images and report whether the filter works",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfTest(cmd.Context(), cmd.OutOrStdout(), backend)
		},
	}
	cmd.Flags().StringVar(&backend, "backend", os.Getenv("EDGECAM_FILTER_BACKEND"), "filter backend: native or opencv")
	return cmd
}

// selfTestCheck is one line of the selftest report.
type selfTestCheck struct {
	name string
	run  func(ctx context.Context, b *bridge.Bridge) error
}

var selfTestChecks = []selfTestCheck{
	{name: "uniform probe", run: checkProbe},
	{name: "flat pixel array", run: checkFlat},
	{name: "buffer bridge", run: checkBuffers},
}

// runSelfTest prints a coloured verdict per check and fails with
// ExitCodeSelfTestFailed if any check fails.
func runSelfTest(ctx context.Context, out io.Writer, backend string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pass := fcolor.New(fcolor.FgGreen, fcolor.Bold)
	fail := fcolor.New(fcolor.FgRed, fcolor.Bold)

	filter, err := edges.NewFilter(backend)
	if err != nil {
		fail.Fprint(out, "FAIL")
		fmt.Fprintf(out, " filter backend: %v\n", err)
		return withExitCode(core.ExitCodeSelfTestFailed, nil)
	}
	b := bridge.New(bridge.Config{Filter: filter})
	fmt.Fprintf(out, "edgecam %s, filter %s\n", core.GetVersion(), b.FilterName())

	failed := 0
	for _, check := range selfTestChecks {
		if err := check.run(ctx, b); err != nil {
			failed++
			fail.Fprint(out, "FAIL")
			fmt.Fprintf(out, " %s: %v\n", check.name, err)
			continue
		}
		pass.Fprint(out, "PASS")
		fmt.Fprintf(out, " %s\n", check.name)
	}

	if failed > 0 {
		fail.Fprintf(out, "%d of %d checks failed\n", failed, len(selfTestChecks))
		return withExitCode(core.ExitCodeSelfTestFailed, nil)
	}
	pass.Fprintln(out, "all checks passed")
	return nil
}

func checkProbe(_ context.Context, b *bridge.Bridge) error {
	if !b.SelfTest() {
		return fmt.Errorf("filter returned no result")
	}
	return nil
}

// splitProbe is black on the left half and white on the right.
func splitProbe(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := size / 2; x < size; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
		for x := 0; x < size/2; x++ {
			img.SetRGBA(x, y, color.RGBA{A: 255})
		}
	}
	return img
}

func checkFlat(_ context.Context, b *bridge.Bridge) error {
	const size = 32
	m, err := mat.FromRGBA(splitProbe(size))
	if err != nil {
		return err
	}
	out, err := b.ProcessFlatPixels(bridge.PackRGBA(m), size, size)
	if err != nil {
		return err
	}
	for _, p := range out {
		if p&0xff == 0xff {
			return nil
		}
	}
	return fmt.Errorf("no edge found at the black/white boundary")
}

func checkBuffers(ctx context.Context, b *bridge.Bridge) error {
	const size = 32
	src, err := pixbuf.NewMemoryBufferFromImage(splitProbe(size))
	if err != nil {
		return err
	}
	dst, err := pixbuf.NewMemoryBuffer(size, size, pixbuf.FormatRGBA8888)
	if err != nil {
		return err
	}
	res := b.Process(ctx, src, dst)
	if res.Err != nil {
		return res.Err
	}
	if res.Path != bridge.PathDirect {
		return fmt.Errorf("expected the direct path, got %s", res.Path)
	}
	return nil
}

func newProcessCmd() *cobra.Command {
	var (
		flat    bool
		backend string
	)
	cmd := &cobra.Command{
		Use:   "process <input image> <output.png>",
		Short: "Run edge detection on one image file",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := edges.NewFilter(backend)
			if err != nil {
				return withExitCode(core.ExitCodeUsage, err)
			}
			logger := cliLogger(cmd.ErrOrStderr())
			defer logger.Sync()

			b := bridge.New(bridge.Config{Filter: filter, Logger: logger})
			start := time.Now()
			if err := processFile(cmd.Context(), b, args[0], args[1], flat); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s in %s\n", args[1], time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVar(&flat, "flat", false, "use the packed pixel array entry point instead of buffers")
	cmd.Flags().StringVar(&backend, "backend", os.Getenv("EDGECAM_FILTER_BACKEND"), "filter backend: native or opencv")
	return cmd
}

// cliLogger writes warnings and errors to w in console format.
func cliLogger(w io.Writer) *logging.Logger {
	level := zapcore.WarnLevel
	logger, err := logging.New(logging.Options{
		Development: true,
		Level:       &level,
		Console:     zapcore.AddSync(w),
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// processFile filters the image at in and writes the edge map to out as PNG.
func processFile(ctx context.Context, b *bridge.Bridge, in, out string, flat bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	img, err := capture.LoadImage(in)
	if err != nil {
		return err
	}
	src, err := pixbuf.NewMemoryBufferFromImage(img)
	if err != nil {
		return err
	}
	info, _ := src.Info()

	var result image.Image
	if flat {
		result, err = processFlat(ctx, b, src, info)
	} else {
		result, err = processBuffers(ctx, b, src, info)
	}
	if err != nil {
		return err
	}
	return capture.SavePNG(out, result)
}

func processBuffers(ctx context.Context, b *bridge.Bridge, src *pixbuf.MemoryBuffer, info pixbuf.Info) (image.Image, error) {
	dst, err := pixbuf.NewMemoryBuffer(info.Width, info.Height, pixbuf.FormatRGBA8888)
	if err != nil {
		return nil, err
	}
	if err := b.ProcessBuffers(ctx, src, dst); err != nil {
		return nil, err
	}
	pix, err := dst.Bytes(ctx)
	if err != nil {
		return nil, err
	}
	return &image.RGBA{
		Pix:    pix,
		Stride: info.Stride,
		Rect:   image.Rect(0, 0, info.Width, info.Height),
	}, nil
}

func processFlat(ctx context.Context, b *bridge.Bridge, src *pixbuf.MemoryBuffer, info pixbuf.Info) (image.Image, error) {
	m, _, err := pixbuf.Snapshot(ctx, src)
	if err != nil {
		return nil, err
	}
	out, err := b.ProcessFlatPixels(bridge.PackRGBA(m), info.Width, info.Height)
	if err != nil {
		return nil, err
	}
	return bridge.UnpackRGBA(out, info.Width, info.Height).ToImage()
}
