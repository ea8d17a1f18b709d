// Package validation runs the startup preflight: configuration, frame
// source, log directory, listen address and filter backend, with coloured
// progress output.
package validation

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"edgecam/bridge"
	"edgecam/capture"
	"edgecam/core"
	"edgecam/edges"
)

// DefaultMinLogSpace is the free space below which the log directory check
// warns. It covers the active log plus three rotated 20MB files.
const DefaultMinLogSpace = 100 * core.BytesPerMB

// ValidationStep represents a single validation step with its status.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// StepStatus represents the status of a validation step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepPassed
	StepFailed
	StepWarning
	StepSkipped
)

// String returns the string representation of a step status.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// SuiteResult represents the complete result of validation suite execution.
type SuiteResult struct {
	Steps       []ValidationStep
	TotalSteps  int
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

// stepFunc runs one check. A non-nil error with StepWarning is reported but
// does not fail the suite.
type stepFunc func() (StepStatus, string, error)

// ValidationSuite is the preflight organism. It checks everything the
// service needs before any component is built.
type ValidationSuite struct {
	cfg          *core.Config
	output       io.Writer
	minLogSpace  int64
	showProgress bool
	failFast     bool
}

// NewValidationSuite creates a suite for cfg with default settings.
func NewValidationSuite(cfg *core.Config) *ValidationSuite {
	return &ValidationSuite{
		cfg:          cfg,
		output:       os.Stdout,
		minLogSpace:  DefaultMinLogSpace,
		showProgress: true,
	}
}

// WithOutput sets the output writer for progress messages.
func (s *ValidationSuite) WithOutput(w io.Writer) *ValidationSuite {
	s.output = w
	return s
}

// WithShowProgress enables or disables progress output.
func (s *ValidationSuite) WithShowProgress(show bool) *ValidationSuite {
	s.showProgress = show
	return s
}

// WithFailFast stops validation on first failure if enabled.
func (s *ValidationSuite) WithFailFast(failFast bool) *ValidationSuite {
	s.failFast = failFast
	return s
}

// WithMinLogSpace sets the free-space threshold for the log directory.
func (s *ValidationSuite) WithMinLogSpace(bytes int64) *ValidationSuite {
	s.minLogSpace = bytes
	return s
}

// Validate runs all checks in order. Once the configuration check fails the
// remaining checks are skipped, since they read the same configuration.
func (s *ValidationSuite) Validate() SuiteResult {
	startTime := time.Now()

	if s.showProgress {
		s.printHeader("edgecam Preflight")
	}

	checks := []struct {
		name string
		fn   stepFunc
	}{
		{"Configuration", s.checkConfig},
		{"Frame Source", s.checkSource},
		{"Log Directory", s.checkLogDir},
		{"Listen Address", s.checkListenAddr},
		{"Filter Backend", s.checkFilter},
	}

	steps := make([]ValidationStep, 0, len(checks))
	for i, check := range checks {
		if i > 0 && steps[0].Status == StepFailed {
			step := ValidationStep{Name: check.name, Status: StepSkipped, Message: "Skipped due to configuration errors"}
			if s.showProgress {
				s.printStep(step)
			}
			steps = append(steps, step)
			continue
		}

		step := s.runStep(check.name, check.fn)
		steps = append(steps, step)
		if s.failFast && step.Status == StepFailed {
			break
		}
	}

	result := s.buildResult(steps, startTime)
	if s.showProgress {
		s.printSummary(result)
	}
	return result
}

func (s *ValidationSuite) checkConfig() (StepStatus, string, error) {
	if err := s.cfg.Validate(); err != nil {
		return StepFailed, "", err
	}
	return StepPassed, fmt.Sprintf("%dx%d at %d fps", s.cfg.FrameWidth, s.cfg.FrameHeight, s.cfg.FPS), nil
}

func (s *ValidationSuite) checkSource() (StepStatus, string, error) {
	if s.cfg.Source == core.SourceSynthetic {
		return StepPassed, "built-in test pattern", nil
	}
	if err := CheckDirReadable(s.cfg.Source); err != nil {
		return StepFailed, "", err
	}
	n, err := countMatching(s.cfg.Source, capture.IsSupportedImage)
	if err != nil {
		return StepFailed, "", err
	}
	if n == 0 {
		return StepFailed, "", fmt.Errorf("no supported images in %s", s.cfg.Source)
	}
	return StepPassed, fmt.Sprintf("%d images in %s", n, s.cfg.Source), nil
}

func (s *ValidationSuite) checkLogDir() (StepStatus, string, error) {
	if s.cfg.LogFile == "" {
		return StepSkipped, "file logging disabled", nil
	}
	dir := filepath.Dir(s.cfg.LogFile)
	if err := CheckDirWritable(dir); err != nil {
		return StepFailed, "", err
	}
	info, err := GetDiskSpace(dir)
	if err != nil {
		return StepWarning, "cannot read free space", err
	}
	if info.Free < s.minLogSpace {
		return StepWarning, fmt.Sprintf("%s free", info.FreeFormatted),
			&DiskSpaceError{Path: info.Path, Required: s.minLogSpace, Available: info.Free}
	}
	return StepPassed, fmt.Sprintf("%s free", info.FreeFormatted), nil
}

func (s *ValidationSuite) checkListenAddr() (StepStatus, string, error) {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return StepFailed, "", fmt.Errorf("cannot listen on %s: %w", s.cfg.Addr(), err)
	}
	ln.Close()
	return StepPassed, s.cfg.Addr(), nil
}

func (s *ValidationSuite) checkFilter() (StepStatus, string, error) {
	filter, err := edges.NewFilter(s.cfg.FilterBackend)
	if err != nil {
		return StepFailed, "", err
	}
	if !bridge.New(bridge.Config{Filter: filter}).SelfTest() {
		return StepFailed, "", fmt.Errorf("%s filter failed its self test", filter.Name())
	}
	return StepPassed, filter.Name(), nil
}

// runStep executes a validation step with timing and progress output.
func (s *ValidationSuite) runStep(name string, fn stepFunc) ValidationStep {
	if s.showProgress {
		s.printStepStart(name)
	}

	startTime := time.Now()
	status, message, err := fn()
	step := ValidationStep{
		Name:    name,
		Status:  status,
		Message: message,
		Error:   err,
		Latency: time.Since(startTime),
	}

	if s.showProgress {
		s.printStep(step)
	}
	return step
}

// buildResult creates a SuiteResult from completed steps.
func (s *ValidationSuite) buildResult(steps []ValidationStep, startTime time.Time) SuiteResult {
	result := SuiteResult{
		Steps:      steps,
		TotalSteps: len(steps),
		Duration:   time.Since(startTime),
		Success:    true,
	}

	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		case StepWarning:
			result.Warnings++
		}
	}
	return result
}

func (s *ValidationSuite) printHeader(title string) {
	fmt.Fprintln(s.output)
	color.New(color.FgCyan, color.Bold).Fprintf(s.output, "━━━ %s ━━━\n", title)
	fmt.Fprintln(s.output)
}

func (s *ValidationSuite) printStepStart(name string) {
	fmt.Fprintf(s.output, "  ◌ %s...", name)
}

// printStep prints a completed validation step with status indicator.
func (s *ValidationSuite) printStep(step ValidationStep) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case StepFailed:
		icon = "✗"
		clr = color.New(color.FgRed)
	case StepWarning:
		icon = "!"
		clr = color.New(color.FgYellow)
	case StepSkipped:
		icon = "○"
		clr = color.New(color.FgHiBlack)
	default:
		icon = "?"
		clr = color.New(color.FgWhite)
	}

	// Clear the "running" line and print result
	fmt.Fprintf(s.output, "\r")
	clr.Fprintf(s.output, "  %s %s", icon, step.Name)
	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(s.output, " - %s", step.Message)
	}
	fmt.Fprintln(s.output)

	if (step.Status == StepFailed || step.Status == StepWarning) && step.Error != nil {
		clr.Fprintf(s.output, "    └─ %s\n", step.Error.Error())
	}
}

func (s *ValidationSuite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)

	if result.Success {
		successColor := color.New(color.FgGreen, color.Bold)
		successColor.Fprintf(s.output, "━━━ Preflight Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d/%d checks passed in %v)",
			result.PassedSteps, result.TotalSteps, result.Duration.Round(time.Millisecond))
		successColor.Fprintln(s.output, " ━━━")
	} else {
		failColor := color.New(color.FgRed, color.Bold)
		failColor.Fprintf(s.output, "━━━ Preflight Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
		failColor.Fprintln(s.output, " ━━━")
	}

	fmt.Fprintln(s.output)
}

// GetErrors returns all errors from failed and warning steps.
func (r SuiteResult) GetErrors() []error {
	errs := make([]error, 0)
	for _, step := range r.Steps {
		if step.Error != nil {
			errs = append(errs, step.Error)
		}
	}
	return errs
}

// GetFirstError returns the first error from a failed step, or nil.
func (r SuiteResult) GetFirstError() error {
	for _, step := range r.Steps {
		if step.Status == StepFailed && step.Error != nil {
			return step.Error
		}
	}
	return nil
}

// Summary returns a human-readable summary string.
func (r SuiteResult) Summary() string {
	var sb strings.Builder
	if r.Success {
		sb.WriteString("Preflight passed: ")
	} else {
		sb.WriteString("Preflight failed: ")
	}
	fmt.Fprintf(&sb, "%d/%d checks passed", r.PassedSteps, r.TotalSteps)
	if r.FailedSteps > 0 {
		fmt.Fprintf(&sb, ", %d failed", r.FailedSteps)
	}
	if r.Warnings > 0 {
		fmt.Fprintf(&sb, ", %d warnings", r.Warnings)
	}
	fmt.Fprintf(&sb, " (took %v)", r.Duration.Round(time.Millisecond))
	return sb.String()
}
