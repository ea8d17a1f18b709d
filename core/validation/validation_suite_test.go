package validation

import (
	"bytes"
	"image"
	"image/png"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"edgecam/core"
)

func suiteConfig(t *testing.T) *core.Config {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = freePort(t)
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "edgecam.log")
	return cfg
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func stepByName(r SuiteResult, name string) ValidationStep {
	for _, s := range r.Steps {
		if s.Name == name {
			return s
		}
	}
	return ValidationStep{}
}

func TestValidate_AllPass(t *testing.T) {
	var out bytes.Buffer
	result := NewValidationSuite(suiteConfig(t)).WithOutput(&out).WithMinLogSpace(0).Validate()

	if !result.Success {
		t.Fatalf("Validate() failed: %s\n%s", result.Summary(), out.String())
	}
	if result.TotalSteps != 5 || result.PassedSteps != 5 {
		t.Errorf("steps = %d passed of %d, want 5 of 5", result.PassedSteps, result.TotalSteps)
	}
	if !strings.Contains(out.String(), "Preflight Passed") {
		t.Errorf("output missing summary:\n%s", out.String())
	}
	if result.GetFirstError() != nil {
		t.Errorf("GetFirstError() = %v, want nil", result.GetFirstError())
	}
}

func TestValidate_ConfigFailureSkipsRest(t *testing.T) {
	cfg := suiteConfig(t)
	cfg.FPS = 0

	result := NewValidationSuite(cfg).WithShowProgress(false).Validate()
	if result.Success {
		t.Fatal("Validate() succeeded with fps 0")
	}
	if got := result.Steps[0].Status; got != StepFailed {
		t.Errorf("config step = %v, want failed", got)
	}
	for _, s := range result.Steps[1:] {
		if s.Status != StepSkipped {
			t.Errorf("step %q = %v, want skipped", s.Name, s.Status)
		}
	}
	if code := core.GetErrorCode(result.GetFirstError()); code != core.ErrCodeInvalidValue {
		t.Errorf("first error code = %q, want %q", code, core.ErrCodeInvalidValue)
	}
}

func TestValidate_SourceDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg := suiteConfig(t)
	cfg.Source = dir

	result := NewValidationSuite(cfg).WithShowProgress(false).WithMinLogSpace(0).Validate()
	if got := stepByName(result, "Frame Source").Status; got != StepFailed {
		t.Errorf("empty directory: source step = %v, want failed", got)
	}

	f, err := os.Create(filepath.Join(dir, "frame.png"))
	if err != nil {
		t.Fatal(err)
	}
	png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 4)))
	f.Close()
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600)

	result = NewValidationSuite(cfg).WithShowProgress(false).WithMinLogSpace(0).Validate()
	step := stepByName(result, "Frame Source")
	if step.Status != StepPassed {
		t.Fatalf("source step = %v (%v), want passed", step.Status, step.Error)
	}
	if !strings.HasPrefix(step.Message, "1 images") {
		t.Errorf("message = %q, want one image counted", step.Message)
	}
}

func TestValidate_ListenAddressInUse(t *testing.T) {
	cfg := suiteConfig(t)
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	result := NewValidationSuite(cfg).WithShowProgress(false).WithMinLogSpace(0).Validate()
	if got := stepByName(result, "Listen Address").Status; got != StepFailed {
		t.Errorf("listen step = %v, want failed", got)
	}
	if result.Success {
		t.Error("Validate() succeeded with the port taken")
	}
}

func TestValidate_LowLogSpaceWarns(t *testing.T) {
	cfg := suiteConfig(t)
	result := NewValidationSuite(cfg).WithShowProgress(false).WithMinLogSpace(1 << 62).Validate()

	step := stepByName(result, "Log Directory")
	if step.Status != StepWarning {
		t.Fatalf("log step = %v, want warning", step.Status)
	}
	if !result.Success || result.Warnings != 1 {
		t.Errorf("Success = %v, Warnings = %d; want success with one warning", result.Success, result.Warnings)
	}
	if !strings.Contains(result.Summary(), "1 warnings") {
		t.Errorf("Summary() = %q", result.Summary())
	}
}

func TestValidate_NoLogFile(t *testing.T) {
	cfg := suiteConfig(t)
	cfg.LogFile = ""
	result := NewValidationSuite(cfg).WithShowProgress(false).Validate()
	if got := stepByName(result, "Log Directory").Status; got != StepSkipped {
		t.Errorf("log step = %v, want skipped", got)
	}
}

func TestStepStatusString(t *testing.T) {
	for status, want := range map[StepStatus]string{
		StepPending: "pending", StepRunning: "running", StepPassed: "passed",
		StepFailed: "failed", StepWarning: "warning", StepSkipped: "skipped", StepStatus(99): "unknown",
	} {
		if got := status.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", status, got, want)
		}
	}
}
