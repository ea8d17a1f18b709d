package core

import "testing"

func TestExitCodes_Distinct(t *testing.T) {
	seen := map[int]string{}
	for _, code := range []int{
		ExitCodeSuccess, ExitCodeError, ExitCodeSelfTestFailed,
		ExitCodeUsage, ExitCodeSIGINT, ExitCodeSIGTERM,
	} {
		name := ExitCodeName(code)
		if name == "unknown" {
			t.Errorf("ExitCodeName(%d) = unknown", code)
		}
		if prev, dup := seen[code]; dup {
			t.Errorf("exit code %d used by both %q and %q", code, prev, name)
		}
		seen[code] = name
	}
}

func TestExitCodes_CommandOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		want   int
		label  string
		signal bool
	}{
		{name: "bad flag or argument", code: ExitCodeUsage, want: 64, label: "usage"},
		{name: "selftest check failed", code: ExitCodeSelfTestFailed, want: 2, label: "self test failed"},
		{name: "startup error", code: ExitCodeError, want: 1, label: "error"},
		{name: "ctrl-c", code: ExitCodeSIGINT, want: 130, label: "interrupted (SIGINT)", signal: true},
		{name: "service stop", code: ExitCodeSIGTERM, want: 143, label: "terminated (SIGTERM)", signal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.want {
				t.Errorf("code = %d, want %d", tt.code, tt.want)
			}
			if got := ExitCodeName(tt.code); got != tt.label {
				t.Errorf("ExitCodeName(%d) = %q, want %q", tt.code, got, tt.label)
			}
			if got := IsSignalExit(tt.code); got != tt.signal {
				t.Errorf("IsSignalExit(%d) = %v, want %v", tt.code, got, tt.signal)
			}
		})
	}
}

func TestExitCodeName_Unknown(t *testing.T) {
	if got := ExitCodeName(99); got != "unknown" {
		t.Errorf("ExitCodeName(99) = %q, want unknown", got)
	}
}
