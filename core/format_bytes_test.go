package core

import "testing"

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{-5, "0 B"},
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{20 * BytesPerMB, "20.00 MB"},
		{3 * BytesPerGB, "3.00 GB"},
		{BytesPerTB, "1.00 TB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "512", want: 512},
		{in: "20MB", want: 20 * BytesPerMB},
		{in: "20m", want: 20 * BytesPerMB},
		{in: " 1.5 GB ", want: BytesPerGB + BytesPerGB/2},
		{in: "2kb", want: 2048},
		{in: "1T", want: BytesPerTB},
		{in: "", wantErr: true},
		{in: "MB", wantErr: true},
		{in: "10XB", wantErr: true},
		{in: "1.2.3MB", wantErr: true},
		{in: "-5MB", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBytes(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseBytes(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBytes(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
