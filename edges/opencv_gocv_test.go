//go:build gocv

package edges

import (
	"bytes"
	"testing"

	"edgecam/mat"
)

func TestOpenCV_MatchesNative(t *testing.T) {
	tests := []struct {
		name string
		src  *mat.Mat
	}{
		{"uniform gray", uniform(40, 30, 1, 128)},
		{"uniform rgb", uniform(40, 30, 3, 90)},
		{"uniform rgba", uniform(40, 30, 4, 200)},
		{"split gray", split(40, 30, 1)},
		{"split rgb", split(40, 30, 3)},
		{"split rgba", split(40, 30, 4)},
	}

	cv, err := NewFilter(BackendOpenCV)
	if err != nil {
		t.Fatalf("NewFilter(opencv) error: %v", err)
	}
	if cv.Name() != BackendOpenCV {
		t.Errorf("Name() = %q, want %q", cv.Name(), BackendOpenCV)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := Native{}.Apply(tt.src)
			if err != nil {
				t.Fatalf("native Apply() error: %v", err)
			}
			got, err := cv.Apply(tt.src)
			if err != nil {
				t.Fatalf("opencv Apply() error: %v", err)
			}
			if got.Width != want.Width || got.Height != want.Height || got.Channels != 1 {
				t.Fatalf("opencv result %dx%dx%d, want %dx%dx1",
					got.Width, got.Height, got.Channels, want.Width, want.Height)
			}
			if !bytes.Equal(got.Pix, want.Pix) {
				t.Errorf("edge maps differ: opencv %d edge pixels, native %d",
					countEdges(got), countEdges(want))
			}
		})
	}
}

func TestOpenCV_StridedView(t *testing.T) {
	const w, h = 24, 16
	backing := split(w+8, h, 4)
	view, err := mat.Wrap(backing.Pix, w, h, 4, backing.Stride)
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}

	cv, err := NewFilter(BackendOpenCV)
	if err != nil {
		t.Fatalf("NewFilter(opencv) error: %v", err)
	}
	got, err := cv.Apply(view)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	want, err := Native{}.Apply(view)
	if err != nil {
		t.Fatalf("native Apply() error: %v", err)
	}
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Errorf("strided edge maps differ: opencv %d, native %d", countEdges(got), countEdges(want))
	}
}

func TestOpenCV_RejectsBadInput(t *testing.T) {
	cv, err := NewFilter(BackendOpenCV)
	if err != nil {
		t.Fatalf("NewFilter(opencv) error: %v", err)
	}
	if _, err := cv.Apply(mat.New(4, 4, 2)); err == nil {
		t.Error("Apply(2 channels) succeeded, want error")
	}
}
