package edges

import (
	"errors"
	"testing"

	"edgecam/mat"
)

// uniform returns a w x h image with every channel set to v.
func uniform(w, h, ch int, v byte) *mat.Mat {
	m := mat.New(w, h, ch)
	m.Fill(v)
	return m
}

// split returns an image whose left half is black and right half white.
func split(w, h, ch int) *mat.Mat {
	m := mat.New(w, h, ch)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			for c := 0; c < ch; c++ {
				m.Set(x, y, c, 255)
			}
		}
	}
	return m
}

func countEdges(m *mat.Mat) int {
	n := 0
	for _, v := range m.Pix {
		if v == EdgeValue {
			n++
		}
	}
	return n
}

func TestGray_UniformInput(t *testing.T) {
	tests := []struct {
		name     string
		channels int
	}{
		{"rgb", 3},
		{"rgba", 4},
		{"gray", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Gray(uniform(8, 6, tt.channels, 100))
			if err != nil {
				t.Fatalf("Gray() error: %v", err)
			}
			if g.Channels != 1 || g.Width != 8 || g.Height != 6 {
				t.Fatalf("Gray() shape = %dx%dx%d", g.Width, g.Height, g.Channels)
			}
			for i, v := range g.Pix {
				if v != 100 {
					t.Fatalf("Pix[%d] = %d, want 100", i, v)
				}
			}
		})
	}
}

func TestGray_ChannelOrder(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b byte
		want    byte
	}{
		{"red", 255, 0, 0, 76},
		{"green", 0, 255, 0, 150},
		{"blue", 0, 0, 255, 29},
		{"white", 255, 255, 255, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mat.New(1, 1, 3)
			m.Pix[0], m.Pix[1], m.Pix[2] = tt.r, tt.g, tt.b
			g, err := Gray(m)
			if err != nil {
				t.Fatalf("Gray() error: %v", err)
			}
			if g.Pix[0] != tt.want {
				t.Errorf("Gray() = %d, want %d", g.Pix[0], tt.want)
			}
		})
	}
}

func TestGray_IgnoresAlpha(t *testing.T) {
	a := uniform(4, 4, 4, 60)
	b := uniform(4, 4, 4, 60)
	for i := 3; i < len(b.Pix); i += 4 {
		b.Pix[i] = byte(i)
	}
	ga, _ := Gray(a)
	gb, _ := Gray(b)
	for i := range ga.Pix {
		if ga.Pix[i] != gb.Pix[i] {
			t.Fatalf("alpha changed gray output at %d", i)
		}
	}
}

func TestGray_SingleChannelIsIdempotentClone(t *testing.T) {
	src := split(6, 4, 1)
	once, err := Gray(src)
	if err != nil {
		t.Fatalf("Gray() error: %v", err)
	}
	twice, err := Gray(once)
	if err != nil {
		t.Fatalf("Gray() error: %v", err)
	}
	for i := range src.Pix {
		if once.Pix[i] != src.Pix[i] || twice.Pix[i] != src.Pix[i] {
			t.Fatalf("Gray() changed single-channel pixel %d", i)
		}
	}

	once.Pix[0] = 99
	if src.Pix[0] == 99 {
		t.Error("Gray() result aliases its input")
	}
}

func TestGray_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     *mat.Mat
		wantErr error
	}{
		{"two channels", uniform(4, 4, 2, 0), ErrUnsupportedChannels},
		{"zero size", mat.New(0, 0, 3), ErrEmptyImage},
		{"nil", nil, ErrEmptyImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Gray(tt.src); !errors.Is(err, tt.wantErr) {
				t.Errorf("Gray() error = %v, want %v", err, tt.wantErr)
			}
			if _, err := Detect(tt.src); !errors.Is(err, tt.wantErr) {
				t.Errorf("Detect() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBlur(t *testing.T) {
	src := mat.New(3, 1, 1)
	src.Pix[0], src.Pix[1], src.Pix[2] = 0, 90, 180

	got := Blur(src)

	// Row reflects onto itself vertically, so each column sums three copies.
	want := []byte{60, 90, 120}
	for i, v := range want {
		if got.Pix[i] != v {
			t.Errorf("Blur()[%d] = %d, want %d", i, got.Pix[i], v)
		}
	}
}

func TestReflect101(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{-1, 5, 1},
		{0, 5, 0},
		{5, 5, 3},
		{-1, 1, 0},
		{2, 2, 0},
	}
	for _, tt := range tests {
		if got := reflect101(tt.i, tt.n); got != tt.want {
			t.Errorf("reflect101(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestDetect_UniformHasNoEdges(t *testing.T) {
	for _, ch := range []int{1, 3, 4} {
		out, err := Detect(uniform(32, 24, ch, 128))
		if err != nil {
			t.Fatalf("Detect(%d channels) error: %v", ch, err)
		}
		if n := countEdges(out); n != 0 {
			t.Errorf("Detect(%d channels) found %d edge pixels, want 0", ch, n)
		}
	}
}

func TestDetect_SplitHasVerticalEdge(t *testing.T) {
	const w, h = 20, 16
	out, err := Detect(split(w, h, 3))
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if out.Channels != 1 || out.Width != w || out.Height != h {
		t.Fatalf("Detect() shape = %dx%dx%d", out.Width, out.Height, out.Channels)
	}

	for y := 0; y < h; y++ {
		row := out.Row(y)
		if row[w/2-1] != EdgeValue {
			t.Errorf("row %d: no edge at boundary column %d", y, w/2-1)
		}
		for x, v := range row {
			if v != 0 && v != EdgeValue {
				t.Fatalf("non-binary output %d at (%d,%d)", v, x, y)
			}
			if v == EdgeValue && (x < w/2-2 || x > w/2+1) {
				t.Errorf("stray edge at (%d,%d)", x, y)
			}
		}
	}
}

func TestDetect_DoesNotModifyInput(t *testing.T) {
	src := split(10, 10, 4)
	before := append([]byte(nil), src.Pix...)
	if _, err := Detect(src); err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	for i := range before {
		if src.Pix[i] != before[i] {
			t.Fatal("Detect() modified its input")
		}
	}
}

func TestDetect_StridedView(t *testing.T) {
	const w, h, stride = 10, 6, 48
	pix := make([]byte, (h-1)*stride+w*4)
	for i := range pix {
		pix[i] = 0xcc
	}
	view, err := mat.Wrap(pix, w, h, 4, stride)
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}
	out, err := Detect(view)
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if countEdges(out) != 0 {
		t.Error("padding bytes leaked into the edge map")
	}
}

func TestNewFilter(t *testing.T) {
	f, err := NewFilter("")
	if err != nil || f.Name() != BackendNative {
		t.Fatalf("NewFilter(\"\") = %v, %v", f, err)
	}
	if _, err := NewFilter("sobel"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("NewFilter(sobel) error = %v, want ErrUnknownBackend", err)
	}
}
