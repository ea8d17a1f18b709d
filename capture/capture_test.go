package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	if err := SavePNG(path, img); err != nil {
		t.Fatalf("SavePNG() error: %v", err)
	}
}

func TestDecodeImage(t *testing.T) {
	var pngData, bmpData bytes.Buffer
	if err := png.Encode(&pngData, solid(3, 2, color.RGBA{R: 255, A: 255})); err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(&bmpData, solid(3, 2, color.RGBA{B: 255, A: 255})); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "png", data: pngData.Bytes()},
		{name: "bmp", data: bmpData.Bytes()},
		{name: "empty", data: nil, wantErr: ErrEmptyImage},
		{name: "garbage", data: []byte("not an image"), wantErr: ErrInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeImage(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeImage() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeImage() error: %v", err)
			}
			if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
				t.Errorf("bounds = %v, want 3x2", img.Bounds())
			}
		})
	}
}

func TestIsSupportedImage(t *testing.T) {
	tests := map[string]bool{
		"a.png":   true,
		"b.JPG":   true,
		"c.webp":  true,
		"d.tiff":  true,
		"e.txt":   false,
		"noext":   false,
		"f.png.1": false,
	}
	for name, want := range tests {
		if got := IsSupportedImage(name); got != want {
			t.Errorf("IsSupportedImage(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFit(t *testing.T) {
	t.Run("same size copies exactly", func(t *testing.T) {
		src := solid(4, 4, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		dst, err := Fit(src, 4, 4)
		if err != nil {
			t.Fatalf("Fit() error: %v", err)
		}
		if !bytes.Equal(dst.Pix, src.Pix) {
			t.Error("Fit() changed pixels at identical size")
		}
	})

	t.Run("wide image is letterboxed", func(t *testing.T) {
		src := solid(40, 10, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		dst, err := Fit(src, 20, 20)
		if err != nil {
			t.Fatalf("Fit() error: %v", err)
		}
		if dst.Bounds().Dx() != 20 || dst.Bounds().Dy() != 20 {
			t.Fatalf("bounds = %v, want 20x20", dst.Bounds())
		}
		if top := dst.RGBAAt(10, 0); top.R != 0 || top.A != 255 {
			t.Errorf("top border = %v, want opaque black", top)
		}
		if mid := dst.RGBAAt(10, 10); mid.R < 190 {
			t.Errorf("centre = %v, want scaled content", mid)
		}
	})

	t.Run("invalid target", func(t *testing.T) {
		if _, err := Fit(solid(2, 2, color.RGBA{}), 0, 5); !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("Fit() error = %v, want ErrInvalidDimensions", err)
		}
	})
}

func TestSyntheticSource(t *testing.T) {
	src, err := NewSyntheticSource(64, 48)
	if err != nil {
		t.Fatalf("NewSyntheticSource() error: %v", err)
	}
	ctx := context.Background()

	a, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	b, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if a.Bounds() != image.Rect(0, 0, 64, 48) {
		t.Errorf("bounds = %v", a.Bounds())
	}
	if bytes.Equal(a.(*image.RGBA).Pix, b.(*image.RGBA).Pix) {
		t.Error("consecutive frames are identical, want motion")
	}
	if !bytes.Equal(src.Render(1).Pix, b.(*image.RGBA).Pix) {
		t.Error("Render() is not deterministic")
	}

	src.Close()
	if _, err := src.Next(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Next() after Close error = %v, want ErrClosed", err)
	}
}

func TestSyntheticSource_Errors(t *testing.T) {
	if _, err := NewSyntheticSource(4, 100); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("tiny width error = %v, want ErrInvalidDimensions", err)
	}

	src, _ := NewSyntheticSource(16, 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() with cancelled ctx error = %v", err)
	}
}

func TestDirSource_CyclesInNameOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), solid(8, 8, color.RGBA{G: 255, A: 255}))
	writePNG(t, filepath.Join(dir, "a.png"), solid(8, 8, color.RGBA{R: 255, A: 255}))
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub.png"), 0o755)

	src, err := NewDirSource(dir, 8, 8)
	if err != nil {
		t.Fatalf("NewDirSource() error: %v", err)
	}
	if n := len(src.Files()); n != 2 {
		t.Fatalf("Files() = %v, want 2 images", src.Files())
	}

	ctx := context.Background()
	wantRed := []bool{true, false, true}
	for i, red := range wantRed {
		img, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("Next() #%d error: %v", i, err)
		}
		px := img.(*image.RGBA).RGBAAt(4, 4)
		if (px.R == 255) != red {
			t.Errorf("frame %d pixel = %v, want red=%v", i, px, red)
		}
	}
}

func TestDirSource_SkipsUndecodable(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.png"), []byte("broken"), 0o644)
	writePNG(t, filepath.Join(dir, "b.png"), solid(4, 4, color.RGBA{B: 255, A: 255}))

	src, err := NewDirSource(dir, 4, 4)
	if err != nil {
		t.Fatalf("NewDirSource() error: %v", err)
	}
	img, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if px := img.(*image.RGBA).RGBAAt(0, 0); px.B != 255 {
		t.Errorf("pixel = %v, want blue frame from b.png", px)
	}
}

func TestDirSource_Errors(t *testing.T) {
	empty := t.TempDir()
	if _, err := NewDirSource(empty, 4, 4); !errors.Is(err, ErrNoFrames) {
		t.Errorf("empty dir error = %v, want ErrNoFrames", err)
	}
	if _, err := NewDirSource(filepath.Join(empty, "missing"), 4, 4); err == nil {
		t.Error("missing dir error = nil")
	}

	broken := t.TempDir()
	os.WriteFile(filepath.Join(broken, "x.png"), []byte("broken"), 0o644)
	src, err := NewDirSource(broken, 4, 4)
	if err != nil {
		t.Fatalf("NewDirSource() error: %v", err)
	}
	if _, err := src.Next(context.Background()); !errors.Is(err, ErrNoFrames) {
		t.Errorf("all-broken Next() error = %v, want ErrNoFrames", err)
	}
}

func TestOpen(t *testing.T) {
	src, err := Open(Synthetic, 32, 24)
	if err != nil {
		t.Fatalf("Open(synthetic) error: %v", err)
	}
	if _, ok := src.(*SyntheticSource); !ok {
		t.Errorf("Open(synthetic) = %T", src)
	}

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), solid(2, 2, color.RGBA{A: 255}))
	src, err = Open(dir, 32, 24)
	if err != nil {
		t.Fatalf("Open(dir) error: %v", err)
	}
	if _, ok := src.(*DirSource); !ok {
		t.Errorf("Open(dir) = %T", src)
	}
}
