package render

import (
	"bytes"
	"errors"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFramebuffer(t *testing.T) {
	if _, err := NewFramebuffer(0, 10); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("NewFramebuffer(0,10) error = %v, want ErrInvalidSize", err)
	}
	fb, err := NewFramebuffer(7, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, d := range fb.Depth {
		if d != FarDepth {
			t.Fatalf("Depth[%d] = %v, want FarDepth", i, d)
		}
	}
}

func TestFill(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 17, 64, 100} {
		s := make([]uint32, n)
		fill(s, 0xDEADBEEF)
		for i, v := range s {
			if v != 0xDEADBEEF {
				t.Fatalf("n=%d: s[%d] = %#x", n, i, v)
			}
		}
	}
}

func TestFramebufferAt(t *testing.T) {
	fb, _ := NewFramebuffer(4, 4)
	fb.Clear(Red.Pack())
	if got := fb.At(3, 3); got != Red.Pack() {
		t.Errorf("At(3,3) = %#x, want red", got)
	}
	if got := fb.At(4, 0); got != 0 {
		t.Errorf("At out of bounds = %#x, want 0", got)
	}
	if got := fb.DepthAt(-1, 0); got != FarDepth {
		t.Errorf("DepthAt out of bounds = %v, want FarDepth", got)
	}
}

func TestSavePNG(t *testing.T) {
	fb, _ := NewFramebuffer(5, 4)
	fb.Clear(Black.Pack())
	fb.Pixels[2+3*5] = RGBA(1, 0.5, 0, 1).Pack()

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := fb.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, _ := img.At(2, 3).RGBA()
	if r>>8 != 255 || g>>8 != 127 || b != 0 {
		t.Errorf("pixel = (%d,%d,%d), want (255,127,0)", r>>8, g>>8, b>>8)
	}
}

func TestColorPack(t *testing.T) {
	tests := []struct {
		name string
		c    Color
		want uint32
	}{
		{"white", White, 0xFFFFFFFF},
		{"opaque black", Black, 0xFF000000},
		{"red low byte", Red, 0xFF0000FF},
		{"truncates", RGB(0.5, 0.5, 0.5), 0xFF7F7F7F},
		{"clamps", RGBA(2, -1, 0, 1), 0xFF0000FF},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.Pack(); got != tc.want {
				t.Errorf("Pack() = %#x, want %#x", got, tc.want)
			}
		})
	}

	if got := Unpack(Green.Pack()); got != Green {
		t.Errorf("Unpack(Pack(green)) = %v", got)
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	s := NewTextureStore()
	_ = s.Select(3)
	if !strings.Contains(buf.String(), "select of unknown texture") {
		t.Errorf("log output = %q, want a warning for the unknown texture", buf.String())
	}

	SetLogger(nil)
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("default logger should be silent")
	}
}
