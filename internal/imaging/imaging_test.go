package imaging

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestBinarizeMaskThreshold(t *testing.T) {
	// channel values {0, 128, 254, 255}: only 255 may survive
	src := image.NewGray(image.Rect(0, 0, 4, 1))
	vals := []uint8{0, 128, 254, 255}
	for x, v := range vals {
		src.SetGray(x, 0, color.Gray{Y: v})
	}

	out := BinarizeMask(src)
	want := []uint8{0, 0, 0, 255}
	for x := range vals {
		if got := out.GrayAt(x, 0).Y; got != want[x] {
			t.Fatalf("pixel %d: input %d, got %d, want %d", x, vals[x], got, want[x])
		}
	}
}

func TestBinarizeMaskOnlyProducesTwoValues(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.SetGray(x, y, color.Gray{Y: uint8(x*16 + y)})
		}
	}
	out := BinarizeMask(src)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := out.GrayAt(x, y).Y
			if v != 0 && v != 255 {
				t.Fatalf("non-binary value %d at (%d,%d)", v, x, y)
			}
		}
	}
}

func TestNormalizeMaskResizesToInitSize(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 2, 2))
	mask.SetGray(0, 0, color.Gray{Y: 255})
	init := image.Rect(0, 0, 8, 8)

	out := NormalizeMask(mask, init)
	if out.Bounds().Dx() != 8 || out.Bounds().Dy() != 8 {
		t.Fatalf("unexpected size: %v", out.Bounds())
	}
	// nearest-neighbour must not introduce gray values
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			g := color.GrayModel.Convert(out.At(x, y)).(color.Gray).Y
			if g != 0 && g != 255 {
				t.Fatalf("interpolated value %d at (%d,%d)", g, x, y)
			}
		}
	}
}

func TestResizeBilinearVideoDimensions(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 200))
	out := ResizeBilinear(src, VideoWidth, VideoHeight)
	if out.Bounds().Dx() != 1024 || out.Bounds().Dy() != 576 {
		t.Fatalf("unexpected size: %v", out.Bounds())
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "mask.png")
	src := image.NewGray(image.Rect(0, 0, 3, 3))
	src.SetGray(1, 1, color.Gray{Y: 255})
	if err := SavePNG(src, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	g := color.GrayModel.Convert(got.At(1, 1)).(color.Gray)
	if g.Y != 255 {
		t.Fatalf("expected white center pixel, got %d", g.Y)
	}
}
