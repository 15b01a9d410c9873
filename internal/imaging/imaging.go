// Package imaging holds the small amount of pixel work the dispatchers do
// themselves: mask normalization for inpainting and fixed-size resizes.
// Codec internals are left to the standard decoders.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// Fixed input resolution for the image-to-video pipeline.
const (
	VideoWidth  = 1024
	VideoHeight = 576
)

// Load decodes an image file (PNG or JPEG).
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// SavePNG writes img to path as PNG.
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodePNG renders img to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BinarizeMask converts an arbitrary mask into a strict binary mask: a pixel
// survives as 255 only when its grayscale value is already at the maximum;
// everything below becomes 0.
func BinarizeMask(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y == 255 {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// ResizeNearest scales img to w x h with nearest-neighbour sampling. Used
// for masks, where interpolation would reintroduce gray values.
func ResizeNearest(img image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

// ResizeBilinear scales img to w x h with bilinear sampling. Used for the
// video pipeline's fixed input resolution.
func ResizeBilinear(img image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

// NormalizeMask is the inpaint preprocessing step: binarize the mask, then
// bring it to the init image's size without interpolation.
func NormalizeMask(mask image.Image, size image.Rectangle) image.Image {
	bin := BinarizeMask(mask)
	if bin.Bounds().Dx() == size.Dx() && bin.Bounds().Dy() == size.Dy() {
		return bin
	}
	resized := image.NewGray(image.Rect(0, 0, size.Dx(), size.Dy()))
	xdraw.NearestNeighbor.Scale(resized, resized.Bounds(), bin, bin.Bounds(), xdraw.Over, nil)
	return resized
}
