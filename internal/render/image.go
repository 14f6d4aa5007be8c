package render

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	jpegQuality = 98
)

// ImageFormat is an output image encoding.
type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

// ParseImageFormat returns the format with the given name; "jpg" is accepted
// for JPEG.
func ParseImageFormat(name string) (ImageFormat, error) {
	name = strings.ToLower(name)
	if name == "jpg" {
		name = string(ImageJPEG)
	}
	f := ImageFormat(name)
	if _, ok := validImageFormats[f]; !ok {
		return "", fmt.Errorf("render.ImageFormat: invalid image format '%s'", name)
	}
	return f, nil
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case ImagePNG:
		return png.Encode(w, img)
	case ImageJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	default:
		return fmt.Errorf("render.ImageFormat: invalid image format '%s'", format)
	}
}

// WriteImage encodes img into a new file at path.
func WriteImage(path string, img image.Image, format ImageFormat) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if err = Encode(out, img, format); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// RenderFile renders a heatmap and writes it to path.
func RenderFile(path string, hm *Heatmap, format ImageFormat, config RenderConfig) error {
	r, err := NewHeatmapRenderer(config)
	if err != nil {
		return err
	}
	img, err := r.Render(hm)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", hm.Title, err)
	}
	return WriteImage(path, img, format)
}
