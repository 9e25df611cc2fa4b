package catalog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"golang.org/x/image/draw"

	"printvault/internal/models"
)

// ImageConverter turns an accepted lossy upload into PNG.
type ImageConverter interface {
	ToPNG(file models.File) (models.File, error)
}

// ImageInspector extracts descriptive fields from encoded image bytes.
type ImageInspector interface {
	Inspect(data []byte) (map[string]any, error)
}

// PNGConverter re-encodes JPEG uploads as PNG. Output is deterministic
// for identical input so converted bytes can be deduplicated.
type PNGConverter struct{}

// ToPNG decodes file as JPEG and returns it PNG-encoded, renamed to the
// part of the original name before the first dot plus ".png".
func (PNGConverter) ToPNG(file models.File) (models.File, error) {
	src, err := jpeg.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return models.File{}, models.Invalidf("decode jpeg %q: %v", file.Name, err)
	}

	var out image.Image = src
	if _, gray := src.(*image.Gray); !gray {
		bounds := src.Bounds()
		dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
		out = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return models.File{}, fmt.Errorf("encode png %q: %w", file.Name, err)
	}

	base, _, _ := strings.Cut(file.Name, ".")
	return models.File{Name: base + ".png", MediaType: models.MediaTypePNG, Data: buf.Bytes()}, nil
}

// DecodeInspector reads image headers: format, color mode, size and, for
// PNG, bit depth and physical resolution.
type DecodeInspector struct{}

func (DecodeInspector) Inspect(data []byte) (map[string]any, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, models.Invalidf("decode image header: %v", err)
	}

	fields := map[string]any{
		"original_format": strings.ToUpper(format),
		"mode":            colorModeName(cfg.ColorModel),
		"width":           float64(cfg.Width),
		"height":          float64(cfg.Height),
		"dpi":             nil,
		"bit_depth":       nil,
	}
	if format == "png" {
		header := readPNGHeader(data)
		if header.mode != "" {
			fields["mode"] = header.mode
		}
		if header.bitDepth > 0 {
			fields["bit_depth"] = float64(header.bitDepth)
		}
		if header.dpiX > 0 && header.dpiY > 0 {
			fields["dpi"] = []any{header.dpiX, header.dpiY}
		}
	}
	return fields, nil
}

func colorModeName(model color.Model) string {
	switch model {
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.YCbCrModel:
		return "RGB"
	case color.CMYKModel:
		return "CMYK"
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model:
		return "RGBA"
	}
	if _, ok := model.(color.Palette); ok {
		return "P"
	}
	return "RGB"
}

type pngHeader struct {
	mode     string
	bitDepth int
	dpiX     float64
	dpiY     float64
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// readPNGHeader walks the chunks before image data. Malformed input yields
// a zero header; DecodeConfig has already validated the essentials.
func readPNGHeader(data []byte) pngHeader {
	var header pngHeader
	if !bytes.HasPrefix(data, pngSignature) {
		return header
	}

	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		kind := string(data[pos+4 : pos+8])
		start := pos + 8
		end := start + length
		if length < 0 || end+4 > len(data) {
			break
		}
		chunk := data[start:end]

		switch kind {
		case "IHDR":
			if len(chunk) >= 10 {
				header.bitDepth = int(chunk[8])
				header.mode = pngColorTypes[chunk[9]]
			}
		case "pHYs":
			// Unit 1 is pixels per metre.
			if len(chunk) >= 9 && chunk[8] == 1 {
				header.dpiX = math.Round(float64(binary.BigEndian.Uint32(chunk[0:4]))*0.0254*100) / 100
				header.dpiY = math.Round(float64(binary.BigEndian.Uint32(chunk[4:8]))*0.0254*100) / 100
			}
		case "IDAT", "IEND":
			return header
		}
		pos = end + 4
	}
	return header
}

var pngColorTypes = map[byte]string{
	0: "L",
	2: "RGB",
	3: "P",
	4: "LA",
	6: "RGBA",
}
