package catalog

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printvault/internal/fingerprint"
	"printvault/internal/models"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(40 * x), G: uint8(60 * y), B: 128, A: 255})
		}
	}
	return img
}

func testPNGFile(t *testing.T, name string, w, h int) models.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return models.File{Name: name, MediaType: models.MediaTypePNG, Data: buf.Bytes()}
}

func testJPEGFile(t *testing.T, name string, w, h int) models.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), &jpeg.Options{Quality: 90}))
	return models.File{Name: name, MediaType: models.MediaTypeJPEG, Data: buf.Bytes()}
}

func TestCreateOrGetImageRejectsUnsupportedTypes(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.CreateOrGetImage(context.Background(), models.File{Name: "a.gif", MediaType: "image/gif", Data: []byte("GIF89a")}, nil)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 0, countBlobs(t, f.store))
}

func TestCreateOrGetImageDeduplicatesPNG(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	file := testPNGFile(t, "layer.png", 5, 4)

	id, err := f.repo.CreateOrGetImage(ctx, file, map[string]any{"layer": 1})
	require.NoError(t, err)
	again, err := f.repo.CreateOrGetImage(ctx, file, map[string]any{"layer": 2})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	images, err := f.store.GetImages(ctx, []string{id})
	require.NoError(t, err)
	img := images[id]
	assert.Equal(t, fingerprint.ContentHash(file.Data), img.HashID)
	assert.Equal(t, 1.0, img.Metadata["layer"])
	assert.Equal(t, "PNG", img.Metadata["original_format"])
	assert.Equal(t, 5.0, img.Metadata["width"])
	assert.Equal(t, 4.0, img.Metadata["height"])

	blob, err := f.blobs.Stat(ctx, img.FileID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"image_name": "layer.png"}, blob.Owner)
}

func TestCreateOrGetImageConvertsJPEG(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	file := testJPEGFile(t, "photo.top.jpg", 6, 6)

	id, err := f.repo.CreateOrGetImage(ctx, file, nil)
	require.NoError(t, err)
	again, err := f.repo.CreateOrGetImage(ctx, file, nil)
	require.NoError(t, err)
	assert.Equal(t, id, again, "converted bytes dedup")

	images, err := f.store.GetImages(ctx, []string{id})
	require.NoError(t, err)
	img := images[id]
	assert.Equal(t, "photo.png", img.Name)

	stored, err := f.blobs.Open(ctx, img.FileID)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", stored.Name)
	assert.True(t, bytes.HasPrefix(stored.Data, pngSignature))
	assert.Equal(t, fingerprint.ContentHash(stored.Data), img.HashID)
}

func TestCreateImageCollectionNeverDeduplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	images := []models.File{testPNGFile(t, "a.png", 2, 2), testPNGFile(t, "b.png", 3, 2)}

	first, err := f.repo.CreateImageCollection(ctx, "views", images, map[string]any{"camera": "top"})
	require.NoError(t, err)
	second, err := f.repo.CreateImageCollection(ctx, "views", images, map[string]any{"camera": "top"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	collections, err := f.store.GetImageCollections(ctx, []string{first, second})
	require.NoError(t, err)
	require.Len(t, collections, 2)
	assert.Equal(t, collections[first].ImageIDs, collections[second].ImageIDs)
	assert.Len(t, collections[first].ImageIDs, 2)
}

func TestPNGConverter(t *testing.T) {
	out, err := PNGConverter{}.ToPNG(testJPEGFile(t, "scan.jpeg", 8, 5))
	require.NoError(t, err)
	assert.Equal(t, "scan.png", out.Name)
	assert.Equal(t, models.MediaTypePNG, out.MediaType)

	decoded, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 5), decoded.Bounds())

	_, err = PNGConverter{}.ToPNG(models.File{Name: "bad.jpg", Data: []byte("not a jpeg")})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDecodeInspector(t *testing.T) {
	fields, err := DecodeInspector{}.Inspect(testPNGFile(t, "a.png", 7, 3).Data)
	require.NoError(t, err)
	assert.Equal(t, "PNG", fields["original_format"])
	assert.Equal(t, "RGB", fields["mode"], "opaque images encode as truecolor")
	assert.Equal(t, 7.0, fields["width"])
	assert.Equal(t, 3.0, fields["height"])
	assert.Equal(t, 8.0, fields["bit_depth"])
	assert.Nil(t, fields["dpi"])

	fields, err = DecodeInspector{}.Inspect(testJPEGFile(t, "a.jpg", 4, 4).Data)
	require.NoError(t, err)
	assert.Equal(t, "JPEG", fields["original_format"])
	assert.Equal(t, "RGB", fields["mode"])

	_, err = DecodeInspector{}.Inspect([]byte("nope"))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestReadPNGHeaderResolution(t *testing.T) {
	data := testPNGFile(t, "a.png", 1, 1).Data
	// 2835 px/m is 72 dpi.
	phys := []byte{0, 0, 0, 9, 'p', 'H', 'Y', 's', 0, 0, 0x0b, 0x13, 0, 0, 0x0b, 0x13, 1, 0, 0, 0, 0}
	ihdrEnd := len(pngSignature) + 8 + 13 + 4
	withPhys := append(append(append([]byte{}, data[:ihdrEnd]...), phys...), data[ihdrEnd:]...)

	header := readPNGHeader(withPhys)
	assert.Equal(t, 8, header.bitDepth)
	assert.InDelta(t, 72.0, header.dpiX, 0.05)
	assert.InDelta(t, 72.0, header.dpiY, 0.05)
}
