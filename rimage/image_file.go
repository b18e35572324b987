package rimage

import (
	"encoding/binary"
	"image"
	"image/png"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// ReadRawFile reads a headerless frame of width*height*bytesPerPixel bytes.
func ReadRawFile(path string, width, height, bytesPerPixel int) ([]byte, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading raw frame %q", path)
	}
	if expected := width * height * bytesPerPixel; len(data) != expected {
		return nil, errors.Errorf("raw frame %q has %d bytes, expected %d (%dx%dx%d)",
			path, len(data), expected, width, height, bytesPerPixel)
	}
	return data, nil
}

// ReadRawDepthFile reads a headerless little-endian 16 bit depth frame.
func ReadRawDepthFile(path string, width, height int) (*DepthMap, error) {
	data, err := ReadRawFile(path, width, height, 2)
	if err != nil {
		return nil, err
	}
	samples := make([]uint16, width*height)
	for i := range samples {
		samples[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
	return NewDepthMapFromBuffer(samples, width, height)
}

// WriteDensePNG writes a normalized rendering of m to path.
func WriteDensePNG(m *mat.Dense, path string) error {
	return WriteImagePNG(DenseToGray(m), path)
}

// WriteImagePNG writes img to path as a PNG.
func WriteImagePNG(img image.Image, path string) error {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "error creating %q", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return png.Encode(f, img)
}
