package scanner

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/pkg/errors"
)

// Decoder extracts a barcode or QR payload from an image. A nil Decoder on
// the service means decoding is not available on this deployment; shelf
// verification by raw barcode still works.
type Decoder interface {
	Decode(r io.Reader) (string, error)
}

// ZXingDecoder decodes QR codes and one-dimensional barcodes from image
// data.
type ZXingDecoder struct {
	qrReader  gozxing.Reader
	barReader gozxing.Reader
}

// NewZXingDecoder creates a decoder that tries QR first, then 1D formats.
func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{
		qrReader:  qrcode.NewQRCodeReader(),
		barReader: oned.NewMultiFormatUPCEANReader(nil),
	}
}

// Decode reads an image and returns the first code payload found.
func (d *ZXingDecoder) Decode(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", errors.WithStack(err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", errors.WithStack(err)
	}

	result, err := d.qrReader.Decode(bmp, nil)
	if err == nil {
		return result.GetText(), nil
	}

	result, err = d.barReader.Decode(bmp, nil)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return result.GetText(), nil
}
