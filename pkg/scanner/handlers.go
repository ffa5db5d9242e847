package scanner

import (
	"encoding/base64"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/auth"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
)

type handler struct {
	scannerService *Service
}

// verify checks a barcode against the catalog. The barcode comes either
// directly in the payload or as a base64 image to decode first.
func (h *handler) verify(c echo.Context) error {
	ctx := c.Request().Context()

	params := VerifyPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	barcode := params.Barcode
	if barcode == "" {
		if params.ImageData == "" {
			return errcodes.ValidationError("barcode or image_data is required")
		}
		data, err := base64.StdEncoding.DecodeString(params.ImageData)
		if err != nil {
			return errcodes.MalformedPayload()
		}
		barcode, err = h.scannerService.DecodeImage(data)
		if err != nil {
			return err
		}
	}

	actor, _ := auth.UserFromContext(c)
	result, err := h.scannerService.VerifyShelf(ctx, barcode, params.RackNo, actor)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

// decode extracts a code from an uploaded image without verifying
// placement.
func (h *handler) decode(c echo.Context) error {
	params := DecodePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	data, err := base64.StdEncoding.DecodeString(params.ImageData)
	if err != nil {
		return errcodes.MalformedPayload()
	}

	code, err := h.scannerService.DecodeImage(data)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"code": code}))
}
