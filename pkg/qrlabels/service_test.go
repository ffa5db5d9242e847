package qrlabels

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceRender_ProducesPNGDataURI(t *testing.T) {
	t.Parallel()

	svc := NewService("http://localhost:3690", 128)
	book := &models.Book{ID: 7, Barcode: "BC-007", RackNo: "C2"}

	label, err := svc.Render(book)
	require.NoError(t, err)

	assert.Equal(t, 7, label.BookID)
	assert.Equal(t, "BC-007", label.Barcode)
	assert.Equal(t, "C2", label.RackNo)
	assert.Equal(t, "http://localhost:3690/books/7", label.URL)
	require.True(t, strings.HasPrefix(label.Image, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(label.Image, "data:image/png;base64,"))
	require.NoError(t, err)

	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
}

func TestServiceURL_TrimsTrailingSlash(t *testing.T) {
	t.Parallel()

	svc := NewService("http://localhost:3690/", 128)

	assert.Equal(t, "http://localhost:3690/books/3", svc.URL(&models.Book{ID: 3}))
}
