package qrlabels

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/smartshelf/smartshelf/pkg/models"
)

// Service renders printable QR shelf labels for books. The encoded payload
// is the book's detail URL, so scanning a label with any phone opens the
// book page.
type Service struct {
	baseURL string
	size    int
}

// NewService creates a new label service rendering images of the given
// pixel size, encoding URLs under baseURL.
func NewService(baseURL string, size int) *Service {
	if size <= 0 {
		size = 256
	}
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		size:    size,
	}
}

// Label describes a rendered shelf label.
type Label struct {
	BookID  int    `json:"book_id"`
	Barcode string `json:"barcode"`
	RackNo  string `json:"rack_no"`
	URL     string `json:"url"`
	Image   string `json:"image"`
}

// URL returns the book detail URL encoded in the label.
func (s *Service) URL(book *models.Book) string {
	return fmt.Sprintf("%s/books/%d", s.baseURL, book.ID)
}

// Render encodes the book's detail URL as a PNG QR code and returns it as a
// data URI, ready to drop into a printable page.
func (s *Service) Render(book *models.Book) (*Label, error) {
	png, err := s.PNG(book)
	if err != nil {
		return nil, err
	}

	return &Label{
		BookID:  book.ID,
		Barcode: book.Barcode,
		RackNo:  book.RackNo,
		URL:     s.URL(book),
		Image:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// PNG encodes the book's detail URL as raw PNG bytes.
func (s *Service) PNG(book *models.Book) ([]byte, error) {
	png, err := qrcode.Encode(s.URL(book), qrcode.Medium, s.size)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return png, nil
}
