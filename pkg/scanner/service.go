package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/smartshelf/smartshelf/pkg/activity"
	"github.com/smartshelf/smartshelf/pkg/catalog"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/uptrace/bun"
)

// Service verifies physical shelf placement against the catalog.
type Service struct {
	db              *bun.DB
	catalogService  *catalog.Service
	activityService *activity.Service
	decoder         Decoder
}

// NewService creates a new scanner service. decoder may be nil when image
// decoding is not available.
func NewService(db *bun.DB, catalogService *catalog.Service, decoder Decoder) *Service {
	return &Service{
		db:              db,
		catalogService:  catalogService,
		activityService: activity.NewService(db),
		decoder:         decoder,
	}
}

// DecodeImage extracts a code from raw image bytes.
func (s *Service) DecodeImage(data []byte) (string, error) {
	if s.decoder == nil {
		return "", errcodes.ScannerUnavailable()
	}

	code, err := s.decoder.Decode(bytes.NewReader(data))
	if err != nil {
		return "", errcodes.NoCodeDetected()
	}
	return code, nil
}

// DecodeReader extracts a code from an image stream.
func (s *Service) DecodeReader(r io.Reader) (string, error) {
	if s.decoder == nil {
		return "", errcodes.ScannerUnavailable()
	}

	code, err := s.decoder.Decode(r)
	if err != nil {
		return "", errcodes.NoCodeDetected()
	}
	return code, nil
}

// VerifyResult describes a shelf verification outcome.
type VerifyResult struct {
	Book            *models.Book   `json:"book"`
	ExpectedRack    string         `json:"expected_rack"`
	ScannedRack     string         `json:"scanned_rack"`
	Correct         bool           `json:"correct"`
	Recommendations []*models.Book `json:"recommendations,omitempty"`
}

// VerifyShelf looks up the scanned barcode and checks the book is on its
// assigned rack. A correct placement stamps the book's last verified
// location and suggests nearby reads in the same genre; a wrong one is
// logged for the shelving report.
func (s *Service) VerifyShelf(ctx context.Context, barcode, scannedRack string, actor *models.User) (*VerifyResult, error) {
	book, err := s.catalogService.RetrieveByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{
		Book:         book,
		ExpectedRack: book.RackNo,
		ScannedRack:  scannedRack,
		Correct:      book.RackNo == scannedRack,
	}

	action := models.ActionScanMisplaced
	details := fmt.Sprintf("%q scanned on rack %s, belongs on rack %s", book.Title, scannedRack, book.RackNo)
	if result.Correct {
		action = models.ActionScanSuccess
		details = fmt.Sprintf("%q verified on rack %s", book.Title, book.RackNo)

		if err := s.catalogService.MarkLocationVerified(ctx, book.ID, time.Now().UTC()); err != nil {
			return nil, err
		}

		recs, err := s.catalogService.Recommendations(ctx, book.Genre, book.ID, 3)
		if err != nil {
			return nil, err
		}
		result.Recommendations = recs
	}

	entry := activity.Entry{
		Action:  action,
		BookID:  &book.ID,
		Details: &details,
	}
	if actor != nil {
		entry.UserID = &actor.ID
	}
	s.activityService.Record(ctx, entry)

	return result, nil
}
