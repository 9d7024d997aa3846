package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"receiptbook/api/internal/models"
)

const exportURLTTL = 15 * time.Minute

type ReceiptLister interface {
	List(ctx context.Context, createdBy int64, limit, offset int) ([]models.Receipt, error)
}

// ExportStore is the object-store surface exports need.
type ExportStore interface {
	PutExport(ctx context.Context, objectName string, data []byte, contentType string) error
	PresignExport(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

type ExportService struct {
	receipts ReceiptLister
	store    ExportStore
	log      zerolog.Logger
}

func NewExportService(receipts ReceiptLister, store ExportStore, log zerolog.Logger) *ExportService {
	return &ExportService{
		receipts: receipts,
		store:    store,
		log:      log,
	}
}

type ExportResult struct {
	ObjectName  string `json:"object_name"`
	DownloadURL string `json:"download_url"`
	Rows        int    `json:"rows"`
}

// ExportReceiptsCSV writes all receipts as CSV to the exports bucket
// and returns a short-lived download link.
func (s *ExportService) ExportReceiptsCSV(ctx context.Context) (ExportResult, error) {
	const batch = 500

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"receipt_no", "receipt_date", "donor_name", "village", "mobile", "payment_mode", "total_amount", "status", "created_by"}
	if err := w.Write(header); err != nil {
		return ExportResult{}, err
	}

	rows := 0
	for offset := 0; ; offset += batch {
		receipts, err := s.receipts.List(ctx, 0, batch, offset)
		if err != nil {
			return ExportResult{}, fmt.Errorf("list receipts: %w", err)
		}
		for _, rc := range receipts {
			record := []string{
				rc.ReceiptNo,
				rc.ReceiptDate.Format(time.RFC3339),
				rc.DonorName,
				rc.Village,
				rc.Mobile,
				string(rc.PaymentMode),
				strconv.FormatFloat(rc.TotalAmount, 'f', 2, 64),
				string(rc.Status),
				strconv.FormatInt(rc.CreatedBy, 10),
			}
			if err := w.Write(record); err != nil {
				return ExportResult{}, err
			}
			rows++
		}
		if len(receipts) < batch {
			break
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return ExportResult{}, err
	}

	objectName := fmt.Sprintf("receipts-%s-%s.csv", time.Now().Format("20060102"), ksuid.New().String())
	if err := s.store.PutExport(ctx, objectName, buf.Bytes(), "text/csv"); err != nil {
		return ExportResult{}, err
	}

	downloadURL, err := s.store.PresignExport(ctx, objectName, exportURLTTL)
	if err != nil {
		return ExportResult{}, err
	}

	s.log.Info().Str("object", objectName).Int("rows", rows).Msg("receipts exported")
	return ExportResult{
		ObjectName:  objectName,
		DownloadURL: downloadURL,
		Rows:        rows,
	}, nil
}
