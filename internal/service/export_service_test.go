package service

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receiptbook/api/internal/models"
)

type fakeReceiptLister struct {
	receipts []models.Receipt
	calls    int
}

func (l *fakeReceiptLister) List(_ context.Context, _ int64, limit, offset int) ([]models.Receipt, error) {
	l.calls++
	if offset >= len(l.receipts) {
		return nil, nil
	}
	end := offset + limit
	if end > len(l.receipts) {
		end = len(l.receipts)
	}
	return l.receipts[offset:end], nil
}

type fakeExportStore struct {
	objectName  string
	data        []byte
	contentType string
}

func (s *fakeExportStore) PutExport(_ context.Context, objectName string, data []byte, contentType string) error {
	s.objectName = objectName
	s.data = data
	s.contentType = contentType
	return nil
}

func (s *fakeExportStore) PresignExport(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://exports.test/" + objectName, nil
}

func TestExportReceiptsCSV(t *testing.T) {
	lister := &fakeReceiptLister{receipts: []models.Receipt{
		{
			ReceiptNo:   "R-0001",
			ReceiptDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			DonorName:   "A Donor",
			Village:     "North",
			Mobile:      "9999900000",
			PaymentMode: models.PaymentModeCash,
			TotalAmount: 1500.50,
			Status:      models.ReceiptStatusCompleted,
			CreatedBy:   3,
		},
		{
			ReceiptNo:   "R-0002",
			ReceiptDate: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
			DonorName:   "B Donor",
			Village:     "South",
			PaymentMode: models.PaymentModeOnline,
			TotalAmount: 200,
			Status:      models.ReceiptStatusCancelled,
			CreatedBy:   4,
		},
	}}
	store := &fakeExportStore{}
	svc := NewExportService(lister, store, zerolog.Nop())

	result, err := svc.ExportReceiptsCSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, store.objectName, result.ObjectName)
	assert.Equal(t, "https://exports.test/"+store.objectName, result.DownloadURL)
	assert.Equal(t, "text/csv", store.contentType)
	assert.True(t, strings.HasSuffix(result.ObjectName, ".csv"))

	records, err := csv.NewReader(strings.NewReader(string(store.data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "receipt_no", records[0][0])
	assert.Equal(t, "R-0001", records[1][0])
	assert.Equal(t, "1500.50", records[1][6])
	assert.Equal(t, "cancelled", records[2][7])
}

func TestExportReceiptsCSVEmpty(t *testing.T) {
	store := &fakeExportStore{}
	svc := NewExportService(&fakeReceiptLister{}, store, zerolog.Nop())

	result, err := svc.ExportReceiptsCSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Rows)

	// Header row still present.
	records, err := csv.NewReader(strings.NewReader(string(store.data))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestExportReceiptsCSVPaginates(t *testing.T) {
	many := make([]models.Receipt, 500)
	for i := range many {
		many[i] = models.Receipt{
			ReceiptNo:   "R-bulk",
			ReceiptDate: time.Now(),
			PaymentMode: models.PaymentModeCash,
			Status:      models.ReceiptStatusCompleted,
		}
	}
	lister := &fakeReceiptLister{receipts: many}
	svc := NewExportService(lister, &fakeExportStore{}, zerolog.Nop())

	result, err := svc.ExportReceiptsCSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 500, result.Rows)
	// A full first page forces a second fetch that comes back empty.
	assert.Equal(t, 2, lister.calls)
}
