package models

import "time"

type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "Cash"
	PaymentModeCheck  PaymentMode = "Check"
	PaymentModeOnline PaymentMode = "Online"
)

type ReceiptStatus string

const (
	ReceiptStatusCompleted ReceiptStatus = "completed"
	ReceiptStatusCancelled ReceiptStatus = "cancelled"
)

type Receipt struct {
	ID          int64
	ReceiptNo   string
	ReceiptDate time.Time
	DonorName   string
	Village     string
	Mobile      string
	PaymentMode PaymentMode
	TotalAmount float64
	Status      ReceiptStatus
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func ValidPaymentMode(m PaymentMode) bool {
	switch m {
	case PaymentModeCash, PaymentModeCheck, PaymentModeOnline:
		return true
	}
	return false
}
