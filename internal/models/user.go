package models

import "time"

// Canonical role names seeded at bootstrap. Additional roles may be
// created at runtime; the permission matrix only knows these five.
const (
	RoleAdmin               = "admin"
	RoleUserDataEditor      = "user_data_editor"
	RoleUserDataViewer      = "user_data_viewer"
	RoleReceiptReportViewer = "receipt_report_viewer"
	RoleReceiptCreator      = "receipt_creator"
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// RefreshToken is the persisted long-lived credential. The opaque token
// value itself is the lookup key; a token is usable iff it is unexpired
// and unrevoked. Revocation is terminal.
type RefreshToken struct {
	ID        int64
	Token     string
	UserID    int64
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}
