package models

import "time"

// Monopoly is one company in the mirrored natural-monopoly registry.
// A company is identified by its INN; a row is never physically deleted,
// disappearance from the source list is recorded via RemoveDate.
type Monopoly struct {
	ID  uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	INN string `gorm:"column:inn;type:varchar(12);not null;uniqueIndex" json:"inn"`

	CompanyName string `gorm:"type:varchar(512)" json:"company_name"`
	Registry    string `gorm:"type:varchar(512)" json:"registry"`
	Section     string `gorm:"type:varchar(512)" json:"section"`
	DocNumber   string `gorm:"type:varchar(64)" json:"doc_number"`
	Region      string `gorm:"type:varchar(512)" json:"region"`
	Address     string `gorm:"type:varchar(512)" json:"address"`

	// Registration date as published by the source (order date column).
	DateFirstReg *time.Time `gorm:"type:date" json:"date_first_reg,omitempty"`

	// Timestamp of the most recent pass that observed this INN.
	LastCheck time.Time `gorm:"not null;index" json:"last_check"`

	// Non-nil means the company dropped off the source list at that time.
	RemoveDate *time.Time `gorm:"index" json:"remove_date,omitempty"`

	// True when the last write came from an operator spreadsheet upload.
	// Such records are protected from automatic removal marking.
	ManualUpload *bool `json:"manual_upload,omitempty"`
}

// TableName specifies the table name
func (Monopoly) TableName() string {
	return "monopoly"
}

// IsListed reports whether the company is currently in the registry.
func (m *Monopoly) IsListed() bool {
	return m.RemoveDate == nil
}

// IsManual reports whether the record is protected by a manual upload.
func (m *Monopoly) IsManual() bool {
	return m.ManualUpload != nil && *m.ManualUpload
}

// MarkRemoved soft-deletes the record.
func (m *Monopoly) MarkRemoved() {
	now := time.Now()
	m.RemoveDate = &now
}

// MonopolyRow is the transient shape of one extracted source row (scraped
// table or uploaded spreadsheet) on its way into reconciliation. It carries
// no store identity and no lifecycle timestamps.
type MonopolyRow struct {
	INN          string
	CompanyName  string
	Registry     string
	Section      string
	DocNumber    string
	Region       string
	Address      string
	DateFirstReg *time.Time
	ManualUpload bool
}
