package models

import "time"

// SyncState tracks the outcome of registry synchronization passes.
// A single row is kept and updated in place after every pass.
type SyncState struct {
	ID           int        `gorm:"primaryKey" json:"id"`
	LastAttempt  time.Time  `gorm:"not null" json:"last_attempt"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	FailureCount int        `gorm:"not null;default:0" json:"failure_count"`
	SuccessCount int        `gorm:"not null;default:0" json:"success_count"`
	LastMessage  string     `json:"last_message,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name
func (SyncState) TableName() string {
	return "sync_state"
}

// RecordSuccess records a successful synchronization pass
func (s *SyncState) RecordSuccess(message string) {
	s.SuccessCount++
	s.FailureCount = 0 // Reset failure count on success
	now := time.Now()
	s.LastSuccess = &now
	s.LastAttempt = now
	s.LastMessage = message
}

// RecordFailure records a failed synchronization pass
func (s *SyncState) RecordFailure(message string) {
	s.FailureCount++
	s.LastAttempt = time.Now()
	s.LastMessage = message
}
