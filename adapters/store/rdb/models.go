package rdb

import "time"

// ResourceRecord is the RDB persistence model for model.ResourceState.
// Table name: resources
type ResourceRecord struct {
	ID         string    `gorm:"primaryKey;type:text;not null"`
	Stack      string    `gorm:"type:text;not null;uniqueIndex:idx_stack_urn"`
	URN        string    `gorm:"type:text;not null;uniqueIndex:idx_stack_urn"`
	Kind       string    `gorm:"type:text;not null"`
	ProviderID string    `gorm:"type:text"`
	Outputs    string    `gorm:"type:text"` // JSON encoded map[string]string
	Seq        int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (ResourceRecord) TableName() string { return "resources" }
