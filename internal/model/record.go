// Package model defines the shared domain types for extraction,
// matching, and bulk resolution.
package model

import (
	"strings"
	"time"
)

// Source identifies where a reference item originated.
type Source string

const (
	SourceMaster  Source = "master_data"
	SourceDataset Source = "dataset"
	SourceNone    Source = "none"
)

// ExtractedRecord is one structured row derived from a photographed tag,
// either by the structuring API or by the fallback parser.
type ExtractedRecord struct {
	ItemDescription string `json:"item_description"`
	Quantity        int    `json:"quantity"`
	SerialNumber    string `json:"serial_number"`
	TagNumber       string `json:"tag_number"`
	Status          string `json:"status"`
}

// ReferenceItem is one row of the reference pool: a curated master record or
// an imported dataset row. Read-only to the matching engine and resolver.
type ReferenceItem struct {
	ID              string `json:"id"`
	ItemDescription string `json:"item_description"`
	SerialNumber    string `json:"serial_number"`
	TagNumber       string `json:"tag_number"`
	Quantity        int    `json:"quantity"`
	Status          string `json:"status"`
	Source          Source `json:"source"`
	// Collection is the owning dataset or project name, when known.
	Collection string `json:"collection,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// MatchCandidate pairs a reference item with the tier classification it
// earned against one extracted record.
type MatchCandidate struct {
	Item            ReferenceItem `json:"item"`
	Confidence      int           `json:"confidence"`
	Tier            string        `json:"match_type"`
	ExtractedSerial string        `json:"extracted_serial"`
	ExtractedTag    string        `json:"extracted_tag"`
	ReferenceSerial string        `json:"master_serial"`
	ReferenceTag    string        `json:"master_tag"`
}

// MasterDataItem is a curated reference record attached to a project.
type MasterDataItem struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	ItemDescription string    `json:"item_description"`
	SerialNumber    string    `json:"serial_number"`
	TagNumber       string    `json:"tag_number"`
	Quantity        int       `json:"quantity"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Project groups master data records.
type Project struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	MasterDataCount int       `json:"master_data_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Dataset is a bulk-imported collection of spreadsheet rows.
type Dataset struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	FileCount   int              `json:"file_count"`
	TotalRows   int              `json:"total_rows"`
	Files       []string         `json:"files"`
	Rows        []map[string]any `json:"data,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NormalizeIdentifier standardizes a serial or tag value for tier matching:
// surrounding whitespace removed, uppercased.
func NormalizeIdentifier(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}
