package query

import "time"

// FileContext is text previously extracted from a user-supplied file.
type FileContext struct {
	ID            string            `json:"id"`
	FileName      string            `json:"file_name"`
	FileType      string            `json:"file_type"`
	ExtractedText string            `json:"extracted_text"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
