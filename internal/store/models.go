package store

import "time"

// Entry is one cached spotlight image pair. Compressed filenames are
// present only when transcoding succeeded for that orientation.
type Entry struct {
	ID                      string    `json:"id"`
	Title                   string    `json:"title"`
	Copyright               string    `json:"copyright"`
	LandscapeURL            string    `json:"landscapeUrl"`
	PortraitURL             string    `json:"portraitUrl"`
	LandscapeFile           string    `json:"landscapeFile"`
	PortraitFile            string    `json:"portraitFile"`
	LandscapeCompressedFile string    `json:"landscapeCompressedFile,omitempty"`
	PortraitCompressedFile  string    `json:"portraitCompressedFile,omitempty"`
	CreatedAt               time.Time `json:"createdAt"`
}
