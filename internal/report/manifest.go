package report

import (
	"encoding/json"
	"sync"
)

// Attachment roles understood by the platform that displays a run.
const (
	RoleDownloadable = "downloadable"
	RoleFeedback     = "feedback"
)

// Attachment is one manifest entry.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Role        string `json:"role"`
}

// Manifest lists the files a run attaches for its users.
type Manifest struct {
	mu      sync.Mutex
	entries []Attachment
}

func NewManifest() *Manifest { return &Manifest{} }

func (m *Manifest) Add(a Attachment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, a)
}

func (m *Manifest) Entries() []Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Attachment(nil), m.entries...)
}

// Bytes encodes the manifest as an indented JSON array; an empty manifest
// encodes as [].
func (m *Manifest) Bytes() ([]byte, error) {
	entries := m.Entries()
	if entries == nil {
		entries = []Attachment{}
	}
	return json.MarshalIndent(entries, "", "  ")
}

// DefaultAttachments are the execution log for developers and the summary
// for users.
func DefaultAttachments(executionLog, summary string) []Attachment {
	return []Attachment{
		{Filename: executionLog, ContentType: "text/plain", Role: RoleDownloadable},
		{Filename: summary, ContentType: "text/html", Role: RoleFeedback},
	}
}
