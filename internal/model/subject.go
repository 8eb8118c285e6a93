package model

import "time"

// Subject is one member of the legislative body, as read from the seed list.
type Subject struct {
	ID          string `json:"mep_id" csv:"mep_id"`
	Name        string `json:"name" csv:"name"`
	Country     string `json:"country" csv:"country"`
	Affiliation string `json:"party" csv:"party"`
	ProfileURL  string `json:"profile_url" csv:"profile_url"`
}

// SubjectMetadata is the persisted outcome of declaration discovery.
// DeclarationURL is nil when nothing usable was found.
type SubjectMetadata struct {
	SubjectID      string    `json:"mep_id"`
	Name           string    `json:"name"`
	Country        string    `json:"country"`
	Affiliation    string    `json:"party"`
	DeclarationURL *string   `json:"declaration_url"`
	Method         string    `json:"method,omitempty"`
	Note           string    `json:"note,omitempty"`
	Error          string    `json:"error,omitempty"`
	DiscoveredAt   time.Time `json:"discovered_at"`
}

// NewSubjectMetadata seeds metadata from a subject.
func NewSubjectMetadata(s Subject, now time.Time) SubjectMetadata {
	return SubjectMetadata{
		SubjectID:    s.ID,
		Name:         s.Name,
		Country:      s.Country,
		Affiliation:  s.Affiliation,
		DiscoveredAt: now.UTC(),
	}
}

// URL returns the discovered declaration URL or "".
func (m SubjectMetadata) URL() string {
	if m.DeclarationURL == nil {
		return ""
	}
	return *m.DeclarationURL
}

// CacheEntry is a cached HTTP body keyed by URL.
type CacheEntry struct {
	URL         string    `json:"url"`
	ContentHash string    `json:"content_hash"`
	LastFetched time.Time `json:"last_fetched"`
	ContentType string    `json:"content_type,omitempty"`
	Content     []byte    `json:"content"`
}

// IsFresh reports whether the entry was fetched within maxAge of now.
func (e CacheEntry) IsFresh(maxAge time.Duration, now time.Time) bool {
	return now.Sub(e.LastFetched) < maxAge
}
