package models

// ManifestEntry pairs a discovered image identifier with its source URL.
type ManifestEntry struct {
	ImageID   string `json:"image_id" yaml:"image_id"`
	SourceURL string `json:"source_url" yaml:"source_url"`
}

// Manifest is an ordered, id-unique list of entries in first-seen order.
type Manifest struct {
	entries []ManifestEntry
	index   map[string]int
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{index: make(map[string]int)}
}

// Add inserts an entry and reports whether its id was new.
// A repeated id keeps its original position and takes the newer URL.
func (m *Manifest) Add(e ManifestEntry) bool {
	if i, ok := m.index[e.ImageID]; ok {
		m.entries[i].SourceURL = e.SourceURL
		return false
	}
	m.index[e.ImageID] = len(m.entries)
	m.entries = append(m.entries, e)
	return true
}

// Len returns the number of unique ids.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Entries returns a copy of at most limit entries; limit <= 0 means all.
func (m *Manifest) Entries(limit int) []ManifestEntry {
	n := len(m.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]ManifestEntry, n)
	copy(out, m.entries[:n])
	return out
}
