package models

const (
	// CatalogCollection is the reserved index holding one record per topic
	// with its description. It is never listed as a topic itself.
	CatalogCollection = "table-of-contents"

	// GeneralTopic is the topic-selection sentinel meaning no document
	// grounding was requested or found.
	GeneralTopic = "general"

	// NoDescription is returned for topics without a stored description.
	NoDescription = "No description available."
)

// Chunk record types.
const (
	TypeText  = "text"
	TypeImage = "image"
)

// Payload is the metadata stored alongside each vector. For catalog
// records only Content is set (the topic description).
type Payload struct {
	Content  string `json:"content"`
	Source   string `json:"source"`
	FilePath string `json:"file_path"`
	Type     string `json:"type"`
}

// Field returns the payload value for a filter key, or "" for unknown keys.
func (p Payload) Field(key string) string {
	switch key {
	case "content":
		return p.Content
	case "source":
		return p.Source
	case "file_path":
		return p.FilePath
	case "type":
		return p.Type
	}
	return ""
}

// Record is one retrievable unit in a vector collection: a text chunk, an
// image description, or a catalog entry. Records are never mutated, only
// overwritten by id or deleted.
type Record struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FileInfo reports one uploaded file and whether its chunks are indexed.
type FileInfo struct {
	Name     string `json:"name"`
	Embedded bool   `json:"embedded"`
}
