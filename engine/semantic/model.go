package semantic

// Payload keys written by engine/ingest and read back by Search.
const (
	KeyContent    = "content"
	KeyURL        = "url"
	KeyTitle      = "title"
	KeyChunkIndex = "chunk_index"
	KeyPublished  = "published_at"
)

// SearchResult represents a single vector search hit.
type SearchResult struct {
	ID        string            `json:"id"`
	Score     float32           `json:"score"`
	Content   string            `json:"content"`
	URL       string            `json:"url"`
	Title     string            `json:"title"`
	Published string            `json:"published_at,omitempty"`
	Meta      map[string]string `json:"meta"`
}

// VectorRecord represents a single vector to store in Qdrant.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]any // content, url, title, chunk_index, published_at
}
