package ingest

import (
	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/pkg/textnlp"
)

// ParsedDoc is a fetched page reduced to indexable text.
type ParsedDoc struct {
	ID        string
	URL       string
	Title     string
	Content   string
	Published string
	Sentences []string
	Metadata  map[string]string
}

// ChunkedDoc is a parsed document split into embeddable chunks.
type ChunkedDoc struct {
	ParsedDoc
	Chunks []Chunk
}

// Chunk is a text segment ready for embedding.
type Chunk struct {
	Text  string
	Index int
	DocID string
}

// EmbeddedDoc is a chunked document with embeddings.
type EmbeddedDoc struct {
	ChunkedDoc
	Embeddings [][]float32
}

// parsedDocFromDocument converts a fetched Document into a ParsedDoc. The
// page URL is the document ID, so re-indexing a page replaces its passages.
func parsedDocFromDocument(doc domain.Document) ParsedDoc {
	meta := map[string]string{"host": domain.Host(doc.URL)}
	published := ""
	for _, k := range []string{"article:published_time", "date", "pubdate"} {
		if v := doc.Metadata[k]; v != "" {
			published = v
			break
		}
	}
	if v := doc.Metadata["description"]; v != "" {
		meta["description"] = v
	}
	return ParsedDoc{
		ID:        doc.URL,
		URL:       doc.URL,
		Title:     doc.Title,
		Content:   doc.Text,
		Published: published,
		Sentences: textnlp.SplitSentences(doc.Text),
		Metadata:  meta,
	}
}
