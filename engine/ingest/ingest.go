// Package ingest indexes fetched pages into the knowledge base through
// validation, parsing, chunking, embedding, and storage stages.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/engine/semantic"
	"github.com/WessleyAI/wessley-research/pkg/fn"
)

const (
	// IndexSubject is the NATS subject for documents to index.
	IndexSubject = "research.index"
	// DLQSubject is the dead letter queue subject for failed messages.
	DLQSubject = "research.index.dlq"
	// MaxRetries before sending to DLQ.
	MaxRetries = 3
	// EmbedBatchSize is the max chunks per embedding request.
	EmbedBatchSize = 64
)

// Embedder turns texts into vectors, one per text, in order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorWriter persists passage vectors.
type VectorWriter interface {
	Upsert(ctx context.Context, records []semantic.VectorRecord) error
	DeleteByURL(ctx context.Context, url string) error
}

// Deps holds the external dependencies for the indexing pipeline.
type Deps struct {
	Embedder Embedder
	Vectors  VectorWriter
	// Seen reports whether a URL is already indexed. Optional.
	Seen   func(ctx context.Context, url string) (bool, error)
	Logger *slog.Logger
}

// --- Pipeline Stages ---

// Validate checks a Document via domain validation.
var Validate fn.Stage[domain.Document, domain.Document] = func(_ context.Context, doc domain.Document) fn.Result[domain.Document] {
	if err := domain.ValidateDocument(doc); err != nil {
		return fn.Err[domain.Document](err)
	}
	return fn.Ok(domain.NormalizeDocument(doc))
}

// Parse converts a Document into a ParsedDoc.
var Parse fn.Stage[domain.Document, ParsedDoc] = func(_ context.Context, doc domain.Document) fn.Result[ParsedDoc] {
	return fn.Ok(parsedDocFromDocument(doc))
}

// ChunkDoc splits a ParsedDoc into a ChunkedDoc.
var ChunkDoc fn.Stage[ParsedDoc, ChunkedDoc] = func(_ context.Context, doc ParsedDoc) fn.Result[ChunkedDoc] {
	chunks := chunkSentences(doc.ID, doc.Sentences, DefaultChunkSize, DefaultOverlap)
	if len(chunks) == 0 {
		if doc.Title == "" {
			return fn.Errf[ChunkedDoc]("ingest: %s has no text to index", doc.URL)
		}
		// Title-only pages still get one passage.
		chunks = []Chunk{{Text: doc.Title, Index: 0, DocID: doc.ID}}
	}
	return fn.Ok(ChunkedDoc{ParsedDoc: doc, Chunks: chunks})
}

// NewEmbed creates an Embed stage that batches chunks through the embedder.
func NewEmbed(client Embedder) fn.Stage[ChunkedDoc, EmbeddedDoc] {
	return func(ctx context.Context, doc ChunkedDoc) fn.Result[EmbeddedDoc] {
		embeddings := make([][]float32, 0, len(doc.Chunks))

		for _, batch := range fn.Chunk(doc.Chunks, EmbedBatchSize) {
			texts := fn.Map(batch, func(c Chunk) string { return c.Text })
			vecs, err := client.EmbedBatch(ctx, texts)
			if err != nil {
				return fn.Err[EmbeddedDoc](fmt.Errorf("embed batch: %w", err))
			}
			if len(vecs) != len(texts) {
				return fn.Errf[EmbeddedDoc]("embed batch: got %d vectors for %d texts", len(vecs), len(texts))
			}
			embeddings = append(embeddings, vecs...)
		}

		return fn.Ok(EmbeddedDoc{ChunkedDoc: doc, Embeddings: embeddings})
	}
}

// PointID is the deterministic Qdrant point ID of one passage.
func PointID(docID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(docID+"#"+strconv.Itoa(index))).String()
}

// NewStore creates a Store stage that replaces a page's passages in Qdrant.
func NewStore(vs VectorWriter) fn.Stage[EmbeddedDoc, string] {
	return func(ctx context.Context, doc EmbeddedDoc) fn.Result[string] {
		if err := vs.DeleteByURL(ctx, doc.URL); err != nil {
			return fn.Err[string](fmt.Errorf("vector delete: %w", err))
		}

		records := make([]semantic.VectorRecord, len(doc.Chunks))
		for i, chunk := range doc.Chunks {
			payload := map[string]any{
				semantic.KeyContent:    chunk.Text,
				semantic.KeyURL:        doc.URL,
				semantic.KeyTitle:      doc.Title,
				semantic.KeyChunkIndex: chunk.Index,
			}
			if doc.Published != "" {
				payload[semantic.KeyPublished] = doc.Published
			}
			for k, v := range doc.Metadata {
				payload[k] = v
			}
			records[i] = semantic.VectorRecord{
				ID:        PointID(doc.ID, chunk.Index),
				Embedding: doc.Embeddings[i],
				Payload:   payload,
			}
		}
		if err := vs.Upsert(ctx, records); err != nil {
			return fn.Err[string](fmt.Errorf("vector upsert: %w", err))
		}

		return fn.Ok(doc.ID)
	}
}

// NewPipeline constructs the full indexing pipeline with all stages wired.
func NewPipeline(deps Deps) fn.Stage[domain.Document, string] {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	// Compose: Validate → Parse → Chunk → Embed → Store
	validated := fn.LoggedStage("validate", log, Validate)
	parsed := fn.Then(validated, fn.LoggedStage("parse", log, Parse))
	chunked := fn.Then(parsed, fn.LoggedStage("chunk", log, ChunkDoc))
	embedded := fn.Then(chunked, fn.LoggedStage("embed", log, NewEmbed(deps.Embedder)))
	stored := fn.Then(embedded, fn.LoggedStage("store", log, NewStore(deps.Vectors)))

	return fn.TracedStage("ingest.pipeline", stored)
}

// dlqMessage is published to the DLQ on repeated failure.
type dlqMessage struct {
	Document domain.Document `json:"document"`
	Error    string          `json:"error"`
	Retries  int             `json:"retries"`
}

// StartConsumer subscribes to IndexSubject and runs documents through the
// indexing pipeline with retry and DLQ support.
func StartConsumer(nc *nats.Conn, deps Deps) (*nats.Subscription, error) {
	pipeline := NewPipeline(deps)
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return nc.Subscribe(IndexSubject, func(msg *nats.Msg) {
		var doc domain.Document
		if err := json.Unmarshal(msg.Data, &doc); err != nil {
			log.Error("ingest: unmarshal failed", "error", err)
			return
		}

		ctx := context.Background()

		if deps.Seen != nil {
			seen, err := deps.Seen(ctx, doc.URL)
			if err != nil {
				log.Warn("ingest: seen check failed", "error", err)
			} else if seen {
				log.Info("ingest: skipping already indexed", "url", doc.URL)
				return
			}
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get("X-Retry-Count"); v != "" {
				retries, _ = strconv.Atoi(v)
			}
		}

		id, err := pipeline(ctx, doc).Unwrap()
		if err == nil {
			log.Info("ingest: indexed", "url", id)
			return
		}

		retries++
		log.Error("ingest: pipeline failed", "error", err, "url", doc.URL, "retry", retries)
		if retries >= MaxRetries {
			data, _ := json.Marshal(dlqMessage{Document: doc, Error: err.Error(), Retries: retries})
			if err := nc.Publish(DLQSubject, data); err != nil {
				log.Error("ingest: DLQ publish failed", "error", err)
			}
			return
		}

		retryMsg := nats.NewMsg(IndexSubject)
		retryMsg.Data = msg.Data
		retryMsg.Header = nats.Header{}
		retryMsg.Header.Set("X-Retry-Count", strconv.Itoa(retries))
		if err := nc.PublishMsg(retryMsg); err != nil {
			log.Error("ingest: retry publish failed", "error", err)
		}
	})
}
