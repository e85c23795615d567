package vectorstore

import "context"

// Metadata keys the retrieval layer understands. Everything else is
// carried opaquely.
const (
	// MetadataSource identifies the origin of a chunk, typically the
	// report file name.
	MetadataSource = "source"

	// MetadataPage is the 1-based page number the chunk came from.
	MetadataPage = "page"
)

// Document is one content+metadata unit as produced by the extraction
// and chunking collaborators. Documents are immutable once added to a
// store.
type Document struct {
	// ID uniquely identifies the document. The store generates one if
	// left empty.
	ID string

	// Content is the chunk text. The store treats it as opaque.
	Content string

	// Metadata carries source attribution. See MetadataSource and
	// MetadataPage.
	Metadata map[string]any
}

// Source returns the origin identifier, or "" if absent.
func (d Document) Source() string {
	if s, ok := d.Metadata[MetadataSource].(string); ok {
		return s
	}
	return ""
}

// Page returns the page number and whether it is present. JSON decoding
// produces float64 for numbers, so both int and float64 are accepted.
func (d Document) Page() (int, bool) {
	switch v := d.Metadata[MetadataPage].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Chunkable is the ingestion-boundary representation of a unit of
// content. Raw strings and structured documents both arrive at the
// boundary and are resolved to a canonical Document before reaching
// the store.
type Chunkable interface {
	AsDocument() Document
}

// RawText is a bare content string with no metadata.
type RawText string

// AsDocument wraps the text in a Document with empty metadata.
func (r RawText) AsDocument() Document {
	return Document{Content: string(r)}
}

// AsDocument returns the document itself.
func (d Document) AsDocument() Document {
	return d
}

// Normalize resolves mixed ingestion input into canonical Documents.
func Normalize(items ...Chunkable) []Document {
	docs := make([]Document, len(items))
	for i, item := range items {
		docs[i] = item.AsDocument()
	}
	return docs
}

// SearchResult is a recall-stage hit.
type SearchResult struct {
	// Document is the matched document.
	Document Document

	// Score is the cosine similarity to the query (higher = more
	// similar), derived from the squared L2 distance over unit vectors.
	Score float32

	// Distance is the raw squared L2 distance.
	Distance float32

	// Position is the document's insertion position in the store.
	Position int
}

// Embedder generates unit-length vector embeddings from text.
//
// Implementations live in the embeddings package; the store depends
// only on this interface.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts in one
	// batched call.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query. Some models
	// encode queries differently from passages.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
