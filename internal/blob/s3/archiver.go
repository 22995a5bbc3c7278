package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

// SnapshotArchiver uploads point-in-time snapshots of the listing set to
// object storage as JSONL, one listing per line. Snapshots are an audit
// artifact: the ledger stays the source of truth and nothing in the client
// reads them back.
type SnapshotArchiver struct {
	client *Client
	prefix string
	now    func() time.Time
}

// NewSnapshotArchiver creates a SnapshotArchiver over the given client.
// prefix is the leading path segment of every snapshot key; empty defaults
// to "snapshots".
func NewSnapshotArchiver(c *Client, prefix string) *SnapshotArchiver {
	if prefix == "" {
		prefix = "snapshots"
	}
	return &SnapshotArchiver{
		client: c,
		prefix: prefix,
		now:    time.Now,
	}
}

// Archive serializes the listings to JSONL and uploads them under
// <prefix>/YYYY-MM-DD/HHMMSS.jsonl. It returns the object key.
func (a *SnapshotArchiver) Archive(ctx context.Context, listings []domain.Listing) (string, error) {
	buf, err := marshalJSONL(listings)
	if err != nil {
		return "", fmt.Errorf("s3blob: snapshot marshal: %w", err)
	}

	ts := a.now().UTC()
	key := fmt.Sprintf("%s/%s/%s.jsonl", a.prefix, ts.Format("2006-01-02"), ts.Format("150405"))
	if err := a.client.put(ctx, key, buf, "application/x-ndjson"); err != nil {
		return "", fmt.Errorf("s3blob: snapshot upload: %w", err)
	}
	return key, nil
}

// marshalJSONL serialises records as newline-delimited JSON, one compact
// line per record.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
