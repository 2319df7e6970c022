package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Snapshot is an immutable view of the active knowledge. It is replaced as a
// whole after every mutation and never modified in place.
type Snapshot struct {
	Resume   *Document
	JD       *Document
	Nodes    []Node
	LoadedAt time.Time
}

// ActiveResume returns the active résumé payload or nil.
func (s *Snapshot) ActiveResume() *Resume {
	if s == nil || s.Resume == nil {
		return nil
	}
	return s.Resume.Data.Resume
}

// ActiveJD returns the active job description payload or nil.
func (s *Snapshot) ActiveJD() *JobDescription {
	if s == nil || s.JD == nil {
		return nil
	}
	return s.JD.Data.JD
}

// EmbeddedCount counts nodes that carry a vector.
func (s *Snapshot) EmbeddedCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, node := range s.Nodes {
		if node.HasEmbedding() {
			n++
		}
	}
	return n
}

// LoadSnapshot reads the active résumé, job description and all nodes.
func LoadSnapshot(ctx context.Context, store Store, now time.Time) (*Snapshot, error) {
	resume, err := latestOrNil(ctx, store, DocResume)
	if err != nil {
		return nil, err
	}
	jd, err := latestOrNil(ctx, store, DocJobDescription)
	if err != nil {
		return nil, err
	}
	nodes, err := store.AllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot nodes: %w", err)
	}
	return &Snapshot{Resume: resume, JD: jd, Nodes: nodes, LoadedAt: now}, nil
}

func latestOrNil(ctx context.Context, store Store, t DocType) (*Document, error) {
	doc, err := store.LatestDocument(ctx, t)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", t, err)
	}
	return doc, nil
}
