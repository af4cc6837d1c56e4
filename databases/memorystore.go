package databases

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Op is a single mutation seen by a MemoryStore
type Op struct {
	Kind string // "write" or "delete"
	Path string
	Err  error
}

// MemoryStore is an in-process Store used by tests and local runs
type MemoryStore struct {
	// WriteHook runs before every write; a non-nil error fails the write
	WriteHook func(ctx context.Context, path string, doc Document) error
	// DeleteHook runs before every delete; a non-nil error fails the delete
	DeleteHook func(ctx context.Context, path string) error

	mu     sync.RWMutex
	docs   map[string]Document
	ops    []Op
	nextID int
}

var _ Store = (*MemoryStore)(nil)
var _ Reader = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

// ChildByAutoID returns parentPath/{n} with n increasing on every call
func (s *MemoryStore) ChildByAutoID(parentPath string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return fmt.Sprintf("%s/-M%06d", join(splitPath(parentPath)...), s.nextID)
}

// Write stores a copy of doc at path
func (s *MemoryStore) Write(ctx context.Context, path string, doc Document) error {
	if _, err := parseDocumentPath(path); err != nil {
		return err
	}
	var err error
	if s.WriteHook != nil {
		err = s.WriteHook(ctx, path, doc)
	}
	if err == nil {
		err = ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, Op{Kind: "write", Path: path, Err: err})
	if err != nil {
		return err
	}
	s.docs[join(splitPath(path)...)] = copyDocument(doc)
	return nil
}

// Delete removes the document at path
func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	if _, err := parseDocumentPath(path); err != nil {
		return err
	}
	var err error
	if s.DeleteHook != nil {
		err = s.DeleteHook(ctx, path)
	}
	if err == nil {
		err = ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, Op{Kind: "delete", Path: path, Err: err})
	if err != nil {
		return err
	}
	delete(s.docs, join(splitPath(path)...))
	return nil
}

// Get returns a copy of the document at path
func (s *MemoryStore) Get(_ context.Context, path string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[join(splitPath(path)...)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDocument(doc), nil
}

// Paths lists every stored document path in sorted order
func (s *MemoryStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.docs))
	for p := range s.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Ops returns every write and delete attempted so far
func (s *MemoryStore) Ops() []Op {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Op(nil), s.ops...)
}

func copyDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
