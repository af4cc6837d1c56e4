package databases

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// CasesPath holds the public case documents
	CasesPath = "cases"
	// CasesPrivatePath holds the private case documents under the same keys
	CasesPrivatePath = "casesPrivate"
	// LovedOnesPath is the child collection of loved ones under a case
	LovedOnesPath = "lovedOnes"
)

var (
	// ErrNotFound is returned when no document lives at a path
	ErrNotFound = errors.New("document not found")
	// ErrInvalidPath is returned for paths that do not name a document
	ErrInvalidPath = errors.New("invalid document path")
)

// Document is the body of a stored document
type Document map[string]interface{}

// Store is a hierarchical document store. Paths alternate collection and
// identifier segments, e.g. cases/{key}/lovedOnes/{id}.
type Store interface {
	// ChildByAutoID returns the path of a new, unique child of the collection at parentPath
	ChildByAutoID(parentPath string) string
	// Write replaces the document at path
	Write(ctx context.Context, path string, doc Document) error
	// Delete removes the document at path
	Delete(ctx context.Context, path string) error
}

// Reader reads single documents back from a store
type Reader interface {
	Get(ctx context.Context, path string) (Document, error)
}

// CasePath returns cases/{key}
func CasePath(key string) string { return join(CasesPath, key) }

// CasePrivatePath returns casesPrivate/{key}
func CasePrivatePath(key string) string { return join(CasesPrivatePath, key) }

// LovedOnesCollection returns cases/{key}/lovedOnes
func LovedOnesCollection(key string) string { return join(CasesPath, key, LovedOnesPath) }

// LovedOnePath returns cases/{key}/lovedOnes/{id}
func LovedOnePath(key, id string) string { return join(CasesPath, key, LovedOnesPath, id) }

// LovedOnePrivatePath returns casesPrivate/{key}/lovedOnes/{id}
func LovedOnePrivatePath(key, id string) string {
	return join(CasesPrivatePath, key, LovedOnesPath, id)
}

// LastSegment returns the identifier at the end of a path
func LastSegment(path string) string {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func join(parts ...string) string { return strings.Join(parts, "/") }

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(strings.Trim(path, "/"), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// documentRef is a parsed document path
type documentRef struct {
	collection string // collection segments joined with "."
	id         string
	parent     string // path of the owning document, empty at the root
}

func parseDocumentPath(path string) (documentRef, error) {
	parts := splitPath(path)
	if len(parts) == 0 || len(parts)%2 != 0 {
		return documentRef{}, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	var collections []string
	for i := 0; i < len(parts); i += 2 {
		collections = append(collections, parts[i])
	}
	return documentRef{
		collection: strings.Join(collections, "."),
		id:         parts[len(parts)-1],
		parent:     join(parts[:len(parts)-2]...),
	}, nil
}
