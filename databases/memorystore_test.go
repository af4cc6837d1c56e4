package databases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, "cases/k", CasePath("k"))
	assert.Equal(t, "casesPrivate/k", CasePrivatePath("k"))
	assert.Equal(t, "cases/k/lovedOnes", LovedOnesCollection("k"))
	assert.Equal(t, "cases/k/lovedOnes/l", LovedOnePath("k", "l"))
	assert.Equal(t, "casesPrivate/k/lovedOnes/l", LovedOnePrivatePath("k", "l"))
	assert.Equal(t, "l", LastSegment("/cases/k/lovedOnes/l/"))
	assert.Equal(t, "", LastSegment("/"))
}

func TestParseDocumentPath(t *testing.T) {
	ref, err := parseDocumentPath("/casesPrivate/k/lovedOnes/l")
	require.NoError(t, err)
	assert.Equal(t, documentRef{collection: "casesPrivate.lovedOnes", id: "l", parent: "casesPrivate/k"}, ref)

	ref, err = parseDocumentPath("cases/k")
	require.NoError(t, err)
	assert.Equal(t, documentRef{collection: "cases", id: "k"}, ref)

	for _, bad := range []string{"", "cases", "cases/k/lovedOnes"} {
		_, err = parseDocumentPath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	path := s.ChildByAutoID("cases")
	assert.NotEqual(t, path, s.ChildByAutoID("cases"))

	doc := Document{"firstName": "Sam"}
	require.NoError(t, s.Write(ctx, path, doc))
	doc["firstName"] = "changed"

	got, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Document{"firstName": "Sam"}, got)

	require.NoError(t, s.Write(ctx, path, Document{"lastName": "Rivera"}))
	got, err = s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Document{"lastName": "Rivera"}, got, "writes replace the whole document")

	require.NoError(t, s.Delete(ctx, path))
	_, err = s.Get(ctx, path)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.Paths())
	assert.Len(t, s.Ops(), 3)
}

func TestMemoryStoreHooks(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.WriteHook = func(context.Context, string, Document) error { return errors.New("write refused") }
	s.DeleteHook = func(context.Context, string) error { return errors.New("delete refused") }

	assert.EqualError(t, s.Write(ctx, "cases/a", Document{}), "write refused")
	assert.EqualError(t, s.Delete(ctx, "cases/a"), "delete refused")
	assert.Empty(t, s.Paths())

	ops := s.Ops()
	require.Len(t, ops, 2)
	assert.Equal(t, "write", ops[0].Kind)
	assert.Error(t, ops[0].Err)
}
