package hierarchy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a flat parent-pointer table.
type memStore struct {
	parents map[uint]*uint
	items   map[uint]int64
}

func newMemStore() *memStore {
	return &memStore{parents: map[uint]*uint{}, items: map[uint]int64{}}
}

func (s *memStore) add(id uint, parent *uint) {
	s.parents[id] = parent
}

func (s *memStore) ParentOf(id uint) (*uint, error) {
	p, ok := s.parents[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return p, nil
}

func (s *memStore) ChildIDs(id uint) ([]uint, error) {
	var ids []uint
	for child, p := range s.parents {
		if p != nil && *p == id {
			ids = append(ids, child)
		}
	}
	return ids, nil
}

func (s *memStore) CountItems(id uint) (int64, error) {
	return s.items[id], nil
}

func ptr(id uint) *uint { return &id }

// chain builds 1 -> 2 -> ... -> n where 1 is the root.
func chain(n uint) *memStore {
	s := newMemStore()
	s.add(1, nil)
	for id := uint(2); id <= n; id++ {
		s.add(id, ptr(id-1))
	}
	return s
}

func TestValidateReparent_RootAlwaysAllowed(t *testing.T) {
	v := NewValidator(Categories, chain(3))
	assert.NoError(t, v.ValidateReparent(0, nil))
	assert.NoError(t, v.ValidateReparent(3, nil))
}

func TestValidateReparent_CategoryDepthLimit(t *testing.T) {
	// A -> B -> C -> D -> E occupies depths 0..4.
	s := chain(5)
	v := NewValidator(Categories, s)

	for id := uint(1); id < 5; id++ {
		assert.NoError(t, v.ValidateReparent(0, ptr(id)), "creating under depth %d", id-1)
	}

	err := v.ValidateReparent(0, ptr(5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxDepthExceeded))
	assert.Equal(t, "Maximum category depth is 5 levels", err.Error())
}

func TestValidateReparent_LocationDepthLimit(t *testing.T) {
	v := NewValidator(Locations, chain(3))

	assert.NoError(t, v.ValidateReparent(0, ptr(2)))

	err := v.ValidateReparent(0, ptr(3))
	require.Error(t, err)
	assert.Equal(t, "Maximum location depth is 3 levels", err.Error())
}

func TestValidateReparent_SelfParent(t *testing.T) {
	v := NewValidator(Categories, chain(2))

	err := v.ValidateReparent(2, ptr(2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSelfParent))
	assert.Equal(t, "Category cannot be its own parent", err.Error())
}

func TestValidateReparent_RejectsEveryDescendant(t *testing.T) {
	//      1
	//     / \
	//    2   3
	//    |
	//    4
	s := newMemStore()
	s.add(1, nil)
	s.add(2, ptr(1))
	s.add(3, ptr(1))
	s.add(4, ptr(2))
	v := NewValidator(Categories, s)

	for _, descendant := range []uint{2, 3, 4} {
		err := v.ValidateReparent(1, ptr(descendant))
		require.Error(t, err, "moving 1 under %d", descendant)
		assert.True(t, errors.Is(err, ErrCircular))
		assert.Equal(t, "Cannot create circular category hierarchy", err.Error())
	}

	// Moving 2 under its sibling is fine.
	assert.NoError(t, v.ValidateReparent(2, ptr(3)))
}

func TestValidateReparent_SubtreeHeight(t *testing.T) {
	// Category chain 1..4 plus a separate root 10 with two levels below it.
	s := chain(4)
	s.add(10, nil)
	s.add(11, ptr(10))
	s.add(12, ptr(11))
	v := NewValidator(Categories, s)

	// 10 would land at depth 2 and 12 at depth 4: allowed.
	assert.NoError(t, v.ValidateReparent(10, ptr(2)))

	// Under 3, the leaf 12 would sit at depth 5.
	err := v.ValidateReparent(10, ptr(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxDepthExceeded))
}

func TestValidateReparent_MissingParent(t *testing.T) {
	v := NewValidator(Categories, chain(2))

	err := v.ValidateReparent(0, ptr(99))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNodeNotFound))
}

func TestValidateReparent_CorruptCycleTerminates(t *testing.T) {
	// 1 and 2 point at each other; the walk must stop.
	s := newMemStore()
	s.add(1, ptr(2))
	s.add(2, ptr(1))
	s.add(3, nil)
	v := NewValidator(Locations, s)

	err := v.ValidateReparent(3, ptr(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxDepthExceeded))
}

func TestValidateDelete(t *testing.T) {
	s := chain(2)
	v := NewValidator(Categories, s)

	t.Run("items are checked first", func(t *testing.T) {
		s.items[1] = 2
		defer delete(s.items, 1)

		err := v.ValidateDelete(1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrHasItems))
		assert.Equal(t, "Cannot delete category: contains 2 book(s). Please move them first.", err.Error())
	})

	t.Run("children", func(t *testing.T) {
		err := v.ValidateDelete(1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrHasChildren))
		assert.Equal(t, "Cannot delete category: contains 1 subcategory(ies). Please delete or move them first.", err.Error())
	})

	t.Run("empty leaf", func(t *testing.T) {
		assert.NoError(t, v.ValidateDelete(2))
	})
}

func TestDepth(t *testing.T) {
	v := NewValidator(Categories, chain(4))

	depth, err := v.Depth(4)
	require.NoError(t, err)
	assert.Equal(t, 3, depth)

	depth, err = v.Depth(1)
	require.NoError(t, err)
	assert.Equal(t, 0, depth)
}
