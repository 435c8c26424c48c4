// Package hierarchy validates parent assignments for self-referential trees
// stored as flat tables with parent ids (categories and locations).
//
// Depth is measured from the root, which sits at depth 0. A tree with
// MaxDepth 5 therefore holds nodes at depths 0 through 4.
package hierarchy

import (
	"errors"
	"fmt"
)

// Kind describes one tree type and its depth limit.
type Kind struct {
	Name      string // singular, lower case
	ChildNoun string // used in delete guard messages
	MaxDepth  int
}

var (
	Categories = Kind{Name: "category", ChildNoun: "subcategory(ies)", MaxDepth: 5}
	Locations  = Kind{Name: "location", ChildNoun: "sub-location(s)", MaxDepth: 3}
)

// Store gives the validator read access to a tree.
type Store interface {
	// ParentOf returns the parent id of a node, nil for roots, or
	// ErrNodeNotFound when the node does not exist.
	ParentOf(id uint) (*uint, error)
	ChildIDs(id uint) ([]uint, error)
	CountItems(id uint) (int64, error)
}

type Validator struct {
	kind  Kind
	store Store
}

func NewValidator(kind Kind, store Store) *Validator {
	return &Validator{kind: kind, store: store}
}

func (v *Validator) Kind() Kind {
	return v.kind
}

// ValidateReparent checks that nodeID may be placed under parentID. A nodeID
// of 0 stands for a node that is about to be created; a nil parentID makes
// the node a root, which is always allowed.
func (v *Validator) ValidateReparent(nodeID uint, parentID *uint) error {
	if parentID == nil {
		return nil
	}
	if nodeID != 0 && *parentID == nodeID {
		return v.fail(ErrSelfParent, 0)
	}

	depth, err := v.depthOf(nodeID, *parentID)
	if err != nil {
		return err
	}
	if depth >= v.kind.MaxDepth-1 {
		return v.fail(ErrMaxDepthExceeded, 0)
	}

	if nodeID == 0 {
		return nil
	}

	// The moved node takes depth+1 and drags its descendants along.
	height, err := v.heightOf(nodeID)
	if err != nil {
		return err
	}
	if depth+1+height > v.kind.MaxDepth-1 {
		return v.fail(ErrMaxDepthExceeded, 0)
	}
	return nil
}

// ValidateDelete refuses to delete nodes that still hold items or children.
func (v *Validator) ValidateDelete(nodeID uint) error {
	items, err := v.store.CountItems(nodeID)
	if err != nil {
		return fmt.Errorf("failed to count %s items: %w", v.kind.Name, err)
	}
	if items > 0 {
		return v.fail(ErrHasItems, items)
	}

	children, err := v.store.ChildIDs(nodeID)
	if err != nil {
		return fmt.Errorf("failed to list %s children: %w", v.kind.Name, err)
	}
	if len(children) > 0 {
		return v.fail(ErrHasChildren, int64(len(children)))
	}
	return nil
}

// Depth returns the depth of an existing node.
func (v *Validator) Depth(id uint) (int, error) {
	return v.depthOf(0, id)
}

// depthOf walks up from start and returns its depth. It fails with ErrCircular
// when nodeID shows up among the ancestors. The walk stops after MaxDepth
// hops, so a corrupted cycle that does not include nodeID reports max depth
// instead of looping.
func (v *Validator) depthOf(nodeID, start uint) (int, error) {
	current := start
	depth := 0
	for {
		if nodeID != 0 && current == nodeID {
			return 0, v.fail(ErrCircular, 0)
		}
		if depth > v.kind.MaxDepth {
			return depth, nil
		}

		parent, err := v.store.ParentOf(current)
		if err != nil {
			if errors.Is(err, ErrNodeNotFound) {
				return 0, v.fail(ErrNodeNotFound, 0)
			}
			return 0, fmt.Errorf("failed to load %s %d: %w", v.kind.Name, current, err)
		}
		if parent == nil {
			return depth, nil
		}
		depth++
		current = *parent
	}
}

// heightOf returns the number of levels below id (0 for a leaf), capped at
// MaxDepth.
func (v *Validator) heightOf(id uint) (int, error) {
	level := []uint{id}
	height := 0
	for height <= v.kind.MaxDepth {
		var next []uint
		for _, n := range level {
			children, err := v.store.ChildIDs(n)
			if err != nil {
				return 0, fmt.Errorf("failed to list %s children: %w", v.kind.Name, err)
			}
			next = append(next, children...)
		}
		if len(next) == 0 {
			return height, nil
		}
		height++
		level = next
	}
	return height, nil
}

func (v *Validator) fail(err error, count int64) error {
	return &Error{Kind: v.kind, Err: err, Count: count}
}
