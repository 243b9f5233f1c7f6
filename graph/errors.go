package graph

import (
	"errors"
	"strings"
)

// RepackErrorFlags is a set of independent failure conditions of the
// repacker. Flags are OR'ed together; a value of 0 means no error.
//
// RepackErrorFlags implements the error interface. Matching with errors.Is
// succeeds if the error has any flag of the target set:
//
//	if errors.Is(err, graph.GraphErrorCycleDetected) { … }
type RepackErrorFlags uint16

const (
	ErrorNone RepackErrorFlags = 0
	// GraphErrorOrphanedNodes: a vertex is unreachable from the root.
	GraphErrorOrphanedNodes RepackErrorFlags = 1 << iota
	// GraphErrorInvalidObjIndex: a link references a non-existent vertex.
	GraphErrorInvalidObjIndex
	// GraphErrorInvalidLinkPosition: overlapping or out-of-bounds real links.
	GraphErrorInvalidLinkPosition
	// GraphErrorCycleDetected: real/virtual links form a cycle.
	GraphErrorCycleDetected
	// GraphErrorInvalidRoot is reserved for 32-bit space partitioning,
	// which is not implemented.
	GraphErrorInvalidRoot
	// RepackErrorSplitSubtable: accounting mismatch while splitting a subtable.
	RepackErrorSplitSubtable
	// RepackErrorExtPromotion is reserved for promoting lookups to extension
	// lookups, which is not implemented.
	RepackErrorExtPromotion
	// RepackErrorNoResolution: overflows remain after all resolution rounds.
	RepackErrorNoResolution
)

var flagNames = []struct {
	flag RepackErrorFlags
	name string
}{
	{GraphErrorOrphanedNodes, "orphaned nodes"},
	{GraphErrorInvalidObjIndex, "invalid object index"},
	{GraphErrorInvalidLinkPosition, "invalid link position"},
	{GraphErrorCycleDetected, "cycle detected"},
	{GraphErrorInvalidRoot, "invalid root"},
	{RepackErrorSplitSubtable, "split subtable"},
	{RepackErrorExtPromotion, "extension promotion"},
	{RepackErrorNoResolution, "no resolution"},
}

// Has is true if all flags of f are set in e.
func (e RepackErrorFlags) Has(f RepackErrorFlags) bool {
	return f != 0 && e&f == f
}

func (e RepackErrorFlags) Error() string {
	if e == ErrorNone {
		return "repack: no error"
	}
	names := make([]string, 0, 2)
	for _, fn := range flagNames {
		if e&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return "repack: " + strings.Join(names, ", ")
}

// Is supports errors.Is for flag sets.
func (e RepackErrorFlags) Is(target error) bool {
	var t RepackErrorFlags
	if !errors.As(target, &t) {
		return false
	}
	return e&t != 0
}

// AsError returns nil for ErrorNone and e otherwise.
func (e RepackErrorFlags) AsError() error {
	if e == ErrorNone {
		return nil
	}
	return e
}

// ErrOffsetOverflow is returned by the writer if an offset does not fit into
// its link.
var ErrOffsetOverflow = errors.New("repack: offset overflow")
