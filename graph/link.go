package graph

import (
	"fmt"

	"github.com/npillmayer/otpack/serialize"
)

// ObjIdx is a stable handle of a vertex. Handles are never reused or
// renumbered; new vertices are appended.
type ObjIdx int

// NoObject is returned where no vertex could be found.
const NoObject ObjIdx = -1

// LinkKind tells real links (offset fields) from virtual links (ordering
// constraints).
type LinkKind uint8

const (
	RealLink LinkKind = iota
	VirtualLink
)

func (k LinkKind) String() string {
	if k == VirtualLink {
		return "virtual"
	}
	return "real"
}

// LinkWidth is the byte width of an offset field.
type LinkWidth uint8

const (
	WidthVirtual LinkWidth = 0 // virtual links occupy no bytes
	Width16      LinkWidth = 2
	Width24      LinkWidth = 3
	Width32      LinkWidth = 4
)

// minLinkWidth is the narrowest addressable offset width.
const minLinkWidth = Width16

// Whence is the base an offset is measured from.
type Whence = serialize.Whence

const (
	WhenceHead     = serialize.Head
	WhenceTail     = serialize.Tail
	WhenceAbsolute = serialize.Absolute
)

// Link is an edge of the object graph. Real and virtual links share this
// type; Kind distinguishes them. For virtual links Width is 0 and Position
// is meaningless.
type Link struct {
	Kind     LinkKind
	Width    LinkWidth
	Signed   bool
	Whence   Whence
	Bias     int
	Position int    // byte position of the offset field within the parent
	Target   ObjIdx // child vertex
}

// IsVirtual is true for ordering-only links.
func (l Link) IsVirtual() bool {
	return l.Kind == VirtualLink
}

// weightWidth is the width used for distance weighting. Virtual links count
// as 32 bit.
func (l Link) weightWidth() LinkWidth {
	if l.Width == WidthVirtual {
		return Width32
	}
	return l.Width
}

func (l Link) String() string {
	if l.IsVirtual() {
		return fmt.Sprintf("~>%d", l.Target)
	}
	return fmt.Sprintf("@%d/%d->%d", l.Position, l.Width, l.Target)
}

// realLink creates a plain unsigned head-relative link.
func realLink(pos int, width LinkWidth, target ObjIdx) Link {
	return Link{Kind: RealLink, Width: width, Position: pos, Target: target}
}

func virtualLink(target ObjIdx) Link {
	return Link{Kind: VirtualLink, Target: target}
}
