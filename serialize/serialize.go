package serialize

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Errors reported by a serialization context.
var (
	ErrNoCurrentObject = errors.New("serialize: no object pushed")
	ErrUnbalanced      = errors.New("serialize: unbalanced push/pop")
	ErrInvalidLink     = errors.New("serialize: invalid link")
)

// Whence is the base a real link's offset is measured from.
type Whence uint8

const (
	Head     Whence = iota // offset is relative to the start of the parent
	Tail                   // offset is relative to the end of the parent
	Absolute               // offset is relative to the start of the output
)

func (w Whence) String() string {
	switch w {
	case Head:
		return "head"
	case Tail:
		return "tail"
	case Absolute:
		return "absolute"
	}
	return fmt.Sprintf("whence(%d)", int(w))
}

// Link is a reference from a packed object to another packed object.
//
// For virtual links Width is 0 and Position is ignored.
type Link struct {
	Width    int    // byte width of the offset field: 2, 3 or 4
	Signed   bool   // offset field holds a signed value
	Whence   Whence // base of the offset
	Bias     int    // subtracted from the offset before it is written
	Position int    // byte position of the offset field inside the parent
	ObjIdx   int    // index of the target among packed objects
}

// Object is a packed object: a byte range within the context's buffer, plus
// its outgoing links.
type Object struct {
	Head, Tail   int
	RealLinks    []Link
	VirtualLinks []Link
}

// Size returns the number of bytes of o.
func (o *Object) Size() int {
	return o.Tail - o.Head
}

// pending is an object under construction.
type pending struct {
	data    []byte
	real    []Link
	virtual []Link
}

// Context packs objects into a shared buffer.
//
// The zero value is not usable, clients call NewContext.
type Context struct {
	buf    []byte
	packed []*Object // packed[0] is the nil object
	stack  []*pending
	shared map[uint64][]int // hash → candidate object indices
	err    error
}

// NewContext creates an empty serialization context.
func NewContext() *Context {
	return &Context{
		packed: []*Object{nil},
		shared: make(map[uint64][]int),
	}
}

// Buffer returns the byte buffer holding all packed objects.
func (c *Context) Buffer() []byte {
	return c.buf
}

// Packed returns the list of packed objects. Entry 0 is the nil object.
func (c *Context) Packed() []*Object {
	return c.packed
}

// Err returns the first error encountered, if any.
func (c *Context) Err() error {
	return c.err
}

// InError is true if an error occured during serialization.
func (c *Context) InError() bool {
	return c.err != nil
}

func (c *Context) fail(err error) {
	if c.err == nil {
		tracer().Errorf("serialization error: %v", err)
		c.err = err
	}
}

// Push starts a new object. Objects are packed leaves-first; a pushed object
// nests inside the currently open one only in the sense that it has to be
// popped before its parent can link to it.
func (c *Context) Push() {
	c.stack = append(c.stack, &pending{})
}

func (c *Context) current() *pending {
	if len(c.stack) == 0 {
		c.fail(ErrNoCurrentObject)
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// Len returns the number of bytes written to the current object.
func (c *Context) Len() int {
	if p := c.current(); p != nil {
		return len(p.data)
	}
	return 0
}

// Allocate appends n zero bytes to the current object and returns the
// position of the first of them.
func (c *Context) Allocate(n int) int {
	p := c.current()
	if p == nil || n < 0 {
		return 0
	}
	pos := len(p.data)
	p.data = append(p.data, make([]byte, n)...)
	return pos
}

// Embed appends b to the current object and returns its position.
func (c *Context) Embed(b []byte) int {
	p := c.current()
	if p == nil {
		return 0
	}
	pos := len(p.data)
	p.data = append(p.data, b...)
	return pos
}

// PutU16 appends a big-endian uint16 to the current object.
func (c *Context) PutU16(v uint16) int {
	pos := c.Allocate(2)
	c.WriteU16At(pos, v)
	return pos
}

// WriteU16At overwrites 2 bytes of the current object at pos.
func (c *Context) WriteU16At(pos int, v uint16) {
	p := c.current()
	if p == nil {
		return
	}
	if pos < 0 || pos+2 > len(p.data) {
		c.fail(fmt.Errorf("%w: write at %d beyond object size %d", ErrInvalidLink, pos, len(p.data)))
		return
	}
	binary.BigEndian.PutUint16(p.data[pos:], v)
}

// AddLink records a real 16-bit link, measured from the head of the current
// object, at byte position pos to the packed object objidx.
func (c *Context) AddLink(pos int, objidx int) {
	c.AddLinkWith(Link{Width: 2, Position: pos, ObjIdx: objidx})
}

// AddLinkWith records a real link with explicit parameters.
func (c *Context) AddLinkWith(l Link) {
	p := c.current()
	if p == nil {
		return
	}
	if l.ObjIdx <= 0 || l.ObjIdx >= len(c.packed) {
		c.fail(fmt.Errorf("%w: link to unknown object %d", ErrInvalidLink, l.ObjIdx))
		return
	}
	if l.Width == 0 {
		l.Width = 2
	}
	p.real = append(p.real, l)
}

// AddVirtualLink records an ordering constraint: the current object has to be
// placed before object objidx.
func (c *Context) AddVirtualLink(objidx int) {
	p := c.current()
	if p == nil {
		return
	}
	if objidx <= 0 || objidx >= len(c.packed) {
		c.fail(fmt.Errorf("%w: virtual link to unknown object %d", ErrInvalidLink, objidx))
		return
	}
	p.virtual = append(p.virtual, Link{ObjIdx: objidx})
}

// PopDiscard drops the current object without packing it.
func (c *Context) PopDiscard() {
	if len(c.stack) == 0 {
		c.fail(ErrUnbalanced)
		return
	}
	c.stack = c.stack[:len(c.stack)-1]
}

// PopPack finishes the current object and returns its index. If share is
// true and an identical object (same bytes, same links) has already been
// packed, that object's index is returned instead and no new object is
// created. Returns 0 on error.
func (c *Context) PopPack(share bool) int {
	if len(c.stack) == 0 {
		c.fail(ErrUnbalanced)
		return 0
	}
	p := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	if c.err != nil {
		return 0
	}
	var h uint64
	if share {
		h = p.hash()
		for _, idx := range c.shared[h] {
			if c.equal(c.packed[idx], p) {
				tracer().Debugf("sharing object %d", idx)
				return idx
			}
		}
	}
	obj := &Object{
		Head:         len(c.buf),
		RealLinks:    p.real,
		VirtualLinks: p.virtual,
	}
	c.buf = append(c.buf, p.data...)
	obj.Tail = len(c.buf)
	c.packed = append(c.packed, obj)
	idx := len(c.packed) - 1
	if share {
		c.shared[h] = append(c.shared[h], idx)
	}
	return idx
}

// EndSerialize checks that every pushed object has been popped.
func (c *Context) EndSerialize() error {
	if len(c.stack) != 0 {
		c.fail(ErrUnbalanced)
	}
	return c.err
}

func (p *pending) hash() uint64 {
	d := xxhash.New()
	d.Write(p.data)
	var scratch [8]byte
	for _, l := range p.real {
		binary.BigEndian.PutUint32(scratch[:4], uint32(l.ObjIdx))
		binary.BigEndian.PutUint32(scratch[4:], uint32(l.Position))
		d.Write(scratch[:])
	}
	for _, l := range p.virtual {
		binary.BigEndian.PutUint32(scratch[:4], uint32(l.ObjIdx))
		d.Write(scratch[:4])
	}
	return d.Sum64()
}

func (c *Context) equal(o *Object, p *pending) bool {
	if !bytes.Equal(c.buf[o.Head:o.Tail], p.data) {
		return false
	}
	if len(o.RealLinks) != len(p.real) || len(o.VirtualLinks) != len(p.virtual) {
		return false
	}
	for i := range p.real {
		if o.RealLinks[i] != p.real[i] {
			return false
		}
	}
	for i := range p.virtual {
		if o.VirtualLinks[i] != p.virtual[i] {
			return false
		}
	}
	return true
}
