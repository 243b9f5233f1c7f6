/*
Package fixture reads object graphs from TOML files.

A fixture lists objects in packing order, leaves first and the root last.
Every object has a name, optional content and links to objects listed
before it:

	[[object]]
	name = "jkl"
	data = "jkl"

	[[object]]
	name = "ghi"
	data = "ghi"
	links = [ { to = "jkl" } ]

data is stored as is, size pads the object with zero bytes. A link without a
position appends a new offset field of the link's width (default 2) to the
object; a link with a position refers to bytes already present. virtual lists
names of objects the object has to be placed before.

Fixtures are packed into a serialize.Context. Graph vertex i is the object
at position i of the list.
*/
package fixture

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/npillmayer/otpack/serialize"
)

// Object is an entry of a fixture file.
type Object struct {
	Name    string   `toml:"name"`
	Data    string   `toml:"data"`
	Size    int      `toml:"size"`
	Links   []Link   `toml:"links"`
	Virtual []string `toml:"virtual"`
}

// Link is a real link of an object.
type Link struct {
	To     string `toml:"to"`
	Pos    *int   `toml:"pos"`
	Width  int    `toml:"width"`
	Signed bool   `toml:"signed"`
	Whence string `toml:"whence"` // head (default), tail or absolute
	Bias   int    `toml:"bias"`
}

// Fixture is a packed object graph. It can be handed to graph.FromSerializer
// directly.
type Fixture struct {
	Objects []Object `toml:"object"`
	ctx     *serialize.Context
	index   map[string]int
}

// Load reads and packs a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return f, nil
}

// Parse reads and packs a fixture from TOML source.
func Parse(data []byte) (*Fixture, error) {
	f := &Fixture{}
	if err := toml.Unmarshal(data, f); err != nil {
		return nil, err
	}
	if err := f.pack(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Fixture) pack() error {
	f.ctx = serialize.NewContext()
	f.index = make(map[string]int, len(f.Objects))
	packed := make(map[string]int, len(f.Objects)) // name → serializer index
	for i, obj := range f.Objects {
		if obj.Name == "" {
			return fmt.Errorf("object %d has no name", i)
		}
		if _, dup := f.index[obj.Name]; dup {
			return fmt.Errorf("duplicate object name %q", obj.Name)
		}
		f.ctx.Push()
		f.ctx.Embed([]byte(obj.Data))
		if n := obj.Size - len(obj.Data); n > 0 {
			f.ctx.Allocate(n)
		}
		for _, l := range obj.Links {
			target, ok := packed[l.To]
			if !ok {
				f.ctx.PopDiscard()
				return fmt.Errorf("object %q links to %q, which is not packed before it", obj.Name, l.To)
			}
			link, err := l.compile(f.ctx, target)
			if err != nil {
				f.ctx.PopDiscard()
				return fmt.Errorf("object %q: %w", obj.Name, err)
			}
			f.ctx.AddLinkWith(link)
		}
		for _, name := range obj.Virtual {
			target, ok := packed[name]
			if !ok {
				f.ctx.PopDiscard()
				return fmt.Errorf("object %q has virtual link to unknown %q", obj.Name, name)
			}
			f.ctx.AddVirtualLink(target)
		}
		packed[obj.Name] = f.ctx.PopPack(false)
		f.index[obj.Name] = i
	}
	return f.ctx.EndSerialize()
}

func (l Link) compile(c *serialize.Context, target int) (serialize.Link, error) {
	width := l.Width
	if width == 0 {
		width = 2
	}
	if width < 2 || width > 4 {
		return serialize.Link{}, fmt.Errorf("link to %q has width %d", l.To, width)
	}
	var whence serialize.Whence
	switch l.Whence {
	case "", "head":
		whence = serialize.Head
	case "tail":
		whence = serialize.Tail
	case "absolute":
		whence = serialize.Absolute
	default:
		return serialize.Link{}, fmt.Errorf("link to %q has unknown whence %q", l.To, l.Whence)
	}
	var pos int
	if l.Pos != nil {
		pos = *l.Pos
	} else {
		pos = c.Allocate(width)
	}
	return serialize.Link{
		Width:    width,
		Signed:   l.Signed,
		Whence:   whence,
		Bias:     l.Bias,
		Position: pos,
		ObjIdx:   target,
	}, nil
}

// Buffer returns the bytes of all objects.
func (f *Fixture) Buffer() []byte {
	return f.ctx.Buffer()
}

// Packed returns the packed objects, entry 0 being the nil object.
func (f *Fixture) Packed() []*serialize.Object {
	return f.ctx.Packed()
}

// Len is the number of objects.
func (f *Fixture) Len() int {
	return len(f.Objects)
}

// Index returns the graph vertex of the object called name, or -1.
func (f *Fixture) Index(name string) int {
	if i, ok := f.index[name]; ok {
		return i
	}
	return -1
}

// Name returns the name of graph vertex i. Vertices created after loading
// (by duplication or splitting) are named by their index.
func (f *Fixture) Name(i int) string {
	if i >= 0 && i < len(f.Objects) {
		return f.Objects[i].Name
	}
	return fmt.Sprintf("#%d", i)
}
