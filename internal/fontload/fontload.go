package fontload

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/npillmayer/otpack/ot"
	"golang.org/x/image/font/sfnt"
)

// ErrFontFormat is returned for fonts with a broken table directory.
var ErrFontFormat = errors.New("fontload: invalid font format")

const (
	directoryHeaderSize = 12
	tableRecordSize     = 16
)

// ScalableFont is a parsed scalable font with original bytes, SFNT view and
// table directory.
type ScalableFont struct {
	Fontname  string
	Binary    []byte
	SFNT      *sfnt.Font
	NumGlyphs int
	tables    map[ot.Tag]TableRecord
}

// TableRecord is an entry of the table directory.
type TableRecord struct {
	Tag      ot.Tag
	Checksum uint32
	Offset   uint32
	Length   uint32
}

// LookupInfo summarizes a lookup of a GSUB or GPOS table.
type LookupInfo struct {
	Type          ot.LayoutTableLookupType
	Flag          ot.LayoutTableLookupFlag
	SubtableCount int
}

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	return ParseOpenTypeFont(bytez)
}

// ParseOpenTypeFont loads an OpenType font (TTF or OTF) from memory.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	if f.SFNT, err = sfnt.Parse(f.Binary); err != nil {
		return nil, err
	}
	f.Fontname, _ = f.SFNT.Name(nil, sfnt.NameIDFull)
	f.NumGlyphs = f.SFNT.NumGlyphs()
	if f.tables, err = parseTableDirectory(fbytes); err != nil {
		return nil, err
	}
	return f, nil
}

func parseTableDirectory(b []byte) (map[ot.Tag]TableRecord, error) {
	if len(b) < directoryHeaderSize {
		return nil, fmt.Errorf("%w: no table directory", ErrFontFormat)
	}
	n := int(binary.BigEndian.Uint16(b[4:]))
	if len(b) < directoryHeaderSize+n*tableRecordSize {
		return nil, fmt.Errorf("%w: table directory truncated", ErrFontFormat)
	}
	tables := make(map[ot.Tag]TableRecord, n)
	for i := range n {
		r := b[directoryHeaderSize+i*tableRecordSize:]
		rec := TableRecord{
			Tag:      ot.MakeTag(r[:4]),
			Checksum: binary.BigEndian.Uint32(r[4:]),
			Offset:   binary.BigEndian.Uint32(r[8:]),
			Length:   binary.BigEndian.Uint32(r[12:]),
		}
		if uint64(rec.Offset)+uint64(rec.Length) > uint64(len(b)) {
			return nil, fmt.Errorf("%w: table %s out of bounds", ErrFontFormat, rec.Tag)
		}
		tables[rec.Tag] = rec
	}
	return tables, nil
}

// Tables returns the table records, sorted by tag.
func (f *ScalableFont) Tables() []TableRecord {
	recs := make([]TableRecord, 0, len(f.tables))
	for _, rec := range f.tables {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Tag < recs[j].Tag })
	return recs
}

// Table returns the bytes of table tag, or nil if the font has no such table.
func (f *ScalableFont) Table(tag ot.Tag) []byte {
	rec, ok := f.tables[tag]
	if !ok {
		return nil
	}
	return f.Binary[rec.Offset : rec.Offset+rec.Length]
}

// Lookups lists the lookups of a GSUB or GPOS table.
func (f *ScalableFont) Lookups(tag ot.Tag) ([]LookupInfo, error) {
	if !tag.IsLayoutTable() {
		return nil, fmt.Errorf("%w: %s is not a layout table", ErrFontFormat, tag)
	}
	b := f.Table(tag)
	if b == nil {
		return nil, nil
	}
	if len(b) < 10 {
		return nil, fmt.Errorf("%w: %s header truncated", ErrFontFormat, tag)
	}
	ll := int(binary.BigEndian.Uint16(b[8:]))
	if ll == 0 {
		return nil, nil
	}
	if ll+2 > len(b) {
		return nil, fmt.Errorf("%w: %s LookupList out of bounds", ErrFontFormat, tag)
	}
	n := int(binary.BigEndian.Uint16(b[ll:]))
	if ll+2+2*n > len(b) {
		return nil, fmt.Errorf("%w: %s LookupList truncated", ErrFontFormat, tag)
	}
	lookups := make([]LookupInfo, 0, n)
	for i := range n {
		at := ll + int(binary.BigEndian.Uint16(b[ll+2+2*i:]))
		if at+6 > len(b) {
			return nil, fmt.Errorf("%w: %s lookup %d out of bounds", ErrFontFormat, tag, i)
		}
		lookups = append(lookups, LookupInfo{
			Type:          ot.LayoutTableLookupType(binary.BigEndian.Uint16(b[at:])),
			Flag:          ot.LayoutTableLookupFlag(binary.BigEndian.Uint16(b[at+2:])),
			SubtableCount: int(binary.BigEndian.Uint16(b[at+4:])),
		})
	}
	return lookups, nil
}
