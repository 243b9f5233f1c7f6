/*
Package ot provides the OpenType vocabulary shared by the packages of this
module: table tags, glyph indices and the lookup types and flags of the GSUB
and GPOS layout tables.

Package ot does not parse fonts. The repacker works on objects produced by a
table compiler, and only needs to know enough about layout tables to find
lookups and the subtables which may be split.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

// Valuable resource:
// https://learn.microsoft.com/en-us/typography/opentype/spec/chapter2
