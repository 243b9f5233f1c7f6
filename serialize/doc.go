/*
Package serialize produces object graphs for the repacker.

A Context packs binary objects bottom-up: clients Push a new object, write
its bytes, link it to objects packed earlier and finally PopPack it. Every
packed object receives an index; index 0 is reserved for the nil object, so
the first packed object has index 1 and the last one packed is the root of
the graph.

Links are either real links, occupying offset bytes inside the parent object,
or virtual links, which only express "must be placed after" constraints for
the repacker and consume no bytes. Offsets are left zero by the producer;
package graph decides the final order and writes the offset values.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package serialize

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otpack.serialize'
func tracer() tracing.Trace {
	return tracing.Select("otpack.serialize")
}
