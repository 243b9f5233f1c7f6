package main

import (
	"errors"
	"testing"

	"github.com/npillmayer/otpack/graph"
	"github.com/npillmayer/otpack/ot"
	"github.com/npillmayer/otpack/repack"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.cli")
	defer teardown()
	//
	intp := &Intp{}
	cmd, err := intp.parseCommand("load:graph.toml:GSUB  sort bogus quit dist")
	require.NoError(t, err)
	assert.Equal(t, 5, cmd.count)
	assert.Equal(t, LOAD, cmd.op[0].code)
	assert.Equal(t, "graph.toml", cmd.op[0].arg)
	assert.Equal(t, "GSUB", cmd.op[0].format)
	assert.Equal(t, SORT, cmd.op[1].code)
	assert.Equal(t, HELP, cmd.op[2].code, "expected unknown command to show help")
	assert.Equal(t, QUIT, cmd.op[3].code)
	assert.Equal(t, NOOP, cmd.op[4].code, "expected steps after quit to be ignored")
	assert.Len(t, opNames, len(opMap))
	for name, code := range opMap {
		assert.Equal(t, name, opNames[code])
		assert.Contains(t, commandFn, code)
	}
}

func TestInterpreter(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.cli")
	defer teardown()
	//
	intp := &Intp{cfg: repack.DefaultConfig()}
	err, _ := sortOp(intp, &Op{code: SORT})
	assert.True(t, errors.Is(err, ErrNoGraph))
	require.NoError(t, intp.loadFixture("../internal/fixture/testdata/shared.toml", ""))
	assert.Equal(t, ot.T("none"), intp.table)
	idx, err := intp.findVertex("x")
	require.NoError(t, err)
	assert.Equal(t, "x", intp.vertexName(idx))
	_, err = intp.findVertex("#99")
	assert.Error(t, err)
	//
	cmd, err := intp.parseCommand("sort overflows repack order")
	require.NoError(t, err)
	err, quit := intp.execute(cmd)
	require.NoError(t, err)
	assert.False(t, quit)
	assert.False(t, intp.g.WillOverflow())
	assert.Equal(t, "#4", intp.vertexName(graph.ObjIdx(4)), "expected duplicate to be named by index")
}
