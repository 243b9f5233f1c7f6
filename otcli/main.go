package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/otpack/graph"
	"github.com/npillmayer/otpack/internal/fontload"
	"github.com/npillmayer/otpack/ot"
	"github.com/npillmayer/otpack/repack"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'otpack.cli'
func tracer() tracing.Trace {
	return tracing.Select("otpack.cli")
}

// traceKeys are the trace keys of the packages the CLI drives.
var traceKeys = []string{
	"otpack.cli",
	"otpack.graph",
	"otpack.split",
	"otpack.repack",
	"otpack.serialize",
	"otpack.build",
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
	}
	for _, key := range traceKeys {
		conf["trace."+key] = "Info"
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	graphfile := flag.String("graph", "", "Object graph fixture to load")
	configfile := flag.String("config", "", "Repacker configuration (TOML)")
	flag.Parse()
	setTraceLevel("Error") // will set the correct level later
	pterm.Info.Println("Welcome to the OpenType repacker CLI")
	//
	// set up REPL
	repl, err := readline.New("otpack > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl, cfg: repack.DefaultConfig()}
	if *configfile != "" {
		if intp.cfg, err = repack.LoadConfig(*configfile); err != nil {
			tracer().Errorf(err.Error())
			os.Exit(4)
		}
	}
	if *graphfile != "" {
		if err := intp.loadFixture(*graphfile, ""); err != nil {
			tracer().Errorf(err.Error())
			os.Exit(4)
		}
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D")
	if !setTraceLevel(*tlevel) {
		tracer().Errorf("Invalid trace level: %s", *tlevel)
		os.Exit(5)
	}
	tracer().Infof("Trace level is %s", *tlevel)
	intp.REPL() // go into interactive mode
}

// setTraceLevel sets the level of all trace keys. It returns false for an
// unknown level.
func setTraceLevel(level string) bool {
	for _, key := range traceKeys {
		t := tracing.Select(key)
		switch level {
		case "Debug":
			t.SetTraceLevel(tracing.LevelDebug)
		case "Info":
			t.SetTraceLevel(tracing.LevelInfo)
		case "Error":
			t.SetTraceLevel(tracing.LevelError)
		default:
			return false
		}
	}
	return true
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	repl   *readline.Instance
	cfg    repack.Config
	source graph.ObjectSource
	table  ot.Tag
	name   func(int) string // vertex names of the loaded source
	g      *graph.Graph
	font   *fontload.ScalableFont
}

func (intp *Intp) String() string {
	if intp == nil || intp.g == nil {
		return "()"
	}
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("( table=%s vertices=%d size=%d", intp.table, intp.g.Len(), intp.g.TotalSize()))
	if intp.g.InError() {
		sb.WriteString(fmt.Sprintf(" error=%q", intp.g.Errors().Error()))
	}
	sb.WriteString(" )")
	return sb.String()
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd, err := intp.parseCommand(line)
		if err != nil {
			tracer().Errorf(err.Error())
			continue
		}
		err, quit := intp.execute(cmd)
		if err != nil {
			tracer().Errorf(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

type Op struct {
	code   int
	arg    string
	format string
}

type Command struct {
	count int
	op    [32]Op
}

const NOOP = -1
const (
	// op-code QUIT will not have arguments
	QUIT int = iota
	// op-codes below may have arguments
	HELP
	LOAD
	GENERATE
	CONFIG
	DIST
	SORT
	ORDER
	OVERFLOWS
	RAISE
	SPLIT
	REPACK
	DOT
	SVG
	FONT
	LOOKUPS
)

var opMap = map[string]int{
	"quit":      QUIT,
	"help":      HELP,
	"load":      LOAD,
	"gen":       GENERATE,
	"config":    CONFIG,
	"dist":      DIST,
	"sort":      SORT,
	"order":     ORDER,
	"overflows": OVERFLOWS,
	"raise":     RAISE,
	"split":     SPLIT,
	"repack":    REPACK,
	"dot":       DOT,
	"svg":       SVG,
	"font":      FONT,
	"lookups":   LOOKUPS,
}

var opNames = []string{
	"quit",
	"help",
	"load",
	"gen",
	"config",
	"dist",
	"sort",
	"order",
	"overflows",
	"raise",
	"split",
	"repack",
	"dot",
	"svg",
	"font",
	"lookups",
}

var command = Command{}

func resetCommand() {
	command.count = 0
	for i := range command.op {
		command.op[i].code = NOOP
		command.op[i].arg = ""
		command.op[i].format = ""
	}
}

// parseCommand splits line into steps, e.g. "load:complex.toml sort order".
// Every step has the form "op:arg:format".
func (intp *Intp) parseCommand(line string) (*Command, error) {
	resetCommand()
	steps := strings.Fields(line)
	if len(steps) > len(command.op) {
		return nil, fmt.Errorf("too many steps in command: %d", len(steps))
	}
	command.count = len(steps)
	for i, step := range steps {
		c := strings.Split(step, ":")
		code, ok := opMap[strings.ToLower(c[0])]
		if !ok {
			code = HELP
		}
		command.op[i].code = code
		if code == QUIT {
			return &command, nil
		}
		tracer().Debugf("parsed command: %v", c)
		command.op[i].arg = getOptArg(c, 1)
		command.op[i].format = getOptArg(c, 2)
		if command.op[i].arg == "" {
			tracer().Infof("%s", opNames[code])
		} else {
			tracer().Infof("%s: '%s'", opNames[code], command.op[i].arg)
		}
	}
	return &command, nil
}

var commandFn = map[int]func(*Intp, *Op) (error, bool){
	QUIT:      quitOp,
	HELP:      helpOp,
	LOAD:      loadOp,
	GENERATE:  generateOp,
	CONFIG:    configOp,
	DIST:      distOp,
	SORT:      sortOp,
	ORDER:     orderOp,
	OVERFLOWS: overflowsOp,
	RAISE:     raiseOp,
	SPLIT:     splitOp,
	REPACK:    repackOp,
	DOT:       dotOp,
	SVG:       svgOp,
	FONT:      fontOp,
	LOOKUPS:   lookupsOp,
}

func (intp *Intp) execute(cmd *Command) (err error, stop bool) {
	tracer().Debugf("cmd = %v", cmd.op[:cmd.count])
	for _, c := range cmd.op {
		if c.code == NOOP {
			break
		}
		f, ok := commandFn[c.code]
		if !ok {
			pterm.Error.Printf("unknown command code: %d\n", c.code)
			return nil, false
		}
		err, stop = f(intp, &c)
		if err != nil {
			pterm.Error.Println(err)
			return
		}
		if stop {
			return
		}
	}
	return
}

func quitOp(intp *Intp, op *Op) (error, bool) {
	return nil, true
}

// ----------------------------------------------------------------------

var ErrNoGraph = errors.New("no graph loaded")
var ErrNoFont = errors.New("no font loaded")

func (intp *Intp) checkGraph() error {
	if intp.g == nil {
		return ErrNoGraph
	}
	return nil
}

func (intp *Intp) vertexName(idx graph.ObjIdx) string {
	if intp.name == nil {
		return fmt.Sprintf("#%d", idx)
	}
	return intp.name(int(idx))
}

func getOptArg(s []string, inx int) string {
	if len(s) > inx {
		return s[inx]
	}
	return ""
}

func (op *Op) noArg() bool {
	return op.arg == ""
}

func (op *Op) hasArg() (string, bool) {
	if op.arg == "" {
		return "", false
	}
	return op.arg, true
}
