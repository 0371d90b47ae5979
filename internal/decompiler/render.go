package decompiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/retroenv/ir2decomp/internal/address"
	"github.com/retroenv/ir2decomp/internal/catalog"
	"github.com/retroenv/ir2decomp/internal/instruction"
	"github.com/retroenv/ir2decomp/internal/vars"
	"github.com/retroenv/retrogolib/log"
)

// command names with special source forms
const (
	gosubFile                    = "GOSUB_FILE"
	launchMission                = "LAUNCH_MISSION"
	loadAndLaunchMissionInternal = "LOAD_AND_LAUNCH_MISSION_INTERNAL"
	loadAndLaunchMission         = "LOAD_AND_LAUNCH_MISSION"
	registerStreamedInternal     = "REGISTER_STREAMED_SCRIPT_INTERNAL"
	registerStreamed             = "REGISTER_STREAMED_SCRIPT"
	skipCutsceneStartInternal    = "SKIP_CUTSCENE_START_INTERNAL"
	skipCutsceneStart            = "SKIP_CUTSCENE_START"
	terminateThisScript          = "TERMINATE_THIS_SCRIPT"
)

// totalCommands have their argument replaced by 0, the compiler fills in the totals.
var totalCommands = map[string]struct{}{
	"SET_TOTAL_NUMBER_OF_MISSIONS": {},
	"SET_PROGRESS_TOTAL":           {},
	"SET_COLLECTABLE1_TOTAL":       {},
}

// streamCommands take a streamed script index as first argument.
var streamCommands = map[string]struct{}{
	"REGISTER_STREAMED_SCRIPT_INTERNAL":            {},
	"REGISTER_SCRIPT_BRAIN_FOR_CODE_USE":           {},
	"REGISTER_ATTRACTOR_SCRIPT_BRAIN_FOR_CODE_USE": {},
	"STREAM_SCRIPT":                                {},
	"HAS_STREAMED_SCRIPT_LOADED":                   {},
	"MARK_STREAMED_SCRIPT_AS_NO_LONGER_NEEDED":     {},
	"REMOVE_STREAMED_SCRIPT":                       {},
	"REGISTER_STREAMED_SCRIPT":                     {},
	"START_NEW_STREAMED_SCRIPT":                    {},
	"GET_NUMBER_OF_INSTANCES_OF_STREAMED_SCRIPT":   {},
	"ALLOCATE_STREAMED_SCRIPT_TO_RANDOM_PED":       {},
	"ALLOCATE_STREAMED_SCRIPT_TO_OBJECT":           {},
	"REGISTER_OBJECT_SCRIPT_BRAIN_FOR_CODE_USE":    {},
	"ALLOCATE_STREAMED_SCRIPT_TO_PED_GENERATOR":    {},
	"SWITCH_OBJECT_BRAINS":                         {},
}

const (
	timerA = "timera"
	timerB = "timerb"
)

// renderCommand returns the source line of a command.
func (d *Decompiler) renderCommand(cmd *instruction.Command) (string, error) {
	info, ok := d.catalog.Command(cmd.Name)
	if !ok {
		if d.firstOccurrence("command:" + cmd.Name) {
			d.logger.Warn("Command missing from catalog", log.String("command", cmd.Name))
		}
		info = &catalog.Command{Name: cmd.Name}
	}

	if op, ok := d.operators[cmd.Name]; ok {
		if op.infix != "" {
			if line, ok := d.renderExpression(cmd, info, op.infix); ok {
				return line, nil
			}
		} else {
			return d.renderGeneric(cmd, info, op.alternator), nil
		}
	}

	prefix := notPrefix(cmd)
	switch {
	case isTotalCommand(cmd.Name):
		return prefix + cmd.Name + " 0", nil

	case cmd.Name == skipCutsceneStartInternal:
		return prefix + skipCutsceneStart, nil

	case cmd.Name == gosubFile:
		return d.renderGosubFile(cmd, info)

	case cmd.Name == launchMission:
		target, err := d.labelTarget(cmd, 0)
		if err != nil {
			return "", err
		}
		file, err := d.xrefFile(target)
		if err != nil {
			return "", err
		}
		return prefix + launchMission + " " + file, nil

	case cmd.Name == loadAndLaunchMissionInternal:
		file, err := d.indexedXref(cmd, d.bytecode.MissionAddress)
		if err != nil {
			return "", err
		}
		return prefix + loadAndLaunchMission + " " + file, nil

	case isStreamCommand(cmd.Name):
		return d.renderStreamCommand(cmd, info)

	default:
		return prefix + cmd.Name + d.renderArgs(cmd.Args, info, 0), nil
	}
}

// renderExpression returns the infix form of a two operand command. Constant
// variants fall back to the call form if the constant of an enum tagged
// variable can not be resolved to a name.
func (d *Decompiler) renderExpression(cmd *instruction.Command, info *catalog.Command, infix string) (string, bool) {
	if len(cmd.Args) != 2 {
		return "", false
	}

	args, resolved := d.expressionArgs(cmd, info)
	if !resolved {
		return fmt.Sprintf("%s%s %s %s", notPrefix(cmd), cmd.Name, args[0], args[1]), true
	}
	return fmt.Sprintf("%s%s %s %s", notPrefix(cmd), args[0], infix, args[1]), true
}

// renderGeneric renders a command under the name of its alternator.
func (d *Decompiler) renderGeneric(cmd *instruction.Command, info *catalog.Command, alternator string) string {
	if alternator == equalityAlternator && len(cmd.Args) == 2 {
		if _, _, ok := constantOperands(cmd.Name); ok {
			args, resolved := d.expressionArgs(cmd, info)
			name := alternator
			if !resolved {
				name = cmd.Name
			}
			return fmt.Sprintf("%s%s %s %s", notPrefix(cmd), name, args[0], args[1])
		}
	}
	return notPrefix(cmd) + alternator + d.renderArgs(cmd.Args, info, 0)
}

// expressionArgs renders both operands of an expression without enum
// resolution. For constant variants the constant is replaced by the name
// found in the enums of the other operand. It returns false if an enum
// tagged variable is compared with a constant that has no name.
func (d *Decompiler) expressionArgs(cmd *instruction.Command, info *catalog.Command) ([2]string, bool) {
	var args [2]string
	for i := range args {
		slot, _ := info.Arg(i)
		args[i] = d.renderArgument(cmd.Args[i], slot, false, false)
	}

	constIndex, varIndex, ok := constantOperands(cmd.Name)
	if !ok {
		return args, true
	}
	number, ok := cmd.Args[constIndex].(*instruction.Number)
	if !ok || number.IsFloat() {
		return args, true
	}

	var tags []string
	if variable, ok := d.variableInfo(cmd.Args[varIndex]); ok {
		tags = variable.EnumNames()
	}
	if name, ok := d.consts.ForTags(number.Int, tags); ok {
		args[constIndex] = name
		return args, true
	}
	return args, len(tags) == 0
}

func (d *Decompiler) renderGosubFile(cmd *instruction.Command, info *catalog.Command) (string, error) {
	target, err := d.labelTarget(cmd, 1)
	if err != nil {
		return "", err
	}
	file, err := d.xrefFile(target)
	if err != nil {
		return "", err
	}

	slot, _ := info.Arg(0)
	arg := d.renderArgument(cmd.Args[0], slot, true, false)
	return fmt.Sprintf("%s%s %s %s", notPrefix(cmd), gosubFile, arg, file), nil
}

func (d *Decompiler) renderStreamCommand(cmd *instruction.Command, info *catalog.Command) (string, error) {
	file, err := d.indexedXref(cmd, d.bytecode.StreamedAddress)
	if err != nil {
		return "", err
	}

	name := cmd.Name
	if name == registerStreamedInternal {
		name = registerStreamed
	}
	return notPrefix(cmd) + name + " " + file + d.renderArgs(cmd.Args[1:], info, 1), nil
}

// indexedXref returns the file name of the script block whose index is the
// first argument of the command.
func (d *Decompiler) indexedXref(cmd *instruction.Command, blockAddress func(int) address.Address) (string, error) {
	if len(cmd.Args) == 0 {
		return "", fmt.Errorf("%w: %s is missing the script index", ErrMissingXref, cmd.Name)
	}
	number, ok := cmd.Args[0].(*instruction.Number)
	if !ok || number.IsFloat() {
		return "", fmt.Errorf("%w: %s script index is not an integer", ErrMissingXref, cmd.Name)
	}
	return d.xrefFile(blockAddress(int(number.Int)))
}

// renderArgs renders the arguments with a leading space each. The first
// argument has the catalog position first.
func (d *Decompiler) renderArgs(args []instruction.Argument, info *catalog.Command, first int) string {
	buf := &strings.Builder{}
	for i, arg := range args {
		slot, _ := info.Arg(first + i)
		buf.WriteByte(' ')
		buf.WriteString(d.renderArgument(arg, slot, true, false))
	}
	return buf.String()
}

// renderArgument returns the source form of an argument. Integers are
// resolved to enum constant names if enums is set.
func (d *Decompiler) renderArgument(arg instruction.Argument, slot catalog.Arg, enums, noIndex bool) string {
	switch arg := arg.(type) {
	case *instruction.Number:
		if arg.IsFloat() {
			return formatFloat(arg.Float)
		}
		if enums {
			if name, ok := d.consts.Argument(arg.Int, slot); ok {
				return name
			}
		}
		return strconv.FormatInt(int64(arg.Int), 10)

	case *instruction.LabelRef:
		return strings.ToLower(arg.Name)

	case *instruction.Text:
		switch arg.Kind {
		case instruction.Buffer128, instruction.String:
			return strconv.Quote(arg.Value)
		default:
			return strings.ToUpper(arg.Value)
		}

	case *instruction.Var:
		return d.renderVar(arg, slot, noIndex)

	case *instruction.ArrayAccess:
		base := d.renderVar(&arg.Base, slot, true)
		index := d.renderArgument(arg.Index, catalog.Arg{}, false, false)
		return base + "[" + index + "]"

	default:
		return arg.String()
	}
}

// renderVar returns the name of a variable. References into the middle of
// an array are rendered as indexed array access unless noIndex is set.
func (d *Decompiler) renderVar(v *instruction.Var, slot catalog.Arg, noIndex bool) string {
	if v.Scope == instruction.Local && d.timers.Contains(v.Slot()) {
		if int(v.Slot()) == d.options.TimerIndex {
			return timerA
		}
		return timerB
	}

	name := vars.Name(v.Scope, v.Slot())
	if info, ok := d.tableFor(v.Scope).At(v.Offset); ok && info.IsArray() && !noIndex {
		name = fmt.Sprintf("%s[%d]", vars.Name(v.Scope, info.Slot()), info.Index(v.Offset))
	}

	if v.IsText() && slot.AllowConst {
		return "$" + name
	}
	return name
}

// variableInfo returns the inferred description of a variable operand.
func (d *Decompiler) variableInfo(arg instruction.Argument) (*vars.Info, bool) {
	switch arg := arg.(type) {
	case *instruction.Var:
		return d.tableFor(arg.Scope).At(arg.Offset)
	case *instruction.ArrayAccess:
		return d.tableFor(arg.Base.Scope).At(arg.Base.Offset)
	default:
		return nil, false
	}
}

func (d *Decompiler) tableFor(scope instruction.Scope) *vars.Table {
	if scope == instruction.Local {
		return d.locals
	}
	return d.globals
}

// formatFloat prints a float with 6 decimal digits, trimming trailing zeros
// but keeping at least one digit after the point.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

func notPrefix(cmd *instruction.Command) string {
	if cmd.Not {
		return "NOT "
	}
	return ""
}

func isTotalCommand(name string) bool {
	_, ok := totalCommands[name]
	return ok
}

func isStreamCommand(name string) bool {
	_, ok := streamCommands[name]
	return ok
}
