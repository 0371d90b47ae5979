package parser

import (
	"regexp"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"github.com/retroenv/ir2decomp/internal/instruction"
)

// commandLexer splits a command line into tokens. Quoted literals may contain
// spaces and are kept as single tokens.
var commandLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Buffer", Pattern: `b"[^"]*"`},
	{Name: "TextLabel16", Pattern: `v'[^']*'`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "TextLabel", Pattern: `'[^']*'`},
	{Name: "whitespace", Pattern: `[ ]+`},
	{Name: "Word", Pattern: `[^ ]+`},
})

var (
	reInt8        = regexp.MustCompile(`^(-?[0-9]+)i8$`)
	reInt16       = regexp.MustCompile(`^(-?[0-9]+)i16$`)
	reInt32       = regexp.MustCompile(`^(-?[0-9]+)i32$`)
	reFloat       = regexp.MustCompile(`^(-?0x[01]\.[0-9a-f]{6}p[+-][0-9]+)f$`)
	reGlobalLabel = regexp.MustCompile(`^@([_A-Z][_A-Z0-9]*)$`)
	reLocalLabel  = regexp.MustCompile(`^%([_A-Z][_A-Z0-9]*)$`)
	reGlobalVar   = regexp.MustCompile(`^([sv]?)&([0-9]+)$`)
	reLocalVar    = regexp.MustCompile(`^([0-9]+)@([sv]?)$`)
	reArray       = regexp.MustCompile(`^([sv&@0-9]+)\(([&@0-9]+),([0-9]+)([ifsv])\)$`)
	reTextLabel   = regexp.MustCompile(`^'([\x20-\x7E]*)'$`)
	reTextLabel16 = regexp.MustCompile(`^v'([\x20-\x7E]*)'$`)
	reBuffer128   = regexp.MustCompile(`^b"([\x20-\x7E]*)"$`)
	reString      = regexp.MustCompile(`^"([\x20-\x7E]*)"$`)
)

var numberPatterns = []struct {
	re      *regexp.Regexp
	width   instruction.Width
	bitSize int
}{
	{reInt8, instruction.Int8, 8},
	{reInt16, instruction.Int16, 16},
	{reInt32, instruction.Int32, 32},
}

var textPatterns = []struct {
	re   *regexp.Regexp
	kind instruction.TextKind
}{
	{reTextLabel, instruction.TextLabel8},
	{reTextLabel16, instruction.TextLabel16},
	{reBuffer128, instruction.Buffer128},
	{reString, instruction.String},
}

var varSigils = map[string]instruction.ElemKind{
	"":  instruction.ElemNumber,
	"s": instruction.ElemLabel8,
	"v": instruction.ElemLabel16,
}

var arrayElems = map[string]instruction.ArrayElem{
	"i": instruction.ArrayInt,
	"f": instruction.ArrayFloat,
	"s": instruction.ArrayLabel8,
	"v": instruction.ArrayLabel16,
}

// tokenize splits a command line into its tokens.
func tokenize(line string) ([]string, error) {
	lex, err := commandLexer.LexString("", line)
	if err != nil {
		return nil, errors.Wrap(err, "creating lexer")
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, errors.Wrapf(ErrSyntax, "splitting tokens: %s", err)
	}

	values := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token.EOF() {
			break
		}
		values = append(values, token.Value)
	}
	return values, nil
}

// ParseArgument decodes a single argument token. The patterns are tried in a
// fixed order, a token matching none of them is a syntax error.
func ParseArgument(token string) (instruction.Argument, error) {
	for _, pattern := range numberPatterns {
		m := pattern.re.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		value, err := strconv.ParseInt(m[1], 10, pattern.bitSize)
		if err != nil {
			return nil, errors.Wrapf(ErrSyntax, "number %q out of range", token)
		}
		return &instruction.Number{Width: pattern.width, Int: int32(value)}, nil
	}

	if m := reFloat.FindStringSubmatch(token); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, errors.Wrapf(ErrSyntax, "float %q: %s", token, err)
		}
		return &instruction.Number{Width: instruction.Float, Float: value}, nil
	}

	if m := reGlobalLabel.FindStringSubmatch(token); m != nil {
		return &instruction.LabelRef{Scope: instruction.Global, Name: m[1]}, nil
	}
	if m := reLocalLabel.FindStringSubmatch(token); m != nil {
		return &instruction.LabelRef{Scope: instruction.Local, Name: m[1]}, nil
	}

	v, ok, err := parseVar(token)
	if err != nil {
		return nil, err
	}
	if ok {
		return v, nil
	}

	if m := reArray.FindStringSubmatch(token); m != nil {
		return parseArray(token, m)
	}

	for _, pattern := range textPatterns {
		if m := pattern.re.FindStringSubmatch(token); m != nil {
			return &instruction.Text{Kind: pattern.kind, Value: m[1]}, nil
		}
	}

	return nil, errors.Wrapf(ErrSyntax, "unknown argument token %q", token)
}

func parseVar(token string) (*instruction.Var, bool, error) {
	if m := reGlobalVar.FindStringSubmatch(token); m != nil {
		offset, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			return nil, false, errors.Wrapf(ErrSyntax, "variable offset %q out of range", token)
		}
		return &instruction.Var{
			Scope:  instruction.Global,
			Elem:   varSigils[m[1]],
			Offset: uint32(offset),
		}, true, nil
	}

	if m := reLocalVar.FindStringSubmatch(token); m != nil {
		slot, err := strconv.ParseUint(m[1], 10, 30)
		if err != nil {
			return nil, false, errors.Wrapf(ErrSyntax, "variable slot %q out of range", token)
		}
		return &instruction.Var{
			Scope:  instruction.Local,
			Elem:   varSigils[m[2]],
			Offset: uint32(slot) * instruction.SlotSize,
		}, true, nil
	}

	return nil, false, nil
}

func parseArray(token string, m []string) (*instruction.ArrayAccess, error) {
	base, ok, err := parseVar(m[1])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrSyntax, "array base of %q is not a variable", token)
	}

	index, ok, err := parseVar(m[2])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrSyntax, "array index of %q is not a variable", token)
	}

	count, err := strconv.ParseUint(m[3], 10, 31)
	if err != nil {
		return nil, errors.Wrapf(ErrSyntax, "array size of %q out of range", token)
	}

	return &instruction.ArrayAccess{
		Base:  *base,
		Index: index,
		Count: int(count),
		Elem:  arrayElems[m[4]],
	}, nil
}
