// Package parser decodes the line oriented IR2 text format into bytecode.
package parser

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/retroenv/ir2decomp/internal/bytecode"
	"github.com/retroenv/ir2decomp/internal/instruction"
)

// ErrSyntax is returned for any line that is not valid IR2.
var ErrSyntax = errors.New("syntax error")

const maxLineLength = 1 << 20

const (
	directiveMissionStart  = "#MISSION_BLOCK_START"
	directiveMissionEnd    = "#MISSION_BLOCK_END"
	directiveStreamedStart = "#STREAMED_BLOCK_START"
	directiveStreamedEnd   = "#STREAMED_BLOCK_END"
	directiveModel         = "#DEFINE_MODEL"
	directiveStream        = "#DEFINE_STREAM"
)

type blockState int

const (
	inMain blockState = iota
	inMission
	inStreamed
	betweenBlocks
)

// Parser holds the state of a running parse.
type Parser struct {
	streams bytecode.Streams
	state   blockState
	current bytecode.Block
}

// Parse reads a complete IR2 dump. Any malformed line aborts the parse.
func Parse(reader io.Reader) (*bytecode.Bytecode, error) {
	p := &Parser{}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if err := p.parseLine(line); err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNumber)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading input")
	}

	if p.state == inMission || p.state == inStreamed {
		return nil, errors.Wrap(ErrSyntax, "unterminated block at end of input")
	}
	if p.state == inMain {
		p.streams.Main = p.current
	}

	b, err := bytecode.New(p.streams)
	if err != nil {
		return nil, errors.Wrap(err, "creating bytecode")
	}
	return b, nil
}

// ParseInstruction decodes a single label or command line.
func ParseInstruction(line string) (instruction.Instruction, error) {
	if name, ok := strings.CutSuffix(line, ":"); ok {
		if name == "" || strings.ContainsRune(name, ' ') {
			return nil, errors.Wrapf(ErrSyntax, "invalid label %q", line)
		}
		return &instruction.Label{Name: name}, nil
	}

	tokens, err := tokenize(line)
	if err != nil {
		return nil, err
	}

	not := len(tokens) > 0 && tokens[0] == "NOT"
	if not {
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		return nil, errors.Wrapf(ErrSyntax, "missing command name in %q", line)
	}

	name := strings.ToUpper(tokens[0])
	args := make([]instruction.Argument, 0, len(tokens)-1)
	for _, token := range tokens[1:] {
		arg, err := ParseArgument(token)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	if name == instruction.RawBytesName {
		return rawBytes(args)
	}

	return &instruction.Command{
		Not:  not,
		Name: name,
		Args: args,
	}, nil
}

func (p *Parser) parseLine(line string) error {
	if line == "" {
		return errors.Wrap(ErrSyntax, "empty line")
	}
	if unicode.IsSpace(rune(line[0])) || unicode.IsSpace(rune(line[len(line)-1])) {
		return errors.Wrap(ErrSyntax, "leading or trailing whitespace")
	}

	if line[0] == '#' {
		return p.parseDirective(line)
	}

	if p.state == betweenBlocks {
		return errors.Wrap(ErrSyntax, "instruction outside of a block")
	}

	ins, err := ParseInstruction(line)
	if err != nil {
		return err
	}
	p.current = append(p.current, ins)
	return nil
}

func (p *Parser) parseDirective(line string) error {
	tokens := strings.Fields(line)

	switch tokens[0] {
	case directiveMissionStart:
		return p.startBlock(tokens, inMission, len(p.streams.Missions))

	case directiveStreamedStart:
		return p.startBlock(tokens, inStreamed, len(p.streams.Streamed))

	case directiveMissionEnd:
		if p.state != inMission || len(tokens) != 1 {
			return errors.Wrapf(ErrSyntax, "unexpected %s", tokens[0])
		}
		p.streams.Missions = append(p.streams.Missions, p.current)
		p.endBlock()

	case directiveStreamedEnd:
		if p.state != inStreamed || len(tokens) != 1 {
			return errors.Wrapf(ErrSyntax, "unexpected %s", tokens[0])
		}
		p.streams.Streamed = append(p.streams.Streamed, p.current)
		p.endBlock()

	case directiveModel:
		if len(tokens) != 2 {
			return errors.Wrapf(ErrSyntax, "%s expects one name", tokens[0])
		}
		p.streams.Models = append(p.streams.Models, tokens[1])

	case directiveStream:
		if len(tokens) != 2 {
			return errors.Wrapf(ErrSyntax, "%s expects one name", tokens[0])
		}
		p.streams.StreamNames = append(p.streams.StreamNames, tokens[1])

	default:
		return errors.Wrapf(ErrSyntax, "unknown directive %q", tokens[0])
	}
	return nil
}

func (p *Parser) startBlock(tokens []string, state blockState, expected int) error {
	if p.state == inMission || p.state == inStreamed {
		return errors.Wrapf(ErrSyntax, "%s inside of an open block", tokens[0])
	}
	if len(tokens) != 2 {
		return errors.Wrapf(ErrSyntax, "%s expects a block index", tokens[0])
	}
	index, err := strconv.Atoi(tokens[1])
	if err != nil || index != expected {
		return errors.Wrapf(ErrSyntax, "%s index %q, expected %d", tokens[0], tokens[1], expected)
	}

	if p.state == inMain {
		p.streams.Main = p.current
	}
	p.state = state
	p.current = bytecode.Block{}
	return nil
}

func (p *Parser) endBlock() {
	p.state = betweenBlocks
	p.current = nil
}

func rawBytes(args []instruction.Argument) (*instruction.RawBytes, error) {
	data := make([]byte, 0, len(args))
	for _, arg := range args {
		number, ok := arg.(*instruction.Number)
		if !ok || number.IsFloat() || number.Int < -128 || number.Int > 255 {
			return nil, errors.Wrapf(ErrSyntax, "invalid %s byte %s", instruction.RawBytesName, arg)
		}
		value := number.Int
		if value < 0 {
			value += 256
		}
		data = append(data, byte(value))
	}
	return &instruction.RawBytes{Bytes: data}, nil
}
