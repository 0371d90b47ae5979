package decompiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/retroenv/retrogolib/log"
)

// ErrAlternatorConflict is returned when a command is a member of two
// alternators that lower to different source forms.
var ErrAlternatorConflict = errors.New("alternator conflict")

// operator is the source form of the commands of one alternator.
type operator struct {
	alternator string
	infix      string // infix spelling, empty for generic commands
}

// operatorGroups lists the alternators whose commands render as infix expressions.
var operatorGroups = []operator{
	{"SET", "="},
	{"CSET", "=#"},
	{"ADD_THING_TO_THING", "+="},
	{"SUB_THING_FROM_THING", "-="},
	{"MULT_THING_BY_THING", "*="},
	{"DIV_THING_BY_THING", "/="},
	{"IS_THING_GREATER_THAN_THING", ">"},
	{"IS_THING_GREATER_OR_EQUAL_TO_THING", ">="},
	{"ADD_THING_TO_THING_TIMED", "+=@"},
	{"SUB_THING_FROM_THING_TIMED", "-=@"},
}

// equalityAlternator renders as generic command, its constant variants only
// if the constant resolves to a name.
const equalityAlternator = "IS_THING_EQUAL_TO_THING"

// genericGroups lists the alternators whose commands render under the
// generic alternator name.
var genericGroups = []string{
	equalityAlternator,
	"ABS",
	"IS_BIT_SET",
	"SET_BIT",
	"CLEAR_BIT",
	"IS_EMPTY",
}

// buildOperators maps every command of the lowered alternators to its source form.
func (d *Decompiler) buildOperators() (map[string]operator, error) {
	operators := make(map[string]operator)

	groups := make([]operator, 0, len(operatorGroups)+len(genericGroups))
	groups = append(groups, operatorGroups...)
	for _, name := range genericGroups {
		groups = append(groups, operator{alternator: name})
	}

	for _, group := range groups {
		alt, ok := d.catalog.Alternator(group.alternator)
		if !ok {
			d.logger.Debug("Alternator missing from catalog", log.String("alternator", group.alternator))
			continue
		}

		for _, command := range alt.Alternatives {
			if existing, ok := operators[command]; ok && existing.alternator != group.alternator {
				return nil, fmt.Errorf("%w: command %s is in %s and %s",
					ErrAlternatorConflict, command, existing.alternator, group.alternator)
			}
			operators[command] = group
		}
	}
	return operators, nil
}

// constantOperands returns the operand positions of the constant and the
// variable for commands that compare or assign a constant.
func constantOperands(command string) (int, int, bool) {
	switch {
	case strings.HasSuffix(command, "_CONSTANT"):
		return 1, 0, true
	case strings.HasPrefix(command, "IS_CONSTANT_"):
		return 0, 1, true
	default:
		return 0, 0, false
	}
}
