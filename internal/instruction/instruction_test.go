package instruction

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestArgumentString(t *testing.T) {
	index := &Var{Scope: Local, Elem: ElemNumber, Offset: 8}

	tests := []struct {
		name string
		arg  Argument
		want string
	}{
		{name: "int8", arg: &Number{Width: Int8, Int: -3}, want: "-3i8"},
		{name: "int16", arg: &Number{Width: Int16, Int: 300}, want: "300i16"},
		{name: "int32", arg: &Number{Width: Int32, Int: 70000}, want: "70000i32"},
		{name: "float", arg: &Number{Width: Float, Float: 1.5}, want: "0x1.800000p+0f"},
		{name: "negative float", arg: &Number{Width: Float, Float: -0.25}, want: "-0x1.000000p-2f"},
		{name: "zero float", arg: &Number{Width: Float}, want: "0x0.000000p+0f"},
		{name: "global label", arg: &LabelRef{Scope: Global, Name: "MAIN_LOOP"}, want: "@MAIN_LOOP"},
		{name: "local label", arg: &LabelRef{Scope: Local, Name: "LOOP"}, want: "%LOOP"},
		{name: "text label", arg: &Text{Kind: TextLabel8, Value: "INTRO"}, want: "'INTRO'"},
		{name: "text label 16", arg: &Text{Kind: TextLabel16, Value: "LONG NAME"}, want: "v'LONG NAME'"},
		{name: "string", arg: &Text{Kind: String, Value: "hello world"}, want: `"hello world"`},
		{name: "buffer", arg: &Text{Kind: Buffer128, Value: "raw"}, want: `b"raw"`},
		{name: "global var", arg: &Var{Scope: Global, Elem: ElemNumber, Offset: 24}, want: "&24"},
		{name: "global text var", arg: &Var{Scope: Global, Elem: ElemLabel8, Offset: 40}, want: "s&40"},
		{name: "global text16 var", arg: &Var{Scope: Global, Elem: ElemLabel16, Offset: 48}, want: "v&48"},
		{name: "local var", arg: &Var{Scope: Local, Elem: ElemNumber, Offset: 12}, want: "3@"},
		{name: "local text var", arg: &Var{Scope: Local, Elem: ElemLabel8, Offset: 16}, want: "4@s"},
		{
			name: "array",
			arg:  &ArrayAccess{Base: Var{Scope: Global, Offset: 100}, Index: index, Count: 8, Elem: ArrayInt},
			want: "&100(2@,8i)",
		},
		{
			name: "text array",
			arg:  &ArrayAccess{Base: Var{Scope: Local, Elem: ElemLabel8, Offset: 4}, Index: index, Count: 3, Elem: ArrayLabel8},
			want: "1@s(2@,3s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.arg.String())
		})
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		name string
		ins  Instruction
		want string
	}{
		{name: "label", ins: &Label{Name: "MAIN"}, want: "MAIN:"},
		{name: "raw bytes", ins: &RawBytes{Bytes: []byte{0x01, 0xff, 0x80}}, want: "IR2_HEX 1i8 -1i8 -128i8"},
		{name: "command without args", ins: &Command{Name: "WAIT_FOREVER"}, want: "WAIT_FOREVER"},
		{
			name: "negated command",
			ins: &Command{Not: true, Name: "IS_INT_VAR_EQUAL_TO_NUMBER", Args: []Argument{
				&Var{Scope: Global, Offset: 8},
				&Number{Width: Int8, Int: 1},
			}},
			want: "NOT IS_INT_VAR_EQUAL_TO_NUMBER &8 1i8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ins.String())
		})
	}
}

func TestVar(t *testing.T) {
	v := &Var{Scope: Global, Elem: ElemLabel16, Offset: 32}
	assert.Equal(t, uint32(16), v.Size())
	assert.Equal(t, uint32(8), v.Slot())
	assert.True(t, v.IsText())

	n := &Var{Scope: Local, Elem: ElemNumber, Offset: 4}
	assert.Equal(t, uint32(4), n.Size())
	assert.False(t, n.IsText())
}

func TestIsCommand(t *testing.T) {
	cmd, ok := IsCommand(&Command{Name: "SCRIPT_NAME"}, "SCRIPT_NAME")
	assert.True(t, ok)
	assert.Equal(t, "SCRIPT_NAME", cmd.Name)

	_, ok = IsCommand(&Label{Name: "SCRIPT_NAME"}, "SCRIPT_NAME")
	assert.False(t, ok)
}
