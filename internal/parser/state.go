package parser

import "strconv"

// state is a position in the field automaton.
type state uint8

const (
	stateStart state = iota
	stateUnquotedField
	stateQuotedField
	stateQuoteSeen
)

func (s state) String() string {
	switch s {
	case stateStart:
		return "Start"
	case stateUnquotedField:
		return "UnquotedField"
	case stateQuotedField:
		return "QuotedField"
	case stateQuoteSeen:
		return "QuoteSeen"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}
