package session

import "strconv"

// Command is the action encoded by an integer terminator line.
type Command int

const (
	// CommandTrim ends the text block; the integer is the trailing-line trim count.
	CommandTrim Command = iota
	// CommandChangeLanguage re-runs the voice preference dialog (0 on the first line).
	CommandChangeLanguage
	// CommandExit ends the session (9 on the first line).
	CommandExit
)

// Control sentinels. Only honored on the first line of a block, where no
// text exists yet for a trim count to apply to. The comparison is on the
// literal line: "09" is a trim count of nine, not an exit.
const (
	controlChangeLanguage = "0"
	controlExit           = "9"
)

// ParseControl interprets a line as an integer terminator. ok is false when
// the line is not a non-negative integer and therefore ordinary text.
// first selects the command overloading for the block's opening line.
func ParseControl(line string, first bool) (cmd Command, count int, ok bool) {
	n, err := strconv.Atoi(line)
	if err != nil || n < 0 {
		return 0, 0, false
	}
	// Reject forms Atoi accepts but users don't type as counts ("+3").
	for i := 0; i < len(line); i++ {
		if line[i] < '0' || line[i] > '9' {
			return 0, 0, false
		}
	}

	if first {
		switch line {
		case controlChangeLanguage:
			return CommandChangeLanguage, 0, true
		case controlExit:
			return CommandExit, 0, true
		}
	}
	return CommandTrim, n, true
}
