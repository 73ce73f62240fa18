package handler

import "strings"

// Command names, matched case-sensitively after the prefix.
const (
	CommandPlay  = "재생"
	CommandSkip  = "스킵"
	CommandQueue = "대기열"
	CommandStop  = "종료"
)

// Command is a prefixed chat command split into its name and arguments.
type Command struct {
	Name string
	Args []string
}

// Query joins the arguments back into the free-text query they came from,
// collapsing runs of whitespace.
func (c Command) Query() string {
	return strings.Join(c.Args, " ")
}

// ParseCommand splits content into a Command. ok is false when content does
// not start with prefix or nothing follows it.
func ParseCommand(content, prefix string) (cmd Command, ok bool) {
	rest, found := strings.CutPrefix(content, prefix)
	if !found {
		return Command{}, false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{Name: fields[0], Args: fields[1:]}, true
}
