package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/domino14/movepicker/board"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string // Available options for this command (e.g., "-depth", "-threads")
	Args    []string // Possible argument values (for non-option arguments)
}

var commandMetadata = map[string]CommandMetadata{
	"position": {
		Args: []string{"startpos", "fen", "moves"},
	},
	"pick": {
		Options: []string{
			"-mode", "-depth", "-threshold", "-tt", "-killers", "-counter",
			"-recapture", "-skipquiets",
		},
	},
	"history": {
		Args: []string{"clear", "fill", "reward"},
	},
	"perft": {
		Options: []string{"-threads", "-seed"},
	},
	"bench": {
		Options: []string{"-depth", "-threads", "-seed", "-runs", "-yaml"},
	},
	"set": {
		Args: []string{
			"debug", "bench-depth", "bench-threads", "bench-seed",
			"probe-threshold", "qsearch-max-ply", "hash-fraction",
		},
	},
	"help": {
		Args: []string{"position", "pick", "history", "bench", "script"},
	},
}

var commandNames = []string{
	"position", "play", "undo", "show", "moves", "pick", "history", "perft",
	"bench", "set", "script", "help", "version", "exit",
}

var boolValues = []string{"true", "false"}
var pickModes = []string{"main", "qsearch", "probe"}

func (c *ShellCompleter) legalMoves() []string {
	return lo.Map(c.sc.pos.LegalMoves(), func(m board.Move, _ int) string {
		return m.String()
	})
}

// Do implements the readline.AutoComplete interface
// It provides context-aware autocomplete based on what's been typed
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		if strings.HasPrefix(lastCompleteField, "-") {
			switch strings.TrimPrefix(lastCompleteField, "-") {
			case "mode":
				completions = pickModes
			case "skipquiets":
				completions = boolValues
			case "tt", "counter":
				completions = c.legalMoves()
			}
		}

		if completions == nil {
			switch {
			case cmdName == "play":
				completions = c.legalMoves()
			case cmdName == "history" && lastCompleteField == "reward":
				completions = c.legalMoves()
			}
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
