package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/movepicker/board"
	"github.com/domino14/movepicker/config"
	"github.com/domino14/movepicker/history"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errQuit              = errors.New("quit")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

type ShellController struct {
	l   *readline.Instance
	out io.Writer

	config     *config.Config
	gitVersion string

	base *board.Position
	pos  *board.Position
	// played are the moves made since the last position command, used as
	// the counter move and continuation context of the pick command.
	played []playedMove
	tables *history.Tables
}

type playedMove struct {
	piece board.Piece
	move  board.Move
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func newController(cfg *config.Config, gitVersion string, out io.Writer) *ShellController {
	sc := &ShellController{
		out:        out,
		config:     cfg,
		gitVersion: gitVersion,
		base:       board.StartPosition(),
		tables:     history.NewTables(),
	}
	sc.pos = sc.base
	return sc
}

func NewShellController(cfg *config.Config, gitVersion string) *ShellController {
	sc := newController(cfg, gitVersion, os.Stdout)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mmovepicker>\033[0m ",
		HistoryFile:     "/tmp/movepicker_readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stdout()
	return sc
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a line into a command, its positional arguments
// and its -option value pairs. An option may be given more than once.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for i := 1; i < len(fields); i++ {
		if strings.HasPrefix(fields[i], "-") && len(fields[i]) > 1 {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := fields[i][1:]
			options[key] = append(options[key], fields[i+1])
			i++
			continue
		}
		args = append(args, fields[i])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) dispatch(cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "position":
		return sc.position(cmd)
	case "play":
		return sc.play(cmd)
	case "undo":
		return sc.undo(cmd)
	case "show":
		return sc.show(cmd)
	case "moves":
		return sc.moves(cmd)
	case "pick":
		return sc.pick(cmd)
	case "history":
		return sc.history(cmd)
	case "perft":
		return sc.perft(cmd)
	case "bench":
		return sc.bench(cmd)
	case "set":
		return sc.set(cmd)
	case "script":
		return sc.script(cmd)
	case "help":
		return sc.help(cmd)
	case "version":
		return msg(sc.gitVersion), nil
	case "exit", "bye", "quit":
		return nil, errQuit
	}
	return nil, fmt.Errorf("command %q not found; type help for a list", cmd.cmd)
}

// Execute runs a single line. It returns errQuit when the line asks the
// shell to exit, after signalling sig.
func (sc *ShellController) Execute(sig chan os.Signal, line string) error {
	cmd, err := extractFields(line)
	if err == errNoData {
		return nil
	}
	if err != nil {
		sc.showError(err)
		return nil
	}
	log.Debug().Str("cmd", cmd.cmd).Strs("args", cmd.args).Msg("executing")
	resp, err := sc.dispatch(cmd)
	if err == errQuit {
		sig <- syscall.SIGINT
		return err
	}
	if err != nil {
		sc.showError(err)
		return nil
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
	return nil
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		if sc.Execute(sig, strings.TrimSpace(line)) == errQuit {
			break
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

func (sc *ShellController) Cleanup() {
	log.Debug().Msg("cleaning up")
	if sc.l != nil {
		sc.l.Close()
	}
}
