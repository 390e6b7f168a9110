// Package cli parses agrivoice command lines.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandServe      Command = "serve"
	CommandMic        Command = "mic"
	CommandStop       Command = "stop"
	CommandLang       Command = "lang"
	CommandSet        Command = "set"
	CommandForm       Command = "form"
	CommandSubmit     Command = "submit"
	CommandFertilizer Command = "fertilizer"
	CommandAsk        Command = "ask"
	CommandPlay       Command = "play"
	CommandMessages   Command = "messages"
	CommandStatus     Command = "status"
	CommandNormalize  Command = "normalize"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

// arity bounds the positional arguments of each command; max < 0 is unbounded.
type arity struct {
	min   int
	max   int
	usage string
}

var validCommands = map[Command]arity{
	CommandServe:      {0, 0, ""},
	CommandMic:        {1, 1, "<field|chat>"},
	CommandStop:       {0, 0, ""},
	CommandLang:       {1, 1, "<en|te>"},
	CommandSet:        {1, -1, "<field> [value...]"},
	CommandForm:       {0, 1, "[crop|fertilizer]"},
	CommandSubmit:     {0, 0, ""},
	CommandFertilizer: {0, 0, ""},
	CommandAsk:        {1, -1, "<text...>"},
	CommandPlay:       {1, 1, "<index>"},
	CommandMessages:   {0, 0, ""},
	CommandStatus:     {0, 0, ""},
	CommandNormalize:  {1, -1, "[--lang L] <text...>"},
	CommandDevices:    {0, 0, ""},
	CommandDoctor:     {0, 0, ""},
	CommandVersion:    {0, 0, ""},
	CommandHelp:       {0, 0, ""},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	// Lang overrides the configured language for normalize.
	Lang     string
	ShowHelp bool
}

// Forwarded reports whether the command is answered by the serving process.
func (c Command) Forwarded() bool {
	switch c {
	case CommandMic, CommandStop, CommandLang, CommandSet, CommandForm, CommandSubmit,
		CommandFertilizer, CommandAsk, CommandPlay, CommandMessages, CommandStatus:
		return true
	default:
		return false
	}
}

// Parse reads global flags up to the command name; everything after the
// command belongs to it.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			rest, err := parseCommandArgs(cmd, args[i+1:], &parsed)
			if err != nil {
				return Parsed{}, err
			}
			parsed.Args = rest
			return parsed, nil
		}
	}

	return parsed, nil
}

func parseCommandArgs(cmd Command, args []string, parsed *Parsed) ([]string, error) {
	if cmd == CommandNormalize && len(args) > 0 && args[0] == "--lang" {
		if len(args) < 2 {
			return nil, errors.New("--lang requires a language code")
		}
		parsed.Lang = args[1]
		args = args[2:]
	}

	bounds := validCommands[cmd]
	switch {
	case bounds.max == 0 && len(args) > 0:
		return nil, fmt.Errorf("unexpected arguments after command %q", cmd)
	case len(args) < bounds.min:
		return nil, fmt.Errorf("usage: %s %s", cmd, bounds.usage)
	case bounds.max > 0 && len(args) > bounds.max:
		return nil, fmt.Errorf("too many arguments; usage: %s %s", cmd, bounds.usage)
	}
	if len(args) == 0 {
		return nil, nil
	}
	return append([]string(nil), args...), nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [args]

Commands:
  serve                    Own the forms, chat and microphone until interrupted
  mic <field|chat>         Start voice input for a field or the chat; again to stop
  stop                     Stop active voice input
  lang <en|te>             Switch the interface language
  set <field> [value...]   Type into a form field (fertilizer.<name> for the fertilizer form)
  form [crop|fertilizer]   Print form values
  submit                   Request a crop recommendation
  fertilizer               Request a fertilizer prediction
  ask <text...>            Send a chat message to the assistant
  play <index>             Toggle audio playback of a chat reply
  messages                 Print the chat history
  status                   Print voice input state
  normalize [--lang L] <text...>
                           Print the number a spoken phrase resolves to
  devices                  List available input devices
  doctor                   Run configuration and environment checks
  version                  Print version information
  help                     Show this help

Flags:
  --config PATH   Config file path (default: $AGRIVOICE_CONFIG, then $XDG_CONFIG_HOME/agrivoice/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
