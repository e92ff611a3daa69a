package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Command is one verb of the command-line tool.
type Command struct {
	Name        string
	Short       string
	Long        string
	Usage       string
	Run         func(args []string) error
	Subcommands []*Command
	Flags       []*Flag
}

// Flag is a command flag. Value points at the variable to fill: *string,
// *bool, *int, *int64 or *time.Duration.
type Flag struct {
	Name     string
	Short    string
	Usage    string
	Required bool
	Value    any
}

// App is the command-line application.
type App struct {
	Name        string
	Version     string
	Description string
	Commands    []*Command
	GlobalFlags []*Flag

	Out io.Writer
	Err io.Writer
}

func NewApp(name, version, description string) *App {
	return &App{
		Name:        name,
		Version:     version,
		Description: description,
		Commands:    []*Command{},
		GlobalFlags: []*Flag{},
		Out:         os.Stdout,
		Err:         os.Stderr,
	}
}

func (a *App) AddCommand(cmd *Command) {
	a.Commands = append(a.Commands, cmd)
}

func (a *App) AddGlobalFlag(flag *Flag) {
	a.GlobalFlags = append(a.GlobalFlags, flag)
}

// Execute runs the application with the process arguments.
func (a *App) Execute() error {
	return a.Run(os.Args[1:])
}

// Run dispatches args to the matching command.
func (a *App) Run(args []string) error {
	if len(args) == 0 {
		a.printUsage()
		return nil
	}
	switch args[0] {
	case "--version", "-V":
		fmt.Fprintf(a.Out, "%s version %s\n", a.Name, a.Version)
		return nil
	case "--help", "-h":
		a.printUsage()
		return nil
	}

	remaining, err := parseFlags(args, a.GlobalFlags)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		a.printUsage()
		return nil
	}

	cmdName, cmdArgs := remaining[0], remaining[1:]
	cmd := a.find(cmdName)
	if cmd == nil {
		fmt.Fprintf(a.Err, "Unknown command: %s\n\n", cmdName)
		a.printUsage()
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	if len(cmdArgs) > 0 && (cmdArgs[0] == "--help" || cmdArgs[0] == "-h") {
		cmd.PrintUsage(a.Out)
		return nil
	}

	if len(cmdArgs) > 0 && len(cmd.Subcommands) > 0 && cmdArgs[0][0] != '-' {
		for _, sub := range cmd.Subcommands {
			if sub.Name == cmdArgs[0] {
				subArgs, err := parseFlags(cmdArgs[1:], sub.Flags)
				if err != nil {
					return err
				}
				if sub.Run == nil {
					return fmt.Errorf("subcommand %s has no run function", sub.Name)
				}
				return sub.Run(subArgs)
			}
		}
	}

	if len(cmd.Subcommands) > 0 && cmd.Run == nil {
		cmd.PrintUsage(a.Out)
		return nil
	}

	finalArgs, err := parseFlags(cmdArgs, cmd.Flags)
	if err != nil {
		return err
	}
	if cmd.Run == nil {
		return fmt.Errorf("command %s has no run function", cmdName)
	}
	return cmd.Run(finalArgs)
}

func (a *App) find(name string) *Command {
	for _, c := range a.Commands {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// parseFlags fills the known flags and returns the other arguments. Flags
// may appear anywhere; "--" ends flag parsing.
func parseFlags(args []string, flags []*Flag) ([]string, error) {
	seen := make(map[string]bool)
	remaining := []string{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			remaining = append(remaining, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			remaining = append(remaining, arg)
			continue
		}
		name := arg[1:]
		if arg[1] == '-' {
			name = arg[2:]
		}
		var inline *string
		for j := 0; j < len(name); j++ {
			if name[j] == '=' {
				v := name[j+1:]
				inline = &v
				name = name[:j]
				break
			}
		}

		flag := lookup(flags, name)
		if flag == nil {
			remaining = append(remaining, arg)
			continue
		}
		seen[flag.Name] = true

		_, isBool := flag.Value.(*bool)
		switch {
		case inline != nil:
			if err := setFlagValue(flag, *inline); err != nil {
				return nil, err
			}
		case isBool:
			if err := setFlagValue(flag, "true"); err != nil {
				return nil, err
			}
		case i+1 < len(args):
			i++
			if err := setFlagValue(flag, args[i]); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("flag --%s needs a value", flag.Name)
		}
	}

	for _, flag := range flags {
		if flag.Required && !seen[flag.Name] {
			return nil, fmt.Errorf("flag --%s is required", flag.Name)
		}
	}
	return remaining, nil
}

func lookup(flags []*Flag, name string) *Flag {
	for _, f := range flags {
		if f.Name == name || (f.Short != "" && f.Short == name) {
			return f
		}
	}
	return nil
}

func setFlagValue(flag *Flag, value string) error {
	var err error
	switch v := flag.Value.(type) {
	case *string:
		*v = value
	case *bool:
		*v, err = strconv.ParseBool(value)
	case *int:
		*v, err = strconv.Atoi(value)
	case *int64:
		*v, err = strconv.ParseInt(value, 10, 64)
	case *time.Duration:
		*v, err = time.ParseDuration(value)
	default:
		return fmt.Errorf("flag --%s has unsupported type %T", flag.Name, flag.Value)
	}
	if err != nil {
		return fmt.Errorf("flag --%s: invalid value %q", flag.Name, value)
	}
	return nil
}

func (a *App) printUsage() {
	fmt.Fprintf(a.Out, "%s - %s\n\n", a.Name, a.Description)
	fmt.Fprintf(a.Out, "Usage:\n  %s [flags] [command] [arguments]\n\n", a.Name)

	if len(a.Commands) > 0 {
		fmt.Fprintln(a.Out, "Commands:")
		for _, cmd := range a.Commands {
			fmt.Fprintf(a.Out, "  %-15s %s\n", cmd.Name, cmd.Short)
		}
		fmt.Fprintln(a.Out)
	}

	if len(a.GlobalFlags) > 0 {
		fmt.Fprintln(a.Out, "Global Flags:")
		printFlags(a.Out, a.GlobalFlags)
		fmt.Fprintln(a.Out)
	}

	fmt.Fprintf(a.Out, "Use '%s [command] --help' for more information about a command.\n", a.Name)
}

// PrintUsage writes the help text of cmd to w.
func (cmd *Command) PrintUsage(w io.Writer) {
	if cmd.Long != "" {
		fmt.Fprintln(w, cmd.Long)
		fmt.Fprintln(w)
	}

	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name
	}
	fmt.Fprintf(w, "Usage:\n  %s\n\n", usage)

	if len(cmd.Flags) > 0 {
		fmt.Fprintln(w, "Flags:")
		printFlags(w, cmd.Flags)
		fmt.Fprintln(w)
	}

	if len(cmd.Subcommands) > 0 {
		fmt.Fprintln(w, "Subcommands:")
		for _, sub := range cmd.Subcommands {
			fmt.Fprintf(w, "  %-15s %s\n", sub.Name, sub.Short)
		}
		fmt.Fprintln(w)
	}
}

func printFlags(w io.Writer, flags []*Flag) {
	for _, flag := range flags {
		short := ""
		if flag.Short != "" {
			short = fmt.Sprintf("-%s, ", flag.Short)
		}
		required := ""
		if flag.Required {
			required = " (required)"
		}
		fmt.Fprintf(w, "  %s--%s\t%s%s\n", short, flag.Name, flag.Usage, required)
	}
}
