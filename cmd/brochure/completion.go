package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagFloat
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --output
	Short    string   // -o (empty if none)
	Type     flagType // completion type
	Desc     string   // help text
	Values   []string // for enum flags
	FileGlob string   // for file flags
}

// commandDef describes a command for completion.
type commandDef struct {
	Name       string
	Desc       string
	Flags      []flagDef
	Args       []string // fixed positional values, e.g. shell names
	TakesFiles bool     // accepts file arguments
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types, and descriptions come from the FlagSet.
type completionMeta struct {
	Values   []string // enum values
	FileGlob string   // file glob pattern
	IsDir    bool     // directory completion
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	// Enum flags
	"page-format": {Values: []string{"a4", "letter", "legal", "continuous"}},
	"corner":      {Values: []string{"bottom-right", "bottom-left", "top-right", "top-left"}},

	// File flags with glob patterns
	"config": {FileGlob: "*.yaml,*.yml"},
	"style":  {FileGlob: "*.css"},
	"script": {FileGlob: "*.js"},
	"mark":   {FileGlob: "*.png,*.jpg,*.jpeg"},
	"ledger": {FileGlob: "*.db,*.sqlite"},

	// Directory flags
	"output":     {IsDir: true},
	"asset-path": {IsDir: true},
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
// Enriches with completion metadata from flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
			fd.Type = flagInt
		case "float32", "float64":
			fd.Type = flagFloat
		default:
			fd.Type = flagString
		}

		if meta, ok := flagCompletionMeta[f.Name]; ok {
			if len(meta.Values) > 0 {
				fd.Type = flagEnum
				fd.Values = meta.Values
			} else if meta.FileGlob != "" {
				fd.Type = flagFile
				fd.FileGlob = meta.FileGlob
			} else if meta.IsDir {
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
// Flags are extracted from the actual FlagSets.
func getCommands() []commandDef {
	return []commandDef{
		{
			Name:       "capture",
			Desc:       "Render, stamp and sync every entry of an input list",
			Flags:      extractFlagsFromFlagSet(newCaptureFlagSet(&captureFlags{})),
			TakesFiles: true,
		},
		{
			Name:       "stamp",
			Desc:       "Apply the mark to existing PDFs",
			Flags:      extractFlagsFromFlagSet(newStampFlagSet(&stampFlags{})),
			TakesFiles: true,
		},
		{
			Name:  "status",
			Desc:  "Show the latest recorded outcome per artifact",
			Flags: extractFlagsFromFlagSet(newStatusFlagSet(&statusFlags{})),
		},
		{
			Name:  "doctor",
			Desc:  "Check Chrome, inputs and credentials",
			Flags: extractFlagsFromFlagSet(newDoctorFlagSet(&doctorFlags{})),
		},
		{
			Name: "completion",
			Desc: "Generate shell completion script",
			Args: []string{string(ShellBash), string(ShellZsh), string(ShellFish)},
		},
		{
			Name: "version",
			Desc: "Show version information",
		},
		{
			Name: "help",
			Desc: "Show help for a command",
			Args: []string{"capture", "stamp", "status", "doctor", "completion", "version"},
		},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	switch shell {
	case ShellBash:
		return generateBash(w)
	case ShellZsh:
		return generateZsh(w)
	case ShellFish:
		return generateFish(w)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: brochure completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(brochure completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (before compinit):")
	fmt.Fprintln(w, "    eval \"$(brochure completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    brochure completion fish > ~/.config/fish/completions/brochure.fish")
}

// ---------------------------------------------------------------------------
// Bash
// ---------------------------------------------------------------------------

func generateBash(w io.Writer) error {
	commands := getCommands()
	var b strings.Builder

	b.WriteString("# bash completion for brochure\n\n")
	b.WriteString("_brochure() {\n")
	b.WriteString("    local cur prev\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", commandNames(commands))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"${COMP_WORDS[1]}\" in\n")

	for _, cmd := range commands {
		fmt.Fprintf(&b, "        %s)\n", cmd.Name)
		if valued := valuedFlags(cmd.Flags); len(valued) > 0 {
			b.WriteString("            case \"$prev\" in\n")
			for _, f := range valued {
				fmt.Fprintf(&b, "                %s)\n", bashFlagPattern(f))
				switch f.Type {
				case flagEnum:
					fmt.Fprintf(&b, "                    COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(f.Values, " "))
				case flagDir:
					b.WriteString("                    COMPREPLY=($(compgen -d -- \"$cur\"))\n")
				case flagFile:
					b.WriteString("                    COMPREPLY=($(compgen -f -- \"$cur\"))\n")
				default:
					b.WriteString("                    COMPREPLY=()\n")
				}
				b.WriteString("                    return\n")
				b.WriteString("                    ;;\n")
			}
			b.WriteString("            esac\n")
		}
		if len(cmd.Flags) > 0 {
			b.WriteString("            if [[ \"$cur\" == -* ]]; then\n")
			fmt.Fprintf(&b, "                COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", flagWords(cmd.Flags))
			b.WriteString("                return\n")
			b.WriteString("            fi\n")
		}
		switch {
		case len(cmd.Args) > 0:
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(cmd.Args, " "))
		case cmd.TakesFiles:
			b.WriteString("            COMPREPLY=($(compgen -f -- \"$cur\"))\n")
		}
		b.WriteString("            ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("complete -F _brochure brochure\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func bashFlagPattern(f flagDef) string {
	if f.Short != "" {
		return "--" + f.Long + "|-" + f.Short
	}
	return "--" + f.Long
}

// ---------------------------------------------------------------------------
// Zsh
// ---------------------------------------------------------------------------

func generateZsh(w io.Writer) error {
	commands := getCommands()
	var b strings.Builder

	b.WriteString("#compdef brochure\n\n")
	b.WriteString("_brochure() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, "        '%s:%s'\n", cmd.Name, zshEscape(cmd.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"${words[2]}\" in\n")

	for _, cmd := range commands {
		fmt.Fprintf(&b, "        %s)\n", cmd.Name)
		b.WriteString("            _arguments")
		for _, f := range cmd.Flags {
			fmt.Fprintf(&b, " \\\n                %s", zshFlagSpec(f))
		}
		switch {
		case len(cmd.Args) > 0:
			fmt.Fprintf(&b, " \\\n                '1:value:(%s)'", strings.Join(cmd.Args, " "))
		case cmd.TakesFiles:
			b.WriteString(" \\\n                '*:file:_files'")
		}
		b.WriteString("\n            ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _brochure brochure\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func zshFlagSpec(f flagDef) string {
	var action string
	switch f.Type {
	case flagBool:
	case flagEnum:
		action = fmt.Sprintf(":%s:(%s)", f.Long, strings.Join(f.Values, " "))
	case flagDir:
		action = fmt.Sprintf(":%s:_files -/", f.Long)
	case flagFile:
		action = fmt.Sprintf(":%s:_files", f.Long)
	default:
		action = fmt.Sprintf(":%s:", f.Long)
	}
	desc := zshEscape(f.Desc)
	if f.Short != "" {
		return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
	}
	return fmt.Sprintf("'--%s[%s]%s'", f.Long, desc, action)
}

func zshEscape(s string) string {
	r := strings.NewReplacer("'", "'\\''", "[", "\\[", "]", "\\]", ":", "\\:")
	return r.Replace(s)
}

// ---------------------------------------------------------------------------
// Fish
// ---------------------------------------------------------------------------

func generateFish(w io.Writer) error {
	commands := getCommands()
	var b strings.Builder

	b.WriteString("# fish completion for brochure\n\n")
	b.WriteString("complete -c brochure -f\n\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, "complete -c brochure -n '__fish_use_subcommand' -a %s -d '%s'\n", cmd.Name, fishEscape(cmd.Desc))
	}

	for _, cmd := range commands {
		b.WriteString("\n")
		cond := fmt.Sprintf("-n '__fish_seen_subcommand_from %s'", cmd.Name)
		for _, f := range cmd.Flags {
			line := "complete -c brochure " + cond
			if f.Short != "" {
				line += " -s " + f.Short
			}
			line += " -l " + f.Long
			switch f.Type {
			case flagBool:
			case flagEnum:
				line += fmt.Sprintf(" -x -a '%s'", strings.Join(f.Values, " "))
			case flagDir:
				line += " -x -a '(__fish_complete_directories)'"
			case flagFile:
				line += " -r -F"
			default:
				line += " -x"
			}
			line += fmt.Sprintf(" -d '%s'", fishEscape(f.Desc))
			b.WriteString(line + "\n")
		}
		switch {
		case len(cmd.Args) > 0:
			fmt.Fprintf(&b, "complete -c brochure %s -a '%s'\n", cond, strings.Join(cmd.Args, " "))
		case cmd.TakesFiles:
			fmt.Fprintf(&b, "complete -c brochure %s -F\n", cond)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func fishEscape(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func commandNames(commands []commandDef) string {
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.Name)
	}
	return strings.Join(names, " ")
}

// valuedFlags returns the flags that take a value.
func valuedFlags(flags []flagDef) []flagDef {
	var out []flagDef
	for _, f := range flags {
		if f.Type != flagBool {
			out = append(out, f)
		}
	}
	return out
}

func flagWords(flags []flagDef) string {
	words := make([]string, 0, len(flags)*2)
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return strings.Join(words, " ")
}
