package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: brochure <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  capture    Render, stamp and sync every entry of an input list")
	fmt.Fprintln(w, "  stamp      Apply the mark to existing PDFs")
	fmt.Fprintln(w, "  status     Show the latest recorded outcome per artifact")
	fmt.Fprintln(w, "  doctor     Check Chrome, inputs and credentials")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'brochure help <command>' for details on a specific command.")
}

// printCaptureUsage prints usage for the capture command.
func printCaptureUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: brochure capture [input] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render each listed page to PDF, stamp the mark, store it locally and")
	fmt.Fprintln(w, "upload it to the remote bucket. Existing artifacts are not re-rendered")
	fmt.Fprintln(w, "but are still synced.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    JSON or YAML identifier list (default: input.path)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Artifact directory")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -f, --force               Re-render artifacts that already exist")
	fmt.Fprintln(w, "      --json                Print outcomes as JSON")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --base-url <url>      Site the addresses resolve against")
	fmt.Fprintln(w, "  -p, --page-format <s>     Page format: a4, letter, legal, continuous")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-page navigation timeout (e.g. 60s)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel browser sessions (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <name|path>   Print stylesheet (default: capture)")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom styles directory")
	fmt.Fprintln(w, "      --no-style            Disable stylesheet injection")
	fmt.Fprintln(w, "      --script <path>       JavaScript run on each page before printing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Mark:")
	fmt.Fprintln(w, "  -m, --mark <path>         Mark image (PNG or JPEG)")
	fmt.Fprintln(w, "      --corner <s>          bottom-right, bottom-left, top-right, top-left")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Remote and history:")
	fmt.Fprintln(w, "      --bucket <name>       Remote bucket")
	fmt.Fprintln(w, "      --ledger <path>       Outcome history database")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed progress")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Credentials come from SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY,")
	fmt.Fprintln(w, "or from .env.local. Without them, sync is skipped.")
}

// printStampUsage prints usage for the stamp command.
func printStampUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: brochure stamp [file|dir ...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Apply the mark to every page of existing PDFs, in place.")
	fmt.Fprintln(w, "Directories are walked recursively. Without arguments, the artifacts")
	fmt.Fprintln(w, "stored in output.dir are stamped.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -m, --mark <path>         Mark image (PNG or JPEG)")
	fmt.Fprintln(w, "      --corner <s>          bottom-right, bottom-left, top-right, top-left")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             List each stamped file")
}

// printStatusUsage prints usage for the status command.
func printStatusUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: brochure status [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show the latest recorded outcome of every artifact key.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --ledger <path>       Outcome history database")
	fmt.Fprintln(w, "      --json                Print rows as JSON")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: brochure doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that a capture run can start: Chrome, output directory,")
	fmt.Fprintln(w, "input list, mark image and remote credentials.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --json                Print results as JSON")
}

// runHelp prints help for a specific command.
// Returns ExitUsage for an unknown command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "capture":
		printCaptureUsage(env.Stdout)
	case "stamp":
		printStampUsage(env.Stdout)
	case "status":
		printStatusUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: brochure version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: brochure help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
