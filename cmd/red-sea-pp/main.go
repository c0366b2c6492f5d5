package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	pp "github.com/jachrispens/red-sea-pp"
)

const (
	appName     = "red-sea-pp"
	historyFile = ".red_sea_pp_history"
	promptMain  = "==> "
	promptCont  = "... "
)

var (
	banner   = fmt.Sprintf("red-sea-pp %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", pp.Version)
	helpText = `
REPL commands:
  :macros  List the currently defined macros
  :quit    Exit the REPL
`
)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
func blue(s string) string  { return "\x1b[94m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "expand":
		os.Exit(cmdExpand(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(pp.Version)
		return
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`red-sea-pp %s (built %s)

Usage:
  %s expand [-D NAME[=VALUE]] <file.c>    Macro-expand a file to stdout.
  %s repl                                 Start the REPL.
  %s version                              Print the compiled version

`, pp.Version, pp.BuildDate, appName, appName, appName)
}

// defineFlags collects repeated -D options.
type defineFlags []string

func (d *defineFlags) String() string { return strings.Join(*d, ",") }

func (d *defineFlags) Set(v string) error {
	*d = append(*d, v)
	return nil
}

// applyDefine records one -D NAME[=VALUE] option; a bare NAME defines it
// as 1, matching cc -D.
func applyDefine(table *pp.Macros, spec string) error {
	name, value := spec, "1"
	if i := strings.IndexByte(spec, '='); i >= 0 {
		name, value = spec[:i], spec[i+1:]
	}
	toks, err := pp.LexText(name)
	if err != nil || len(toks) != 1 || toks[0].Kind != pp.KindIdentifier {
		return fmt.Errorf("-D %s: %q is not a macro name", spec, name)
	}
	body, err := pp.LexText(value)
	if err != nil {
		return fmt.Errorf("-D %s: %v", spec, err)
	}
	table.Define(name, pp.ObjectMacro{Body: body})
	return nil
}

// -----------------------------------------------------------------------------
// expand
// -----------------------------------------------------------------------------

func cmdExpand(args []string) int {
	fs := flag.NewFlagSet("expand", flag.ContinueOnError)
	var defines defineFlags
	fs.Var(&defines, "D", "define NAME[=VALUE] before reading the file (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s expand [-D NAME[=VALUE]] <file.c>\n", appName)
		return 2
	}

	file := fs.Arg(0)
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	table := pp.NewMacros()
	for _, spec := range defines {
		if err := applyDefine(table, spec); err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return 2
		}
	}

	out, err := pp.Preprocess(string(src), table)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(pp.WrapErrorWithName(err, file, string(src)).Error()))
		return 1
	}
	fmt.Print(out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Println()
	}
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(_ []string) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	table := pp.NewMacros()

	for {
		code, ok := readByExpandProbe(ln, table, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		trimmed := strings.TrimSpace(code)
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return 0
			case ":macros":
				names := table.Names()
				if len(names) == 0 {
					fmt.Println("no macros defined")
					continue
				}
				for _, name := range names {
					def, _ := table.Lookup(name)
					fmt.Println(green(pp.FormatDefinition(name, def)))
				}
			default:
				fmt.Print(helpText)
			}
			continue
		}
		if trimmed == "" {
			continue
		}

		out, err := pp.Preprocess(code, table)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(pp.WrapErrorWithSource(err, code).Error()))
			continue
		}
		if out = strings.TrimRight(out, "\n"); out != "" {
			fmt.Println(blue(out))
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	return 0
}

// readByExpandProbe reads lines until the accumulated snippet preprocesses
// without running out of input: an open #if or an invocation still
// collecting arguments keeps the continuation prompt going. The probe runs
// against a scratch copy of the table so half-read snippets leave no
// definitions behind.
func readByExpandProbe(ln *liner.State, table *pp.Macros, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		_, perr := pp.PreprocessTokens(src, table.Clone())
		if perr != nil && pp.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}
