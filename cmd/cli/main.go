package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/oarkflow/json"
	"github.com/oarkflow/log"
	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"

	"github.com/oarkflow/rustscript"
	"github.com/oarkflow/rustscript/pkg/config"
)

const (
	version    = "0.1.0"
	promptMain = ">> "
	promptCont = ".. "
	helpText   = `REPL commands:
  :help           show this help
  :quit           exit the REPL
  :reset          discard every binding
  :load <file>    evaluate a file into the session
  :env            list global bindings
  :parse <expr>   show how an expression parses`
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "rsc",
		Usage: "RustScript interpreter",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a configuration file (YAML, JSON, or BCL)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Evaluate script files in order, each in a fresh environment",
				ArgsUsage: "<file>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the value of every top-level statement as JSON",
					},
				},
				Action: runFiles,
			},
			{
				Name:   "repl",
				Usage:  "Start an interactive session",
				Action: runREPL,
			},
			{
				Name:      "lint",
				Usage:     "Check script files for syntax errors without running them",
				ArgsUsage: "<file>...",
				Action:    lintFiles,
			},
			{
				Name:  "version",
				Usage: "Print the version",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, "rsc", version)
					return nil
				},
			},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() > 0 {
				return runFiles(c)
			}
			return runREPL(c)
		},
	}
}

var logger = &log.DefaultLogger

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return &config.Config{}, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Error().Str("path", path).Err(err).Msg("cannot load config")
		return nil, err
	}
	return cfg, nil
}

func newInterpreter(c *cli.Context) (*rustscript.Interpreter, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	opts := append(cfg.Options(), rustscript.WithStdout(c.App.Writer), rustscript.WithLogger(logger))
	in, err := rustscript.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return in, cfg, nil
}

type fileResult struct {
	File   string   `json:"file"`
	Values []string `json:"values"`
	Error  string   `json:"error,omitempty"`
	Code   string   `json:"code,omitempty"`
}

func runFiles(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return cli.Exit("usage: rsc run <file>...", 2)
	}
	in, _, err := newInterpreter(c)
	if err != nil {
		return err
	}
	asJSON := c.Bool("json")
	var results []fileResult
	var failed error
	for i, file := range c.Args().Slice() {
		if err := checkFile(file); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		if i > 0 {
			if err := in.Reset(); err != nil {
				return err
			}
		}
		values, err := in.EvaluateFile(file)
		res := fileResult{File: file, Values: make([]string, len(values))}
		for i, v := range values {
			res.Values[i] = v.String()
		}
		if err != nil {
			res.Error = err.Error()
			res.Code = string(rustscript.CodeOf(err))
			failed = err
			logger.Error().Str("file", file).Str("code", res.Code).Msg("script failed")
		}
		results = append(results, res)
		if err != nil && !asJSON {
			src, _ := os.ReadFile(file)
			fmt.Fprintf(c.App.Writer, "%s: %s\n", file, rustscript.FormatError(err, string(src)))
		}
	}
	if asJSON {
		data, err := json.Marshal(results)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, string(data))
	}
	if failed != nil {
		return cli.Exit("", 1)
	}
	return nil
}

func lintFiles(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return cli.Exit("usage: rsc lint <file>...", 2)
	}
	w := c.App.Writer
	fmt.Fprintf(w, "Linting %d file(s)...\n", len(files))
	failed := 0
	for _, file := range files {
		if err := checkFile(file); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		src, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if _, err := rustscript.ParseExprs(string(src)); err != nil {
			fmt.Fprintf(w, "Syntax error in '%s':\n  %s\n", file, rustscript.FormatError(err, string(src)))
			failed++
		}
	}
	fmt.Fprintf(w, "%d of %d file(s) passed.\n", len(files)-failed, len(files))
	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func checkFile(file string) error {
	info, err := os.Stat(file)
	switch {
	case err != nil && os.IsNotExist(err):
		return fmt.Errorf("file '%s' does not exist", file)
	case err != nil:
		return err
	case info.IsDir():
		return fmt.Errorf("file '%s' is a directory", file)
	}
	return nil
}

func runREPL(c *cli.Context) error {
	in, cfg, err := newInterpreter(c)
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintln(w, "RustScript", version, "- type :help for commands, Ctrl+D to exit")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetWordCompleter(func(line string, pos int) (string, []string, string) {
		return completeWord(in, line, pos)
	})

	history := cfg.History()
	if history != "" {
		if f, err := os.Open(history); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	for {
		code, ok := readStatement(ln)
		if !ok {
			fmt.Fprintln(w)
			break
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			if replCommand(in, w, code) {
				break
			}
			continue
		}
		values, err := in.EvaluateAll(code, in.Global())
		printValues(w, values)
		if err != nil {
			fmt.Fprintln(w, rustscript.FormatError(err, code))
		}
	}

	if history != "" {
		if f, err := os.Create(history); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}
	return nil
}

// readStatement reads lines until the buffer parses or fails for a reason
// other than running out of input.
func readStatement(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
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
		if _, err := rustscript.ParseExprs(src); err != nil && rustscript.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}

// completeWord offers global bindings and builtins matching the identifier
// under the cursor. pos counts runes, as liner reports it.
func completeWord(in *rustscript.Interpreter, line string, pos int) (string, []string, string) {
	runes := []rune(line)
	if pos > len(runes) {
		pos = len(runes)
	}
	start := pos
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	prefix := string(runes[start:pos])
	if prefix == "" {
		return line, nil, ""
	}
	seen := make(map[string]bool)
	var out []string
	for _, name := range append(in.Global().Names(), rustscript.FunctionNames()...) {
		if strings.HasPrefix(name, prefix) && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return string(runes[:start]), out, string(runes[pos:])
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func printValues(w io.Writer, values []rustscript.Value) {
	for _, v := range values {
		if _, ok := v.(rustscript.Unit); ok {
			continue
		}
		fmt.Fprintln(w, v.String())
	}
}

func replCommand(in *rustscript.Interpreter, w io.Writer, line string) (exit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":exit", ":q":
		return true
	case ":help":
		fmt.Fprintln(w, helpText)
	case ":reset":
		if err := in.Reset(); err != nil {
			fmt.Fprintln(w, err)
		}
	case ":env":
		fmt.Fprintln(w, strings.Join(in.Global().Names(), " "))
	case ":load":
		if len(fields) < 2 {
			fmt.Fprintln(w, "usage: :load <file>")
			return false
		}
		path := filepath.Clean(fields[1])
		values, err := in.EvaluateFile(path)
		printValues(w, values)
		if err != nil {
			src, _ := os.ReadFile(path)
			fmt.Fprintln(w, rustscript.FormatError(err, string(src)))
		}
	case ":parse":
		src := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), ":parse"))
		exprs, err := rustscript.ParseExprs(src)
		if err != nil {
			fmt.Fprintln(w, rustscript.FormatError(err, src))
			return false
		}
		for _, e := range exprs {
			fmt.Fprintln(w, e.String())
		}
	default:
		fmt.Fprintf(w, "unknown command %s, try :help\n", fields[0])
	}
	return false
}
