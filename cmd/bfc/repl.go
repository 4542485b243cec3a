package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"codeberg.org/saruga/bfc/internal/compiler"
	"codeberg.org/saruga/bfc/internal/parser"
)

const (
	historyFile = ".bfc_history"
	promptMain  = "bf> "
	promptCont  = "... "
	replBanner  = "bfc repl. Enter a program to see its optimized tree. :c for C, :tree for trees, :quit to exit."
)

// session holds REPL state between inputs.
type session struct {
	options compiler.Options
	showC   bool
}

// incomplete reports whether src has an open loop, so the REPL should keep
// reading lines.
func incomplete(src string) bool {
	_, err := parser.Parse(src)
	var perr *parser.Error
	return errors.As(err, &perr) && perr.Kind == parser.UnclosedOpen
}

// command handles a ":" line. It returns the text to print and whether the
// session should end.
func (s *session) command(line string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case ":quit", ":q":
		return "", true
	case ":c":
		s.showC = true
		return "showing C output", false
	case ":tree":
		s.showC = false
		return "showing trees", false
	default:
		return "unknown command. Type :c, :tree, or :quit.", false
	}
}

// eval compiles one program and renders the result.
func (s *session) eval(src string) (string, error) {
	opts := s.options
	opts.Emit = compiler.EmitTree
	if s.showC {
		opts.Emit = compiler.EmitC
	}
	opts.GenerateSourceMap = false

	result := compiler.New(opts).Compile(src)
	if err := result.Err(); err != nil {
		return "", err
	}

	var out strings.Builder
	for _, w := range result.Diagnostics.Warnings() {
		fmt.Fprintf(&out, "%s %s\n", warningPrefix, w.Message)
	}
	out.WriteString(result.Code)
	return out.String(), nil
}

// prompter reads one line of input; *liner.State implements it.
type prompter interface {
	Prompt(prompt string) (string, error)
}

// readProgram reads lines until the program has no open loop. It returns
// false once input ends; any other prompt failure is returned as an error.
func readProgram(ln prompter) (string, bool, error) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("reading input: %w", err)
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true, nil
		}
	}
}

func replAction(ctx *cli.Context) error {
	setupLogging(ctx)

	startDir, _ := os.Getwd()
	cfg, _, err := loadConfig(ctx, startDir)
	if err != nil {
		return err
	}
	opts, err := cfg.ToOptions()
	if err != nil {
		return err
	}
	s := &session{options: opts}

	fmt.Println(replBanner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		src, ok, err := readProgram(ln)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println()
			return nil
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			msg, quit := s.command(src)
			if quit {
				return nil
			}
			fmt.Println(msg)
			continue
		}

		out, err := s.eval(src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorPrefix, err)
			continue
		}
		fmt.Print(out)
	}
}
