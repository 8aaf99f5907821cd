package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/teness/tessc/internal/diag"
	"github.com/teness/tessc/internal/driver"
	"github.com/teness/tessc/internal/source"
)

const (
	historyFile = ".tessc_history"
	promptMain  = "tss> "
	promptCont  = "...  "
)

const replHelp = `REPL commands:
  :run     Run the session and print what it returned
  :ir      Print the IR of the session
  :source  Print the session source
  :reset   Discard the session
  :quit    Exit the REPL
`

func newReplCmd(f *rootFlags, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:           "repl",
		Short:         "Read statements interactively and print their IR",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDriver(cmd.Flags(), f, stdout, stderr)
			if err != nil {
				return err
			}

			ln := liner.NewLiner()
			defer ln.Close()
			ln.SetCtrlCAborts(true)

			histPath := historyPath()
			if h, err := os.Open(histPath); err == nil {
				_, _ = ln.ReadHistory(h)
				_ = h.Close()
			}
			defer func() {
				if h, err := os.Create(histPath); err == nil {
					_, _ = ln.WriteHistory(h)
					_ = h.Close()
				}
			}()

			fmt.Fprintln(stdout, "TenessScript REPL. Ctrl+D exits, :help lists commands.")
			r := &repl{
				session: d.NewSession(),
				prompt:  ln,
				history: ln.AppendHistory,
				stdout:  stdout,
				stderr:  stderr,
			}
			r.loop(cmd.Context())
			return nil
		},
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}

type prompter interface {
	Prompt(prompt string) (string, error)
}

type repl struct {
	session *driver.Session
	prompt  prompter
	history func(string)
	stdout  io.Writer
	stderr  io.Writer
}

func (r *repl) loop(ctx context.Context) {
	for {
		code, ok := r.read()
		if !ok {
			fmt.Fprintln(r.stdout)
			return
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if !r.command(ctx, strings.ToLower(trimmed)) {
				return
			}
			continue
		}

		u, err := r.session.Add(code)
		if err != nil {
			renderError(r.stderr, err, r.session.File(code))
			continue
		}
		if r.history != nil {
			r.history(strings.ReplaceAll(code, "\n", " "))
		}
		fmt.Fprint(r.stdout, u.Module.String())
	}
}

// command runs a REPL command and reports whether to keep reading.
func (r *repl) command(ctx context.Context, cmd string) bool {
	switch cmd {
	case ":quit", ":q":
		return false
	case ":help":
		fmt.Fprint(r.stdout, replHelp)
	case ":reset":
		r.session.Reset()
	case ":source":
		fmt.Fprintln(r.stdout, r.session.Source())
	case ":ir":
		if u := r.session.Unit(); u != nil {
			fmt.Fprint(r.stdout, u.Module.String())
		}
	case ":run":
		code, err := r.session.Run(ctx)
		if err != nil {
			renderError(r.stderr, err, source.NewFile(driver.SessionFile, r.session.Source()))
			break
		}
		printResult(r.stdout, code)
	default:
		fmt.Fprintf(r.stdout, "unknown command %s, type :help\n", cmd)
	}
	return true
}

// read collects lines until they parse or fail for a reason other than
// running out of input.
func (r *repl) read() (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := r.prompt.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		code := b.String()
		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			return code, true
		}
		if err := r.session.Check(code); err != nil && diag.IsIncomplete(err) {
			continue
		}
		return code, true
	}
}
