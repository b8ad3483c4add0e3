package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nickandperla.net/yane/pkg/yane"
)

func (a *app) replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Evaluate directives interactively",
		Long: `Repl reads directive code (without the marker) line by line and prints
the value of each line. A line ending in a backslash continues on the next
line. Buffers with a target are written when the input ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			rt := yane.New(a.options(out)...)
			defer rt.Close()
			s, err := rt.NewSession()
			if err != nil {
				return err
			}

			interactive := false
			if f, ok := a.stdin.(*os.File); ok {
				interactive = isTerminal(f)
			}
			if interactive {
				printBanner(out)
			}
			runREPL(s, a.stdin, out, interactive)

			flushed, err := s.Flush()
			for _, path := range flushed {
				fmt.Fprintf(out, "wrote %s\n", path)
			}
			return err
		},
	}
}

func printBanner(out io.Writer) {
	fmt.Fprintln(out, "yane REPL (Ctrl+D to exit)")
	fmt.Fprintln(out, "Enter directives without the marker, e.g. (let x 'a') (get x)")
	fmt.Fprintln(out)
}

// runREPL evaluates one input per line until in is exhausted. Errors are
// reported and the session continues.
func runREPL(s *yane.Session, in io.Reader, out io.Writer, prompt bool) {
	reader := bufio.NewReader(in)
	var multiline strings.Builder
	inMultiline := false

	for {
		if prompt {
			if inMultiline {
				fmt.Fprint(out, "... ")
			} else {
				fmt.Fprint(out, ">>> ")
			}
		}

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if prompt {
				fmt.Fprintln(out)
			}
			return
		}

		line = strings.TrimRight(line, "\r\n")

		if strings.HasSuffix(line, "\\") {
			multiline.WriteString(strings.TrimSuffix(line, "\\"))
			multiline.WriteString("\n")
			inMultiline = true
			continue
		}

		var input string
		if inMultiline {
			multiline.WriteString(line)
			input = multiline.String()
			multiline.Reset()
			inMultiline = false
		} else {
			input = line
		}

		if strings.TrimSpace(input) == "" {
			continue
		}

		result, evalErr := s.Eval(input)
		if evalErr != nil {
			fmt.Fprintf(out, "Error: %v\n", evalErr)
			continue
		}

		if result != "" {
			fmt.Fprintln(out, result)
		}
	}
}
