// Command yane expands the directives embedded in host files.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/nickwells/check.mod/v2/check"
	"github.com/nickwells/filecheck.mod/filecheck"
	"github.com/npillmayer/schuko/tracing"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nickandperla.net/yane/internal/config"
	"nickandperla.net/yane/pkg/yane"
)

// traceKeys lists the tracers whose level --log-level controls.
var traceKeys = []string{
	"yane.scanner", "yane.parser", "yane.env", "yane.buffer",
	"yane.eval", "yane.emit", "yane.config", "yane.runtime", "yane.cli",
}

// tracer traces with key 'yane.cli'.
func tracer() tracing.Trace {
	return tracing.Select("yane.cli")
}

func main() {
	if err := newRootCmd(os.Stdin).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the loaded configuration to the subcommands.
type app struct {
	configPath string
	conf       *config.Config
	stdin      io.Reader
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	a := &app{stdin: stdin}
	root := &cobra.Command{
		Use:   "yane",
		Short: "Expand directives embedded in source files",
		Long: `yane reads host files (typically C or C++ sources) in which directive lines
start with a marker, //% by default. Directives are S-expressions that bind
variables, loop over lists, substitute text and write the results into
output buffers, which are written to files when the run ends.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(a.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			a.conf = conf
			return setLogLevel(conf.LogLevel)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file (default ./yane.yaml if present)")
	flags.String("marker", "//%", "prefix of directive lines")
	flags.String("output-var", "outfile", "variable naming the active output buffer")
	flags.Bool("pass-through", false, "copy literal host text into the active buffer")
	flags.Bool("dry-run", false, "print outputs instead of writing files")
	flags.String("journal", "", "SQLite compile journal path (empty keeps it in memory)")
	flags.String("log-level", "error", "trace level: error, info or debug")
	flags.Bool("mkdir", false, "create missing output directories")

	root.AddCommand(a.runCmd(), a.compileCmd(), a.parseCmd(), a.replCmd())
	return root
}

func setLogLevel(level string) error {
	var l tracing.TraceLevel
	switch strings.ToLower(level) {
	case "error", "":
		l = tracing.LevelError
	case "info":
		l = tracing.LevelInfo
	case "debug":
		l = tracing.LevelDebug
	default:
		return fmt.Errorf("unknown log level %q (use error, info or debug)", level)
	}
	for _, key := range traceKeys {
		tracing.Select(key).SetTraceLevel(l)
	}
	return nil
}

// options translates the configuration into runtime options.
func (a *app) options(out io.Writer) []yane.Option {
	c := a.conf
	opts := []yane.Option{
		yane.WithMarker(c.Marker),
		yane.WithOutputVar(c.OutputVar),
		yane.WithPassThrough(c.PassThrough),
		yane.WithOutput(out),
	}
	if c.DryRun {
		opts = append(opts, yane.WithDryRun())
	} else {
		opts = append(opts, yane.WithOutputDir("", c.Mkdir))
	}
	if c.Journal != "" {
		opts = append(opts, yane.WithSQLiteJournal(c.Journal))
	} else {
		opts = append(opts, yane.WithMemoryJournal())
	}
	return opts
}

// checkInput verifies that path names an existing regular file.
func checkInput(path string) error {
	p := filecheck.Provisos{
		Checks:    []check.FileInfo{check.FileInfoIsRegular},
		Existence: filecheck.MustExist,
	}
	return p.StatusCheck(path)
}

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [FILE...]",
		Short: "Run host files and write their outputs",
		Long: `Run evaluates each host file in its own session, writes the buffers it
targeted and prints the value of its last directive. Without files, a
host text piped to standard input is run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			rt := yane.New(a.options(out)...)
			defer rt.Close()

			if len(args) == 0 {
				if f, ok := a.stdin.(*os.File); ok && isTerminal(f) {
					return fmt.Errorf("no input files")
				}
				res, err := rt.RunReader("<stdin>", a.stdin)
				if err != nil {
					return err
				}
				return a.report(out, res)
			}
			for _, path := range args {
				if err := checkInput(path); err != nil {
					return err
				}
				res, err := rt.RunFile(path)
				if err != nil {
					return err
				}
				if err := a.report(out, res); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) compileCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "compile SRC DST",
		Short: "Generate DST from SRC unless it is up to date",
		Long: `Compile runs SRC with the output variable bound to DST. When the journal
shows that SRC and its outputs are unchanged since the last compile, the
run is skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dst := args[0], args[1]
			if err := checkInput(src); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			rt := yane.New(a.options(out)...)
			defer rt.Close()

			res, err := rt.Compile(src, dst, force)
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Fprintf(out, "%s is up to date\n", dst)
				return nil
			}
			return a.report(out, res)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "compile even if the outputs are up to date")
	return cmd
}

func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the parsed directives of a host file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkInput(args[0]); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rt := yane.New(a.options(cmd.OutOrStdout())...)
			defer rt.Close()
			segs, err := rt.Parse(args[0], f)
			if err != nil {
				return err
			}
			repr.New(cmd.OutOrStdout(), repr.Indent("  "), repr.OmitEmpty(true)).Println(segs)
			return nil
		},
	}
}

// report prints the value of a run, and the outputs of a dry run.
func (a *app) report(out io.Writer, res *yane.Result) error {
	for _, path := range res.Flushed {
		tracer().Infof("wrote %s", path)
		if a.conf.DryRun {
			fmt.Fprintf(out, "--- %s ---\n%s", path, res.Buffers[path])
			if text := res.Buffers[path]; text != "" && !strings.HasSuffix(text, "\n") {
				fmt.Fprintln(out)
			}
		}
	}
	if res.Text != "" {
		fmt.Fprint(out, res.Text)
		if !strings.HasSuffix(res.Text, "\n") {
			fmt.Fprintln(out)
		}
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
