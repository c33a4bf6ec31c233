package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/sqlreport/internal/cli"
	"github.com/pthm/sqlreport/internal/compiler"
	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/sqllint"
)

var (
	compileFormat      string
	compileGraphFile   string
	compileDefaultJoin string
	compileInferRefs   bool
	compileLint        bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [request.json]",
	Short: "Compile a report request",
	Long: `Compile a report request and print the result.

The request is read from the named file, or from stdin when the argument is
omitted or "-". Formats:

  statement   preview SQL with literals inline (default)
  params      parameterized SQL followed by the bind arguments
  parts       clause bodies and dropped parts as JSON`,
	Example: `  # Preview the statement
  sqlreport compile request.json

  # Clause bodies as JSON
  echo '{"tables":["sales","stores"]}' | sqlreport compile --format parts`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("infer-refs") {
			compileInferRefs = cfg.Compiler.InferColumnRefs
		}
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		return runCompile(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), path)
	},
}

func init() {
	f := compileCmd.Flags()
	f.StringVarP(&compileFormat, "format", "f", "statement", "output format: statement, params, parts")
	f.StringVar(&compileGraphFile, "graph", "", "relation artifact path (default from graph config)")
	f.StringVar(&compileDefaultJoin, "default-join", "", "join type when the request names none")
	f.BoolVar(&compileInferRefs, "infer-refs", true, `treat "table.column" string values as column references (default from compiler config)`)
	f.BoolVar(&compileLint, "lint", false, "parse the statement and fail if it is not a single SELECT")
}

func runCompile(ctx context.Context, stdin io.Reader, out io.Writer, path string) error {
	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return cli.RequestError("opening request", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	req, err := report.Decode(in)
	if err != nil {
		return cli.RequestError("parsing request", err)
	}

	source, file := cfg.Graph.Source, cfg.Graph.File
	if compileGraphFile != "" {
		source, file = cli.GraphFile, compileGraphFile
	}
	if source == cli.GraphCatalog {
		// compile never touches the database
		source = cli.GraphEmbedded
	}
	graph, _, err := loadGraph(ctx, source, file, nil)
	if err != nil {
		return err
	}

	comp, err := newCompiler(graph, compileDefaultJoin, compileInferRefs)
	if err != nil {
		return err
	}
	plan, err := comp.Compile(req)
	if err != nil {
		return cli.RequestError("compiling request", err)
	}

	if resolveBool(compileLint, cfg.Compiler.Lint) {
		if err := sqllint.Check(plan.Statement()); err != nil {
			return cli.RequestError("linting statement", err)
		}
	}

	return writePlan(out, plan, compileFormat)
}

func writePlan(out io.Writer, plan *compiler.Plan, format string) error {
	switch format {
	case "statement":
		_, err := fmt.Fprintln(out, plan.Statement())
		return err
	case "params":
		query, args, err := plan.Parameterized()
		if err != nil {
			return cli.GeneralError("rendering statement", err)
		}
		if _, err := fmt.Fprintln(out, query); err != nil {
			return err
		}
		for i, a := range args {
			if _, err := fmt.Fprintf(out, "$%d = %v\n", i+1, a); err != nil {
				return err
			}
		}
		return nil
	case "parts":
		dropped := plan.Dropped
		if dropped == nil {
			dropped = []compiler.Dropped{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			compiler.Parts
			Dropped []compiler.Dropped `json:"dropped"`
		}{plan.Parts(), dropped})
	}
	return cli.ConfigError(fmt.Sprintf("unknown format %q", format), nil)
}
