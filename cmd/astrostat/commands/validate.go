package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/astrostat/internal/dataio"
)

// ErrMissingInput is returned when validate gets neither a file nor --print-schema.
var ErrMissingInput = errors.New("validate needs a file, - for stdin, or --print-schema")

func newValidateCommand(app *App) *cobra.Command {
	var printSchema bool

	cmd := &cobra.Command{
		Use:   "validate <file.json|->",
		Short: "Validate a JSON column document against the column schema",
		Long: `Validate a JSON column document of the form {"columns": {"name": [values]}}.
Values are numbers, null, or the strings NaN, Inf, +Inf and -Inf.

Examples:
  astrostat validate catalog.json
  astrostat validate - < catalog.json
  astrostat validate --print-schema`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, "validate", func(ctx context.Context) (runStats, error) {
				if printSchema {
					_, err := cmd.OutOrStdout().Write(dataio.ColumnsSchema())

					return runStats{}, err
				}

				if len(args) == 0 {
					return runStats{}, ErrMissingInput
				}

				return app.runValidate(ctx, cmd, args[0])
			})
		},
	}

	cmd.Flags().BoolVar(&printSchema, "print-schema", false, "print the column schema and exit")

	return cmd
}

func (a *App) runValidate(ctx context.Context, cmd *cobra.Command, path string) (runStats, error) {
	in, label, closeFn, err := openInput(cmd, path)
	if err != nil {
		return runStats{}, err
	}
	defer closeFn()

	res, err := dataio.Validate(in)
	if err != nil {
		return runStats{}, err
	}

	out := cmd.OutOrStdout()
	green, red, cyan := a.painter(color.FgGreen), a.painter(color.FgRed), a.painter(color.FgCyan)

	if res.Valid {
		green.Fprintf(out, "Column document is valid (%s)\n", label)
		cyan.Fprintf(out, "  Columns: %d, rows: %d\n", res.Columns, res.Rows)
		a.logger.DebugContext(ctx, "document valid", "path", label)

		return runStats{samples: res.Rows}, nil
	}

	red.Fprintf(out, "Column document is invalid (%s)\n", label)
	fmt.Fprintf(out, "\nErrors:\n")

	for _, fe := range res.Errors {
		red.Fprintf(out, "  - %s: %s\n", fe.Field, fe.Description)
	}

	return runStats{}, fmt.Errorf("%w: %d schema errors in %s", ErrValidationFailed, len(res.Errors), label)
}

// painter returns a color honoring --color and --no-color.
func (a *App) painter(attr color.Attribute) *color.Color {
	c := color.New(attr)

	if opt := a.colorOption(); opt != nil {
		if *opt {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return c
}

func openInput(cmd *cobra.Command, path string) (io.Reader, string, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), "stdin", func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open input: %w", err)
	}

	return f, path, func() { f.Close() }, nil
}
