package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/astrostat/internal/dataio"
	"github.com/Sumatoshi-tech/astrostat/internal/report"
	"github.com/Sumatoshi-tech/astrostat/pkg/persist"
)

// readTable loads the command input and logs its size.
func (a *App) readTable(path, format string) (*dataio.Table, error) {
	tbl, err := dataio.ReadFile(path, format)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	a.logger.Debug("input loaded", "path", path, "columns", len(tbl.Names), "rows", tbl.Len())

	return tbl, nil
}

// emit renders rep in the configured format and persists result when --save is set.
func (a *App) emit(cmd *cobra.Command, rep *report.Report, result any) error {
	err := report.Write(cmd.OutOrStdout(), rep, a.cfg.Output.Format, report.Options{Color: a.colorOption()})
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	path := a.cfg.Output.Save
	if path == "" {
		return nil
	}

	codec, err := persist.CodecForPath(path)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	err = persist.SaveFile(path, codec, result)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	a.logger.Info("result saved", "path", path, "run_id", rep.RunID)

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
