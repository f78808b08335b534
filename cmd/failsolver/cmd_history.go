package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"failsolver/internal/format"
	"failsolver/internal/store"
)

var historyFlags struct {
	limit int
}

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List past analyses, or print one analysis document by id",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "Max rows to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if cfg.Store.Path == "" {
		return fmt.Errorf("history store is disabled (set store.path)")
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer st.Close()

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid analysis id %q", args[0])
		}
		a, err := st.Get(id)
		if err != nil {
			return err
		}
		fmt.Println(a.Document)
		return nil
	}

	rows, err := st.List(historyFlags.limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No analyses recorded yet.")
		return nil
	}

	tb := format.NewTable(format.ASCII)
	tb.Header("ID", "Test", "Status", "Result", "Failed", "Confidence", "Created")
	tb.Columns(
		format.ColumnConfig{Number: 1, Align: format.AlignRight},
		format.ColumnConfig{Number: 2, MaxWidth: 32},
		format.ColumnConfig{Number: 5, Align: format.AlignRight},
	)
	for _, a := range rows {
		name := a.TestName
		if name == "" {
			name = "-"
		}
		tb.Row(a.ID, format.Truncate(name, 32), a.Status, a.Result,
			fmt.Sprintf("%d/%d", a.Failed, a.Total),
			format.FmtPercent(a.Confidence), a.CreatedAt)
	}
	fmt.Println(tb.String())
	return nil
}
