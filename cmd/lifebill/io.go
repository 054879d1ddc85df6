package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ting434252/lifebill/internal/journal"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:       "export <csv|json|xlsx>",
		Short:     "匯出當年度資料",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"csv", "json", "xlsx"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				ds  journal.Dataset
				now = a.now()
			)
			a.view(func(j *journal.Journal) { ds = j.Dataset() })

			w := cmd.OutOrStdout()
			if out == "" && args[0] == "xlsx" {
				out = fmt.Sprintf("life_journal_%d.xlsx", ds.Year)
			}
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			var err error
			switch args[0] {
			case "csv":
				err = journal.WriteCSV(w, ds.Records)
			case "json":
				err = journal.WriteBackup(w, ds, now)
			case "xlsx":
				err = journal.WriteXLSX(w, ds.Year, ds.Records)
			}
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "已匯出 %d 筆紀錄到 %s\n", len(ds.Records), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "輸出檔案（預設標準輸出，xlsx 預設 life_journal_<年度>.xlsx）")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <backup.json>",
		Short: "匯入 JSON 備份並覆蓋當年度資料",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			in, err := journal.ParseBackup(r)
			if err != nil {
				return err
			}
			if err := a.do(cmd.Context(), func(j *journal.Journal) error {
				return j.Import(in, a.yes)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已匯入 %d 筆紀錄\n", len(in.Records))
			return nil
		},
	}
}
