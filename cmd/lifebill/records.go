package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/ting434252/lifebill/internal/journal"

	"github.com/spf13/cobra"
)

func printRecords(w io.Writer, records []journal.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t日期\t類別\t項目\t金額\t備註")
	for _, r := range records {
		item := r.Label()
		switch r.Category {
		case journal.KindDaily:
			if r.Type == journal.Income {
				item += "（收入）"
			}
		case journal.KindTea:
			item += " " + r.Item + " " + strconv.FormatFloat(r.Rating, 'f', -1, 64) + "★"
		case journal.KindMahjong:
			if r.IsWin {
				item += "（贏）"
			} else {
				item += "（輸）"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date, r.Category, item, strconv.FormatFloat(r.Amount, 'f', -1, 64), r.Note)
	}
	return tw.Flush()
}

func printAdded(cmd *cobra.Command, r journal.Record) {
	fmt.Fprintf(cmd.OutOrStdout(), "已新增 %s（%s %s %s）\n",
		r.ID, r.Date, r.Label(), strconv.FormatFloat(r.Amount, 'f', -1, 64))
}

func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "新增紀錄",
	}
	cmd.AddCommand(newAddDailyCmd(a), newAddTeaCmd(a), newAddMahjongCmd(a), newAddTemplateCmd(a))
	return cmd
}

func newAddDailyCmd(a *app) *cobra.Command {
	var (
		f      journal.DailyForm
		income bool
	)
	cmd := &cobra.Command{
		Use:   "daily <類別> <金額>",
		Short: "新增日常收支",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := journal.ParseAmount(args[1])
			if err != nil {
				return err
			}
			f.SubCategory, f.Amount = args[0], amount
			f.Type = journal.Expense
			if income {
				f.Type = journal.Income
			}
			var r journal.Record
			err = a.do(cmd.Context(), func(j *journal.Journal) error {
				var err error
				r, err = j.AddDaily(f)
				return err
			})
			if err != nil {
				return err
			}
			printAdded(cmd, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Date, "date", "", "日期 YYYY-MM-DD（預設今天）")
	cmd.Flags().StringVar(&f.Note, "note", "", "備註")
	cmd.Flags().BoolVar(&income, "income", false, "記為收入")
	return cmd
}

func newAddTeaCmd(a *app) *cobra.Command {
	var f journal.TeaForm
	cmd := &cobra.Command{
		Use:   "tea <店家> <品項> <金額>",
		Short: "新增手搖飲",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := journal.ParseAmount(args[2])
			if err != nil {
				return err
			}
			f.Shop, f.Item, f.Amount = args[0], args[1], amount
			var r journal.Record
			err = a.do(cmd.Context(), func(j *journal.Journal) error {
				var err error
				r, err = j.AddTea(f)
				return err
			})
			if err != nil {
				return err
			}
			printAdded(cmd, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Date, "date", "", "日期 YYYY-MM-DD（預設今天）")
	cmd.Flags().StringVar(&f.Sugar, "sugar", "", "甜度（預設半糖）")
	cmd.Flags().StringVar(&f.Ice, "ice", "", "冰塊（預設少冰）")
	cmd.Flags().Float64Var(&f.Rating, "rating", 3, "評分 1-5，可用 0.5")
	cmd.Flags().StringVar(&f.Note, "note", "", "備註")
	return cmd
}

func newAddMahjongCmd(a *app) *cobra.Command {
	var f journal.MahjongForm
	cmd := &cobra.Command{
		Use:   "mahjong <金額>",
		Short: "新增麻將戰績",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := journal.ParseAmount(args[0])
			if err != nil {
				return err
			}
			f.Amount = amount
			var r journal.Record
			err = a.do(cmd.Context(), func(j *journal.Journal) error {
				var err error
				r, err = j.AddMahjong(f)
				return err
			})
			if err != nil {
				return err
			}
			printAdded(cmd, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Date, "date", "", "日期 YYYY-MM-DD（預設今天）")
	cmd.Flags().BoolVar(&f.IsWin, "win", false, "贏錢")
	cmd.Flags().StringSliceVar(&f.Players, "players", nil, "三位牌友，以逗號分隔")
	cmd.Flags().StringVar(&f.Note, "note", "", "備註")
	return cmd
}

func newAddTemplateCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "template <範本名稱>",
		Short: "用範本新增日常紀錄",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r journal.Record
			err := a.do(cmd.Context(), func(j *journal.Journal) error {
				for _, t := range j.Templates() {
					if t.Name == args[0] || t.ID == args[0] {
						var err error
						r, err = j.ApplyTemplate(t.ID, date)
						return err
					}
				}
				return journal.ErrNotFound
			})
			if err != nil {
				return err
			}
			printAdded(cmd, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "日期 YYYY-MM-DD（預設今天）")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var kind, month, date string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出當年度紀錄",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := journal.Filter{Kind: journal.Kind(kind), Month: month, Date: date}
			if f.Kind != "" && !f.Kind.Valid() {
				return fmt.Errorf("未知的紀錄類別 %q", kind)
			}
			var records []journal.Record
			a.view(func(j *journal.Journal) { records = j.List(f) })
			return printRecords(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "daily | tea | mahjong")
	cmd.Flags().StringVar(&month, "month", "", "月份 YYYY-MM")
	cmd.Flags().StringVar(&date, "date", "", "日期 YYYY-MM-DD")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "刪除紀錄",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.do(cmd.Context(), func(j *journal.Journal) error {
				return j.Delete(args[0], a.yes)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "已刪除", args[0])
			return nil
		},
	}
}

func newDuplicateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "複製一筆紀錄",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r journal.Record
			err := a.do(cmd.Context(), func(j *journal.Journal) error {
				var err error
				r, err = j.Duplicate(args[0])
				return err
			})
			if err != nil {
				return err
			}
			printAdded(cmd, r)
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "刪除當年度所有紀錄",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var year int
			err := a.do(cmd.Context(), func(j *journal.Journal) error {
				year = j.Year()
				return j.Clear(a.yes)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已清空 %d 年度紀錄\n", year)
			return nil
		},
	}
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "顯示收支結餘",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var balance float64
			a.view(func(j *journal.Journal) { balance = j.Balance() })
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(balance, 'f', -1, 64))
			return nil
		},
	}
}
