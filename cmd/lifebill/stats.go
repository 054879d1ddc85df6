package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ting434252/lifebill/internal/journal"

	"github.com/spf13/cobra"
)

func money(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func newStatsCmd(a *app) *cobra.Command {
	var rng string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "統計",
	}
	cmd.PersistentFlags().StringVar(&rng, "range", string(journal.RangeMonth), "month | year")
	parseRange := func() (journal.Range, error) {
		r := journal.Range(rng)
		if !r.Valid() {
			return "", fmt.Errorf("range 只能是 month 或 year")
		}
		return r, nil
	}

	var income bool
	daily := &cobra.Command{
		Use:   "daily",
		Short: "日常收支統計",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := parseRange()
			if err != nil {
				return err
			}
			d := journal.Expense
			if income {
				d = journal.Income
			}
			var st journal.DailyStats
			a.view(func(j *journal.Journal) { st = journal.Daily(j.Records(), d, r, j.StatsTime()) })

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "總計\t%s\n", money(st.Total))
			for _, s := range st.Breakdown {
				fmt.Fprintf(tw, "%s\t%s\t%d%%\n", s.Name, money(s.Value), s.Percent)
			}
			for _, p := range st.YearTrend {
				fmt.Fprintf(tw, "%s\t收入 %s\t支出 %s\n", p.Name, money(p.Income), money(p.Expense))
			}
			return tw.Flush()
		},
	}
	daily.Flags().BoolVar(&income, "income", false, "統計收入（預設支出）")

	var f journal.TeaFilter
	tea := &cobra.Command{
		Use:   "tea",
		Short: "手搖飲統計",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := parseRange()
			if err != nil {
				return err
			}
			var st journal.TeaStats
			a.view(func(j *journal.Journal) { st = journal.Tea(j.Records(), r, f, j.StatsTime()) })
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "最常去：%s\n最常點：%s\n杯數：%d\n", st.Shop, st.Item, st.Cups)
			return printRecords(out, st.List)
		},
	}
	tea.Flags().StringVar(&f.Shop, "shop", "", "只看某家店")
	tea.Flags().IntVar(&f.Month, "month", 0, "只看某月（range=year）")
	tea.Flags().Float64Var(&f.MinRating, "min-rating", 0, "最低評分")

	mahjong := &cobra.Command{
		Use:   "mahjong",
		Short: "麻將戰績統計",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := parseRange()
			if err != nil {
				return err
			}
			var st journal.MahjongStats
			a.view(func(j *journal.Journal) { st = journal.Mahjong(j.Records(), r, j.StatsTime()) })

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "勝\t%d\n負\t%d\n勝率\t%d%%\n", st.Wins, st.Losses, st.WinRate)
			fmt.Fprintf(tw, "單月最高贏\t%s\n單月最高輸\t%s\n", money(st.MaxWinMonth), money(st.MaxLossMonth))
			for _, p := range st.Players {
				fmt.Fprintf(tw, "%s\t%d 場\t勝率 %d%%\n", p.Name, p.Games, p.WinRate)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(daily, tea, mahjong)
	return cmd
}

func newCalendarCmd(a *app) *cobra.Command {
	var (
		kind  string
		month int
	)
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "顯示月曆",
		RunE: func(cmd *cobra.Command, _ []string) error {
			k := journal.Kind(kind)
			if !k.Valid() {
				return fmt.Errorf("未知的紀錄類別 %q", kind)
			}
			var grid journal.MonthGrid
			a.view(func(j *journal.Journal) {
				m := time.Month(month)
				if m < time.January || m > time.December {
					m = j.StatsTime().Month()
				}
				grid = journal.Calendar(j.Records(), k, j.Year(), m)
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d 年 %d 月\n 一  二  三  四  五  六  日\n", grid.Year, grid.Month)
			var row strings.Builder
			row.WriteString(strings.Repeat("    ", grid.Offset))
			for i, d := range grid.Days {
				mark := " "
				if d.HasData {
					mark = "*"
				}
				fmt.Fprintf(&row, "%2d%s ", d.Day, mark)
				if (grid.Offset+i+1)%7 == 0 {
					fmt.Fprintln(out, strings.TrimRight(row.String(), " "))
					row.Reset()
				}
			}
			if row.Len() > 0 {
				fmt.Fprintln(out, strings.TrimRight(row.String(), " "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(journal.KindDaily), "daily | tea | mahjong")
	cmd.Flags().IntVar(&month, "month", 0, "月份 1-12（預設本月）")
	return cmd
}
