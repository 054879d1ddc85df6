package main

import (
	"fmt"
	"strings"

	"github.com/ting434252/lifebill/internal/journal"

	"github.com/spf13/cobra"
)

func parseDirection(s string) (journal.Direction, error) {
	d := journal.Direction(s)
	if !d.Valid() {
		return "", fmt.Errorf("類型只能是 income 或 expense")
	}
	return d, nil
}

func newCategoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "列出收支類別",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cats journal.Categories
			a.view(func(j *journal.Journal) { cats = j.Categories() })
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "支出:", strings.Join(cats.Expense, "、"))
			fmt.Fprintln(out, "收入:", strings.Join(cats.Income, "、"))
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <income|expense> <名稱>",
			Short: "新增類別",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := parseDirection(args[0])
				if err != nil {
					return err
				}
				return a.do(cmd.Context(), func(j *journal.Journal) error { return j.AddCategory(d, args[1]) })
			},
		},
		&cobra.Command{
			Use:   "rm <income|expense> <名稱>",
			Short: "刪除類別",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := parseDirection(args[0])
				if err != nil {
					return err
				}
				return a.do(cmd.Context(), func(j *journal.Journal) error {
					return j.RemoveCategory(d, args[1], a.yes)
				})
			},
		},
	)
	return cmd
}

func newPlayersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "列出牌友",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var players []string
			a.view(func(j *journal.Journal) { players = j.Players() })
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(players, "、"))
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <名稱>",
			Short: "新增牌友",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.do(cmd.Context(), func(j *journal.Journal) error { return j.AddPlayer(args[0]) })
			},
		},
		&cobra.Command{
			Use:   "rm <名稱>",
			Short: "刪除牌友",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.do(cmd.Context(), func(j *journal.Journal) error {
					return j.RemovePlayer(args[0], a.yes)
				})
			},
		},
	)
	return cmd
}
