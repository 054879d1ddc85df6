package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ting434252/lifebill/internal/config"
	"github.com/ting434252/lifebill/internal/database"
	"github.com/ting434252/lifebill/internal/journal"
	"github.com/ting434252/lifebill/internal/persist"
	"github.com/ting434252/lifebill/internal/storage"
	"github.com/ting434252/lifebill/internal/storage/kv"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/spf13/cobra"
)

// app holds the state shared by all commands of one invocation.
type app struct {
	configPath string
	device     string
	year       int
	yes        bool
	verbose    bool

	now      func() time.Time
	store    kv.Store // set up front in tests
	prefix   string
	defaults persist.Settings
	session  *persist.Session
}

func newApp() *app {
	return &app{now: time.Now, defaults: persist.DefaultSettings()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "lifebill",
		Short:         "生活記帳：日常收支、手搖飲、麻將",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "設定檔路徑")
	root.PersistentFlags().StringVar(&a.device, "device", "cli", "本地資料的裝置命名空間")
	root.PersistentFlags().IntVar(&a.year, "year", 0, "年度（預設今年）")
	root.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "略過確認")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "顯示除錯日誌")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newDuplicateCmd(a),
		newClearCmd(a),
		newBalanceCmd(a),
		newStatsCmd(a),
		newCalendarCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newCategoriesCmd(a),
		newPlayersCmd(a),
	)
	return root
}

// open loads the local journal of the device for the selected year.
func (a *app) open(ctx context.Context, logOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// a failed command skips the post-run hook
	if err := a.close(); err != nil {
		return err
	}
	logger := util.NewLogger(io.Discard, "warn", "text")
	if a.verbose {
		logger = util.NewLogger(logOut, "debug", "text")
	}

	if a.store == nil {
		cfg, err := config.Read(a.configPath)
		if err != nil {
			return err
		}
		db, err := database.Init(cfg.Database)
		if err != nil {
			return err
		}
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		store, err := storage.OpenKV(ctx, cfg.Storage, db)
		if err != nil {
			return err
		}
		a.store = store
		a.prefix = cfg.Storage.KeyPrefix
		a.defaults = storage.Defaults(cfg.Journal)
	}

	year := a.year
	if year == 0 {
		year = a.now().Year()
	}
	backends := &persist.Backends{KV: a.store, KeyPrefix: a.prefix, Defaults: a.defaults}
	s, err := persist.OpenSession(ctx, backends, a.device, persist.Identity{}, year,
		persist.WithSessionClock(a.now), persist.WithLogger(logger))
	if err != nil {
		_ = s.Close()
		return fmt.Errorf("讀取本地資料: %w", err)
	}
	a.session = s
	return nil
}

func (a *app) close() error {
	if a.session == nil {
		return nil
	}
	err := a.session.Close()
	a.session = nil
	return err
}

// do runs a mutation. A missing confirmation is reported with a hint.
func (a *app) do(ctx context.Context, fn func(j *journal.Journal) error) error {
	err := a.session.Do(ctx, fn)
	var ce *journal.ConfirmError
	if errors.As(err, &ce) {
		return fmt.Errorf("%s（加上 --yes 確認）", ce.Prompt)
	}
	var ve *journal.ValidationError
	if errors.As(err, &ve) {
		return errors.New(ve.Message)
	}
	return err
}

func (a *app) view(fn func(j *journal.Journal)) {
	a.session.View(fn)
}
