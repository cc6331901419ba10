package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ndlib/bagr/bagit"
	"github.com/ndlib/bagr/fixity"
	"github.com/ndlib/bagr/report"
)

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [dir]",
		Short: "Print the bag declaration and bag-info tags of a bag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.useArgs(args)
			bag, err := bagit.OpenBag(a.bagPath)
			if err != nil {
				return err
			}
			return report.WriteInfo(cmd.OutOrStdout(), bag, a.last())
		},
	}
}

// last returns the newest recorded event for the bag, or nil if there is
// no fixity database or nothing was recorded.
func (a *app) last() *fixity.Event {
	if a.cfg.FixityDB == "" {
		return nil
	}
	db, err := fixity.Open(a.cfg.FixityDB)
	if err != nil {
		log.Warn("could not open fixity database", "err", err)
		return nil
	}
	defer db.Close()
	e, err := db.Last(a.bagPath)
	if err != nil {
		log.Warn("could not read last event", "err", err)
		return nil
	}
	return e
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [dir]",
		Short: "List the recorded operations on a bag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.useArgs(args)
			db, err := fixity.Open(a.cfg.FixityDB)
			if err != nil {
				return err
			}
			defer db.Close()
			events, err := db.History(a.bagPath, limit)
			if err != nil {
				return err
			}
			return report.WriteHistory(cmd.OutOrStdout(), events)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events to list, 0 for all")
	return cmd
}
