package main

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ndlib/bagr/bagit"
	"github.com/ndlib/bagr/fixity"
	"github.com/ndlib/bagr/report"
)

func (a *app) bagCmd() *cobra.Command {
	var algorithms []string
	var tags []string
	cmd := &cobra.Command{
		Use:   "bag [dir]",
		Short: "Turn a directory holding a data/ payload into a bag",
		Long: `Write bagit.txt, bag-info.txt, the payload manifests, and the tag
manifests for the payload already in data/. Tags given with --tag are added
to bag-info.txt after the ones from the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.useArgs(args)
			opts, err := a.options()
			if err != nil {
				return err
			}
			if len(algorithms) > 0 {
				if opts.Algorithms, err = bagit.ParseAlgorithms(algorithms); err != nil {
					return err
				}
			}
			for _, t := range tags {
				label, value, err := parseTagFlag(t)
				if err != nil {
					return err
				}
				if err := opts.Info.AddTag(label, value); err != nil {
					return err
				}
			}
			bag, err := bagit.CreateBag(cmd.Context(), a.bagPath, opts)
			a.record(a.event(fixity.OpBag, fixity.StatusOK, err))
			if err != nil {
				return err
			}
			log.Info("bag created", "dir", a.bagPath)
			return report.WriteInfo(cmd.OutOrStdout(), bag, nil)
		},
	}
	cmd.Flags().StringSliceVarP(&algorithms, "algorithm", "a", nil, "digest algorithms to use (repeatable)")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, `bag-info tag to add, as "Label: value" (repeatable)`)
	return cmd
}

// parseTagFlag splits a "Label: value" flag the way a tag file line is
// split.
func parseTagFlag(s string) (string, string, error) {
	tags, err := bagit.ParseTagLines([]string{s}, "--tag")
	if err != nil {
		return "", "", errors.Wrapf(err, "tag %q", s)
	}
	t := tags.Tags()[0]
	return t.Label(), strings.TrimSpace(t.Value()), nil
}
