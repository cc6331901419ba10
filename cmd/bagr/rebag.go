package main

import (
	"github.com/spf13/cobra"

	"github.com/ndlib/bagr/bagit"
	"github.com/ndlib/bagr/fixity"
	"github.com/ndlib/bagr/report"
)

func (a *app) rebagCmd() *cobra.Command {
	var algorithms []string
	cmd := &cobra.Command{
		Use:   "rebag [dir]",
		Short: "Update the manifests of a bag to match its payload",
		Long: `Compute the payload manifests again and, if they differ from the ones
in the bag, rewrite the manifests, bag-info.txt, and tag manifests. The
payload is never changed. Without --algorithm the bag keeps the algorithms
it has.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.useArgs(args)
			opts, err := a.options()
			if err != nil {
				return err
			}
			opts.Algorithms = nil
			if len(algorithms) > 0 {
				if opts.Algorithms, err = bagit.ParseAlgorithms(algorithms); err != nil {
					return err
				}
			}
			result, err := bagit.Rebag(cmd.Context(), a.bagPath, opts)
			status := fixity.StatusUnchanged
			if result != nil && result.Changed {
				status = fixity.StatusChanged
			}
			a.record(a.event(fixity.OpRebag, status, err))
			if err != nil {
				return err
			}
			return report.WriteRebag(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringSliceVarP(&algorithms, "algorithm", "a", nil, "digest algorithms to use (repeatable)")
	return cmd
}
