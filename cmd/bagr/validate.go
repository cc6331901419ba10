package main

import (
	"github.com/spf13/cobra"

	"github.com/ndlib/bagr/bagit"
	"github.com/ndlib/bagr/fixity"
	"github.com/ndlib/bagr/report"
)

func (a *app) validateCmd() *cobra.Command {
	var asJSON, all bool
	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check a bag against its manifests",
		Long: `Check the bag declaration, the bag-info.txt, every payload and tag
manifest, and the Payload-Oxum. Every problem found is listed. The exit
status is 1 if the bag is not valid.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.useArgs(args)
			opts, err := a.options()
			if err != nil {
				return err
			}
			r, err := bagit.Validate(cmd.Context(), a.bagPath, opts)
			if err != nil {
				a.record(a.event(fixity.OpValidate, fixity.StatusError, err))
				return err
			}
			a.record(fixity.ValidationEvent(a.bagPath, r, a.now()))
			if asJSON {
				err = report.WriteJSON(cmd.OutOrStdout(), r)
			} else {
				err = report.WriteText(cmd.OutOrStdout(), r, all)
			}
			if err != nil {
				return err
			}
			if !r.Valid() {
				return &exitError{Code: exitInvalid}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the report as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "list every file, not only the ones with problems")
	return cmd
}
