package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"sitedocs/cmd/sitedocs/ui"
	"sitedocs/internal/domain/checklist"
)

type checklistFlags struct {
	docs  string
	check []string
}

func newChecklistCmd() *cobra.Command {
	flags := &checklistFlags{}
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Score the subcontractor requirements against a document list",
		Long: `checklist reads a YAML document list and reports which mandatory
subcontractor documents are covered. The file may override "requirements"
and mark labels as "checked" by hand; --check adds more manual marks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecklist(cmd, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.docs, "docs", "d", "", "document list YAML file")
	cmd.Flags().StringArrayVar(&flags.check, "check", nil, "requirement label to mark as satisfied (repeatable)")
	_ = cmd.MarkFlagRequired("docs")
	return cmd
}

func runChecklist(cmd *cobra.Command, flags *checklistFlags) error {
	list, err := loadDocList(flags.docs)
	if err != nil {
		return err
	}
	records, err := list.records()
	if err != nil {
		return err
	}
	labels := list.Requirements
	if len(labels) == 0 {
		labels = checklist.DefaultRequirements
	}

	toggles := checklist.Toggles{}
	for _, label := range append(list.Checked, flags.check...) {
		if !slices.Contains(labels, label) {
			return fmt.Errorf("unknown requirement %q", label)
		}
		if !toggles[label] {
			toggles = toggles.Toggle(label)
		}
	}

	result := checklist.Evaluate(labels, records, toggles)
	out := ui.New(cmd.OutOrStdout())
	out.Section("Subcontractor checklist")
	for _, item := range result.Items {
		switch {
		case item.Matched:
			out.Success("%s", item.Label)
		case item.Manual:
			out.Success("%s (checked by hand)", item.Label)
		default:
			out.Fail("%s", item.Label)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout())
	out.Info("%d/%d satisfied", result.SatisfiedCount, result.Total)
	return nil
}
