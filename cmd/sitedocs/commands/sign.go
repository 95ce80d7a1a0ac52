package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sitedocs/cmd/sitedocs/ui"
	"sitedocs/internal/platform/imaging"
	"sitedocs/internal/platform/pdf"
)

type signFlags struct {
	page      string
	signature string
	x         float64
	y         float64
	out       string
}

func newSignCmd() *cobra.Command {
	flags := &signFlags{}
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Stamp a signature onto a page image and write the PDF",
		Long: `sign renders a one-page PDF from a page image with the signature bitmap
centred at --x/--y, given as fractions of the page width and height, and the
signing date printed below it. Without a position the signature goes to the
bottom-right corner.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var pos *pdf.Position
			if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
				if !cmd.Flags().Changed("x") || !cmd.Flags().Changed("y") {
					return errors.New("--x and --y must be given together")
				}
				pos = &pdf.Position{X: flags.x, Y: flags.y}
			}
			return runSign(cmd, flags, pos)
		},
	}
	cmd.Flags().StringVar(&flags.page, "page", "", "page image (JPEG, PNG, GIF or WebP)")
	cmd.Flags().StringVar(&flags.signature, "signature", "", "signature image, PNG with transparency preferred")
	cmd.Flags().Float64Var(&flags.x, "x", 0, "horizontal centre as a fraction of the page width")
	cmd.Flags().Float64Var(&flags.y, "y", 0, "vertical centre as a fraction of the page height")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "output PDF path")
	_ = cmd.MarkFlagRequired("page")
	_ = cmd.MarkFlagRequired("signature")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runSign(cmd *cobra.Command, flags *signFlags, pos *pdf.Position) error {
	raw, err := os.ReadFile(flags.page)
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}
	signature, err := os.ReadFile(flags.signature)
	if err != nil {
		return fmt.Errorf("read signature: %w", err)
	}
	page, err := imaging.NewNormalizer().Normalize(raw, imaging.ArchivalPreset)
	if err != nil {
		return fmt.Errorf("page: %w", err)
	}
	data, err := pdf.NewCompositor().Compose(page.Data, &pdf.Overlay{Image: signature, Position: pos})
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	if err := os.WriteFile(flags.out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", flags.out, err)
	}
	ui.New(cmd.OutOrStdout()).Success("signed %s (%dx%d) -> %s", flags.page, page.Width, page.Height, flags.out)
	return nil
}
