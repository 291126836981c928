package main

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	chatimg "github.com/ironsheep/chatshot/internal/imaging"
)

const emptyHint = "no messages found; try a clearer or higher resolution screenshot"

func loadImages(paths []string) ([]image.Image, error) {
	imgs := make([]image.Image, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		img, err := chatimg.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		imgs = append(imgs, img)
	}
	return imgs, nil
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var annotatePath string

	cmd := &cobra.Command{
		Use:   "extract <image>...",
		Short: "Print the messages in one or more screenshots, given in chronological order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(formatFlag, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			p, _, err := ctx.pipeline()
			if err != nil {
				return err
			}
			imgs, err := loadImages(args)
			if err != nil {
				return err
			}

			t, err := p.Transcribe(cmd.Context(), imgs...)
			if err != nil {
				return err
			}

			if annotatePath != "" {
				a, err := p.Analyze(cmd.Context(), imgs[0])
				if err != nil {
					return err
				}
				annotated, err := p.Annotate(imgs[0], a)
				if err != nil {
					return err
				}
				if err := imaging.Save(annotated, annotatePath); err != nil {
					return fmt.Errorf("write annotation: %w", err)
				}
			}

			if len(t.Messages) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), emptyHint)
			}
			return writeTranscript(cmd, format, t)
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format: table, json or yaml (default table on a terminal, json otherwise)")
	cmd.Flags().StringVar(&annotatePath, "annotate", "", "Write the first screenshot with detected bubbles and timestamps outlined to this file")
	return cmd
}

func newBubblesCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "bubbles <image>",
		Short: "Print detected message bubbles without reading their text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(formatFlag, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			p, _, err := ctx.pipeline()
			if err != nil {
				return err
			}
			imgs, err := loadImages(args)
			if err != nil {
				return err
			}
			prepared, err := p.Prepare(imgs[0])
			if err != nil {
				return err
			}
			return writeBubbles(cmd, format, prepared, p.Detect(prepared))
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format: table, json or yaml")
	return cmd
}
