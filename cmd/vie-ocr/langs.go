package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical/vie-ocr/internal/domain"
	"github.com/spherical/vie-ocr/pkg/extractor"
)

func newLangsCmd() *cobra.Command {
	var tesseract string

	cmd := &cobra.Command{
		Use:   "langs",
		Short: "List installed Tesseract languages and check for Vietnamese",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("tesseract") {
				useTesseractBinary(cfg, tesseract)
			}
			client, err := extractor.NewClientWithConfig(cfg, logger)
			if err != nil {
				return err
			}

			support, err := client.Languages(cmd.Context())
			if err != nil {
				return err
			}
			hasVie := support.Has(domain.LanguageVietnamese)

			if outputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"engine":     client.EngineName(),
					"languages":  support.Codes(),
					"vietnamese": hasVie,
				})
			}

			ui := NewUI(outputJSON, noColor)
			ui.KeyValue("Engine", client.EngineName())
			ui.KeyValue("Languages", strings.Join(support.Codes(), ", "))
			if !hasVie {
				return domain.UnsupportedLanguageError(domain.LanguageVietnamese, nil)
			}
			ui.Success("Vietnamese (%s) is installed", domain.LanguageVietnamese)
			return nil
		},
	}

	cmd.Flags().StringVar(&tesseract, "tesseract", "", "path to the tesseract executable")
	return cmd
}

func installHints() []string {
	return extractor.InstallHints()
}
