package main

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"budgetx/internal/core"
)

const maxReceiptBytes = 10 << 20

func (a *app) receiptCmd() *cobra.Command {
	var add bool
	cmd := &cobra.Command{
		Use:   "receipt <image>",
		Short: "Extract an expense from a receipt photo",
		Long:  "Send a receipt image to the server for parsing. With --add the parsed expense is stored as a new entry.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, mimeType, err := readReceipt(args[0])
			if err != nil {
				return err
			}
			parsed, err := a.api.ParseReceipt(cmd.Context(), data, mimeType)
			if err != nil {
				return err
			}
			a.printReceipt(parsed)
			if !add {
				return nil
			}
			saved, err := a.api.AddReceiptEntry(cmd.Context(), parsed)
			if err != nil {
				return err
			}
			a.printf("Added expense %s\n", saved.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&add, "add", false, "Store the parsed expense as an entry")
	return cmd
}

// readReceipt loads an image file and works out its MIME type, sniffing
// the content first and falling back to the file extension.
func readReceipt(path string) ([]byte, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if info.Size() > maxReceiptBytes {
		return nil, "", fmt.Errorf("%s is %d bytes; receipts are limited to %d", path, info.Size(), maxReceiptBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	}
	if base, _, _ := strings.Cut(mimeType, ";"); strings.HasPrefix(base, "image/") {
		return data, base, nil
	}
	return nil, "", fmt.Errorf("%s does not look like an image", path)
}

func (a *app) printReceipt(p core.ParsedReceipt) {
	a.printf("Label:      %s\n", p.Label)
	a.printf("Amount:     %s\n", core.FormatAmount(p.Amount))
	a.printf("Category:   %s\n", p.Category)
	if p.Frequency != "" {
		a.printf("Recurrence: %s (%s)\n", p.Recurrence, p.Frequency)
	} else {
		a.printf("Recurrence: %s\n", p.Recurrence)
	}
	if p.Notes != "" {
		a.printf("Notes:      %s\n", p.Notes)
	}
}
