package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"budgetx/internal/core"
	applog "budgetx/internal/log"
	ports "budgetx/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultEntriesSheet = "Entries"
	DefaultHistorySheet = "History"
)

var _ ports.Exporter = (*Client)(nil)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	entriesSheet  string
	historySheet  string
	logger        *applog.Logger
}

// Options configure the exporter. One of CredentialsJSON or
// CredentialsFile is required unless Endpoint is set, in which case
// requests go unauthenticated to Endpoint.
type Options struct {
	SpreadsheetID   string
	EntriesSheet    string
	HistorySheet    string
	CredentialsFile string
	CredentialsJSON string
	Endpoint        string
	HTTPClient      *http.Client
	Logger          *applog.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if opts.EntriesSheet == "" {
		opts.EntriesSheet = DefaultEntriesSheet
	}
	if opts.HistorySheet == "" {
		opts.HistorySheet = DefaultHistorySheet
	}
	if opts.Logger == nil {
		opts.Logger = applog.Wrap(nil, applog.ComponentSheets)
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: id,
		entriesSheet:  opts.EntriesSheet,
		historySheet:  opts.HistorySheet,
		logger:        opts.Logger,
	}, nil
}

// newSheetsService authenticates with a service account, inline JSON
// taking precedence over a file path.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClientWithPooling()
	}

	if opts.Endpoint != "" {
		return gsheet.NewService(ctx,
			goption.WithEndpoint(opts.Endpoint),
			goption.WithoutAuthentication(),
			goption.WithHTTPClient(httpClient))
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	opts.Logger.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// newHTTPClientWithPooling keeps connections to the Sheets API warm between
// exports.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

func (c *Client) ExportEntries(ctx context.Context, entries []core.BudgetEntry) (int, error) {
	if err := c.replaceTab(ctx, c.entriesSheet, ports.EntryRows(entries)); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (c *Client) ExportHistory(ctx context.Context, history []core.MonthlySnapshot) (int, error) {
	if err := c.replaceTab(ctx, c.historySheet, ports.HistoryRows(history)); err != nil {
		return 0, err
	}
	return len(history), nil
}

// replaceTab clears the tab and writes rows from A1. Values are written
// RAW so labels are never interpreted as formulas.
func (c *Client) replaceTab(ctx context.Context, sheet string, rows [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:Z", sheet)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	writeRange := fmt.Sprintf("%s!A1", sheet)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", writeRange, err)
	}

	c.logger.InfoContext(ctx, "Sheet tab replaced",
		"sheet", sheet,
		applog.FieldCount, len(rows)-1,
		applog.FieldOperation, applog.OpExport)
	return nil
}
