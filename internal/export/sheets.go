package export

import (
	"context"
	"errors"
	"fmt"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gastos/internal/config"
	"gastos/internal/core"
)

// Client appends installment rows to a Google Sheets spreadsheet, the
// backup copy of the ledger.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates a Sheets client from service account credentials in the
// configuration (inline JSON wins over a file path).
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var credentialsJSON []byte
	switch {
	case cfg.GoogleServiceAccountJSON != "":
		credentialsJSON = []byte(cfg.GoogleServiceAccountJSON)
	case cfg.GoogleServiceAccountFile != "":
		data, err := os.ReadFile(cfg.GoogleServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	sheetName := cfg.GoogleSheetName
	if sheetName == "" {
		sheetName = "Gastos"
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendInstallment writes one row: date, description, kind, value,
// installment number, account id. Returns the written range reference.
func (c *Client) AppendInstallment(ctx context.Context, inst core.Installment) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row := []any{
		inst.Date.String(),
		inst.Description,
		inst.Kind.DisplayName(),
		inst.Value.Reais(),
		inst.Number,
		inst.AccountID,
	}

	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}
