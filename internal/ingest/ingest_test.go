package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/config"
	"github.com/Veraticus/card-ledger/internal/engine"
	"github.com/Veraticus/card-ledger/internal/model"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "operations.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func ledgerHeader() []any {
	header := make([]any, len(model.LedgerColumns))
	for i, name := range model.LedgerColumns {
		header[i] = name
	}
	return header
}

func TestXLSXSource_Records(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		ledgerHeader(),
		{"01.11.2021", "*4556", "OK", -228.0, "RUB", "Супермаркеты", 5411, "Колхоз"},
		{"03.11.2021", "*7197", "OK", -525.5, "RUB", "Одежда и обувь", 5651, "WILDBERRIES"},
		{"04.11.2021", "*7197"},
	})

	records, err := NewXLSXSource(path, "", common.DiscardLogger()).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "01.11.2021", first[model.ColumnPaymentDate])
	assert.Equal(t, "*4556", first[model.ColumnCardNumber])
	assert.Equal(t, "-228", first[model.ColumnAmount])
	assert.Equal(t, "5411", first[model.ColumnMCC])
	assert.Equal(t, "Колхоз", first[model.ColumnDescription])

	assert.Equal(t, "-525.5", records[1][model.ColumnAmount])

	short := records[2]
	assert.Equal(t, "*7197", short[model.ColumnCardNumber])
	assert.NotContains(t, short, model.ColumnAmount)
}

func TestXLSXSource_SerialDates(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		ledgerHeader(),
		{44501.0, "*4556", "OK", -1.0},
	})

	records, err := NewXLSXSource(path, "Sheet1", common.DiscardLogger()).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	paid, ok := records[0][model.ColumnPaymentDate].(time.Time)
	require.True(t, ok)
	assert.Equal(t, "01.11.2021", paid.Format(model.LedgerDateLayout))
}

func TestXLSXSource_NonFiniteDatesStayUnparsable(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		ledgerHeader(),
		{"nan", "*4556", "OK", -100.0},
		{"NaN", "*4556", "OK", -200.0},
		{"Inf", "*4556", "OK", -300.0},
		{"-1", "*4556", "OK", -400.0},
	})

	records, err := NewXLSXSource(path, "Sheet1", common.DiscardLogger()).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)

	for _, record := range records {
		_, isTime := record[model.ColumnPaymentDate].(time.Time)
		assert.False(t, isTime, "date %v converted", record[model.ColumnPaymentDate])

		tx, err := engine.Normalize(record)
		require.NoError(t, err)
		assert.False(t, tx.PaymentDate.Valid, "date %v", record[model.ColumnPaymentDate])
	}
}

func TestXLSXSource_Unavailable(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.xlsx")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a workbook"), 0o600))

	tests := []struct {
		name  string
		path  string
		sheet string
	}{
		{name: "missing file", path: filepath.Join(dir, "absent.xlsx")},
		{name: "corrupt file", path: corrupt},
		{name: "unknown sheet", path: writeWorkbook(t, [][]any{ledgerHeader()}), sheet: "Nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := NewXLSXSource(tt.path, tt.sheet, common.DiscardLogger()).Records(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, records)
			assert.Empty(t, records)
		})
	}
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantAmount string
		wantRows   int
	}{
		{
			name: "semicolon export with decimal commas",
			input: "\ufeffДата платежа;Номер карты;Сумма платежа;Категория\n" +
				"01.11.2021;*4556;-228,00;Супермаркеты\n" +
				"02.11.2021;*4556;-110,00;Фастфуд\n",
			wantAmount: "-228,00",
			wantRows:   2,
		},
		{
			name: "comma export with quoted fields",
			input: "Дата платежа,Номер карты,Сумма платежа,Описание\n" +
				"01.11.2021,*4556,-228.00,\"Колхоз, рынок\"\n",
			wantAmount: "-228.00",
			wantRows:   1,
		},
		{
			name:     "header only",
			input:    "Дата платежа;Сумма платежа\n",
			wantRows: 0,
		},
		{
			name:     "empty input",
			input:    "",
			wantRows: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ReadCSV(strings.NewReader(tt.input))
			require.NoError(t, err)
			require.Len(t, records, tt.wantRows)
			if tt.wantRows > 0 {
				assert.Equal(t, "01.11.2021", records[0][model.ColumnPaymentDate])
				assert.Equal(t, tt.wantAmount, records[0][model.ColumnAmount])
			}
		})
	}
}

func TestCSVSource_Records(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "operations.csv")
	require.NoError(t, os.WriteFile(path, []byte("Дата платежа;Номер карты;Сумма платежа\n01.11.2021;*4556;-228\n"), 0o600))

	records, err := NewCSVSource(path, common.DiscardLogger()).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "*4556", records[0][model.ColumnCardNumber])

	records, err = NewCSVSource(filepath.Join(dir, "absent.csv"), common.DiscardLogger()).Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

const statementOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20211115120000[0:GMT]
<LANGUAGE>RUS
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>RUB
<CCACCTFROM>
<ACCTID>5536913800004556
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20211101120000[0:GMT]
<DTEND>20211130120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20211101120000[0:GMT]
<TRNAMT>-228.00
<FITID>1
<SIC>5411
<NAME>KOLKHOZ
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-228.00
<DTASOF>20211130120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestOFXSource_Records(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement.ofx")
	require.NoError(t, os.WriteFile(path, []byte(statementOFX), 0o600))

	records, err := NewOFXSource(path, common.DiscardLogger()).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "01.11.2021", records[0][model.ColumnPaymentDate])
	assert.Equal(t, "*4556", records[0][model.ColumnCardNumber])
	assert.Equal(t, "RUB", records[0][model.ColumnCurrency])

	broken := filepath.Join(dir, "broken.ofx")
	require.NoError(t, os.WriteFile(broken, []byte("garbage"), 0o600))
	records, err = NewOFXSource(broken, common.DiscardLogger()).Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func newTestSheetsService(t *testing.T, handler http.HandlerFunc) *sheets.Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	service, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return service
}

func TestSheetsSource_Records(t *testing.T) {
	var gotPath string
	service := newTestSheetsService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"range": "Operations!A1:H3",
			"majorDimension": "ROWS",
			"values": [
				["Дата платежа", "Номер карты", "Статус", "Сумма платежа"],
				["01.11.2021", "*4556", "OK", -228],
				["02.11.2021", "*4556", "OK", -110.5]
			]
		}`))
	})

	cfg := config.SheetsConfig{SpreadsheetID: "sheet-id", SheetName: "Operations", RetryAttempts: 1}
	records, err := NewSheetsSourceWithService(service, cfg, nil).Records(context.Background())
	require.NoError(t, err)

	assert.Contains(t, gotPath, "/v4/spreadsheets/sheet-id/values/")
	require.Len(t, records, 2)
	assert.Equal(t, "01.11.2021", records[0][model.ColumnPaymentDate])
	assert.InDelta(t, -228.0, records[0][model.ColumnAmount], 0.0001)
	assert.InDelta(t, -110.5, records[1][model.ColumnAmount], 0.0001)
}

func TestSheetsSource_PermanentError(t *testing.T) {
	var calls atomic.Int32
	service := newTestSheetsService(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "forbidden"}}`))
	})

	cfg := config.SheetsConfig{SpreadsheetID: "sheet-id", SheetName: "Operations", RetryAttempts: 3, RetryDelay: time.Millisecond}
	_, err := NewSheetsSourceWithService(service, cfg, nil).Records(context.Background())

	require.ErrorIs(t, err, common.ErrSourceUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		want    any
		wantErr error
		name    string
		source  string
	}{
		{name: "xlsx", source: config.SourceXLSX, want: &XLSXSource{}},
		{name: "csv", source: config.SourceCSV, want: &CSVSource{}},
		{name: "ofx", source: config.SourceOFX, want: &OFXSource{}},
		{name: "sheets without credentials", source: config.SourceSheets, wantErr: common.ErrMissingConfig},
		{name: "unknown", source: "parquet", wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Ledger: config.LedgerConfig{Path: filepath.Join(dir, "ledger"), Source: tt.source}}
			source, err := Open(context.Background(), cfg, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, source)
		})
	}
}
