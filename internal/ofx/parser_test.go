package ofx

import (
	"context"
	"strings"
	"testing"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/card-ledger/internal/model"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
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
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEP
<DTPOSTED>20240126120000[0:GMT]
<TRNAMT>2000.00
<FITID>2024012601
<NAME>PAYROLL
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
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
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
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
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<SIC>5942
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 4,
		},
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser(nil)
			reader := strings.NewReader(tt.ofxData)

			records, err := parser.ParseFile(context.Background(), reader)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, records, tt.expectedCount)
			}
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	parser := NewParser(nil)

	records, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, records, 4)

	first := records[0]
	assert.Equal(t, "15.01.2024", first[model.ColumnPaymentDate])
	assert.Equal(t, "*7890", first[model.ColumnCardNumber])
	assert.Equal(t, "-25.50", first[model.ColumnAmount])
	assert.Equal(t, "USD", first[model.ColumnCurrency])
	assert.Equal(t, StatusOK, first[model.ColumnStatus])
	assert.Equal(t, "STARBUCKS STORE #1234", first[model.ColumnDescription])
	assert.NotContains(t, first, model.ColumnMCC)

	assert.Equal(t, "Whole Foods Market", records[1][model.ColumnDescription])
	assert.Equal(t, "-500.00", records[2][model.ColumnAmount])

	deposit := records[3]
	assert.Equal(t, "2000.00", deposit[model.ColumnAmount])
	assert.Equal(t, model.CategoryTopUps, deposit[model.ColumnCategory])
}

func TestParseCreditCardTransactions(t *testing.T) {
	parser := NewParser(nil)

	records, err := parser.ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, records, 2)

	amazon := records[0]
	assert.Equal(t, "*1111", amazon[model.ColumnCardNumber])
	assert.Equal(t, "-45.99", amazon[model.ColumnAmount])
	assert.Equal(t, int64(5942), amazon[model.ColumnMCC])
	assert.Equal(t, "AMAZON.COM*RT4Y7HG2", amazon[model.ColumnDescription])

	assert.Equal(t, "NETFLIX.COM", records[1][model.ColumnDescription])
	assert.Equal(t, "-15.00", records[1][model.ColumnAmount])
}

func TestParseFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(nil).ParseFile(ctx, strings.NewReader(sampleBankOFX))
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser(nil)

	tests := []struct {
		name     string
		input    string
		memo     string
		expected string
	}{
		{
			name:     "remove POS prefix",
			input:    "POS PURCHASE STARBUCKS",
			expected: "STARBUCKS",
		},
		{
			name:     "remove DEBIT CARD prefix",
			input:    "DEBIT CARD PURCHASE WHOLE FOODS",
			expected: "WHOLE FOODS",
		},
		{
			name:     "keep clean name",
			input:    "NETFLIX.COM",
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			input:    "  AMAZON.COM  ",
			expected: "AMAZON.COM",
		},
		{
			name:     "generic name falls back to memo",
			input:    "PAYMENT",
			memo:     "ПЯТЕРОЧКА 1234",
			expected: "ПЯТЕРОЧКА 1234",
		},
		{
			name:     "leading date removed",
			input:    "01/15 COFFEE HOUSE",
			expected: "COFFEE HOUSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.input),
				Memo: ofxgo.String(tt.memo),
			}
			assert.Equal(t, tt.expected, parser.extractMerchantName(tx))
		})
	}
}

func TestMaskAccount(t *testing.T) {
	assert.Equal(t, "*1111", MaskAccount("4111111111111111"))
	assert.Equal(t, "*12", MaskAccount("12"))
	assert.Equal(t, "*7890", MaskAccount(" 1234567890 "))
}

func TestAccounts(t *testing.T) {
	parser := NewParser(nil)

	accounts, err := parser.Accounts(strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"*7890"}, accounts)

	accounts, err = parser.Accounts(strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"*1111"}, accounts)
}

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		tx       ofxgo.Transaction
	}{
		{name: "deposit", tx: ofxgo.Transaction{TrnType: ofxgo.TrnTypeDep}, expected: model.CategoryTopUps},
		{name: "direct deposit", tx: ofxgo.Transaction{TrnType: ofxgo.TrnTypeDirectDep}, expected: model.CategoryTopUps},
		{name: "transfer", tx: ofxgo.Transaction{TrnType: ofxgo.TrnTypeXfer}, expected: model.CategoryTransfers},
		{name: "fee", tx: ofxgo.Transaction{TrnType: ofxgo.TrnTypeFee}, expected: "Комиссии"},
		{name: "atm", tx: ofxgo.Transaction{TrnType: ofxgo.TrnTypeATM}, expected: "Наличные"},
		{name: "interest", tx: ofxgo.Transaction{TrnType: ofxgo.TrnTypeInt}, expected: "Проценты"},
		{name: "debit", tx: ofxgo.Transaction{TrnType: ofxgo.TrnTypeDebit}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, categoryFor(tt.tx))
		})
	}
}
