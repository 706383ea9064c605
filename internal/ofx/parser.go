// Package ofx converts OFX/QFX bank and credit card statements into ledger rows.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/model"
)

// StatusOK is the status written for every posted statement transaction.
const StatusOK = "OK"

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser implements OFX/QFX file parsing.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	return &Parser{logger: logger}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML exports sometimes drop the closing bracket of a bare opening tag.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file into ledger rows.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.RawRecord, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var records []model.RawRecord
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			records = append(records, p.convertStatement(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID), stmt.CurDef.String())...)
		}
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			records = append(records, p.convertStatement(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID), stmt.CurDef.String())...)
		}
	}

	p.logger.Info("Parsed OFX file",
		"total_records", len(records),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return records, nil
}

func (p *Parser) convertStatement(list *ofxgo.TransactionList, accountID, currency string) []model.RawRecord {
	if list == nil {
		return nil
	}

	records := make([]model.RawRecord, 0, len(list.Transactions))
	for _, ofxTx := range list.Transactions {
		records = append(records, p.convertTransaction(ofxTx, accountID, currency))
	}
	return records
}

// convertTransaction maps one statement transaction onto the ledger columns.
// OFX amounts are already signed with debits negative.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID, currency string) model.RawRecord {
	record := model.RawRecord{
		model.ColumnPaymentDate: ofxTx.DtPosted.Time.Format(model.LedgerDateLayout),
		model.ColumnCardNumber:  MaskAccount(accountID),
		model.ColumnStatus:      StatusOK,
		model.ColumnAmount:      ofxTx.TrnAmt.FloatString(2),
		model.ColumnCurrency:    currency,
		model.ColumnCategory:    categoryFor(ofxTx),
		model.ColumnDescription: p.extractMerchantName(ofxTx),
	}

	if ofxTx.SIC != 0 {
		record[model.ColumnMCC] = int64(ofxTx.SIC)
	}
	if ofxTx.Currency != nil && ofxTx.Currency.CurSym.String() != "" {
		record[model.ColumnCurrency] = ofxTx.Currency.CurSym.String()
	}

	return record
}

// categoryFor infers a ledger category from the transaction type where OFX allows it.
func categoryFor(tx ofxgo.Transaction) string {
	switch tx.TrnType {
	case ofxgo.TrnTypeInt, ofxgo.TrnTypeDiv:
		return "Проценты"
	case ofxgo.TrnTypeFee, ofxgo.TrnTypeSrvChg:
		return "Комиссии"
	case ofxgo.TrnTypeATM, ofxgo.TrnTypeCash:
		return "Наличные"
	case ofxgo.TrnTypeDep, ofxgo.TrnTypeDirectDep:
		return model.CategoryTopUps
	case ofxgo.TrnTypeXfer:
		return model.CategoryTransfers
	}
	return ""
}

// MaskAccount renders an account id the way the ledger masks card numbers.
func MaskAccount(accountID string) string {
	accountID = strings.TrimSpace(accountID)
	if len(accountID) > 4 {
		accountID = accountID[len(accountID)-4:]
	}
	return "*" + accountID
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)

	// MEMO is often more specific than a generic NAME.
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}

	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}

	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Drop a leading MM/DD.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}

// Accounts returns the masked card numbers present in the file, sorted.
func (p *Parser) Accounts(reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	accountMap := make(map[string]bool)
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankAcctFrom.AcctID != "" {
			accountMap[MaskAccount(string(stmt.BankAcctFrom.AcctID))] = true
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.CCAcctFrom.AcctID != "" {
			accountMap[MaskAccount(string(stmt.CCAcctFrom.AcctID))] = true
		}
	}

	accounts := make([]string, 0, len(accountMap))
	for acct := range accountMap {
		accounts = append(accounts, acct)
	}
	sort.Strings(accounts)

	return accounts, nil
}
