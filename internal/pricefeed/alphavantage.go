package pricefeed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/config"
	"github.com/Veraticus/card-ledger/internal/model"
)

// AlphaVantageFeed is the feed name reported in errors and logs.
const AlphaVantageFeed = "alphavantage"

const globalQuotePrice = `$["Global Quote"]["05. price"]`

// AlphaVantageClient quotes stocks through the Alpha Vantage GLOBAL_QUOTE function.
type AlphaVantageClient struct {
	*feed
	baseURL string
	apiKey  string
}

// NewAlphaVantageClient creates a client. A nil httpClient builds one from cfg.
func NewAlphaVantageClient(cfg config.FeedConfig, httpClient *http.Client, logger *slog.Logger) *AlphaVantageClient {
	return &AlphaVantageClient{
		feed:    newFeed(AlphaVantageFeed, cfg, httpClient, logger),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// Price returns the latest price of symbol.
func (c *AlphaVantageClient) Price(ctx context.Context, symbol string) (model.StockPrice, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	query := url.Values{}
	query.Set("function", "GLOBAL_QUOTE")
	query.Set("symbol", symbol)
	query.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "/query?" + query.Encode()

	value, err := c.lookup(ctx, symbol, endpoint, globalQuotePrice, checkAlphaVantageNotice)
	if err != nil {
		return model.StockPrice{}, err
	}
	return model.StockPrice{Stock: symbol, Price: value}, nil
}

// checkAlphaVantageNotice turns the throttling and error notices the API returns
// with status 200 into errors.
func checkAlphaVantageNotice(doc any) error {
	if msg := stringAt(doc, `$["Error Message"]`); msg != "" {
		return fmt.Errorf("%w: %s", ErrValueNotFound, msg)
	}
	for _, key := range []string{"Note", "Information"} {
		if msg := stringAt(doc, fmt.Sprintf("$[%q]", key)); msg != "" {
			return fmt.Errorf("%w: %s", common.ErrRateLimit, msg)
		}
	}
	return nil
}
