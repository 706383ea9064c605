package pricefeed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Veraticus/card-ledger/internal/config"
	"github.com/Veraticus/card-ledger/internal/model"
)

// ExchangeRateFeed is the feed name reported in errors and logs.
const ExchangeRateFeed = "exchangerate"

// ExchangeRateClient quotes currencies through the exchangerate-api v6 "latest" endpoint.
type ExchangeRateClient struct {
	*feed
	baseURL string
	apiKey  string
	quote   string
}

// NewExchangeRateClient creates a client. A nil httpClient builds one from cfg.
func NewExchangeRateClient(cfg config.FeedConfig, httpClient *http.Client, logger *slog.Logger) *ExchangeRateClient {
	quote := strings.ToUpper(cfg.QuoteCurrency)
	if quote == "" {
		quote = "RUB"
	}
	return &ExchangeRateClient{
		feed:    newFeed(ExchangeRateFeed, cfg, httpClient, logger),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		quote:   quote,
	}
}

// Rate returns how many units of the quote currency one unit of code buys.
func (c *ExchangeRateClient) Rate(ctx context.Context, code string) (model.Rate, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	endpoint := fmt.Sprintf("%s/v6/%s/latest/%s", c.baseURL, url.PathEscape(c.apiKey), url.PathEscape(code))

	value, err := c.lookup(ctx, code, endpoint, "$.conversion_rates."+c.quote, checkExchangeRateResult)
	if err != nil {
		return model.Rate{}, err
	}
	return model.Rate{Currency: code, Rate: value}, nil
}

// checkExchangeRateResult surfaces the API's own error type when it reports one.
func checkExchangeRateResult(doc any) error {
	if stringAt(doc, "$.result") != "error" {
		return nil
	}
	errType := stringAt(doc, `$["error-type"]`)
	if errType == "" {
		errType = "unknown"
	}
	return fmt.Errorf("%w: api error %s", ErrValueNotFound, errType)
}
