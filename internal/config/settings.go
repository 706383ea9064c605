package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/card-ledger/internal/common"
)

// UserSettings lists the currencies and stocks the user tracks.
type UserSettings struct {
	Currencies []string
	Stocks     []string
}

// LoadUserSettings reads the user settings JSON file at path.
//
// Each of user_currencies and user_stocks may be a list of codes or an object whose
// keys are the codes. A missing or malformed file yields empty settings.
func LoadUserSettings(path string, logger *slog.Logger) UserSettings {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	settings := UserSettings{Currencies: []string{}, Stocks: []string{}}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("User settings file not found", "path", path)
		} else {
			logger.Error("Cannot access user settings file", "path", path, "error", err)
		}
		return settings
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		logger.Error("Failed to decode user settings", "path", path, "error", err)
		return settings
	}

	var err error
	if settings.Currencies, err = symbols(v.Get("user_currencies")); err != nil {
		logger.Error("Invalid user_currencies", "path", path, "error", err)
		settings.Currencies = []string{}
	}
	if settings.Stocks, err = symbols(v.Get("user_stocks")); err != nil {
		logger.Error("Invalid user_stocks", "path", path, "error", err)
		settings.Stocks = []string{}
	}

	logger.Info("Loaded user settings",
		"path", path,
		"currencies", len(settings.Currencies),
		"stocks", len(settings.Stocks))

	return settings
}

// symbols flattens a list or mapping of codes into upper-case symbols.
// Mapping keys come back lower-cased from viper, so they are restored and sorted.
func symbols(value any) ([]string, error) {
	out := []string{}
	switch val := value.(type) {
	case nil:
		return out, nil
	case []any:
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: symbol %v is not a string", common.ErrInvalidConfig, item)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, strings.ToUpper(s))
			}
		}
	case []string:
		for _, s := range val {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, strings.ToUpper(s))
			}
		}
	case map[string]any:
		for key := range val {
			out = append(out, strings.ToUpper(key))
		}
		sort.Strings(out)
	case string:
		if s := strings.TrimSpace(val); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	default:
		return nil, fmt.Errorf("%w: unsupported symbol list %T", common.ErrInvalidConfig, value)
	}
	return out, nil
}
