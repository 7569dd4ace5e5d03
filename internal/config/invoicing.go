package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InvoicingConfig is the hot-reloadable policy for invoice numbering and payouts.
type InvoicingConfig struct {
	Sequence SequencePolicy `mapstructure:"sequence"`
	Tax      TaxPolicy      `mapstructure:"tax"`
	Payout   PayoutPolicy   `mapstructure:"payout"`
}

type SequencePolicy struct {
	DefaultStart int64 `mapstructure:"default_start"`
	MaxProbe     int   `mapstructure:"max_probe"`
	CASRetries   int   `mapstructure:"cas_retries"`
}

type TaxPolicy struct {
	ItbisRate string `mapstructure:"itbis_rate"`
}

// Rate parses the configured tax rate. Validation guarantees it parses.
func (t TaxPolicy) Rate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(t.ItbisRate))
	if err != nil {
		return decimal.RequireFromString("0.18")
	}
	return rate
}

type PayoutPolicy struct {
	Category        string `mapstructure:"category"`
	OwnerNamePrefix string `mapstructure:"owner_name_prefix"`
}

func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		Sequence: SequencePolicy{
			DefaultStart: 1600,
			MaxProbe:     100,
			CASRetries:   10,
		},
		Tax: TaxPolicy{
			ItbisRate: "0.18",
		},
		Payout: PayoutPolicy{
			Category:        "owner-payout",
			OwnerNamePrefix: "Propietario",
		},
	}
}

type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

// NewStaticInvoicingConfig returns a holder that never reloads.
func NewStaticInvoicingConfig(cfg InvoicingConfig) *InvoicingConfigHolder {
	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewInvoicingConfigHolder(log *zap.Logger) (*InvoicingConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("invoicing.config")

	v := viper.New()

	v.SetConfigName("invoicing")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/villadesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VILLADESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoicingConfig()
	v.SetDefault("invoicing.sequence.default_start", defaults.Sequence.DefaultStart)
	v.SetDefault("invoicing.sequence.max_probe", defaults.Sequence.MaxProbe)
	v.SetDefault("invoicing.sequence.cas_retries", defaults.Sequence.CASRetries)
	v.SetDefault("invoicing.tax.itbis_rate", defaults.Tax.ItbisRate)
	v.SetDefault("invoicing.payout.category", defaults.Payout.Category)
	v.SetDefault("invoicing.payout.owner_name_prefix", defaults.Payout.OwnerNamePrefix)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	var cfg InvoicingConfig
	if err := v.UnmarshalKey("invoicing", &cfg); err != nil {
		return nil, err
	}
	if err := validateInvoicingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticInvoicingConfig(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated InvoicingConfig
		if err := v.UnmarshalKey("invoicing", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateInvoicingConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *InvoicingConfigHolder) Get() InvoicingConfig {
	if h == nil {
		return DefaultInvoicingConfig()
	}
	cfg, ok := h.current.Load().(InvoicingConfig)
	if !ok {
		return DefaultInvoicingConfig()
	}
	return cfg
}

func validateInvoicingConfig(cfg InvoicingConfig) error {
	if cfg.Sequence.DefaultStart < 1 {
		return errors.New("invoicing.sequence.default_start must be >= 1")
	}
	if cfg.Sequence.MaxProbe < 1 {
		return errors.New("invoicing.sequence.max_probe must be >= 1")
	}
	if cfg.Sequence.CASRetries < 1 {
		return errors.New("invoicing.sequence.cas_retries must be >= 1")
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(cfg.Tax.ItbisRate))
	if err != nil {
		return errors.New("invoicing.tax.itbis_rate must be a decimal")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("invoicing.tax.itbis_rate must be between 0 and 1")
	}
	if strings.TrimSpace(cfg.Payout.Category) == "" {
		return errors.New("invoicing.payout.category cannot be empty")
	}
	return nil
}
