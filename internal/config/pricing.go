package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// FundingTier is the share of the event price a delegate pays themselves.
type FundingTier struct {
	Category   string  `mapstructure:"category"`
	Multiplier float64 `mapstructure:"multiplier"`
}

type PricingConfig struct {
	FundingTiers []FundingTier `mapstructure:"fundingTiers"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		FundingTiers: []FundingTier{
			{Category: "SELF_FUNDED", Multiplier: 1.0},
			{Category: "PARTIALLY_FUNDED", Multiplier: 0.75},
			{Category: "FULLY_FUNDED", Multiplier: 0.5},
		},
	}
}

type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/youthbridge/config")
	v.AddConfigPath("/etc/youthbridge")
	v.AddConfigPath(".")

	v.SetEnvPrefix("YOUTHBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPricingConfig()
		v.SetDefault("pricing.fundingTiers", defaults.FundingTiers)
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.FundingTiers) == 0 {
		cfg = DefaultPricingConfig()
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

// Multiplier returns the tier multiplier for a funding category, or false
// when the category is unknown.
func (h *PricingConfigHolder) Multiplier(category string) (float64, bool) {
	category = strings.ToUpper(strings.TrimSpace(category))
	for _, tier := range h.Get().FundingTiers {
		if strings.ToUpper(strings.TrimSpace(tier.Category)) == category {
			return tier.Multiplier, true
		}
	}
	return 0, false
}

func validatePricingConfig(cfg PricingConfig) error {
	if len(cfg.FundingTiers) == 0 {
		return errors.New("pricing.fundingTiers cannot be empty")
	}
	for _, tier := range cfg.FundingTiers {
		if strings.TrimSpace(tier.Category) == "" {
			return errors.New("pricing.fundingTiers category cannot be empty")
		}
		if tier.Multiplier <= 0 || tier.Multiplier > 1 {
			return errors.New("pricing.fundingTiers multiplier must be in (0, 1]")
		}
	}
	return nil
}
