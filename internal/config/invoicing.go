package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// InvoicingPolicy is the financial policy applied by the invoice engine.
// Amounts are in minor units.
type InvoicingPolicy struct {
	Currency          string `mapstructure:"currency"`
	LateFeeAmount     int64  `mapstructure:"lateFeeAmount"`
	LateFeeLabel      string `mapstructure:"lateFeeLabel"`
	ReminderLeadDays  int    `mapstructure:"reminderLeadDays"`
	InvoiceNumPrefix  string `mapstructure:"invoiceNumPrefix"`
	PaymentLinkExpiry int    `mapstructure:"paymentLinkExpiryDays"`
}

func DefaultInvoicingPolicy() InvoicingPolicy {
	return InvoicingPolicy{
		Currency:          "INR",
		LateFeeAmount:     50_000, // ₹500.00
		LateFeeLabel:      "Late Fee",
		ReminderLeadDays:  1,
		InvoiceNumPrefix:  "INV",
		PaymentLinkExpiry: 30,
	}
}

// InvoicingHolder keeps the active policy behind an atomic so the scheduler
// and engine pick up hot reloads without restart.
type InvoicingHolder struct {
	current atomic.Value // holds InvoicingPolicy
}

func NewInvoicingHolder() (*InvoicingHolder, error) {
	v := viper.New()

	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/invosync")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INVOSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoicingPolicy()
	v.SetDefault("invoicing.currency", defaults.Currency)
	v.SetDefault("invoicing.lateFeeAmount", defaults.LateFeeAmount)
	v.SetDefault("invoicing.lateFeeLabel", defaults.LateFeeLabel)
	v.SetDefault("invoicing.reminderLeadDays", defaults.ReminderLeadDays)
	v.SetDefault("invoicing.invoiceNumPrefix", defaults.InvoiceNumPrefix)
	v.SetDefault("invoicing.paymentLinkExpiryDays", defaults.PaymentLinkExpiry)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var policy InvoicingPolicy
	if err := v.UnmarshalKey("invoicing", &policy); err != nil {
		return nil, err
	}
	if err := validateInvoicingPolicy(policy); err != nil {
		return nil, err
	}

	holder := &InvoicingHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated InvoicingPolicy
		if err := v.UnmarshalKey("invoicing", &updated); err != nil {
			log.Printf("[invoicing-config] reload failed: %v", err)
			return
		}
		if err := validateInvoicingPolicy(updated); err != nil {
			log.Printf("[invoicing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
	})

	return holder, nil
}

// NewStaticInvoicingHolder wraps a fixed policy, for tests.
func NewStaticInvoicingHolder(policy InvoicingPolicy) *InvoicingHolder {
	holder := &InvoicingHolder{}
	holder.current.Store(policy)
	return holder
}

func (h *InvoicingHolder) Current() InvoicingPolicy {
	return h.current.Load().(InvoicingPolicy)
}

func validateInvoicingPolicy(p InvoicingPolicy) error {
	if strings.TrimSpace(p.Currency) == "" {
		return errors.New("invoicing currency is required")
	}
	if p.LateFeeAmount < 0 {
		return errors.New("late fee amount must be non-negative")
	}
	if strings.TrimSpace(p.LateFeeLabel) == "" {
		return errors.New("late fee label is required")
	}
	if p.ReminderLeadDays < 0 {
		return errors.New("reminder lead days must be non-negative")
	}
	return nil
}
