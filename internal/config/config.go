// Package config reads the tally.yaml file at the root of a snapshot
// directory and the server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/accounts"
)

// FileName is the config file name inside a snapshot root.
const FileName = "tally.yaml"

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Fiscal   FiscalConfig   `yaml:"fiscal"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Aging    AgingConfig    `yaml:"aging"`
}

// BusinessConfig identifies the reporting entity.
type BusinessConfig struct {
	Name       string `yaml:"name"`
	EntityType string `yaml:"entity_type" validate:"omitempty,oneof=small_business nonprofit"`
	Currency   string `yaml:"currency" validate:"omitempty,len=3,uppercase"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start" validate:"omitempty,datetime=01-02"` // "MM-DD", e.g. "07-01"
}

// LedgerConfig names the sub-accounts used when a source record leaves a
// leg implicit, and the accounts the cash-flow statement treats as cash.
type LedgerConfig struct {
	CashAccounts      []string `yaml:"cash_accounts,omitempty" validate:"dive,required"`
	CashAccount       string   `yaml:"cash_account"`
	ReceivableAccount string   `yaml:"receivable_account"`
	PayableAccount    string   `yaml:"payable_account"`
}

// AgingConfig sets the upper day bound of each aging bucket.
type AgingConfig struct {
	Buckets []int `yaml:"buckets,omitempty" validate:"dive,gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Path returns the config path inside a snapshot root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Load reads a tally.yaml file from disk and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDir reads tally.yaml from a snapshot root. A missing file yields the
// defaults, so a bare directory of CSVs can still be reported on.
func LoadDir(root string) (*Config, error) {
	cfg, err := Load(Path(root))
	if errors.Is(err, os.ErrNotExist) {
		return Default("", ""), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName, entityType string) *Config {
	if entityType == "" {
		entityType = "small_business"
	}
	return &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: entityType,
			Currency:   "USD",
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Ledger: LedgerConfig{
			CashAccounts:      []string{accounts.DefaultCashAccount, accounts.DefaultBankAccount},
			CashAccount:       accounts.DefaultBankAccount,
			ReceivableAccount: accounts.DefaultReceivableAccount,
			PayableAccount:    accounts.DefaultPayableAccount,
		},
		Aging: AgingConfig{
			Buckets: []int{30, 60, 90, 120},
		},
	}
}

// fillDefaults sets every empty setting the reporting pipeline depends on.
func (c *Config) fillDefaults() {
	d := Default(c.Business.Name, c.Business.EntityType)
	if c.Business.EntityType == "" {
		c.Business.EntityType = d.Business.EntityType
	}
	if c.Business.Currency == "" {
		c.Business.Currency = d.Business.Currency
	}
	if c.Fiscal.YearStart == "" {
		c.Fiscal.YearStart = d.Fiscal.YearStart
	}
	if c.Ledger.CashAccount == "" {
		c.Ledger.CashAccount = d.Ledger.CashAccount
	}
	if len(c.Ledger.CashAccounts) == 0 {
		c.Ledger.CashAccounts = d.Ledger.CashAccounts
		if !slices.Contains(c.Ledger.CashAccounts, c.Ledger.CashAccount) {
			c.Ledger.CashAccounts = append(c.Ledger.CashAccounts, c.Ledger.CashAccount)
		}
	}
	if c.Ledger.ReceivableAccount == "" {
		c.Ledger.ReceivableAccount = d.Ledger.ReceivableAccount
	}
	if c.Ledger.PayableAccount == "" {
		c.Ledger.PayableAccount = d.Ledger.PayableAccount
	}
	if len(c.Aging.Buckets) == 0 {
		c.Aging.Buckets = d.Aging.Buckets
	}
}

// Validate checks field formats and that aging buckets ascend.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if !sort.IntsAreSorted(c.Aging.Buckets) {
		return fmt.Errorf("aging buckets %v must be ascending", c.Aging.Buckets)
	}
	for i := 1; i < len(c.Aging.Buckets); i++ {
		if c.Aging.Buckets[i] == c.Aging.Buckets[i-1] {
			return fmt.Errorf("aging bucket %d is listed twice", c.Aging.Buckets[i])
		}
	}
	return nil
}

// FiscalYear returns the first and last day of the fiscal year that starts
// in the given calendar year.
func (c *Config) FiscalYear(year int) (start, end time.Time, err error) {
	ys := c.Fiscal.YearStart
	if ys == "" {
		ys = "01-01"
	}
	md, err := time.Parse("01-02", ys)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing fiscal year start %q: %w", ys, err)
	}
	start = time.Date(year, md.Month(), md.Day(), 0, 0, 0, 0, time.UTC)
	end = start.AddDate(1, 0, -1)
	return start, end, nil
}
