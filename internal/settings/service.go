package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/redis"
)

// Settings are the store-wide values the pricing core reads.
type Settings struct {
	Currency       string          `json:"currency"`
	NearestValue   decimal.Decimal `json:"nearest_value"`
	TaxBase        enums.TaxBase   `json:"tax_base"`
	HonorTaxExempt bool            `json:"honor_tax_exempt"`
}

// Policy converts settings into calculator switches.
func (s Settings) Policy() pricing.Policy {
	return pricing.Policy{
		TaxBase:        s.TaxBase,
		HonorTaxExempt: s.HonorTaxExempt,
		NearestValue:   s.NearestValue,
	}
}

// UpdateInput patches settings; nil fields keep their current value.
type UpdateInput struct {
	Currency       *string
	NearestValue   *decimal.Decimal
	TaxBase        *string
	HonorTaxExempt *bool
}

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Service reads settings through a redis cache backed by the settings row,
// falling back to config defaults when no row exists.
type Service interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, input UpdateInput) (Settings, error)
}

type service struct {
	repo     Repository
	cache    cache
	defaults Settings
	ttl      time.Duration
	logg     *logger.Logger
}

// NewService wires the settings service. cache may be nil.
func NewService(repo Repository, c cache, cfg config.StoreConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{
		repo:  repo,
		cache: c,
		defaults: Settings{
			Currency:       strings.ToUpper(cfg.Currency),
			NearestValue:   cfg.NearestValue,
			TaxBase:        enums.TaxBase(cfg.TaxBase),
			HonorTaxExempt: cfg.HonorTaxExempt,
		},
		ttl:  cfg.SettingsCacheTTL,
		logg: logg,
	}, nil
}

func (s *service) cacheKey() string {
	return s.cache.CacheKey("settings", "store")
}

func (s *service) Get(ctx context.Context) (Settings, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, s.cacheKey()); err == nil {
			var cached Settings
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return cached, nil
			}
		} else if !redis.IsNil(err) {
			s.warn(ctx, "settings cache read failed", err)
		}
	}

	row, err := s.repo.Get(ctx)
	if err != nil {
		if db.IsNotFound(err) {
			return s.defaults, nil
		}
		return Settings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store settings")
	}

	current := fromRow(row)
	s.store(ctx, current)
	return current, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}

	if input.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*input.Currency))
		if len(currency) != 3 {
			return Settings{}, pkgerrors.New(pkgerrors.CodeValidation, "currency must be a 3-letter ISO code")
		}
		current.Currency = currency
	}
	if input.NearestValue != nil {
		if input.NearestValue.IsNegative() {
			return Settings{}, pkgerrors.New(pkgerrors.CodeValidation, "nearest value must not be negative")
		}
		current.NearestValue = *input.NearestValue
	}
	if input.TaxBase != nil {
		base, err := enums.ParseTaxBase(*input.TaxBase)
		if err != nil {
			return Settings{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "tax base must be pre_discount or post_discount")
		}
		current.TaxBase = base
	}
	if input.HonorTaxExempt != nil {
		current.HonorTaxExempt = *input.HonorTaxExempt
	}

	row := &models.StoreSetting{
		Currency:       current.Currency,
		NearestValue:   current.NearestValue,
		TaxBase:        current.TaxBase,
		HonorTaxExempt: current.HonorTaxExempt,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return Settings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save store settings")
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, s.cacheKey()); err != nil {
			s.warn(ctx, "settings cache invalidation failed", err)
		}
	}
	return current, nil
}

func (s *service) store(ctx context.Context, value Settings) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(), string(payload), s.ttl); err != nil {
		s.warn(ctx, "settings cache write failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

func fromRow(row *models.StoreSetting) Settings {
	return Settings{
		Currency:       row.Currency,
		NearestValue:   row.NearestValue,
		TaxBase:        row.TaxBase,
		HonorTaxExempt: row.HonorTaxExempt,
	}
}
