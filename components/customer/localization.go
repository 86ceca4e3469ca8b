package customer

import (
	"context"
	"strings"
)

// TranslationService exposes locale-aware label lookups. Implementations may
// be backed by a CMS or message catalogue; the dashboard only needs plain strings.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// Labels are the card captions shown on the dashboard.
type Labels struct {
	Open      string
	Cancelled string
	Completed string
	Unbilled  string
	Balance   string
}

var defaultLabels = Labels{
	Open:      "Ongoing Projects",
	Cancelled: "Cancelled Projects",
	Completed: "Completed Projects",
	Unbilled:  "Unbilled Projects",
	Balance:   "Ledger Balance",
}

func (s *Service) labels(ctx context.Context, locale string) Labels {
	tr := s.opts.Translator
	return Labels{
		Open:      translateOrFallback(ctx, tr, "customer.dashboard.open", locale, defaultLabels.Open, nil),
		Cancelled: translateOrFallback(ctx, tr, "customer.dashboard.cancelled", locale, defaultLabels.Cancelled, nil),
		Completed: translateOrFallback(ctx, tr, "customer.dashboard.completed", locale, defaultLabels.Completed, nil),
		Unbilled:  translateOrFallback(ctx, tr, "customer.dashboard.unbilled", locale, defaultLabels.Unbilled, nil),
		Balance:   translateOrFallback(ctx, tr, "customer.dashboard.balance", locale, defaultLabels.Balance, nil),
	}
}

// Catalog is a static TranslationService keyed by locale then message key.
// Language-region locales (`es-mx`) fall back to their base language (`es`).
type Catalog map[string]map[string]string

// Translate implements TranslationService.
func (c Catalog) Translate(_ context.Context, key, locale string, _ map[string]any) (string, error) {
	for _, candidate := range localeCandidates(locale) {
		for loc, messages := range c {
			if !strings.EqualFold(loc, candidate) {
				continue
			}
			if value := messages[key]; value != "" {
				return value, nil
			}
		}
	}
	return "", nil
}

type localeKey struct{}

// WithLocale stores the viewer locale on ctx for fragment rendering.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, normalizeLocale(locale))
}

// LocaleFromContext returns the locale stored by WithLocale, or "".
func LocaleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	locale, _ := ctx.Value(localeKey{}).(string)
	return locale
}

// ParseAcceptLanguage returns the first language tag of an Accept-Language header.
func ParseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return normalizeLocale(token)
		}
	}
	return ""
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	if idx := strings.Index(locale, "-"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	return append(candidates, "default")
}

func normalizeLocale(locale string) string {
	return strings.TrimSpace(strings.ToLower(locale))
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}
