package normalizer

import (
	"strings"

	"carbroker/internal/supplier/fields"
	"carbroker/pkg/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical extra names, shared with the booking request flags.
const (
	ExtraBabySeat         = "baby_seat"
	ExtraAdditionalDriver = "additional_driver"
	ExtraNavigation       = "navigation"
	ExtraCDW              = "cdw"
	ExtraSCDW             = "scdw"
	ExtraLCF              = "lcf"
	ExtraYoungDriver      = "young_driver"
)

var AllExtras = []string{
	ExtraBabySeat, ExtraAdditionalDriver, ExtraNavigation,
	ExtraCDW, ExtraSCDW, ExtraLCF, ExtraYoungDriver,
}

// serviceAliases maps lowercase vendor service names to canonical extras.
var serviceAliases = map[string]string{
	"baby_seat":         ExtraBabySeat,
	"babyseat":          ExtraBabySeat,
	"addition_drive":    ExtraAdditionalDriver,
	"additional_driver": ExtraAdditionalDriver,
	"additionaldriver":  ExtraAdditionalDriver,
	"navigation":        ExtraNavigation,
	"gps":               ExtraNavigation,
	"cdw":               ExtraCDW,
	"scdw":              ExtraSCDW,
	"lcf":               ExtraLCF,
	"young_driver":      ExtraYoungDriver,
	"youngdriver":       ExtraYoungDriver,
}

var legacyExtras = map[string]fields.Field{
	ExtraBabySeat:         fields.LegacyBabySeat,
	ExtraAdditionalDriver: fields.LegacyAdditionalDriver,
	ExtraNavigation:       fields.LegacyNavigation,
	ExtraCDW:              fields.LegacyCDW,
	ExtraSCDW:             fields.LegacySCDW,
	ExtraLCF:              fields.LegacyLCF,
	ExtraYoungDriver:      fields.LegacyYoungDriver,
}

// extractExtras returns per-day prices for every known extra. Service line
// items win; legacy top-level totals fill the rest; anything else is 0.
func (n *Normalizer) extractExtras(rec model.RawRecord, days int) (map[string]float64, map[string]model.ExtraInfo) {
	if days < 1 {
		days = 1
	}
	prices := make(map[string]float64, len(AllExtras))
	info := make(map[string]model.ExtraInfo)

	for _, item := range n.serviceItems(rec) {
		name, ok := n.resolver.String(item, fields.ServiceName)
		if !ok {
			continue
		}
		key, known := serviceAliases[strings.ToLower(strings.TrimSpace(name))]
		if !known {
			n.log.Warn("Unknown vendor service ignored", "service_name", name)
			continue
		}
		total, ok := n.resolver.Float(item, fields.ServiceTotalPrice)
		if !ok || total <= 0 {
			continue
		}
		prices[key] = total / float64(days)
		info[key] = model.ExtraInfo{
			Title:       cases.Title(language.English, cases.NoLower).String(strings.ReplaceAll(name, "_", " ")),
			Description: n.resolver.StringOr(item, fields.ServiceDesc, ""),
		}
	}

	for _, key := range AllExtras {
		if _, done := prices[key]; done {
			continue
		}
		if total, ok := n.resolver.Float(rec, legacyExtras[key]); ok && total > 0 {
			prices[key] = total / float64(days)
			continue
		}
		prices[key] = 0
	}
	return prices, info
}

func (n *Normalizer) serviceItems(rec model.RawRecord) []model.RawRecord {
	v, ok := n.resolver.Resolve(rec, fields.Services)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]model.RawRecord, 0, len(list))
	for _, entry := range list {
		switch m := entry.(type) {
		case map[string]any:
			items = append(items, model.RawRecord(m))
		case model.RawRecord:
			items = append(items, m)
		}
	}
	return items
}
