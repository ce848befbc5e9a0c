package snapshot

import (
	"strings"
	"time"
)

// Key suffixes. The stored key is the crop prefix followed by the suffix,
// e.g. "milho_area_propria_ha".
const (
	KeyBreakEnabled     = "simular_quebra"
	KeyBreakPct         = "perc_quebra"
	KeyOwnedArea        = "area_propria_ha"
	KeyLeasedArea       = "area_arrendada_ha"
	KeyYield            = "produtividade_sc_ha"
	KeyOpCostPerHa      = "custo_operacional_ha"
	KeyHedgedPct        = "perc_travado_pct"
	KeyHedgePrice       = "preco_travado"
	KeyMarketPrice      = "preco_mercado"
	KeyTargetMarginPct  = "margem_alvo_pct"
	KeyFinancedPct      = "perc_financiado_pct"
	KeyAnnualRatePct    = "taxa_juros_aa_pct"
	KeyDisbursementDate = "data_desembolso"
	KeyPaymentDate      = "data_pagamento"
	KeyLeaseSacksPerHa  = "arrendamento_sc_ha"
	KeyInputsPct        = "perc_insumos_pct"
	KeyHarvestPct       = "perc_colheita_pct"
	KeyDownPaymentPct   = "pct_entrada_insumo_pct"
	KeyInstallment2Pct  = "pct_parc2_pct"
	KeyInstallment2Date = "data_parc2"
	KeyInstallment3Pct  = "pct_parc3_pct"
	KeyInstallment3Date = "data_parc3"
	KeyPlantingMonth    = "mes_plantio"
	KeyHarvestMonth     = "mes_colheita"
	KeyNewSalePct       = "nova_venda_pct"
	KeyNewSalePrice     = "nova_venda_preco"
	KeyBarterPurchase   = "valor_compra_insumo"
	KeyBarterPrice      = "preco_base_barter"
	KeyStorageCost      = "custo_armazem"
	KeyOpportunityRate  = "taxa_opp_am"
	KeyCarryMonths      = "meses_carry"
	KeyFuturePrice      = "preco_futuro_est"
)

// Crop prefixes.
const (
	PrefixSoy  = "soja_"
	PrefixCorn = "milho_"
)

// Crop binds a key prefix to its label and default values.
type Crop struct {
	Name     string
	Prefix   string
	Label    string
	Defaults Snapshot
}

// Key returns the full snapshot key for a suffix.
func (c Crop) Key(suffix string) string {
	return c.Prefix + suffix
}

var (
	// Soy is the first (summer) crop.
	Soy = Crop{Name: "soja", Prefix: PrefixSoy, Label: "SOJA", Defaults: SoyDefaults()}

	// Corn is the second (off-season) crop on the same land.
	Corn = Crop{Name: "milho", Prefix: PrefixCorn, Label: "MILHO SAFRINHA", Defaults: CornDefaults()}
)

// Crops returns the tracked crops in planting order.
func Crops() []Crop {
	return []Crop{Soy, Corn}
}

// CropByName finds a crop by name ("soja") or prefix ("soja_").
func CropByName(name string) (Crop, bool) {
	name = strings.ToLower(strings.TrimSuffix(name, "_"))
	for _, c := range Crops() {
		if c.Name == name {
			return c, true
		}
	}
	return Crop{}, false
}

// Prefixes returns the prefixes of every tracked crop.
func Prefixes() []string {
	out := make([]string, 0, 2)
	for _, c := range Crops() {
		out = append(out, c.Prefix)
	}
	return out
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func withPrefix(prefix string, values map[string]any) Snapshot {
	s := make(Snapshot, len(values))
	for k, v := range values {
		s[prefix+k] = v
	}
	return s
}

// SoyDefaults returns the reference soy scenario.
func SoyDefaults() Snapshot {
	return withPrefix(PrefixSoy, map[string]any{
		KeyBreakEnabled:     false,
		KeyBreakPct:         20.0,
		KeyOwnedArea:        1000.0,
		KeyLeasedArea:       500.0,
		KeyYield:            60.0,
		KeyOpCostPerHa:      6000.0,
		KeyHedgedPct:        25.0,
		KeyHedgePrice:       115.0,
		KeyMarketPrice:      105.0,
		KeyTargetMarginPct:  20.0,
		KeyFinancedPct:      30.0,
		KeyAnnualRatePct:    12.0,
		KeyDisbursementDate: day(2025, time.August, 30),
		KeyPaymentDate:      day(2026, time.April, 30),
		KeyLeaseSacksPerHa:  15.0,
		KeyInputsPct:        60.0,
		KeyHarvestPct:       20.0,
		KeyDownPaymentPct:   50.0,
		KeyInstallment2Pct:  25.0,
		KeyInstallment2Date: day(2026, time.April, 30),
		KeyInstallment3Pct:  25.0,
		KeyInstallment3Date: day(2026, time.May, 30),
		KeyPlantingMonth:    9,
		KeyHarvestMonth:     4,
		KeyNewSalePct:       10.0,
		KeyNewSalePrice:     105.0,
		KeyBarterPurchase:   1800000.0,
		KeyBarterPrice:      105.0,
		KeyStorageCost:      1.20,
		KeyOpportunityRate:  1.0,
		KeyCarryMonths:      4,
		KeyFuturePrice:      118.0,
	})
}

// CornDefaults returns the reference off-season corn scenario.
func CornDefaults() Snapshot {
	return withPrefix(PrefixCorn, map[string]any{
		KeyBreakEnabled:     false,
		KeyBreakPct:         20.0,
		KeyOwnedArea:        1000.0,
		KeyLeasedArea:       500.0,
		KeyYield:            105.0,
		KeyOpCostPerHa:      5400.0,
		KeyHedgedPct:        25.0,
		KeyHedgePrice:       60.0,
		KeyMarketPrice:      55.0,
		KeyTargetMarginPct:  20.0,
		KeyFinancedPct:      30.0,
		KeyAnnualRatePct:    12.0,
		KeyDisbursementDate: day(2026, time.January, 30),
		KeyPaymentDate:      day(2026, time.August, 30),
		KeyLeaseSacksPerHa:  0.0,
		KeyInputsPct:        60.0,
		KeyHarvestPct:       20.0,
		KeyDownPaymentPct:   50.0,
		KeyInstallment2Pct:  25.0,
		KeyInstallment2Date: day(2026, time.July, 30),
		KeyInstallment3Pct:  25.0,
		KeyInstallment3Date: day(2026, time.August, 30),
		KeyPlantingMonth:    2,
		KeyHarvestMonth:     7,
		KeyNewSalePct:       10.0,
		KeyNewSalePrice:     55.0,
		KeyBarterPurchase:   930000.0,
		KeyBarterPrice:      55.0,
		KeyStorageCost:      0.80,
		KeyOpportunityRate:  1.0,
		KeyCarryMonths:      4,
		KeyFuturePrice:      67.0,
	})
}
