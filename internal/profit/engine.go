package profit

import "sort"

// Compute derives the cost attribution report for one day. Logistics cost
// is apportioned per commodity by weight share so the per-commodity costs
// always sum back to the day's delivery cost. Values are left unrounded;
// presentation rounding is the caller's concern.
func Compute(in DayInputs) DayProfitReport {
	report := DayProfitReport{
		Date:              in.Date.Format("2006-01-02"),
		TotalDistanceKm:   in.TotalDistanceKm,
		TotalDeliveryCost: in.TotalDistanceKm * in.DeliveryRatePerKm,
	}

	names := make([]string, 0, len(in.Weights))
	for name, weight := range in.Weights {
		names = append(names, name)
		report.TotalWeightKg += weight
	}
	sort.Strings(names)

	for _, name := range names {
		weight := in.Weights[name]
		purchase, hasPurchase := in.PurchasePrices[name]
		selling, hasSelling := in.SellingPrices[name]

		entry := CommodityProfit{
			Commodity:            name,
			WeightKg:             weight,
			Revenue:              weight * selling,
			GrossFarmerPayout:    weight * purchase,
			MissingPurchasePrice: !hasPurchase,
			MissingSellingPrice:  !hasSelling,
		}
		entry.CommissionEarned = entry.GrossFarmerPayout * in.CommissionRate
		entry.NetFarmerPayout = entry.GrossFarmerPayout - entry.CommissionEarned
		if report.TotalWeightKg > 0 {
			entry.LogisticsCost = (weight / report.TotalWeightKg) * report.TotalDeliveryCost
		}
		entry.NetProfit = entry.Revenue - entry.NetFarmerPayout - entry.LogisticsCost
		if entry.Revenue != 0 {
			entry.ProfitMarginPercent = entry.NetProfit / entry.Revenue * 100
		}

		report.Commodities = append(report.Commodities, entry)

		report.Totals.Revenue += entry.Revenue
		report.Totals.GrossFarmerPayout += entry.GrossFarmerPayout
		report.Totals.CommissionEarned += entry.CommissionEarned
		report.Totals.NetFarmerPayout += entry.NetFarmerPayout
		report.Totals.LogisticsCost += entry.LogisticsCost
		report.Totals.NetProfit += entry.NetProfit
	}

	// Day margin comes from day totals, not an average of per-commodity
	// margins.
	if report.Totals.Revenue != 0 {
		report.Totals.ProfitMarginPercent = report.Totals.NetProfit / report.Totals.Revenue * 100
	}
	return report
}
