package adapter

import (
	"portfolio-dashboard/internal/apperr"
	"portfolio-dashboard/internal/model"
)

// ToRiskTable builds one row per ticker of var_95, in payload order.
// Rolling volatility is required for every ticker (MissingMetric otherwise);
// CVaR is optional and left nil when absent.
func ToRiskTable(result *model.RiskMetrics) ([]model.RiskRow, error) {
	if result == nil || result.VaR95 == nil {
		return nil, apperr.New(apperr.CodeMalformedResponse, "market-trend response carries no var_95 mapping")
	}

	rows := make([]model.RiskRow, 0, result.VaR95.Len())
	for _, ticker := range result.VaR95.Keys() {
		vol, ok := result.RollingVolatility.Lookup(ticker)
		if !ok {
			return nil, apperr.New(apperr.CodeMissingMetric, "ticker %s has no rolling_volatility", ticker)
		}
		v, _ := result.VaR95.Lookup(ticker)
		row := model.RiskRow{
			Ticker:     ticker,
			VaR95:      v,
			Volatility: vol,
		}
		if cvar, ok := result.CVaR95.Lookup(ticker); ok {
			row.CVaR95 = &cvar
		}
		rows = append(rows, row)
	}
	return rows, nil
}
