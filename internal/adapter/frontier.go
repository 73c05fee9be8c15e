package adapter

import (
	"strings"

	"portfolio-dashboard/internal/model"
)

// ToFrontierSeries picks the scatter variant when sampled portfolios are
// present, the image variant when only a rendered image is, and the empty
// variant otherwise. An empty result is not an error; views render a
// placeholder for it.
func ToFrontierSeries(result *model.EfficientFrontierResult) model.FrontierSeries {
	if result == nil {
		return model.FrontierSeries{Kind: model.FrontierEmpty}
	}

	if len(result.RandomPortfolios) > 0 {
		series := model.FrontierSeries{
			Kind:   model.FrontierScatter,
			Points: make([]model.Point, len(result.RandomPortfolios)),
		}
		for i, p := range result.RandomPortfolios {
			series.Points[i] = model.Point{X: p.Volatility, Y: p.Return}
		}
		if o := result.OptimizedPortfolio; o != nil {
			series.Highlight = &model.Point{X: o.Volatility, Y: o.Return}
		}
		return series
	}

	if strings.TrimSpace(result.EfficientFrontierImage) != "" {
		return model.FrontierSeries{Kind: model.FrontierImage, Image: result.EfficientFrontierImage}
	}

	return model.FrontierSeries{Kind: model.FrontierEmpty}
}
