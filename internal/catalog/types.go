package catalog

// Item is a catalog entry owned by the core service. The gateway only
// reads items, never mutates them.
type Item struct {
	ID       int    `json:"id"`
	NameKo   string `json:"name_ko"`
	NameEn   string `json:"name_en"`
	Category string `json:"category"`
}

// Market is a market descriptor from the core service.
type Market struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Type string `json:"type"`
}

type MarketPrice struct {
	Market    string   `json:"market"`
	Price     float64  `json:"price"`
	Unit      string   `json:"unit"`
	Date      string   `json:"date"`
	Tag       string   `json:"tag"`
	BasePrice *float64 `json:"base_price,omitempty"`
	Ratio     *float64 `json:"ratio,omitempty"`
}

type TrendPoint struct {
	Date   string  `json:"date"`
	Market string  `json:"market"`
	Price  float64 `json:"price"`
}

type SeasonWindow struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type DashboardItem struct {
	ID            int          `json:"id"`
	NameKo        string       `json:"name_ko"`
	NameEn        string       `json:"name_en"`
	Season        SeasonWindow `json:"season"`
	DefaultOrigin string       `json:"default_origin"`
}

type PriceTrend struct {
	PeriodDays int          `json:"period_days"`
	Data       []TrendPoint `json:"data"`
}

// Dashboard is the per-item aggregate the mobile client renders on the
// item detail screen.
type Dashboard struct {
	Item          DashboardItem `json:"item"`
	CurrentPrices []MarketPrice `json:"current_prices"`
	PriceTrend    PriceTrend    `json:"price_trend"`
	DataSources   []string      `json:"data_sources"`
	IsInSeason    bool          `json:"is_in_season"`
}
