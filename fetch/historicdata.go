package fetch

import (
	"fmt"
	"os"
	"time"

	"github.com/dnldd/trendbracket/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// HistoricDataConfig represents the historic data source configuration.
type HistoricDataConfig struct {
	// FilePath is the filepath to the historic market data.
	FilePath string
	// Location is the location bar dates are parsed in, it defaults to UTC.
	Location *time.Location
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// loadHistoricData loads the historic data documents from the provided file path.
// The file holds either a single document or an array of them.
func loadHistoricData(filepath string) ([]gjson.Result, error) {
	readb, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading historic data from file with path '%s': %w", filepath, err)
	}

	if !gjson.ValidBytes(readb) {
		return nil, fmt.Errorf("historic data file '%s' is not valid json", filepath)
	}

	root := gjson.ParseBytes(readb)
	if root.IsArray() {
		return root.Array(), nil
	}

	return []gjson.Result{root}, nil
}

// parseHistoricSeries parses a bar series from a historic data document.
func parseHistoricSeries(doc gjson.Result, loc *time.Location) (*shared.BarSeries, error) {
	market := doc.Get("market").String()
	if market == "" {
		return nil, fmt.Errorf("historic data market cannot be empty")
	}

	timeframe, err := shared.ParseTimeframe(doc.Get("timeframe").String())
	if err != nil {
		return nil, fmt.Errorf("parsing %s timeframe: %w", market, err)
	}

	bars, err := shared.ParseBars(doc.Get("bars").Array(), market, timeframe, loc)
	if err != nil {
		return nil, fmt.Errorf("parsing %s bars: %w", market, err)
	}

	series, err := shared.NewBarSeries(market, timeframe, bars)
	if err != nil {
		return nil, fmt.Errorf("creating %s bar series: %w", market, err)
	}

	return series, nil
}

// LoadHistoricData loads the bar series of the historic data file.
func LoadHistoricData(cfg *HistoricDataConfig) ([]*shared.BarSeries, error) {
	docs, err := loadHistoricData(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("loading historic data: %w", err)
	}

	set := make([]*shared.BarSeries, 0, len(docs))
	for idx := range docs {
		series, err := parseHistoricSeries(docs[idx], cfg.Location)
		if err != nil {
			return nil, err
		}

		// Determine the range for the data provided.
		first := series.At(0).Date
		last := series.At(series.Len() - 1).Date
		if cfg.Logger != nil {
			cfg.Logger.Info().Msgf("loaded %d %s %s bars covering %.2f hours, from %s, to %s",
				series.Len(), series.Market(), series.Timeframe(), last.Sub(first).Hours(),
				first.Format(time.RFC1123), last.Format(time.RFC1123))
		}

		set = append(set, series)
	}

	return set, nil
}
