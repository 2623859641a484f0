package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonah3272/boliviablue/cache"
	"github.com/jonah3272/boliviablue/stats"
	"github.com/jonah3272/boliviablue/storage/types"
)

var (
	errNoData                 = errors.New("no data yet")
	errUnableToFetchBlueRate  = errors.New("unable to fetch blue rate")
	errUnableToFetchHistory   = errors.New("unable to fetch history")
	errUnableToExportHistory  = errors.New("unable to export history")
	errUnsupportedQuoteSymbol = errors.New("unsupported currency (must be one of USD, EUR, BRL)")
)

// BlueRate serves the latest blue rate snapshot of the currency
func (s *Server) BlueRate(w http.ResponseWriter, r *http.Request) {
	currency, err := parseQuoteCurrency(r.URL.Query().Get("currency"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	snapshot, err := s.rates.Get(r.Context(), currency)
	if err != nil {
		switch {
		case errors.Is(err, cache.ErrNoData):
			writeError(w, http.StatusServiceUnavailable, errNoData)
		case errors.Is(err, cache.ErrUnsupportedCurrency):
			writeError(w, http.StatusBadRequest, errUnsupportedQuoteSymbol)
		default:
			s.logger.Debug(
				"unable to fetch blue rate",
				"currency", currency,
				"err", err,
			)

			writeError(w, http.StatusInternalServerError, errUnableToFetchBlueRate)
		}

		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// BlueHistory serves the recorded series of the currency
func (s *Server) BlueHistory(w http.ResponseWriter, r *http.Request) {
	series, ok := s.fetchHistory(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, series)
}

// BlueStats serves the statistics of the recorded series
func (s *Server) BlueStats(w http.ResponseWriter, r *http.Request) {
	series, ok := s.fetchHistory(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, stats.Compute(series))
}

// BlueHistoryCSV serves the recorded series as a CSV attachment
func (s *Server) BlueHistoryCSV(w http.ResponseWriter, r *http.Request) {
	series, ok := s.fetchHistory(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer

	if err := stats.WriteCSV(&buf, series); err != nil {
		s.logger.Error(
			"unable to export history",
			"range", series.Range,
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToExportHistory)

		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", stats.FileName(series.Range, s.now())),
	)
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write(buf.Bytes()) //nolint:errcheck // Fine to ignore
}

// fetchHistory parses the history query and fetches the series.
// On failure, the error response is already written
func (s *Server) fetchHistory(w http.ResponseWriter, r *http.Request) (*types.HistoricalSeries, bool) {
	query := r.URL.Query()

	currency, err := parseQuoteCurrency(query.Get("currency"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return nil, false
	}

	rng, err := parseRange(query.Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return nil, false
	}

	series, err := s.history.History(r.Context(), currency, rng)
	if err != nil {
		s.logger.Debug(
			"unable to fetch history",
			"currency", currency,
			"range", rng,
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchHistory)

		return nil, false
	}

	return series, true
}

// parseQuoteCurrency parses the quote currency (defaults to USD)
func parseQuoteCurrency(v string) (types.Currency, error) {
	if strings.TrimSpace(v) == "" {
		return types.CurrencyUSD, nil
	}

	c, err := parseCurrencySymbol(v)
	if err != nil {
		return "", err
	}

	if !c.IsQuote() {
		return "", errUnsupportedQuoteSymbol
	}

	return c, nil
}

// parseRange parses the history range (defaults to 1W)
func parseRange(v string) (types.Range, error) {
	if strings.TrimSpace(v) == "" {
		return types.Range1W, nil
	}

	return types.ParseRange(v)
}
