package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jonah3272/boliviablue/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)
)

var (
	errUnableToFetchRates      = errors.New("unable to fetch rates")
	errUnableToFetchCurrencies = errors.New("unable to fetch currencies")
	errUnableToFetchSources    = errors.New("unable to fetch sources")

	errInvalidLimit  = errors.New("invalid limit")
	errInvalidOffset = errors.New("invalid offset")
	errInvalidType   = errors.New("invalid type")
	errInvalidAsOf   = errors.New("invalid as_of (must be RFC3339 UTC)")

	errInvalidCurrencyLength = errors.New("invalid currency (must be 3 letters)")
	errInvalidCurrencyChars  = errors.New("invalid currency (must be A-Z)")
)

// RatesForPair serves the recorded rates of a base / target pair
func (s *Server) RatesForPair(w http.ResponseWriter, r *http.Request) {
	s.serveRates(w, r, true)
}

// RatesForBase serves the recorded rates of a base currency,
// against every target
func (s *Server) RatesForBase(w http.ResponseWriter, r *http.Request) {
	s.serveRates(w, r, false)
}

func (s *Server) serveRates(w http.ResponseWriter, r *http.Request, withTarget bool) {
	q, asOf, err := parseRateQuery(r, withTarget)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	page, err := s.storage.RateAsOf(r.Context(), q, asOf)
	if err != nil {
		s.logger.Debug(
			"unable to fetch rates",
			"base", q.Base,
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchRates,
		)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

// parseRateQuery parses the recorded rates query from the route
// params and the URL query
func parseRateQuery(r *http.Request, withTarget bool) (*types.RateQuery, time.Time, error) {
	query := r.URL.Query()

	// Parse the base currency
	base, err := parseCurrencySymbol(chi.URLParam(r, "base"))
	if err != nil {
		return nil, time.Time{}, err
	}

	q := &types.RateQuery{
		Base: base,
	}

	// Parse the target currency, if routed
	if withTarget {
		target, err := parseCurrencySymbol(chi.URLParam(r, "target"))
		if err != nil {
			return nil, time.Time{}, err
		}

		q.Target = &target
	}

	// Parse the effective date (defaults to now)
	asOf, err := parseAsOf(query.Get("as_of"))
	if err != nil {
		return nil, time.Time{}, err
	}

	// Parse the pagination settings
	if q.Limit, q.Offset, err = parseLimitOffset(query.Get("limit"), query.Get("offset")); err != nil {
		return nil, time.Time{}, err
	}

	// Parse the source and rate type (optional)
	if q.Source, q.RateType, err = parseSourceAndType(query.Get("source"), query.Get("type")); err != nil {
		return nil, time.Time{}, err
	}

	return q, asOf, nil
}

func (s *Server) Sources(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListSources(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch sources",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchSources)

		return
	}

	writeJSON(w, http.StatusOK, &SourcesResponse{
		Results: items,
	})
}

func (s *Server) Currencies(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListCurrencies(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch currencies",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchCurrencies)

		return
	}

	writeJSON(w, http.StatusOK, &CurrenciesResponse{
		Results: items,
	})
}

func parseAsOf(asOfRaw string) (time.Time, error) {
	v := strings.TrimSpace(asOfRaw)
	if v == "" {
		return time.Now().UTC(), nil // default is now
	}

	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errInvalidAsOf
	}

	return t.UTC(), nil
}

func parseLimitOffset(limitRaw, offsetRaw string) (int32, int64, error) {
	limit := defaultLimit

	if v := strings.TrimSpace(limitRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return 0, 0, errInvalidLimit
		}

		limit = int32(n)
	}

	if limit == 0 {
		limit = defaultLimit
	}

	limit = min(limit, maxLimit)

	var offset int64

	if v := strings.TrimSpace(offsetRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, errInvalidOffset
		}

		offset = n
	}

	return limit, offset, nil
}

func parseSourceAndType(sourceRaw, typeRaw string) (*types.Source, *types.RateType, error) {
	var src *types.Source

	if v := strings.TrimSpace(sourceRaw); v != "" {
		s := types.Source(v)

		src = &s
	}

	var rt *types.RateType

	if v := strings.TrimSpace(typeRaw); v != "" {
		t := types.RateType(strings.ToUpper(v))

		switch t {
		case types.RateTypeMID, types.RateTypeBUY, types.RateTypeSELL:
			rt = &t
		default:
			return nil, nil, errInvalidType
		}
	}

	return src, rt, nil
}

func parseCurrencySymbol(v string) (types.Currency, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	if len(s) != 3 {
		return "", errInvalidCurrencyLength
	}

	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return "", errInvalidCurrencyChars
		}
	}

	return types.Currency(s), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, &ErrorResponse{
		Error: err.Error(),
	})
}
