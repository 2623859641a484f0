package sql

const saveExchangeRate = `
INSERT INTO exchange_rates (base, target, rate, rate_type, source, as_of, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (base, target, source, rate_type, as_of)
    DO UPDATE SET rate       = EXCLUDED.rate,
                  fetched_at = EXCLUDED.fetched_at
`

// rateAsOf selects the latest point per (target, source, type)
const rateAsOf = `
WITH latest AS (
    SELECT DISTINCT ON (target, source, rate_type)
        base, target, rate, rate_type, source, as_of, fetched_at
    FROM exchange_rates
    WHERE base = $1
      AND ($2::text IS NULL OR target = $2)
      AND ($3::text IS NULL OR source = $3)
      AND ($4::text IS NULL OR rate_type = $4)
      AND as_of <= $5
    ORDER BY target, source, rate_type, as_of DESC, fetched_at DESC
)
SELECT base, target, rate, rate_type, source, as_of, fetched_at, COUNT(*) OVER () AS total
FROM latest
ORDER BY target, source, rate_type
LIMIT $6 OFFSET $7
`

const ratesInRange = `
SELECT base, target, rate, rate_type, source, as_of, fetched_at
FROM exchange_rates
WHERE base = $1
  AND ($2::text IS NULL OR target = $2)
  AND ($3::text IS NULL OR source = $3)
  AND ($4::text IS NULL OR rate_type = $4)
  AND as_of >= $5
  AND as_of <= $6
ORDER BY as_of, rate_type, source
`

const listSources = `
SELECT DISTINCT source
FROM exchange_rates
ORDER BY source
`

const listCurrencies = `
SELECT code
FROM (SELECT base AS code FROM exchange_rates
      UNION
      SELECT target AS code FROM exchange_rates) AS codes
ORDER BY code
`
