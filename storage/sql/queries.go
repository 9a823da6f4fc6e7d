package sql

const saveTaskQuery = `
INSERT INTO tasks (id, scraper, currency, side, state, fetched, published, rejected, error, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    state       = EXCLUDED.state,
    fetched     = EXCLUDED.fetched,
    published   = EXCLUDED.published,
    rejected    = EXCLUDED.rejected,
    error       = EXCLUDED.error,
    finished_at = EXCLUDED.finished_at`

const listTasksQuery = `
SELECT id, scraper, currency, side, state, fetched, published, rejected, error, started_at, finished_at,
       COUNT(*) OVER () AS total
FROM tasks
WHERE ($1::TEXT IS NULL OR scraper = $1)
  AND ($2::TEXT IS NULL OR state = $2)
ORDER BY started_at DESC, id DESC
LIMIT $3 OFFSET $4`

const listScrapersQuery = `SELECT DISTINCT scraper FROM tasks ORDER BY scraper`

const publishedCountQuery = `
SELECT COALESCE(SUM(published), 0)::BIGINT
FROM tasks
WHERE scraper = $1
  AND state = 'COMPLETED'`
