package env

const (
	// Prefix is the offersync environment variable prefix
	Prefix = "OFFERSYNC_"

	// DBURLSuffix is the ledger database DSN variable suffix
	DBURLSuffix = "DB_URL"

	// APITokenSuffix is the marketplace API token variable suffix
	APITokenSuffix = "API_TOKEN"
)
