package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "taxipark"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "TAXIPARK_DB_DSN"
	EnvDBHost = "TAXIPARK_DB_HOST"
	EnvDBUser = "TAXIPARK_DB_USER"
	EnvDBName = "TAXIPARK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
