package config

// EnvPrefix scopes all environment variables read by Load.
const EnvPrefix = "CARTCORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverSQLite = "sqlite"
	StorageDriverMemory = "memory"
)
