package config

// EnvPrefix is passed to envconfig.Process. Individual fields carry fully
// qualified envconfig tags, so the prefix mostly matters for error output.
const EnvPrefix = "MINTFORGE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv   = "MINTFORGE_APP_ENV"
	EnvPort     = "MINTFORGE_APP_PORT"
	EnvLogLevel = "MINTFORGE_LOG_LEVEL"

	EnvDBDSN  = "MINTFORGE_DB_DSN"
	EnvDBHost = "MINTFORGE_DB_HOST"
	EnvDBUser = "MINTFORGE_DB_USER"
	EnvDBName = "MINTFORGE_DB_NAME"

	EnvRedisURL = "MINTFORGE_REDIS_URL"

	EnvJWTSecret  = "MINTFORGE_JWT_SECRET"
	EnvJWTIssuer  = "MINTFORGE_JWT_ISSUER"
	EnvJWTExpMins = "MINTFORGE_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "MINTFORGE_GCP_PROJECT_ID"

	EnvPubSubDomainTopic = "MINTFORGE_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub   = "MINTFORGE_PUBSUB_DOMAIN_SUBSCRIPTION"

	EnvChainFactoryAddress        = "MINTFORGE_CHAIN_FACTORY_ADDRESS"
	EnvChainImplementationAddress = "MINTFORGE_CHAIN_IMPLEMENTATION_ADDRESS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
