package config

// EnvPrefix namespaces every TalentMatch environment variable.
const EnvPrefix = "talentmatch"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv       = "TALENTMATCH_APP_ENV"
	EnvPort         = "TALENTMATCH_APP_PORT"
	EnvDBDSN        = "TALENTMATCH_DB_DSN"
	EnvDBHost       = "TALENTMATCH_DB_HOST"
	EnvDBUser       = "TALENTMATCH_DB_USER"
	EnvDBName       = "TALENTMATCH_DB_NAME"
	EnvRedisURL     = "TALENTMATCH_REDIS_URL"
	EnvGCPProjectID = "TALENTMATCH_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
