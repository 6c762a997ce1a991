package config

type Config struct {
	Reporter ReporterConfig
	Cache    CacheConfig
	Chart    ChartConfig
	Influx   InfluxConfig
}

type Secrets struct {
	Reporter ReporterSecrets
	Influx   InfluxSecrets
	SQL      SqlSecrets

	// Alternative to the Sql struct, designed to be used with a heroku
	// style env variable
	DatabaseURL string `env:"DATABASE_URL"`
}

///////////////////////////////////////////////////////////////////////////////////////
// NIH RePORTER
///////////////////////////////////////////////////////////////////////////////////////

type ReporterConfig struct {
	// cron expression for scheduled runs
	UpdateFrequency string
	// comparison window: current year plus Years-1 prior years
	Years      int
	PageLimit  int
	MaxRetries int
	// request timeout in seconds
	TimeoutSeconds int
}

type ReporterSecrets struct {
	// optional bearer token for deployments that front the API with a gateway
	APIToken string `json:"reporterApiToken" env:"REPORTER_API_TOKEN"`
}

type CacheConfig struct {
	// "file" (default) or "sql"
	Backend string
	Dir     string
	SQL     struct {
		Database     string
		PeriodsTable string
	}
}

type ChartConfig struct {
	OutputDir string
	// days between x-axis tick labels
	TickInterval int
}

type InfluxConfig struct {
	Database    string
	Measurement string
}

type InfluxSecrets struct {
	InfluxEndpoint string `json:"influxEndpoint" env:"INFLUX_ENDPOINT"`
	InfluxUsername string `json:"influxUsername" env:"INFLUX_USERNAME"`
	InfluxPassword string `json:"influxPassword" env:"INFLUX_PASSWORD"`
}

type SqlSecrets struct {
	SqlHost     string `env:"SQL_HOST"`
	SqlUsername string `env:"SQL_USERNAME"`
	SqlPassword string `env:"SQL_PASSWORD"`
}
