package config

// Config contains all application settings
type Config struct {
	BindPort      int    `mapstructure:"PORT" yaml:"port"`
	BindHost      string `mapstructure:"HOST" yaml:"host"`
	DatabaseURL   string `mapstructure:"DATABASE_URL" yaml:"database_url"`
	NATSServerURL string `mapstructure:"NATS_URL" yaml:"nats_url"`
	JWTSecret     string `mapstructure:"JWT_SECRET" yaml:"jwt_secret"`

	// Staleness sweeper settings. The real sweep ships disabled because the
	// surrounding dashboards currently expect devices to stay online.
	SweepEnabled       bool `mapstructure:"SWEEP_ENABLED" yaml:"sweep_enabled"`
	SweepIntervalMs    int  `mapstructure:"SWEEP_INTERVAL_MS" yaml:"sweep_interval_ms"`
	OfflineThresholdMs int  `mapstructure:"OFFLINE_THRESHOLD_MS" yaml:"offline_threshold_ms"`

	// Version
	BuildVersion string `yaml:"-"`
	BuildHash    string `yaml:"-"`
	BuildTime    string `yaml:"-"`
}
