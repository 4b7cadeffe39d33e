package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	SourcesDir   string
	Port         string
	APIAccessKey string
	StrictMode   bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
