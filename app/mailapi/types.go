package mailapi

// Source describes one remote email source profile, loaded from a YAML file.
// The file name (without extension) becomes the source name.
type Source struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Token    string         `yaml:"token"`
	Prefix   string         `yaml:"prefix"` // message-id prefix assigned by this source, e.g. "G-"
	Since    string         `yaml:"since"`  // ISO date; high-water mark for list()
	Settings SourceSettings `yaml:"settings"`
}

type SourceSettings struct {
	Enabled        bool `yaml:"enabled"`
	ListBatchSize  int  `yaml:"list_batch_size"`
	FetchBatchSize int  `yaml:"fetch_batch_size"`
	ImportInterval int  `yaml:"import_interval"` // seconds between scheduled passes
	Timeout        int  `yaml:"timeout"`         // seconds, per HTTP request
}

// Request/response envelope of the remote script endpoint.

type requestEnvelope struct {
	Request string `json:"request"`
	Token   string `json:"token"`
	Options any    `json:"options,omitempty"`
}

type responseEnvelope struct {
	Version int    `json:"version"`
	Status  string `json:"status"`
	Result  any    `json:"result,omitempty"`
}

type listOptions struct {
	Since  string `json:"since"`
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
}

type fetchOptions struct {
	IDs []string `json:"ids"`
}
