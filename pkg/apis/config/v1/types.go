package v1

// DashboardConfig is the optional YAML configuration file. Flags given on the
// command line take precedence over it.
type DashboardConfig struct {
	Source SourceConfig `yaml:"source"`
	Report ReportConfig `yaml:"report,omitempty"`
}

type SourceConfig struct {
	// Type is one of s3, gcs or file.
	Type string `yaml:"type"`

	// Bucket is the object storage bucket, or the directory for the file
	// source.
	Bucket string `yaml:"bucket,omitempty"`
	Region string `yaml:"region,omitempty"`

	UsersKey         string `yaml:"usersKey,omitempty"`
	ConversationsKey string `yaml:"conversationsKey,omitempty"`

	// Freshness is how long a loaded dataset is served before it is
	// reloaded, as a Go duration string.
	Freshness string `yaml:"freshness,omitempty"`
}

type ReportConfig struct {
	IncludeFreeChats bool   `yaml:"freeChats,omitempty"`
	Identity         string `yaml:"identity,omitempty"`
	TopN             int    `yaml:"topN,omitempty"`
}
