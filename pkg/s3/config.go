package s3

// Config holds bucket and credential settings. The endpoint host comes from
// the session backend address.
type Config struct {
	Bucket      string `env:"S3_BUCKET"`
	Region      string `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKeyID string `env:"S3_ACCESS_KEY_ID"`
	SecretKey   string `env:"S3_SECRET_KEY"`
	Scheme      string `env:"S3_SCHEME" envDefault:"https"`

	// ForcePathStyle is needed for S3-compatible services like MinIO.
	ForcePathStyle bool `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
}
