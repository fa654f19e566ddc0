// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds fieldaudit's own configuration. WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything domain specific lives here.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Sessions
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionTTLHrs int

	// Blob storage for patient attachments and audit photos.
	StorageType       string // local | memory | s3
	StorageLocalPath  string
	StorageLocalURL   string
	StorageS3Region   string
	StorageS3Bucket   string
	StorageS3Prefix   string
	StorageS3Endpoint string

	// RedisURL enables shared login rate limiting across instances.
	RedisURL string

	// Security event destinations: all | db | log | off.
	AuditLogAuth  string
	AuditLogAdmin string

	// Google sign-in. Disabled unless both client values are set.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Bootstrap superuser, created only when no identity has that login.
	SuperuserLogin    string
	SuperuserEmail    string
	SuperuserPassword string

	// Reporting
	ExportMaxRows int
	MonthlyWindow int
}
