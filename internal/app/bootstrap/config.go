// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys are read from config files, FIELDAUDIT_* environment
// variables and flags, in WAFFLE's usual precedence.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "fieldaudit", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (32+ chars in production)"},
	{Name: "session_name", Default: "fieldaudit-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_ttl_hours", Default: 12, Desc: "Session lifetime in hours"},

	{Name: "storage_type", Default: "local", Desc: "Blob storage: 'local', 'memory' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Directory for locally stored attachments"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix recorded for local attachments"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "fieldaudit/", Desc: "S3 key prefix"},
	{Name: "storage_s3_endpoint", Default: "", Desc: "S3-compatible endpoint override (MinIO, LocalStack)"},

	{Name: "redis_url", Default: "", Desc: "Redis URL for shared login rate limiting (blank keeps limits in process)"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "google_redirect_url", Default: "http://localhost:8080/auth/google/callback", Desc: "Google OAuth2 redirect URL"},

	{Name: "superuser_login", Default: "", Desc: "Login name of the bootstrap superuser (created on startup if missing)"},
	{Name: "superuser_email", Default: "", Desc: "Email of the bootstrap superuser"},
	{Name: "superuser_password", Default: "", Desc: "Password of the bootstrap superuser"},

	{Name: "export_max_rows", Default: 0, Desc: "Row cap per export sheet (0 means no cap)"},
	{Name: "monthly_window", Default: 6, Desc: "Default months shown by /reports/monthly"},
}

// LoadConfig loads WAFFLE core config and the fieldaudit keys.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, v, err := config.LoadWithAppConfig(logger, "FIELDAUDIT", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         v.String("mongo_uri"),
		MongoDatabase:    v.String("mongo_database"),
		MongoMaxPoolSize: uint64(v.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(v.Int("mongo_min_pool_size")),

		SessionKey:    v.String("session_key"),
		SessionName:   v.String("session_name"),
		SessionDomain: v.String("session_domain"),
		SessionTTLHrs: v.Int("session_ttl_hours"),

		StorageType:       v.String("storage_type"),
		StorageLocalPath:  v.String("storage_local_path"),
		StorageLocalURL:   v.String("storage_local_url"),
		StorageS3Region:   v.String("storage_s3_region"),
		StorageS3Bucket:   v.String("storage_s3_bucket"),
		StorageS3Prefix:   v.String("storage_s3_prefix"),
		StorageS3Endpoint: v.String("storage_s3_endpoint"),

		RedisURL: v.String("redis_url"),

		AuditLogAuth:  v.String("audit_log_auth"),
		AuditLogAdmin: v.String("audit_log_admin"),

		GoogleClientID:     v.String("google_client_id"),
		GoogleClientSecret: v.String("google_client_secret"),
		GoogleRedirectURL:  v.String("google_redirect_url"),

		SuperuserLogin:    v.String("superuser_login"),
		SuperuserEmail:    v.String("superuser_email"),
		SuperuserPassword: v.String("superuser_password"),

		ExportMaxRows: v.Int("export_max_rows"),
		MonthlyWindow: v.Int("monthly_window"),
	}
	return coreCfg, appCfg, nil
}

var auditLogModes = map[string]bool{"": true, "all": true, "db": true, "log": true, "off": true}

// ValidateConfig rejects settings that would only fail later, after
// connections are open.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var problems []error

	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		problems = append(problems, fmt.Errorf("invalid MongoDB URI: %w", err))
	}
	if appCfg.MongoDatabase == "" {
		problems = append(problems, errors.New("mongo_database is required"))
	}

	switch appCfg.StorageType {
	case "local":
		if appCfg.StorageLocalPath == "" {
			problems = append(problems, errors.New("storage_local_path is required for local storage"))
		}
	case "memory":
		logger.Warn("memory blob storage selected; attachments are lost on restart")
	case "s3":
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			problems = append(problems, errors.New("storage_s3_bucket and storage_s3_region are required for s3 storage"))
		}
	default:
		problems = append(problems, fmt.Errorf("storage_type %q is not one of local, memory, s3", appCfg.StorageType))
	}

	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		problems = append(problems, errors.New("google_client_id and google_client_secret must be set together"))
	}
	if !auditLogModes[appCfg.AuditLogAuth] || !auditLogModes[appCfg.AuditLogAdmin] {
		problems = append(problems, errors.New("audit_log_auth and audit_log_admin must be all, db, log or off"))
	}
	if appCfg.SuperuserLogin != "" && len(appCfg.SuperuserPassword) < 8 {
		problems = append(problems, errors.New("superuser_password must be at least 8 characters"))
	}
	if appCfg.ExportMaxRows < 0 || appCfg.MonthlyWindow < 0 {
		problems = append(problems, errors.New("export_max_rows and monthly_window cannot be negative"))
	}

	if coreCfg != nil && coreCfg.Env == "prod" && len(appCfg.SessionKey) < 32 {
		problems = append(problems, errors.New("session_key must be at least 32 characters in prod"))
	}

	return errors.Join(problems...)
}
