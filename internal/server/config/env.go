package config

import "os"

// getenv is swapped in tests.
var getenv = os.Getenv

// Environment variables read by parseEnv. Secrets are expected here rather
// than on the command line.
const (
	EnvCryptoKey      = "CMCS_CRYPTO_KEY"
	EnvDatabaseDSN    = "DATABASE_DSN"
	EnvJWTSecretKey   = "JWT_SECRET_KEY"
	EnvUploadsDir     = "UPLOADS_DIR"
	EnvS3RootUser     = "S3_ROOT_USER"
	EnvS3RootPassword = "S3_ROOT_PASSWORD"
)

func parseEnv(cfg *Config, lookup func(string) string) {
	for name, dst := range map[string]*string{
		EnvCryptoKey:      &cfg.CryptoKey,
		EnvDatabaseDSN:    &cfg.DatabaseDSN,
		EnvJWTSecretKey:   &cfg.SecretKey,
		EnvUploadsDir:     &cfg.UploadsDir,
		EnvS3RootUser:     &cfg.S3RootUser,
		EnvS3RootPassword: &cfg.S3RootPassword,
	} {
		if v := lookup(name); v != "" {
			*dst = v
		}
	}
}
