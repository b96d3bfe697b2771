package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cmcs/internal/flagx"
	"github.com/dmitrijs2005/cmcs/internal/timex"
)

// jsonConfig mirrors Config for decoding config files. Pointer fields
// distinguish "absent" from "zero", so a file only overrides what it names.
type jsonConfig struct {
	EndpointAddrHTTP      *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	CryptoKey             *string         `json:"crypto_key"`
	UploadsDir            *string         `json:"uploads_dir"`
	JanitorInterval       *timex.Duration `json:"janitor_interval"`
	JanitorGracePeriod    *timex.Duration `json:"janitor_grace_period"`
	LogLevel              *string         `json:"log_level"`
	ArchiveEnabled        *bool           `json:"archive_enabled"`
	S3RootUser            *string         `json:"s3_root_user"`
	S3RootPassword        *string         `json:"s3_root_password"`
	S3Bucket              *string         `json:"s3_bucket"`
	S3Region              *string         `json:"s3_region"`
	S3BaseEndpoint        *string         `json:"s3_base_endpoint"`
}

// parseJSON overlays the file named by -c/-config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var c jsonConfig
	if err := json.Unmarshal(b, &c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&cfg.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.SecretKey, c.SecretKey)
	setString(&cfg.CryptoKey, c.CryptoKey)
	setString(&cfg.UploadsDir, c.UploadsDir)
	setString(&cfg.LogLevel, c.LogLevel)
	setString(&cfg.S3RootUser, c.S3RootUser)
	setString(&cfg.S3RootPassword, c.S3RootPassword)
	setString(&cfg.S3Bucket, c.S3Bucket)
	setString(&cfg.S3Region, c.S3Region)
	setString(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.TokenValidityDuration != nil {
		cfg.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.JanitorInterval != nil {
		cfg.JanitorInterval = c.JanitorInterval.Duration
	}
	if c.JanitorGracePeriod != nil {
		cfg.JanitorGracePeriod = c.JanitorGracePeriod.Duration
	}
	if c.ArchiveEnabled != nil {
		cfg.ArchiveEnabled = *c.ArchiveEnabled
	}

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
