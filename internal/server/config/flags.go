package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/cmcs/internal/flagx"
)

var serverFlags = []string{"-a", "-r", "-d", "-s", "-t", "-k", "-f", "-i", "-w", "-l", "-m", "-u", "-p", "-b", "-g", "-e"}

// parseFlags overlays command-line flags onto cfg.
//
//	-a string   HTTP bind address (":8080")
//	-r string   gRPC bind address (":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret
//	-t int      token validity, minutes
//	-k string   base64 document encryption key
//	-f string   uploads directory
//	-i int      janitor interval, minutes (0 disables)
//	-w int      janitor grace period, minutes
//	-l string   log level
//	-m bool     mirror ciphertext to S3
//	-u, -p      S3 credentials
//	-b, -g, -e  S3 bucket, region and endpoint
//
// Only the flags above are looked at; anything else in args is ignored.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.EndpointAddrHTTP, "a", cfg.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&cfg.EndpointAddrGRPC, "r", cfg.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "JWT secret key")
	tokenMinutes := fs.Int("t", int(cfg.TokenValidityDuration.Minutes()), "token validity (minutes)")
	fs.StringVar(&cfg.CryptoKey, "k", cfg.CryptoKey, "base64 document encryption key")
	fs.StringVar(&cfg.UploadsDir, "f", cfg.UploadsDir, "uploads directory")
	janitorMinutes := fs.Int("i", int(cfg.JanitorInterval.Minutes()), "janitor interval (minutes)")
	graceMinutes := fs.Int("w", int(cfg.JanitorGracePeriod.Minutes()), "janitor grace period (minutes)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.ArchiveEnabled, "m", cfg.ArchiveEnabled, "mirror ciphertext to S3")
	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.TokenValidityDuration = time.Duration(*tokenMinutes) * time.Minute
		case "i":
			cfg.JanitorInterval = time.Duration(*janitorMinutes) * time.Minute
		case "w":
			cfg.JanitorGracePeriod = time.Duration(*graceMinutes) * time.Minute
		}
	})

	return nil
}
