package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string    HTTP bind address (e.g., ":8080")
//	-d string    PostgreSQL DSN, or "memory"
//	-s string    JWT HMAC secret key
//	-t int       access token validity, minutes
//	-r int       refresh token validity, minutes
//	-k int       bcrypt cost
//	-j string    reclamation cron schedule (e.g., "*/5 * * * *")
//	-g duration  reclamation grace period (e.g., "48h")
//	-R bool      run the reclamation scheduler in the API process
//
// Token lifetimes are accepted as integers in minutes and then converted
// to time.Duration values. They are only applied when given, so sub-minute
// lifetimes from the JSON file survive.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-r", "-k", "-j", "-g"}, "-R")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.ReclaimSchedule, "j", config.ReclaimSchedule, "reclamation cron schedule")
	fs.DurationVar(&config.ReclaimGracePeriod, "g", config.ReclaimGracePeriod, "reclamation grace period")
	fs.BoolVar(&config.ReclaimInProcess, "R", config.ReclaimInProcess, "run reclamation scheduler in process")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
}
