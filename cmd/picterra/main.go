// Command picterra is a CLI for the Picterra API. Its sub-commands are
// generated from a table describing the API client's method surface; see
// the cmdgen package.
package main

import (
	stderrors "errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/mattn/go-isatty"

	"github.com/ao-picterra/pycterra-cli/internal/cmderrors"
	"github.com/ao-picterra/pycterra-cli/internal/version"
)

const (
	prog = "picterra"

	apiKeyEnvVar   = "PICTERRA_API_KEY"
	endpointEnvVar = "PICTERRA_BASE_URL"
	configFilename = "picterra-config.json"

	defaultEndpoint = "https://app.picterra.ch/public/api/v2"
)

var (
	versionFlag = flag.Bool("version", false, "print the version and exit")
	configPath  = flag.String("config", "", "")
	endpoint    = flag.String("endpoint", "", "")
)

func main() {
	// Configure logging.
	log.SetFlags(0)
	log.SetPrefix("")

	// A .env file in the working directory may carry the credential.
	_ = godotenv.Load()

	flag.Parse()
	if *versionFlag {
		fmt.Println(version.BuildTag)
		os.Exit(0)
	}

	cfg, err := readConfig()
	if err != nil {
		log.Fatal("reading config: ", err)
	}

	c, err := newCLI(cfg, os.Stdout, os.Stderr)
	if err != nil {
		log.Fatal(err)
	}
	if err := c.run(flag.Args()); err != nil {
		exitWithError(err)
	}
}

// exitWithError prints the failure message (red when stderr is a
// terminal) and exits with the error's code.
func exitWithError(err error) {
	var exitErr *cmderrors.ExitCodeError
	if stderrors.As(err, &exitErr) {
		if exitErr.HasError() {
			fmt.Fprintln(os.Stderr, colorize(exitErr.Error()))
		}
		os.Exit(exitErr.Code())
	}
	fmt.Fprintln(os.Stderr, colorize(err.Error()))
	os.Exit(1)
}

func colorize(msg string) string {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return "\033[91m" + msg + "\033[00m"
	}
	return msg
}

// config represents the config file format.
type config struct {
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"apiKey"`
}

// readConfig reads the config file from the given path, plus any
// in-scope environment variables. The environment always supersedes the
// file, so the credential check can name the variable to set.
func readConfig() (*config, error) {
	cfgPath := *configPath
	userSpecified := cfgPath != ""
	if !userSpecified {
		currentUser, err := user.Current()
		if err != nil {
			return nil, err
		}
		cfgPath = filepath.Join(currentUser.HomeDir, configFilename)
	}
	data, err := os.ReadFile(os.ExpandEnv(cfgPath))
	if err != nil && (!os.IsNotExist(err) || userSpecified) {
		return nil, err
	}
	var cfg config
	if err == nil {
		if err := jsoniter.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	// Apply environment and flag overrides.
	if envKey := os.Getenv(apiKeyEnvVar); envKey != "" {
		cfg.APIKey = envKey
	}
	userEndpoint := *endpoint
	if envEndpoint := os.Getenv(endpointEnvVar); userEndpoint == "" && envEndpoint != "" {
		userEndpoint = envEndpoint
	}
	if userEndpoint != "" {
		cfg.Endpoint = strings.TrimSuffix(userEndpoint, "/")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	return &cfg, nil
}
