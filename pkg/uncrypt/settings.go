package uncrypt

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// MaxBruteForceLength is the longest password the brute-force phase
// may try; the DES key uses only the first 8 bytes anyway.
const MaxBruteForceLength = 8

// DefaultMaxBruteForceWaves is the amount of brute-force waves run
// by default. With too few workers the longest lengths are not reached.
const DefaultMaxBruteForceWaves = 3

type Settings struct {
	// Workers is the amount of length classes brute-forced in parallel.
	// Values below 2 mean a single sequential worker.
	Workers int `yaml:"workers"`

	// Campaigns are the names of the dictionary campaigns to run;
	// empty means all of them.
	Campaigns []string `yaml:"campaigns"`

	// Deduplicate drops repeated dictionary words before the search.
	Deduplicate bool `yaml:"deduplicate"`

	SkipBruteForce      bool `yaml:"skip_bruteforce"`
	MaxBruteForceLength int  `yaml:"max_bruteforce_length"`

	// MaxBruteForceWaves limits the amount of waves; lengths which
	// do not fit are skipped. Zero means no limit.
	MaxBruteForceWaves int `yaml:"max_bruteforce_waves"`

	// ProgressInterval is how often the progress is logged; zero disables it.
	ProgressInterval time.Duration `yaml:"progress_interval"`
}

func DefaultSettings() *Settings {
	return &Settings{
		Workers:             runtime.NumCPU(),
		Deduplicate:         true,
		MaxBruteForceLength: MaxBruteForceLength,
		MaxBruteForceWaves:  DefaultMaxBruteForceWaves,
		ProgressInterval:    time.Minute,
	}
}

// LoadSettingsFile reads YAML settings; absent keys keep their defaults.
func LoadSettingsFile(filePath string) (*Settings, error) {
	b, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read the settings file '%s': %w", filePath, err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(b, settings); err != nil {
		return nil, fmt.Errorf("unable to parse the settings file '%s': %w", filePath, err)
	}
	return settings, nil
}

// Validate returns all the problems of the settings at once.
func (s *Settings) Validate() error {
	var errs *multierror.Error
	if s.Workers < 0 {
		errs = multierror.Append(errs, fmt.Errorf("the amount of workers cannot be negative: %d", s.Workers))
	}
	if s.MaxBruteForceLength < 1 || s.MaxBruteForceLength > MaxBruteForceLength {
		errs = multierror.Append(errs, fmt.Errorf("the brute-force length limit should be within [1, %d], but is %d", MaxBruteForceLength, s.MaxBruteForceLength))
	}
	if s.MaxBruteForceWaves < 0 {
		errs = multierror.Append(errs, fmt.Errorf("the brute-force waves limit cannot be negative: %d", s.MaxBruteForceWaves))
	}
	if s.ProgressInterval < 0 {
		errs = multierror.Append(errs, fmt.Errorf("the progress interval cannot be negative: %v", s.ProgressInterval))
	}
	known := CampaignNames()
	for _, name := range s.Campaigns {
		if !slices.Contains(known, name) {
			errs = multierror.Append(errs, fmt.Errorf("unknown campaign '%s', known campaigns: %v", name, known))
		}
	}
	return errs.ErrorOrNil()
}
