package model

import (
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/yourname/bgp-clock-offset/utils"
)

// Config stores data locations, beacon tables and the tuning parameters of
// the analysis. It is built once and passed by value to every stage.
type Config struct {
	ResultDir            string `yaml:"result_dir"`
	AlternativeResultDir string `yaml:"alternative_result_dir"`

	// Sentinel is the delay assigned to unmeasured collector pairs.
	Sentinel float64 `yaml:"sentinel"`
	// Ceiling separates measured shortest distances from sentinel artifacts.
	Ceiling float64 `yaml:"ceiling"`
	// MinSamples is the event count a clock profile must exceed to be used.
	MinSamples int `yaml:"min_samples"`
	// MinPathEvents is the count a path quantile record must exceed to be used.
	MinPathEvents int `yaml:"min_path_events"`
	// Workers bounds parallel window computations; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`

	RFDThreshold    time.Duration   `yaml:"rfd_threshold"`
	ZombieThreshold time.Duration   `yaml:"zombie_threshold"`
	AnchorLookback  time.Duration   `yaml:"anchor_lookback"`
	ClockGuard      time.Duration   `yaml:"clock_guard"`
	WindowLength    time.Duration   `yaml:"window_length"`
	ClockPercentile ClockPercentile `yaml:"clock_percentile"`

	Beacons     []Beacon              `yaml:"beacons"`
	Experiments map[string]Experiment `yaml:"experiments"`
}

// Beacon ties beacon prefixes to their anchor prefix and origin collector.
type Beacon struct {
	Prefixes  []string `yaml:"prefixes"`
	Anchor    string   `yaml:"anchor"`
	Collector string   `yaml:"collector"`
}

// Experiment is a range of days over which beacon events are analysed.
type Experiment struct {
	Name    string `yaml:"-"`
	InitDay string `yaml:"init_day"`
	EndDay  string `yaml:"end_day"`

	first, last time.Time
}

// LoadConfig loads configuration from a YAML file path. Fields missing from
// the file keep the values of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig returns the parameters of the 2009 RIS beacon deployment.
func DefaultConfig() Config {
	return Config{
		ResultDir:       "/srv/beacon_convergence",
		Sentinel:        1000000,
		Ceiling:         100,
		MinSamples:      50,
		MinPathEvents:   45,
		RFDThreshold:    20 * time.Minute,
		ZombieThreshold: 90 * time.Minute,
		AnchorLookback:  10 * time.Minute,
		ClockGuard:      time.Minute,
		WindowLength:    utils.WindowLength,
		ClockPercentile: ClockP90,
		Beacons:         ris2009Beacons(),
		Experiments:     ris2009Experiments(),
	}
}

// Validate checks the parameters that later stages rely on.
func (c Config) Validate() error {
	if c.Sentinel <= 0 {
		return errors.New("sentinel must be positive")
	}
	if c.Ceiling <= 0 || c.Ceiling > c.Sentinel {
		return errors.Errorf("ceiling %v must be in (0, sentinel]", c.Ceiling)
	}
	if c.ClockPercentile != ClockP50 && c.ClockPercentile != ClockP90 {
		return errors.Errorf("clock_percentile %q must be p50 or p90", c.ClockPercentile)
	}
	if c.WindowLength <= c.ClockGuard {
		return errors.Errorf("window_length %v must exceed clock_guard %v", c.WindowLength, c.ClockGuard)
	}
	if len(c.Beacons) == 0 {
		return errors.New("no beacons configured")
	}
	for name, exp := range c.Experiments {
		exp.Name = name
		if _, err := exp.parsed(); err != nil {
			return err
		}
	}
	return nil
}

// Parallelism returns the number of concurrent window workers to use.
func (c Config) Parallelism() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Experiment looks up a configured experiment by name.
func (c Config) Experiment(name string) (Experiment, error) {
	exp, ok := c.Experiments[name]
	if !ok {
		return Experiment{}, errors.Wrap(ErrUnknownExperiment, name)
	}
	exp.Name = name
	return exp.parsed()
}

// Collectors returns the sorted, de-duplicated collectors of the beacon table.
func (c Config) Collectors() []CollectorID {
	seen := make(map[CollectorID]bool)
	var out []CollectorID
	for _, b := range c.Beacons {
		id := NewCollectorID(b.Collector)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BeaconPrefixes returns the beacon prefixes analysed by the experiments.
func (c Config) BeaconPrefixes() []string {
	var out []string
	for _, b := range c.Beacons {
		out = append(out, b.Prefixes...)
	}
	return out
}

// BeaconCollector returns the collector originating the beacon prefix.
func (c Config) BeaconCollector(prefix string) (CollectorID, bool) {
	for _, b := range c.Beacons {
		for _, p := range b.Prefixes {
			if p == prefix {
				return NewCollectorID(b.Collector), true
			}
		}
	}
	return "", false
}

// AnchorBeacon returns the beacon prefix controlled by anchor.
func (c Config) AnchorBeacon(anchor string) (string, bool) {
	for _, b := range c.Beacons {
		if b.Anchor == anchor && len(b.Prefixes) > 0 {
			return b.Prefixes[0], true
		}
	}
	return "", false
}

func (e Experiment) parsed() (Experiment, error) {
	var err error
	if e.first, err = parseDay(e.InitDay); err != nil {
		return Experiment{}, errors.Wrapf(err, "experiment %s", e.Name)
	}
	if e.last, err = parseDay(e.EndDay); err != nil {
		return Experiment{}, errors.Wrapf(err, "experiment %s", e.Name)
	}
	if e.last.Before(e.first) {
		return Experiment{}, errors.Errorf("experiment %s ends before it starts", e.Name)
	}
	return e, nil
}

func parseDay(s string) (time.Time, error) {
	t, err := utils.ParseDay(s)
	if err != nil {
		return time.Time{}, errors.Wrap(ErrInvalidDay, s)
	}
	if t.Year() < 1995 || t.Year() > 2030 {
		return time.Time{}, errors.Wrapf(ErrInvalidDay, "%s: year out of range", s)
	}
	return t, nil
}

// Windows returns the number of beacon events in the experiment.
func (e Experiment) Windows() int { return utils.WindowCount(e.first, e.last) }

// Start returns the first day of the experiment.
func (e Experiment) Start() time.Time { return e.first }

// WindowRange returns the time range of window w.
func (e Experiment) WindowRange(w Window) utils.TimeRange {
	return utils.WindowRange(e.first, int(w))
}
