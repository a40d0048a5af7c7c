package bench

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dennishilgert/benchvm/pkg/results"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	defaultMetric = "score"

	// scoreGroup is the named regex group holding the score. Without it the
	// first capture group is used.
	scoreGroup = "score"
)

var ErrBenchmarkNotFound = errors.New("benchmark not found")

// Benchmark is a single benchmark of a suite.
type Benchmark struct {
	Name   string   `mapstructure:"name" validate:"required"`
	Args   []string `mapstructure:"args" validate:"required,min=1"`
	Score  string   `mapstructure:"score" validate:"required"`
	Unit   string   `mapstructure:"unit"`
	Metric string   `mapstructure:"metric"`
	Better string   `mapstructure:"better" validate:"omitempty,oneof=higher lower"`

	scorePattern *regexp.Regexp
}

// Suite is a named list of benchmarks run against a guest vm.
type Suite struct {
	Name       string      `mapstructure:"name" validate:"required"`
	Benchmarks []Benchmark `mapstructure:"benchmarks" validate:"required,min=1,dive"`
}

// LoadSuite reads and validates a suite definition file.
func LoadSuite(path string) (*Suite, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading suite file %s: %w", path, err)
	}

	var suite Suite
	if err := v.Unmarshal(&suite); err != nil {
		return nil, fmt.Errorf("error unmarshaling suite file %s: %w", path, err)
	}
	if err := suite.Prepare(); err != nil {
		return nil, fmt.Errorf("invalid suite file %s: %w", path, err)
	}
	return &suite, nil
}

// Prepare validates the suite, applies defaults and compiles the score patterns.
func (s *Suite) Prepare() error {
	if err := validator.New().Struct(s); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(s.Benchmarks))
	for i := range s.Benchmarks {
		b := &s.Benchmarks[i]
		if _, ok := seen[b.Name]; ok {
			return fmt.Errorf("benchmark %s is defined more than once", b.Name)
		}
		seen[b.Name] = struct{}{}

		pattern, err := regexp.Compile(b.Score)
		if err != nil {
			return fmt.Errorf("benchmark %s has an invalid score pattern: %w", b.Name, err)
		}
		if pattern.NumSubexp() == 0 {
			return fmt.Errorf("benchmark %s score pattern has no capture group", b.Name)
		}
		b.scorePattern = pattern

		if b.Metric == "" {
			b.Metric = defaultMetric
		}
		if b.Better == "" {
			b.Better = results.BetterHigher
		}
	}
	return nil
}

// Benchmark returns the benchmark with the given name.
func (s *Suite) Benchmark(name string) (Benchmark, bool) {
	for _, b := range s.Benchmarks {
		if b.Name == name {
			return b, true
		}
	}
	return Benchmark{}, false
}

// Select returns a copy of the suite holding only the named benchmarks, in the given order.
// No names selects every benchmark.
func (s *Suite) Select(names []string) (*Suite, error) {
	if len(names) == 0 {
		return s, nil
	}
	selected := &Suite{
		Name:       s.Name,
		Benchmarks: make([]Benchmark, 0, len(names)),
	}
	for _, name := range names {
		b, ok := s.Benchmark(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s in suite %s", ErrBenchmarkNotFound, name, s.Name)
		}
		if _, dup := selected.Benchmark(name); dup {
			continue
		}
		selected.Benchmarks = append(selected.Benchmarks, b)
	}
	return selected, nil
}

// ParseScore extracts the score from the output of a run.
// The last match wins, so warmup iterations printed earlier are ignored.
func (b Benchmark) ParseScore(output string) (float64, bool) {
	if b.scorePattern == nil {
		return 0, false
	}
	matches := b.scorePattern.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return 0, false
	}
	last := matches[len(matches)-1]

	group := 1
	if idx := b.scorePattern.SubexpIndex(scoreGroup); idx > 0 {
		group = idx
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(last[group]), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
