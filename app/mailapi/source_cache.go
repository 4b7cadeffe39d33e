package mailapi

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceCache loads and caches email source profiles from a directory of
// YAML files.
type SourceCache struct {
	sourcesDir string
	cache      map[string]*Source
	mu         sync.RWMutex
}

func NewSourceCache(sourcesDir string) *SourceCache {
	return &SourceCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Source),
	}
}

func (sc *SourceCache) Run() error {
	if _, err := os.Stat(sc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(sc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		sourceName := strings.TrimSuffix(fileName, ".yml")

		source, err := sc.LoadSource(sourceName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source profile loaded", "source", sourceName, "enabled", source.Settings.Enabled, "prefix", source.Prefix)
	}

	return nil
}

func (sc *SourceCache) LoadSource(sourceName string) (*Source, error) {
	sourceFile := filepath.Join(sc.sourcesDir, sourceName+".yml")

	source, err := sc.parseSource(sourceFile)
	if err != nil {
		return nil, err
	}

	source.Name = sourceName

	if err := sc.validateSource(source); err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", sourceFile, err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cache[source.Name] = source

	return source, nil
}

func (sc *SourceCache) GetSource(sourceName string) (*Source, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	source, ok := sc.cache[sourceName]
	if !ok {
		return nil, fmt.Errorf("source profile with name '%s' not found", sourceName)
	}
	return source, nil
}

func (sc *SourceCache) GetEnabledSources() map[string]*Source {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	enabled := make(map[string]*Source)
	for k, v := range sc.cache {
		if v.Settings.Enabled {
			enabled[k] = v
		}
	}
	return enabled
}

func (sc *SourceCache) GetSourceCount() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.cache)
}

func (sc *SourceCache) parseSource(sourceFile string) (*Source, error) {
	data, err := os.ReadFile(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var source Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if source.Settings.ListBatchSize == 0 {
		source.Settings.ListBatchSize = DefaultListBatchSize
	}
	if source.Settings.FetchBatchSize == 0 {
		source.Settings.FetchBatchSize = DefaultFetchBatchSize
	}
	if source.Settings.ImportInterval == 0 {
		source.Settings.ImportInterval = 3600
	}
	if source.Settings.Timeout == 0 {
		source.Settings.Timeout = 60
	}

	return &source, nil
}

func (sc *SourceCache) validateSource(source *Source) error {
	if source == nil {
		return fmt.Errorf("source is nil")
	}

	requiredFields := map[string]string{
		"source URL":   source.URL,
		"source token": source.Token,
		"id prefix":    source.Prefix,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if source.Since != "" {
		if _, err := time.Parse("2006-01-02", source.Since); err != nil {
			return fmt.Errorf("since must be an ISO date (YYYY-MM-DD): %w", err)
		}
	}

	nonNegativeFields := map[string]int{
		"list batch size":  source.Settings.ListBatchSize,
		"fetch batch size": source.Settings.FetchBatchSize,
		"import interval":  source.Settings.ImportInterval,
		"timeout":          source.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	return nil
}
