package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

const delim = "."

// Loader 持有已解析的配置，支持并发读取与原子替换。
type Loader struct {
	path   string
	format Format

	mu  sync.RWMutex
	cfg Config
}

// Load 从文件加载配置，格式按扩展名识别（.yaml/.yml/.json）。
func Load(path string) (*Loader, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	l := &Loader{path: path, format: format}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.cfg = cfg
	return l, nil
}

// LoadBytes 从字节数据加载配置，需显式指定格式。
//
// 适用于 ConfigMap 等非文件来源；产物不支持 Reload 与 Watch。
func LoadBytes(data []byte, format Format) (*Loader, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}

	cfg, err := parse(data, format)
	if err != nil {
		return nil, err
	}
	return &Loader{format: format, cfg: cfg}, nil
}

// Config 返回当前配置快照。
func (l *Loader) Config() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Path 返回配置文件路径，字节来源返回空字符串。
func (l *Loader) Path() string {
	return l.path
}

// Reload 重新读取并解析配置文件，成功后原子替换当前快照。
//
// 解析或校验失败时保留旧配置。
func (l *Loader) Reload() (Config, error) {
	if l.path == "" {
		return Config{}, ErrNotWatchable
	}

	cfg, err := l.load()
	if err != nil {
		return Config{}, err
	}

	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) load() (Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return parse(data, l.format)
}

// parse 在默认配置基底上叠加文件内容并校验。
func parse(data []byte, format Format) (Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return Config{}, ErrUnsupportedFormat
	}

	k := koanf.New(delim)
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func isValidFormat(format Format) bool {
	switch format {
	case FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}
