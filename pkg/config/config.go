// Package config는 viper 기반 설정 로딩을 담당합니다.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config 설정 값 접근 인터페이스
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	GetAll() map[string]interface{}
	// Decode는 전체 설정(환경 변수 오버라이드 포함)을 yaml 태그 구조체로 디코딩합니다
	Decode(target interface{}) error
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string { return c.v.GetString(key) }
func (c *viperConfig) GetInt(key string) int { return c.v.GetInt(key) }
func (c *viperConfig) GetBool(key string) bool { return c.v.GetBool(key) }
func (c *viperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *viperConfig) GetAll() map[string]interface{} { return c.v.AllSettings() }

func (c *viperConfig) Decode(target interface{}) error {
	// 구조체 태그는 yaml 기준으로 맞춥니다. 환경 변수 문자열("8181", "30s")은
	// viper 기본 디코드 훅과 WeaklyTypedInput으로 변환됩니다.
	err := c.v.Unmarshal(target, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return fmt.Errorf("설정 디코딩 실패: %w", err)
	}
	return nil
}

// Option Load 옵션
type Option func(v *viper.Viper) error

// WithDefaults는 yaml 태그 구조체의 값을 기본값으로 등록합니다.
// 등록된 키는 설정 파일에 없어도 환경 변수로 덮어쓸 수 있습니다.
func WithDefaults(defaults interface{}) Option {
	return func(v *viper.Viper) error {
		raw, err := yaml.Marshal(defaults)
		if err != nil {
			return fmt.Errorf("기본값 직렬화 실패: %w", err)
		}
		var tree map[string]interface{}
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return fmt.Errorf("기본값 파싱 실패: %w", err)
		}
		setDefaults(v, "", tree)
		return nil
	}
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]interface{}); ok {
			setDefaults(v, key, nested)
			continue
		}
		v.SetDefault(key, val)
	}
}

// 설정 디렉토리 기본 경로
const configDir = "configs"

// Load는 서비스 이름에 해당하는 설정 파일을 로드합니다.
//
// 탐색 순서: $CONFIG_PATH/{service}.yaml, configs/{APP_ENV}/{service}.yaml,
// configs/example/{service}.yaml. 환경 변수 {SERVICE}_{KEY}가 파일 값을 덮어씁니다
// (예: BILLING_DATABASE_PASSWORD).
func Load(serviceName string, opts ...Option) (Config, error) {
	v := viper.New()
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(serviceName)
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(filepath.Join(configDir, env))
	v.AddConfigPath(filepath.Join(configDir, "example"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("설정 파일 로드 실패: %w", err)
	}

	return &viperConfig{v: v}, nil
}
