package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 로거 설정
type Config struct {
	// Level 로그 레벨 (debug, info, warn, error, dpanic, panic, fatal)
	Level string `yaml:"level"`
	// Format 로그 포맷 (json, console)
	Format string `yaml:"format"`
	// Output 로그 출력 대상 (stdout, stderr, file)
	Output string `yaml:"output"`
	// FilePath output이 file일 때 사용하는 경로
	FilePath string `yaml:"file_path"`
	// Rotation 파일 출력 시 로테이션 설정
	Rotation RotationConfig `yaml:"rotation"`
	// Development 개발 모드 여부
	Development bool `yaml:"development"`
}

// RotationConfig lumberjack 로테이션 설정
type RotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// ParseLevel 문자열 레벨을 zapcore 레벨로 변환합니다. 알 수 없는 값은 info
func ParseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// NewZapLogger 설정에 맞는 zap 로거를 생성합니다.
func NewZapLogger(config Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(ParseLevel(config.Level))

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "@timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.LevelKey = "log.level"
	encoderConfig.MessageKey = "message"
	encoderConfig.CallerKey = "caller"

	if config.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var encoder zapcore.Encoder
	if config.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, newWriteSyncer(config), level)
	logger := zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))

	if config.Development {
		logger = logger.WithOptions(zap.AddCaller(), zap.Development())
	}

	return logger, nil
}

func newWriteSyncer(config Config) zapcore.WriteSyncer {
	switch config.Output {
	case "stderr":
		return zapcore.Lock(os.Stderr)
	case "file":
		if config.FilePath == "" {
			return zapcore.Lock(os.Stdout)
		}
		// 파일은 lumberjack이 크기/기간 기준으로 로테이션합니다
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    withDefault(config.Rotation.MaxSizeMB, 100),
			MaxBackups: withDefault(config.Rotation.MaxBackups, 5),
			MaxAge:     withDefault(config.Rotation.MaxAgeDays, 28),
			Compress:   config.Rotation.Compress,
		})
	default:
		return zapcore.Lock(os.Stdout)
	}
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// DefaultZapLogger 기본 설정 로거. 설정 로딩 전 단계에서 사용합니다.
func DefaultZapLogger() *zap.Logger {
	logger, err := NewZapLogger(Config{Level: "info", Format: "json", Output: "stdout"})
	if err != nil {
		return zap.NewExample()
	}
	return logger
}
