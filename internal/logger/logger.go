package logger

import (
	"io"
	stdlog "log"

	"github.com/Origamihase/wien-oepnv/internal/config"
	"github.com/rs/zerolog"
)

// New creates the root logger from application configuration.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	loggerConfig := convertConfig(cfg)
	return build(loggerConfig)
}

func convertConfig(cfg config.LogConfig) LoggerConfig {
	loggerConfig := DefaultLoggerConfig()
	loggerConfig.Level = ParseLevel(cfg.LogLevel)
	loggerConfig.Format = ParseFormat(cfg.LogFormat)
	loggerConfig.EnableFile = cfg.LogFile != ""
	loggerConfig.FilePath = cfg.LogFile
	if cfg.MaxLogSizeMB > 0 {
		loggerConfig.MaxSizeMB = cfg.MaxLogSizeMB
	}
	if cfg.MaxLogBackups > 0 {
		loggerConfig.MaxBackups = cfg.MaxLogBackups
	}
	return loggerConfig
}

func build(cfg LoggerConfig) (zerolog.Logger, error) {
	factory := NewWriterFactory()

	var writers []io.Writer
	if cfg.EnableConsole {
		writers = append(writers, factory.CreateConsoleWriter(cfg.Format))
	}
	if cfg.EnableFile {
		writers = append(writers, factory.CreateFileWriter(cfg))
	}
	if len(writers) == 0 {
		writers = append(writers, factory.CreateConsoleWriter(cfg.Format))
	}

	multiWriter := zerolog.MultiLevelWriter(writers...)
	zerologInstance := zerolog.New(multiWriter).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(cfg.Level)
	stdlog.SetOutput(zerologInstance)
	stdlog.SetFlags(0)

	return zerologInstance, nil
}
