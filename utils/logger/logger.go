package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/types"
)

var (
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	// protocol messages go to stdout, one json document per line
	outputMu sync.Mutex
	output   io.Writer = os.Stdout
)

// Info writes record into os.Stderr with log level INFO
func Info(v ...interface{}) {
	if len(v) == 1 {
		logger.Info().Interface("message", v[0]).Send()
	} else {
		logger.Info().Msgf("%s", v...)
	}
}

// Infof writes record into os.Stderr with log level INFO
func Infof(format string, v ...interface{}) {
	logger.Info().Msgf(format, v...)
}

// Debug writes record into os.Stderr with log level DEBUG
func Debug(v ...interface{}) {
	logger.Debug().Msgf("%s", v...)
}

// Debugf writes record into os.Stderr with log level DEBUG
func Debugf(format string, v ...interface{}) {
	logger.Debug().Msgf(format, v...)
}

// Error writes record into os.Stderr with log level ERROR
func Error(v ...interface{}) {
	logger.Error().Msgf("%s", v...)
}

// Errorf writes record into os.Stderr with log level ERROR
func Errorf(format string, v ...interface{}) {
	logger.Error().Msgf(format, v...)
}

// Fatal writes record into os.Stderr with log level FATAL and exits
func Fatal(v ...interface{}) {
	logger.Fatal().Msgf("%s", v...)
	os.Exit(1)
}

// Fatalf writes record into os.Stderr with log level FATAL and exits
func Fatalf(format string, v ...interface{}) {
	logger.Fatal().Msgf(format, v...)
	os.Exit(1)
}

// Warn writes record into os.Stderr with log level WARN
func Warn(v ...interface{}) {
	logger.Warn().Msgf("%s", v...)
}

// Warnf writes record into os.Stderr with log level WARN
func Warnf(format string, v ...interface{}) {
	logger.Warn().Msgf(format, v...)
}

// SetOutput replaces the protocol message writer and returns a func restoring the previous one
func SetOutput(w io.Writer) func() {
	outputMu.Lock()
	defer outputMu.Unlock()

	previous := output
	output = w
	return func() {
		outputMu.Lock()
		defer outputMu.Unlock()
		output = previous
	}
}

// Emit writes a protocol message to the output stream
func Emit(message *types.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %s", message.Type, err)
	}

	outputMu.Lock()
	defer outputMu.Unlock()

	_, err = output.Write(append(data, '\n'))
	return err
}

func LogSpec(spec map[string]interface{}) {
	message := &types.Message{
		Type: types.SpecMessage,
		Spec: spec,
	}

	Debug("logging spec")
	if err := Emit(message); err != nil {
		Fatalf("failed to emit spec: %s", err)
	}
}

func LogCatalog(streams []*types.Stream) {
	message := &types.Message{
		Type:    types.CatalogMessage,
		Catalog: types.GetWrappedCatalog(streams),
	}

	Debug("logging catalog")
	if err := Emit(message); err != nil {
		Fatalf("failed to emit catalog: %s", err)
	}

	if configFolder := artifactFolder(); configFolder != "" {
		err := FileLogger(message.Catalog, configFolder, "catalog", ".json")
		if err != nil {
			Fatalf("failed to create catalog file: %s", err)
		}
	}
}

func LogConnectionStatus(err error) {
	message := &types.Message{
		Type:             types.ConnectionStatusMessage,
		ConnectionStatus: &types.StatusRow{},
	}
	if err != nil {
		message.ConnectionStatus.Message = err.Error()
		message.ConnectionStatus.Status = types.ConnectionFailed
	} else {
		message.ConnectionStatus.Status = types.ConnectionSucceed
	}

	if err := Emit(message); err != nil {
		Errorf("failed to emit connection status: %s", err)
	}
}

// LogState emits the full bookmark mapping as a STATE message and persists it to the state file
func LogState(state *types.State) {
	state.RLock()
	defer state.RUnlock()

	message := &types.Message{
		Type:  types.StateMessage,
		Value: state,
	}

	Debug("logging state")
	if err := Emit(message); err != nil {
		Fatalf("failed to emit state: %s", err)
	}

	if statePath := viper.GetString(constants.StatePath); statePath != "" && !viper.GetBool(constants.NoFileArtifact) {
		err := FileLoggerWithPath(state, statePath)
		if err != nil {
			Fatalf("failed to create state file: %s", err)
		}
	}
}

func artifactFolder() string {
	if viper.GetBool(constants.NoFileArtifact) {
		return ""
	}

	return viper.GetString(constants.ConfigFolder)
}

// FileLogger creates a new file or overwrites an existing one with the specified filename, path, extension
func FileLogger(content any, filePath string, fileName, fileExtension string) error {
	return FileLoggerWithPath(content, filepath.Join(filePath, fileName+fileExtension))
}

// FileLoggerWithPath writes content as json to fullPath, truncating any previous content
func FileLoggerWithPath(content any, fullPath string) error {
	contentBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %s", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create or open file: %s", err)
	}
	defer file.Close()

	_, err = file.Write(contentBytes)
	if err != nil {
		return fmt.Errorf("failed to write data to file: %s", err)
	}

	return nil
}

// StatsLogger logs the synced record count every interval until ctx is done
func StatsLogger(ctx context.Context, interval time.Duration, statsFunc func() (synced int64, running int64)) {
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				synced, running := statsFunc()
				elapsed := time.Since(startTime).Seconds()
				speed := float64(0)
				if elapsed > 0 {
					speed = float64(synced) / elapsed
				}
				logger.Info().
					Int64("synced_records", synced).
					Int64("running_streams", running).
					Str("memory", memoryUsage()).
					Str("speed", fmt.Sprintf("%.2f rps", speed)).
					Str("elapsed", time.Since(startTime).Round(time.Second).String()).
					Msg("sync stats")
			}
		}
	}()
}

func Init() {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString(constants.LogLevel)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var currentLevel string
	// LogColors defines ANSI color codes for log levels
	var logColors = map[string]string{
		"debug": "\033[36m", // Cyan
		"info":  "\033[32m", // Green
		"warn":  "\033[33m", // Yellow
		"error": "\033[31m", // Red
		"fatal": "\033[31m", // Red
	}
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05",
		FormatLevel: func(i interface{}) string {
			level, _ := i.(string)
			currentLevel = level
			color := logColors[level]
			return fmt.Sprintf("%s%s\033[0m", color, strings.ToUpper(level))
		},
		FormatMessage: func(i interface{}) string {
			msg := ""
			switch v := i.(type) {
			case string:
				msg = v
			case nil:
				return ""
			default:
				jsonMsg, err := json.Marshal(v)
				if err != nil {
					return err.Error()
				}
				return string(jsonMsg)
			}
			if currentLevel == zerolog.ErrorLevel.String() || currentLevel == zerolog.FatalLevel.String() {
				msg = fmt.Sprintf("\033[31m%s\033[0m", msg)
			}
			return msg
		},
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprintf("\033[90m%s\033[0m", i)
		},
	}

	configFolder := artifactFolder()
	if configFolder == "" {
		logger = zerolog.New(console).With().Timestamp().Logger()
		return
	}

	timestamp := time.Now().UTC().Format("2006-1-2_15-4-5")
	rotatingFile := &lumberjack.Logger{
		Filename:   filepath.Join(configFolder, "logs", fmt.Sprintf("sync_%s", timestamp), "tap.log"),
		MaxSize:    100, // Max size in MB before log rotation
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	multiwriter := zerolog.MultiLevelWriter(console, rotatingFile)
	logger = zerolog.New(multiwriter).With().Timestamp().Logger()
}
