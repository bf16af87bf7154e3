package commonGo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/multiversx/mx-chain-logger-go/file"
)

var log = logger.GetOrCreate("commonGo")

// ArgsFileLogger holds the settings of the optional service log file
type ArgsFileLogger struct {
	WorkingDir      string
	DefaultLogsPath string
	LogFilePrefix   string
	SaveLogFile     bool
	LifeSpan        time.Duration
	LifeSpanInMB    uint64
}

// AttachFileLogger attaches, if required, a log file rotated after the configured life span
func AttachFileLogger(serviceLog logger.Logger, args ArgsFileLogger) (FileLoggingHandler, error) {
	err := logger.SetDisplayByteSlice(logger.ToHex)
	serviceLog.LogIfError(err)

	if !args.SaveLogFile {
		return nil, nil
	}

	logFile, err := file.NewFileLogging(file.ArgsFileLogging{
		WorkingDir:      args.WorkingDir,
		DefaultLogsPath: args.DefaultLogsPath,
		LogFilePrefix:   args.LogFilePrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("%w creating a log file", err)
	}

	if args.LifeSpan > 0 {
		err = logFile.ChangeFileLifeSpan(args.LifeSpan, args.LifeSpanInMB)
		if err != nil {
			_ = logFile.Close()
			return nil, err
		}
	}

	return logFile, nil
}

// ReadEnvFile fills the provided map from the .env file. Variables already set in the process environment take
// precedence and a missing .env file is accepted as long as every key is set in the environment.
func ReadEnvFile(envFile string, m map[string]string) error {
	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read env file '%s': %w", envFile, err)
	}

	for k := range m {
		val := os.Getenv(k)
		if len(val) == 0 {
			return fmt.Errorf("%s is not set in the .env file or in the environment", k)
		}

		m[k] = val
	}

	return nil
}

// CycleHandler is one run of a periodic job
type CycleHandler func(ctx context.Context)

// CronJobStarter starts a go routine that calls the handler right away and then every interval, measured between the
// end of a cycle and the start of the next one so cycles never overlap. The returned channel is closed once the go
// routine exits after the context is done.
func CronJobStarter(ctx context.Context, name string, handler CycleHandler, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-timer.C:
				start := time.Now()
				handler(ctx)
				log.Debug("cron job cycle finished", "job", name, "duration", time.Since(start))

				timer.Reset(interval)
			case <-ctx.Done():
				log.Debug("cron job stopped", "job", name)
				return
			}
		}
	}()

	return done
}
