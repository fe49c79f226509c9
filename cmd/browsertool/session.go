package main

import (
	"fmt"
	"io"

	"github.com/entrhq/browsertool/pkg/config"
	"github.com/entrhq/browsertool/pkg/logging"
	"github.com/entrhq/browsertool/pkg/tools/browser"
)

func initConfig() error {
	if err := config.Initialize(flagConfig); err != nil {
		return err
	}

	cfg := config.Global()
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagHeadful {
		cfg.Browser.Headless = false
	}
	return nil
}

// newLogger honours log.file: a per-run file under ~/.browsertool/logs, or stderr.
func newLogger(cfg *config.Config, stderr io.Writer) *logging.Logger {
	if !cfg.Log.File {
		return logging.New("browser", stderr, cfg.Log.Level)
	}
	// On failure NewLogger already falls back to stderr and says so
	l, err := logging.NewLogger("browser", cfg.Log.Level)
	if err == nil {
		fmt.Fprintf(stderr, "logging session %s to %s\n", logging.GetSessionID(), l.LogPath())
	}
	return l
}

// newTool builds the browser tool from the global config. The caller owns
// both returned values and must Cleanup the tool and Close the logger.
func newTool(stderr io.Writer) (*browser.BrowserTool, *logging.Logger, error) {
	cfg := config.Global()
	logger := newLogger(cfg, stderr).With("engine", cfg.Browser.Engine)

	opts, err := cfg.SessionOptions(logger)
	if err != nil {
		logger.Close()
		return nil, nil, fmt.Errorf("invalid browser options: %w", err)
	}

	logger.Debugf("headless=%v persistent=%v", opts.Headless, opts.UserDataDir != "")
	session := browser.NewSession(cfg.Driver(), opts)
	return browser.NewBrowserTool(session), logger, nil
}

// closeTool releases the session and the logger, logging cleanup failures.
func closeTool(tool *browser.BrowserTool, logger *logging.Logger) {
	if err := tool.Cleanup(); err != nil {
		logger.Warnf("cleanup: %v", err)
	}
	logger.Close()
}
