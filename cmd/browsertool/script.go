package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/browsertool/pkg/tools/browser"
)

// Script is a sequence of browser actions run on one session.
//
//	stop_on_error: true
//	steps:
//	  - action: navigate
//	    url: https://example.com
//	  - action: extract
//	    selector: h1
type Script struct {
	StopOnError bool   `yaml:"stop_on_error"`
	Steps       []Step `yaml:"steps"`
}

// Step is one scripted action. Text is a pointer so that an explicit
// empty string is kept apart from an absent field.
type Step struct {
	Name           string  `yaml:"name"`
	Action         string  `yaml:"action"`
	URL            string  `yaml:"url"`
	Selector       string  `yaml:"selector"`
	Text           *string `yaml:"text"`
	ScreenshotPath string  `yaml:"screenshot_path"`
	WaitTimeout    int     `yaml:"wait_timeout"`
}

// Request converts the step into a browser request.
func (s Step) Request() browser.Request {
	return browser.Request{
		Action:         browser.Action(s.Action),
		URL:            s.URL,
		Selector:       s.Selector,
		Text:           s.Text,
		ScreenshotPath: s.ScreenshotPath,
		WaitTimeout:    s.WaitTimeout,
	}
}

// Label names the step in output.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Action
}

// loadScript reads and parses a script file. "-" reads stdin.
func loadScript(path string, stdin io.Reader) (*Script, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return parseScript(data)
}

func parseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("script has no steps")
	}
	for i, step := range script.Steps {
		if step.Action == "" {
			return nil, fmt.Errorf("step %d: action is required", i+1)
		}
	}
	return &script, nil
}
