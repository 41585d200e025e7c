package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDiscovery()
	c.normalizeArtifactSource()
	if err := c.normalizeGenerator(); err != nil {
		return err
	}
	c.normalizePublish()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ArtifactDir, err = expandPath(c.Paths.ArtifactDir); err != nil {
		return fmt.Errorf("paths.artifact_dir: %w", err)
	}
	if c.Paths.ResultDir, err = expandPath(c.Paths.ResultDir); err != nil {
		return fmt.Errorf("paths.result_dir: %w", err)
	}
	if c.Paths.DigestDir, err = expandPath(c.Paths.DigestDir); err != nil {
		return fmt.Errorf("paths.digest_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDiscovery() {
	c.Discovery.BaseURL = strings.TrimRight(strings.TrimSpace(c.Discovery.BaseURL), "/")
	if c.Discovery.BaseURL == "" {
		c.Discovery.BaseURL = defaultDiscoveryBaseURL
	}
	c.Discovery.UserAgent = strings.TrimSpace(c.Discovery.UserAgent)
	if c.Discovery.UserAgent == "" {
		c.Discovery.UserAgent = defaultDiscoveryUserAgent
	}
	if c.Discovery.TimeoutSeconds <= 0 {
		c.Discovery.TimeoutSeconds = defaultDiscoveryTimeoutSeconds
	}
}

func (c *Config) normalizeArtifactSource() {
	c.ArtifactSource.BaseURL = strings.TrimRight(strings.TrimSpace(c.ArtifactSource.BaseURL), "/")
	if c.ArtifactSource.BaseURL == "" {
		c.ArtifactSource.BaseURL = defaultArtifactBaseURL
	}
	if c.ArtifactSource.TimeoutSeconds <= 0 {
		c.ArtifactSource.TimeoutSeconds = defaultArtifactTimeoutSeconds
	}
}

func (c *Config) normalizeGenerator() error {
	c.Generator.Command = strings.TrimSpace(c.Generator.Command)
	if c.Generator.Command == "" {
		c.Generator.Command = defaultGeneratorCommand
	}
	var err error
	if c.Generator.SessionFile, err = expandPath(c.Generator.SessionFile); err != nil {
		return fmt.Errorf("generator.session_file: %w", err)
	}
	if c.Generator.SubmitTimeoutSecs <= 0 {
		c.Generator.SubmitTimeoutSecs = defaultGeneratorSubmitTimeout
	}
	if c.Generator.PollTimeoutSecs <= 0 {
		c.Generator.PollTimeoutSecs = defaultGeneratorPollTimeout
	}
	return nil
}

func (c *Config) normalizePublish() {
	c.Publish.Endpoint = strings.TrimRight(strings.TrimSpace(c.Publish.Endpoint), "/")
	if c.Publish.Endpoint == "" {
		c.Publish.Endpoint = defaultPublishEndpoint
	}
	c.Publish.Dataset = strings.TrimSpace(c.Publish.Dataset)
	c.Publish.Token = strings.TrimSpace(c.Publish.Token)
	if c.Publish.Token == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Publish.Token = strings.TrimSpace(value)
		}
	}
	if c.Publish.TimeoutSeconds <= 0 {
		c.Publish.TimeoutSeconds = defaultPublishTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
