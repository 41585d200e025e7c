package config

const (
	defaultArtifactDir              = "~/.local/share/apd/pdfs"
	defaultResultDir                = "~/.local/share/apd/videos"
	defaultDigestDir                = "~/.local/share/apd/digests"
	defaultLogDir                   = "~/.local/share/apd/logs"
	defaultDiscoveryBaseURL         = "https://huggingface.co"
	defaultDiscoveryUserAgent       = "apd/dev (paper digest pipeline)"
	defaultDiscoveryTimeoutSeconds  = 30
	defaultArtifactBaseURL          = "https://arxiv.org/pdf"
	defaultArtifactTimeoutSeconds   = 120
	defaultGeneratorCommand         = "nblm-automator"
	defaultGeneratorSessionFile     = "~/.config/apd/session.json"
	defaultGeneratorSubmitTimeout   = 300
	defaultGeneratorPollTimeout     = 120
	defaultPipelineMaxRetries       = 3
	defaultPublishEndpoint          = "https://huggingface.co"
	defaultPublishTimeoutSeconds    = 600
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ArtifactDir: defaultArtifactDir,
			ResultDir:   defaultResultDir,
			DigestDir:   defaultDigestDir,
			LogDir:      defaultLogDir,
		},
		Discovery: Discovery{
			BaseURL:        defaultDiscoveryBaseURL,
			UserAgent:      defaultDiscoveryUserAgent,
			TimeoutSeconds: defaultDiscoveryTimeoutSeconds,
		},
		ArtifactSource: ArtifactSource{
			BaseURL:        defaultArtifactBaseURL,
			TimeoutSeconds: defaultArtifactTimeoutSeconds,
		},
		Generator: Generator{
			Command:           defaultGeneratorCommand,
			SessionFile:       defaultGeneratorSessionFile,
			SubmitTimeoutSecs: defaultGeneratorSubmitTimeout,
			PollTimeoutSecs:   defaultGeneratorPollTimeout,
		},
		Pipeline: Pipeline{
			MaxRetries: defaultPipelineMaxRetries,
		},
		Publish: Publish{
			Endpoint:       defaultPublishEndpoint,
			TimeoutSeconds: defaultPublishTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
