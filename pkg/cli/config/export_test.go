package config

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, apiURL string) *Slack {
	return &Slack{
		botToken: botToken,
		apiURL:   apiURL,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string) *Repository {
	return &Repository{
		backend:   backend,
		projectID: projectID,
	}
}

// NewArchiveForTest creates an Archive config for testing purposes
func NewArchiveForTest(bucket, prefix string) *Archive {
	return &Archive{
		bucket: bucket,
		prefix: prefix,
	}
}
