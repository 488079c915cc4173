package datasource

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// SourceType represents the type of snapshot source
type SourceType string

const (
	FileSourceType      SourceType = "file"
	DirectorySourceType SourceType = "directory"
	HTTPSourceType      SourceType = "http"
)

// DetectType picks a source type from a location string
func DetectType(location string) (SourceType, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTPSourceType, nil
	}
	info, err := os.Stat(location)
	if err != nil {
		return "", NewSourceError("factory", ErrCodeNotFound, location, ErrNotFound)
	}
	if info.IsDir() {
		return DirectorySourceType, nil
	}
	return FileSourceType, nil
}

// NewSource creates a Source for a file, directory or URL
func NewSource(location string, logger *logrus.Logger) (Source, error) {
	sourceType, err := DetectType(location)
	if err != nil {
		return nil, err
	}

	switch sourceType {
	case FileSourceType:
		return NewFileSource(location), nil
	case DirectorySourceType:
		return NewDirectorySource(location, logger), nil
	case HTTPSourceType:
		return NewHTTPSource(NewRateLimitedHTTPClient(DefaultHTTPClientConfig(), logger), location), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", sourceType)
	}
}
