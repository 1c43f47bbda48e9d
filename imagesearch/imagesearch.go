// Package imagesearch defines the interface contract for the downstream
// volumetric image search and a thin adapter that shells out to an external
// search command.
//
// The ranking algorithm itself is an external collaborator; this package
// only fixes how it is called and how its results come back.
package imagesearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Score is one ranked entry returned by the search.
type Score struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Result holds the ranked terms and studies for one query volume.
type Result struct {
	Image   string  `json:"image"`
	Terms   []Score `json:"terms"`
	Studies []Score `json:"studies"`
}

// Searcher runs an image-based search for volumes similar to the query
// volume.
type Searcher interface {
	Search(ctx context.Context, volumePath string, nTerms, nStudies int) (*Result, error)
}

// CommandSearcher invokes an external search command that prints a JSON
// Result to stdout.
type CommandSearcher struct {
	executable string
	logger     *slog.Logger
}

// Option configures a CommandSearcher.
type Option func(*CommandSearcher)

// WithLogger sets the searcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *CommandSearcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCommandSearcher creates a CommandSearcher for the given executable.
func NewCommandSearcher(executable string, opts ...Option) *CommandSearcher {
	s := &CommandSearcher{
		executable: executable,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the external command against the query volume.
func (s *CommandSearcher) Search(ctx context.Context, volumePath string, nTerms, nStudies int) (*Result, error) {
	if _, err := os.Stat(volumePath); err != nil {
		s.logger.Error("query volume missing", "path", volumePath)
		return nil, fmt.Errorf("query volume %s does not exist", volumePath)
	}

	args := []string{
		volumePath,
		"--n-terms", strconv.Itoa(nTerms),
		"--n-studies", strconv.Itoa(nStudies),
	}
	commandLine := strings.Join(append([]string{s.executable}, args...), " ")
	s.logger.Info("running image search", "command", commandLine)

	cmd := exec.CommandContext(ctx, s.executable, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.logger.Error("image search failed", "command", commandLine, "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return nil, fmt.Errorf("image search %q failed: %w", commandLine, err)
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("decode image search output: %w", err)
	}
	return &result, nil
}
