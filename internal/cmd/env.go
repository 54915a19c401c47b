package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dendrascience/packrepair/archive"
	"github.com/dendrascience/packrepair/config"
	"github.com/dendrascience/packrepair/internal/logging"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrUnsupportedInput is returned for inputs that are neither a directory
// nor a zip archive.
var ErrUnsupportedInput = errors.New("input must be a directory or a .zip archive")

// runEnv is what a subcommand needs once flags and config are resolved.
type runEnv struct {
	cfg   *config.Config
	rules *config.Rules
	log   *zap.Logger
	fs    afero.Fs
}

func newRunEnv(opts *rootOptions) (*runEnv, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}
	if opts.workDir != "" {
		cfg.WorkDir = opts.workDir
	}
	rules, err := cfg.Compile()
	if err != nil {
		return nil, err
	}
	logger, err := logging.GetLogger(opts.logLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}
	if f := cfg.File(); f != "" {
		logger.Debug("config loaded", zap.String("file", f))
	}
	return &runEnv{cfg: cfg, rules: rules, log: logger, fs: afero.NewOsFs()}, nil
}

// packInput is a pack ready to be worked on in place.
type packInput struct {
	// Root is the directory holding the pack files.
	Root string
	// Name is the pack name used for the output archive.
	Name   string
	Zipped bool
}

// openPack resolves input to a directory, extracting it into the work
// directory first when it is a zip archive.
func openPack(ctx context.Context, env *runEnv, input string) (*packInput, error) {
	info, err := env.fs.Stat(input)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, err
		}
		return &packInput{Root: abs, Name: filepath.Base(abs)}, nil
	}
	if !archive.IsZip(input) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, input)
	}

	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	dest := filepath.Join(env.cfg.WorkDir, name)
	// dest is wiped before extraction
	if pathWithin(input, dest) {
		return nil, fmt.Errorf("%w: work directory %s contains %s", ErrUnsupportedInput, dest, input)
	}
	if err := archive.Extract(ctx, env.fs, input, dest, env.cfg.Workers, env.log); err != nil {
		return nil, err
	}
	return &packInput{Root: dest, Name: name, Zipped: true}, nil
}

// destination returns where the repaired pack is packed, or "" when the
// pack stays a directory.
func (p *packInput) destination(output, defaultOutput string) string {
	switch {
	case output != "":
		return filepath.Join(output, p.Name+".zip")
	case p.Zipped:
		return filepath.Join(defaultOutput, p.Name+".zip")
	default:
		return ""
	}
}

// pathWithin reports whether p is dir or lies below it.
func pathWithin(p, dir string) bool {
	absP, err1 := filepath.Abs(p)
	absDir, err2 := filepath.Abs(dir)
	if err1 != nil || err2 != nil {
		return filepath.Clean(p) == filepath.Clean(dir)
	}
	if absP == absDir {
		return true
	}
	return strings.HasPrefix(absP, absDir+string(os.PathSeparator))
}
