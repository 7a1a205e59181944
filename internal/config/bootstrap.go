package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/persona/internal/logging"
)

// opencodeEntries are the parts of the bundled .opencode directory that are
// installed into the data directory.
var opencodeEntries = []string{"opencode.jsonc", "commands", "plugin"}

// EnsureDataDir creates the data directory and, when .opencode or personas
// is missing, installs them from the bundled resources. Copy failures are
// logged and do not fail the call.
func EnsureDataDir(logger *logging.Logger) (string, error) {
	data, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(data, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}

	if exists(filepath.Join(data, ".opencode")) && exists(filepath.Join(data, "personas")) {
		return data, nil
	}
	if bundle, ok := BundledResourcesDir(); ok {
		Bootstrap(bundle, data, logger)
	}
	return data, nil
}

// BundledResourcesDir locates installed resources: the macOS app bundle's
// Contents/Resources first, then Homebrew share directories.
func BundledResourcesDir() (string, bool) {
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		// Persona.app/Contents/MacOS/persona -> Persona.app/Contents/Resources
		candidates = append(candidates, filepath.Join(filepath.Dir(filepath.Dir(exe)), "Resources"))
	}
	candidates = append(candidates,
		"/opt/homebrew/share/persona",
		"/usr/local/share/persona",
		"/home/linuxbrew/.linuxbrew/share/persona",
	)
	if prefix := os.Getenv("HOMEBREW_PREFIX"); prefix != "" {
		candidates = append(candidates, filepath.Join(prefix, "share", appName))
	}
	for _, c := range candidates {
		if exists(c) {
			return c, true
		}
	}
	return "", false
}

// Bootstrap copies .opencode and personas from bundle into data, skipping
// whichever already exists.
func Bootstrap(bundle, data string, logger *logging.Logger) {
	srcOpencode := filepath.Join(bundle, ".opencode")
	dstOpencode := filepath.Join(data, ".opencode")
	if exists(srcOpencode) && !exists(dstOpencode) {
		if err := copyOpencode(srcOpencode, dstOpencode); err != nil {
			logger.Warn("Failed to copy .opencode directory", zap.Error(err))
		}
	}

	srcPersonas := filepath.Join(bundle, "personas")
	dstPersonas := filepath.Join(data, "personas")
	if exists(srcPersonas) && !exists(dstPersonas) {
		if err := copyTree(srcPersonas, dstPersonas); err != nil {
			logger.Warn("Failed to copy personas directory", zap.Error(err))
		}
	}
}

func copyOpencode(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	for _, name := range opencodeEntries {
		from := filepath.Join(src, name)
		info, err := os.Stat(from)
		if err != nil {
			continue
		}
		to := filepath.Join(dst, name)
		if info.IsDir() {
			err = copyTree(from, to)
		} else {
			err = copyFile(from, to, info.Mode())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// copyTree recursively copies directories and regular files. The walk
// callback runs concurrently, so each file creates its own parent.
func copyTree(src, dst string) error {
	conf := fastwalk.Config{Follow: false}
	return fastwalk.Walk(&conf, src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			return copyFile(p, target, info.Mode())
		default:
			return nil
		}
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
