// Package sync gathers decks from configured sources, local directories
// or git remotes, into the deck directory the study session reads from.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/flashdeck/internal/cardid"
	"github.com/conorfennell/flashdeck/internal/deck"
	"github.com/conorfennell/flashdeck/internal/gitsource"
)

// Source types.
const (
	TypeLocal = "local"
	TypeGit   = "git"
)

// ErrDeckNameConflict reports a deck whose file name was already taken by
// another deck in the same sync run.
var ErrDeckNameConflict = errors.New("deck name already synced from another path")

// Options configures a sync run.
type Options struct {
	Sources  []string
	ReposDir string
	DecksDir string
}

// Report summarizes a sync run.
type Report struct {
	Sources int
	Decks   int
	Invalid int
	Errors  []error
}

// SourceType classifies a source path as a git remote or a local directory.
func SourceType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "file://") {
		return TypeGit
	}
	return TypeLocal
}

// RunSync reconciles every configured source into opts.DecksDir. Problems
// with individual sources or decks are logged and collected in the report;
// the returned error is reserved for failures that stop the whole run.
func RunSync(ctx context.Context, opts Options) (Report, error) {
	var report Report
	slog.Info("Starting sync process for all sources...")

	if len(opts.Sources) == 0 {
		slog.Info("No sources configured. Add one with --source <path/or/url.git>")
		return report, nil
	}

	if err := os.MkdirAll(opts.DecksDir, os.ModePerm); err != nil {
		return report, fmt.Errorf("failed to create decks directory: %w", err)
	}

	// Deck file name -> path it was synced from. The first path wins.
	synced := make(map[string]string)
	for _, source := range opts.Sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Sources++
		sourceType := SourceType(source)
		slog.Info("Syncing source", "type", sourceType, "path", source)

		localPath := source
		if sourceType == TypeGit {
			repoPath, err := gitURLToLocalPath(opts.ReposDir, source)
			if err != nil {
				slog.Error("Error determining local path for git repo", "url", source, "error", err)
				report.Errors = append(report.Errors, err)
				continue
			}
			if err := gitsource.Sync(ctx, source, repoPath); err != nil {
				slog.Error("Error syncing git repo", "url", source, "error", err)
				report.Errors = append(report.Errors, err)
				continue
			}
			localPath = repoPath
		}

		reconcileLocalSource(localPath, opts.DecksDir, synced, &report)
	}

	slog.Info("Sync process complete.",
		"sources", report.Sources,
		"decks", report.Decks,
		"invalid", report.Invalid,
		"errors", len(report.Errors),
	)
	return report, nil
}

// reconcileLocalSource copies every valid deck under root into decksDir.
// A deck whose file name is already in synced is skipped and reported.
func reconcileLocalSource(root, decksDir string, synced map[string]string, report *Report) {
	same, err := samePath(root, decksDir)
	if err != nil {
		report.Errors = append(report.Errors, err)
		return
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !deck.IsDeckFile(d.Name()) {
			return nil
		}

		cards, err := deck.ParseFile(path)
		if err == nil {
			err = cardid.ValidateIDs(cards)
		}
		if err != nil {
			slog.Warn("Skipping invalid deck", "path", path, "error", err)
			report.Invalid++
			report.Errors = append(report.Errors, fmt.Errorf("%s: %w", path, err))
			return nil
		}

		if first, taken := synced[d.Name()]; taken {
			slog.Warn("Skipping deck with a name already synced", "path", path, "first", first)
			report.Errors = append(report.Errors, fmt.Errorf("%s: %w (%s)", path, ErrDeckNameConflict, first))
			return nil
		}
		synced[d.Name()] = path

		report.Decks++
		if same {
			return nil
		}
		if err := deck.NewDirSource(decksDir).Replace(d.Name(), cards); err != nil {
			report.Errors = append(report.Errors, err)
			return nil
		}
		slog.Debug("Deck synced", "path", path, "cards", len(cards))
		return nil
	})

	if walkErr != nil {
		slog.Error("Error walking directory", "path", root, "error", walkErr)
		report.Errors = append(report.Errors, walkErr)
	}
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err == nil && parsedURL.Scheme == "file" {
		return repoDir(baseDir, repoURL, "file", strings.TrimSuffix(parsedURL.Path, ".git"))
	}
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return repoDir(baseDir, repoURL, host, repoPath)
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return repoDir(baseDir, repoURL, parsedURL.Host, sanitizedPath)
}

// repoDir joins parts under baseDir and rejects results that are baseDir
// itself or lie outside it.
func repoDir(baseDir, repoURL string, parts ...string) (string, error) {
	dir := filepath.Join(append([]string{baseDir}, parts...)...)
	rel, err := filepath.Rel(baseDir, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("git URL %s maps outside the repos directory", repoURL)
	}
	return dir, nil
}
