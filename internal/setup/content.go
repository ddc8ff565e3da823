// Package setup performs post-creation setup of a Studio user: seeding the
// user's EFS home directory with starter content and enabling SageMaker
// Projects for the user's execution role.
package setup

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	git "github.com/go-git/go-git/v5"

	"github.com/modelfold/smops/telemetry"
)

// Content seeds a Studio user's home directory on the mounted EFS filesystem.
type Content struct {
	// Root is the EFS mount point. The filesystem root holds one folder per
	// user POSIX UID.
	Root   string
	logger *telemetry.Logger

	chown func(path string, uid int) error
	clone func(ctx context.Context, url, dir string) error
}

// NewContent creates a content seeder over the given EFS mount point.
func NewContent(root string, logger *telemetry.Logger) *Content {
	return &Content{
		Root:   root,
		logger: logger,
		chown:  func(path string, uid int) error { return os.Chown(path, uid, -1) },
		clone: func(ctx context.Context, url, dir string) error {
			_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: url})
			return err
		},
	}
}

// EnsureHomeDir creates the user's home folder if it does not exist yet (EFS
// home folders are only created on first login) and hands ownership to the
// user immediately, in case a later step errors out.
func (c *Content) EnsureHomeDir(ctx context.Context, efsUID string) (string, error) {
	uid, err := strconv.Atoi(efsUID)
	if err != nil {
		return "", fmt.Errorf("invalid EFS UID %q: %w", efsUID, err)
	}

	home := filepath.Join(c.Root, efsUID)
	c.logger.WithContext(ctx).Info().Str("home", home).Msg("checking home folder")
	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", fmt.Errorf("create home folder %s: %w", home, err)
	}
	if err := c.chown(home, uid); err != nil {
		return "", fmt.Errorf("chown home folder %s: %w", home, err)
	}
	return home, nil
}

// CloneRepository clones a public Git repository into the user's home folder
// and gives the user write access to everything created.
func (c *Content) CloneRepository(ctx context.Context, efsUID, repoURL string) error {
	home, err := c.EnsureHomeDir(ctx, efsUID)
	if err != nil {
		return err
	}
	uid, _ := strconv.Atoi(efsUID)

	dir := filepath.Join(home, repoFolderName(repoURL))
	c.logger.WithContext(ctx).Info().
		Str("repo", repoURL).
		Str("dir", dir).
		Msg("cloning starter content")
	if err := c.clone(ctx, repoURL, dir); err != nil {
		return fmt.Errorf("clone %s: %w", repoURL, err)
	}
	if err := c.chownRecursive(dir, uid); err != nil {
		return fmt.Errorf("chown cloned content: %w", err)
	}
	return nil
}

// repoFolderName infers the checkout folder from the repository URL, the way
// a plain git clone would name it.
func repoFolderName(repoURL string) string {
	name := repoURL
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".git")
}

func (c *Content) chownRecursive(root string, uid int) error {
	return filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		return c.chown(path, uid)
	})
}
