// Package git drives the git command line for one repository.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
)

// DiffTruncatedMarker ends a staged diff that was cut at the size limit
const DiffTruncatedMarker = "\n... [diff truncated]"

// Client runs git commands in a repository. It is safe for concurrent use,
// although git itself serializes writes through its index lock.
type Client struct {
	repoPath string
	remote   string
	timeout  time.Duration
}

// New creates a client for repoPath. remote may be empty to push to the
// branch's configured upstream.
func New(repoPath, remote string, timeout time.Duration) (*Client, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve repository path: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{repoPath: abs, remote: remote, timeout: timeout}, nil
}

// Path returns the absolute repository path
func (c *Client) Path() string {
	return c.repoPath
}

// run executes git and returns raw stdout
func (c *Client) run(ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.repoPath
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("git %s: timeout after %v", args[0], c.timeout)
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// IsRepo reports whether the path is inside a work tree
func (c *Client) IsRepo(ctx context.Context) bool {
	out, err := c.run(ctx, nil, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// Init creates a repository unless one exists already
func (c *Client) Init(ctx context.Context) error {
	if c.IsRepo(ctx) {
		return nil
	}
	_, err := c.run(ctx, nil, "init")
	return err
}

// UseToplevel moves the client to the root of the work tree containing its
// path. Status reports root-relative paths and Stage must receive them in
// the same form, so call this once before either when the configured path
// may be a subdirectory.
func (c *Client) UseToplevel(ctx context.Context) error {
	out, err := c.run(ctx, nil, "rev-parse", "--show-toplevel")
	if err != nil {
		return err
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return fmt.Errorf("git rev-parse --show-toplevel: empty output in %s", c.repoPath)
	}
	c.repoPath = filepath.Clean(root)
	return nil
}

// Status lists uncommitted changes, untracked files included
func (c *Client) Status(ctx context.Context) ([]analyzer.Change, error) {
	out, err := c.run(ctx, nil, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	return ParseStatus(out), nil
}

// Stage adds paths (deletions included) to the index; no paths stages everything
func (c *Client) Stage(ctx context.Context, paths []string) error {
	args := []string{"add", "-A", "--"}
	if len(paths) == 0 {
		args = append(args, ".")
	} else {
		args = append(args, paths...)
	}
	_, err := c.run(ctx, nil, args...)
	return err
}

// StagedDiff returns the staged diff cut to maxBytes; 0 means unlimited
func (c *Client) StagedDiff(ctx context.Context, maxBytes int) (string, error) {
	out, err := c.run(ctx, nil, "diff", "--cached", "--no-color")
	if err != nil {
		return "", err
	}
	return Truncate(out, maxBytes), nil
}

// Commit records the index with message and returns the new commit hash
func (c *Client) Commit(ctx context.Context, message string) (string, error) {
	if _, err := c.run(ctx, strings.NewReader(message), "commit", "-F", "-"); err != nil {
		return "", err
	}
	out, err := c.run(ctx, nil, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Push pushes the current branch
func (c *Client) Push(ctx context.Context) error {
	args := []string{"push"}
	if c.remote != "" {
		args = append(args, c.remote, "HEAD")
	}
	_, err := c.run(ctx, nil, args...)
	return err
}

// Version returns the git version string
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, nil, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ParseStatus parses `git status --porcelain=v1 -z` output.
// A rename yields a deletion of the old path and a creation of the new one.
func ParseStatus(out string) []analyzer.Change {
	var changes []analyzer.Change

	fields := strings.Split(out, "\x00")
	for i := 0; i < len(fields); i++ {
		entry := fields[i]
		if len(entry) < 4 {
			continue
		}
		x, y, path := entry[0], entry[1], entry[3:]

		switch {
		case x == '!' && y == '!':
			continue
		case x == '?' && y == '?', x == 'A':
			changes = append(changes, analyzer.Change{Path: path, Kind: analyzer.KindCreated})
		case x == 'R' || y == 'R':
			i++
			if i < len(fields) && fields[i] != "" {
				changes = append(changes, analyzer.Change{Path: fields[i], Kind: analyzer.KindDeleted})
			}
			changes = append(changes, analyzer.Change{Path: path, Kind: analyzer.KindCreated})
		case x == 'C' || y == 'C':
			i++
			changes = append(changes, analyzer.Change{Path: path, Kind: analyzer.KindCreated})
		case x == 'D' || y == 'D':
			changes = append(changes, analyzer.Change{Path: path, Kind: analyzer.KindDeleted})
		default:
			changes = append(changes, analyzer.Change{Path: path, Kind: analyzer.KindModified})
		}
	}
	return changes
}

// Truncate cuts s to at most maxBytes on a rune boundary and appends
// DiffTruncatedMarker; 0 means unlimited
func Truncate(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + DiffTruncatedMarker
}
