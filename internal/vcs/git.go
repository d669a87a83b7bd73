// Package vcs reads project metadata from the git repository a project is
// generated in.
package vcs

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/logging"
)

// Info is what the repository knows about the project. Fields are empty
// when git has no answer.
type Info struct {
	GitDir    string
	Branch    string
	Remote    string
	UserName  string
	UserEmail string
}

// IsRepo reports whether the inspected directory is inside a repository.
func (i Info) IsRepo() bool { return i.GitDir != "" }

// Inspect reads the repository containing dir. Outside a repository, or
// without git installed, it returns an empty Info.
func Inspect(dir string) Info {
	gitDir := findGitDir(dir)
	if gitDir == "" {
		logging.Debug().Str("dir", dir).Msg("not a git repository, git defaults disabled")
		return Info{}
	}
	info := Info{
		GitDir:    gitDir,
		Branch:    getCurrentBranch(dir),
		Remote:    git(dir, "config", "--get", "remote.origin.url"),
		UserName:  git(dir, "config", "--get", "user.name"),
		UserEmail: git(dir, "config", "--get", "user.email"),
	}
	logging.Debug().
		Str("branch", info.Branch).
		Str("remote", info.Remote).
		Msg("git repository inspected")
	return info
}

// Defaults maps globals parameter names to the values the repository
// suggests for them.
func (i Info) Defaults() map[string]string {
	out := make(map[string]string)
	set := func(name, value string) {
		if value != "" {
			out[name] = value
		}
	}
	if _, owner, repo, ok := ParseRemote(i.Remote); ok {
		set("owner", owner)
		set("project_name", repo)
	}
	set("author", i.UserName)
	set("email", i.UserEmail)
	set("default_branch", i.Branch)
	return out
}

// URL returns the browsable https address of the origin remote, or "".
func (i Info) URL() string {
	host, owner, repo, ok := ParseRemote(i.Remote)
	if !ok {
		return ""
	}
	return "https://" + host + "/" + owner + "/" + repo
}

// ParseRemote splits a remote URL into host, owner and repository name.
// It understands https, ssh and scp-like forms:
//
//	https://github.com/acme/rocket.git
//	ssh://git@github.com/acme/rocket
//	git@github.com:acme/rocket.git
func ParseRemote(remote string) (host, owner, repo string, ok bool) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", "", "", false
	}

	var rest string
	if scheme, after, found := strings.Cut(remote, "://"); found && scheme != "" {
		rest = after
		authority, _, _ := strings.Cut(rest, "/")
		if at := strings.LastIndex(authority, "@"); at >= 0 {
			rest = rest[at+1:]
		}
	} else {
		// scp-like: [user@]host:owner/repo
		if _, after, hasUser := strings.Cut(remote, "@"); hasUser {
			remote = after
		}
		h, p, found := strings.Cut(remote, ":")
		if !found {
			return "", "", "", false
		}
		rest = h + "/" + p
	}

	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 3 {
		return "", "", "", false
	}
	host = parts[0]
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	owner = strings.Join(parts[1:len(parts)-1], "/")
	repo = strings.TrimSuffix(parts[len(parts)-1], ".git")
	if host == "" || owner == "" || repo == "" {
		return "", "", "", false
	}
	return host, owner, repo, true
}

// GetBranch returns the current branch for a given directory.
func GetBranch(workDir string) string {
	return getCurrentBranch(workDir)
}

// findGitDir finds the .git directory for a given work directory.
// Handles both regular repos (.git directory) and worktrees (.git file).
func findGitDir(workDir string) string {
	gitDir := git(workDir, "rev-parse", "--git-dir")
	if gitDir == "" {
		return ""
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(workDir, gitDir)
	}
	return gitDir
}

// getCurrentBranch works before the first commit too, where
// rev-parse --abbrev-ref fails.
func getCurrentBranch(workDir string) string {
	return git(workDir, "symbolic-ref", "--quiet", "--short", "HEAD")
}

func git(dir string, args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
