package testutil

import (
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/onsi/gomega/gexec"
)

// DefaultTimeout bounds a single CLI invocation.
const DefaultTimeout = 30 * time.Second

// CLI runs a compiled mloq binary with an isolated environment.
type CLI struct {
	Binary string
	// Env is added to a minimal environment: PATH plus HOME, XDG and
	// MLOQ_CONFIG_DIR pointing inside Home.
	Env  map[string]string
	Home string
}

// NewCLI returns a runner for binary whose user directories live in home.
func NewCLI(binary, home string) *CLI {
	return &CLI{Binary: binary, Home: home, Env: map[string]string{}}
}

// Command builds the command for args, run in dir.
func (c *CLI) Command(dir string, stdin io.Reader, args ...string) *exec.Cmd {
	cmd := exec.Command(c.Binary, args...)
	cmd.Dir = dir
	cmd.Stdin = stdin
	cmd.Env = []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + c.Home,
		"XDG_CONFIG_HOME=" + c.Home + "/.config",
		"XDG_CACHE_HOME=" + c.Home + "/.cache",
		"MLOQ_CONFIG_DIR=" + c.Home + "/.config/mloq",
	}
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	return cmd
}

// Start starts the command and returns its gexec session.
func (c *CLI) Start(dir string, stdin string, args ...string) (*gexec.Session, error) {
	var in io.Reader
	if stdin != "" {
		in = strings.NewReader(stdin)
	}
	return gexec.Start(c.Command(dir, in, args...), io.Discard, io.Discard)
}
