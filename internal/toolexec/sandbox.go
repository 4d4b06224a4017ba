package toolexec

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/basalt-run/agentkit/internal/tool"
)

// ErrPermissionDenied is returned when a Sandbox check rejects a tool.
var ErrPermissionDenied = fmt.Errorf("toolexec: permission denied")

// Config describes the allow/deny lists a Sandbox enforces, per spec §4.2.
// Deny rules dominate allow rules; an empty allow-set means "allow all
// (not in deny)" — the same dominance rule the tool-policy resolver in
// the pack uses for tool-name allow/deny, generalized here to paths and
// hosts.
type Config struct {
	AllowedPaths  []string
	DeniedPaths   []string
	AllowedHosts  []string
	DeniedHosts   []string
	AllowShell    bool
	AllowNetwork  bool
	MaxFileSize   int64
	MaxOutputSize int64
}

// Sandbox is an optional shim in front of a Tool enforcing Config.
type Sandbox struct {
	cfg Config
}

// NewSandbox creates a Sandbox from cfg.
func NewSandbox(cfg Config) *Sandbox {
	return &Sandbox{cfg: cfg}
}

// CheckTool inspects a tool definition for obviously disallowed
// capabilities (shell/network) declared via its category. Fine-grained
// path/host checks happen at execution time against the arguments the
// model actually supplied, via CheckPath/CheckHost.
func (s *Sandbox) CheckTool(t tool.Tool) error {
	def := t.Definition()
	switch strings.ToLower(def.Category) {
	case "shell":
		if !s.cfg.AllowShell {
			return fmt.Errorf("%w: shell tools are disabled", ErrPermissionDenied)
		}
	case "network":
		if !s.cfg.AllowNetwork {
			return fmt.Errorf("%w: network tools are disabled", ErrPermissionDenied)
		}
	}
	return nil
}

// CheckPath applies the allow/deny-dominates rule to a filesystem path.
func (s *Sandbox) CheckPath(path string) error {
	if matchesAny(path, s.cfg.DeniedPaths) {
		return fmt.Errorf("%w: path %q is denied", ErrPermissionDenied, path)
	}
	if len(s.cfg.AllowedPaths) > 0 && !matchesAny(path, s.cfg.AllowedPaths) {
		return fmt.Errorf("%w: path %q is not in the allow list", ErrPermissionDenied, path)
	}
	return nil
}

// CheckHost applies the allow/deny-dominates rule to a network host.
func (s *Sandbox) CheckHost(host string) error {
	if matchesAny(host, s.cfg.DeniedHosts) {
		return fmt.Errorf("%w: host %q is denied", ErrPermissionDenied, host)
	}
	if len(s.cfg.AllowedHosts) > 0 && !matchesAny(host, s.cfg.AllowedHosts) {
		return fmt.Errorf("%w: host %q is not in the allow list", ErrPermissionDenied, host)
	}
	return nil
}

func matchesAny(candidate string, patterns []string) bool {
	for _, p := range patterns {
		if p == candidate || strings.HasPrefix(candidate, strings.TrimSuffix(p, "*")) && strings.HasSuffix(p, "*") {
			return true
		}
	}
	return false
}

// sandboxedTool wraps a tool.Tool so every Execute call is checked first.
type sandboxedTool struct {
	inner   tool.Tool
	sandbox *Sandbox
}

// Wrap returns a tool.Tool that enforces sandbox checks before delegating
// to inner.
func (s *Sandbox) Wrap(inner tool.Tool) tool.Tool {
	return sandboxedTool{inner: inner, sandbox: s}
}

func (w sandboxedTool) Definition() tool.Definition { return w.inner.Definition() }

func (w sandboxedTool) Execute(ctx context.Context, input json.RawMessage) (tool.Output, error) {
	if err := w.sandbox.CheckTool(w.inner); err != nil {
		return tool.Output{Content: err.Error(), IsError: true}, nil
	}
	out, err := w.inner.Execute(ctx, input)
	if w.sandbox.cfg.MaxOutputSize > 0 && int64(len(out.Content)) > w.sandbox.cfg.MaxOutputSize {
		out.Content = out.Content[:w.sandbox.cfg.MaxOutputSize]
		out.IsError = true
	}
	return out, err
}
