package launcher

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"

	"github.com/pders01/ytspot/internal/config"
	"github.com/pders01/ytspot/internal/debuglog"
	"github.com/pders01/ytspot/internal/storage"
)

// FormatLink renders the clipboard payload for t. The markdown format
// yields "[ID](URL)"; anything else yields the bare URL.
func FormatLink(t storage.Ticket, format string) string {
	if format == config.CopyFormatMarkdown {
		return fmt.Sprintf("[%s](%s)", t.ID, t.URL)
	}
	return t.URL
}

// Launcher performs the copy-link and open-in-browser actions.
type Launcher struct {
	format         string
	opener         string
	writeClipboard func(string) error
	start          func(name string, args ...string) error
	onError        func(error)
}

// Option customizes a Launcher.
type Option func(*Launcher)

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(l *Launcher) { l.writeClipboard = write }
}

// WithStarter replaces the process starter used to open URLs.
func WithStarter(start func(name string, args ...string) error) Option {
	return func(l *Launcher) { l.start = start }
}

// WithErrorHandler receives failures of the fire-and-forget actions.
func WithErrorHandler(fn func(error)) Option {
	return func(l *Launcher) { l.onError = fn }
}

func New(cfg *config.Config, opts ...Option) *Launcher {
	l := &Launcher{
		format:         cfg.Tracker.CopyFormat,
		opener:         cfg.UI.Opener,
		writeClipboard: clipboard.WriteAll,
		start:          startDetached,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Copy writes the formatted link of t to the clipboard.
func (l *Launcher) Copy(t storage.Ticket) error {
	if t.URL == "" {
		return fmt.Errorf("ticket %s has no URL", t.ID)
	}
	if err := l.writeClipboard(FormatLink(t, l.format)); err != nil {
		return fmt.Errorf("copying link: %w", err)
	}
	debuglog.Debugf("copied link for %s", t.ID)
	return nil
}

// Open starts the platform opener for the ticket URL without waiting for it.
func (l *Launcher) Open(t storage.Ticket) error {
	if t.URL == "" {
		return fmt.Errorf("ticket %s has no URL", t.ID)
	}
	name, args := openerCommand(runtime.GOOS, l.opener, t.URL)
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	debuglog.Debugf("opened %s with %s", t.ID, name)
	return nil
}

// CopyLink is the fire-and-forget form of Copy.
func (l *Launcher) CopyLink(t storage.Ticket) {
	l.report(l.Copy(t))
}

// OpenURL is the fire-and-forget form of Open.
func (l *Launcher) OpenURL(t storage.Ticket) {
	l.report(l.Open(t))
}

func (l *Launcher) report(err error) {
	if err == nil {
		return
	}
	debuglog.Warnf("action failed: %v", err)
	if l.onError != nil {
		l.onError(err)
	}
}

func openerCommand(goos, override, url string) (string, []string) {
	if override != "" {
		return override, []string{url}
	}
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
