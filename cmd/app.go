package cmd

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/illarion/safelist/internal/auth"
	"github.com/illarion/safelist/internal/config"
	"github.com/illarion/safelist/internal/core"
	"github.com/illarion/safelist/internal/storage"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	groupStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	indexStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	identStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	secretStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// App carries what every command needs: settings, logger, terminal streams
// and the prompter used for usernames, passwords and confirmations.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	Out    io.Writer
	Err    io.Writer
	Prompt Prompter
}

// NewApp wires an App to the process terminal
func NewApp(cfg *config.Config, log *zap.Logger) *App {
	return &App{
		Config: cfg,
		Log:    log,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Prompt: NewTerminalPrompter(os.Stdin, os.Stderr),
	}
}

// open builds the vault store described by the configuration
func (a *App) open() (*core.SafeList, error) {
	backend, err := storage.Open(a.Config.Path, a.Config.Backend)
	if err != nil {
		return nil, err
	}
	authenticator, err := auth.New(a.Config.BcryptCost)
	if err != nil {
		return nil, err
	}
	return core.New(backend, authenticator, a.Log), nil
}

// openExisting is open for commands that need a created account
func (a *App) openExisting() (*core.SafeList, error) {
	sl, err := a.open()
	if err != nil {
		return nil, err
	}
	exists, err := sl.Exists()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, core.ErrNotInitialized
	}
	return sl, nil
}

func (a *App) success(msg string) {
	io.WriteString(a.Out, okStyle.Render("✓ "+msg)+"\n")
}

func (a *App) warn(msg string) {
	io.WriteString(a.Err, warnStyle.Render("warning: "+msg)+"\n")
}
