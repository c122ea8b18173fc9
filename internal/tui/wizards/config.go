package wizards

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/oews/internal/config"
	"github.com/vvka-141/oews/internal/tui"
	"github.com/vvka-141/oews/internal/tui/components"
	"github.com/vvka-141/oews/pkg/oews"
)

// ConfigResult holds the result of the config wizard.
type ConfigResult struct {
	Cancelled bool
	Config    config.ProjectConfig
}

// ConfigWizard guides users through creating oews.yaml: database driver,
// authentication, connection details, import settings, then a review.
type ConfigWizard struct {
	step configStep
	cfg  config.ProjectConfig

	driver     components.Selector
	auth       components.Selector
	connection components.Form
	cloud      components.Form
	imports    components.Form

	result ConfigResult
	keys   tui.KeyMap
}

type configStep int

const (
	configStepDriver configStep = iota
	configStepAuth
	configStepConnection
	configStepCloud
	configStepImport
	configStepReview
	configStepDone
)

// Field positions in the connection form.
const (
	connFieldHost = iota
	connFieldPort
	connFieldUsername
	connFieldDatabase
	connFieldSSLMode
)

// Field positions in the import form.
const (
	importFieldDataDir = iota
	importFieldMode
	importFieldBatchSize
	importFieldAtomic
	importFieldTimeout
)

var driverOptions = []components.Option{
	{Label: "MySQL", Description: "MySQL or MariaDB (default port 3306)", Value: string(oews.DriverMySQL)},
	{Label: "PostgreSQL", Description: "PostgreSQL (default port 5432)", Value: string(oews.DriverPostgres)},
}

var authOptions = []components.Option{
	{Label: "Username and password", Description: "Password comes from OEWS_DB_PASSWORD or --password", Value: "standard"},
	{Label: "AWS RDS IAM", Description: "Short-lived token from the default AWS credential chain", Value: "aws"},
	{Label: "Google Cloud SQL IAM", Description: "Cloud SQL connector with automatic IAM login", Value: "google"},
	{Label: "Azure Entra ID", Description: "Access token from the Azure credential chain", Value: "azure"},
}

// NewConfigWizard creates a config wizard prefilled from existing, which may be nil.
func NewConfigWizard(existing *config.ProjectConfig) ConfigWizard {
	var cfg config.ProjectConfig
	if existing != nil {
		cfg = *existing
	}
	if cfg.Connection.Driver == "" {
		cfg.Connection.Driver = string(oews.DriverMySQL)
	}
	if cfg.Connection.AuthMethod == "" {
		cfg.Connection.AuthMethod = "standard"
	}

	return ConfigWizard{
		step:   configStepDriver,
		cfg:    cfg,
		driver: components.NewSelector("Database driver", driverOptions).WithValue(cfg.Connection.Driver).WithShowHelp(false).Embedded(),
		auth:   components.NewSelector("Authentication", authOptions).WithValue(cfg.Connection.AuthMethod).WithShowHelp(false).Embedded(),
		keys:   tui.DefaultKeyMap(),
	}
}

// Init implements tea.Model.
func (w ConfigWizard) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (w ConfigWizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, w.keys.Quit) {
		w.result.Cancelled = true
		return w, tea.Quit
	}

	switch w.step {
	case configStepDriver:
		return w.updateDriver(msg)
	case configStepAuth:
		return w.updateAuth(msg)
	case configStepConnection:
		return w.updateConnection(msg)
	case configStepCloud:
		return w.updateCloud(msg)
	case configStepImport:
		return w.updateImport(msg)
	case configStepReview:
		return w.updateReview(msg)
	}
	return w, nil
}

func (w ConfigWizard) updateDriver(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := w.driver.Update(msg)
	w.driver = m.(components.Selector)

	switch {
	case w.driver.Cancelled():
		w.result.Cancelled = true
		return w, tea.Quit
	case w.driver.Submitted():
		w.driver.Reset()
		w.setDriver(w.driver.Value())
		w.step = configStepAuth
	}
	return w, cmd
}

// setDriver records the driver, moving the port along when it still holds
// the previous driver's default.
func (w *ConfigWizard) setDriver(value string) {
	prev, _ := oews.ParseDriver(w.cfg.Connection.Driver)
	next, _ := oews.ParseDriver(value)
	if w.cfg.Connection.Port == 0 || w.cfg.Connection.Port == prev.DefaultPort() {
		w.cfg.Connection.Port = next.DefaultPort()
	}
	w.cfg.Connection.Driver = string(next)
}

func (w ConfigWizard) updateAuth(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := w.auth.Update(msg)
	w.auth = m.(components.Selector)

	switch {
	case w.auth.Cancelled():
		w.auth.Reset()
		w.step = configStepDriver
	case w.auth.Submitted():
		w.auth.Reset()
		w.cfg.Connection.AuthMethod = w.auth.Value()
		return w.enterConnection()
	}
	return w, cmd
}

func (w ConfigWizard) enterConnection() (tea.Model, tea.Cmd) {
	c := w.cfg.Connection
	port := ""
	if c.Port > 0 {
		port = strconv.Itoa(c.Port)
	}
	host := c.Host
	if host == "" {
		host = oews.DefaultHost
	}
	database := c.Database
	if database == "" {
		database = oews.DefaultDatabase
	}

	w.connection = components.NewForm("Connection",
		components.NewTextField("Host", oews.DefaultHost).WithValue(host).WithRequired(true),
		components.NewTextField("Port", strconv.Itoa(c.Port)).WithValue(port).WithRequired(true).WithValidator(validatePort),
		components.NewTextField("Username", "oews").WithValue(c.Username).WithRequired(true),
		components.NewTextField("Database", oews.DefaultDatabase).WithValue(database).WithRequired(true),
		components.NewTextField("SSL mode", sslPlaceholder(c.Driver)).WithValue(c.SSLMode),
	).Embedded()
	w.step = configStepConnection
	return w, w.connection.Focus()
}

func sslPlaceholder(driver string) string {
	if driver == string(oews.DriverPostgres) {
		return "disable, prefer, require, verify-full"
	}
	return "false, true, skip-verify, preferred"
}

func (w ConfigWizard) updateConnection(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := w.connection.Update(msg)
	w.connection = m.(components.Form)

	switch {
	case w.connection.Cancelled():
		w.step = configStepAuth
		return w, nil
	case w.connection.Submitted():
		c := &w.cfg.Connection
		c.Host = w.connection.FieldValue(connFieldHost)
		c.Port, _ = strconv.Atoi(w.connection.FieldValue(connFieldPort))
		c.Username = w.connection.FieldValue(connFieldUsername)
		c.Database = w.connection.FieldValue(connFieldDatabase)
		c.SSLMode = w.connection.FieldValue(connFieldSSLMode)
		if c.AuthMethod == "standard" {
			return w.enterImport()
		}
		return w.enterCloud()
	}
	return w, cmd
}

func (w ConfigWizard) enterCloud() (tea.Model, tea.Cmd) {
	c := w.cfg.Connection
	switch c.AuthMethod {
	case "aws":
		w.cloud = components.NewForm("AWS RDS IAM",
			components.NewTextField("AWS region", "us-east-1").WithValue(c.AWSRegion).WithRequired(true),
		)
	case "google":
		w.cloud = components.NewForm("Google Cloud SQL",
			components.NewTextField("Instance connection name", "project:region:instance").
				WithValue(c.GoogleInstance).WithRequired(true).WithValidator(validateInstance),
		)
	default:
		w.cloud = components.NewForm("Azure Entra ID",
			components.NewTextField("Tenant ID", "optional, for a service principal").WithValue(c.AzureTenantID),
			components.NewTextField("Client ID", "optional, for a service principal").WithValue(c.AzureClientID),
		)
	}
	w.cloud = w.cloud.Embedded()
	w.step = configStepCloud
	return w, w.cloud.Focus()
}

func (w ConfigWizard) updateCloud(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := w.cloud.Update(msg)
	w.cloud = m.(components.Form)

	switch {
	case w.cloud.Cancelled():
		return w.enterConnection()
	case w.cloud.Submitted():
		c := &w.cfg.Connection
		c.AWSRegion, c.GoogleInstance, c.AzureTenantID, c.AzureClientID = "", "", "", ""
		switch c.AuthMethod {
		case "aws":
			c.AWSRegion = w.cloud.FieldValue(0)
		case "google":
			c.GoogleInstance = w.cloud.FieldValue(0)
		default:
			c.AzureTenantID = w.cloud.FieldValue(0)
			c.AzureClientID = w.cloud.FieldValue(1)
		}
		return w.enterImport()
	}
	return w, cmd
}

func (w ConfigWizard) enterImport() (tea.Model, tea.Cmd) {
	imp := w.cfg.Import
	dataDir := imp.DataDir
	if dataDir == "" {
		dataDir = oews.DefaultDataDir
	}
	mode := imp.Mode
	if mode == "" {
		mode = string(oews.ModeArchive)
	}
	batch := strconv.Itoa(oews.DefaultBatchSize)
	if imp.BatchSize > 0 {
		batch = strconv.Itoa(imp.BatchSize)
	}
	atomic := "yes"
	if imp.Atomic != nil && !*imp.Atomic {
		atomic = "no"
	}

	w.imports = components.NewForm("Import",
		components.NewTextField("Data directory", oews.DefaultDataDir).
			WithValue(dataDir).WithRequired(true).WithCompleter(components.NewPathCompleter(components.DirsOnly)),
		components.NewTextField("Mode", "archive or files").WithValue(mode).WithValidator(validateMode),
		components.NewTextField("Batch size", batch).WithValue(batch).WithValidator(validateBatchSize),
		components.NewTextField("Replace each year in one transaction", "yes or no").WithValue(atomic).WithValidator(validateYesNo),
		components.NewTextField("Timeout", "e.g. 30m, empty for none").WithValue(imp.Timeout).WithValidator(validateTimeout),
	).Embedded()
	w.step = configStepImport
	return w, w.imports.Focus()
}

func (w ConfigWizard) updateImport(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := w.imports.Update(msg)
	w.imports = m.(components.Form)

	switch {
	case w.imports.Cancelled():
		if w.cfg.Connection.AuthMethod == "standard" {
			return w.enterConnection()
		}
		return w.enterCloud()
	case w.imports.Submitted():
		imp := &w.cfg.Import
		imp.DataDir = w.imports.FieldValue(importFieldDataDir)
		mode, _ := oews.ParseMode(w.imports.FieldValue(importFieldMode))
		imp.Mode = string(mode)
		imp.BatchSize, _ = strconv.Atoi(w.imports.FieldValue(importFieldBatchSize))
		atomic := parseYesNo(w.imports.FieldValue(importFieldAtomic))
		imp.Atomic = &atomic
		imp.Timeout = w.imports.FieldValue(importFieldTimeout)
		w.step = configStepReview
	}
	return w, cmd
}

func (w ConfigWizard) updateReview(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return w, nil
	}
	switch {
	case key.Matches(keyMsg, w.keys.Select):
		w.result.Config = w.cfg
		w.step = configStepDone
		return w, tea.Quit
	case key.Matches(keyMsg, w.keys.Back):
		return w.enterImport()
	}
	return w, nil
}

// View implements tea.Model.
func (w ConfigWizard) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("oews - Configuration"))
	b.WriteString("\n\n")

	switch w.step {
	case configStepDriver:
		b.WriteString(w.driver.View())
		b.WriteString(tui.MutedStyle.Render("\n" + w.keys.SelectHelpText()))
	case configStepAuth:
		b.WriteString(w.auth.View())
		b.WriteString(tui.MutedStyle.Render("\n" + w.keys.SelectHelpText()))
	case configStepConnection:
		b.WriteString(w.connection.View())
	case configStepCloud:
		b.WriteString(w.cloud.View())
	case configStepImport:
		b.WriteString(w.imports.View())
	case configStepReview:
		b.WriteString(w.viewReview())
	}

	return b.String()
}

func (w ConfigWizard) viewReview() string {
	var b strings.Builder

	b.WriteString(tui.SubtitleStyle.Render("Review " + config.ConfigFileName))
	b.WriteString("\n\n")

	data, err := yaml.Marshal(w.cfg)
	if err != nil {
		b.WriteString(tui.ErrorStyle.Render(err.Error()))
	}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		b.WriteString(tui.MutedStyle.Render("  " + line))
		b.WriteString("\n")
	}

	if w.cfg.Connection.AuthMethod == "standard" {
		b.WriteString("\n")
		b.WriteString(tui.WarningStyle.Render("The password is not saved; set OEWS_DB_PASSWORD or pass --password."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(tui.MutedStyle.Render(w.keys.ReviewHelpText(config.ConfigFileName)))
	return b.String()
}

// Result returns the wizard result.
func (w ConfigWizard) Result() ConfigResult {
	return w.result
}

// SaveConfig writes the collected configuration to oews.yaml in dir.
func (r ConfigResult) SaveConfig(dir string) (string, error) {
	if r.Cancelled {
		return "", errors.New("configuration wizard was cancelled")
	}
	path := filepath.Join(dir, config.ConfigFileName)
	if err := config.Save(path, &r.Config); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// RunConfigWizard executes the config wizard, prefilled from existing.
func RunConfigWizard(existing *config.ProjectConfig) (ConfigResult, error) {
	p := tea.NewProgram(NewConfigWizard(existing), tea.WithAltScreen())

	model, err := p.Run()
	if err != nil {
		return ConfigResult{Cancelled: true}, err
	}

	return model.(ConfigWizard).Result(), nil
}

func validatePort(s string) error {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return errors.New("port must be a number between 1 and 65535")
	}
	return nil
}

func validateInstance(s string) error {
	if strings.Count(strings.TrimSpace(s), ":") != 2 {
		return errors.New("expected project:region:instance")
	}
	return nil
}

func validateMode(s string) error {
	if _, err := oews.ParseMode(s); err != nil {
		return errors.New("mode must be archive or files")
	}
	return nil
}

func validateBatchSize(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("batch size must be a positive number")
	}
	return nil
}

func validateYesNo(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "no", "n", "true", "false":
		return nil
	}
	return errors.New("answer yes or no")
}

func parseYesNo(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "no", "n", "false":
		return false
	}
	return true
}

func validateTimeout(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return errors.New("timeout must be a duration such as 30m or 1h")
	}
	return nil
}
