package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/loveeatcandy/cliproxy-quota/internal/quota"
)

// FetchFunc runs one collection cycle. Failures surface inside the snapshot.
type FetchFunc func(context.Context) quota.Snapshot

type Options struct {
	Interval      time.Duration
	Timeout       time.Duration
	NoColor       bool
	AltScreen     bool
	WarnThreshold float64
	Fetch         FetchFunc
}

// RefreshRequestMsg asks the model to fetch immediately. External watchers
// (the credentials file notifier) send it through Program.Send.
type RefreshRequestMsg struct{}

type Model struct {
	interval      time.Duration
	timeout       time.Duration
	warnThreshold float64
	fetch         FetchFunc

	width  int
	height int

	now time.Time

	fetching      bool
	lastAttemptAt time.Time
	lastError     string
	nextFetchAt   time.Time

	snapshot *quota.Snapshot
	keys     keyMap
	styles   styles
}

type styles struct {
	title   lipgloss.Style
	dim     lipgloss.Style
	panel   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	accent  lipgloss.Style
	error   lipgloss.Style
	loading lipgloss.Style
}

type pollTickMsg struct {
	at time.Time
}

type clockTickMsg struct {
	at time.Time
}

type fetchResultMsg struct {
	at       time.Time
	snapshot quota.Snapshot
}

const (
	defaultInterval = 300 * time.Second
	defaultTimeout  = 15 * time.Second
)

func NewModel(opts Options) Model {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	warnThreshold := opts.WarnThreshold
	if warnThreshold <= 0 {
		warnThreshold = 0.20
	}
	fetch := opts.Fetch
	if fetch == nil {
		fetch = func(context.Context) quota.Snapshot {
			return quota.Snapshot{FetchErr: "missing fetch function", FetchedAt: time.Now()}
		}
	}
	now := time.Now()

	return Model{
		interval:      interval,
		timeout:       timeout,
		warnThreshold: warnThreshold,
		fetch:         fetch,
		now:           now,
		fetching:      true,
		nextFetchAt:   now.Add(interval),
		keys:          defaultKeyMap(),
		styles:        defaultStyles(opts.NoColor),
	}
}

func defaultStyles(noColor bool) styles {
	basePanel := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if noColor {
		return styles{
			title:   lipgloss.NewStyle().Bold(true),
			dim:     lipgloss.NewStyle(),
			panel:   basePanel,
			label:   lipgloss.NewStyle().Bold(true),
			value:   lipgloss.NewStyle(),
			ok:      lipgloss.NewStyle().Bold(true),
			warn:    lipgloss.NewStyle().Bold(true),
			bad:     lipgloss.NewStyle().Bold(true),
			accent:  lipgloss.NewStyle().Bold(true),
			error:   lipgloss.NewStyle().Bold(true),
			loading: lipgloss.NewStyle(),
		}
	}
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("24")).Padding(0, 1),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		panel:   basePanel.BorderForeground(lipgloss.Color("61")),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("109")),
		value:   lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		ok:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		warn:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		bad:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		accent:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		loading: lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchCmd(m.fetch, m.timeout), pollCmd(m.interval), clockCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(v, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(v, m.keys.Refresh):
			return m.startFetch()
		}
	case tea.WindowSizeMsg:
		m.width = v.Width
		m.height = v.Height
	case RefreshRequestMsg:
		return m.startFetch()
	case pollTickMsg:
		m.nextFetchAt = v.at.Add(m.interval)
		cmds := []tea.Cmd{pollCmd(m.interval)}
		if !m.fetching {
			m.fetching = true
			cmds = append(cmds, fetchCmd(m.fetch, m.timeout))
		}
		return m, tea.Batch(cmds...)
	case clockTickMsg:
		m.now = v.at
		return m, clockCmd()
	case fetchResultMsg:
		m.fetching = false
		m.lastAttemptAt = v.at
		m.lastError = v.snapshot.FetchErr
		if v.snapshot.FetchErr == "" {
			snap := v.snapshot
			m.snapshot = &snap
		}
		return m, nil
	}
	return m, nil
}

func (m Model) startFetch() (tea.Model, tea.Cmd) {
	if m.fetching {
		return m, nil
	}
	m.fetching = true
	return m, fetchCmd(m.fetch, m.timeout)
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "initializing..."
	}

	header := m.renderHeader()
	body := m.renderBody()
	help := m.styles.dim.Render(m.keys.helpText())

	top := lipgloss.JoinVertical(lipgloss.Left, header, body, "")
	combined := pinFooterToBottom(top, help, m.height)
	return clipToViewport(combined, m.width, m.height)
}

func (m Model) renderHeader() string {
	title := m.styles.title.Render(" cliproxy quota ")

	stateText := "idle"
	stateStyle := m.styles.dim
	if m.fetching {
		stateText = "refreshing"
		stateStyle = m.styles.loading
	} else if m.lastError != "" {
		stateText = "error"
		stateStyle = m.styles.bad
	} else if m.snapshot != nil {
		stateText = "healthy"
		stateStyle = m.styles.ok
	}

	left := title + "  " + m.styles.label.Render("state: ") + stateStyle.Render(stateText)
	if !m.nextFetchAt.IsZero() {
		refreshText := "[next refresh in " + humanDuration(m.nextFetchAt.Sub(m.now)) + "]"
		left += " " + m.styles.dim.Render(refreshText)
	}
	right := m.styles.dim.Render(m.now.Format("2006-01-02 15:04:05"))
	return joinWithPaddingKeepRight(left, right, m.width)
}

func (m Model) renderBody() string {
	contentWidth := max(20, m.width-4)

	if m.snapshot == nil {
		if m.lastError != "" {
			msg := m.styles.error.Render("last error: " + m.lastError)
			return m.styles.panel.Width(contentWidth).Render(msg)
		}
		return m.styles.panel.Width(contentWidth).Render(m.styles.loading.Render("loading quota data..."))
	}

	panels := make([]string, 0, len(m.snapshot.Providers)+1)
	for _, summary := range m.snapshot.Providers {
		panels = append(panels, m.renderProviderPanel(summary, contentWidth))
	}
	if m.lastError != "" {
		panels = append(panels, m.styles.error.Render(ansi.Truncate("last error: "+m.lastError, contentWidth, "...")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func (m Model) renderProviderPanel(summary quota.ProviderSummary, maxWidth int) string {
	aggregate := "—"
	aggregateStyle := m.styles.dim
	if summary.AggregatePercent != nil {
		aggregate = fmt.Sprintf("%d%%", *summary.AggregatePercent)
		aggregateStyle = m.remainingStyle(*summary.AggregatePercent)
	}

	lines := []string{
		m.styles.accent.Render(summary.Provider) + " " +
			aggregateStyle.Render(aggregate) + " " +
			m.styles.dim.Render(fmt.Sprintf("(%d accounts)", summary.AccountCount)),
	}
	for _, rec := range m.snapshot.Accounts[summary.Provider] {
		lines = append(lines, m.renderAccountLine(rec))
		for _, detail := range rec.Details {
			lines = append(lines, m.renderDetailLine(detail))
		}
	}
	if summary.AccountCount == 0 {
		lines = append(lines, m.styles.dim.Render("no accounts"))
	}

	for i := range lines {
		lines[i] = ansi.Truncate(lines[i], max(4, maxWidth-4), "...")
	}
	return m.styles.panel.Width(maxWidth).Render(strings.Join(lines, "\n"))
}

func (m Model) renderAccountLine(rec quota.AccountRecord) string {
	state := quota.Classify(rec, m.warnThreshold)

	line := state.Icon() + " " + m.styles.value.Render(rec.AccountID)
	if rec.PlanType != "" {
		line += " " + m.styles.dim.Render("["+strings.ToUpper(rec.PlanType)+"]")
	}
	switch {
	case rec.Err != "":
		line += " " + m.styles.error.Render(rec.Err)
	case rec.RemainingFraction != nil:
		pct := int(*rec.RemainingFraction * 100)
		line += " " + m.remainingStyle(pct).Render(fmt.Sprintf("%d%%", pct))
	default:
		line += " " + m.styles.dim.Render("unknown")
	}
	return line
}

func (m Model) renderDetailLine(detail quota.DetailLine) string {
	value := "n/a"
	style := m.styles.dim
	if detail.RemainingPercent != nil {
		value = fmt.Sprintf("%d%%", *detail.RemainingPercent)
		style = m.remainingStyle(*detail.RemainingPercent)
	}
	line := "  " + m.styles.label.Render(detail.Label+": ") + style.Render(value)
	if detail.ResetAt != nil && detail.ResetAt.After(m.now) {
		line += " " + m.styles.dim.Render("resets in "+humanDuration(detail.ResetAt.Sub(m.now)))
	}
	return line
}

// remainingStyle colors percent-remaining values: plenty left is good, a
// thin remainder is bad. The inverse of a used-percent scale.
func (m Model) remainingStyle(pct int) lipgloss.Style {
	warnPct := int(m.warnThreshold * 100)
	switch {
	case pct <= warnPct:
		return m.styles.bad
	case pct <= 50:
		return m.styles.warn
	default:
		return m.styles.ok
	}
}

func pollCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return pollTickMsg{at: t}
	})
}

func clockCmd() tea.Cmd {
	return tea.Tick(1*time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg{at: t}
	})
}

func fetchCmd(fetch FetchFunc, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snapshot := fetch(ctx)
		return fetchResultMsg{
			at:       time.Now(),
			snapshot: snapshot,
		}
	}
}

// Run starts the program and returns it so callers can Send external
// messages (the config watcher uses RefreshRequestMsg).
func Run(opts Options) error {
	prog := NewProgram(opts)
	_, err := prog.Run()
	return err
}

func NewProgram(opts Options) *tea.Program {
	model := NewModel(opts)
	progOpts := []tea.ProgramOption{}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	return tea.NewProgram(model, progOpts...)
}

func joinWithPaddingKeepRight(left, right string, width int) string {
	if width <= 0 {
		return ""
	}
	rightWidth := lipgloss.Width(right)
	if rightWidth >= width {
		return truncateRunes(right, width)
	}
	maxLeftWidth := width - rightWidth - 1
	if maxLeftWidth < 0 {
		maxLeftWidth = 0
	}
	left = truncateRunes(left, maxLeftWidth)
	leftWidth := lipgloss.Width(left)
	padding := width - leftWidth - rightWidth
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + right
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	return ansi.Truncate(s, maxRunes, "")
}

func clipToViewport(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i := range lines {
		lines[i] = truncateRunes(lines[i], width)
		pad := width - lipgloss.Width(lines[i])
		if pad > 0 {
			lines[i] += strings.Repeat(" ", pad)
		}
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func pinFooterToBottom(top, footer string, height int) string {
	if height <= 0 {
		return ""
	}
	footerLines := []string{}
	if footer != "" {
		footerLines = strings.Split(footer, "\n")
	}
	topLines := []string{}
	if top != "" {
		topLines = strings.Split(top, "\n")
	}

	maxTopLines := height - len(footerLines)
	if maxTopLines < 0 {
		maxTopLines = 0
	}
	if len(topLines) > maxTopLines {
		topLines = topLines[:maxTopLines]
	}
	for len(topLines) < maxTopLines {
		topLines = append(topLines, "")
	}

	all := append(topLines, footerLines...)
	if len(all) == 0 {
		return ""
	}
	return strings.Join(all, "\n")
}

func humanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return d.String()
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
