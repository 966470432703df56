// ABOUTME: Top-level Bubble Tea AppModel that drives the analysis controller from the terminal.
// ABOUTME: Implements tea.Model (Init, Update, View) and routes messages to the input, progress, report, log and status bar panels.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/2389-research/accessdoc/controller"
	"github.com/2389-research/accessdoc/report"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// FocusTarget indicates which panel currently has keyboard focus.
type FocusTarget int

const (
	FocusInput FocusTarget = iota
	FocusReport
	FocusLog
)

const (
	logPanelHeight = 7
	tickInterval   = time.Second
	noticeDuration = 3 * time.Second
)

// Options configure the AppModel.
type Options struct {
	Server       string        // shown in the status bar
	ExportDir    string        // where "d" writes reports
	Format       report.Format // export format for "d"
	Store        Saver         // nil disables history
	GlamourStyle string        // glamour style for the plan, default "auto"
	InitialURL   string        // submitted on start when set
	Now          func() time.Time
}

// AppModel is the top-level Bubble Tea model. The controller is shared by
// pointer, so copies of the model made by Bubble Tea all drive the same
// state machine.
type AppModel struct {
	ctl  *controller.Controller
	opts Options

	input     URLInputModel
	progress  ProgressPanelModel
	report    ReportPanelModel
	log       LogPanelModel
	statusBar StatusBarModel

	focus     FocusTarget
	notice    string
	noticeErr bool
	noticeSeq int
	width     int
	height    int
}

// NewAppModel creates an AppModel around ctl.
func NewAppModel(ctl *controller.Controller, opts Options) AppModel {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GlamourStyle == "" {
		opts.GlamourStyle = report.StyleAuto
	}
	if opts.Format == "" {
		opts.Format = report.FormatText
	}

	m := AppModel{
		ctl:       ctl,
		opts:      opts,
		input:     NewURLInputModel(),
		progress:  NewProgressPanelModel(),
		report:    NewReportPanelModel(opts.GlamourStyle),
		log:       NewLogPanelModel(200),
		statusBar: NewStatusBarModel(opts.Server),
		focus:     FocusInput,
	}
	if opts.InitialURL != "" {
		m.input.SetValue(opts.InitialURL)
	}
	m.statusBar.SetHints(m.hints())
	return m
}

// Init implements tea.Model.
func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.opts.InitialURL != "" {
		cmds = append(cmds, SubmitCmd(m.opts.InitialURL))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model. Routes incoming messages to the appropriate
// sub-panel and returns the updated model with any follow-up commands.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case SubmitMsg:
		return m.submit(msg.URL)

	case StreamEventMsg:
		return m.handleStreamEvent(msg)

	case StreamClosedMsg:
		return m, nil

	case TickMsg:
		return m.handleTick(msg)

	case spinner.TickMsg:
		if !m.ctl.State().ShowLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd

	case CopyResultMsg:
		if msg.Err != nil {
			return m.setNotice(msg.Err.Error(), true)
		}
		return m.setNotice("Copied!", false)

	case ExportResultMsg:
		if msg.Err != nil {
			return m.setNotice(msg.Err.Error(), true)
		}
		return m.setNotice("Saved "+msg.Path, false)

	case SaveResultMsg:
		if msg.Err != nil {
			return m.setNotice("history: "+msg.Err.Error(), true)
		}
		m.log.Append(LogEntry{Time: m.opts.Now(), Level: LevelSuccess, Label: "history", Text: "saved " + msg.ID})
		return m, nil

	case ClearNoticeMsg:
		if msg.Seq == m.noticeSeq {
			m.notice = ""
			m.noticeErr = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

// View implements tea.Model. Renders the input, exactly one of the loading
// indicator, error banner or report, then the log and status bar.
func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	// Minimum terminal size guard to prevent layout overflow
	if m.width < 40 || m.height < 16 {
		return fmt.Sprintf("Terminal too small (%dx%d). Minimum: 40x16.", m.width, m.height)
	}

	st := m.ctl.State()

	var b strings.Builder
	b.WriteString(TitleStyle.Render("accessdoc"))
	b.WriteString("  ")
	b.WriteString(HintStyle.Render("web accessibility analyzer"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch {
	case st.ShowLoading():
		b.WriteString(m.progress.View(st))
	case st.ShowError():
		b.WriteString(ErrorBannerStyle.Width(max(m.width-6, 1)).Render("Error: " + st.Message))
	case st.ShowReport():
		b.WriteString(m.report.View())
	default:
		b.WriteString(HintStyle.Render("  Enter a URL and press enter to analyze it."))
	}
	b.WriteString("\n")

	if m.notice != "" {
		style := NoticeStyle
		if m.noticeErr {
			style = InputErrorStyle
		}
		b.WriteString(style.Render("  " + m.notice))
		b.WriteString("\n")
	}

	b.WriteString(m.log.View())
	b.WriteString("\n")
	b.WriteString(m.statusBar.View())

	return b.String()
}

// Controller returns the controller the model drives.
func (m AppModel) Controller() *controller.Controller {
	return m.ctl
}

// layout distributes the window between panels.
func (m *AppModel) layout() {
	if m.width == 0 {
		return
	}
	m.input.SetWidth(m.width)
	m.progress.SetWidth(m.width)
	m.log.SetSize(m.width, logPanelHeight)
	m.statusBar.SetWidth(m.width)

	// title, input (3), notice, log, status bar
	reportHeight := m.height - 1 - 3 - 1 - logPanelHeight - 1
	m.report.SetSize(m.width, max(reportHeight, 8))
}

// submit validates raw through the controller and starts draining the new
// session. Invalid input only sets the inline error.
func (m AppModel) submit(raw string) (tea.Model, tea.Cmd) {
	wasLoading := m.ctl.State().ShowLoading()

	sess, err := m.ctl.Submit(raw)
	if err != nil {
		m.input.SetError(analysis.UserMessage(err))
		return m, nil
	}
	m.input.SetError("")

	st := m.ctl.State()
	m.log.Append(LogEntry{Time: m.opts.Now(), Label: "submit", Text: st.Target})
	m.statusBar.Sync(st, m.opts.Now())
	if m.focus == FocusReport {
		m.setFocus(FocusInput)
	}

	cmds := []tea.Cmd{WaitForEventCmd(sess)}
	if !wasLoading {
		cmds = append(cmds, m.progress.Tick(), TickCmd(tickInterval))
	}
	return m, tea.Batch(cmds...)
}

// handleStreamEvent applies one session event and keeps draining its
// session. Stale events are dropped by the controller.
func (m AppModel) handleStreamEvent(msg StreamEventMsg) (tea.Model, tea.Cmd) {
	next := WaitForEventCmd(msg.Session)
	if !m.ctl.Handle(msg.Event) {
		return m, next
	}

	m.log.Append(EntryForEvent(msg.Event))
	st := m.ctl.State()
	m.statusBar.Sync(st, m.opts.Now())

	cmds := []tea.Cmd{next}
	if msg.Event.Kind == analysis.EventReport && st.ShowReport() {
		m.report.SetReport(st.Report)
		m.layout()
		if m.opts.Store != nil {
			cmds = append(cmds, SaveReportCmd(m.opts.Store, st.Target, st.Report, m.opts.Now()))
		}
	}
	return m, tea.Batch(cmds...)
}

// handleTick refreshes the elapsed timer and keeps ticking while loading.
func (m AppModel) handleTick(msg TickMsg) (tea.Model, tea.Cmd) {
	st := m.ctl.State()
	m.statusBar.Sync(st, msg.Time)
	if !st.ShowLoading() {
		return m, nil
	}
	return m, TickCmd(tickInterval)
}

// handleKeyMsg processes keyboard input, routing to the focused panel or
// app-level shortcuts.
func (m AppModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "tab":
		m.setFocus(m.nextFocus())
		return m, nil
	}

	if m.focus == FocusInput {
		switch msg.Type {
		case tea.KeyEnter:
			return m.submit(m.input.Value())
		case tea.KeyEsc:
			return m.quit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	st := m.ctl.State()
	switch msg.String() {
	case "q":
		return m.quit()
	case "esc", "/", "i":
		m.setFocus(FocusInput)
		return m, nil
	case "c":
		if st.ShowReport() {
			return m, CopyReportCmd(st.Report)
		}
	case "d":
		if st.ShowReport() {
			return m, ExportReportCmd(m.opts.ExportDir, st.Report, st.Target, m.opts.Format, m.opts.Now())
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case FocusReport:
		m.report, cmd = m.report.Update(msg)
	case FocusLog:
		m.log, cmd = m.log.Update(msg)
	}
	return m, cmd
}

// quit tears down the active session before exiting.
func (m AppModel) quit() (tea.Model, tea.Cmd) {
	m.ctl.Teardown()
	return m, tea.Quit
}

// setNotice shows a transient message under the main panel.
func (m AppModel) setNotice(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.noticeSeq++
	m.notice = text
	m.noticeErr = isErr
	return m, ClearNoticeCmd(m.noticeSeq, noticeDuration)
}

func (m *AppModel) setFocus(f FocusTarget) {
	m.focus = f
	if f == FocusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.report.SetFocused(f == FocusReport)
	m.log.SetFocused(f == FocusLog)
	m.statusBar.SetHints(m.hints())
}

// nextFocus cycles input, report (when one is shown) and log.
func (m AppModel) nextFocus() FocusTarget {
	switch m.focus {
	case FocusInput:
		if m.ctl.State().ShowReport() {
			return FocusReport
		}
		return FocusLog
	case FocusReport:
		return FocusLog
	default:
		return FocusInput
	}
}

func (m AppModel) hints() string {
	switch m.focus {
	case FocusInput:
		return "enter: analyze  tab: focus  esc: quit"
	case FocusReport:
		return "c: copy  d: download  ↑/↓: scroll  tab: focus  q: quit"
	default:
		return "↑/↓: scroll  tab: focus  q: quit"
	}
}
