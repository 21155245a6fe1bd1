package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/better-hash/ai-video-generator/internal/controller"
	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/services"
)

// Tab identifies one of the studio screens.
type Tab int

const (
	TabScript Tab = iota
	TabCharacters
	TabScenes
	TabVideo
)

var tabNames = []string{"Script", "Characters", "Scenes", "Video"}

func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return "unknown"
	}
	return tabNames[t]
}

func (t Tab) screen() string {
	return strings.ToLower(t.String())
}

// Session bundles the controllers the studio drives.
type Session struct {
	Script     *controller.ScriptEditor
	Characters *controller.CharacterManager
	Scenes     *controller.SceneManager
	Video      *controller.VideoGenerator
}

// Model is the root bubbletea model.
type Model struct {
	ctx     context.Context
	session Session
	bridge  *bridge
	styles  Styles

	tab       Tab
	script    textarea.Model
	character textinput.Model
	scene     textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	markdown  *glamour.TermRenderer

	charCursor  int
	sceneCursor int
	selChars    map[string]bool
	selScenes   map[string]bool

	video  controller.VideoView
	notice *controller.Notice
	width  int
	height int
}

// New builds the studio. ctx bounds every controller call made from it.
func New(ctx context.Context, session Session) Model {
	styles := DefaultStyles()

	ta := textarea.New()
	ta.Placeholder = "Paste or write a script... (ctrl+l loads the sample)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(80)
	ta.SetHeight(14)
	ta.SetValue(session.Script.Text())
	ta.Focus()

	character := textinput.New()
	character.Placeholder = "Name: what the character looks and sounds like"
	character.CharLimit = 1024
	character.Width = 76

	scene := textinput.New()
	scene.Placeholder = "Name: where and when the scene takes place"
	scene.CharLimit = 1024
	scene.Width = 76

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Selected

	b := newBridge()
	m := Model{
		ctx:       ctx,
		session:   session,
		bridge:    b,
		styles:    styles,
		script:    ta,
		character: character,
		scene:     scene,
		spinner:   sp,
		progress:  progress.New(progress.WithDefaultGradient()),
		selChars:  map[string]bool{},
		selScenes: map[string]bool{},
		video:     session.Video.View(),
		width:     80,
	}
	m.progress.Width = 60
	m.markdown = newMarkdownRenderer(76)

	forward := func(n controller.Notice) { b.send(noticeMsg{notice: n}) }
	b.attach(session.Script.SubscribeNotices(forward))
	b.attach(session.Characters.SubscribeNotices(forward))
	b.attach(session.Scenes.SubscribeNotices(forward))
	b.attach(session.Video.SubscribeNotices(forward))
	b.attach(session.Video.SubscribeView(func(v controller.VideoView) { b.send(videoMsg{view: v}) }))
	return m
}

// Close detaches every observer. Run calls it on exit.
func (m Model) Close() {
	m.bridge.close()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.bridge.next())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case noticeMsg:
		n := msg.notice
		m.notice = &n
		return m, m.bridge.next()
	case videoMsg:
		m.video = msg.view
		return m, m.bridge.next()
	case opDoneMsg:
		m.clampCursors()
		if msg.op == "generate character" && msg.err == nil {
			m.character.Reset()
		}
		if msg.op == "generate scene" && msg.err == nil {
			m.scene.Reset()
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m.updateInput(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.session.Video.Leave()
		m.Close()
		return m, tea.Quit
	case "tab":
		return m.switchTab((m.tab + 1) % Tab(len(tabNames)))
	case "shift+tab":
		return m.switchTab((m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))
	case "ctrl+s":
		return m, m.submit()
	}

	switch m.tab {
	case TabScript:
		switch msg.String() {
		case "ctrl+l":
			m.session.Script.UseSample()
			m.script.SetValue(m.session.Script.Text())
			return m, nil
		case "ctrl+d":
			m.session.Script.SetText(m.script.Value())
			return m, m.run("derive", func(ctx context.Context) error {
				_, err := m.session.Script.Derive(ctx, m.session.Characters, m.session.Scenes)
				return err
			})
		}
	case TabCharacters:
		switch msg.String() {
		case "up":
			m.charCursor--
			m.clampCursors()
			return m, nil
		case "down":
			m.charCursor++
			m.clampCursors()
			return m, nil
		case "delete":
			chars := m.session.Characters.Characters()
			if m.charCursor < len(chars) {
				id := chars[m.charCursor].ID
				m.session.Characters.Remove(id)
				delete(m.selChars, id)
				m.syncSelection()
				m.clampCursors()
			}
			return m, nil
		case "ctrl+x":
			m.session.Characters.ClearImage()
			return m, nil
		case "ctrl+t":
			chars := m.session.Characters.Characters()
			if m.charCursor < len(chars) {
				id := chars[m.charCursor].ID
				m.selChars[id] = !m.selChars[id]
				m.syncSelection()
			}
			return m, nil
		}
	case TabScenes:
		switch msg.String() {
		case "up":
			m.sceneCursor--
			m.clampCursors()
			return m, nil
		case "down":
			m.sceneCursor++
			m.clampCursors()
			return m, nil
		case "delete":
			scenes := m.session.Scenes.Scenes()
			if m.sceneCursor < len(scenes) {
				id := scenes[m.sceneCursor].ID
				m.session.Scenes.Remove(id)
				delete(m.selScenes, id)
				m.syncSelection()
				m.clampCursors()
			}
			return m, nil
		case "ctrl+t":
			scenes := m.session.Scenes.Scenes()
			if m.sceneCursor < len(scenes) {
				id := scenes[m.sceneCursor].ID
				m.selScenes[id] = !m.selScenes[id]
				m.syncSelection()
			}
			return m, nil
		}
	case TabVideo:
		return m, m.adjustSettings(msg.String())
	}
	return m.updateInput(msg)
}

func (m Model) switchTab(tab Tab) (tea.Model, tea.Cmd) {
	if m.tab == TabScript {
		m.session.Script.SetText(m.script.Value())
	}
	m.tab = tab
	m.script.Blur()
	m.character.Blur()
	m.scene.Blur()
	switch tab {
	case TabScript:
		return m, m.script.Focus()
	case TabCharacters:
		return m, m.character.Focus()
	case TabScenes:
		return m, m.scene.Focus()
	}
	return m, nil
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.tab {
	case TabScript:
		m.script, cmd = m.script.Update(msg)
	case TabCharacters:
		m.character, cmd = m.character.Update(msg)
	case TabScenes:
		m.scene, cmd = m.scene.Update(msg)
	}
	return m, cmd
}

// submit starts the active screen's primary action.
func (m *Model) submit() tea.Cmd {
	switch m.tab {
	case TabScript:
		m.session.Script.SetText(m.script.Value())
		return m.run("parse script", func(ctx context.Context) error {
			_, err := m.session.Script.Parse(ctx)
			return err
		})
	case TabCharacters:
		m.session.Characters.SetDescription(m.character.Value())
		return m.run("generate character", func(ctx context.Context) error {
			_, err := m.session.Characters.Generate(ctx)
			return err
		})
	case TabScenes:
		m.session.Scenes.SetDescription(m.scene.Value())
		return m.run("generate scene", func(ctx context.Context) error {
			_, err := m.session.Scenes.Generate(ctx)
			return err
		})
	case TabVideo:
		m.session.Script.SetText(m.script.Value())
		m.session.Video.SetScript(m.session.Script.Text())
		return m.run("generate video", func(ctx context.Context) error {
			_, err := m.session.Video.Generate(ctx)
			return err
		})
	}
	return nil
}

func (m *Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := services.WithScreen(m.ctx, m.tab.screen())
	return func() tea.Msg {
		err := fn(ctx)
		if errors.Is(err, controller.ErrBusy) {
			err = nil
		}
		return opDoneMsg{op: op, err: err}
	}
}

// adjustSettings cycles the video settings with single-letter keys.
func (m *Model) adjustSettings(key string) tea.Cmd {
	video := m.session.Video
	current := video.Settings()
	switch key {
	case "r":
		_ = video.SetResolution(cycle(entity.Resolutions(), current.Resolution))
	case "f":
		_ = video.SetFPS(cycle(entity.FrameRates(), current.FPS))
	case "d":
		_ = video.SetDuration(cycle(entity.Durations(), current.Duration))
	case "q":
		_ = video.SetQuality(cycle(entity.Qualities(), current.Quality))
	}
	return nil
}

func cycle[T comparable](values []T, current T) T {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func (m *Model) syncSelection() {
	var chars, scenes []string
	for _, c := range m.session.Characters.Characters() {
		if m.selChars[c.ID] {
			chars = append(chars, c.ID)
		}
	}
	for _, s := range m.session.Scenes.Scenes() {
		if m.selScenes[s.ID] {
			scenes = append(scenes, s.ID)
		}
	}
	_ = m.session.Video.SelectCharacters(chars)
	_ = m.session.Video.SelectScenes(scenes)
}

func (m *Model) clampCursors() {
	m.charCursor = clamp(m.charCursor, len(m.session.Characters.Characters()))
	m.sceneCursor = clamp(m.sceneCursor, len(m.session.Scenes.Scenes()))
}

func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

func (m *Model) resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	m.width, m.height = w, h
	inner := max(w-4, 20)
	m.script.SetWidth(inner)
	m.script.SetHeight(max(h-16, 5))
	m.character.Width = inner
	m.scene.Width = inner
	m.progress.Width = max(inner-10, 10)
	m.markdown = newMarkdownRenderer(inner)
}

// newMarkdownRenderer returns nil when glamour cannot be initialised; the
// script preview then falls back to plain text.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.renderTabs())
	sb.WriteString("\n\n")
	switch m.tab {
	case TabScript:
		sb.WriteString(m.renderScript())
	case TabCharacters:
		sb.WriteString(m.renderCharacters())
	case TabScenes:
		sb.WriteString(m.renderScenes())
	case TabVideo:
		sb.WriteString(m.renderVideo())
	}
	sb.WriteString("\n")
	if m.notice != nil {
		sb.WriteString(m.styles.Notice(*m.notice))
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Help.Render(m.helpLine()))
	return sb.String()
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			parts = append(parts, m.styles.ActiveTab.Render(name))
		} else {
			parts = append(parts, m.styles.Tab.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderScript() string {
	view := m.session.Script.View()
	var sb strings.Builder
	sb.WriteString(m.script.View())
	sb.WriteString("\n\n")
	if view.Loading {
		sb.WriteString(m.spinner.View() + " parsing...\n")
	}
	if view.Parsed == nil {
		sb.WriteString(m.styles.Muted.Render("not parsed yet"))
		return sb.String()
	}
	p := view.Parsed
	var summary strings.Builder
	summary.WriteString(m.styles.Title.Render(p.Title) + "\n")
	fmt.Fprintf(&summary, "%d characters, %d scenes, %d dialogue lines\n", len(p.Characters), len(p.Scenes), p.DialogueCount())
	summary.WriteString(m.renderMarkdown(scriptMarkdown(*p)))
	sb.WriteString(m.styles.Box.Render(strings.TrimRight(summary.String(), "\n")))
	return sb.String()
}

func (m Model) renderMarkdown(md string) string {
	if m.markdown != nil {
		if out, err := m.markdown.Render(md); err == nil {
			return out
		}
	}
	return md
}

func scriptMarkdown(p entity.ParsedScript) string {
	var md strings.Builder
	if len(p.Characters) > 0 {
		md.WriteString("### Characters\n\n")
		for _, c := range p.Characters {
			fmt.Fprintf(&md, "- **%s**: %s\n", c.Name, c.Description)
		}
		md.WriteString("\n")
	}
	if len(p.Scenes) > 0 {
		md.WriteString("### Scenes\n\n")
		for i, s := range p.Scenes {
			fmt.Fprintf(&md, "%d. %s (%d lines)\n", i+1, s.Description, len(s.Dialogues))
		}
	}
	return md.String()
}

func (m Model) renderCharacters() string {
	view := m.session.Characters.View()
	var sb strings.Builder
	sb.WriteString(m.character.View())
	sb.WriteString("\n")
	if view.Attachment != nil {
		sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("attached %s (%s)", view.Attachment.Filename, view.Attachment.MIMEType)))
		sb.WriteString("\n")
	}
	if view.Loading {
		sb.WriteString(m.spinner.View() + " generating...\n")
	}
	sb.WriteString("\n")
	if len(view.Characters) == 0 {
		sb.WriteString(m.styles.Muted.Render("no characters yet"))
		return sb.String()
	}
	for i, c := range view.Characters {
		sb.WriteString(m.listLine(i == m.charCursor, m.selChars[c.ID], c.Name, c.Description))
	}
	return sb.String()
}

func (m Model) renderScenes() string {
	view := m.session.Scenes.View()
	var sb strings.Builder
	sb.WriteString(m.scene.View())
	sb.WriteString("\n")
	if view.Loading {
		sb.WriteString(m.spinner.View() + " generating...\n")
	}
	sb.WriteString("\n")
	if len(view.Scenes) == 0 {
		sb.WriteString(m.styles.Muted.Render("no scenes yet"))
		return sb.String()
	}
	for i, s := range view.Scenes {
		detail := s.Description
		if s.Mood != "" || s.TimeOfDay != "" {
			detail = fmt.Sprintf("%s [%s %s]", detail, s.Mood, s.TimeOfDay)
		}
		sb.WriteString(m.listLine(i == m.sceneCursor, m.selScenes[s.ID], s.Name, detail))
	}
	return sb.String()
}

func (m Model) listLine(cursor, selected bool, name, detail string) string {
	marker := "  "
	if cursor {
		marker = m.styles.Cursor.Render("> ")
	}
	check := "[ ]"
	if selected {
		check = m.styles.Selected.Render("[x]")
	}
	return fmt.Sprintf("%s%s %s %s\n", marker, check, m.styles.Title.Render(name), m.styles.Muted.Render(detail))
}

func (m Model) renderVideo() string {
	v := m.video
	var sb strings.Builder
	fmt.Fprintf(&sb, "resolution %s  fps %d  duration %ds  quality %s\n",
		v.Settings.Resolution, v.Settings.FPS, v.Settings.Duration, v.Settings.Quality)
	fmt.Fprintf(&sb, "characters %d  scenes %d selected\n\n", len(v.SelectedCharacters), len(v.SelectedScenes))

	state := string(v.State)
	if v.Loading {
		state = m.spinner.View() + " " + state
	}
	fmt.Fprintf(&sb, "state %s", state)
	if v.TaskID != "" {
		fmt.Fprintf(&sb, "  task %s", v.TaskID)
	}
	sb.WriteString("\n")
	if v.TaskID != "" {
		sb.WriteString(m.progress.ViewAs(float64(v.Progress) / 100))
		fmt.Fprintf(&sb, " %s\n", v.StageLabel)
	}
	if v.Message != "" {
		sb.WriteString(m.styles.Muted.Render(v.Message) + "\n")
	}
	if v.VideoURL != "" {
		sb.WriteString(m.styles.Selected.Render("video: "+v.VideoURL) + "\n")
	}
	if v.Error != "" {
		sb.WriteString(m.styles.Notice(controller.Notice{Level: controller.LevelError, Text: v.Error}) + "\n")
	}
	return sb.String()
}

func (m Model) helpLine() string {
	common := "tab switch • ctrl+c quit"
	switch m.tab {
	case TabScript:
		return "ctrl+s parse • ctrl+d derive • ctrl+l sample • " + common
	case TabCharacters:
		return "ctrl+s generate • ↑/↓ move • ctrl+t select • delete remove • ctrl+x drop image • " + common
	case TabScenes:
		return "ctrl+s generate • ↑/↓ move • ctrl+t select • delete remove • " + common
	default:
		return "ctrl+s generate • r/f/d/q cycle settings • " + common
	}
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, session Session, opts ...tea.ProgramOption) error {
	m := New(ctx, session)
	defer m.Close()
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
