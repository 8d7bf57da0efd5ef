package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iw2rmb/glimmer/ai"
	"github.com/iw2rmb/glimmer/assist"
	"github.com/iw2rmb/glimmer/document"
	"github.com/iw2rmb/glimmer/internal/grapheme"
)

const sampleText = "Teh quick brown fox jumps over the lazy dog. " +
	"This demo wires the assist session to a tiny editor: type to get ghost " +
	"completions, select a span and type an instruction to rewrite it."

type keymap struct {
	Quit          key.Binding
	AcceptGhost   key.Binding
	Dismiss       key.Binding
	AcceptTooltip key.Binding
	SelectLeft    key.Binding
	SelectRight   key.Binding
}

func defaultKeymap() keymap {
	return keymap{
		Quit:          key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		AcceptGhost:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "accept ghost")),
		Dismiss:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		AcceptTooltip: key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "accept fix")),
		SelectLeft:    key.NewBinding(key.WithKeys("shift+left"), key.WithHelp("shift+←", "extend selection")),
		SelectRight:   key.NewBinding(key.WithKeys("shift+right"), key.WithHelp("shift+→", "extend selection")),
	}
}

type styles struct {
	ghost     lipgloss.Style
	spelling  lipgloss.Style
	grammar   lipgloss.Style
	style     lipgloss.Style
	selection lipgloss.Style
	caret     lipgloss.Style
	footer    lipgloss.Style
	tooltip   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		ghost:     lipgloss.NewStyle().Faint(true),
		spelling:  lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("9")),
		grammar:   lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("11")),
		style:     lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("12")),
		selection: lipgloss.NewStyle().Reverse(true),
		caret:     lipgloss.NewStyle().Blink(true),
		footer:    lipgloss.NewStyle().Faint(true),
		tooltip:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// Messages the presenter pushes into the program loop.
type (
	assistUpdatedMsg struct{}

	tooltipMsg struct {
		span      document.Range
		payload   any
		onAccept  func()
		onDismiss func()
	}

	optionsMsg struct {
		options  []assist.RewriteOption
		onSelect func(key string)
	}

	clearMsg struct{ kind assist.AnchorKind }
)

// teaPresenter forwards every render call into the Bubble Tea loop. Calls
// arrive on fetch goroutines; Program.Send is safe for that.
type teaPresenter struct {
	send func(tea.Msg)
}

func (p *teaPresenter) RenderInlineGhost(string, int) { p.send(assistUpdatedMsg{}) }

func (p *teaPresenter) RenderUnderline(document.Range, assist.SuggestionType) {
	p.send(assistUpdatedMsg{})
}

func (p *teaPresenter) RenderTooltip(span document.Range, payload any, onAccept, onDismiss func()) {
	p.send(tooltipMsg{span: span, payload: payload, onAccept: onAccept, onDismiss: onDismiss})
}

func (p *teaPresenter) RenderOptionsList(options []assist.RewriteOption, onSelect func(string)) {
	p.send(optionsMsg{options: options, onSelect: onSelect})
}

func (p *teaPresenter) Clear(kind assist.AnchorKind) { p.send(clearMsg{kind: kind}) }

type model struct {
	doc  *document.Document
	sess *assist.Session

	vp     viewport.Model
	keys   keymap
	styles styles
	width  int

	tooltip *tooltipMsg
	options []assist.RewriteOption

	// API key entry form, shown until a client exists.
	keyInput textinput.Model
	needKey  bool
	attach   func(apiKey string) error
}

func newModel(doc *document.Document, sess *assist.Session, needKey bool, attach func(string) error) model {
	ti := textinput.New()
	ti.Placeholder = "sk-..."
	ti.EchoMode = textinput.EchoPassword
	ti.Focus()

	vp := viewport.New(80, 12)

	return model{
		doc:      doc,
		sess:     sess,
		vp:       vp,
		keys:     defaultKeymap(),
		styles:   defaultStyles(),
		width:    80,
		keyInput: ti,
		needKey:  needKey,
		attach:   attach,
	}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.vp.Width = msg.Width
		m.vp.Height = max(msg.Height-6, 3)
		return m, nil

	case assistUpdatedMsg:
		return m, nil
	case tooltipMsg:
		m.tooltip = &msg
		return m, nil
	case optionsMsg:
		m.options = msg.options
		return m, nil
	case clearMsg:
		switch msg.kind {
		case assist.AnchorRewritePreview, assist.AnchorSuggestion:
			m.tooltip = nil
		case assist.AnchorRewriteOptions:
			m.options = nil
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.needKey {
			return m.updateKeyForm(msg)
		}
		return m.updateEditor(msg)
	}

	var cmd tea.Cmd
	if m.needKey {
		m.keyInput, cmd = m.keyInput.Update(msg)
		return m, cmd
	}
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m model) updateKeyForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if err := m.attach(m.keyInput.Value()); err == nil {
			m.needKey = false
		} else {
			m.keyInput.Reset()
			m.keyInput.Placeholder = "invalid key, try again (esc for offline mode)"
		}
		return m, nil
	case "esc":
		_ = m.attach("") // offline: scripted client
		m.needKey = false
		return m, nil
	}
	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := m.doc.Selection()

	switch {
	case key.Matches(msg, m.keys.AcceptGhost):
		m.sess.AcceptCompletion()
		return m, nil
	case key.Matches(msg, m.keys.Dismiss):
		m.sess.DismissCompletion()
		m.sess.CancelRewrite()
		m.tooltip = nil
		m.options = nil
		return m, nil
	case key.Matches(msg, m.keys.AcceptTooltip):
		if m.tooltip != nil && m.tooltip.onAccept != nil {
			m.tooltip.onAccept()
			m.tooltip = nil
		}
		return m, nil
	case key.Matches(msg, m.keys.SelectLeft):
		if sel.From > 0 {
			m.doc.SetSelection(document.Range{From: sel.From - 1, To: sel.To})
		}
		return m, nil
	case key.Matches(msg, m.keys.SelectRight):
		if sel.To < m.doc.Len() {
			m.doc.SetSelection(document.Range{From: sel.From, To: sel.To + 1})
		}
		return m, nil
	}

	switch msg.String() {
	case "left":
		m.doc.SetSelection(document.Caret(max(sel.From-1, 0)))
	case "right":
		m.doc.SetSelection(document.Caret(min(sel.To+1, m.doc.Len())))
	case "home":
		_, start := m.doc.LineAt(sel.From)
		m.doc.SetSelection(document.Caret(start))
	case "end":
		line, start := m.doc.LineAt(sel.From)
		m.doc.SetSelection(document.Caret(start + len([]rune(line))))
	case "backspace":
		if !sel.Empty() {
			m.doc.Apply(document.Edit{From: sel.From, To: sel.To})
		} else if sel.From > 0 {
			m.doc.Apply(document.Edit{From: sel.From - 1, To: sel.From})
		}
	case "enter":
		m.doc.Apply(document.Edit{From: sel.From, To: sel.To, Insert: "\n"})
	default:
		for _, r := range msg.Runes {
			if m.sess.HandleLetter(r) {
				continue
			}
			cur := m.doc.Selection()
			m.doc.Apply(document.Edit{From: cur.From, To: cur.To, Insert: string(r)})
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.needKey {
		return fmt.Sprintf("\n  glimmer demo\n\n  Enter your OpenAI API key (kept in memory only):\n\n  %s\n\n  esc: continue offline with a scripted assistant\n", m.keyInput.View())
	}

	m.vp.SetContent(m.renderDocument())
	parts := []string{m.vp.View(), m.renderFooter()}
	if tip := m.renderTooltip(); tip != "" {
		parts = append(parts, tip)
	}
	return strings.Join(parts, "\n")
}

// renderDocument styles the text rune by rune: selection reversed, ghost text
// faint at its anchor, suggestion spans underlined per type.
func (m model) renderDocument() string {
	text := []rune(m.doc.Text())
	sel := m.doc.Selection()

	ghostAt := -1
	ghostText := ""
	for _, a := range m.sess.Anchors(assist.AnchorInline) {
		if t, ok := a.Payload.(string); ok {
			ghostAt, ghostText = a.From, t
		}
	}

	styleAt := make(map[int]lipgloss.Style)
	for _, sg := range m.sess.SuggestionSpans() {
		st := m.styles.style
		switch sg.Type {
		case assist.SuggestionSpelling:
			st = m.styles.spelling
		case assist.SuggestionGrammar:
			st = m.styles.grammar
		}
		for i := sg.From; i < sg.To && i < len(text); i++ {
			styleAt[i] = st
		}
	}

	var b strings.Builder
	for i, r := range text {
		if i == ghostAt {
			b.WriteString(m.styles.ghost.Render(ghostText))
		}
		if i == sel.From && sel.Empty() {
			b.WriteString(m.styles.caret.Render("│"))
		}
		s := string(r)
		switch {
		case !sel.Empty() && sel.Contains(i):
			b.WriteString(m.styles.selection.Render(s))
		default:
			if st, ok := styleAt[i]; ok {
				s = st.Render(s)
			}
			b.WriteString(s)
		}
	}
	if ghostAt == len(text) {
		b.WriteString(m.styles.ghost.Render(ghostText))
	}
	if sel.Empty() && sel.From == len(text) {
		b.WriteString(m.styles.caret.Render("│"))
	}
	return b.String()
}

func (m model) renderFooter() string {
	var parts []string
	if q := m.sess.RewriteQueryState(); q.Buffer != "" {
		parts = append(parts, "rewrite: "+q.Buffer)
	}
	for _, o := range m.options {
		parts = append(parts, fmt.Sprintf("[%s]%s", string([]rune(o.Label)[:1]), string([]rune(o.Label)[1:])))
	}
	if len(parts) == 0 {
		parts = append(parts, "shift+arrows select · lowercase letters describe a rewrite · UPPERCASE commits · tab accepts ghost · ctrl+y accepts fix")
	}
	return m.styles.footer.Render(strings.Join(parts, "  "))
}

func (m model) renderTooltip() string {
	if m.tooltip == nil {
		return ""
	}
	var body string
	switch p := m.tooltip.payload.(type) {
	case string:
		body = p
	case assist.TextSuggestion:
		body = fmt.Sprintf("%s → %s (%s)", p.Original, p.Replacement, p.Description)
	default:
		return ""
	}
	body = grapheme.Truncate(body, max(m.width-8, 8))
	return m.styles.tooltip.Render(body + "\n" + m.styles.footer.Render("ctrl+y apply · esc dismiss"))
}

// swappableClient lets the demo start offline and swap in the real endpoint
// once a key arrives, without rebuilding the session.
type swappableClient struct {
	mu sync.Mutex
	c  ai.Client
}

func (s *swappableClient) set(c ai.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = c
}

func (s *swappableClient) current() ai.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c
}

func (s *swappableClient) Complete(ctx context.Context, system, user string) (string, error) {
	return s.current().Complete(ctx, system, user)
}

func (s *swappableClient) CompleteJSON(ctx context.Context, system, user string, out any) error {
	return s.current().CompleteJSON(ctx, system, user, out)
}

// scriptedClient is the offline fallback: deterministic canned answers so the
// demo works without a credential.
type scriptedClient struct{}

func (scriptedClient) Complete(_ context.Context, system, user string) (string, error) {
	switch system {
	case ai.SystemInlineCompletion:
		return "and the draft carries on from here", nil
	case ai.SystemRewrite:
		if i := strings.Index(user, "Text:\n"); i >= 0 {
			return strings.ToUpper(user[i+len("Text:\n"):]), nil
		}
		return "", nil
	}
	return "", nil
}

func (scriptedClient) CompleteJSON(_ context.Context, system, _ string, out any) error {
	var body string
	switch system {
	case ai.SystemRewriteOptions:
		body = `{"options":[
			{"key":"concise","label":"Condense","description":"Tighten the passage"},
			{"key":"formal","label":"Formalize","description":"Use a formal register"}
		]}`
	case ai.SystemTextSuggestions:
		body = `{"suggestions":[
			{"text":"Teh","type":"spelling","replacement":"The","description":"transposed letters"}
		]}`
	default:
		body = `{}`
	}
	return json.Unmarshal([]byte(body), out)
}

func main() {
	cfg, err := loadConfig("glimmer.toml")
	if err != nil {
		fmt.Fprintln(os.Stderr, "glimmer-demo:", err)
		os.Exit(1)
	}
	log, closeLog := newLogger(cfg)
	defer func() { _ = closeLog() }()

	doc := document.New(sampleText)
	doc.SetSelection(document.Caret(doc.Len()))

	// The session starts against the scripted client; attach swaps in the
	// real endpoint once a key arrives from env or the entry form.
	client := &swappableClient{c: scriptedClient{}}
	var pres teaPresenter
	gw := assist.NewGateway(client, assist.GatewayOptions{CacheTTL: cfg.cacheTTL(), Logger: log})
	sess := assist.NewSession(doc, gw, &pres, cfg.sessionOptions(log))
	defer sess.Close()

	attach := func(apiKey string) error {
		if apiKey == "" {
			return nil // keep the scripted client
		}
		c, err := ai.NewOpenAI(apiKey, ai.OpenAIOptions{Model: cfg.Model, BaseURL: cfg.BaseURL})
		if err != nil {
			return err
		}
		client.set(c)
		return nil
	}

	needKey := true
	if envKey := os.Getenv("OPENAI_API_KEY"); envKey != "" {
		if err := attach(envKey); err == nil {
			needKey = false
		}
	}

	p := tea.NewProgram(newModel(doc, sess, needKey, attach), tea.WithAltScreen())
	pres.send = func(msg tea.Msg) { p.Send(msg) }

	if _, err := p.Run(); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
