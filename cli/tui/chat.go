package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/peroskyX/inbox-poc/adapter"
	"github.com/peroskyX/inbox-poc/approval"
	"github.com/peroskyX/inbox-poc/audit"
	"github.com/peroskyX/inbox-poc/backend"
	"github.com/peroskyX/inbox-poc/classify"
	"github.com/peroskyX/inbox-poc/log"
	"github.com/peroskyX/inbox-poc/stream"
	"github.com/peroskyX/inbox-poc/types"
)

// DefaultPollInterval is the default refresh cadence for thread data.
const DefaultPollInterval = 2 * time.Second

// requestTimeout bounds each backend call issued from the model.
const requestTimeout = 10 * time.Second

// Session carries everything the chat model needs. Trail and Notifier
// are optional; nil disables them.
type Session struct {
	Client       backend.Client
	ThreadID     string
	ClientID     string
	AgentName    string
	PageSize     int
	PollInterval time.Duration
	Logger       *log.Logger
	Trail        *audit.Trail
	Notifier     adapter.Adapter
}

// card is the decision UI state for one tool call awaiting approval.
type card struct {
	coord     *approval.Coordinator
	inv       types.Invocation
	matches   map[int][]types.CandidateMatch
	searchErr map[int]error
	subOpPos  int // cursor among sub-operations
	matchPos  int // cursor among the current sub-operation's matches
}

// Messages delivered back into the model from async commands.
type (
	pageMsg struct {
		resp *backend.ListResponse
		err  error
	}
	searchMsg struct {
		toolCallID string
		res        approval.SubOpResult
	}
	sendResultMsg struct {
		prompt string
		err    error
	}
	decisionMsg struct {
		toolCallID string
		output     types.DecisionOutput
		err        error
	}
	publishedMsg struct {
		err error
	}
	tickMsg time.Time
)

// ChatModel is the Bubble Tea model for an interactive thread session.
type ChatModel struct {
	session Session
	logger  *log.Logger

	recon      *stream.Reconciler
	optimistic []*types.Message
	inFlight   *types.Message // optimistic message of the send in flight

	cards      map[string]*card
	activeCall string
	thinking   map[string]string // message ID -> placeholder phrase

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	width    int
	height   int
	ready    bool
	loading  bool
	status   string
	quitting bool
}

// NewChatModel creates the chat model for one thread session.
func NewChatModel(session Session) ChatModel {
	if session.PageSize <= 0 {
		session.PageSize = types.DefaultPageSize
	}
	if session.PollInterval <= 0 {
		session.PollInterval = DefaultPollInterval
	}
	logger := session.Logger
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithThread(session.ThreadID)

	input := textinput.New()
	input.Placeholder = "Ask about your schedule..."
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return ChatModel{
		session:  session,
		logger:   logger,
		recon:    stream.NewReconciler(logger),
		cards:    make(map[string]*card),
		thinking: make(map[string]string),
		input:    input,
		spin:     spin,
		loading:  true,
	}
}

// Init implements tea.Model.
func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchCmd(), m.tickCmd())
}

// Update implements tea.Model.
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())

	case pageMsg:
		return m.handlePage(msg)

	case searchMsg:
		return m.handleSearch(msg)

	case sendResultMsg:
		return m.handleSendResult(msg)

	case decisionMsg:
		return m.handleDecision(msg)

	case publishedMsg:
		if msg.err != nil {
			m.logger.Warn("decision notification failed", map[string]any{"error": msg.err.Error()})
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ChatModel) handleResize(msg tea.WindowSizeMsg) ChatModel {
	m.width = msg.Width
	m.height = msg.Height
	// Header, status, input, and help lines surround the viewport.
	vpHeight := msg.Height - 6
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.Width = msg.Width - 4
	m.refreshViewport()
	return m
}

func (m ChatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if active := m.activeCard(); active != nil {
		return m.handleCardKey(msg, active)
	}

	switch msg.Type {
	case tea.KeyEnter:
		return m.submitPrompt()
	case tea.KeyUp:
		m.viewport.LineUp(1)
		return m, nil
	case tea.KeyDown:
		m.viewport.LineDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleCardKey processes keys while a decision card holds the focus.
// Free-text input is deferred until the decision settles.
func (m ChatModel) handleCardKey(msg tea.KeyMsg, c *card) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		if len(c.inv.SubOps) > 0 {
			c.subOpPos = (c.subOpPos + 1) % len(c.inv.SubOps)
			c.matchPos = 0
		}
	case "shift+tab":
		if len(c.inv.SubOps) > 0 {
			c.subOpPos = (c.subOpPos + len(c.inv.SubOps) - 1) % len(c.inv.SubOps)
			c.matchPos = 0
		}
	case "j", "down":
		if n := len(m.currentMatches(c)); n > 0 {
			c.matchPos = (c.matchPos + 1) % n
		}
	case "k", "up":
		if n := len(m.currentMatches(c)); n > 0 {
			c.matchPos = (c.matchPos + n - 1) % n
		}
	case " ", "space":
		m.toggleSelection(c)
	case "a":
		if c.coord.CanApprove() {
			return m, m.decideCmd(c, types.DecisionApproved)
		}
		m.status = "Select a match for at least one operation before approving"
	case "d":
		return m, m.decideCmd(c, types.DecisionDenied)
	}
	m.refreshViewport()
	return m, nil
}

// currentMatches returns the candidates under the card's sub-op cursor.
func (m ChatModel) currentMatches(c *card) []types.CandidateMatch {
	if c.subOpPos >= len(c.inv.SubOps) {
		return nil
	}
	return c.matches[c.inv.SubOps[c.subOpPos].Index]
}

// toggleSelection selects the highlighted match for the current sub-op,
// or clears it when it is already selected.
func (m *ChatModel) toggleSelection(c *card) {
	matches := m.currentMatches(c)
	if c.matchPos >= len(matches) {
		return
	}
	idx := c.inv.SubOps[c.subOpPos].Index
	pick := matches[c.matchPos]
	if cur, ok := c.coord.Selected(idx); ok && cur.ID == pick.ID {
		if err := c.coord.Deselect(idx); err != nil {
			m.status = err.Error()
		}
		return
	}
	if err := c.coord.Select(idx, pick); err != nil {
		m.status = err.Error()
	}
}

// submitPrompt sends the input box content as a new user message, with
// an optimistic echo in the transcript until the backend confirms.
func (m ChatModel) submitPrompt() (tea.Model, tea.Cmd) {
	prompt := m.input.Value()
	if prompt == "" {
		return m, nil
	}
	if m.inFlight != nil {
		m.status = "Still sending the previous message"
		return m, nil
	}

	opt := stream.NewOptimistic(m.session.ThreadID, prompt, m.lastMergedOrder())
	m.optimistic = append(m.optimistic, opt)
	m.inFlight = opt
	m.input.SetValue("")
	m.status = ""
	m.refreshViewport()
	return m, tea.Batch(m.sendCmd(prompt), m.auditCmd(audit.EventPromptSent, map[string]any{
		"prompt_len": len(prompt),
	}))
}

// lastMergedOrder returns the highest order across authoritative and
// optimistic messages, so stacked optimistic sends keep their order.
func (m ChatModel) lastMergedOrder() int64 {
	last := m.recon.LastOrder()
	for _, opt := range m.optimistic {
		if opt.Order > last {
			last = opt.Order
		}
	}
	return last
}

func (m ChatModel) handlePage(msg pageMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = "Refresh failed: " + msg.err.Error()
		m.logger.Warn("thread refresh failed", map[string]any{"error": msg.err.Error()})
		return m, nil
	}
	m.loading = false
	m.status = ""

	fresh := len(msg.resp.Page.Messages) > 0 || len(msg.resp.Deltas) > 0
	m.recon.ApplyPage(msg.resp.Page)
	for i := range msg.resp.Deltas {
		m.recon.ApplyDelta(&msg.resp.Deltas[i])
	}

	var cmds []tea.Cmd
	if fresh {
		cmds = append(cmds, m.auditCmd(audit.EventMessageReceived, map[string]any{
			"messages": len(msg.resp.Page.Messages),
			"deltas":   len(msg.resp.Deltas),
		}))
	}

	// Any new authoritative data supersedes the optimistic set.
	if fresh && len(m.optimistic) > 0 {
		res := stream.Merge(m.recon.Messages(), m.optimistic)
		if res.Evict {
			m.optimistic = nil
			if m.inFlight != nil && !m.confirmed(m.inFlight) {
				// The send is still in flight; keep echoing it.
				m.optimistic = []*types.Message{m.inFlight}
			}
		}
	}

	cmds = append(cmds, m.syncCards()...)

	// Keep paging until the terminal page is reached.
	if !m.recon.Done() {
		cmds = append(cmds, m.fetchCmd())
	}

	m.refreshViewport()
	return m, tea.Batch(cmds...)
}

// confirmed reports whether an optimistic message's text has appeared in
// the authoritative transcript.
func (m ChatModel) confirmed(opt *types.Message) bool {
	text := opt.Text()
	for _, msg := range m.recon.Messages() {
		if msg.Role == types.RoleUser && msg.Text() == text {
			return true
		}
	}
	return false
}

// syncCards reconciles decision cards against the transcript: new
// pending tool calls get a card plus search commands, settled ones are
// torn down. Returns the search commands to run.
func (m *ChatModel) syncCards() []tea.Cmd {
	pending := make(map[string]types.ToolCallPart)
	var order []string
	for _, msg := range m.recon.Messages() {
		for _, tc := range classify.PendingToolCalls(msg) {
			if _, seen := pending[tc.ToolCallID]; !seen {
				pending[tc.ToolCallID] = tc
				order = append(order, tc.ToolCallID)
			}
		}
	}

	var cmds []tea.Cmd
	for id, tc := range pending {
		if _, ok := m.cards[id]; ok {
			continue
		}
		inv := types.ParseInvocation(tc)
		c := &card{
			coord:     approval.NewCoordinator(inv, m.session.ThreadID, m.session.Client, m.logger),
			inv:       inv,
			matches:   make(map[int][]types.CandidateMatch),
			searchErr: make(map[int]error),
		}
		m.cards[id] = c
		for _, op := range inv.Queries() {
			cmds = append(cmds, m.searchCmd(id, op))
		}
	}
	for id := range m.cards {
		if _, still := pending[id]; !still {
			delete(m.cards, id)
		}
	}

	m.activeCall = ""
	if len(order) > 0 {
		m.activeCall = order[0]
	}
	m.syncInputFocus()
	return cmds
}

// syncInputFocus defers the text input while a decision is pending.
func (m *ChatModel) syncInputFocus() {
	if m.activeCard() != nil {
		m.input.Blur()
		return
	}
	if !m.input.Focused() {
		m.input.Focus()
	}
}

func (m ChatModel) activeCard() *card {
	if m.activeCall == "" {
		return nil
	}
	return m.cards[m.activeCall]
}

func (m ChatModel) handleSearch(msg searchMsg) (tea.Model, tea.Cmd) {
	c, ok := m.cards[msg.toolCallID]
	if !ok {
		return m, nil
	}
	if msg.res.Err != nil {
		c.searchErr[msg.res.Index] = msg.res.Err
	} else {
		c.matches[msg.res.Index] = msg.res.Matches
	}
	m.refreshViewport()
	return m, m.auditCmd(audit.EventSearchPerformed, map[string]any{
		"tool_call_id": msg.toolCallID,
		"query":        msg.res.Query,
		"matches":      len(msg.res.Matches),
	})
}

func (m ChatModel) handleSendResult(msg sendResultMsg) (tea.Model, tea.Cmd) {
	sent := m.inFlight
	m.inFlight = nil
	if msg.err != nil {
		// Drop the optimistic echo and restore the draft for editing.
		if sent != nil {
			kept := m.optimistic[:0]
			for _, opt := range m.optimistic {
				if opt.ID != sent.ID {
					kept = append(kept, opt)
				}
			}
			m.optimistic = kept
		}
		m.input.SetValue(msg.prompt)
		m.status = "Send failed: " + msg.err.Error()
		m.refreshViewport()
		return m, nil
	}
	return m, m.fetchCmd()
}

func (m ChatModel) handleDecision(msg decisionMsg) (tea.Model, tea.Cmd) {
	c, ok := m.cards[msg.toolCallID]
	if msg.err != nil {
		// The card stays; the user adjusts and retries.
		m.status = "Decision failed: " + msg.err.Error()
		m.refreshViewport()
		return m, nil
	}
	m.status = ""

	cmds := []tea.Cmd{
		m.auditCmd(audit.EventDecisionSettled, map[string]any{
			"tool_call_id": msg.toolCallID,
			"output":       string(msg.output),
		}),
		m.fetchCmd(),
	}
	if ok && m.session.Notifier != nil {
		cmds = append(cmds, m.publishCmd(c, msg.output))
	}
	m.refreshViewport()
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m ChatModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Connecting..."
	}
	return m.render()
}

func (m *ChatModel) refreshViewport() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// merged returns the transcript with optimistic messages folded in.
func (m ChatModel) merged() []*types.Message {
	return stream.Merge(m.recon.Messages(), m.optimistic).Messages
}

// Commands.

func (m ChatModel) fetchCmd() tea.Cmd {
	client := m.session.Client
	req := backend.ListRequest{
		ThreadID: m.session.ThreadID,
		Page:     m.recon.NextPageRequest(m.session.PageSize),
		Streams: &types.StreamArgs{
			Kind:    types.StreamDeltas,
			Cursors: m.recon.StreamCursors(),
		},
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := client.ListThreadMessages(ctx, req)
		return pageMsg{resp: resp, err: err}
	}
}

func (m ChatModel) sendCmd(prompt string) tea.Cmd {
	client := m.session.Client
	threadID := m.session.ThreadID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return sendResultMsg{prompt: prompt, err: client.SendMessage(ctx, threadID, prompt)}
	}
}

func (m ChatModel) searchCmd(toolCallID string, op types.SubOperation) tea.Cmd {
	client := m.session.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return searchMsg{
			toolCallID: toolCallID,
			res:        approval.ResolveSubOp(ctx, client, op),
		}
	}
}

func (m ChatModel) decideCmd(c *card, output types.DecisionOutput) tea.Cmd {
	coord := c.coord
	id := c.inv.ToolCallID
	auditCmd := m.auditCmd(audit.EventDecisionSubmitted, map[string]any{
		"tool_call_id": id,
		"tool":         c.inv.ToolName,
		"output":       string(output),
	})
	decide := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var err error
		if output == types.DecisionApproved {
			err = coord.Approve(ctx)
		} else {
			err = coord.Deny(ctx)
		}
		return decisionMsg{toolCallID: id, output: output, err: err}
	}
	return tea.Batch(auditCmd, decide)
}

func (m ChatModel) publishCmd(c *card, output types.DecisionOutput) tea.Cmd {
	notifier := m.session.Notifier
	event := &adapter.DecisionSettledEvent{
		ContractVersion: types.WireContractVersion,
		EventType:       "decision_settled",
		ClientID:        m.session.ClientID,
		ThreadID:        m.session.ThreadID,
		ToolCallID:      c.inv.ToolCallID,
		Tool:            c.inv.ToolName,
		Output:          string(output),
		SelectionCount:  c.coord.SelectionCount(),
		Batch:           c.inv.Batch(),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return publishedMsg{err: notifier.Publish(ctx, event)}
	}
}

// auditCmd records one trail event off the update loop. A nil trail
// yields a no-op command.
func (m ChatModel) auditCmd(t audit.EventType, fields map[string]any) tea.Cmd {
	trail := m.session.Trail
	if trail == nil {
		return nil
	}
	threadID := m.session.ThreadID
	logger := m.logger
	return func() tea.Msg {
		if err := trail.Record(audit.NewEvent(t, threadID, fields)); err != nil {
			logger.Warn("audit record failed", map[string]any{
				"event_type": string(t),
				"error":      err.Error(),
			})
		}
		return nil
	}
}

func (m ChatModel) tickCmd() tea.Cmd {
	return tea.Tick(m.session.PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
