// Package chat implements the per-course chat session: sidebar selection,
// transcripts, enrollment gating and the placeholder-then-replace flow of a
// question.
package chat

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/ai-tutor/internal/api"
	"github.com/rcliao/ai-tutor/internal/catalog"
	"github.com/rcliao/ai-tutor/internal/model"
	"github.com/rcliao/ai-tutor/internal/render"
)

var (
	// ErrNoActiveCourse is returned by Send when no course is selected.
	ErrNoActiveCourse = errors.New("no active course")
	// ErrRequestPending is returned by Send while the active course still
	// waits for an answer.
	ErrRequestPending = errors.New("a question is already pending for this course")
	// ErrUnknownCourse is returned for codes missing from the catalog.
	ErrUnknownCourse = errors.New("course not in catalog")
)

// Backend is the subset of the tutor API the session needs.
type Backend interface {
	UserCourses(ctx context.Context, sess *api.Session) ([]model.Course, error)
	History(ctx context.Context, sess *api.Session, code string) ([]model.QA, error)
	DeleteHistory(ctx context.Context, sess *api.Session, code string) error
	Ask(ctx context.Context, sess *api.Session, code, question string) (*model.Answer, error)
}

// Catalog resolves course codes.
type Catalog interface {
	Lookup(code string) (model.Course, bool)
	Refresh(ctx context.Context) (catalog.Diff, error)
}

// Options configures a Controller.
type Options struct {
	Backend  Backend
	Catalog  Catalog
	Session  *api.Session
	Renderer render.Renderer
	Logger   *zap.Logger

	AskTimeout         time.Duration
	NoticeTTL          time.Duration
	HistoryConcurrency int

	// OnScroll is called after the user's message is appended.
	OnScroll func(code string)
	Now      func() time.Time
}

// Notice is a transient banner.
type Notice struct {
	Text      string
	ExpiresAt time.Time
}

// pendingSlot is the one in-flight question of a course.
type pendingSlot struct {
	id    string
	index int
}

// Controller holds the chat session state. It is safe for concurrent use;
// the lock is never held across network calls.
type Controller struct {
	backend  Backend
	catalog  Catalog
	session  *api.Session
	renderer render.Renderer
	log      *zap.Logger

	askTimeout  time.Duration
	noticeTTL   time.Duration
	concurrency int
	onScroll    func(string)
	now         func() time.Time

	mu             sync.Mutex
	active         string
	sidebar        []model.Course
	transcripts    map[string][]model.Message
	input          string
	pending        map[string]pendingSlot
	notice         *Notice
	enrolled       []string
	pendingDeletes map[string]bool
}

// New creates a Controller.
func New(opts Options) *Controller {
	c := &Controller{
		backend:        opts.Backend,
		catalog:        opts.Catalog,
		session:        opts.Session,
		renderer:       opts.Renderer,
		log:            opts.Logger,
		askTimeout:     opts.AskTimeout,
		noticeTTL:      opts.NoticeTTL,
		concurrency:    opts.HistoryConcurrency,
		onScroll:       opts.OnScroll,
		now:            opts.Now,
		transcripts:    map[string][]model.Message{},
		pending:        map[string]pendingSlot{},
		pendingDeletes: map[string]bool{},
	}
	if c.session == nil {
		c.session = &api.Session{}
	}
	if c.renderer == nil {
		c.renderer = render.Plain{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.askTimeout <= 0 {
		c.askTimeout = 60 * time.Second
	}
	if c.noticeTTL <= 0 {
		c.noticeTTL = 5 * time.Second
	}
	if c.concurrency <= 0 {
		c.concurrency = 4
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Load refreshes the catalog and, for a signed-in user, pins every enrolled
// course that already has history.
func (c *Controller) Load(ctx context.Context) error {
	if _, err := c.catalog.Refresh(ctx); err != nil {
		c.log.Error("failed to fetch courses", zap.Error(err))
		return err
	}
	if !c.session.Authorized() {
		return nil
	}

	enrolled, err := c.refreshEnrollment(ctx)
	if err != nil {
		return nil
	}

	hasHistory := make([]bool, len(enrolled))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, code := range enrolled {
		g.Go(func() error {
			qa, err := c.backend.History(gctx, c.session, code)
			if err != nil {
				c.log.Warn("failed to get history", zap.String("course", code), zap.Error(err))
				return nil
			}
			hasHistory[i] = len(qa) > 0
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, code := range enrolled {
		if !hasHistory[i] {
			continue
		}
		if course, ok := c.catalog.Lookup(code); ok {
			c.pinLocked(course)
		}
	}
	return nil
}

// refreshEnrollment re-fetches the enrolled course codes. On failure the
// last known set is returned along with the error.
func (c *Controller) refreshEnrollment(ctx context.Context) ([]string, error) {
	courses, err := c.backend.UserCourses(ctx, c.session)
	if err != nil {
		c.log.Warn("failed to update enrollment status", zap.Error(err))
		c.mu.Lock()
		defer c.mu.Unlock()
		return slices.Clone(c.enrolled), err
	}
	codes := make([]string, 0, len(courses))
	for _, course := range courses {
		codes = append(codes, course.Code)
	}
	c.mu.Lock()
	c.enrolled = codes
	c.mu.Unlock()
	return codes, nil
}

func (c *Controller) pinLocked(course model.Course) {
	for _, s := range c.sidebar {
		if s.Code == course.Code {
			return
		}
	}
	c.sidebar = append(c.sidebar, course)
}

func (c *Controller) scroll(code string) {
	if c.onScroll != nil {
		c.onScroll(code)
	}
}

// AddCourse pins a course to the sidebar and makes it active. A fresh
// transcript starts with a greeting followed by the stored history when the
// user is enrolled.
func (c *Controller) AddCourse(ctx context.Context, code string) error {
	course, ok := c.catalog.Lookup(code)
	if !ok {
		return errors.Wrap(ErrUnknownCourse, code)
	}

	c.mu.Lock()
	c.pinLocked(course)
	c.active = code
	c.notice = nil
	_, exists := c.transcripts[code]
	if !exists {
		c.transcripts[code] = []model.Message{botMessage(Greeting(code))}
	}
	c.mu.Unlock()

	enrolled, _ := c.refreshEnrollment(ctx)
	if !exists && slices.Contains(enrolled, code) {
		qa, err := c.backend.History(ctx, c.session, code)
		if err != nil {
			c.log.Error("failed to fetch message history", zap.String("course", code), zap.Error(err))
		} else if len(qa) > 0 {
			msgs := historyMessages(c.renderer, qa)
			c.mu.Lock()
			if _, still := c.transcripts[code]; still {
				c.transcripts[code] = append(c.transcripts[code], msgs...)
			}
			c.mu.Unlock()
		}
	}
	c.scroll(code)
	return nil
}

// RemoveCourse deletes the course's server-side history and unpins it. The
// local removal happens even when the delete fails; the failed delete is
// kept for RetryDeletes and reported as false.
func (c *Controller) RemoveCourse(ctx context.Context, code string) bool {
	deleted := true
	if err := c.backend.DeleteHistory(ctx, c.session, code); err != nil {
		c.log.Error("failed to delete course history", zap.String("course", code), zap.Error(err))
		deleted = false
	}

	c.mu.Lock()
	c.sidebar = slices.DeleteFunc(c.sidebar, func(s model.Course) bool { return s.Code == code })
	if c.active == code {
		c.active = ""
	}
	delete(c.transcripts, code)
	delete(c.pending, code)
	if deleted {
		delete(c.pendingDeletes, code)
	} else {
		c.pendingDeletes[code] = true
	}
	c.mu.Unlock()

	if _, err := c.catalog.Refresh(ctx); err != nil {
		c.log.Warn("failed to refresh courses", zap.Error(err))
	}
	return deleted
}

// RetryDeletes re-issues history deletes that failed earlier and returns
// the codes that still fail.
func (c *Controller) RetryDeletes(ctx context.Context) []string {
	c.mu.Lock()
	codes := make([]string, 0, len(c.pendingDeletes))
	for code := range c.pendingDeletes {
		codes = append(codes, code)
	}
	c.mu.Unlock()
	slices.Sort(codes)

	var failed []string
	for _, code := range codes {
		if err := c.backend.DeleteHistory(ctx, c.session, code); err != nil {
			c.log.Error("retry delete history failed", zap.String("course", code), zap.Error(err))
			failed = append(failed, code)
			continue
		}
		c.mu.Lock()
		delete(c.pendingDeletes, code)
		c.mu.Unlock()
	}
	return failed
}

// SetInput replaces the pending input text.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

// Input returns the pending input text.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Send asks the active course's tutor the current input. The user's message
// and a placeholder are appended immediately; the placeholder is then
// replaced exactly once by the answer or by the message for the first
// failing gate or error.
func (c *Controller) Send(ctx context.Context) error {
	c.mu.Lock()
	text := c.input
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return nil
	}
	code := c.active
	if code == "" {
		c.notice = &Notice{Text: NoticeNoCourse, ExpiresAt: c.now().Add(c.noticeTTL)}
		c.mu.Unlock()
		return ErrNoActiveCourse
	}
	if _, busy := c.pending[code]; busy {
		c.mu.Unlock()
		return ErrRequestPending
	}
	id := ulid.Make().String()
	c.pending[code] = pendingSlot{id: id}
	c.transcripts[code] = append(c.transcripts[code], userMessage(text))
	c.mu.Unlock()

	c.scroll(code)

	c.mu.Lock()
	if slot, ok := c.pending[code]; ok && slot.id == id {
		c.transcripts[code] = append(c.transcripts[code], botMessage(Placeholder))
		c.pending[code] = pendingSlot{id: id, index: len(c.transcripts[code]) - 1}
	}
	c.input = ""
	c.mu.Unlock()

	c.settle(code, id, c.reply(ctx, code, text))
	return nil
}

// reply runs the gates and the ask call and returns the bot message that
// replaces the placeholder.
func (c *Controller) reply(ctx context.Context, code, question string) model.Message {
	if !c.session.Authorized() {
		return botMessage(replyText(api.KindUnauthenticated))
	}

	enrolled, _ := c.refreshEnrollment(ctx)
	if !slices.Contains(enrolled, code) {
		return botMessage(replyText(api.KindNotEnrolled))
	}

	if course, ok := c.catalog.Lookup(code); !ok || !course.HasChatbot {
		return botMessage(replyText(api.KindNoChatbot))
	}

	askCtx, cancel := context.WithTimeout(ctx, c.askTimeout)
	defer cancel()
	ans, err := c.backend.Ask(askCtx, c.session, code, question)
	if err == nil && (ans == nil || strings.TrimSpace(ans.Answer) == "") {
		err = &api.Error{Op: "ask", Kind: api.KindMalformed, Message: "Invalid response format"}
	}
	if err != nil {
		kind := api.KindOf(err)
		switch kind {
		case api.KindTransport, api.KindMalformed, api.KindTimeout:
			c.log.Error("error asking question", zap.String("course", code), zap.Stringer("kind", kind), zap.Error(err))
		}
		return botMessage(replyText(kind))
	}

	return botMessage(formatAnswer(c.renderer, ans.Answer, ans.Sources, true))
}

func replyText(kind api.Kind) string {
	switch kind {
	case api.KindUnauthenticated:
		return MsgNotAuthenticated
	case api.KindRateLimited:
		return MsgRateLimited
	case api.KindNotEnrolled:
		return MsgNotEnrolled
	case api.KindNoChatbot:
		return MsgNoChatbot
	case api.KindTimeout:
		return MsgTimeout
	case api.KindTransport, api.KindMalformed:
		return MsgGenericError
	default:
		return MsgGenericError
	}
}

// settle replaces the placeholder of request id. Results for a slot that was
// cleared or reused are dropped.
func (c *Controller) settle(code, id string, msg model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.pending[code]
	if !ok || slot.id != id {
		c.log.Debug("dropping stale reply", zap.String("course", code), zap.String("request", id))
		return
	}
	delete(c.pending, code)

	msgs := c.transcripts[code]
	if slot.index < 0 || slot.index >= len(msgs) || msgs[slot.index].Text != Placeholder {
		c.transcripts[code] = append(msgs, msg)
		return
	}
	msgs[slot.index] = msg
}

// Pending reports whether a question is in flight for the course.
func (c *Controller) Pending(code string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[code]
	return ok
}

// ToggleSources expands or collapses the sources block of a bot message.
func (c *Controller) ToggleSources(code string, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := c.transcripts[code]
	if index < 0 || index >= len(msgs) {
		return errors.Errorf("no message %d in %s", index, code)
	}
	if !HasSources(msgs[index]) {
		return errors.Errorf("message %d has no sources", index)
	}
	msgs[index].Expanded = !msgs[index].Expanded
	return nil
}

// Notice returns the current banner, if it has not expired.
func (c *Controller) Notice() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.notice == nil {
		return "", false
	}
	if !c.now().Before(c.notice.ExpiresAt) {
		c.notice = nil
		return "", false
	}
	return c.notice.Text, true
}

// Active returns the active course code.
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Sidebar returns the pinned courses in order.
func (c *Controller) Sidebar() []model.Course {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.sidebar)
}

// Transcript returns a copy of a course's messages.
func (c *Controller) Transcript(code string) []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.transcripts[code])
}

// PendingDeletes lists courses whose history delete failed.
func (c *Controller) PendingDeletes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.pendingDeletes))
	for code := range c.pendingDeletes {
		out = append(out, code)
	}
	slices.Sort(out)
	return out
}

// State snapshots the session for persistence. In-flight placeholders are
// saved as a generic error since their answers will never arrive.
func (c *Controller) State() model.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := model.SessionState{
		Active:      c.active,
		Sidebar:     make([]string, 0, len(c.sidebar)),
		Transcripts: make(map[string][]model.Message, len(c.transcripts)),
		SavedAt:     c.now().UTC(),
	}
	for _, s := range c.sidebar {
		st.Sidebar = append(st.Sidebar, s.Code)
	}
	for code, msgs := range c.transcripts {
		out := slices.Clone(msgs)
		if slot, ok := c.pending[code]; ok && slot.index < len(out) && out[slot.index].Text == Placeholder {
			out[slot.index] = botMessage(MsgGenericError)
		}
		st.Transcripts[code] = out
	}
	for code := range c.pendingDeletes {
		st.PendingDeletes = append(st.PendingDeletes, code)
	}
	slices.Sort(st.PendingDeletes)
	return st
}

// Restore replaces the session with a saved snapshot. Sidebar codes missing
// from the catalog are unpinned. Every saved transcript is kept, pinned or
// not, so the next State still carries it.
func (c *Controller) Restore(st model.SessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sidebar = nil
	c.transcripts = make(map[string][]model.Message, len(st.Transcripts))
	c.pending = map[string]pendingSlot{}
	c.pendingDeletes = map[string]bool{}
	c.active = ""

	for code, msgs := range st.Transcripts {
		c.transcripts[code] = slices.Clone(msgs)
	}
	for _, code := range st.Sidebar {
		course, ok := c.catalog.Lookup(code)
		if !ok {
			c.log.Warn("unpinning unknown course from saved session", zap.String("course", code))
			continue
		}
		c.pinLocked(course)
	}
	for _, s := range c.sidebar {
		if s.Code == st.Active {
			c.active = st.Active
		}
	}
	for _, code := range st.PendingDeletes {
		c.pendingDeletes[code] = true
	}
}
