package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/ai-tutor/internal/api"
	"github.com/rcliao/ai-tutor/internal/catalog"
	"github.com/rcliao/ai-tutor/internal/model"
	"github.com/rcliao/ai-tutor/internal/render"
)

type fakeCatalog struct {
	courses map[string]model.Course
	refresh int
}

func (f *fakeCatalog) Lookup(code string) (model.Course, bool) {
	c, ok := f.courses[code]
	return c, ok
}

func (f *fakeCatalog) Refresh(context.Context) (catalog.Diff, error) {
	f.refresh++
	return catalog.Diff{}, nil
}

type fakeBackend struct {
	mu        sync.Mutex
	enrolled  []model.Course
	enrollErr error
	history   map[string][]model.QA
	deleteErr error
	deletes   []string
	asks      []string
	answer    *model.Answer
	askErr    error
	askGate   chan struct{}
	askCalled chan struct{}
}

func (f *fakeBackend) UserCourses(context.Context, *api.Session) ([]model.Course, error) {
	if f.enrollErr != nil {
		return nil, f.enrollErr
	}
	return f.enrolled, nil
}

func (f *fakeBackend) History(_ context.Context, _ *api.Session, code string) ([]model.QA, error) {
	return f.history[code], nil
}

func (f *fakeBackend) DeleteHistory(_ context.Context, _ *api.Session, code string) error {
	f.mu.Lock()
	f.deletes = append(f.deletes, code)
	f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeBackend) Ask(ctx context.Context, _ *api.Session, code, question string) (*model.Answer, error) {
	f.mu.Lock()
	f.asks = append(f.asks, code+":"+question)
	f.mu.Unlock()
	if f.askCalled != nil {
		f.askCalled <- struct{}{}
	}
	if f.askGate != nil {
		select {
		case <-f.askGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.answer, f.askErr
}

var (
	cs101 = model.Course{Code: "CS101", Name: "Intro", HasChatbot: true}
	cs202 = model.Course{Code: "CS202", Name: "Systems", HasChatbot: false}
)

func newTestController(t *testing.T, b *fakeBackend, token string) (*Controller, *fakeCatalog) {
	t.Helper()
	cat := &fakeCatalog{courses: map[string]model.Course{"CS101": cs101, "CS202": cs202}}
	sess := &api.Session{Token: token}
	c := New(Options{
		Backend:  b,
		Catalog:  cat,
		Session:  sess,
		Renderer: render.Plain{},
	})
	return c, cat
}

func strptr(s string) *string { return &s }

func last(msgs []model.Message) model.Message { return msgs[len(msgs)-1] }

func TestSendWithoutTokenSkipsAsk(t *testing.T) {
	b := &fakeBackend{enrolled: []model.Course{cs101}}
	c, _ := newTestController(t, b, "")
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))

	c.SetInput("what is a pointer?")
	require.NoError(t, c.Send(context.Background()))

	msgs := c.Transcript("CS101")
	require.Len(t, msgs, 3)
	assert.Equal(t, model.Message{Text: "what is a pointer?", Sender: model.SenderUser}, msgs[1])
	assert.Equal(t, model.Message{Text: MsgNotAuthenticated, Sender: model.SenderBot}, msgs[2])
	assert.Empty(t, b.asks)
	assert.False(t, c.Pending("CS101"))
}

func TestSendReplacesPlaceholder(t *testing.T) {
	b := &fakeBackend{
		enrolled: []model.Course{cs101},
		answer:   &model.Answer{Answer: "42", Sources: []model.Source{}},
	}
	c, _ := newTestController(t, b, "tok")
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))

	c.SetInput("meaning of life")
	require.NoError(t, c.Send(context.Background()))

	msgs := c.Transcript("CS101")
	assert.Equal(t, model.Message{Text: "42", Sender: model.SenderBot}, last(msgs))
	n := 0
	for _, m := range msgs {
		assert.NotEqual(t, Placeholder, m.Text)
		if m.Text == "42" {
			n++
		}
	}
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"CS101:meaning of life"}, b.asks)
	assert.Empty(t, c.Input())
}

func TestSendFiltersSources(t *testing.T) {
	b := &fakeBackend{
		enrolled: []model.Course{cs101},
		answer: &model.Answer{Answer: "see docs", Sources: []model.Source{
			{Source: nil, Score: 0.9, Chunk: "x"},
			{Source: strptr("doc.pdf"), Score: 0.75, Chunk: "y"},
		}},
	}
	c, _ := newTestController(t, b, "tok")
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))
	c.SetInput("where?")
	require.NoError(t, c.Send(context.Background()))

	msg := last(c.Transcript("CS101"))
	require.True(t, HasSources(msg))
	assert.False(t, msg.Expanded)

	body, sources := SplitSources(msg.Text)
	assert.Equal(t, "see docs", body)
	assert.Equal(t, "• doc.pdf (Similarity score: 0.75)\n  Text chunk: y\n", sources)
	assert.NotContains(t, sources, "0.90")

	require.NoError(t, c.ToggleSources("CS101", len(c.Transcript("CS101"))-1))
	assert.True(t, last(c.Transcript("CS101")).Expanded)
	assert.Error(t, c.ToggleSources("CS101", 0))
}

func TestSendGates(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		b      *fakeBackend
		expect string
	}{
		{
			name:   "not enrolled",
			code:   "CS101",
			b:      &fakeBackend{},
			expect: MsgNotEnrolled,
		},
		{
			name:   "no chatbot",
			code:   "CS202",
			b:      &fakeBackend{enrolled: []model.Course{cs202}},
			expect: MsgNoChatbot,
		},
		{
			name:   "rate limited",
			code:   "CS101",
			b:      &fakeBackend{enrolled: []model.Course{cs101}, askErr: &api.Error{Op: "ask", Kind: api.KindRateLimited}},
			expect: MsgRateLimited,
		},
		{
			name:   "unauthenticated",
			code:   "CS101",
			b:      &fakeBackend{enrolled: []model.Course{cs101}, askErr: &api.Error{Op: "ask", Kind: api.KindUnauthenticated}},
			expect: MsgNotAuthenticated,
		},
		{
			name:   "forbidden",
			code:   "CS101",
			b:      &fakeBackend{enrolled: []model.Course{cs101}, askErr: &api.Error{Op: "ask", Kind: api.KindNotEnrolled}},
			expect: MsgNotEnrolled,
		},
		{
			name:   "transport",
			code:   "CS101",
			b:      &fakeBackend{enrolled: []model.Course{cs101}, askErr: errors.New("connection refused")},
			expect: MsgGenericError,
		},
		{
			name:   "malformed",
			code:   "CS101",
			b:      &fakeBackend{enrolled: []model.Course{cs101}, answer: &model.Answer{}},
			expect: MsgGenericError,
		},
		{
			name:   "nil answer",
			code:   "CS101",
			b:      &fakeBackend{enrolled: []model.Course{cs101}},
			expect: MsgGenericError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestController(t, tt.b, "tok")
			require.NoError(t, c.AddCourse(context.Background(), tt.code))
			c.SetInput("hello")
			require.NoError(t, c.Send(context.Background()))

			msgs := c.Transcript(tt.code)
			assert.Equal(t, model.Message{Text: tt.expect, Sender: model.SenderBot}, last(msgs))
			assert.Equal(t, model.SenderUser, msgs[len(msgs)-2].Sender)
			assert.False(t, c.Pending(tt.code))
		})
	}
}

func TestSendTimeout(t *testing.T) {
	b := &fakeBackend{enrolled: []model.Course{cs101}, askGate: make(chan struct{})}
	cat := &fakeCatalog{courses: map[string]model.Course{"CS101": cs101}}
	c := New(Options{Backend: b, Catalog: cat, Session: &api.Session{Token: "tok"}, AskTimeout: 20 * time.Millisecond})
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))

	c.SetInput("slow")
	require.NoError(t, c.Send(context.Background()))
	assert.Equal(t, MsgTimeout, last(c.Transcript("CS101")).Text)
}

func TestSendEmptyInputIsNoop(t *testing.T) {
	b := &fakeBackend{enrolled: []model.Course{cs101}}
	c, _ := newTestController(t, b, "tok")
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))
	before := c.Transcript("CS101")

	c.SetInput("   ")
	require.NoError(t, c.Send(context.Background()))
	assert.Equal(t, before, c.Transcript("CS101"))
	_, ok := c.Notice()
	assert.False(t, ok)
}

func TestSendWithoutActiveCourseSetsNotice(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	b := &fakeBackend{}
	cat := &fakeCatalog{courses: map[string]model.Course{"CS101": cs101}}
	c := New(Options{Backend: b, Catalog: cat, Now: func() time.Time { return now }})

	c.SetInput("hi")
	err := c.Send(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveCourse)

	text, ok := c.Notice()
	require.True(t, ok)
	assert.Equal(t, NoticeNoCourse, text)
	assert.Equal(t, "hi", c.Input())

	now = now.Add(5 * time.Second)
	_, ok = c.Notice()
	assert.False(t, ok)
}

func TestSendRejectsSecondPending(t *testing.T) {
	b := &fakeBackend{
		enrolled:  []model.Course{cs101},
		answer:    &model.Answer{Answer: "first"},
		askGate:   make(chan struct{}),
		askCalled: make(chan struct{}, 1),
	}
	c, _ := newTestController(t, b, "tok")
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))

	c.SetInput("one")
	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background()) }()
	<-b.askCalled

	assert.True(t, c.Pending("CS101"))
	assert.Equal(t, Placeholder, last(c.Transcript("CS101")).Text)

	c.SetInput("two")
	assert.ErrorIs(t, c.Send(context.Background()), ErrRequestPending)
	assert.Equal(t, "two", c.Input())

	close(b.askGate)
	require.NoError(t, <-done)

	msgs := c.Transcript("CS101")
	assert.Equal(t, "first", last(msgs).Text)
	assert.Len(t, b.asks, 1)
}

func TestRemoveDuringPendingDropsReply(t *testing.T) {
	b := &fakeBackend{
		enrolled:  []model.Course{cs101},
		answer:    &model.Answer{Answer: "late"},
		askGate:   make(chan struct{}),
		askCalled: make(chan struct{}, 1),
	}
	c, _ := newTestController(t, b, "tok")
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))

	c.SetInput("q")
	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background()) }()
	<-b.askCalled

	assert.True(t, c.RemoveCourse(context.Background(), "CS101"))
	close(b.askGate)
	require.NoError(t, <-done)

	assert.Nil(t, c.Transcript("CS101"))
	assert.False(t, c.Pending("CS101"))
}

func TestSendScrollsAfterUserMessage(t *testing.T) {
	b := &fakeBackend{enrolled: []model.Course{cs101}, answer: &model.Answer{Answer: "ok"}}
	cat := &fakeCatalog{courses: map[string]model.Course{"CS101": cs101}}
	var c *Controller
	var seen []model.Message
	c = New(Options{
		Backend: b,
		Catalog: cat,
		Session: &api.Session{Token: "tok"},
		OnScroll: func(code string) {
			seen = c.Transcript(code)
		},
	})
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))
	c.SetInput("scroll")
	require.NoError(t, c.Send(context.Background()))

	require.NotEmpty(t, seen)
	assert.Equal(t, model.Message{Text: "scroll", Sender: model.SenderUser}, last(seen))
}

func TestAddCourse(t *testing.T) {
	b := &fakeBackend{
		enrolled: []model.Course{cs101},
		history: map[string][]model.QA{
			"CS101": {{Question: "q1", Answer: "a1", Sources: []model.Source{{Source: strptr("ch1.pdf"), Score: 0.5, Chunk: "c"}}}},
		},
	}
	c, _ := newTestController(t, b, "tok")

	err := c.AddCourse(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrUnknownCourse)

	require.NoError(t, c.AddCourse(context.Background(), "CS101"))
	msgs := c.Transcript("CS101")
	require.Len(t, msgs, 3)
	assert.Equal(t, Greeting("CS101"), msgs[0].Text)
	assert.Equal(t, "Hi, I’m Advisory, your personal AI tutor for CS101. How can I help you?", msgs[0].Text)
	assert.Equal(t, model.Message{Text: "q1", Sender: model.SenderUser}, msgs[1])
	assert.Equal(t, "a1\nSources:\n• ch1.pdf (Similarity score: 0.50)\n", msgs[2].Text)

	// re-adding keeps the transcript and does not refetch history
	require.NoError(t, c.AddCourse(context.Background(), "CS202"))
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))
	assert.Len(t, c.Transcript("CS101"), 3)
	assert.Equal(t, "CS101", c.Active())

	var codes []string
	for _, s := range c.Sidebar() {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{"CS101", "CS202"}, codes)
	assert.Len(t, c.Transcript("CS202"), 1)
}

func TestAddCourseEnrollmentFallback(t *testing.T) {
	b := &fakeBackend{
		enrolled: []model.Course{cs101},
		answer:   &model.Answer{Answer: "ok"},
	}
	c, _ := newTestController(t, b, "tok")
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))

	b.enrollErr = errors.New("offline")
	c.SetInput("still enrolled?")
	require.NoError(t, c.Send(context.Background()))
	assert.Equal(t, "ok", last(c.Transcript("CS101")).Text)
}

func TestRemoveCourse(t *testing.T) {
	b := &fakeBackend{enrolled: []model.Course{cs101}}
	c, cat := newTestController(t, b, "tok")
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))

	assert.True(t, c.RemoveCourse(context.Background(), "CS101"))
	assert.Equal(t, []string{"CS101"}, b.deletes)
	assert.Empty(t, c.Sidebar())
	assert.Empty(t, c.Active())
	assert.Nil(t, c.Transcript("CS101"))
	assert.Equal(t, 1, cat.refresh)
}

func TestRemoveCourseDeleteFailure(t *testing.T) {
	b := &fakeBackend{enrolled: []model.Course{cs101}, deleteErr: errors.New("boom")}
	c, _ := newTestController(t, b, "tok")
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))

	assert.False(t, c.RemoveCourse(context.Background(), "CS101"))
	assert.Empty(t, c.Sidebar())
	assert.Equal(t, []string{"CS101"}, c.PendingDeletes())

	assert.Equal(t, []string{"CS101"}, c.RetryDeletes(context.Background()))

	b.deleteErr = nil
	assert.Empty(t, c.RetryDeletes(context.Background()))
	assert.Empty(t, c.PendingDeletes())
	assert.Equal(t, []string{"CS101", "CS101", "CS101"}, b.deletes)
}

func TestLoadPinsCoursesWithHistory(t *testing.T) {
	cs303 := model.Course{Code: "CS303", HasChatbot: true}
	b := &fakeBackend{
		enrolled: []model.Course{cs101, cs202, cs303},
		history: map[string][]model.QA{
			"CS101": {{Question: "q", Answer: "a"}},
			"CS303": {{Question: "q", Answer: "a"}},
		},
	}
	cat := &fakeCatalog{courses: map[string]model.Course{"CS101": cs101, "CS202": cs202, "CS303": cs303}}
	c := New(Options{Backend: b, Catalog: cat, Session: &api.Session{Token: "tok"}, HistoryConcurrency: 2})

	require.NoError(t, c.Load(context.Background()))
	var codes []string
	for _, s := range c.Sidebar() {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{"CS101", "CS303"}, codes)
	assert.Equal(t, 1, cat.refresh)
}

func TestLoadAnonymous(t *testing.T) {
	b := &fakeBackend{enrolled: []model.Course{cs101}, history: map[string][]model.QA{"CS101": {{Question: "q", Answer: "a"}}}}
	c, cat := newTestController(t, b, "")
	require.NoError(t, c.Load(context.Background()))
	assert.Empty(t, c.Sidebar())
	assert.Equal(t, 1, cat.refresh)
}

func TestStateRestore(t *testing.T) {
	b := &fakeBackend{enrolled: []model.Course{cs101}, answer: &model.Answer{Answer: "ok"}, deleteErr: errors.New("down")}
	c, cat := newTestController(t, b, "tok")
	require.NoError(t, c.AddCourse(context.Background(), "CS202"))
	c.RemoveCourse(context.Background(), "CS202")
	require.NoError(t, c.AddCourse(context.Background(), "CS101"))
	c.SetInput("hi")
	require.NoError(t, c.Send(context.Background()))

	st := c.State()
	assert.Equal(t, "CS101", st.Active)
	assert.Equal(t, []string{"CS101"}, st.Sidebar)
	assert.Equal(t, []string{"CS202"}, st.PendingDeletes)
	require.Len(t, st.Transcripts["CS101"], 3)

	st.Sidebar = append(st.Sidebar, "GONE")
	restored := New(Options{Backend: b, Catalog: cat, Session: &api.Session{Token: "tok"}})
	restored.Restore(st)

	assert.Equal(t, "CS101", restored.Active())
	assert.Len(t, restored.Sidebar(), 1)
	assert.Equal(t, c.Transcript("CS101"), restored.Transcript("CS101"))
	assert.Equal(t, []string{"CS202"}, restored.PendingDeletes())
}
