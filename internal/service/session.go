package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-trees/internal/engine"
	"github.com/joeblew999/plat-trees/internal/filter"
	"github.com/joeblew999/plat-trees/internal/metrics"
	"github.com/joeblew999/plat-trees/internal/waterneed"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// Session is one map client: an engine drawing onto a headless surface.
type Session struct {
	ID      string
	Mobile  bool
	Created time.Time

	mu       sync.Mutex
	eng      *engine.Engine
	surface  *engine.StateSurface
	lastTree string
}

func (s *Session) view() SessionView {
	v := SessionView{
		ID:          s.ID,
		Revision:    s.eng.Revision(),
		Loading:     s.eng.Loading(),
		Ready:       s.eng.Ready(),
		Filters:     s.eng.Filters(),
		Viewport:    s.eng.Viewport(),
		Selected:    s.eng.Selected(),
		Tooltip:     s.eng.Tooltip(),
		Cursor:      s.eng.Cursor(),
		Expressions: s.eng.Expressions(),
	}
	if v.Tooltip != nil {
		v.EditorURL = v.Tooltip.EditorURL()
	}
	return v
}

func (s *Session) info() SessionInfo {
	return SessionInfo{ID: s.ID, Mobile: s.Mobile, Created: s.Created, Revision: s.eng.Revision()}
}

// SessionService manages map sessions.
type SessionService struct {
	cfg  engine.Config
	data *DataService
	bus  *EventBus

	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewSessionService creates a session service. Sessions draw from the
// datasets currently held by data.
func NewSessionService(cfg engine.Config, data *DataService, bus *EventBus) *SessionService {
	return &SessionService{
		cfg:      cfg,
		data:     data,
		bus:      bus,
		sessions: make(map[string]*Session),
	}
}

// Bus returns the event bus session changes are published on.
func (s *SessionService) Bus() *EventBus { return s.bus }

// Create opens a new session with default filters.
func (s *SessionService) Create(mobile bool) SessionView {
	cfg := s.cfg
	cfg.Mobile = mobile
	sess := &Session{
		ID:      uuid.NewString(),
		Mobile:  mobile,
		Created: time.Now(),
		surface: engine.NewStateSurface(""),
	}
	sess.eng = engine.New(cfg, sess.surface,
		engine.WithRecorder(metrics.EngineRecorder{}),
		engine.OnTreeSelect(func(id string) { sess.lastTree = id }),
	)
	s.loadInto(sess)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	metrics.ActiveSessions.Inc()
	slog.Debug("session created", "session", sess.ID, "mobile", mobile)

	sess.mu.Lock()
	v := sess.view()
	sess.mu.Unlock()
	s.publish(Event{Session: sess.ID, Action: "created", Revision: v.Revision})
	return v
}

// loadInto commits the current datasets to a session. Mobile sessions
// read trees from vector tiles and get no tree GeoJSON.
func (s *SessionService) loadInto(sess *Session) {
	if s.data == nil {
		return
	}
	data, snap, ok := s.data.Current()
	if !ok {
		return
	}
	if sess.Mobile {
		data.Trees = geojson.NewFeatureCollection()
	}
	sess.eng.SetCommunity(snap)
	sess.eng.Load(data)
}

func (s *SessionService) get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// List returns all sessions, oldest first.
func (s *SessionService) List() []SessionInfo {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	out := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		sess.mu.Lock()
		out = append(out, sess.info())
		sess.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// Get returns the view of a session.
func (s *SessionService) Get(id string) (SessionView, error) {
	sess, err := s.get(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// Delete closes a session.
func (s *SessionService) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	metrics.ActiveSessions.Dec()
	s.publish(Event{Session: id, Action: "deleted"})
	return nil
}

// SetFilters validates and commits a new filter state.
func (s *SessionService) SetFilters(id string, state filter.State) (SessionView, error) {
	if err := state.Validate(); err != nil {
		return SessionView{}, err
	}
	return s.update(id, "filters", func(e *engine.Engine) { e.SetFilters(state) })
}

// Dispatch delivers a render-surface or host event to a session.
func (s *SessionService) Dispatch(id string, ev engine.Event) (SessionView, error) {
	return s.update(id, ev.Kind(), func(e *engine.Engine) { e.Dispatch(ev) })
}

func (s *SessionService) update(id, kind string, fn func(*engine.Engine)) (SessionView, error) {
	sess, err := s.get(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.mu.Lock()
	fn(sess.eng)
	v := sess.view()
	sess.mu.Unlock()

	s.publish(Event{Session: id, Action: "updated", Kind: kind, Revision: v.Revision})
	return v, nil
}

// Refresh commits the current datasets to every session.
func (s *SessionService) Refresh() {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		s.loadInto(sess)
		rev := sess.eng.Revision()
		sess.mu.Unlock()
		s.publish(Event{Session: sess.ID, Action: "updated", Kind: "refresh", Revision: rev})
	}
}

// Layers returns the GeoJSON layers of a session: tree points, rain and pumps.
func (s *SessionService) Layers(id string) ([]engine.DataLayer, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return append([]engine.DataLayer{sess.eng.TreePoints()}, sess.eng.Layers()...), nil
}

// Surface returns what the session's render surface currently shows.
func (s *SessionService) Surface(id string) (engine.SurfaceSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return engine.SurfaceSnapshot{}, err
	}
	return sess.surface.Snapshot(), nil
}

// SelectedTree returns the details of the last tree the session selected.
// ok is false when nothing is selected or the tree is not in the session's
// GeoJSON (mobile sessions, vector-tile-only trees).
func (s *SessionService) SelectedTree(id string) (detail TreeDetail, ok bool, err error) {
	sess, err := s.get(id)
	if err != nil {
		return TreeDetail{}, false, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.lastTree == "" {
		return TreeDetail{}, false, nil
	}
	tree, found := sess.eng.Tree(sess.lastTree)
	if !found {
		return TreeDetail{ID: sess.lastTree}, false, nil
	}
	status, _ := sess.eng.Community().Lookup(tree.ID)
	return TreeDetail{
		ID:        tree.ID,
		Age:       tree.Age,
		RainSum:   tree.RainSum,
		WaterNeed: waterneed.Classify(tree.Age),
		Color:     sess.eng.TreeColor(tree).Hex(),
		Watered:   status.Watered,
		Adopted:   status.Adopted,
	}, true, nil
}

func (s *SessionService) publish(e Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
