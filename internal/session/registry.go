package session

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/persona/internal/logging"
	"github.com/GriffinCanCode/persona/internal/monitoring"
	"github.com/GriffinCanCode/persona/internal/persona"
	"github.com/GriffinCanCode/persona/internal/ptyproc"
)

const defaultInboxSize = 256

// SpawnFunc starts the agent for a persona at the given grid size.
type SpawnFunc func(p persona.Persona, mode Mode, size ptyproc.Size) (Process, error)

// PtySpawner returns a SpawnFunc running base.Agent on a real pty. Size and
// Continue are filled in per call.
func PtySpawner(base ptyproc.Options) SpawnFunc {
	return func(p persona.Persona, mode Mode, size ptyproc.Size) (Process, error) {
		opts := base
		opts.Size = size
		opts.Continue = mode == ModeContinue
		h, err := ptyproc.Spawn(p.ID, opts)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) { r.logger = l.Named("session") }
}

// WithMetrics records session metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithInboxSize sets the event inbox capacity.
func WithInboxSize(n int) Option {
	return func(r *Registry) { r.inboxSize = n }
}

// Registry maps persona ids to sessions. Mutations come from the UI loop;
// the mutex exists for read-only observers such as the control API.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	size     ptyproc.Size

	spawn     SpawnFunc
	inbox     chan Event
	inboxSize int
	logger    *logging.Logger
	metrics   *monitoring.Metrics
}

// NewRegistry creates an empty registry spawning agents with spawn.
func NewRegistry(spawn SpawnFunc, opts ...Option) *Registry {
	r := &Registry{
		sessions:  make(map[string]*Session),
		size:      ptyproc.DefaultSize,
		spawn:     spawn,
		inboxSize: defaultInboxSize,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.inbox = make(chan Event, r.inboxSize)
	return r
}

// Events is the inbox every session reader publishes to.
func (r *Registry) Events() <-chan Event { return r.inbox }

// SetInitialSize records the grid the layout last computed; new agents start
// at this size. Non-positive values keep the previous dimension.
func (r *Registry) SetInitialSize(cols, rows int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cols > 0 {
		r.size.Cols = clampDim(cols)
	}
	if rows > 0 {
		r.size.Rows = clampDim(rows)
	}
}

// InitialSize returns the grid new agents start at.
func (r *Registry) InitialSize() ptyproc.Size {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// EnsureOrGet returns the persona's session, spawning one if there is none.
// An existing session, failed or not, is returned unchanged.
func (r *Registry) EnsureOrGet(p persona.Persona, mode Mode) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[p.ID]; ok {
		return s
	}
	return r.startLocked(p, mode)
}

// Restart destroys the persona's session, if any, and spawns a fresh one.
func (r *Registry) Restart(p persona.Persona, mode Mode) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.sessions[p.ID]; ok {
		r.destroyLocked(old)
	}
	return r.startLocked(p, mode)
}

func (r *Registry) startLocked(p persona.Persona, mode Mode) *Session {
	size := r.size
	start := time.Now()
	proc, err := r.spawn(p, mode, size)

	s := newSession(p, mode, proc, err, r.logger, r.metrics)
	r.sessions[p.ID] = s
	r.updateGaugeLocked()

	if err != nil {
		stage := ptyproc.StageOf(err)
		r.metrics.RecordSpawnFailure(string(stage))
		r.logger.Error("Spawn failed",
			zap.String("persona", p.ID),
			zap.String("stage", string(stage)),
			zap.Error(err))
		return s
	}

	r.metrics.RecordSpawn(mode.String())
	r.logger.Info("Session spawned",
		zap.String("persona", p.ID),
		zap.String("process", proc.ID().String()),
		zap.String("mode", mode.String()),
		zap.Uint16("cols", size.Cols),
		zap.Uint16("rows", size.Rows),
		zap.Duration("took", time.Since(start)))

	s.onExit = r.refreshGauge
	go s.ReadLoop(r.inbox)
	return s
}

// Get returns the persona's session.
func (r *Registry) Get(personaID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[personaID]
	return s, ok
}

// Destroy removes the persona's session and releases its process. It
// reports whether there was a session to destroy.
func (r *Registry) Destroy(personaID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[personaID]
	if !ok {
		return false
	}
	r.destroyLocked(s)
	r.updateGaugeLocked()
	return true
}

func (r *Registry) destroyLocked(s *Session) {
	delete(r.sessions, s.persona.ID)
	s.close()
	r.metrics.RecordDestroy(1)
	r.logger.Info("Session destroyed", zap.String("persona", s.persona.ID))
}

// DestroyAll destroys every session and returns how many there were.
func (r *Registry) DestroyAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.sessions)
	for _, s := range r.sessions {
		r.destroyLocked(s)
	}
	r.updateGaugeLocked()
	r.logger.Info("Destroyed all sessions", zap.Int("count", n))
	return n
}

// ActiveIDs returns the sorted ids of personas with a running agent.
func (r *Registry) ActiveIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for pid, s := range r.sessions {
		if s.Alive() {
			ids = append(ids, pid)
		}
	}
	sort.Strings(ids)
	return ids
}

// IsActive reports whether the persona has a running agent.
func (r *Registry) IsActive(personaID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[personaID]
	return ok && s.Alive()
}

// Len returns the number of sessions, failed ones included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Info describes a session for observers outside the UI loop.
type Info struct {
	PersonaID   string    `json:"persona_id"`
	PersonaName string    `json:"persona_name"`
	ProcessID   string    `json:"process_id,omitempty"`
	Mode        string    `json:"mode"`
	StartedAt   time.Time `json:"started_at"`
	Alive       bool      `json:"alive"`
	Error       string    `json:"error,omitempty"`
}

// Snapshot lists every session sorted by persona id.
func (r *Registry) Snapshot() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		info := Info{
			PersonaID:   s.persona.ID,
			PersonaName: s.persona.Name,
			Mode:        s.mode.String(),
			StartedAt:   s.startedAt,
			Alive:       s.Alive(),
			Error:       s.err,
		}
		if s.proc != nil {
			info.ProcessID = s.proc.ID().String()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonaID < out[j].PersonaID })
	return out
}

// refreshGauge runs on reader goroutines when an agent's output ends.
func (r *Registry) refreshGauge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateGaugeLocked()
}

func (r *Registry) updateGaugeLocked() {
	if r.metrics == nil {
		return
	}
	live := 0
	for _, s := range r.sessions {
		if s.Alive() && !s.exited.Load() {
			live++
		}
	}
	r.metrics.SetSessionsActive(live)
}
