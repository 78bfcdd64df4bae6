package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Users / role store
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users     map[string]*domain.User
	roleErr   error
	createErr error
	updateErr error
	roleCalls int
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindRole(_ context.Context, subject string) (domain.Role, error) {
	r.roleCalls++
	if r.roleErr != nil {
		return "", r.roleErr
	}
	u, ok := r.users[subject]
	if !ok {
		return "", domain.ErrRoleNotFound
	}
	return u.Role, nil
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		if f.Role == "" || u.Role == f.Role {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Identity
// ---------------------------------------------------------------------------

type stubVerifier struct {
	identities map[string]*domain.Identity
	calls      int
}

func (v *stubVerifier) Verify(_ context.Context, token string) (*domain.Identity, error) {
	v.calls++
	id, ok := v.identities[token]
	if !ok {
		return nil, errors.New("token rejected")
	}
	return id, nil
}

type stubIssuer struct {
	issued []domain.Identity
	err    error
}

func (i *stubIssuer) Issue(id domain.Identity) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	i.issued = append(i.issued, id)
	return "token-" + id.Subject, nil
}

type stubCredRepo struct {
	byEmail   map[string]*domain.Credential
	deleted   []string
	createErr error
	seq       int
}

func newStubCredRepo() *stubCredRepo {
	return &stubCredRepo{byEmail: make(map[string]*domain.Credential)}
}

func (r *stubCredRepo) FindByEmail(_ context.Context, email string) (*domain.Credential, error) {
	c, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCredRepo) Create(_ context.Context, c *domain.Credential) (*domain.Credential, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, exists := r.byEmail[c.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.seq++
	clone := *c
	if clone.ID == "" {
		clone.ID = "id-" + c.Email
	}
	r.byEmail[c.Email] = &clone
	out := clone
	return &out, nil
}

func (r *stubCredRepo) Delete(_ context.Context, id string) error {
	for email, c := range r.byEmail {
		if c.ID == id {
			delete(r.byEmail, email)
			r.deleted = append(r.deleted, id)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

type stubIdentityAdmin struct {
	nextID    string
	createErr error
	deleteErr error
	created   []string
	deleted   []string
}

func (a *stubIdentityAdmin) CreateIdentity(_ context.Context, email, _ string) (string, error) {
	if a.createErr != nil {
		return "", a.createErr
	}
	id := a.nextID
	if id == "" {
		id = "id-" + email
	}
	a.created = append(a.created, id)
	return id, nil
}

func (a *stubIdentityAdmin) DeleteIdentity(_ context.Context, id string) error {
	if a.deleteErr != nil {
		return a.deleteErr
	}
	a.deleted = append(a.deleted, id)
	return nil
}

// staticGate authorizes against a role store without a verifier.
func staticGate(roles ports.RoleStore) ports.Gate {
	return NewAuthorizationGate(&stubVerifier{}, roles)
}

// ---------------------------------------------------------------------------
// Consultations
// ---------------------------------------------------------------------------

type stubConsultationRepo struct {
	items       map[string]*domain.Consultation
	createErr   error
	acceptErr   error
	rejectErr   error
	clearErr    error
	onAccept    func() // runs before the conditional write
	acceptCalls int
}

func newStubConsultationRepo(cs ...*domain.Consultation) *stubConsultationRepo {
	r := &stubConsultationRepo{items: make(map[string]*domain.Consultation)}
	for _, c := range cs {
		r.items[c.ID] = c
	}
	return r
}

func cloneConsultation(c *domain.Consultation) *domain.Consultation {
	clone := *c
	if c.VideoLink != nil {
		v := *c.VideoLink
		clone.VideoLink = &v
	}
	if c.Notes != nil {
		n := *c.Notes
		clone.Notes = &n
	}
	return &clone
}

func (r *stubConsultationRepo) Create(_ context.Context, c *domain.Consultation) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.items[c.ID] = cloneConsultation(c)
	return nil
}

func (r *stubConsultationRepo) FindByID(_ context.Context, id string) (*domain.Consultation, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, domain.ErrConsultationNotFound
	}
	return cloneConsultation(c), nil
}

func (r *stubConsultationRepo) List(_ context.Context, f ports.ListConsultationsFilter) ([]*domain.Consultation, error) {
	var out []*domain.Consultation
	for _, c := range r.items {
		if f.StudentID != "" && c.StudentID != f.StudentID {
			continue
		}
		if f.CounselorID != "" && c.CounselorID != f.CounselorID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, cloneConsultation(c))
	}
	return out, nil
}

func (r *stubConsultationRepo) MarkAccepted(_ context.Context, id, link string) (*domain.Consultation, error) {
	r.acceptCalls++
	if r.onAccept != nil {
		r.onAccept()
	}
	if r.acceptErr != nil {
		return nil, r.acceptErr
	}
	c, ok := r.items[id]
	if !ok {
		return nil, domain.ErrConsultationNotFound
	}
	if c.Status != domain.StatusPending || c.VideoLink != nil {
		return nil, domain.ErrConflict
	}
	c.Status = domain.StatusAccepted
	c.VideoLink = &link
	return cloneConsultation(c), nil
}

func (r *stubConsultationRepo) MarkRejected(_ context.Context, id string, reason *string) (*domain.Consultation, error) {
	if r.rejectErr != nil {
		return nil, r.rejectErr
	}
	c, ok := r.items[id]
	if !ok {
		return nil, domain.ErrConsultationNotFound
	}
	c.Status = domain.StatusRejected
	c.VideoLink = nil
	c.Notes = reason
	return cloneConsultation(c), nil
}

func (r *stubConsultationRepo) ClearRoom(_ context.Context, id string) (*domain.Consultation, error) {
	if r.clearErr != nil {
		return nil, r.clearErr
	}
	c, ok := r.items[id]
	if !ok {
		return nil, domain.ErrConsultationNotFound
	}
	c.VideoLink = nil
	c.Status = domain.StatusPending
	return cloneConsultation(c), nil
}

func (r *stubConsultationRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return domain.ErrConsultationNotFound
	}
	delete(r.items, id)
	return nil
}

type stubAudit struct {
	mu     sync.Mutex
	events []*domain.ConsultationEvent
	err    error
}

func (a *stubAudit) InsertEvent(_ context.Context, e *domain.ConsultationEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, e)
	return nil
}

func (a *stubAudit) types() []domain.ConsultationEventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.ConsultationEventType, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Type)
	}
	return out
}

type stubGuard struct {
	held       bool
	acquireErr error
	released   int
	onAcquire  func() // runs once the guard is taken
}

func (g *stubGuard) Acquire(context.Context, string) (bool, error) {
	if g.acquireErr != nil {
		return false, g.acquireErr
	}
	if g.held {
		return false, nil
	}
	g.held = true
	if g.onAcquire != nil {
		g.onAcquire()
	}
	return true, nil
}

func (g *stubGuard) Release(context.Context, string) error {
	g.held = false
	g.released++
	return nil
}

// ---------------------------------------------------------------------------
// Rooms and notifications
// ---------------------------------------------------------------------------

type stubRooms struct {
	created   []string
	deleted   []string
	opts      []domain.RoomOptions
	createErr error
	deleteErr error
}

func (r *stubRooms) CreateRoom(_ context.Context, name string, opts domain.RoomOptions) (*domain.Room, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.created = append(r.created, name)
	r.opts = append(r.opts, opts)
	return &domain.Room{Name: name, URL: "https://campus.daily.co/" + name, ExpiresAt: opts.ExpiresAt}, nil
}

func (r *stubRooms) DeleteRoom(_ context.Context, name string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, name)
	return nil
}

type stubNotifier struct {
	mu    sync.Mutex
	sent  []domain.Email
	fails map[string]error // by recipient address
	times []time.Time
}

func (n *stubNotifier) Send(_ context.Context, msg domain.Email) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.times = append(n.times, time.Now())
	if err, ok := n.fails[msg.To]; ok {
		return "", err
	}
	n.sent = append(n.sent, msg)
	return "msg-" + msg.To, nil
}

func (n *stubNotifier) sentTo() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.To)
	}
	return out
}

type stubComposer struct{}

func (stubComposer) BookingRequested(c *domain.Consultation, _, _ *domain.User, to domain.Recipient) domain.Email {
	return domain.Email{Subject: "booking " + c.ID + " " + string(to)}
}

func (stubComposer) ConsultationAccepted(c *domain.Consultation, _, _ *domain.User, to domain.Recipient) domain.Email {
	return domain.Email{Subject: "accepted " + c.ID + " " + string(to)}
}

func (stubComposer) ConsultationRejected(c *domain.Consultation, _, _ *domain.User) domain.Email {
	return domain.Email{Subject: "rejected " + c.ID}
}
