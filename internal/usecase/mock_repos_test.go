package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pdks-backend/internal/model"
	"pdks-backend/internal/repository"

	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for the database. Transactions are
// serialized and roll back every table when fn fails.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	nextID     uint
	employees  map[uint]model.Employee
	devices    map[string]model.Device
	locations  map[string]model.Location
	policies   map[string]model.Policy
	shifts     map[string]model.Shift
	holidays   map[string]model.Holiday
	challenges map[string]model.Challenge
	punches    []model.Punch
	sessions   map[string]model.Session

	// saveSessionErr, when set, is returned by the next Session.Save.
	saveSessionErr error
}

func newMemStore() *memStore {
	return &memStore{
		employees:  make(map[uint]model.Employee),
		devices:    make(map[string]model.Device),
		locations:  make(map[string]model.Location),
		policies:   make(map[string]model.Policy),
		shifts:     make(map[string]model.Shift),
		holidays:   make(map[string]model.Holiday),
		challenges: make(map[string]model.Challenge),
		sessions:   make(map[string]model.Session),
	}
}

func (s *memStore) repo() *repository.Repository {
	return &repository.Repository{
		Employee:  &memEmployees{s},
		Device:    &memDevices{s},
		Location:  &memLocations{s},
		Policy:    &memPolicies{s},
		Shift:     &memShifts{s},
		Holiday:   &memHolidays{s},
		Challenge: &memChallenges{s},
		Punch:     &memPunches{s},
		Session:   &memSessions{s},
		Dashboard: &memDashboard{s},
		Tx:        &memTx{s},
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

type memSnapshot struct {
	employees  map[uint]model.Employee
	devices    map[string]model.Device
	policies   map[string]model.Policy
	shifts     map[string]model.Shift
	holidays   map[string]model.Holiday
	challenges map[string]model.Challenge
	punches    []model.Punch
	sessions   map[string]model.Session
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		employees:  copyMap(s.employees),
		devices:    copyMap(s.devices),
		policies:   copyMap(s.policies),
		shifts:     copyMap(s.shifts),
		holidays:   copyMap(s.holidays),
		challenges: copyMap(s.challenges),
		punches:    append([]model.Punch(nil), s.punches...),
		sessions:   copyMap(s.sessions),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = snap.employees
	s.devices = snap.devices
	s.policies = snap.policies
	s.shifts = snap.shifts
	s.holidays = snap.holidays
	s.challenges = snap.challenges
	s.punches = snap.punches
	s.sessions = snap.sessions
}

// test helpers

func (s *memStore) addEmployee(e model.Employee) model.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.id()
	}
	s.employees[e.ID] = e
	return e
}

func (s *memStore) addDevice(d model.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[d.ID] = d
}

func (s *memStore) addPunch(p model.Punch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.punches = append(s.punches, p)
}

func (s *memStore) session(employeeID uint, date string) (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.sessions[sessionKey(employeeID, date)]
	return v, ok
}

func (s *memStore) punchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.punches)
}

func (s *memStore) challengeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}

func sessionKey(employeeID uint, date string) string {
	return fmt.Sprintf("%d/%s", employeeID, date)
}

// ── Transactor ──

type memTx struct{ s *memStore }

func (t *memTx) WithinTransaction(_ context.Context, fn func(tx *repository.Repository) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()
	snap := t.s.snapshot()
	if err := fn(t.s.repo()); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

// ── Employees ──

type memEmployees struct{ s *memStore }

func (m *memEmployees) Create(_ context.Context, e *model.Employee) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, other := range m.s.employees {
		if other.Code == e.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	e.ID = m.s.id()
	m.s.employees[e.ID] = *e
	return nil
}

func (m *memEmployees) Update(_ context.Context, e *model.Employee) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, other := range m.s.employees {
		if id != e.ID && other.Code == e.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	m.s.employees[e.ID] = *e
	return nil
}

func (m *memEmployees) GetByID(_ context.Context, id uint) (*model.Employee, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if e, ok := m.s.employees[id]; ok {
		return &e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memEmployees) GetByCode(_ context.Context, code string) (*model.Employee, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, e := range m.s.employees {
		if e.Code == code {
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memEmployees) GetByIDs(_ context.Context, ids []uint) ([]model.Employee, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Employee
	for _, id := range ids {
		if e, ok := m.s.employees[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEmployees) List(_ context.Context, activeOnly bool) ([]model.Employee, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Employee
	for _, e := range m.s.employees {
		if !activeOnly || e.Active {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── Devices ──

type memDevices struct{ s *memStore }

func (m *memDevices) Create(_ context.Context, d *model.Device) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.devices[d.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.s.devices[d.ID] = *d
	return nil
}

func (m *memDevices) GetByID(_ context.Context, id string) (*model.Device, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if d, ok := m.s.devices[id]; ok {
		return &d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memDevices) List(_ context.Context) ([]model.Device, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Device
	for _, d := range m.s.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDevices) SetStatus(_ context.Context, id, status string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d := m.s.devices[id]
	d.Status = status
	m.s.devices[id] = d
	return nil
}

func (m *memDevices) Touch(_ context.Context, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if d, ok := m.s.devices[id]; ok {
		d.LastSeenAt = &at
		m.s.devices[id] = d
	}
	return nil
}

// ── Locations ──

type memLocations struct{ s *memStore }

func (m *memLocations) List(_ context.Context) ([]model.Location, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Location
	for _, l := range m.s.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLocations) GetByID(_ context.Context, id string) (*model.Location, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if l, ok := m.s.locations[id]; ok {
		return &l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memLocations) Upsert(_ context.Context, l *model.Location) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.locations[l.ID] = *l
	return nil
}

// ── Policies ──

type memPolicies struct{ s *memStore }

func (m *memPolicies) GetByLocation(_ context.Context, locationID string) (*model.Policy, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if p, ok := m.s.policies[locationID]; ok {
		return &p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memPolicies) List(_ context.Context) ([]model.Policy, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Policy
	for _, p := range m.s.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out, nil
}

func (m *memPolicies) Upsert(_ context.Context, p *model.Policy) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.policies[p.LocationID] = *p
	return nil
}

// ── Shifts ──

type memShifts struct{ s *memStore }

func (m *memShifts) GetByEmployeeDate(_ context.Context, employeeID uint, date string) (*model.Shift, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if sh, ok := m.s.shifts[sessionKey(employeeID, date)]; ok {
		return &sh, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memShifts) ListByDate(_ context.Context, date string) ([]model.Shift, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Shift
	for _, sh := range m.s.shifts {
		if sh.Date == date {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (m *memShifts) Upsert(_ context.Context, sh *model.Shift) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := sessionKey(sh.EmployeeID, sh.Date)
	if old, ok := m.s.shifts[key]; ok {
		sh.ID = old.ID
	} else {
		sh.ID = m.s.id()
	}
	m.s.shifts[key] = *sh
	return nil
}

func (m *memShifts) Delete(_ context.Context, id uint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for k, sh := range m.s.shifts {
		if sh.ID == id {
			delete(m.s.shifts, k)
		}
	}
	return nil
}

// ── Holidays ──

type memHolidays struct{ s *memStore }

func (m *memHolidays) List(_ context.Context) ([]model.Holiday, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Holiday
	for _, h := range m.s.holidays {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (m *memHolidays) Create(_ context.Context, h *model.Holiday) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.holidays[h.Date]; ok {
		return gorm.ErrDuplicatedKey
	}
	h.ID = m.s.id()
	m.s.holidays[h.Date] = *h
	return nil
}

func (m *memHolidays) Delete(_ context.Context, id uint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for k, h := range m.s.holidays {
		if h.ID == id {
			delete(m.s.holidays, k)
		}
	}
	return nil
}

func (m *memHolidays) IsHoliday(_ context.Context, date string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.s.holidays[date]
	return ok, nil
}

// ── Challenges ──

type memChallenges struct{ s *memStore }

func (m *memChallenges) Create(_ context.Context, c *model.Challenge) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.challenges[c.Token] = *c
	return nil
}

func (m *memChallenges) GetForUpdate(_ context.Context, token string) (*model.Challenge, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c, ok := m.s.challenges[token]; ok {
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memChallenges) Delete(_ context.Context, token string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.challenges[token]; !ok {
		return 0, nil
	}
	delete(m.s.challenges, token)
	return 1, nil
}

func (m *memChallenges) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for k, c := range m.s.challenges {
		if c.ExpiresAt.Before(now) {
			delete(m.s.challenges, k)
			n++
		}
	}
	return n, nil
}

// ── Punches ──

type memPunches struct{ s *memStore }

func (m *memPunches) Create(_ context.Context, p *model.Punch) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, other := range m.s.punches {
		if other.ID == p.ID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.s.punches = append(m.s.punches, *p)
	return nil
}

func (m *memPunches) ListByEmployeeBetween(ctx context.Context, employeeID uint, from, to time.Time) ([]model.Punch, error) {
	all, _ := m.ListBetween(ctx, from, to)
	var out []model.Punch
	for _, p := range all {
		if p.EmployeeID == employeeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPunches) ListBetween(_ context.Context, from, to time.Time) ([]model.Punch, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Punch
	for _, p := range m.s.punches {
		if !p.Timestamp.Before(from) && p.Timestamp.Before(to) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ── Sessions ──

type memSessions struct{ s *memStore }

func (m *memSessions) Get(_ context.Context, employeeID uint, date string) (*model.Session, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if v, ok := m.s.sessions[sessionKey(employeeID, date)]; ok {
		return &v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memSessions) GetForUpdate(ctx context.Context, employeeID uint, date string) (*model.Session, error) {
	return m.Get(ctx, employeeID, date)
}

func (m *memSessions) Save(_ context.Context, v *model.Session) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.saveSessionErr; err != nil {
		m.s.saveSessionErr = nil
		return err
	}
	key := sessionKey(v.EmployeeID, v.Date)
	if old, ok := m.s.sessions[key]; ok {
		v.ID = old.ID
		v.CreatedAt = old.CreatedAt
	} else {
		v.ID = m.s.id()
	}
	m.s.sessions[key] = *v
	return nil
}

func (m *memSessions) ListByDateRange(_ context.Context, from, to string) ([]model.Session, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Session
	for _, v := range m.s.sessions {
		if v.Date >= from && v.Date <= to {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

// ── Dashboard ──

type memDashboard struct{ s *memStore }

func (m *memDashboard) DayCounts(_ context.Context, date string, from, to time.Time) (*repository.DayCounts, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c := &repository.DayCounts{ByStatus: map[string]int64{model.StatusIn: 0, model.StatusBreak: 0, model.StatusOut: 0}}
	for _, e := range m.s.employees {
		c.Employees++
		if e.Active {
			c.ActiveEmployees++
		}
	}
	for _, p := range m.s.punches {
		if !p.Timestamp.Before(from) && p.Timestamp.Before(to) {
			c.Punches++
		}
	}
	for _, v := range m.s.sessions {
		if v.Date != date {
			continue
		}
		c.ByStatus[v.CurrentStatus]++
		if v.LateMinutes > 0 {
			c.Late++
		}
		if v.EarlyLeaveMinutes > 0 {
			c.EarlyLeave++
		}
		c.WorkedMinutes += int64(v.TotalMinutes)
	}
	return c, nil
}
