package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"compost-backend/internal/compost"
	"compost-backend/internal/models"
)

// memStore is an in-memory implementation of every store interface the services use
type memStore struct {
	mu sync.Mutex

	units     map[string]*models.CompostUnit
	readings  []models.SensorReading
	entries   []models.CompostEntry
	harvests  []models.CompostHarvest
	logs      []models.MonitoringLog
	materials []models.CompostMaterial
	users     map[string]*models.User
	profiles  map[string]*models.UserProfile
	tokens    map[string]models.FCMToken

	nextID      int
	failProfile bool
}

func newMemStore() *memStore {
	return &memStore{
		units:    map[string]*models.CompostUnit{},
		users:    map[string]*models.User{},
		profiles: map[string]*models.UserProfile{},
		tokens:   map[string]models.FCMToken{},
		materials: []models.CompostMaterial{
			{ID: 1, Name: "Dry leaves", MaterialType: models.MaterialBrown, CarbonNitrogenRatio: 60, IsRecommended: true},
			{ID: 2, Name: "Grass clippings", MaterialType: models.MaterialGreen, CarbonNitrogenRatio: 20, IsRecommended: true},
			{ID: 3, Name: "Meat and dairy", MaterialType: models.MaterialOther, CarbonNitrogenRatio: 5, IsRecommended: false},
		},
	}
}

func (m *memStore) id() int {
	m.nextID++
	return m.nextID
}

func (m *memStore) addUnit(u models.CompostUnit) *models.CompostUnit {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Status == "" {
		u.Status = models.UnitStatusActive
	}
	m.units[u.ID] = &u
	return &u
}

func (m *memStore) addReading(r models.SensorReading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.id()
	m.readings = append(m.readings, r)
}

func (m *memStore) unit(id string) models.CompostUnit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.units[id]
}

// UnitStore

func (m *memStore) CreateUnit(_ context.Context, u *models.CompostUnit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.units {
		if existing.OwnerID == u.OwnerID && existing.Name == u.Name {
			return fmt.Errorf("unit %q: %w", u.Name, compost.ErrAlreadyExists)
		}
	}
	cp := *u
	m.units[u.ID] = &cp
	return nil
}

func (m *memStore) GetUnit(_ context.Context, id string) (*models.CompostUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[id]
	if !ok {
		return nil, fmt.Errorf("unit %s: %w", id, compost.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) ListUnitsByOwner(_ context.Context, ownerID string) ([]models.CompostUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CompostUnit{}
	for _, u := range m.units {
		if u.OwnerID == ownerID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) UnitExistsByName(_ context.Context, ownerID, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.units {
		if u.OwnerID == ownerID && u.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateUnitStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[id]
	if !ok {
		return compost.ErrNotFound
	}
	u.Status = status
	return nil
}

func (m *memStore) UpdateUnitSnapshot(_ context.Context, id string, temperature, ph, moisture *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[id]
	if !ok {
		return compost.ErrNotFound
	}
	if temperature != nil {
		u.Temperature = temperature
	}
	if ph != nil {
		u.PHLevel = ph
	}
	if moisture != nil {
		u.MoistureLevel = moisture
	}
	return nil
}

func (m *memStore) DeleteUnitCascade(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.units[id]; !ok {
		return compost.ErrNotFound
	}
	kept := m.readings[:0]
	for _, r := range m.readings {
		if r.CompostUnitID == nil || *r.CompostUnitID != id {
			kept = append(kept, r)
		}
	}
	m.readings = kept
	m.logs = filter(m.logs, func(l models.MonitoringLog) bool { return l.CompostUnitID != id })
	m.entries = filter(m.entries, func(e models.CompostEntry) bool { return e.CompostUnitID != id })
	m.harvests = filter(m.harvests, func(h models.CompostHarvest) bool { return h.CompostUnitID != id })
	delete(m.units, id)
	return nil
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// ReadingStore

func (m *memStore) unitReadings(unitID string) []models.SensorReading {
	out := []models.SensorReading{}
	for _, r := range m.readings {
		if r.CompostUnitID != nil && *r.CompostUnitID == unitID {
			out = append(out, r)
		}
	}
	return out
}

func newestFirst(rs []models.SensorReading) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Timestamp != rs[j].Timestamp {
			return rs[i].Timestamp > rs[j].Timestamp
		}
		return rs[i].ID > rs[j].ID
	})
}

func (m *memStore) ReadingExistsNear(_ context.Context, unitID string, at time.Time, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lo, hi := at.Add(-window).Unix(), at.Add(window).Unix()
	for _, r := range m.unitReadings(unitID) {
		if r.Timestamp >= lo && r.Timestamp <= hi {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertReading(_ context.Context, r *models.SensorReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.id()
	m.readings = append(m.readings, *r)
	return nil
}

func (m *memStore) ReadingAggregate(_ context.Context, unitID string) (compost.ReadingAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var acc compost.StatsAccumulator
	for _, r := range m.unitReadings(unitID) {
		acc.Add(r)
	}
	return acc.Aggregate(), nil
}

func (m *memStore) LatestReading(_ context.Context, unitID string) (*models.SensorReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs := m.unitReadings(unitID)
	if len(rs) == 0 {
		return nil, fmt.Errorf("latest reading: %w", compost.ErrNotFound)
	}
	newestFirst(rs)
	return &rs[0], nil
}

func (m *memStore) ListReadings(_ context.Context, unitID string, limit, offset int) ([]models.SensorReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs := m.unitReadings(unitID)
	newestFirst(rs)
	if offset >= len(rs) {
		return []models.SensorReading{}, nil
	}
	return rs[offset:min(offset+limit, len(rs))], nil
}

func (m *memStore) ListReadingsSince(_ context.Context, unitID string, since time.Time) ([]models.SensorReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.SensorReading{}
	for _, r := range m.unitReadings(unitID) {
		if r.Timestamp >= since.Unix() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListRecentReadingsByOwner(_ context.Context, ownerID string, limit int) ([]models.SensorReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.SensorReading{}
	for _, r := range m.readings {
		if r.CompostUnitID == nil {
			continue
		}
		if u, ok := m.units[*r.CompostUnitID]; ok && u.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	newestFirst(out)
	return out[:min(limit, len(out))], nil
}

func (m *memStore) CountReadings(_ context.Context, unitID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.unitReadings(unitID)), nil
}

func (m *memStore) CountReadingsByOwner(ctx context.Context, ownerID string) (int, error) {
	rs, err := m.ListRecentReadingsByOwner(ctx, ownerID, 1<<30)
	return len(rs), err
}

func (m *memStore) StreamReadings(_ context.Context, unitID string, fn func(models.SensorReading) error) error {
	m.mu.Lock()
	rs := m.unitReadings(unitID)
	m.mu.Unlock()
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Timestamp < rs[j].Timestamp })
	for _, r := range rs {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// ActivityStore

func (m *memStore) applyLoad(unitID string, change func(*models.CompostUnit) error) (*models.CompostUnit, error) {
	u, ok := m.units[unitID]
	if !ok {
		return nil, compost.ErrNotFound
	}
	locked := *u
	if err := change(&locked); err != nil {
		return nil, err
	}
	*u = locked
	return &locked, nil
}

func (m *memStore) RecordEntry(_ context.Context, e *models.CompostEntry, change func(*models.CompostUnit) error) (*models.CompostUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	unit, err := m.applyLoad(e.CompostUnitID, change)
	if err != nil {
		return nil, err
	}
	e.ID = m.id()
	m.entries = append(m.entries, *e)
	return unit, nil
}

func (m *memStore) RecordHarvest(_ context.Context, h *models.CompostHarvest, change func(*models.CompostUnit) error) (*models.CompostUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	unit, err := m.applyLoad(h.CompostUnitID, change)
	if err != nil {
		return nil, err
	}
	h.ID = m.id()
	m.harvests = append(m.harvests, *h)
	return unit, nil
}

func (m *memStore) ListEntries(_ context.Context, unitID string) ([]models.CompostEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CompostEntry{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].CompostUnitID == unitID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func (m *memStore) ListHarvests(_ context.Context, unitID string) ([]models.CompostHarvest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CompostHarvest{}
	for i := len(m.harvests) - 1; i >= 0; i-- {
		if m.harvests[i].CompostUnitID == unitID {
			out = append(out, m.harvests[i])
		}
	}
	return out, nil
}

func (m *memStore) InsertMonitoringLog(_ context.Context, l *models.MonitoringLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.id()
	m.logs = append(m.logs, *l)
	return nil
}

func (m *memStore) ListMonitoringLogs(_ context.Context, unitID string) ([]models.MonitoringLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.MonitoringLog{}
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].CompostUnitID == unitID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

func (m *memStore) ListMonitoringLogsSince(_ context.Context, unitID string, since time.Time) ([]models.MonitoringLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.MonitoringLog{}
	for _, l := range m.logs {
		if l.CompostUnitID == unitID && l.DateRecorded >= since.Unix() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) ListMaterials(_ context.Context, recommendedOnly bool) ([]models.CompostMaterial, error) {
	out := []models.CompostMaterial{}
	for _, mat := range m.materials {
		if !recommendedOnly || mat.IsRecommended {
			out = append(out, mat)
		}
	}
	return out, nil
}

func (m *memStore) GetMaterial(_ context.Context, id int) (*models.CompostMaterial, error) {
	for _, mat := range m.materials {
		if mat.ID == id {
			cp := mat
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("material %d: %w", id, compost.ErrNotFound)
}

// UserStore

func (m *memStore) UserExists(_ context.Context, email, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateUserWithProfile(_ context.Context, u *models.User, p *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failProfile {
		return errors.New("failed to create user profile: constraint violation")
	}
	cp := *u
	m.users[u.ID] = &cp
	p.UserID = u.ID
	pcp := *p
	m.profiles[u.ID] = &pcp
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, compost.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == login || u.Username == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user: %w", compost.ErrNotFound)
}

func (m *memStore) SetWelcomeShown(_ context.Context, userID string, shown bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return compost.ErrNotFound
	}
	u.WelcomeShown = shown
	return nil
}

func (m *memStore) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile: %w", compost.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) UpsertProfile(_ context.Context, p *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *memStore) RegisterFCMToken(_ context.Context, userID, token, deviceType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = models.FCMToken{ID: m.id(), UserID: userID, Token: token, DeviceType: deviceType}
	return nil
}

func (m *memStore) LatestFCMToken(_ context.Context, userID string) (*models.FCMToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[userID]
	if !ok {
		return nil, fmt.Errorf("fcm token: %w", compost.ErrNotFound)
	}
	return &t, nil
}

// recordingNotifier and recordingFeed capture side-channel calls

type recordingNotifier struct {
	mu    sync.Mutex
	units []string
	err   error
}

func (n *recordingNotifier) NotifyUnitFull(_ context.Context, _ string, unit *models.CompostUnit) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.units = append(n.units, unit.ID)
	return n.err
}

type recordingFeed struct {
	mu       sync.Mutex
	readings map[string][]models.SensorReadingResponse
	full     map[string][]models.CompostUnitResponse
}

func newRecordingFeed() *recordingFeed {
	return &recordingFeed{
		readings: map[string][]models.SensorReadingResponse{},
		full:     map[string][]models.CompostUnitResponse{},
	}
}

func (f *recordingFeed) PublishReading(userID string, r models.SensorReadingResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings[userID] = append(f.readings[userID], r)
}

func (f *recordingFeed) PublishUnitFull(userID string, u models.CompostUnitResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.full[userID] = append(f.full[userID], u)
}

func ptr[T any](v T) *T { return &v }
