package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"unimate-server/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Store holds the campus dataset in memory: users, courses, rooms, events
// and enrollments. When a state file is configured, every mutation snapshots
// the dataset to disk with an atomic rename.
type Store struct {
	mu sync.RWMutex

	stateFile string
	persistMu sync.Mutex

	usersByID        map[string]model.User
	userIDByUsername map[string]string
	userIDByRFID     map[string]string

	coursesByID    map[string]model.Course
	courseIDByCode map[string]string

	roomsByID   map[string]model.Room
	eventsByID  map[string]model.Event
	enrollments map[string]model.Enrollment
}

type Options struct {
	StateFile string
}

func New() *Store {
	return NewWithOptions(Options{})
}

func NewWithOptions(opts Options) *Store {
	s := &Store{
		stateFile:        opts.StateFile,
		usersByID:        make(map[string]model.User),
		userIDByUsername: make(map[string]string),
		userIDByRFID:     make(map[string]string),
		coursesByID:      make(map[string]model.Course),
		courseIDByCode:   make(map[string]string),
		roomsByID:        make(map[string]model.Room),
		eventsByID:       make(map[string]model.Event),
		enrollments:      make(map[string]model.Enrollment),
	}

	if s.stateFile != "" {
		if err := s.loadFromFile(s.stateFile); err != nil {
			logrus.WithError(err).WithField("path", s.stateFile).Error("store: load state failed")
		}
	}

	return s
}

func (s *Store) CreateUser(u model.User) (model.User, error) {
	if u.Username == "" {
		return model.User{}, errors.New("missing username")
	}

	s.mu.Lock()
	if _, ok := s.userIDByUsername[u.Username]; ok {
		s.mu.Unlock()
		return model.User{}, ErrDuplicate
	}
	if u.RFIDUID != "" {
		if _, ok := s.userIDByRFID[u.RFIDUID]; ok {
			s.mu.Unlock()
			return model.User{}, ErrDuplicate
		}
	}

	u.ID = uuid.NewString()
	s.usersByID[u.ID] = u
	s.userIDByUsername[u.Username] = u.ID
	if u.RFIDUID != "" {
		s.userIDByRFID[u.RFIDUID] = u.ID
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistSnapshot(snapshot)
	return u, nil
}

func (s *Store) GetUser(id string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByID[id]
	return u, ok
}

func (s *Store) GetUserByUsername(username string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.userIDByUsername[username]
	if !ok {
		return model.User{}, false
	}
	return s.usersByID[id], true
}

func (s *Store) GetUserByRFID(rfidUID string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.userIDByRFID[rfidUID]
	if !ok {
		return model.User{}, false
	}
	return s.usersByID[id], true
}

func (s *Store) CreateCourse(c model.Course) (model.Course, error) {
	if c.Code == "" {
		return model.Course{}, errors.New("missing course code")
	}

	s.mu.Lock()
	if _, ok := s.courseIDByCode[c.Code]; ok {
		s.mu.Unlock()
		return model.Course{}, ErrDuplicate
	}
	c.ID = uuid.NewString()
	s.coursesByID[c.ID] = c
	s.courseIDByCode[c.Code] = c.ID
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistSnapshot(snapshot)
	return c, nil
}

func (s *Store) GetCourse(id string) (model.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.coursesByID[id]
	return c, ok
}

func (s *Store) ListCourses() []model.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Course, 0, len(s.coursesByID))
	for _, c := range s.coursesByID {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}

func (s *Store) CreateRoom(r model.Room) (model.Room, error) {
	if r.Building == "" || r.Number == "" {
		return model.Room{}, errors.New("missing building or number")
	}

	s.mu.Lock()
	r.ID = uuid.NewString()
	s.roomsByID[r.ID] = r
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistSnapshot(snapshot)
	return r, nil
}

func (s *Store) ListRooms() []model.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Room, 0, len(s.roomsByID))
	for _, r := range s.roomsByID {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Building != result[j].Building {
			return result[i].Building < result[j].Building
		}
		return result[i].Number < result[j].Number
	})
	return result
}

// FindRoom resolves a free-form destination like "340" or "ENG 340" to a
// room, matching the room number loosely before trying building + number.
func (s *Store) FindRoom(query string) (model.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(query)
	for _, r := range s.roomsByID {
		if strings.Contains(strings.ToLower(r.Number), lower) {
			return r, true
		}
	}

	parts := strings.Fields(query)
	if len(parts) >= 2 {
		building, number := strings.ToLower(parts[0]), strings.ToLower(parts[1])
		for _, r := range s.roomsByID {
			if strings.ToLower(r.Building) == building && strings.Contains(strings.ToLower(r.Number), number) {
				return r, true
			}
		}
	}
	return model.Room{}, false
}

func (s *Store) CreateEvent(e model.Event) (model.Event, error) {
	if e.Title == "" {
		return model.Event{}, errors.New("missing title")
	}
	if e.EventType != model.EventTypeClass && e.EventType != model.EventTypeExam {
		return model.Event{}, errors.New("invalid event type")
	}

	s.mu.Lock()
	if _, ok := s.coursesByID[e.CourseID]; !ok {
		s.mu.Unlock()
		return model.Event{}, ErrNotFound
	}
	if _, ok := s.roomsByID[e.RoomID]; !ok {
		s.mu.Unlock()
		return model.Event{}, ErrNotFound
	}
	e.ID = uuid.NewString()
	s.eventsByID[e.ID] = e
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistSnapshot(snapshot)
	return e, nil
}

func (s *Store) GetEvent(id string) (model.EventDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.eventsByID[id]
	if !ok {
		return model.EventDetail{}, false
	}
	return s.eventDetailLocked(e), true
}

func (s *Store) ListEvents() []model.EventDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.EventDetail, 0, len(s.eventsByID))
	for _, e := range s.eventsByID {
		result = append(result, s.eventDetailLocked(e))
	}
	sortEventDetails(result)
	return result
}

// ListEventsForUser returns the events of every course the user is enrolled
// in, sorted by start time.
func (s *Store) ListEventsForUser(userID string) []model.EventDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enrolled := make(map[string]struct{})
	for _, en := range s.enrollments {
		if en.UserID == userID {
			enrolled[en.CourseID] = struct{}{}
		}
	}

	result := make([]model.EventDetail, 0)
	for _, e := range s.eventsByID {
		if _, ok := enrolled[e.CourseID]; ok {
			result = append(result, s.eventDetailLocked(e))
		}
	}
	sortEventDetails(result)
	return result
}

func (s *Store) Enroll(userID, courseID, semester string) (model.Enrollment, error) {
	s.mu.Lock()
	if _, ok := s.usersByID[userID]; !ok {
		s.mu.Unlock()
		return model.Enrollment{}, ErrNotFound
	}
	if _, ok := s.coursesByID[courseID]; !ok {
		s.mu.Unlock()
		return model.Enrollment{}, ErrNotFound
	}

	// (user, course, semester) is unique; repeating it returns the existing row.
	for _, en := range s.enrollments {
		if en.UserID == userID && en.CourseID == courseID && en.Semester == semester {
			s.mu.Unlock()
			return en, nil
		}
	}

	en := model.Enrollment{ID: uuid.NewString(), UserID: userID, CourseID: courseID, Semester: semester}
	s.enrollments[en.ID] = en
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistSnapshot(snapshot)
	return en, nil
}

func (s *Store) eventDetailLocked(e model.Event) model.EventDetail {
	return model.EventDetail{
		Event:  e,
		Course: s.coursesByID[e.CourseID],
		Room:   s.roomsByID[e.RoomID],
	}
}

func sortEventDetails(events []model.EventDetail) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Event.StartTime.Before(events[j].Event.StartTime)
	})
}

type persistedState struct {
	Version     int                `json:"version"`
	Users       []model.User       `json:"users"`
	Courses     []model.Course     `json:"courses"`
	Rooms       []model.Room       `json:"rooms"`
	Events      []model.Event      `json:"events"`
	Enrollments []model.Enrollment `json:"enrollments"`
	SavedAt     int64              `json:"savedAt"`
}

func (s *Store) snapshotLocked() *persistedState {
	if s.stateFile == "" {
		return nil
	}

	state := &persistedState{Version: 1}
	for _, u := range s.usersByID {
		state.Users = append(state.Users, u)
	}
	for _, c := range s.coursesByID {
		state.Courses = append(state.Courses, c)
	}
	for _, r := range s.roomsByID {
		state.Rooms = append(state.Rooms, r)
	}
	for _, e := range s.eventsByID {
		state.Events = append(state.Events, e)
	}
	for _, en := range s.enrollments {
		state.Enrollments = append(state.Enrollments, en)
	}
	return state
}

func (s *Store) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	if state.Version != 1 {
		return errors.New("unsupported state version")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range state.Users {
		if u.ID == "" || u.Username == "" {
			continue
		}
		s.usersByID[u.ID] = u
		s.userIDByUsername[u.Username] = u.ID
		if u.RFIDUID != "" {
			s.userIDByRFID[u.RFIDUID] = u.ID
		}
	}
	for _, c := range state.Courses {
		if c.ID == "" || c.Code == "" {
			continue
		}
		s.coursesByID[c.ID] = c
		s.courseIDByCode[c.Code] = c.ID
	}
	for _, r := range state.Rooms {
		if r.ID != "" {
			s.roomsByID[r.ID] = r
		}
	}
	for _, e := range state.Events {
		if e.ID != "" {
			s.eventsByID[e.ID] = e
		}
	}
	for _, en := range state.Enrollments {
		if en.ID != "" {
			s.enrollments[en.ID] = en
		}
	}
	return nil
}

func (s *Store) persistSnapshot(state *persistedState) {
	if state == nil || s.stateFile == "" {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	path := s.stateFile
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		logrus.WithError(err).WithField("dir", dir).Error("store: mkdir failed")
		return
	}

	state.SavedAt = time.Now().UnixMilli()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		logrus.WithError(err).Error("store: marshal state failed")
		return
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		logrus.WithError(err).Error("store: create temp failed")
		return
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		logrus.WithError(err).Error("store: chmod temp failed")
		return
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		logrus.WithError(err).Error("store: write temp failed")
		return
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		logrus.WithError(err).Error("store: sync temp failed")
		return
	}
	if err := tmp.Close(); err != nil {
		logrus.WithError(err).Error("store: close temp failed")
		return
	}
	if err := os.Rename(tmpName, path); err != nil {
		logrus.WithError(err).Error("store: rename failed")
	}
}
