package model

import "time"

type User struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	RFIDUID      string
}

type Course struct {
	ID          string
	Code        string
	Name        string
	Description string
}

type Room struct {
	ID          string
	Building    string
	Number      string
	Floor       int
	Coordinates map[string]float64
}

const (
	EventTypeClass = "class"
	EventTypeExam  = "exam"
)

type Event struct {
	ID        string
	Title     string
	EventType string
	CourseID  string
	RoomID    string
	StartTime time.Time
	EndTime   time.Time
	Lecturer  string
	IsUrgent  bool
}

type Enrollment struct {
	ID       string
	UserID   string
	CourseID string
	Semester string
}

// EventDetail is an Event with its course and room resolved, the shape the
// timetable endpoints serve.
type EventDetail struct {
	Event  Event
	Course Course
	Room   Room
}
