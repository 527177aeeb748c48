package store

import (
	"time"

	"github.com/sirupsen/logrus"
	"unimate-server/internal/auth"
	"unimate-server/internal/model"
)

// SeedDemoData loads the demo campus dataset used by the kiosk demos: a few
// users with registered RFID cards, courses, rooms and a week of events.
// Seeding an already-populated store is a no-op.
func (s *Store) SeedDemoData() error {
	if _, ok := s.GetUserByUsername("alice"); ok {
		return nil
	}

	users := []struct {
		username, password, first, last, rfid string
	}{
		{"alice", "Pass123!", "Alice", "Wonderland", "04A1B2C3D4"},
		{"bob", "Pass123!", "Bob", "Builder", "04B5C6D7E8"},
		{"carol", "Pass123!", "Carol", "Danvers", "0499AA11BB"},
		{"testuser", "password123", "Test", "User", "5A653600"},
	}
	userIDs := make(map[string]string)
	for _, u := range users {
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			return err
		}
		created, err := s.CreateUser(model.User{
			Username:     u.username,
			FirstName:    u.first,
			LastName:     u.last,
			Email:        u.username + "@example.com",
			PasswordHash: hash,
			RFIDUID:      u.rfid,
		})
		if err != nil {
			return err
		}
		userIDs[u.username] = created.ID
	}

	courses := []model.Course{
		{Code: "ENGGEN205", Name: "Engineering Mechanics", Description: "Introduction to static and dynamic mechanics, force analysis and equilibrium."},
		{Code: "ENGGEN131", Name: "Introduction to Engineering", Description: "Fundamentals of engineering design and problem-solving methodologies."},
		{Code: "COMPSCI101", Name: "Introduction to Computer Science", Description: "Fundamental concepts of computer science and programming."},
		{Code: "COMPSCI220", Name: "Data Structures and Algorithms", Description: "Advanced data structures, algorithm analysis, and complexity theory."},
		{Code: "STATS100", Name: "Introduction to Statistics", Description: "Basic statistical concepts, probability distributions, and hypothesis testing."},
	}
	courseIDs := make(map[string]string)
	for _, c := range courses {
		created, err := s.CreateCourse(c)
		if err != nil {
			return err
		}
		courseIDs[c.Code] = created.ID
	}

	rooms := []model.Room{
		{Building: "ENG", Number: "401-403", Floor: 4, Coordinates: map[string]float64{"x": 10, "y": 5, "z": 0}},
		{Building: "ENG", Number: "301", Floor: 3, Coordinates: map[string]float64{"x": 8, "y": 4, "z": 0}},
		{Building: "ENG", Number: "105", Floor: 1, Coordinates: map[string]float64{"x": 4, "y": 2, "z": 0}},
		{Building: "SCI", Number: "101A", Floor: 1, Coordinates: map[string]float64{"x": -5, "y": 2, "z": 1}},
		{Building: "LIB", Number: "G02 (Study Hall)", Floor: 0, Coordinates: map[string]float64{"x": 0, "y": 0, "z": 0}},
	}
	roomIDs := make([]string, 0, len(rooms))
	for _, r := range rooms {
		created, err := s.CreateRoom(r)
		if err != nil {
			return err
		}
		roomIDs = append(roomIDs, created.ID)
	}

	day := time.Now().Truncate(24 * time.Hour)
	events := []model.Event{
		{Title: "Engineering Mechanics Lecture", EventType: model.EventTypeClass, CourseID: courseIDs["ENGGEN205"], RoomID: roomIDs[0], StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour), Lecturer: "Dr. Smith"},
		{Title: "Intro to Engineering Tutorial", EventType: model.EventTypeClass, CourseID: courseIDs["ENGGEN131"], RoomID: roomIDs[1], StartTime: day.Add(11 * time.Hour), EndTime: day.Add(12 * time.Hour), Lecturer: "Dr. Jones"},
		{Title: "Programming Lab", EventType: model.EventTypeClass, CourseID: courseIDs["COMPSCI101"], RoomID: roomIDs[2], StartTime: day.Add(13 * time.Hour), EndTime: day.Add(15 * time.Hour), Lecturer: "Prof. Lee"},
		{Title: "Algorithms Midterm", EventType: model.EventTypeExam, CourseID: courseIDs["COMPSCI220"], RoomID: roomIDs[3], StartTime: day.Add(38 * time.Hour), EndTime: day.Add(40 * time.Hour), Lecturer: "Prof. Lee", IsUrgent: true},
		{Title: "Statistics Lecture", EventType: model.EventTypeClass, CourseID: courseIDs["STATS100"], RoomID: roomIDs[4], StartTime: day.Add(58 * time.Hour), EndTime: day.Add(59 * time.Hour), Lecturer: "Dr. Gauss"},
	}
	for _, e := range events {
		if _, err := s.CreateEvent(e); err != nil {
			return err
		}
	}

	enrollments := []struct{ username, course string }{
		{"alice", "ENGGEN205"},
		{"alice", "COMPSCI101"},
		{"bob", "ENGGEN131"},
		{"carol", "STATS100"},
		{"testuser", "COMPSCI101"},
		{"testuser", "COMPSCI220"},
	}
	for _, en := range enrollments {
		if _, err := s.Enroll(userIDs[en.username], courseIDs[en.course], "2025-S2"); err != nil {
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"users":   len(users),
		"courses": len(courses),
		"rooms":   len(rooms),
		"events":  len(events),
	}).Info("store: seeded demo data")
	return nil
}
