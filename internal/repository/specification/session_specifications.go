package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ByStudentID struct {
	StudentID uuid.UUID
}

func (s ByStudentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("student_id = ?", s.StudentID)
}

type ByMentorID struct {
	MentorID uuid.UUID
}

func (s ByMentorID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("mentor_id = ?", s.MentorID)
}

type ByStatus struct {
	Statuses []string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}

// MentorInbox matches sessions assigned to the mentor plus the open pool,
// excluding questions the mentor asked as a student.
type MentorInbox struct {
	MentorID uuid.UUID
}

func (s MentorInbox) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(
		"(mentor_id = ?) OR (status = ? AND mentor_id IS NULL AND student_id <> ?)",
		s.MentorID, "pending", s.MentorID,
	)
}

// ForUpdate locks the selected rows until the surrounding transaction ends.
type ForUpdate struct{}

func (s ForUpdate) Apply(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
