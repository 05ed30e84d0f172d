package scope

import "gorm.io/gorm"

func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// OrderByRating ranks mentors for discovery.
func OrderByRating(db *gorm.DB) *gorm.DB {
	return db.Order("rating_average DESC").Order("sessions_resolved DESC")
}
