package models

import "time"

// Delivery is one accepted GitHub webhook call. A delivery is Completed once
// its cards resolved and every card operation succeeded; until then a
// redelivery with the same id runs again.
type Delivery struct {
	ID        string `gorm:"primaryKey"`
	Action    string
	RepoID    int64
	PRURL     string
	Attempts  int
	Completed bool `gorm:"default:false"`
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CardSync records what happened to a single card during a delivery.
type CardSync struct {
	ID         uint   `gorm:"primaryKey"`
	DeliveryID string `gorm:"index"`
	ShortLink  string
	Operation  string
	Column     string
	Status     string
	Error      string
	CreatedAt  time.Time
}
