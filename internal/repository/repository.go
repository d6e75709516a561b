package repository

import (
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Repository aggregate of every repository
type Repository struct {
	Notification NotificationRepository
}

// NewRepository builds the PostgreSQL-backed aggregate
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Notification: NewNotificationRepo(db),
	}
}

// NewMongoRepository builds the MongoDB-backed aggregate
func NewMongoRepository(coll *mongo.Collection) *Repository {
	return &Repository{
		Notification: NewNotificationMongoRepo(coll),
	}
}
