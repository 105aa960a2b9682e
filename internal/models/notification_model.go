package models

import "time"

// Notification is an in-app message delivered to a single recipient.
// Created as a side effect of booking and feedback events; only the
// recipient mutates the read flag or deletes it.
type Notification struct {
	ID        string    `json:"id" firestore:"-"`
	UserID    string    `json:"userId" firestore:"userId"`
	Message   string    `json:"message" firestore:"message"`
	Link      string    `json:"link,omitempty" firestore:"link"`
	IsRead    bool      `json:"isRead" firestore:"isRead"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp,serverTimestamp"`
}
