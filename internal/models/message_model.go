package models

import "time"

// Message is one entry in a session's chat, either text or a file attachment.
// Stored in the `messages` subcollection of the session document.
type Message struct {
	ID        string    `json:"id" firestore:"-"`
	SenderID  string    `json:"senderId" firestore:"senderId"`
	Text      string    `json:"text,omitempty" firestore:"text,omitempty"`
	FileURL   string    `json:"fileUrl,omitempty" firestore:"fileUrl,omitempty"`
	FileName  string    `json:"fileName,omitempty" firestore:"fileName,omitempty"`
	FileType  string    `json:"fileType,omitempty" firestore:"fileType,omitempty"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp,serverTimestamp"`
}
