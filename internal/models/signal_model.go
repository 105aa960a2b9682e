package models

// SessionDescription carries a WebRTC offer or answer between the two
// session participants through the signaling mailbox.
type SessionDescription struct {
	Type string `json:"type" firestore:"type"` // "offer" or "answer"
	SDP  string `json:"sdp" firestore:"sdp"`
}

// IceCandidate is one connectivity candidate appended to a participant's
// mailbox candidate sequence.
type IceCandidate struct {
	Candidate     string `json:"candidate" firestore:"candidate"`
	SDPMid        string `json:"sdpMid,omitempty" firestore:"sdpMid,omitempty"`
	SDPMLineIndex int    `json:"sdpMLineIndex" firestore:"sdpMLineIndex"`
}

// SignalMailbox is the per-participant signaling record stored at
// sessions/{sessionID}/webrtc/{userID}. A caller publishes its offer under
// its own identity; the callee publishes its answer the same way, and each
// side reads the other's record.
type SignalMailbox struct {
	Offer  *SessionDescription `json:"offer,omitempty" firestore:"offer,omitempty"`
	Answer *SessionDescription `json:"answer,omitempty" firestore:"answer,omitempty"`
}
