package store

import (
	"time"

	"gorm.io/datatypes"

	"github.com/scout-helper/tracker/pkg/core"
)

// Session is the persisted state of a Turtle collaboration session.
type Session struct {
	Slug          string
	Password      string
	Collaborating bool
	Contributed   []core.ContributionKey
}

// SessionRecord is the gorm model behind Session.
type SessionRecord struct {
	ID            uint   `gorm:"primarykey"`
	Slug          string `gorm:"uniqueIndex;size:64;not null"`
	Password      string `gorm:"size:128"`
	Collaborating bool   `gorm:"index"`
	Contributed   datatypes.JSONSlice[core.ContributionKey]
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (SessionRecord) TableName() string {
	return "collab_sessions"
}

func recordFrom(s Session) SessionRecord {
	contributed := s.Contributed
	if contributed == nil {
		contributed = []core.ContributionKey{}
	}
	return SessionRecord{
		Slug:          s.Slug,
		Password:      s.Password,
		Collaborating: s.Collaborating,
		Contributed:   datatypes.NewJSONSlice(contributed),
	}
}

func (r SessionRecord) session() Session {
	return Session{
		Slug:          r.Slug,
		Password:      r.Password,
		Collaborating: r.Collaborating,
		Contributed:   []core.ContributionKey(r.Contributed),
	}
}
