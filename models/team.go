package models

import "time"

type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	GameType  string    `json:"game_type" db:"game_type"`
	CaptainID int       `json:"captain_id" db:"captain_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Members []TeamMember `json:"members,omitempty" db:"-"`
}

// TeamMember is a roster entry. LeftAt marks members who left the team;
// they no longer count toward eligibility.
type TeamMember struct {
	ID        int        `json:"id" db:"id"`
	TeamID    int        `json:"team_id" db:"team_id"`
	UserID    int        `json:"user_id" db:"user_id"`
	IsCaptain bool       `json:"is_captain" db:"is_captain"`
	JoinedAt  time.Time  `json:"joined_at" db:"joined_at"`
	LeftAt    *time.Time `json:"left_at,omitempty" db:"left_at"`
}

// ActiveMemberIDs returns the user ids of members who have not left.
func (t *Team) ActiveMemberIDs() []int {
	ids := make([]int, 0, len(t.Members))
	for _, m := range t.Members {
		if m.LeftAt == nil {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}

// HasActiveMember reports whether the user is a current member of the team.
func (t *Team) HasActiveMember(userID int) bool {
	for _, m := range t.Members {
		if m.UserID == userID && m.LeftAt == nil {
			return true
		}
	}
	return false
}
