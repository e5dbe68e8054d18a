package clientstate

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	MaxTeamMembers = 5
	teamVersion    = 1
)

var (
	ErrTeamFull      = errors.New("team is full")
	ErrAlreadyMember = errors.New("already a team member")
	ErrInvalidMember = errors.New("invalid team member")
)

// MemberSummary 是队员信息的冗余副本，不引用服务端记录。
type MemberSummary struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Level    int       `json:"level"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Team 本地组队
type Team struct {
	Name      string          `json:"name"`
	LeaderID  string          `json:"leaderId"`
	Members   []MemberSummary `json:"members"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewTeam 以 leader 作为首名队员创建队伍。
func NewTeam(name string, leader MemberSummary, now time.Time) (*Team, error) {
	team := &Team{Name: strings.TrimSpace(name), LeaderID: strings.TrimSpace(leader.UserID), CreatedAt: now}
	if err := team.AddMember(leader, now); err != nil {
		return nil, err
	}
	return team, nil
}

// AddMember 加入队员；队伍已满或重复加入时返回业务错误。
func (t *Team) AddMember(m MemberSummary, now time.Time) error {
	m.UserID = strings.TrimSpace(m.UserID)
	m.Name = strings.TrimSpace(m.Name)
	if m.UserID == "" || m.Name == "" {
		return ErrInvalidMember
	}
	if t.HasMember(m.UserID) {
		return ErrAlreadyMember
	}
	if len(t.Members) >= MaxTeamMembers {
		return ErrTeamFull
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = now
	}
	t.Members = append(t.Members, m)
	return nil
}

// RemoveMember 移除队员，队长离队时由下一位队员接任。
func (t *Team) RemoveMember(userID string) bool {
	for i, member := range t.Members {
		if member.UserID != userID {
			continue
		}
		t.Members = append(t.Members[:i], t.Members[i+1:]...)
		if t.LeaderID == userID {
			t.LeaderID = ""
			if len(t.Members) > 0 {
				t.LeaderID = t.Members[0].UserID
			}
		}
		return true
	}
	return false
}

func (t *Team) HasMember(userID string) bool {
	for _, member := range t.Members {
		if member.UserID == userID {
			return true
		}
	}
	return false
}

// SaveTeam 写入本地队伍
func SaveTeam(s Storage, team *Team, now time.Time) error {
	return Save(s, KeyTeam, teamVersion, team, now)
}

// LoadTeam 读取本地队伍，不存在时返回 nil。
func LoadTeam(s Storage) (*Team, error) {
	var team Team
	ok, err := Load(s, KeyTeam, teamVersion, &team, migrateTeam)
	if err != nil || !ok {
		return nil, err
	}
	return &team, nil
}

// 版本 0 的队员字段为 {id, name}，队长为第一位成员
func migrateTeam(from int, data json.RawMessage) (json.RawMessage, error) {
	if from != 0 {
		return nil, ErrNoMigration
	}
	var legacy struct {
		Name    string `json:"name"`
		Members []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"members"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	team := Team{Name: legacy.Name, Members: make([]MemberSummary, 0, len(legacy.Members))}
	for _, member := range legacy.Members {
		team.Members = append(team.Members, MemberSummary{UserID: member.ID, Name: member.Name, Level: 1})
	}
	if len(team.Members) > 0 {
		team.LeaderID = team.Members[0].UserID
	}
	return json.Marshal(team)
}
