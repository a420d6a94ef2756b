package team

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/enrollment"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// Team groups learners within a company.
type Team struct {
	types.BaseModel

	CompanyID uuid.UUID  `gorm:"type:uuid;not null;column:company_id;index" json:"companyId"`
	Name      string     `gorm:"type:varchar(120);not null" json:"name"`
	ManagerID *uuid.UUID `gorm:"type:uuid;column:manager_id" json:"managerId,omitempty"`
}

// TableName overrides the default table name.
func (Team) TableName() string { return "teams" }

// Member links a user to a team.
type Member struct {
	types.BaseModel

	TeamID uuid.UUID `gorm:"type:uuid;not null;column:team_id;uniqueIndex:idx_team_members_team_user" json:"teamId"`
	UserID uuid.UUID `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_team_members_team_user;index" json:"userId"`
}

// TableName overrides the default table name.
func (Member) TableName() string { return "team_members" }

// List retrieves a company's teams.
func List(db *gorm.DB, companyID uuid.UUID) ([]Team, error) {
	var teams []Team
	err := db.Where("company_id = ?", companyID).Order("name ASC").Find(&teams).Error
	return teams, err
}

// Get retrieves a team by ID.
func Get(db *gorm.DB, id uuid.UUID) (Team, error) {
	var t Team
	if err := db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return t, ErrTeamNotFound
		}
		return t, err
	}
	return t, nil
}

// Create inserts a team.
func Create(db *gorm.DB, companyID uuid.UUID, name string, managerID *uuid.UUID) (Team, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Team{}, ErrNameRequired
	}

	t := Team{CompanyID: companyID, Name: trimmed, ManagerID: managerID}
	if err := db.Create(&t).Error; err != nil {
		return Team{}, err
	}
	return t, nil
}

// Update modifies a team.
func Update(db *gorm.DB, id uuid.UUID, name string, managerID *uuid.UUID) (Team, error) {
	t, err := Get(db, id)
	if err != nil {
		return t, err
	}

	if trimmed := strings.TrimSpace(name); trimmed != "" {
		t.Name = trimmed
	}
	if managerID != nil {
		t.ManagerID = managerID
	}

	if err := db.Save(&t).Error; err != nil {
		return t, err
	}
	return t, nil
}

// Delete removes a team and its memberships.
func Delete(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		t, err := Get(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Delete(&Member{}).Error; err != nil {
			return err
		}
		return tx.Delete(&t).Error
	})
}

// Members retrieves a team's memberships.
func Members(db *gorm.DB, teamID uuid.UUID) ([]Member, error) {
	var members []Member
	err := db.Where("team_id = ?", teamID).Find(&members).Error
	return members, err
}

// AddMember links a user to a team. Adding twice is an idempotent no-op.
func AddMember(db *gorm.DB, teamID, userID uuid.UUID) (Member, error) {
	if _, err := Get(db, teamID); err != nil {
		return Member{}, err
	}

	m := Member{TeamID: teamID, UserID: userID}
	if err := db.Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing Member
			if err := db.First(&existing, "team_id = ? AND user_id = ?", teamID, userID).Error; err != nil {
				return Member{}, err
			}
			return existing, nil
		}
		return Member{}, err
	}
	return m, nil
}

// RemoveMember unlinks a user from a team.
func RemoveMember(db *gorm.DB, teamID, userID uuid.UUID) error {
	result := db.Where("team_id = ? AND user_id = ?", teamID, userID).Delete(&Member{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// AssignCourse enrolls every member of the team in a course with an optional
// due date. Already-enrolled members keep their existing enrollment.
func AssignCourse(db *gorm.DB, teamID, courseID uuid.UUID, dueDate *time.Time) (int, error) {
	members, err := Members(db, teamID)
	if err != nil {
		return 0, err
	}

	enrolled := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, m := range members {
			if _, err := enrollment.Enroll(tx, m.UserID, courseID, types.EnrollmentSourceTeam, dueDate); err != nil {
				return err
			}
			enrolled++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return enrolled, nil
}
