package quests

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hearthapp/hearthledger-backend/pkg/db"
	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
	"github.com/hearthapp/hearthledger-backend/pkg/enums"
)

// ActiveQuest pairs a member quest instance with its catalog definition.
type ActiveQuest struct {
	Instance models.MemberQuest
	Quest    models.Quest
}

// Repository manages the quest catalog (read-only reference data), member quest
// instances, and badge rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	GetQuest(ctx context.Context, id uuid.UUID) (*models.Quest, error)
	ListQuests(ctx context.Context) ([]models.Quest, error)

	CreateMemberQuest(ctx context.Context, mq *models.MemberQuest) error
	// GetLatestMemberQuest returns the most recently assigned instance for the
	// pair, claimed or not. Nil when the member never held the quest.
	GetLatestMemberQuest(ctx context.Context, memberID, questID uuid.UUID) (*models.MemberQuest, error)
	UpdateMemberQuest(ctx context.Context, mq *models.MemberQuest) error
	// MarkClaimed flips the instance to claimed only if it is still completed.
	// Returns false when another caller already claimed it.
	MarkClaimed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ListActiveByMember(ctx context.Context, memberID uuid.UUID) ([]ActiveQuest, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.MemberQuest, error)

	// GrantBadge inserts the badge row if the member does not hold it yet.
	// Returns true only when a new row was created.
	GrantBadge(ctx context.Context, memberID uuid.UUID, badge enums.Badge, at time.Time) (bool, error)
	ListBadges(ctx context.Context, memberID uuid.UUID) ([]models.MemberBadge, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a quest repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetQuest(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	var quest models.Quest
	err := r.db.WithContext(ctx).First(&quest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quest, nil
}

func (r *repository) ListQuests(ctx context.Context) ([]models.Quest, error) {
	var rows []models.Quest
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateMemberQuest(ctx context.Context, mq *models.MemberQuest) error {
	return r.db.WithContext(ctx).Create(mq).Error
}

func (r *repository) GetLatestMemberQuest(ctx context.Context, memberID, questID uuid.UUID) (*models.MemberQuest, error) {
	var mq models.MemberQuest
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND quest_id = ?", memberID, questID).
		Order("assigned_at DESC").
		First(&mq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mq, nil
}

func (r *repository) UpdateMemberQuest(ctx context.Context, mq *models.MemberQuest) error {
	return r.db.WithContext(ctx).Save(mq).Error
}

func (r *repository) MarkClaimed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MemberQuest{}).
		Where("id = ? AND status = ?", id, enums.QuestStatusCompleted).
		Updates(map[string]any{
			"status":     enums.QuestStatusClaimed,
			"claimed_at": at,
			"updated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListActiveByMember(ctx context.Context, memberID uuid.UUID) ([]ActiveQuest, error) {
	var instances []models.MemberQuest
	if err := r.db.WithContext(ctx).
		Where("member_id = ? AND status = ?", memberID, enums.QuestStatusInProgress).
		Order("assigned_at ASC").
		Find(&instances).Error; err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, nil
	}

	questIDs := make([]uuid.UUID, 0, len(instances))
	for _, mq := range instances {
		questIDs = append(questIDs, mq.QuestID)
	}
	var quests []models.Quest
	if err := r.db.WithContext(ctx).Where("id IN ?", questIDs).Find(&quests).Error; err != nil {
		return nil, err
	}
	questsByID := make(map[uuid.UUID]models.Quest, len(quests))
	for _, q := range quests {
		questsByID[q.ID] = q
	}

	active := make([]ActiveQuest, 0, len(instances))
	for _, mq := range instances {
		quest, ok := questsByID[mq.QuestID]
		if !ok {
			continue
		}
		active = append(active, ActiveQuest{Instance: mq, Quest: quest})
	}
	return active, nil
}

func (r *repository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.MemberQuest, error) {
	var rows []models.MemberQuest
	if err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("assigned_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) GrantBadge(ctx context.Context, memberID uuid.UUID, badge enums.Badge, at time.Time) (bool, error) {
	var existing models.MemberBadge
	err := r.db.WithContext(ctx).
		First(&existing, "member_id = ? AND badge = ?", memberID, badge).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	row := models.MemberBadge{
		ID:       uuid.New(),
		MemberID: memberID,
		Badge:    badge,
		EarnedAt: at,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		// The unique index closes the check-then-insert race.
		if db.IsUniqueViolation(err, "") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) ListBadges(ctx context.Context, memberID uuid.UUID) ([]models.MemberBadge, error) {
	var rows []models.MemberBadge
	if err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("earned_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
