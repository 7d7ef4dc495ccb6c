package quests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hearthapp/hearthledger-backend/internal/events"
	"github.com/hearthapp/hearthledger-backend/internal/members"
	"github.com/hearthapp/hearthledger-backend/pkg/config"
	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
	"github.com/hearthapp/hearthledger-backend/pkg/enums"
	pkgerrors "github.com/hearthapp/hearthledger-backend/pkg/errors"
	"github.com/hearthapp/hearthledger-backend/pkg/logger"
)

// TxRunner runs fn inside a single database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// questCountBadges maps quests-completed milestones to the badge they unlock.
var questCountBadges = map[int]enums.Badge{
	1:   enums.BadgeFirstQuest,
	10:  enums.BadgeQuestNovice,
	25:  enums.BadgeQuestVeteran,
	100: enums.BadgeQuestMaster,
}

// streakBadges maps streak-day milestones to the badge they unlock.
var streakBadges = map[int]enums.Badge{
	7:   enums.BadgeStreakWeek,
	30:  enums.BadgeStreakMonth,
	100: enums.BadgeStreakCentury,
}

// Service drives the quest lifecycle: assignment, progress, completion, claim,
// and the event-driven advancement hooks.
type Service interface {
	ListCatalog(ctx context.Context) ([]models.Quest, error)
	ListMine(ctx context.Context, memberID uuid.UUID) ([]models.MemberQuest, error)
	ListBadges(ctx context.Context, memberID uuid.UUID) ([]models.MemberBadge, error)

	// Assign creates a fresh in-progress instance. Re-assignment of an
	// unclaimed instance, or of a claimed non-repeatable quest, is a conflict.
	Assign(ctx context.Context, memberID, questID uuid.UUID) (*models.MemberQuest, error)
	// UpdateProgress clamps to [0, target] and transitions to completed when
	// the target is reached. Returns false when no instance exists or the
	// instance is already claimed.
	UpdateProgress(ctx context.Context, memberID, questID uuid.UUID, newProgress int) (bool, error)
	// Complete forces the completed transition for one-shot quests. Returns
	// false when the instance is missing or already claimed.
	Complete(ctx context.Context, memberID, questID uuid.UUID) (bool, error)
	// Claim grants the XP reward exactly once. Returns false, with no
	// mutation, unless the instance is currently completed.
	Claim(ctx context.Context, memberID, questID uuid.UUID) (bool, error)

	// Event entry points, registered on the dispatcher at startup.
	HandleExpenseLogged(ctx context.Context, evt events.Event) error
	HandleReceiptScanned(ctx context.Context, evt events.Event) error
}

type service struct {
	repo       Repository
	membersSvc members.Service
	tx         TxRunner
	cfg        config.QuestConfig
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires the quest service with its collaborators.
func NewService(repo Repository, membersSvc members.Service, tx TxRunner, cfg config.QuestConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quest repository required")
	}
	if membersSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "member service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if cfg.ProgressPerEvent < 1 {
		cfg.ProgressPerEvent = 1
	}
	return &service{
		repo:       repo,
		membersSvc: membersSvc,
		tx:         tx,
		cfg:        cfg,
		logg:       logg,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) ListCatalog(ctx context.Context) ([]models.Quest, error) {
	rows, err := s.repo.ListQuests(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quest catalog")
	}
	return rows, nil
}

func (s *service) ListMine(ctx context.Context, memberID uuid.UUID) ([]models.MemberQuest, error) {
	rows, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list member quests")
	}
	return rows, nil
}

func (s *service) ListBadges(ctx context.Context, memberID uuid.UUID) ([]models.MemberBadge, error) {
	rows, err := s.repo.ListBadges(ctx, memberID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list member badges")
	}
	return rows, nil
}

func (s *service) Assign(ctx context.Context, memberID, questID uuid.UUID) (*models.MemberQuest, error) {
	quest, err := s.loadQuest(ctx, s.repo, questID)
	if err != nil {
		return nil, err
	}
	if _, err := s.membersSvc.Get(ctx, memberID); err != nil {
		return nil, err
	}

	latest, err := s.repo.GetLatestMemberQuest(ctx, memberID, questID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member quest")
	}
	if latest != nil {
		if latest.Status != enums.QuestStatusClaimed {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "quest already assigned")
		}
		if !quest.Repeatable {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "quest already claimed and is not repeatable")
		}
	}

	now := s.now()
	mq := &models.MemberQuest{
		ID:         uuid.New(),
		MemberID:   memberID,
		QuestID:    questID,
		Status:     enums.QuestStatusInProgress,
		Progress:   0,
		AssignedAt: now,
	}
	if quest.Type == enums.QuestTypeTimed {
		mq.StartedAt = &now
	}
	if err := s.repo.CreateMemberQuest(ctx, mq); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create member quest")
	}
	return mq, nil
}

func (s *service) UpdateProgress(ctx context.Context, memberID, questID uuid.UUID, newProgress int) (bool, error) {
	quest, err := s.loadQuest(ctx, s.repo, questID)
	if err != nil {
		return false, err
	}

	mq, err := s.repo.GetLatestMemberQuest(ctx, memberID, questID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member quest")
	}
	if mq == nil || mq.Status == enums.QuestStatusClaimed {
		return false, nil
	}

	return s.applyProgress(ctx, s.repo, mq, quest, newProgress)
}

func (s *service) Complete(ctx context.Context, memberID, questID uuid.UUID) (bool, error) {
	mq, err := s.repo.GetLatestMemberQuest(ctx, memberID, questID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member quest")
	}
	if mq == nil || mq.Status == enums.QuestStatusClaimed {
		return false, nil
	}
	if mq.Status == enums.QuestStatusCompleted {
		return true, nil
	}

	quest, err := s.loadQuest(ctx, s.repo, questID)
	if err != nil {
		return false, err
	}
	return s.applyProgress(ctx, s.repo, mq, quest, quest.Target)
}

func (s *service) Claim(ctx context.Context, memberID, questID uuid.UUID) (bool, error) {
	quest, err := s.loadQuest(ctx, s.repo, questID)
	if err != nil {
		return false, err
	}

	claimed := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		membersSvc := s.membersSvc.WithTx(tx)

		mq, err := repo.GetLatestMemberQuest(ctx, memberID, questID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member quest")
		}
		if mq == nil || mq.Status != enums.QuestStatusCompleted {
			return nil
		}

		// The conditional update is the exactly-once guard against racing
		// claim calls on the same instance.
		ok, err := repo.MarkClaimed(ctx, mq.ID, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim member quest")
		}
		if !ok {
			return nil
		}

		if err := membersSvc.GrantXP(ctx, memberID, quest.XPReward, true); err != nil {
			return err
		}

		member, err := membersSvc.Get(ctx, memberID)
		if err != nil {
			return err
		}
		if badge, ok := questCountBadges[member.QuestsCompleted]; ok {
			if _, err := repo.GrantBadge(ctx, memberID, badge, s.now()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant badge")
			}
		}

		claimed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// HandleExpenseLogged advances the member's open quests that match the expense
// category, or carry no category at all.
func (s *service) HandleExpenseLogged(ctx context.Context, evt events.Event) error {
	logged, ok := evt.(events.ExpenseLogged)
	if !ok {
		return nil
	}
	return s.advanceQuests(ctx, logged.UserID, logged.HouseholdID, &logged.Category, logged.At)
}

// HandleReceiptScanned advances only category-agnostic quests.
func (s *service) HandleReceiptScanned(ctx context.Context, evt events.Event) error {
	scanned, ok := evt.(events.ReceiptScanned)
	if !ok {
		return nil
	}
	return s.advanceQuests(ctx, scanned.UserID, scanned.HouseholdID, nil, scanned.At)
}

func (s *service) advanceQuests(ctx context.Context, userID, householdID uuid.UUID, category *enums.ExpenseCategory, at time.Time) error {
	member, err := s.membersSvc.GetByUserAndHousehold(ctx, userID, householdID)
	if err != nil {
		return err
	}
	if member == nil {
		return nil
	}

	active, err := s.repo.ListActiveByMember(ctx, member.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active quests")
	}

	for _, aq := range active {
		if !s.categoryMatches(aq.Quest, category) {
			continue
		}
		if !s.windowOpen(aq, at) {
			continue
		}
		mq := aq.Instance
		if _, err := s.applyProgress(ctx, s.repo, &mq, &aq.Quest, mq.Progress+s.cfg.ProgressPerEvent); err != nil {
			return err
		}
	}

	for milestone, badge := range streakBadges {
		if member.Streak >= milestone {
			if _, err := s.repo.GrantBadge(ctx, member.ID, badge, s.now()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant streak badge")
			}
		}
	}
	return nil
}

// applyProgress clamps, persists, and handles the completed transition.
func (s *service) applyProgress(ctx context.Context, repo Repository, mq *models.MemberQuest, quest *models.Quest, newProgress int) (bool, error) {
	if newProgress < 0 {
		newProgress = 0
	}
	if newProgress > quest.Target {
		newProgress = quest.Target
	}

	completing := newProgress >= quest.Target && mq.Status == enums.QuestStatusInProgress
	if newProgress == mq.Progress && !completing {
		return true, nil
	}

	mq.Progress = newProgress
	if completing {
		now := s.now()
		mq.Status = enums.QuestStatusCompleted
		mq.CompletedAt = &now
	}
	if err := repo.UpdateMemberQuest(ctx, mq); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member quest")
	}
	return true, nil
}

func (s *service) categoryMatches(quest models.Quest, category *enums.ExpenseCategory) bool {
	if quest.Category == nil {
		return true
	}
	return category != nil && *quest.Category == *category
}

// windowOpen reports whether the instance can still advance: daily quests are
// bound to the local day they were assigned, weekly quests to the local week,
// timed quests to their deadline.
func (s *service) windowOpen(aq ActiveQuest, at time.Time) bool {
	loc := s.cfg.Location()
	switch aq.Quest.Type {
	case enums.QuestTypeDaily:
		assigned := aq.Instance.AssignedAt.In(loc)
		now := at.In(loc)
		return assigned.Year() == now.Year() && assigned.YearDay() == now.YearDay()
	case enums.QuestTypeWeekly:
		return s.weekStart(aq.Instance.AssignedAt, loc).Equal(s.weekStart(at, loc))
	case enums.QuestTypeTimed:
		if aq.Instance.StartedAt == nil || aq.Quest.TimeLimitSeconds == nil {
			return true
		}
		deadline := aq.Instance.StartedAt.Add(time.Duration(*aq.Quest.TimeLimitSeconds) * time.Second)
		return at.Before(deadline)
	default:
		return true
	}
}

// weekStart truncates t to the start of its local week, honoring the configured
// first weekday.
func (s *service) weekStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	offset := (int(day.Weekday()) - s.cfg.WeekStartDay + 7) % 7
	return day.AddDate(0, 0, -offset)
}

func (s *service) loadQuest(ctx context.Context, repo Repository, questID uuid.UUID) (*models.Quest, error) {
	quest, err := repo.GetQuest(ctx, questID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quest")
	}
	if quest == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quest not found")
	}
	return quest, nil
}
