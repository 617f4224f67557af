package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/models"
)

// UserService handles user lookup and follow relationships.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns one page of users ordered by registration time.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Order("created_at, id").
		Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Follow subscribes follower to followee. The unique (follower, followee)
// index is authoritative: a concurrent duplicate insert surfaces as
// ErrAlreadyExists, same as the pre-check.
func (s *UserService) Follow(ctx context.Context, followerID, followeeID uuid.UUID) (*models.Follow, error) {
	if followerID == followeeID {
		return nil, ErrSelfFollow
	}

	if _, err := s.GetUser(ctx, followeeID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyExists
	}

	follow := models.Follow{FollowerID: followerID, FolloweeID: followeeID}
	if err := s.db.WithContext(ctx).Create(&follow).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return &follow, nil
}

// Unfollow removes the subscription, failing when it was never there.
func (s *UserService) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if _, err := s.GetUser(ctx, followeeID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRelationMissing
	}
	return nil
}

// Subscription is a followed user together with a slice of their latest
// recipes and the total count.
type Subscription struct {
	User         models.User
	Recipes      []models.Recipe
	RecipesCount int64
}

// ListSubscriptions returns one page of the users the follower subscribes
// to, each annotated with up to recipesLimit of their newest recipes.
// recipesLimit <= 0 means no per-user cap.
func (s *UserService) ListSubscriptions(ctx context.Context, followerID uuid.UUID, recipesLimit, limit, offset int) ([]Subscription, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", followerID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var follows []models.Follow
	if err := s.db.WithContext(ctx).
		Preload("Followee").
		Where("follower_id = ?", followerID).
		Order("created_at DESC, id").
		Limit(limit).Offset(offset).
		Find(&follows).Error; err != nil {
		return nil, 0, err
	}

	if len(follows) == 0 {
		return []Subscription{}, total, nil
	}

	authorIDs := make([]uuid.UUID, len(follows))
	for i, f := range follows {
		authorIDs[i] = f.FolloweeID
	}

	// One grouped query for all recipe counts on the page.
	type authorCount struct {
		AuthorID uuid.UUID
		Total    int64
	}
	var counts []authorCount
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&counts).Error; err != nil {
		return nil, 0, err
	}
	countByAuthor := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		countByAuthor[c.AuthorID] = c.Total
	}

	subs := make([]Subscription, 0, len(follows))
	for _, f := range follows {
		q := s.db.WithContext(ctx).
			Where("author_id = ?", f.FolloweeID).
			Order("created_at DESC, id")
		if recipesLimit > 0 {
			q = q.Limit(recipesLimit)
		}
		var recipes []models.Recipe
		if err := q.Find(&recipes).Error; err != nil {
			return nil, 0, err
		}
		subs = append(subs, Subscription{
			User:         f.Followee,
			Recipes:      recipes,
			RecipesCount: countByAuthor[f.FolloweeID],
		})
	}
	return subs, total, nil
}

// SubscriptionFor builds the subscription payload for one followee.
// recipesLimit <= 0 means no cap.
func (s *UserService) SubscriptionFor(ctx context.Context, followeeID uuid.UUID, recipesLimit int) (*Subscription, error) {
	user, err := s.GetUser(ctx, followeeID)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", followeeID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).
		Where("author_id = ?", followeeID).
		Order("created_at DESC, id")
	if recipesLimit > 0 {
		q = q.Limit(recipesLimit)
	}
	var recipes []models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, err
	}

	return &Subscription{User: *user, Recipes: recipes, RecipesCount: total}, nil
}

// SubscribedSet reports, in one query, which of the given users the
// follower subscribes to. A nil follower (anonymous) subscribes to nobody.
func (s *UserService) SubscribedSet(ctx context.Context, followerID *uuid.UUID, userIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	set := make(map[uuid.UUID]bool, len(userIDs))
	if followerID == nil || len(userIDs) == 0 {
		return set, nil
	}

	var followeeIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id IN ?", *followerID, userIDs).
		Pluck("followee_id", &followeeIDs).Error; err != nil {
		return nil, err
	}
	for _, id := range followeeIDs {
		set[id] = true
	}
	return set, nil
}
