package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/addinfi/makemyposts-be/internal/core/automation"
	"github.com/addinfi/makemyposts-be/internal/core/jobs"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/repositories"
	"github.com/addinfi/makemyposts-be/internal/shared/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SweepBatchSize caps how many due posts one sweep claims
const SweepBatchSize = 100

// PostEnqueuer queues a claimed post for publishing
type PostEnqueuer interface {
	EnqueuePublishPost(ctx context.Context, userID uuid.UUID, postID string) (*jobs.Job, error)
}

// PublishService moves due posts through the job queue to the publish
// workflow. It is the handler for publish_post jobs.
type PublishService struct {
	posts    repositories.PostRepo
	social   *SocialService
	queue    PostEnqueuer
	workflow *automation.Client
	url      string
	now      func() time.Time
}

func NewPublishService(
	posts repositories.PostRepo,
	social *SocialService,
	queue PostEnqueuer,
	workflow *automation.Client,
	publishURL string,
) *PublishService {
	return &PublishService{
		posts:    posts,
		social:   social,
		queue:    queue,
		workflow: workflow,
		url:      publishURL,
		now:      time.Now,
	}
}

// SweepDue claims posts whose time has come and queues one job per post
func (s *PublishService) SweepDue(ctx context.Context) error {
	claimed, err := s.posts.ClaimDue(ctx, s.now(), SweepBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim due posts: %w", err)
	}

	var errs []error
	for _, post := range claimed {
		if _, err := s.queue.EnqueuePublishPost(ctx, post.UserID, post.ID.String()); err != nil {
			errs = append(errs, err)
			if merr := s.posts.MarkFailed(ctx, post.ID, "failed to queue: "+err.Error()); merr != nil {
				log.Printf("❌ Failed to mark post %s failed: %v", post.ID, merr)
			}
		}
	}
	if len(claimed) > 0 {
		log.Printf("⏰ Queued %d due post(s) for publishing", len(claimed)-len(errs))
	}
	return errors.Join(errs...)
}

func (s *PublishService) GetType() string {
	return jobs.TypePublishPost
}

// Handle publishes one post through the publish workflow
func (s *PublishService) Handle(ctx context.Context, job *jobs.Job) error {
	var payload jobs.PublishPostPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid publish payload: %w", err)
	}
	postID, err := uuid.Parse(payload.PostID)
	if err != nil {
		return fmt.Errorf("invalid post id %q: %w", payload.PostID, err)
	}

	post, err := s.posts.GetByID(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Deleted after it was queued.
		log.Printf("⚠️ Post %s no longer exists, skipping", postID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load post: %w", err)
	}
	if post.Status != models.PostStatusPublishing {
		log.Printf("⚠️ Post %s is %s, not publishing, skipping", postID, post.Status)
		return nil
	}

	accessToken, err := s.social.AccessToken(ctx, post.UserID.String(), post.Platform)
	if err != nil {
		return fmt.Errorf("no %s token: %w", post.Platform, err)
	}

	_, err = s.workflow.Trigger(ctx, s.url, map[string]interface{}{
		"postId":      post.ID.String(),
		"platform":    post.Platform,
		"caption":     post.Caption,
		"imageUrl":    post.ImageURL,
		"accessToken": accessToken,
	})
	if err != nil {
		return err
	}

	if err := s.posts.MarkPosted(ctx, post.ID, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to mark post posted: %w", err)
	}
	utils.LogInfo("post published", map[string]interface{}{"post_id": post.ID.String(), "platform": post.Platform})
	return nil
}

// OnFailure runs once retries are exhausted
func (s *PublishService) OnFailure(ctx context.Context, job *jobs.Job, cause error) {
	var payload jobs.PublishPostPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return
	}
	postID, err := uuid.Parse(payload.PostID)
	if err != nil {
		return
	}
	if err := s.posts.MarkFailed(ctx, postID, cause.Error()); err != nil {
		log.Printf("❌ Failed to mark post %s failed: %v", postID, err)
		return
	}
	utils.LogError("publishing failed", cause, map[string]interface{}{"post_id": postID.String(), "attempts": job.Attempts})
}
