package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/referral"
	templates "github.com/talowa/referral-api/templates/html"
)

// Scheduler handles periodic background jobs for the referral program
type Scheduler struct {
	cron       *cron.Cron
	UDB        databases.UserDatabase
	EDB        databases.ReferralEventDatabase
	PVDB       databases.PendingVerificationDatabase
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	uDB databases.UserDatabase,
	eDB databases.ReferralEventDatabase,
	pvDB databases.PendingVerificationDatabase,
	lockDB databases.SchedulerLockDatabase,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		UDB:        uDB,
		EDB:        eDB,
		PVDB:       pvDB,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Purge stale phone verifications hourly
	_, err := s.cron.AddFunc("0 * * * *", s.purgeExpiredVerifications)
	if err != nil {
		zap.S().Errorw("failed to register verification purge job", "error", err)
	}

	// Audit ranks daily at 3 AM UTC. Crediting promotes inline, this sweep
	// catches anything a partial deploy or manual data fix left behind.
	_, err = s.cron.AddFunc("0 3 * * *", s.auditRanks)
	if err != nil {
		zap.S().Errorw("failed to register rank audit job", "error", err)
	}

	// Weekly growth digest on Mondays at 6 AM UTC
	_, err = s.cron.AddFunc("0 6 * * 1", s.sendWeeklyDigest)
	if err != nil {
		zap.S().Errorw("failed to register weekly digest job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Referral scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Referral scheduler stopped")
}

// purgeExpiredVerifications removes OTP entries older than 24 hours
func (s *Scheduler) purgeExpiredVerifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "verification_purge_job", s.instanceID, 5*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for verification purge job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Verification purge job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "verification_purge_job", s.instanceID)

	cutoff := time.Now().Add(-24 * time.Hour)
	deleted, err := s.PVDB.DeleteMany(ctx, bson.M{
		"createdAt": bson.M{"$lt": primitive.NewDateTimeFromTime(cutoff)},
	})
	if err != nil {
		zap.S().Errorw("failed to purge expired verifications", "error", err)
		return
	}
	if deleted > 0 {
		zap.S().Infow("purged expired verifications", "count", deleted, "instance", s.instanceID)
	}
}

// auditRanks bulk-promotes users who meet both thresholds of a tier but
// still carry a lower rank. Walks the ladder top-down so each user lands on
// the highest tier they qualify for in one pass. Never demotes.
func (s *Scheduler) auditRanks() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "rank_audit_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for rank audit job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Rank audit job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "rank_audit_job", s.instanceID)

	zap.S().Infow("Running rank audit job", "instance", s.instanceID)

	var promoted int64
	for i := len(referral.Ladder) - 1; i > 0; i-- {
		tier := referral.Ladder[i]
		n, err := s.UDB.PromoteRanksMatching(ctx, tier.MinDirect, tier.MinTeam, tier.Tier, tier.Name)
		if err != nil {
			zap.S().Errorw("rank audit pass failed", "tier", tier.Name, "error", err)
			return
		}
		promoted += n
	}

	zap.S().Infow("Rank audit completed", "promoted", promoted)

	// inline crediting should keep ranks current, so any promotion here
	// means something bypassed it and the admins should hear about it
	if promoted > 0 {
		alertEmail := os.Getenv("ADMIN_DIGEST_EMAIL")
		if alertEmail == "" {
			return
		}
		body := fmt.Sprintf("The nightly rank audit promoted %d member(s) whose stored rank lagged their referral counters.\nRecurring promotions from this sweep usually point at a partial deploy or a manual data fix worth reviewing.", promoted)
		html := templates.RenderGenericEmail("Rank Audit Promotions", body)
		if err := s.sendEmail(alertEmail, "", "TALOWA Rank Audit Promotions", html, body); err != nil {
			zap.S().Errorw("failed to send rank audit alert", "error", err)
		}
	}
}

// sendWeeklyDigest emails a growth summary to the program admins
func (s *Scheduler) sendWeeklyDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "weekly_digest_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for weekly digest job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Weekly digest job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "weekly_digest_job", s.instanceID)

	digestEmail := os.Getenv("ADMIN_DIGEST_EMAIL")
	if digestEmail == "" {
		zap.S().Debug("ADMIN_DIGEST_EMAIL not set, skipping weekly digest")
		return
	}

	since := primitive.NewDateTimeFromTime(time.Now().Add(-7 * 24 * time.Hour))

	newUsers, err := s.UDB.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
	if err != nil {
		zap.S().Errorw("failed to count new users", "error", err)
		return
	}
	creditings, err := s.EDB.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
	if err != nil {
		zap.S().Errorw("failed to count referral events", "error", err)
		return
	}

	topOpts := options.Find().SetSort(bson.M{"directReferrals": -1}).SetLimit(5)
	topReferrers, err := s.UDB.Find(ctx, bson.M{"directReferrals": bson.M{"$gt": 0}}, topOpts)
	if err != nil {
		zap.S().Errorw("failed to load top referrers", "error", err)
		return
	}

	rows := make([]templates.DigestRow, 0, len(topReferrers))
	for _, u := range topReferrers {
		rows = append(rows, templates.DigestRow{
			Name:            u.Name,
			RankName:        u.RankName,
			DirectReferrals: u.DirectReferrals,
			TeamSize:        u.TeamSize,
		})
	}

	html := templates.RenderWeeklyDigest(newUsers, creditings, rows)
	plain := fmt.Sprintf("TALOWA weekly digest: %d new members, %d successful referrals in the last 7 days.", newUsers, creditings)

	if err := s.sendEmail(digestEmail, "", "TALOWA Weekly Referral Digest", html, plain); err != nil {
		zap.S().Errorw("failed to send weekly digest", "error", err)
		return
	}

	zap.S().Infow("Weekly digest sent", "newUsers", newUsers, "creditings", creditings)
}

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("TALOWA", "no-reply@talowa.org")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
