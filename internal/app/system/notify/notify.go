// internal/app/system/notify/notify.go
//
// Notifier turns domain events into in-app notifications. Fan-out is
// synchronous and best-effort: a failure to notify one recipient is
// logged and never fails the triggering request.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	donorstore "github.com/openblood/donorhub/internal/app/store/donors"
	notificationstore "github.com/openblood/donorhub/internal/app/store/notifications"
	userstore "github.com/openblood/donorhub/internal/app/store/users"
	"github.com/openblood/donorhub/internal/app/system/metrics"
	"github.com/openblood/donorhub/internal/domain/blood"
	"github.com/openblood/donorhub/internal/domain/models"
)

type Notifier struct {
	notifications *notificationstore.Store
	donors        *donorstore.Store
	users         *userstore.Store
	log           *zap.Logger
}

func New(notifications *notificationstore.Store, donors *donorstore.Store, users *userstore.Store, log *zap.Logger) *Notifier {
	return &Notifier{
		notifications: notifications,
		donors:        donors,
		users:         users,
		log:           log,
	}
}

// send creates one notification, swallowing the error.
func (n *Notifier) send(ctx context.Context, msg models.Notification) bool {
	if _, err := n.notifications.Create(ctx, msg); err != nil {
		n.log.Error("notification delivery failed",
			zap.String("type", msg.Type),
			zap.String("user_id", msg.UserID.Hex()),
			zap.Error(err))
		return false
	}
	metrics.NotificationSent(msg.Type)
	return true
}

// NewRequest notifies every eligible donor who could serve the
// request: verified, available, compatible blood group, and a city
// match when the hospital city is set. Returns how many donors were
// notified.
func (n *Notifier) NewRequest(ctx context.Context, r models.BloodRequest) int {
	groups := blood.CompatibleDonors(r.BloodGroup)
	if len(groups) == 0 {
		return 0
	}

	donors, err := n.donors.FindNotifiable(ctx, groups, r.Hospital.City)
	if err != nil {
		n.log.Error("request fan-out scan failed",
			zap.String("request_id", r.ID.Hex()),
			zap.Error(err))
		return 0
	}

	now := time.Now()
	notified := 0
	for _, d := range donors {
		if !d.IsEligibleAt(now) {
			continue
		}
		ok := n.send(ctx, models.Notification{
			UserID:   d.UserID,
			Type:     models.NotifyBloodRequest,
			Title:    fmt.Sprintf("%s blood needed", r.BloodGroup),
			Message:  fmt.Sprintf("%s needs %d unit(s) of %s blood at %s. Urgency: %s.", r.Patient.Name, r.UnitsRequired, r.BloodGroup, r.Hospital.Name, r.Urgency),
			Priority: urgencyPriority(r.Urgency),
			Data:     map[string]any{"request_id": r.ID.Hex()},
		})
		if ok {
			notified++
		}
	}
	return notified
}

// DonorAccepted tells the requester a donor accepted their request.
func (n *Notifier) DonorAccepted(ctx context.Context, r models.BloodRequest, donorName string) {
	n.send(ctx, models.Notification{
		UserID:   r.RequesterID,
		Type:     models.NotifyDonorMatch,
		Title:    "A donor accepted your request",
		Message:  fmt.Sprintf("%s accepted your request for %s blood. Their contact details are on the request page.", donorName, r.BloodGroup),
		Priority: models.PriorityHigh,
		Data:     map[string]any{"request_id": r.ID.Hex()},
	})
}

// RequestCancelled tells each accepted donor the request was
// withdrawn.
func (n *Notifier) RequestCancelled(ctx context.Context, r models.BloodRequest, donorIDs []primitive.ObjectID) {
	userIDs, err := n.donors.UserIDsOf(ctx, donorIDs)
	if err != nil {
		n.log.Error("cancel fan-out lookup failed",
			zap.String("request_id", r.ID.Hex()),
			zap.Error(err))
		return
	}
	for _, uid := range userIDs {
		n.send(ctx, models.Notification{
			UserID:   uid,
			Type:     models.NotifyRequestCancelled,
			Title:    "Blood request cancelled",
			Message:  fmt.Sprintf("The request for %s blood you accepted has been cancelled by the requester.", r.BloodGroup),
			Priority: models.PriorityMedium,
			Data:     map[string]any{"request_id": r.ID.Hex()},
		})
	}
}

// DonationCompleted thanks a donor after the requester confirmed
// their donation.
func (n *Notifier) DonationCompleted(ctx context.Context, r models.BloodRequest, donorID primitive.ObjectID) {
	userIDs, err := n.donors.UserIDsOf(ctx, []primitive.ObjectID{donorID})
	if err != nil || len(userIDs) == 0 {
		n.log.Error("completion lookup failed",
			zap.String("request_id", r.ID.Hex()),
			zap.String("donor_id", donorID.Hex()),
			zap.Error(err))
		return
	}
	n.send(ctx, models.Notification{
		UserID:   userIDs[0],
		Type:     models.NotifyDonationComplete,
		Title:    "Thank you for donating",
		Message:  fmt.Sprintf("Your donation for %s's request was confirmed. You may have saved a life.", r.Patient.Name),
		Priority: models.PriorityMedium,
		Data:     map[string]any{"request_id": r.ID.Hex()},
	})
}

// RequestVerified tells the requester an admin verified (or
// unverified) their request.
func (n *Notifier) RequestVerified(ctx context.Context, r models.BloodRequest, verified bool) {
	title := "Your blood request was verified"
	msg := fmt.Sprintf("Your request for %s blood is now visible to donors.", r.BloodGroup)
	if !verified {
		title = "Your blood request needs attention"
		msg = fmt.Sprintf("Your request for %s blood was unverified by an administrator.", r.BloodGroup)
	}
	n.send(ctx, models.Notification{
		UserID:   r.RequesterID,
		Type:     models.NotifySystemAlert,
		Title:    title,
		Message:  msg,
		Priority: models.PriorityMedium,
		Data:     map[string]any{"request_id": r.ID.Hex()},
	})
}

// DonorVerified tells a donor an admin toggled their verification.
func (n *Notifier) DonorVerified(ctx context.Context, d models.Donor, verified bool) {
	title := "Your donor profile was verified"
	msg := "You will now receive notifications for compatible blood requests."
	if !verified {
		title = "Your donor profile was unverified"
		msg = "An administrator removed your profile's verified status. Contact support if this is unexpected."
	}
	n.send(ctx, models.Notification{
		UserID:   d.UserID,
		Type:     models.NotifySystemAlert,
		Title:    title,
		Message:  msg,
		Priority: models.PriorityMedium,
	})
}

// CampCreated announces a new public camp to every verified donor.
// Returns how many donors were notified.
func (n *Notifier) CampCreated(ctx context.Context, c models.DonationCamp) int {
	if !c.IsPublic {
		return 0
	}
	userIDs, err := n.donors.VerifiedUserIDs(ctx)
	if err != nil {
		n.log.Error("camp announcement scan failed",
			zap.String("camp_id", c.ID.Hex()),
			zap.Error(err))
		return 0
	}

	notified := 0
	for _, uid := range userIDs {
		ok := n.send(ctx, models.Notification{
			UserID:   uid,
			Type:     models.NotifyCampAnnouncement,
			Title:    "New donation camp: " + c.Name,
			Message:  fmt.Sprintf("%s at %s on %s. Register early to reserve a slot.", c.Name, c.Venue, c.StartDate.Format("Jan 2, 2006")),
			Priority: models.PriorityLow,
			Data:     map[string]any{"camp_id": c.ID.Hex()},
		})
		if ok {
			notified++
		}
	}
	return notified
}

// CampDeleted tells the registered donors their camp was called off.
func (n *Notifier) CampDeleted(ctx context.Context, c models.DonationCamp, donorIDs []primitive.ObjectID) {
	userIDs, err := n.donors.UserIDsOf(ctx, donorIDs)
	if err != nil {
		n.log.Error("camp deletion fan-out lookup failed",
			zap.String("camp_id", c.ID.Hex()),
			zap.Error(err))
		return
	}
	for _, uid := range userIDs {
		n.send(ctx, models.Notification{
			UserID:   uid,
			Type:     models.NotifyCampCancelled,
			Title:    "Camp cancelled: " + c.Name,
			Message:  fmt.Sprintf("The donation camp %q scheduled for %s has been cancelled.", c.Name, c.StartDate.Format("Jan 2, 2006")),
			Priority: models.PriorityHigh,
			Data:     map[string]any{"camp_id": c.ID.Hex()},
		})
	}
}

// CampRegistered tells the organizer a donor signed up.
func (n *Notifier) CampRegistered(ctx context.Context, c models.DonationCamp, donorName string) {
	if c.Organizer.UserID == nil {
		return
	}
	n.send(ctx, models.Notification{
		UserID:   *c.Organizer.UserID,
		Type:     models.NotifyCampRegistration,
		Title:    "New camp registration",
		Message:  fmt.Sprintf("%s registered for %s (%d of %d slots taken).", donorName, c.Name, len(c.RegisteredDonors), c.MaxParticipants),
		Priority: models.PriorityLow,
		Data:     map[string]any{"camp_id": c.ID.Hex()},
	})
}

// ClaimReviewed tells the donor their claim was verified or rejected.
func (n *Notifier) ClaimReviewed(ctx context.Context, claim models.DonationClaim, verified bool) {
	typ := models.NotifyClaimVerified
	title := "Donation claim verified"
	msg := "Your reported donation was verified and added to your donation history."
	if !verified {
		typ = models.NotifyClaimRejected
		title = "Donation claim rejected"
		msg = "Your reported donation could not be verified."
		if claim.RejectionReason != "" {
			msg += " Reason: " + claim.RejectionReason
		}
	}
	n.send(ctx, models.Notification{
		UserID:   claim.UserID,
		Type:     typ,
		Title:    title,
		Message:  msg,
		Priority: models.PriorityMedium,
		Data:     map[string]any{"claim_id": claim.ID.Hex()},
	})
}

// Broadcast inserts one announcement per active user, optionally
// restricted to a role, in a single batch write. Returns how many
// users were addressed.
func (n *Notifier) Broadcast(ctx context.Context, title, message, role, priority string) (int, error) {
	userIDs, err := n.users.IDsWithRole(ctx, role)
	if err != nil {
		return 0, err
	}
	if priority == "" {
		priority = models.PriorityMedium
	}

	batch := make([]models.Notification, len(userIDs))
	for i, uid := range userIDs {
		batch[i] = models.Notification{
			UserID:   uid,
			Type:     models.NotifyAdminAnnouncement,
			Title:    title,
			Message:  message,
			Priority: priority,
		}
	}
	if err := n.notifications.CreateMany(ctx, batch); err != nil {
		return 0, err
	}
	for range batch {
		metrics.NotificationSent(models.NotifyAdminAnnouncement)
	}
	return len(batch), nil
}

func urgencyPriority(urgency string) string {
	switch urgency {
	case models.UrgencyCritical:
		return models.PriorityUrgent
	case models.UrgencyHigh:
		return models.PriorityHigh
	default:
		return models.PriorityMedium
	}
}
