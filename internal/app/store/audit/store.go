// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openblood/donorhub/internal/app/system/paging"
)

// Event types recorded against the admin console and the auth surface.
const (
	EventLoginSuccess      = "login_success"
	EventLoginFailed       = "login_failed"
	EventUserRegistered    = "user_registered"
	EventEmailVerified     = "email_verified"
	EventUserEnabled       = "user_enabled"
	EventUserDisabled      = "user_disabled"
	EventDonorVerified     = "donor_verified"
	EventDonorUnverified   = "donor_unverified"
	EventRequestVerified   = "request_verified"
	EventRequestUnverified = "request_unverified"
	EventClaimVerified     = "claim_verified"
	EventClaimRejected     = "claim_rejected"
	EventAnnouncementSent  = "announcement_sent"
	EventCampCreated       = "camp_created"
	EventCampDeleted       = "camp_deleted"
)

// Event is one audit trail entry. ActorID is who acted; SubjectID is
// who or what was acted on.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	EventType string              `bson:"event_type" json:"eventType"`
	ActorID   *primitive.ObjectID `bson:"actor_id,omitempty" json:"actorId,omitempty"`
	SubjectID *primitive.ObjectID `bson:"subject_id,omitempty" json:"subjectId,omitempty"`
	IP        string              `bson:"ip,omitempty" json:"ip,omitempty"`
	Details   map[string]string   `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows audit trail listings.
type QueryFilter struct {
	EventType string
	ActorID   *primitive.ObjectID
	SubjectID *primitive.ObjectID
	Start     *time.Time
	End       *time.Time
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event. A zero timestamp is filled in.
func (s *Store) Log(ctx context.Context, ev Event) error {
	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, ev)
	return err
}

// Query returns a page of audit events, newest first, with the total
// count of matches.
func (s *Store) Query(ctx context.Context, f QueryFilter, page paging.Page) ([]Event, int64, error) {
	q := bson.M{}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.ActorID != nil {
		q["actor_id"] = f.ActorID
	}
	if f.SubjectID != nil {
		q["subject_id"] = f.SubjectID
	}
	if f.Start != nil || f.End != nil {
		tr := bson.M{}
		if f.Start != nil {
			tr["$gte"] = *f.Start
		}
		if f.End != nil {
			tr["$lte"] = *f.End
		}
		q["timestamp"] = tr
	}

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	find := options.Find()
	page.ApplyToFind(find, bson.D{{Key: "timestamp", Value: -1}})

	cur, err := s.c.Find(ctx, q, find)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
