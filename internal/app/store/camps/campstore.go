// internal/app/store/camps/campstore.go
package campstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("donation_camps")}
}

var (
	// ErrRegistrationClosed is returned when the camp has ended, was
	// cancelled or paused, or registration never opened.
	ErrRegistrationClosed = errors.New("registration for this camp is closed")
	// ErrCampFull is returned when the roster is at capacity.
	ErrCampFull = errors.New("this camp has reached its maximum number of participants")
	// ErrAlreadyRegistered is returned on duplicate registration.
	ErrAlreadyRegistered = errors.New("you are already registered for this camp")
	// ErrNotRegistered is returned when unregistering a donor who is
	// not on the roster.
	ErrNotRegistered = errors.New("you are not registered for this camp")
)

// Create inserts a new scheduled camp.
func (s *Store) Create(ctx context.Context, c models.DonationCamp) (models.DonationCamp, error) {
	now := time.Now()
	c.ID = primitive.NewObjectID()
	c.Location.City = normalize.Name(c.Location.City)
	c.RegisteredDonors = []models.CampRegistration{}
	c.Status = models.CampStatusScheduled
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.DonationCamp{}, err
	}
	return c, nil
}

// GetByID loads a camp, rolling its status forward when the clock has
// moved past a boundary.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.DonationCamp, error) {
	var c models.DonationCamp
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	if err := s.rollForward(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// rollForward writes the clock-derived status when it differs from the
// stored one. Idempotent; racing readers write the same value.
func (s *Store) rollForward(ctx context.Context, c *models.DonationCamp) error {
	effective := c.EffectiveStatusAt(time.Now())
	if effective == c.Status {
		return nil
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": c.ID, "status": c.Status},
		bson.M{"$set": bson.M{"status": effective, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	c.Status = effective
	return nil
}

// SweepStatuses rolls every camp's status forward in two bulk writes:
// past-end camps complete, in-window camps go ongoing. List paths call
// this so stored statuses read true.
func (s *Store) SweepStatuses(ctx context.Context) error {
	now := time.Now()

	_, err := s.c.UpdateMany(ctx,
		bson.M{
			"status":   bson.M{"$in": bson.A{models.CampStatusScheduled, models.CampStatusOngoing}},
			"end_date": bson.M{"$lt": now},
		},
		bson.M{"$set": bson.M{"status": models.CampStatusCompleted, "updated_at": now}})
	if err != nil {
		return err
	}

	_, err = s.c.UpdateMany(ctx,
		bson.M{
			"status":     models.CampStatusScheduled,
			"start_date": bson.M{"$lte": now},
			"end_date":   bson.M{"$gte": now},
		},
		bson.M{"$set": bson.M{"status": models.CampStatusOngoing, "updated_at": now}})
	return err
}

// ListFilter narrows camp listings.
type ListFilter struct {
	Status     string
	City       string
	PublicOnly bool
}

// List returns a page of camps, soonest first.
func (s *Store) List(ctx context.Context, f ListFilter, page paging.Page) ([]models.DonationCamp, int64, error) {
	if err := s.SweepStatuses(ctx); err != nil {
		return nil, 0, err
	}

	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = normalize.Status(f.Status)
	}
	if f.City != "" {
		filter["location.city"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.City), Options: "i"}
	}
	if f.PublicOnly {
		filter["is_public"] = true
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	find := options.Find()
	page.ApplyToFind(find, bson.D{{Key: "start_date", Value: 1}})
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var camps []models.DonationCamp
	if err := cur.All(ctx, &camps); err != nil {
		return nil, 0, err
	}
	return camps, total, nil
}

// Upcoming lists public scheduled camps that have not started yet,
// soonest first.
func (s *Store) Upcoming(ctx context.Context, page paging.Page) ([]models.DonationCamp, int64, error) {
	if err := s.SweepStatuses(ctx); err != nil {
		return nil, 0, err
	}

	filter := bson.M{
		"status":     models.CampStatusScheduled,
		"start_date": bson.M{"$gte": time.Now()},
		"is_public":  true,
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	find := options.Find()
	page.ApplyToFind(find, bson.D{{Key: "start_date", Value: 1}})
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var camps []models.DonationCamp
	if err := cur.All(ctx, &camps); err != nil {
		return nil, 0, err
	}
	return camps, total, nil
}

// Patch applies the admin-editable fields present in set. Callers
// build set from the request body so absent fields stay untouched.
func (s *Store) Patch(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.DonationCamp, error) {
	set["updated_at"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.DonationCamp
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes a camp and returns the roster so the caller can
// notify registered donors.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return nil, err
	}

	var donorIDs []primitive.ObjectID
	for _, reg := range c.RegisteredDonors {
		if reg.Status != models.CampRegStatusCancelled {
			donorIDs = append(donorIDs, reg.DonorID)
		}
	}
	return donorIDs, nil
}

// Register adds a donor to the roster. The caller checks donor
// eligibility; the store enforces the open window, capacity, and the
// no-duplicate rule.
func (s *Store) Register(ctx context.Context, campID, donorID primitive.ObjectID, slotTime string) (*models.DonationCamp, error) {
	c, err := s.GetByID(ctx, campID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if c.IsRegistered(donorID) {
		return nil, ErrAlreadyRegistered
	}
	if c.SlotsLeft() <= 0 {
		return nil, ErrCampFull
	}
	if !c.RegistrationOpenAt(now) {
		return nil, ErrRegistrationClosed
	}

	entry := models.CampRegistration{
		DonorID:      donorID,
		RegisteredAt: now,
		Status:       models.CampRegStatusRegistered,
		SlotTime:     slotTime,
	}

	// Filter re-checks capacity and the duplicate rule so racing
	// registrations cannot overfill the roster.
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                        campID,
			"status":                     bson.M{"$in": bson.A{models.CampStatusScheduled, models.CampStatusOngoing}},
			"registered_donors.donor_id": bson.M{"$ne": donorID},
			"$expr":                      bson.M{"$lt": bson.A{bson.M{"$size": "$registered_donors"}, "$max_participants"}},
		},
		bson.M{
			"$push": bson.M{"registered_donors": entry},
			"$set":  bson.M{"updated_at": now},
		})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		// Lost a race; re-read to report the right reason.
		c, err = s.GetByID(ctx, campID)
		if err != nil {
			return nil, err
		}
		if c.IsRegistered(donorID) {
			return nil, ErrAlreadyRegistered
		}
		if c.SlotsLeft() <= 0 {
			return nil, ErrCampFull
		}
		return nil, ErrRegistrationClosed
	}

	return s.GetByID(ctx, campID)
}

// Unregister removes a donor from the roster.
func (s *Store) Unregister(ctx context.Context, campID, donorID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": campID},
		bson.M{
			"$pull": bson.M{"registered_donors": bson.M{"donor_id": donorID}},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	if res.ModifiedCount == 0 {
		return ErrNotRegistered
	}
	return nil
}

// RegisteredCamps lists the camps a donor is on the roster of,
// soonest first.
func (s *Store) RegisteredCamps(ctx context.Context, donorID primitive.ObjectID, page paging.Page) ([]models.DonationCamp, int64, error) {
	filter := bson.M{"registered_donors.donor_id": donorID}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	find := options.Find()
	page.ApplyToFind(find, bson.D{{Key: "start_date", Value: 1}})
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var camps []models.DonationCamp
	if err := cur.All(ctx, &camps); err != nil {
		return nil, 0, err
	}
	return camps, total, nil
}

// Count returns the total number of camps.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CountUpcoming returns how many public camps are still scheduled.
func (s *Store) CountUpcoming(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"status":     models.CampStatusScheduled,
		"start_date": bson.M{"$gte": time.Now()},
	})
}
