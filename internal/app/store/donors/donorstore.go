// internal/app/store/donors/donorstore.go
package donorstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	return &Store{c: db.Collection("donors")}
}

// ErrDuplicateProfile is returned when a second profile is created for
// the same user.
var ErrDuplicateProfile = errors.New("a donor profile already exists for this user")

// GetByID loads a donor profile by its own ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Donor, error) {
	var d models.Donor
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByUserID loads the donor profile belonging to a user. Returns
// mongo.ErrNoDocuments when the user has no profile yet.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Donor, error) {
	var d models.Donor
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ProfileUpdate holds the donor-editable profile fields. Upsert writes
// all of them; zero values overwrite.
type ProfileUpdate struct {
	BloodGroup        string
	DateOfBirth       time.Time
	WeightKG          float64
	HeightCM          float64
	IsAvailable       bool
	AvailabilityNotes string
	Medical           models.MedicalConditions
	Location          models.DonorLocation
	Emergency         models.EmergencyContact
}

// Upsert creates or replaces the editable fields of a user's donor
// profile. Verification state, donation counters, and badges survive
// updates.
func (s *Store) Upsert(ctx context.Context, userID primitive.ObjectID, upd ProfileUpdate) (*models.Donor, error) {
	now := time.Now()
	upd.Location.City = normalize.Name(upd.Location.City)

	set := bson.M{
		"blood_group":        normalize.BloodGroup(upd.BloodGroup),
		"date_of_birth":      upd.DateOfBirth,
		"weight_kg":          upd.WeightKG,
		"height_cm":          upd.HeightCM,
		"is_available":       upd.IsAvailable,
		"availability_notes": upd.AvailabilityNotes,
		"medical_conditions": upd.Medical,
		"location":           upd.Location,
		"emergency_contact":  upd.Emergency,
		"updated_at":         now,
	}
	setOnInsert := bson.M{
		"user_id":         userID,
		"total_donations": 0,
		"is_verified":     false,
		"badges":          []models.Badge{},
		"created_at":      now,
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var d models.Donor
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		opts).Decode(&d)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateProfile
		}
		return nil, err
	}
	return &d, nil
}

// CreatePlaceholder inserts an empty profile when a user adds the
// donor role without filling in details. Zero weight and an unknown
// group keep the profile ineligible until it is completed.
func (s *Store) CreatePlaceholder(ctx context.Context, userID primitive.ObjectID) (*models.Donor, error) {
	now := time.Now()
	d := models.Donor{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		BloodGroup:  models.BloodGroupUnknown,
		IsAvailable: false,
		Badges:      []models.Badge{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateProfile
		}
		return nil, err
	}
	return &d, nil
}

// SetAvailability flips the availability flag and notes for a user's
// profile. Returns mongo.ErrNoDocuments when the profile is missing.
func (s *Store) SetAvailability(ctx context.Context, userID primitive.ObjectID, available bool, notes string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{
		"is_available":       available,
		"availability_notes": notes,
		"updated_at":         time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetVerified toggles admin verification on a donor profile.
func (s *Store) SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) error {
	set := bson.M{
		"is_verified": verified,
		"updated_at":  time.Now(),
	}
	unset := bson.M{}
	if verified {
		set["verification_date"] = time.Now()
	} else {
		unset["verification_date"] = ""
	}
	upd := bson.M{"$set": set}
	if len(unset) > 0 {
		upd["$unset"] = unset
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// FindNotifiable returns the verified, available donors whose blood
// group is one of groups and whose city matches (case-insensitive
// substring). This is the request fan-out scan; callers still filter
// by eligibility.
func (s *Store) FindNotifiable(ctx context.Context, groups []string, city string) ([]models.Donor, error) {
	filter := bson.M{
		"blood_group":  bson.M{"$in": groups},
		"is_available": true,
		"is_verified":  true,
	}
	if city != "" {
		filter["location.city"] = primitive.Regex{Pattern: regexp.QuoteMeta(city), Options: "i"}
	}

	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var donors []models.Donor
	if err := cur.All(ctx, &donors); err != nil {
		return nil, err
	}
	return donors, nil
}

// SearchFilter narrows donor listings. Groups wins over BloodGroup
// when both are set.
type SearchFilter struct {
	BloodGroup string
	Groups     []string
	City       string
	Verified   *bool
	Available  *bool
}

// Search lists donor profiles matching the filter, newest first.
func (s *Store) Search(ctx context.Context, f SearchFilter, page paging.Page) ([]models.Donor, int64, error) {
	filter := bson.M{}
	if len(f.Groups) > 0 {
		filter["blood_group"] = bson.M{"$in": f.Groups}
	} else if f.BloodGroup != "" {
		filter["blood_group"] = normalize.BloodGroup(f.BloodGroup)
	}
	if f.City != "" {
		filter["location.city"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.City), Options: "i"}
	}
	if f.Verified != nil {
		filter["is_verified"] = *f.Verified
	}
	if f.Available != nil {
		filter["is_available"] = *f.Available
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	find := options.Find()
	page.ApplyToFind(find, bson.D{{Key: "created_at", Value: -1}})

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var donors []models.Donor
	if err := cur.All(ctx, &donors); err != nil {
		return nil, 0, err
	}
	return donors, total, nil
}

// RecordDonation stamps a verified donation on the donor: bumps the
// counter, moves the last-donation date forward, and awards any badges
// the new total earns. Returns the updated profile and the badge names
// granted by this call.
func (s *Store) RecordDonation(ctx context.Context, donorID primitive.ObjectID, donatedAt time.Time) (*models.Donor, []string, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d models.Donor
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": donorID},
		bson.M{
			"$inc": bson.M{"total_donations": 1},
			"$set": bson.M{
				"last_donation_date": donatedAt,
				"updated_at":         time.Now(),
			},
		},
		opts).Decode(&d)
	if err != nil {
		return nil, nil, err
	}

	var earned []string
	for _, name := range models.BadgesForCount(d.TotalDonations) {
		if !d.HasBadge(name) {
			earned = append(earned, name)
		}
	}
	if len(earned) == 0 {
		return &d, nil, nil
	}

	badges := make([]models.Badge, 0, len(earned))
	now := time.Now()
	for _, name := range earned {
		badges = append(badges, models.Badge{Name: name, EarnedAt: now})
	}
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": donorID},
		bson.M{"$push": bson.M{"badges": bson.M{"$each": badges}}},
		opts).Decode(&d)
	if err != nil {
		return nil, nil, err
	}
	return &d, earned, nil
}

// VerifiedUserIDs returns the user IDs behind every verified donor
// profile. Camp announcements fan out to this set.
func (s *Store) VerifiedUserIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"is_verified": true},
		options.Find().SetProjection(bson.M{"user_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		UserID primitive.ObjectID `bson:"user_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, r := range rows {
		ids[i] = r.UserID
	}
	return ids, nil
}

// UserIDsOf resolves donor profile IDs to their owning user IDs.
func (s *Store) UserIDsOf(ctx context.Context, donorIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(donorIDs) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx,
		bson.M{"_id": bson.M{"$in": donorIDs}},
		options.Find().SetProjection(bson.M{"user_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		UserID primitive.ObjectID `bson:"user_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, r := range rows {
		ids[i] = r.UserID
	}
	return ids, nil
}

// Count returns the total number of donor profiles.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CountAvailable returns how many verified donors are marked available.
func (s *Store) CountAvailable(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"is_available": true, "is_verified": true})
}

// CountByBloodGroup aggregates donor counts per blood group.
func (s *Store) CountByBloodGroup(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$blood_group", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Group string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Group] = row.Count
	}
	return counts, cur.Err()
}
