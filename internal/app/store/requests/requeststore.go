// internal/app/store/requests/requeststore.go
package requeststore

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
	return &Store{c: db.Collection("blood_requests")}
}

var (
	// ErrRequestClosed is returned when responding to a request that is
	// expired, cancelled, completed, or already in progress.
	ErrRequestClosed = errors.New("this request is no longer open for responses")
	// ErrAlreadyResponded is returned when a donor responds twice.
	ErrAlreadyResponded = errors.New("you have already responded to this request")
	// ErrNoAcceptedMatch is returned when completing a donation for a
	// donor who never accepted the request.
	ErrNoAcceptedMatch = errors.New("this donor has not accepted the request")
	// ErrNotOwner is returned when a user acts on a request they did not create.
	ErrNotOwner = errors.New("this request belongs to another user")
	// ErrCannotModify is returned when updating or cancelling a request
	// that already completed or was cancelled.
	ErrCannotModify = errors.New("a completed or cancelled request cannot be changed")
)

// Create inserts a new pending request with a seven-day expiry window.
func (s *Store) Create(ctx context.Context, r models.BloodRequest) (models.BloodRequest, error) {
	now := time.Now()
	r.ID = primitive.NewObjectID()
	r.BloodGroup = normalize.BloodGroup(r.BloodGroup)
	r.Urgency = normalize.Urgency(r.Urgency)
	r.Status = models.RequestStatusPending
	r.MatchedDonors = []models.MatchedDonor{}
	r.CompletedDonations = []models.CompletedDonation{}
	r.TotalUnitsReceived = 0
	r.ExpiresAt = now.AddDate(0, 0, models.RequestTTLDays)
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.BloodRequest{}, err
	}
	return r, nil
}

// GetByID loads a request, lazily flipping it to expired when its
// deadline has passed.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BloodRequest, error) {
	var r models.BloodRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	if err := s.expireIfDue(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// expireIfDue flips a pending request past its deadline to expired.
// Idempotent; racing writers set the same value.
func (s *Store) expireIfDue(ctx context.Context, r *models.BloodRequest) error {
	if !r.IsExpiredAt(time.Now()) {
		return nil
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": r.ID, "status": models.RequestStatusPending},
		bson.M{"$set": bson.M{"status": models.RequestStatusExpired, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	r.Status = models.RequestStatusExpired
	return nil
}

// SweepExpired flips every overdue pending request to expired. List
// paths call this before querying so stored statuses read true.
func (s *Store) SweepExpired(ctx context.Context) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.RequestStatusPending, "expires_at": bson.M{"$lt": time.Now()}},
		bson.M{"$set": bson.M{"status": models.RequestStatusExpired, "updated_at": time.Now()}})
	return err
}

// Respond records a donor's accept or decline. The first accept moves
// the request from pending to matched; declines never change status.
func (s *Store) Respond(ctx context.Context, requestID, donorID primitive.ObjectID, accept bool) (*models.BloodRequest, error) {
	r, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.Status != models.RequestStatusPending && r.Status != models.RequestStatusMatched {
		return nil, ErrRequestClosed
	}
	if r.ResponseOf(donorID) != nil {
		return nil, ErrAlreadyResponded
	}

	now := time.Now()
	status := models.MatchDeclined
	if accept {
		status = models.MatchAccepted
	}
	entry := models.MatchedDonor{
		DonorID:     donorID,
		Status:      status,
		RespondedAt: now,
		UpdatedAt:   now,
	}

	set := bson.M{"updated_at": now}
	if accept {
		// The first accept flips pending to matched; later accepts keep it.
		set["status"] = models.RequestStatusMatched
	}
	// Filter repeats the open-state and no-prior-response checks so a
	// racing duplicate response loses the write.
	filter := bson.M{
		"_id":                     requestID,
		"status":                  bson.M{"$in": bson.A{models.RequestStatusPending, models.RequestStatusMatched}},
		"matched_donors.donor_id": bson.M{"$ne": donorID},
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{
		"$push": bson.M{"matched_donors": entry},
		"$set":  set,
	})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrAlreadyResponded
	}

	return s.GetByID(ctx, requestID)
}

// CompleteDonation records units received from an accepted donor and
// advances the request to in_progress or completed.
func (s *Store) CompleteDonation(ctx context.Context, requestID, requesterID, donorID primitive.ObjectID, units int) (*models.BloodRequest, error) {
	r, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.RequesterID != requesterID {
		return nil, ErrNotOwner
	}
	switch r.Status {
	case models.RequestStatusCompleted, models.RequestStatusCancelled, models.RequestStatusExpired:
		return nil, ErrRequestClosed
	}
	m := r.ResponseOf(donorID)
	if m == nil || m.Status != models.MatchAccepted {
		return nil, ErrNoAcceptedMatch
	}

	now := time.Now()
	newTotal := r.TotalUnitsReceived + units
	status := models.RequestStatusInProgress
	if newTotal >= r.UnitsRequired {
		status = models.RequestStatusCompleted
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.BloodRequest
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": requestID, "matched_donors.donor_id": donorID},
		bson.M{
			"$push": bson.M{"completed_donations": models.CompletedDonation{
				DonorID:   donorID,
				Units:     units,
				DonatedAt: now,
			}},
			"$inc": bson.M{"total_units_received": units},
			"$set": bson.M{
				"status":                      status,
				"matched_donors.$.updated_at": now,
				"updated_at":                  now,
			},
		},
		opts).Decode(&updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Update rewrites the requester-editable fields of an open request.
type Update struct {
	UnitsRequired int
	Urgency       string
	NeededBy      time.Time
	Description   string
	ContactPhone  string
	Hospital      models.HospitalInfo
}

func (s *Store) Update(ctx context.Context, requestID, requesterID primitive.ObjectID, upd Update) (*models.BloodRequest, error) {
	r, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.RequesterID != requesterID {
		return nil, ErrNotOwner
	}
	switch r.Status {
	case models.RequestStatusCompleted, models.RequestStatusCancelled:
		return nil, ErrCannotModify
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.BloodRequest
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": requestID},
		bson.M{"$set": bson.M{
			"units_required": upd.UnitsRequired,
			"urgency":        normalize.Urgency(upd.Urgency),
			"needed_by":      upd.NeededBy,
			"description":    upd.Description,
			"contact_phone":  normalize.Phone(upd.ContactPhone),
			"hospital":       upd.Hospital,
			"updated_at":     time.Now(),
		}},
		opts).Decode(&updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Cancel marks a requester's open request cancelled and returns the
// accepted donors so the caller can notify them.
func (s *Store) Cancel(ctx context.Context, requestID, requesterID primitive.ObjectID) ([]primitive.ObjectID, error) {
	r, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.RequesterID != requesterID {
		return nil, ErrNotOwner
	}
	switch r.Status {
	case models.RequestStatusCompleted, models.RequestStatusCancelled:
		return nil, ErrCannotModify
	}

	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": requestID},
		bson.M{"$set": bson.M{"status": models.RequestStatusCancelled, "updated_at": time.Now()}})
	if err != nil {
		return nil, err
	}
	return r.AcceptedDonorIDs(), nil
}

// SetVerified toggles admin verification on a request. Only verified
// requests are shown to donors and fanned out.
func (s *Store) SetVerified(ctx context.Context, requestID, adminID primitive.ObjectID, verified bool) (*models.BloodRequest, error) {
	set := bson.M{
		"is_verified": verified,
		"updated_at":  time.Now(),
	}
	if verified {
		set["verified_by"] = adminID
		set["verification_date"] = time.Now()
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.BloodRequest
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": requestID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListForRequester returns a requester's own requests, newest first.
func (s *Store) ListForRequester(ctx context.Context, requesterID primitive.ObjectID, page paging.Page) ([]models.BloodRequest, int64, error) {
	if err := s.SweepExpired(ctx); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, bson.M{"requester_id": requesterID}, page)
}

// DonorFeedFilter narrows the open-request feed shown to donors.
type DonorFeedFilter struct {
	Groups  []string // blood groups the donor can serve
	Urgency string
	City    string
}

// OpenForDonor lists verified, unexpired requests a donor could serve,
// newest first.
func (s *Store) OpenForDonor(ctx context.Context, f DonorFeedFilter, page paging.Page) ([]models.BloodRequest, int64, error) {
	if err := s.SweepExpired(ctx); err != nil {
		return nil, 0, err
	}
	filter := bson.M{
		"status":      bson.M{"$in": bson.A{models.RequestStatusPending, models.RequestStatusMatched}},
		"is_verified": true,
	}
	if len(f.Groups) > 0 {
		filter["blood_group"] = bson.M{"$in": f.Groups}
	}
	if f.Urgency != "" {
		filter["urgency"] = normalize.Urgency(f.Urgency)
	}
	if f.City != "" {
		filter["hospital.city"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.City), Options: "i"}
	}
	return s.list(ctx, filter, page)
}

// HistoryForDonor lists the requests a donor has responded to.
func (s *Store) HistoryForDonor(ctx context.Context, donorID primitive.ObjectID, page paging.Page) ([]models.BloodRequest, int64, error) {
	return s.list(ctx, bson.M{"matched_donors.donor_id": donorID}, page)
}

// AdminFilter narrows the admin request console.
type AdminFilter struct {
	Status     string
	BloodGroup string
	Verified   *bool
}

// ListAdmin lists requests for the admin console, newest first.
func (s *Store) ListAdmin(ctx context.Context, f AdminFilter, page paging.Page) ([]models.BloodRequest, int64, error) {
	if err := s.SweepExpired(ctx); err != nil {
		return nil, 0, err
	}
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = normalize.Status(f.Status)
	}
	if f.BloodGroup != "" {
		filter["blood_group"] = normalize.BloodGroup(f.BloodGroup)
	}
	if f.Verified != nil {
		filter["is_verified"] = *f.Verified
	}
	return s.list(ctx, filter, page)
}

func (s *Store) list(ctx context.Context, filter bson.M, page paging.Page) ([]models.BloodRequest, int64, error) {
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

	var requests []models.BloodRequest
	if err := cur.All(ctx, &requests); err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// Count returns the total number of requests.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CountByStatus aggregates request counts per status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.groupCount(ctx, "$status", bson.M{})
}

// CountByBloodGroup aggregates open-request counts per blood group.
func (s *Store) CountByBloodGroup(ctx context.Context) (map[string]int64, error) {
	return s.groupCount(ctx, "$blood_group", bson.M{
		"status": bson.M{"$in": bson.A{models.RequestStatusPending, models.RequestStatusMatched, models.RequestStatusInProgress}},
	})
}

// CountByUrgency aggregates open-request counts per urgency level.
func (s *Store) CountByUrgency(ctx context.Context) (map[string]int64, error) {
	return s.groupCount(ctx, "$urgency", bson.M{
		"status": bson.M{"$in": bson.A{models.RequestStatusPending, models.RequestStatusMatched, models.RequestStatusInProgress}},
	})
}

func (s *Store) groupCount(ctx context.Context, field string, match bson.M) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Key   string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Key] = row.Count
	}
	return counts, cur.Err()
}

// MonthlyPoint is one month of request volume for trend charts.
type MonthlyPoint struct {
	Year      int   `bson:"year" json:"year"`
	Month     int   `bson:"month" json:"month"`
	Requests  int64 `bson:"requests" json:"requests"`
	Completed int64 `bson:"completed" json:"completed"`
}

// MonthlyTrends aggregates request volume per month since the cutoff.
func (s *Store) MonthlyTrends(ctx context.Context, since time.Time) ([]MonthlyPoint, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$created_at"},
				"month": bson.M{"$month": "$created_at"},
			},
			"requests": bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.RequestStatusCompleted}}, 1, 0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var points []MonthlyPoint
	for cur.Next(ctx) {
		var row struct {
			ID struct {
				Year  int `bson:"year"`
				Month int `bson:"month"`
			} `bson:"_id"`
			Requests  int64 `bson:"requests"`
			Completed int64 `bson:"completed"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		points = append(points, MonthlyPoint{
			Year:      row.ID.Year,
			Month:     row.ID.Month,
			Requests:  row.Requests,
			Completed: row.Completed,
		})
	}
	return points, cur.Err()
}

// Recent returns the newest requests for the admin dashboard.
func (s *Store) Recent(ctx context.Context, limit int64) ([]models.BloodRequest, error) {
	find := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var requests []models.BloodRequest
	if err := cur.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
