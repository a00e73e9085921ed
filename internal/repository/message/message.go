package message

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"wa_outbound/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusRelayed = "relayed"

	defaultPageSize = 20
)

type (
	// Record is one stored envelope. The envelope itself is kept as its wire json.
	Record struct {
		ID        primitive.ObjectID `bson:"_id,omitempty"`
		Owner     string             `bson:"owner"`
		Chat      string             `bson:"chat"`
		MessageID string             `bson:"message_id"`
		Type      string             `bson:"type"`
		Text      string             `bson:"text"`
		Timestamp int64              `bson:"timestamp"`
		Status    string             `bson:"status"`
		Error     string             `bson:"error,omitempty"`
		Envelope  string             `bson:"envelope"`
		CreatedAt time.Time          `bson:"created_at"`
	}

	MessageRepo struct {
		collection *mongo.Collection
		owner      string
	}
)

func NewMessageRepo(db *mongo.Database, owner string) *MessageRepo {
	return &MessageRepo{
		collection: db.Collection("messages"),
		owner:      owner,
	}
}

// EnsureIndexes creates the indexes lookups and searches rely on.
func (r *MessageRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "message_id", Value: 1}}},
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "chat", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	return err
}

func newRecord(owner string, info *model.WebMessageInfo, status string) (*Record, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		Owner:     owner,
		Chat:      info.Key.RemoteJID,
		MessageID: info.Key.ID,
		Timestamp: info.MessageTimestamp,
		Status:    status,
		Envelope:  string(data),
		CreatedAt: time.Now().UTC(),
	}
	if info.Message != nil {
		if f := info.Message.Fragment(); f != nil {
			rec.Type = string(f.Type())
		}
		rec.Text = info.Message.Text()
	}
	return rec, nil
}

func (r *Record) Info() (*model.WebMessageInfo, error) {
	var info model.WebMessageInfo
	if err := json.Unmarshal([]byte(r.Envelope), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Record stores the outcome of one relay attempt in the sender's outbox.
func (r *MessageRepo) Record(ctx context.Context, info *model.WebMessageInfo, result *model.SendResult, sendErr error) error {
	status := StatusSent
	if sendErr != nil || result == nil {
		status = StatusFailed
	}

	rec, err := newRecord(r.owner, info, status)
	if err != nil {
		return err
	}
	if sendErr != nil {
		rec.Error = sendErr.Error()
	}
	_, err = r.Create(ctx, rec)
	return err
}

// Archive stores an envelope relayed on behalf of owner.
func (r *MessageRepo) Archive(ctx context.Context, owner string, info *model.WebMessageInfo) error {
	rec, err := newRecord(owner, info, StatusRelayed)
	if err != nil {
		return err
	}
	_, err = r.Create(ctx, rec)
	return err
}

func (r *MessageRepo) Create(ctx context.Context, rec *Record) (primitive.ObjectID, error) {
	res, err := r.collection.InsertOne(ctx, rec)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, _ := res.InsertedID.(primitive.ObjectID)
	rec.ID = id
	return id, nil
}

func (r *MessageRepo) GetByMessageID(ctx context.Context, owner, messageID string) (*Record, error) {
	filter := bson.M{
		"owner":      owner,
		"message_id": messageID,
	}

	var rec Record
	err := r.collection.FindOne(ctx, filter).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// Search finds owner's messages whose text contains text, newest first.
// Pages start at 1; count <= 0 means the default page size.
func (r *MessageRepo) Search(ctx context.Context, owner, text, chat string, count, page int) (*model.SearchResult, error) {
	if count <= 0 {
		count = defaultPageSize
	}
	if page < 1 {
		page = 1
	}

	filter := bson.M{
		"owner": owner,
		"text":  primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"},
	}
	if chat != "" {
		filter["chat"] = chat
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64((page - 1) * count)).
		SetLimit(int64(count + 1))

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}

	res := &model.SearchResult{Last: len(recs) <= count, Messages: []*model.WebMessageInfo{}}
	if !res.Last {
		recs = recs[:count]
	}
	for i := range recs {
		info, err := recs[i].Info()
		if err != nil {
			return nil, err
		}
		res.Messages = append(res.Messages, info)
	}
	return res, nil
}
