package chat

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Message 会话里的一条消息
type Message struct {
	SessionID string    `bson:"session_id" json:"session_id"`
	Role      string    `bson:"role" json:"role"` // user / bot
	Text      string    `bson:"text" json:"text"`
	Ts        time.Time `bson:"ts" json:"ts"`
}

// History 聊天记录存储接口
type History interface {
	Append(ctx context.Context, msg Message) error
	BySession(ctx context.Context, sessionID string) ([]Message, error)
}

// MongoHistory 落 mongo 的实现，按 session_id 查询
type MongoHistory struct {
	coll *mongo.Collection
}

func NewMongoHistory(client *mongo.Client, dbName string) *MongoHistory {
	return &MongoHistory{
		coll: client.Database(dbName).Collection("chat_messages"),
	}
}

func (h *MongoHistory) Append(ctx context.Context, msg Message) error {
	_, err := h.coll.InsertOne(ctx, msg)
	return err
}

func (h *MongoHistory) BySession(ctx context.Context, sessionID string) ([]Message, error) {
	cur, err := h.coll.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.M{"ts": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var list []Message
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
