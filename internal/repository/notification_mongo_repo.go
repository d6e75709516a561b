package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"resilinked/backend/internal/model"
)

type notificationMongoRepo struct {
	coll *mongo.Collection
}

// NewNotificationMongoRepo creates the MongoDB NotificationRepository.
// Single transitions use FindOneAndUpdate so the filter and the write are
// one atomic document operation.
func NewNotificationMongoRepo(coll *mongo.Collection) NotificationRepository {
	return &notificationMongoRepo{coll: coll}
}

func (r *notificationMongoRepo) Create(ctx context.Context, n *model.Notification) error {
	_, err := r.coll.InsertOne(ctx, n)
	return err
}

// List runs its reads back to back without a session transaction; a
// concurrent write can land between the page read and the counts.
func (r *notificationMongoRepo) List(ctx context.Context, recipient string, filter NotificationFilter, offset, limit int, markSeen bool) (*NotificationPage, error) {
	query := bson.M{"recipient": recipient}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.IsRead != nil {
		query["isRead"] = *filter.IsRead
	}

	page := &NotificationPage{}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, err
	}
	page.Total = total

	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, query, findOpts)
	if err != nil {
		return nil, err
	}
	page.Items = make([]model.Notification, 0, limit)
	if err := cur.All(ctx, &page.Items); err != nil {
		return nil, err
	}

	if markSeen {
		ids := make([]string, 0, len(page.Items))
		for _, n := range page.Items {
			if !n.IsSeen {
				ids = append(ids, n.ID)
			}
		}
		if len(ids) > 0 {
			_, err := r.coll.UpdateMany(ctx,
				bson.M{"_id": bson.M{"$in": ids}, "recipient": recipient, "isSeen": false},
				bson.M{"$set": bson.M{"isSeen": true}},
			)
			if err != nil {
				return nil, err
			}
			for i := range page.Items {
				page.Items[i].IsSeen = true
			}
		}
	}

	if page.UnreadCount, err = r.coll.CountDocuments(ctx, bson.M{"recipient": recipient, "isRead": false}); err != nil {
		return nil, err
	}
	if page.UnseenCount, err = r.coll.CountDocuments(ctx, bson.M{"recipient": recipient, "isSeen": false}); err != nil {
		return nil, err
	}
	return page, nil
}

func (r *notificationMongoRepo) MarkRead(ctx context.Context, recipient, id string) (*model.Notification, error) {
	return r.updateOne(ctx, recipient, id, bson.M{"isRead": true, "isSeen": true})
}

func (r *notificationMongoRepo) MarkSeen(ctx context.Context, recipient, id string) (*model.Notification, error) {
	return r.updateOne(ctx, recipient, id, bson.M{"isSeen": true})
}

func (r *notificationMongoRepo) updateOne(ctx context.Context, recipient, id string, set bson.M) (*model.Notification, error) {
	var n model.Notification
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "recipient": recipient},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationMongoRepo) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"recipient": recipient, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "isSeen": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *notificationMongoRepo) MarkAllSeen(ctx context.Context, recipient string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"recipient": recipient, "isSeen": false},
		bson.M{"$set": bson.M{"isSeen": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *notificationMongoRepo) Delete(ctx context.Context, recipient, id string) (*model.Notification, error) {
	var n model.Notification
	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id, "recipient": recipient}).Decode(&n)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationMongoRepo) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}
