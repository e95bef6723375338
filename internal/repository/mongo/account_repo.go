package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"zippty/order-service/internal/repository"
)

// idMatch matches a reference stored either as a string or as an ObjectID, since user and
// address documents created by the account module use ObjectIDs.
func idMatch(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$in": bson.A{id, oid}}
	}
	return id
}

type accountRepo struct {
	users *mongo.Collection
	carts *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) repository.AccountRepository {
	return &accountRepo{
		users: db.Collection(usersCollection),
		carts: db.Collection(cartsCollection),
	}
}

func (r *accountRepo) AddressExists(ctx context.Context, userID, addressID string) (bool, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{
		"_id":       idMatch(userID),
		"addresses": idMatch(addressID),
	})
	return n > 0, err
}

func (r *accountRepo) AppendOrder(ctx context.Context, userID, orderID string) error {
	_, err := r.users.UpdateOne(ctx,
		bson.M{"_id": idMatch(userID)},
		bson.M{"$addToSet": bson.M{"orders": orderID}},
	)
	return err
}

func (r *accountRepo) ClearCart(ctx context.Context, userID string) error {
	_, err := r.carts.DeleteOne(ctx, bson.M{"user": idMatch(userID)})
	return err
}
