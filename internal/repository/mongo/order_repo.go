package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"zippty/order-service/internal/domain"
	"zippty/order-service/internal/repository"
)

const (
	ordersCollection = "orders"
	usersCollection  = "users"
	cartsCollection  = "carts"
)

type lineItemDocument struct {
	ProductID string               `bson:"productId"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
	Image     string               `bson:"image"`
}

type orderDocument struct {
	ID                string               `bson:"_id"`
	UserID            string               `bson:"user"`
	Items             []lineItemDocument   `bson:"products"`
	TotalAmount       primitive.Decimal128 `bson:"totalAmount"`
	ShippingAddressID string               `bson:"shippingAddress"`
	PaymentStatus     string               `bson:"paymentStatus"`
	OrderStatus       string               `bson:"orderStatus"`
	PaymentMethod     string               `bson:"paymentMethod,omitempty"`
	PaymentID         *string              `bson:"paymentId,omitempty"`
	PaymentDetails    bson.M               `bson:"paymentDetails,omitempty"`
	Version           int64                `bson:"version"`
	CreatedAt         time.Time            `bson:"createdAt"`
	UpdatedAt         time.Time            `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func newOrderDocument(o *domain.Order) orderDocument {
	doc := orderDocument{
		ID:                o.ID,
		UserID:            o.UserID,
		TotalAmount:       toDecimal128(o.TotalAmount),
		ShippingAddressID: o.ShippingAddressID,
		PaymentStatus:     string(o.PaymentStatus),
		OrderStatus:       string(o.OrderStatus),
		PaymentMethod:     o.PaymentMethod,
		PaymentID:         o.PaymentID,
		Version:           o.Version,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	for _, it := range o.Items {
		doc.Items = append(doc.Items, lineItemDocument{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     toDecimal128(it.Price),
			Image:     it.Image,
		})
	}
	if o.PaymentDetails != nil {
		doc.PaymentDetails = bson.M(o.PaymentDetails)
	}
	return doc
}

func (d orderDocument) toDomain() domain.Order {
	o := domain.Order{
		ID:                d.ID,
		UserID:            d.UserID,
		TotalAmount:       fromDecimal128(d.TotalAmount),
		ShippingAddressID: d.ShippingAddressID,
		PaymentStatus:     domain.PaymentStatus(d.PaymentStatus),
		OrderStatus:       domain.OrderStatus(d.OrderStatus),
		PaymentMethod:     d.PaymentMethod,
		PaymentID:         d.PaymentID,
		Version:           d.Version,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	for _, it := range d.Items {
		o.Items = append(o.Items, domain.LineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     fromDecimal128(it.Price),
			Image:     it.Image,
		})
	}
	if d.PaymentDetails != nil {
		o.PaymentDetails = map[string]any(d.PaymentDetails)
	}
	return o
}

type orderRepo struct {
	orders *mongo.Collection
	log    *log.Helper
}

func NewOrderRepository(db *mongo.Database, logger log.Logger) repository.OrderRepository {
	return &orderRepo{
		orders: db.Collection(ordersCollection),
		log:    log.NewHelper(log.With(logger, "module", "repository/mongo")),
	}
}

func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.Version == 0 {
		order.Version = 1
	}
	if _, err := r.orders.InsertOne(ctx, newOrderDocument(order)); err != nil {
		r.log.Errorf("insert order %s: %v", order.ID, err)
		return err
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDocument
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.log.Errorf("find order %s: %v", id, err)
		return nil, err
	}
	o := doc.toDomain()
	return &o, nil
}

func (r *orderRepo) FindByUser(ctx context.Context, userID string, page repository.Page) ([]domain.Order, int64, error) {
	return r.FindAll(ctx, repository.OrderFilter{UserID: userID}, page)
}

func (r *orderRepo) FindAll(ctx context.Context, filter repository.OrderFilter, page repository.Page) ([]domain.Order, int64, error) {
	page = page.Normalize()
	q := bson.M{}
	if filter.UserID != "" {
		q["user"] = filter.UserID
	}

	total, err := r.orders.CountDocuments(ctx, q)
	if err != nil {
		r.log.Errorf("count orders: %v", err)
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit))
	cur, err := r.orders.Find(ctx, q, opts)
	if err != nil {
		r.log.Errorf("list orders: %v", err)
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var docs []orderDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, total, nil
}

func (r *orderRepo) Update(ctx context.Context, order *domain.Order) error {
	next := order.Version + 1
	now := time.Now().UTC()
	set := bson.M{
		"paymentStatus":  string(order.PaymentStatus),
		"orderStatus":    string(order.OrderStatus),
		"paymentId":      order.PaymentID,
		"paymentDetails": bson.M(order.PaymentDetails),
		"version":        next,
		"updatedAt":      now,
	}
	res, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": order.ID, "version": order.Version},
		bson.M{"$set": set},
	)
	if err != nil {
		r.log.Errorf("update order %s: %v", order.ID, err)
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrStaleVersion
	}
	order.Version = next
	order.UpdatedAt = now
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, id string, version int64) error {
	res, err := r.orders.DeleteOne(ctx, bson.M{"_id": id, "version": version})
	if err != nil {
		r.log.Errorf("delete order %s: %v", id, err)
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrStaleVersion
	}
	return nil
}

// EnsureIndexes creates the indexes the list queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ordersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}
