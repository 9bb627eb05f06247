// Package dynamo stores customer records in a DynamoDB table keyed by "uid".
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/service/loyalty"
)

// API is the subset of the DynamoDB client the repository uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Options configures the AWS client.
type Options struct {
	Table     string
	Region    string
	Profile   string
	AccessKey string
	SecretKey string
	Endpoint  string // DynamoDB Local / LocalStack
}

// CustomerRepo implements loyalty.Repository on DynamoDB.
type CustomerRepo struct {
	client API
	table  string
}

// New loads the AWS config and builds a repository for opts.Table.
func New(ctx context.Context, opts Options) (*CustomerRepo, error) {
	if opts.Table == "" {
		return nil, errors.New("dynamodb table is required")
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return NewCustomerRepo(client, opts.Table), nil
}

// NewCustomerRepo wraps an existing client.
func NewCustomerRepo(client API, table string) *CustomerRepo {
	return &CustomerRepo{client: client, table: table}
}

func key(uid string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"uid": &types.AttributeValueMemberS{Value: uid}}
}

func (r *CustomerRepo) Get(ctx context.Context, uid string) (*domain.CustomerRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            key(uid),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, classify("get customer", err)
	}
	if len(out.Item) == 0 {
		return nil, loyalty.ErrNotFound
	}
	var rec domain.CustomerRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("decode customer: %w", err)
	}
	rec.UID = uid
	return &rec, nil
}

func (r *CustomerRepo) Set(ctx context.Context, rec *domain.CustomerRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("encode customer: %w", err)
	}
	if ids := purchaseIDs(rec.PurchaseHistory); len(ids) > 0 {
		item["purchaseIds"] = &types.AttributeValueMemberSS{Value: ids}
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	return classify("put customer", err)
}

func (r *CustomerRepo) Update(ctx context.Context, uid string, u domain.CustomerUpdate) error {
	b := newUpdateBuilder()
	setIf(b, "purchases", u.Purchases)
	setIf(b, "totalSpent", u.TotalSpent)
	setIf(b, "lastActivity", u.LastActivity)
	setIf(b, "feedbackScore", u.FeedbackScore)
	setIf(b, "feedbackComments", u.FeedbackComments)
	setIf(b, "engagementScore", u.EngagementScore)
	setIf(b, "loyaltyScore", u.LoyaltyScore)
	setIf(b, "category", u.Category)
	setIf(b, "lastCalculated", u.LastCalculated)
	setIf(b, "aiOffer", u.AIOffer)
	setIf(b, "churnRisk", u.ChurnRisk)
	if b.err != nil {
		return fmt.Errorf("encode update: %w", b.err)
	}
	if len(b.sets) == 0 {
		_, err := r.Get(ctx, uid)
		return err
	}

	b.names["#uid"] = "uid"
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       key(uid),
		UpdateExpression:          aws.String(b.expression()),
		ConditionExpression:       aws.String("attribute_exists(#uid)"),
		ExpressionAttributeNames:  b.names,
		ExpressionAttributeValues: b.values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return loyalty.ErrNotFound
	}
	return classify("update customer", err)
}

// AppendPurchase adds p to the history in a single conditional write. The
// purchaseIds string set makes a replayed purchase id a no-op.
func (r *CustomerRepo) AppendPurchase(ctx context.Context, uid string, p domain.PurchaseRecord) error {
	entry, err := attributevalue.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode purchase: %w", err)
	}

	names := map[string]string{
		"#uid": "uid",
		"#n":   "purchases",
		"#t":   "totalSpent",
		"#la":  "lastActivity",
		"#h":   "purchaseHistory",
	}
	values := map[string]types.AttributeValue{
		":zero":  &types.AttributeValueMemberN{Value: "0"},
		":one":   &types.AttributeValueMemberN{Value: "1"},
		":amt":   mustNumber(p.Amount),
		":ts":    &types.AttributeValueMemberS{Value: p.Timestamp},
		":entry": &types.AttributeValueMemberL{Value: []types.AttributeValue{entry}},
		":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
	}
	expr := "SET #n = if_not_exists(#n, :zero) + :one, " +
		"#t = if_not_exists(#t, :zero) + :amt, " +
		"#la = :ts, " +
		"#h = list_append(if_not_exists(#h, :empty), :entry)"
	cond := "attribute_exists(#uid)"
	if p.ID != "" {
		names["#ids"] = "purchaseIds"
		values[":id"] = &types.AttributeValueMemberS{Value: p.ID}
		values[":idset"] = &types.AttributeValueMemberSS{Value: []string{p.ID}}
		expr += " ADD #ids :idset"
		cond += " AND NOT contains(#ids, :id)"
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       key(uid),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		// Either the record is missing or the id was already recorded.
		if _, gerr := r.Get(ctx, uid); gerr != nil {
			return gerr
		}
		return nil
	}
	return classify("append purchase", err)
}

// List scans the table. Results are sorted by uid before paging.
func (r *CustomerRepo) List(ctx context.Context, f loyalty.ListFilter) ([]domain.CustomerRecord, error) {
	in := &dynamodb.ScanInput{TableName: aws.String(r.table)}
	if f.Category != "" {
		in.FilterExpression = aws.String("#c = :c")
		in.ExpressionAttributeNames = map[string]string{"#c": "category"}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: string(f.Category)},
		}
	}

	var out []domain.CustomerRecord
	for {
		page, err := r.client.Scan(ctx, in)
		if err != nil {
			return nil, classify("scan customers", err)
		}
		for _, item := range page.Items {
			var rec domain.CustomerRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("decode customer: %w", err)
			}
			out = append(out, rec)
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = page.LastEvaluatedKey
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []domain.CustomerRecord{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	if out == nil {
		out = []domain.CustomerRecord{}
	}
	return out, nil
}

type updateBuilder struct {
	sets   []string
	names  map[string]string
	values map[string]types.AttributeValue
	err    error
}

func newUpdateBuilder() *updateBuilder {
	return &updateBuilder{names: map[string]string{}, values: map[string]types.AttributeValue{}}
}

func setIf[T any](b *updateBuilder, attr string, v *T) {
	if v == nil || b.err != nil {
		return
	}
	av, err := attributevalue.Marshal(*v)
	if err != nil {
		b.err = err
		return
	}
	n := len(b.sets)
	name, val := fmt.Sprintf("#f%d", n), fmt.Sprintf(":v%d", n)
	b.names[name] = attr
	b.values[val] = av
	b.sets = append(b.sets, name+" = "+val)
}

func (b *updateBuilder) expression() string {
	expr := "SET "
	for i, s := range b.sets {
		if i > 0 {
			expr += ", "
		}
		expr += s
	}
	return expr
}

func purchaseIDs(history []domain.PurchaseRecord) []string {
	seen := make(map[string]bool, len(history))
	var ids []string
	for _, p := range history {
		if p.ID != "" && !seen[p.ID] {
			seen[p.ID] = true
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func mustNumber(f float64) types.AttributeValue {
	av, err := attributevalue.Marshal(f)
	if err != nil {
		return &types.AttributeValueMemberN{Value: "0"}
	}
	return av
}

// classify maps DynamoDB capacity errors to loyalty.ErrThrottled.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pte *types.ProvisionedThroughputExceededException
	var rle *types.RequestLimitExceeded
	if errors.As(err, &pte) || errors.As(err, &rle) {
		return fmt.Errorf("%s: %w: %v", op, loyalty.ErrThrottled, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
