// Package dynamo implements store.Store over DynamoDB for the key-value
// tables (events and registrations).
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
)

// API is the subset of the DynamoDB client the store calls
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Store is the key-value backend
type Store struct {
	client  API
	schema  *store.Schema
	logger  *logrus.Logger
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithTimeout bounds every operation
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithClock overrides the clock used for generated timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a key-value store over client
func New(client API, schema *store.Schema, opts ...Option) *Store {
	s := &Store{
		client:  client,
		schema:  schema,
		logger:  logrus.StandardLogger(),
		timeout: 5 * time.Second,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.Store = (*Store)(nil)

// QueryByKey returns the item for key, or nil when absent
func (s *Store) QueryByKey(ctx context.Context, table string, key store.Key) (store.Record, error) {
	t, av, err := s.resolveKey(table, key)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.Name),
		Key:       av,
	})
	s.logCall("get_item", t.Name, time.Since(start), err)
	if err != nil {
		return nil, classify("get_item", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return decode(out.Item)
}

// QueryByIndex pages through a secondary index and returns every match
func (s *Store) QueryByIndex(ctx context.Context, table, index string, value any) ([]store.Record, error) {
	t, err := s.schema.Lookup(table)
	if err != nil {
		return nil, err
	}
	field, err := t.IndexField(index)
	if err != nil {
		return nil, err
	}
	v, err := attributevalue.Marshal(value)
	if err != nil {
		return nil, apperrors.InvalidArgumentf("invalid %s value", field)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(t.Name),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#f = :v"),
		ExpressionAttributeNames:  map[string]string{"#f": field},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": v},
	})

	records := []store.Record{}
	start := time.Now()
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logCall("query", t.Name, time.Since(start), err)
			return nil, classify("query", err)
		}
		for _, item := range page.Items {
			rec, err := decode(item)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}
	s.logCall("query", t.Name, time.Since(start), nil)
	return records, nil
}

// Insert puts an item, overwriting any item with the same key
func (s *Store) Insert(ctx context.Context, table string, record store.Record) (store.Record, error) {
	t, err := s.schema.Lookup(table)
	if err != nil {
		return nil, err
	}
	rec, err := t.PrepareInsert(record, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.put(ctx, t, rec, nil); err != nil {
		return nil, err
	}
	return rec, nil
}

// InsertIfAbsent puts an item only when no item with its key exists
func (s *Store) InsertIfAbsent(ctx context.Context, table string, record store.Record) (bool, error) {
	t, err := s.schema.Lookup(table)
	if err != nil {
		return false, err
	}
	rec, err := t.PrepareInsert(record, s.now())
	if err != nil {
		return false, err
	}

	cond := keyCondition(t, "attribute_not_exists")
	err = s.put(ctx, t, rec, cond)
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update sets the patch fields on an existing item; NotFound when absent.
// Re-applying the same patch is harmless.
func (s *Store) Update(ctx context.Context, table string, key store.Key, patch store.Record) error {
	t, av, err := s.resolveKey(table, key)
	if err != nil {
		return err
	}
	p, err := t.PreparePatch(patch, s.now())
	if err != nil {
		return err
	}

	cond := keyCondition(t, "attribute_exists")
	names := cond.names
	values := make(map[string]types.AttributeValue, len(p))
	sets := make([]string, 0, len(p))
	for i, f := range store.SortedFields(p) {
		v, err := attributevalue.Marshal(p[f])
		if err != nil {
			return apperrors.InvalidArgumentf("invalid value for %s", f)
		}
		name, placeholder := fmt.Sprintf("#u%d", i), fmt.Sprintf(":u%d", i)
		names[name] = f
		values[placeholder] = v
		sets = append(sets, name+" = "+placeholder)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.Name),
		Key:                       av,
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       aws.String(cond.expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	s.logCall("update_item", t.Name, time.Since(start), err)
	if isConditionFailed(err) {
		return apperrors.NotFound(t.Name, keyString(t, key))
	}
	if err != nil {
		return classify("update_item", err)
	}
	return nil
}

// Delete removes the item for key and reports whether one existed
func (s *Store) Delete(ctx context.Context, table string, key store.Key) (int64, error) {
	t, av, err := s.resolveKey(table, key)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(t.Name),
		Key:          av,
		ReturnValues: types.ReturnValueAllOld,
	})
	s.logCall("delete_item", t.Name, time.Since(start), err)
	if err != nil {
		return 0, classify("delete_item", err)
	}
	if len(out.Attributes) == 0 {
		return 0, nil
	}
	return 1, nil
}

func (s *Store) put(ctx context.Context, t *store.Table, rec store.Record, cond *condition) error {
	item, err := attributevalue.MarshalMap(map[string]any(rec))
	if err != nil {
		return apperrors.InvalidArgumentf("invalid %s record", t.Name)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(t.Name),
		Item:      item,
	}
	if cond != nil {
		input.ConditionExpression = aws.String(cond.expr)
		input.ExpressionAttributeNames = cond.names
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	_, err = s.client.PutItem(ctx, input)
	s.logCall("put_item", t.Name, time.Since(start), err)
	if err != nil && !isConditionFailed(err) {
		return classify("put_item", err)
	}
	return err
}

func (s *Store) resolveKey(table string, key store.Key) (*store.Table, map[string]types.AttributeValue, error) {
	t, err := s.schema.Lookup(table)
	if err != nil {
		return nil, nil, err
	}
	if err := t.ValidateKey(key); err != nil {
		return nil, nil, err
	}
	av, err := attributevalue.MarshalMap(map[string]any(key))
	if err != nil {
		return nil, nil, apperrors.InvalidArgumentf("invalid key for %s", t.Name)
	}
	return t, av, nil
}

func (s *Store) logCall(operation, table string, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": operation,
		"table":     table,
		"duration":  duration,
	}
	if err != nil && !isConditionFailed(err) {
		fields["error"] = err.Error()
		s.logger.WithFields(fields).Error("DynamoDB call failed")
		return
	}
	s.logger.WithFields(fields).Debug("DynamoDB call executed")
}

type condition struct {
	expr  string
	names map[string]string
}

// keyCondition renders fn(#k0) AND fn(#k1) over the key fields
func keyCondition(t *store.Table, fn string) *condition {
	c := &condition{names: make(map[string]string, len(t.KeyFields))}
	parts := make([]string, len(t.KeyFields))
	for i, f := range t.KeyFields {
		name := fmt.Sprintf("#k%d", i)
		c.names[name] = f
		parts[i] = fmt.Sprintf("%s(%s)", fn, name)
	}
	c.expr = strings.Join(parts, " AND ")
	return c
}

func decode(item map[string]types.AttributeValue) (store.Record, error) {
	var rec map[string]any
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, apperrors.Upstream("decode_item", err)
	}
	return store.Record(rec), nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrUpstream, op, op+": store timed out", err)
	}
	return apperrors.Upstream(op, err)
}

func keyString(t *store.Table, key store.Key) string {
	parts := make([]string, len(t.KeyFields))
	for i, f := range t.KeyFields {
		parts[i] = fmt.Sprint(key[f])
	}
	return strings.Join(parts, "/")
}
