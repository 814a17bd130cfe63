// Package dynamotest provides an in-memory stand-in for the DynamoDB calls
// the key-value store makes. It understands only the expressions that store
// renders.
package dynamotest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableDef describes a fake table
type TableDef struct {
	KeyFields []string
	Indexes   map[string]string // index name -> field
}

// Fake is a concurrency-safe in-memory DynamoDB
type Fake struct {
	mu       sync.Mutex
	defs     map[string]TableDef
	items    map[string]map[string]map[string]types.AttributeValue
	calls    map[string]int
	PageSize int
	Err      error // returned from every call when set
}

// New creates a fake with the given tables
func New(defs map[string]TableDef) *Fake {
	f := &Fake{
		defs:     defs,
		items:    make(map[string]map[string]map[string]types.AttributeValue),
		calls:    make(map[string]int),
		PageSize: 25,
	}
	for name := range defs {
		f.items[name] = make(map[string]map[string]types.AttributeValue)
	}
	return f
}

// Calls returns how many times op was invoked
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of calls of any kind
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Seed stores an item directly
func (f *Fake) Seed(table string, item map[string]types.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, err := f.keyOf(table, item)
	if err != nil {
		panic(err)
	}
	f.items[table][k] = item
}

// Item returns a stored item by key values in key-field order
func (f *Fake) Item(table string, keyValues ...string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[table][strings.Join(keyValues, "\x00")]
}

// Len returns the number of items in table
func (f *Fake) Len(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items[table])
}

func (f *Fake) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetItem"); err != nil {
		return nil, err
	}
	k, err := f.keyOf(aws.ToString(in.TableName), in.Key)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: f.items[aws.ToString(in.TableName)][k]}, nil
}

func (f *Fake) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Query"); err != nil {
		return nil, err
	}

	table := aws.ToString(in.TableName)
	def, ok := f.defs[table]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found: " + table)}
	}
	field, ok := def.Indexes[aws.ToString(in.IndexName)]
	if !ok {
		return nil, fmt.Errorf("index %s not found", aws.ToString(in.IndexName))
	}
	want := scalar(in.ExpressionAttributeValues[":v"])

	var keys []string
	for k, item := range f.items[table] {
		if scalar(item[field]) == want {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	offset := 0
	if start, ok := in.ExclusiveStartKey["_offset"].(*types.AttributeValueMemberN); ok {
		offset, _ = strconv.Atoi(start.Value)
	}
	end := offset + f.PageSize
	if end > len(keys) {
		end = len(keys)
	}

	out := &dynamodb.QueryOutput{}
	for _, k := range keys[offset:end] {
		out.Items = append(out.Items, f.items[table][k])
	}
	out.Count = int32(len(out.Items))
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"_offset": &types.AttributeValueMemberN{Value: strconv.Itoa(end)},
		}
	}
	return out, nil
}

func (f *Fake) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("PutItem"); err != nil {
		return nil, err
	}
	table := aws.ToString(in.TableName)
	k, err := f.keyOf(table, in.Item)
	if err != nil {
		return nil, err
	}
	if err := f.check(aws.ToString(in.ConditionExpression), f.items[table][k] != nil); err != nil {
		return nil, err
	}
	f.items[table][k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *Fake) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateItem"); err != nil {
		return nil, err
	}
	table := aws.ToString(in.TableName)
	k, err := f.keyOf(table, in.Key)
	if err != nil {
		return nil, err
	}
	existing := f.items[table][k]
	if err := f.check(aws.ToString(in.ConditionExpression), existing != nil); err != nil {
		return nil, err
	}

	item := make(map[string]types.AttributeValue, len(existing)+len(in.Key))
	for name, v := range in.Key {
		item[name] = v
	}
	for name, v := range existing {
		item[name] = v
	}

	expr := strings.TrimPrefix(aws.ToString(in.UpdateExpression), "SET ")
	for _, assignment := range strings.Split(expr, ", ") {
		parts := strings.SplitN(assignment, " = ", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("unsupported update expression %q", aws.ToString(in.UpdateExpression))
		}
		item[in.ExpressionAttributeNames[parts[0]]] = in.ExpressionAttributeValues[parts[1]]
	}
	f.items[table][k] = item
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *Fake) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteItem"); err != nil {
		return nil, err
	}
	table := aws.ToString(in.TableName)
	k, err := f.keyOf(table, in.Key)
	if err != nil {
		return nil, err
	}
	old := f.items[table][k]
	delete(f.items[table], k)

	out := &dynamodb.DeleteItemOutput{}
	if in.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

func (f *Fake) begin(op string) error {
	f.calls[op]++
	return f.Err
}

func (f *Fake) check(expr string, exists bool) error {
	switch {
	case expr == "":
		return nil
	case strings.Contains(expr, "attribute_not_exists") && exists,
		!strings.Contains(expr, "attribute_not_exists") && strings.Contains(expr, "attribute_exists") && !exists:
		return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	return nil
}

func (f *Fake) keyOf(table string, item map[string]types.AttributeValue) (string, error) {
	def, ok := f.defs[table]
	if !ok {
		return "", &types.ResourceNotFoundException{Message: aws.String("table not found: " + table)}
	}
	parts := make([]string, len(def.KeyFields))
	for i, field := range def.KeyFields {
		v, ok := item[field]
		if !ok {
			return "", fmt.Errorf("missing key field %s", field)
		}
		parts[i] = scalar(v)
	}
	return strings.Join(parts, "\x00"), nil
}

func scalar(v types.AttributeValue) string {
	switch av := v.(type) {
	case *types.AttributeValueMemberS:
		return av.Value
	case *types.AttributeValueMemberN:
		return av.Value
	case *types.AttributeValueMemberBOOL:
		return strconv.FormatBool(av.Value)
	default:
		return ""
	}
}
