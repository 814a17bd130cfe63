package dynamotest

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestUpdateItem(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		wantErr  string
		wantPaid bool
	}{
		{"set assignment", "SET #paid = :paid", "", true},
		{"unsupported expression", "REMOVE #paid", `"REMOVE #paid"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(map[string]TableDef{"events": {KeyFields: []string{"eventId"}}})
			f.Seed("events", map[string]types.AttributeValue{
				"eventId": &types.AttributeValueMemberS{Value: "e1"},
				"paid":    &types.AttributeValueMemberBOOL{Value: false},
			})

			_, err := f.UpdateItem(context.Background(), &dynamodb.UpdateItemInput{
				TableName:                 aws.String("events"),
				Key:                       map[string]types.AttributeValue{"eventId": &types.AttributeValueMemberS{Value: "e1"}},
				UpdateExpression:          aws.String(tt.expr),
				ExpressionAttributeNames:  map[string]string{"#paid": "paid"},
				ExpressionAttributeValues: map[string]types.AttributeValue{":paid": &types.AttributeValueMemberBOOL{Value: true}},
			})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("UpdateItem() error = %v, want it to quote %s", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("UpdateItem() failed: %v", err)
			}

			paid, _ := f.Item("events", "e1")["paid"].(*types.AttributeValueMemberBOOL)
			if paid == nil || paid.Value != tt.wantPaid {
				t.Errorf("paid = %+v, want %v", paid, tt.wantPaid)
			}
		})
	}
}
