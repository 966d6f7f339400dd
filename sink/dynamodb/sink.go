// Package dynamodb publishes dense-block reports into a DynamoDB table.
//
// Every report becomes one item. Items of one stream share a partition key
// and sort by report time, so the alert history of a stream is a single
// Query away.
//
// Table schema:
//   - Partition key: stream (string)
//   - Sort key: time (number, unix nanoseconds)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name densealert-reports \
//	  --attribute-definitions AttributeName=stream,AttributeType=S AttributeName=time,AttributeType=N \
//	  --key-schema AttributeName=stream,KeyType=HASH AttributeName=time,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/densealert/sink"
)

// Client is the subset of the DynamoDB API used by the sink.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// ErrDuplicate is returned when an item with the same key already exists.
var ErrDuplicate = errors.New("report already stored")

// Sink writes reports as DynamoDB items.
type Sink struct {
	client    Client
	tableName string
	stream    string
}

// NewSink creates a sink writing to tableName under the partition key stream.
func NewSink(client Client, tableName, stream string) *Sink {
	return &Sink{
		client:    client,
		tableName: tableName,
		stream:    stream,
	}
}

// Publish puts r unless an item with the same key exists.
func (s *Sink) Publish(ctx context.Context, r sink.Report) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                s.Item(r),
		ConditionExpression: aws.String("attribute_not_exists(#t)"),
		ExpressionAttributeNames: map[string]string{
			"#t": "time",
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("dynamodb sink: %w", ErrDuplicate)
		}
		return fmt.Errorf("dynamodb sink: %w", err)
	}
	return nil
}

// Item returns the attribute map r is stored as.
func (s *Sink) Item(r sink.Report) map[string]types.AttributeValue {
	block := make([]types.AttributeValue, len(r.Block))
	for m, ids := range r.Block {
		members := make([]types.AttributeValue, len(ids))
		for i, id := range ids {
			members[i] = &types.AttributeValueMemberS{Value: id}
		}
		block[m] = &types.AttributeValueMemberL{Value: members}
	}

	return map[string]types.AttributeValue{
		"stream":  &types.AttributeValueMemberS{Value: s.stream},
		"time":    &types.AttributeValueMemberN{Value: strconv.FormatInt(r.Time.UnixNano(), 10)},
		"id":      &types.AttributeValueMemberS{Value: r.ID.String()},
		"order":   &types.AttributeValueMemberN{Value: strconv.Itoa(r.Order)},
		"density": &types.AttributeValueMemberN{Value: strconv.FormatFloat(r.Density, 'g', -1, 64)},
		"mass":    &types.AttributeValueMemberN{Value: strconv.FormatInt(r.Mass, 10)},
		"tuples":  &types.AttributeValueMemberN{Value: strconv.Itoa(r.Tuples)},
		"block":   &types.AttributeValueMemberL{Value: block},
	}
}
