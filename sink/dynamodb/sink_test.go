package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/densealert/sink"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func testReport() sink.Report {
	r := sink.NewReport(2, 2.5, 10, 3, [][]string{{"alice"}, {"10.0.0.1", "10.0.0.2"}})
	r.Time = time.Unix(1700000000, 5).UTC()
	return r
}

func TestSink_Item(t *testing.T) {
	s := NewSink(&MockClient{}, "reports", "logins")
	r := testReport()
	item := s.Item(r)

	assert.Equal(t, "logins", item["stream"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "1700000000000000005", item["time"].(*types.AttributeValueMemberN).Value)
	assert.Equal(t, r.ID.String(), item["id"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "2.5", item["density"].(*types.AttributeValueMemberN).Value)
	assert.Equal(t, "10", item["mass"].(*types.AttributeValueMemberN).Value)
	assert.Equal(t, "3", item["tuples"].(*types.AttributeValueMemberN).Value)

	block := item["block"].(*types.AttributeValueMemberL).Value
	require.Len(t, block, 2)
	second := block[1].(*types.AttributeValueMemberL).Value
	require.Len(t, second, 2)
	assert.Equal(t, "10.0.0.2", second[1].(*types.AttributeValueMemberS).Value)
}

func TestSink_Publish(t *testing.T) {
	client := &MockClient{}
	s := NewSink(client, "reports", "logins")

	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return *in.TableName == "reports" &&
			*in.ConditionExpression == "attribute_not_exists(#t)" &&
			in.ExpressionAttributeNames["#t"] == "time"
	})).Return(&dynamodb.PutItemOutput{}, nil).Once()

	require.NoError(t, s.Publish(context.Background(), testReport()))
	client.AssertExpectations(t)
}

func TestSink_PublishDuplicate(t *testing.T) {
	client := &MockClient{}
	s := NewSink(client, "reports", "logins")

	client.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: new(string)}).Once()

	err := s.Publish(context.Background(), testReport())
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSink_PublishError(t *testing.T) {
	client := &MockClient{}
	s := NewSink(client, "reports", "logins")

	boom := errors.New("throttled")
	client.On("PutItem", mock.Anything, mock.Anything).Return(nil, boom).Once()

	err := s.Publish(context.Background(), testReport())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDuplicate)
}
