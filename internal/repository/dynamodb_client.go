package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"site-gateway/internal/domain"
)

const (
	pkPrefixForm = "FORM#"
	skPrefixSub  = "SUB#"
	ttlDuration  = 30 * 24 * time.Hour
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client writes accepted form submissions to a DynamoDB table.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

func formPK(kind domain.FormKind) string {
	return pkPrefixForm + string(kind)
}

// submissionSK sorts submissions of one kind chronologically; the ID keeps
// keys unique when two arrive in the same instant.
func submissionSK(receivedAt time.Time, id string) string {
	return skPrefixSub + receivedAt.UTC().Format(time.RFC3339Nano) + "#" + id
}

func ttlValue(from time.Time) int64 {
	return from.Add(ttlDuration).Unix()
}

// RecordSubmission stores sub once. Writing the same key twice fails the
// condition check instead of overwriting.
func (c *Client) RecordSubmission(ctx context.Context, sub domain.Submission) error {
	if strings.TrimSpace(sub.ID) == "" {
		return errors.New("repository: RecordSubmission: submission id is required")
	}
	if sub.Kind == "" {
		return errors.New("repository: RecordSubmission: form kind is required")
	}
	if sub.ReceivedAt.IsZero() {
		sub.ReceivedAt = c.now().UTC()
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                submissionItem(sub, ttlValue(c.now())),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("repository: RecordSubmission: duplicate submission %s: %w", sub.ID, err)
		}
		return fmt.Errorf("repository: RecordSubmission: %w", err)
	}
	return nil
}

func submissionItem(sub domain.Submission, ttl int64) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: formPK(sub.Kind)},
		"SK":           &types.AttributeValueMemberS{Value: submissionSK(sub.ReceivedAt, sub.ID)},
		"submissionId": &types.AttributeValueMemberS{Value: sub.ID},
		"kind":         &types.AttributeValueMemberS{Value: string(sub.Kind)},
		"name":         &types.AttributeValueMemberS{Value: sub.Name},
		"email":        &types.AttributeValueMemberS{Value: sub.Email},
		"receivedAt":   &types.AttributeValueMemberS{Value: sub.ReceivedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":          &types.AttributeValueMemberN{Value: strconv.FormatInt(ttl, 10)},
	}
	if len(sub.Payload) > 0 {
		item["payload"] = &types.AttributeValueMemberS{Value: string(sub.Payload)}
	}
	return item
}
