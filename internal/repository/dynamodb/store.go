// Package dynamodb implements the transaction store on AWS DynamoDB.
package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/benx421/payment-gateway/merchant/internal/models"
	"github.com/benx421/payment-gateway/merchant/internal/repository"
	"github.com/shopspring/decimal"
)

// maxConditionalAttempts bounds how often ApplyNotification re-reads after losing a race
const maxConditionalAttempts = 5

// healthProbeID is never a valid transaction id, so the probe read always misses
const healthProbeID = "__health__"

// claimPrefix keys the item that reserves a processor id for one transaction.
// Transaction ids never contain '#', so claims cannot collide with them.
const claimPrefix = "tp#"

// cancellation reason reported for a failed condition inside TransactWriteItems
const conditionalCheckFailedCode = "ConditionalCheckFailed"

// ErrConcurrentUpdate is returned when a notification keeps losing the status race
var ErrConcurrentUpdate = errors.New("transaction was modified concurrently")

// DynamoDBAPI is the subset of the DynamoDB client used by the store
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements repository.TransactionRepository using AWS DynamoDB.
// Processor ids are reserved by claim items in the same table, which makes
// them unique across transactions and gives notifications a consistent lookup.
type Store struct {
	Client                DynamoDBAPI
	TransactionsTableName string
}

// New creates a new Store.
func New(client DynamoDBAPI, transactionsTable string) *Store {
	return &Store{
		Client:                client,
		TransactionsTableName: transactionsTable,
	}
}

// Make sure we conform to the interface
var _ repository.TransactionRepository = (*Store)(nil)

// transactionItem is the stored form of a transaction. Amounts are kept as
// decimal strings so no precision is lost.
type transactionItem struct {
	CreatedAt    time.Time               `dynamodbav:"created_at"`
	UpdatedAt    time.Time               `dynamodbav:"updated_at"`
	Details      models.OperationDetails `dynamodbav:"details"`
	WebhookLog   []webhookEntryItem      `dynamodbav:"webhook_log"`
	ID           string                  `dynamodbav:"id"`
	ThirdPartyID string                  `dynamodbav:"third_party_id,omitempty"`
	Type         string                  `dynamodbav:"type"`
	Amount       string                  `dynamodbav:"amount"`
	Currency     string                  `dynamodbav:"currency"`
	CustomerID   string                  `dynamodbav:"customer_id"`
	Status       string                  `dynamodbav:"status"`
}

// claimItem reserves a processor id for one transaction
type claimItem struct {
	ID            string    `dynamodbav:"id"`
	TransactionID string    `dynamodbav:"transaction_id"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
}

type webhookEntryItem struct {
	ReceivedAt     time.Time `dynamodbav:"received_at"`
	Amount         string    `dynamodbav:"amount,omitempty"`
	Source         string    `dynamodbav:"source"`
	Status         string    `dynamodbav:"status"`
	RawPayload     string    `dynamodbav:"raw_payload"`
	AmountMismatch bool      `dynamodbav:"amount_mismatch"`
}

// Create stores a new transaction, refusing to overwrite an existing id.
func (s *Store) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	txn.UpdatedAt = txn.CreatedAt
	if txn.WebhookLog == nil {
		txn.WebhookLog = []models.WebhookEntry{}
	}

	item, err := attributevalue.MarshalMap(toItem(txn))
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	if txn.ThirdPartyID == "" {
		_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(s.TransactionsTableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		})
		if err != nil {
			if isConditionalCheckFailed(err) {
				return models.ErrDuplicateTransaction
			}
			return fmt.Errorf("failed to put transaction: %w", err)
		}
		return nil
	}

	claim, err := s.claimPut(txn.ThirdPartyID, txn.ID, txn.CreatedAt)
	if err != nil {
		return err
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(s.TransactionsTableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			}},
			{Put: claim},
		},
	})
	if err != nil {
		reasons, cancelled := cancellationReasons(err)
		switch {
		case cancelled && conditionFailed(reasons, 0):
			return models.ErrDuplicateTransaction
		case cancelled && conditionFailed(reasons, 1):
			return models.ErrThirdPartyIDConflict
		default:
			return fmt.Errorf("failed to put transaction: %w", err)
		}
	}

	return nil
}

// FindByID retrieves a transaction by its id with a strongly consistent read.
func (s *Store) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	if strings.HasPrefix(id, claimPrefix) {
		return nil, models.ErrNotFound
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.TransactionsTableName),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, models.ErrNotFound
	}

	var item transactionItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}

	return fromItem(&item)
}

// PingContext checks that the transactions table answers reads
func (s *Store) PingContext(ctx context.Context) error {
	_, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.TransactionsTableName),
		Key:                  idKey(healthProbeID),
		ProjectionExpression: aws.String("id"),
	})
	if err != nil {
		return fmt.Errorf("failed to reach DynamoDB table %s: %w", s.TransactionsTableName, err)
	}
	return nil
}

// BindThirdPartyID sets the processor id once. Rebinding the same value succeeds.
// The claim item and the transaction update commit together, so a processor id
// already bound to another transaction yields models.ErrThirdPartyIDConflict.
func (s *Store) BindThirdPartyID(ctx context.Context, id, thirdPartyID string) error {
	now := time.Now().UTC()
	claim, err := s.claimPut(thirdPartyID, id, now)
	if err != nil {
		return err
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: claim},
			{Update: &types.Update{
				TableName:           aws.String(s.TransactionsTableName),
				Key:                 idKey(id),
				UpdateExpression:    aws.String("SET third_party_id = :tp, updated_at = :now"),
				ConditionExpression: aws.String("attribute_exists(id) AND (attribute_not_exists(third_party_id) OR third_party_id = :tp)"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":tp":  &types.AttributeValueMemberS{Value: thirdPartyID},
					":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
				},
			}},
		},
	})
	if err == nil {
		return nil
	}

	reasons, cancelled := cancellationReasons(err)
	if !cancelled {
		return fmt.Errorf("failed to bind third party id: %w", err)
	}
	if conditionFailed(reasons, 0) {
		return models.ErrThirdPartyIDConflict
	}
	if !conditionFailed(reasons, 1) {
		return fmt.Errorf("failed to bind third party id: %w", err)
	}

	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	return models.ErrThirdPartyIDConflict
}

// claimPut reserves thirdPartyID for transactionID. Re-claiming for the same
// transaction passes the condition.
func (s *Store) claimPut(thirdPartyID, transactionID string, now time.Time) (*types.Put, error) {
	item, err := attributevalue.MarshalMap(claimItem{
		ID:            claimPrefix + thirdPartyID,
		TransactionID: transactionID,
		CreatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal third party id claim: %w", err)
	}

	return &types.Put{
		TableName:           aws.String(s.TransactionsTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id) OR transaction_id = :txn"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":txn": &types.AttributeValueMemberS{Value: transactionID},
		},
	}, nil
}

// ApplyNotification appends the log entry and applies the status transition in
// one conditional update guarded on the status that was read. Losing the race
// re-reads and tries again.
func (s *Store) ApplyNotification(ctx context.Context, key repository.CorrelationKey, update repository.StatusUpdate) (*repository.UpdateResult, error) {
	id := key.Value
	if key.Kind == repository.ByThirdPartyID {
		var err error
		if id, err = s.idForThirdPartyID(ctx, key.Value); err != nil {
			return nil, err
		}
	}

	for attempt := 0; attempt < maxConditionalAttempts; attempt++ {
		txn, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		result := repository.ApplyUpdate(txn, update)

		entries, err := attributevalue.Marshal([]webhookEntryItem{toEntryItem(result.Entry)})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal webhook entry: %w", err)
		}

		_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:           aws.String(s.TransactionsTableName),
			Key:                 idKey(id),
			UpdateExpression:    aws.String("SET #status = :new_status, webhook_log = list_append(if_not_exists(webhook_log, :empty), :entries), updated_at = :now"),
			ConditionExpression: aws.String("attribute_exists(id) AND #status = :current_status"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":new_status":     &types.AttributeValueMemberS{Value: string(txn.Status)},
				":current_status": &types.AttributeValueMemberS{Value: string(result.PreviousStatus)},
				":entries":        entries,
				":empty":          &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
				":now":            &types.AttributeValueMemberS{Value: txn.UpdatedAt.UTC().Format(time.RFC3339Nano)},
			},
		})
		if err == nil {
			return result, nil
		}
		if !isConditionalCheckFailed(err) {
			return nil, fmt.Errorf("failed to update transaction: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrConcurrentUpdate, id)
}

// idForThirdPartyID resolves a processor id through its claim item
func (s *Store) idForThirdPartyID(ctx context.Context, thirdPartyID string) (string, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.TransactionsTableName),
		Key:            idKey(claimPrefix + thirdPartyID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get third party id claim: %w", err)
	}
	if result.Item == nil {
		return "", models.ErrNotFound
	}

	var claim claimItem
	if err := attributevalue.UnmarshalMap(result.Item, &claim); err != nil {
		return "", fmt.Errorf("failed to unmarshal third party id claim: %w", err)
	}

	return claim.TransactionID, nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func isConditionalCheckFailed(err error) bool {
	var condCheckFailed *types.ConditionalCheckFailedException
	return errors.As(err, &condCheckFailed)
}

func cancellationReasons(err error) ([]types.CancellationReason, bool) {
	var cancelled *types.TransactionCanceledException
	if !errors.As(err, &cancelled) {
		return nil, false
	}
	return cancelled.CancellationReasons, true
}

// conditionFailed reports whether the i-th write of a cancelled transaction failed its condition
func conditionFailed(reasons []types.CancellationReason, i int) bool {
	return i < len(reasons) && aws.ToString(reasons[i].Code) == conditionalCheckFailedCode
}

func toItem(txn *models.Transaction) *transactionItem {
	item := &transactionItem{
		CreatedAt:    txn.CreatedAt,
		UpdatedAt:    txn.UpdatedAt,
		Details:      txn.Details,
		WebhookLog:   make([]webhookEntryItem, 0, len(txn.WebhookLog)),
		ID:           txn.ID,
		ThirdPartyID: txn.ThirdPartyID,
		Type:         string(txn.Type),
		Amount:       txn.Amount.String(),
		Currency:     txn.Currency,
		CustomerID:   txn.CustomerID,
		Status:       string(txn.Status),
	}
	for _, entry := range txn.WebhookLog {
		item.WebhookLog = append(item.WebhookLog, toEntryItem(entry))
	}
	return item
}

func toEntryItem(entry models.WebhookEntry) webhookEntryItem {
	item := webhookEntryItem{
		ReceivedAt:     entry.ReceivedAt,
		Source:         string(entry.Source),
		Status:         string(entry.Status),
		RawPayload:     string(entry.RawPayload),
		AmountMismatch: entry.AmountMismatch,
	}
	if entry.Amount != nil {
		item.Amount = entry.Amount.String()
	}
	return item
}

func fromItem(item *transactionItem) (*models.Transaction, error) {
	amount, err := decimal.NewFromString(item.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", item.Amount, err)
	}

	txn := &models.Transaction{
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
		Amount:       amount,
		Details:      item.Details,
		WebhookLog:   make([]models.WebhookEntry, 0, len(item.WebhookLog)),
		ID:           item.ID,
		ThirdPartyID: item.ThirdPartyID,
		CustomerID:   item.CustomerID,
		Currency:     item.Currency,
		Type:         models.TransactionType(item.Type),
		Status:       models.TransactionStatus(item.Status),
	}

	for _, e := range item.WebhookLog {
		entry := models.WebhookEntry{
			ReceivedAt:     e.ReceivedAt,
			Source:         models.NotificationSource(e.Source),
			Status:         models.TransactionStatus(e.Status),
			AmountMismatch: e.AmountMismatch,
		}
		if e.RawPayload != "" {
			entry.RawPayload = json.RawMessage(e.RawPayload)
		}
		if e.Amount != "" {
			a, err := decimal.NewFromString(e.Amount)
			if err != nil {
				return nil, fmt.Errorf("invalid stored webhook amount %q: %w", e.Amount, err)
			}
			entry.Amount = &a
		}
		txn.WebhookLog = append(txn.WebhookLog, entry)
	}

	return txn, nil
}
