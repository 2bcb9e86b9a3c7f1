package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSAPI is the subset of the SQS client used by the publisher
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher implements Ledger by sending each entry to an SQS queue.
type SQSPublisher struct {
	Client   SQSAPI
	QueueURL string
}

// NewSQSPublisher creates a new SQSPublisher.
func NewSQSPublisher(client SQSAPI, queueURL string) *SQSPublisher {
	return &SQSPublisher{
		Client:   client,
		QueueURL: queueURL,
	}
}

// Make sure we conform to the interface
var _ Ledger = (*SQSPublisher)(nil)

// Record sends the entry as a JSON message. FIFO queues get the account as
// message group and the entry id as deduplication id.
func (p *SQSPublisher) Record(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry for SQS: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.QueueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"direction": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(entry.Direction)),
			},
			"transactionId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(entry.TransactionID),
			},
		},
	}
	if strings.HasSuffix(p.QueueURL, ".fifo") {
		input.MessageGroupId = aws.String(entry.AccountID)
		input.MessageDeduplicationId = aws.String(entry.ID)
	}

	if _, err := p.Client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("failed to send ledger entry to SQS: %w", err)
	}

	return nil
}
