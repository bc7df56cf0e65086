package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

const (
	// StatusExpiresIndex is the GSI used by sweeps and status filters.
	StatusExpiresIndex = "status-expires_at-index"

	// DefaultPageSize is used when a query does not set a limit.
	DefaultPageSize = 50

	conditionFailed = "ConditionalCheckFailed"
)

// Tables names the four tables backing the store.
type Tables struct {
	Quotes    string
	Tokens    string
	Sequences string
	Events    string
}

// DefaultTables returns the conventional table names with prefix prepended.
func DefaultTables(prefix string) Tables {
	return Tables{
		Quotes:    prefix + "quotes",
		Tokens:    prefix + "quote_tokens",
		Sequences: prefix + "quote_sequences",
		Events:    prefix + "quote_events",
	}
}

// Store is a DynamoDB-backed QuoteStore.
type Store struct {
	api    API
	tables Tables
}

var _ ports.QuoteStore = (*Store)(nil)

// New creates a store over api.
func New(api API, tables Tables) *Store {
	return &Store{api: api, tables: tables}
}

// Ping describes the quotes table.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tables.Quotes)})

	return err
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error { return nil }

// Create implements ports.QuoteStore.
func (s *Store) Create(ctx context.Context, draft *domain.Quote) (*domain.Quote, error) {
	q := draft.Clone()
	q.Tenant = strings.ToUpper(q.Tenant)

	seq, err := s.nextSequence(ctx, q.Tenant)
	if err != nil {
		return nil, err
	}

	q.ID = domain.FormatQuoteID(q.Tenant, seq)
	if err := q.CheckInvariants(); err != nil {
		return nil, err
	}

	av, err := attributevalue.MarshalMap(toItem(q))
	if err != nil {
		return nil, fmt.Errorf("marshalling quote: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tables.Quotes),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return nil, domain.NewInvariantError("quote", "duplicate id "+q.ID)
		}

		return nil, storeErr("inserting quote", err)
	}

	return q, nil
}

func (s *Store) nextSequence(ctx context.Context, tenant string) (int64, error) {
	out, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tables.Sequences),
		Key:                       map[string]types.AttributeValue{"tenant": &types.AttributeValueMemberS{Value: tenant}},
		UpdateExpression:          aws.String("ADD last_value :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": &types.AttributeValueMemberN{Value: "1"}},
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, storeErr("allocating quote id", err)
	}

	n, ok := out.Attributes["last_value"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, domain.NewInvariantError("quote_sequence", "missing last_value for "+tenant)
	}

	return strconv.ParseInt(n.Value, 10, 64)
}

// GetByID implements ports.QuoteStore.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Quote, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tables.Quotes),
		Key:            map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storeErr("loading quote", err)
	}

	if len(out.Item) == 0 {
		return nil, domain.NewNotFoundError("quote", id)
	}

	return unmarshalQuote(out.Item)
}

// GetByToken implements ports.QuoteStore.
func (s *Store) GetByToken(ctx context.Context, token string) (*domain.Quote, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tables.Tokens),
		Key:            map[string]types.AttributeValue{"token": &types.AttributeValueMemberS{Value: token}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storeErr("resolving token", err)
	}

	if len(out.Item) == 0 {
		return nil, domain.NewTokenNotFoundError()
	}

	var it tokenItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshalling token: %w", err)
	}

	q, err := s.GetByID(ctx, it.QuoteID)
	if domain.IsNotFound(err) {
		return nil, domain.NewInvariantError("quote_token", "token points at a missing quote")
	}

	return q, err
}

// ApplyTransition implements ports.QuoteStore. The write is conditioned on
// status and version. A newly issued token is reserved in the same
// transaction with attribute_not_exists, which makes tokens unique forever.
func (s *Store) ApplyTransition(
	ctx context.Context,
	id string,
	expected domain.Status,
	mutate ports.TransitionFunc,
) (*domain.Quote, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.Status != expected {
		return nil, domain.NewStaleStatusError(id, expected, current.Status)
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}

	if err := checkTransition(current, next); err != nil {
		return nil, err
	}

	next.Version = current.Version + 1

	av, err := attributevalue.MarshalMap(toItem(next))
	if err != nil {
		return nil, fmt.Errorf("marshalling quote: %w", err)
	}

	put := &types.Put{
		TableName:           aws.String(s.tables.Quotes),
		Item:                av,
		ConditionExpression: aws.String("#status = :expected AND #version = :version"),
		ExpressionAttributeNames: map[string]string{
			"#status":  "status",
			"#version": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberS{Value: string(expected)},
			":version":  &types.AttributeValueMemberN{Value: strconv.Itoa(current.Version)},
		},
	}

	if current.Token() == "" && next.Token() != "" {
		err = s.putWithToken(ctx, put, next)
	} else {
		_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 put.TableName,
			Item:                      put.Item,
			ConditionExpression:       put.ConditionExpression,
			ExpressionAttributeNames:  put.ExpressionAttributeNames,
			ExpressionAttributeValues: put.ExpressionAttributeValues,
		})

		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			err = errLostRace
		}
	}

	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, errLostRace):
		latest, getErr := s.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}

		return nil, domain.NewStaleStatusError(id, expected, latest.Status)
	case errors.Is(err, domain.ErrTokenCollision):
		return nil, err
	default:
		return nil, storeErr("updating quote", err)
	}
}

// errLostRace marks a failed status/version condition on the quote item.
var errLostRace = errors.New("quote condition failed")

func (s *Store) putWithToken(ctx context.Context, put *types.Put, q *domain.Quote) error {
	tokenAV, err := attributevalue.MarshalMap(tokenItem{Token: q.Token(), QuoteID: q.ID})
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}

	_, err = s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: put},
			{Put: &types.Put{
				TableName:                aws.String(s.tables.Tokens),
				Item:                     tokenAV,
				ConditionExpression:      aws.String("attribute_not_exists(#token)"),
				ExpressionAttributeNames: map[string]string{"#token": "token"},
			}},
		},
	})

	return classifyTransactionError(err)
}

// classifyTransactionError maps cancellation reasons of the quote+token
// transaction. The quote condition is checked first: a lost race wins over
// a collision so the caller re-reads instead of regenerating a token.
func classifyTransactionError(err error) error {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return err
	}

	reasons := tce.CancellationReasons
	if len(reasons) > 0 && aws.ToString(reasons[0].Code) == conditionFailed {
		return errLostRace
	}

	if len(reasons) > 1 && aws.ToString(reasons[1].Code) == conditionFailed {
		return domain.ErrTokenCollision
	}

	return err
}

func checkTransition(current, next *domain.Quote) error {
	if next.ID != current.ID {
		return domain.NewInvariantError("quote", "transition changed id of "+current.ID)
	}

	if err := next.CheckInvariants(); err != nil {
		return err
	}

	if old := current.Token(); old != "" && next.Token() != old {
		return domain.NewInvariantError("quote", "response token of "+current.ID+" cannot change")
	}

	return nil
}

// List implements ports.QuoteStore. With a status filter it reads the
// status index, otherwise it scans; pages follow storage order.
func (s *Store) List(ctx context.Context, query ports.ListQuotesQuery) (*ports.QuotePage, error) {
	start, err := decodeCursor(query.Cursor)
	if err != nil {
		return nil, err
	}

	limit := pageLimit(query.Limit)
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	var filter *string

	if query.Tenant != "" {
		names["#tenant"] = "tenant"
		values[":tenant"] = &types.AttributeValueMemberS{Value: strings.ToUpper(query.Tenant)}
		filter = aws.String("#tenant = :tenant")
	}

	if query.Status != "" {
		names["#status"] = "status"
		values[":status"] = &types.AttributeValueMemberS{Value: string(query.Status)}

		out, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tables.Quotes),
			IndexName:                 aws.String(StatusExpiresIndex),
			KeyConditionExpression:    aws.String("#status = :status"),
			FilterExpression:          filter,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         start,
			Limit:                     aws.Int32(limit),
		})
		if err != nil {
			return nil, storeErr("listing quotes", err)
		}

		return toPage(out.Items, out.LastEvaluatedKey)
	}

	in := &dynamodb.ScanInput{
		TableName:         aws.String(s.tables.Quotes),
		FilterExpression:  filter,
		ExclusiveStartKey: start,
		Limit:             aws.Int32(limit),
	}

	if filter != nil {
		in.ExpressionAttributeNames = names
		in.ExpressionAttributeValues = values
	}

	out, err := s.api.Scan(ctx, in)
	if err != nil {
		return nil, storeErr("listing quotes", err)
	}

	return toPage(out.Items, out.LastEvaluatedKey)
}

// ListExpirable implements ports.QuoteStore.
func (s *Store) ListExpirable(
	ctx context.Context,
	status domain.Status,
	now time.Time,
	cursor string,
	limit int,
) (*ports.QuotePage, error) {
	start, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Quotes),
		IndexName:              aws.String(StatusExpiresIndex),
		KeyConditionExpression: aws.String("#status = :status AND #expires < :now"),
		ExpressionAttributeNames: map[string]string{
			"#status":  "status",
			"#expires": "expires_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
			":now":    &types.AttributeValueMemberS{Value: formatTime(now)},
		},
		ExclusiveStartKey: start,
		Limit:             aws.Int32(pageLimit(limit)),
	})
	if err != nil {
		return nil, storeErr("listing expirable quotes", err)
	}

	return toPage(out.Items, out.LastEvaluatedKey)
}

// AppendEvent implements ports.QuoteStore.
func (s *Store) AppendEvent(ctx context.Context, event domain.LifecycleEvent) error {
	av, err := attributevalue.MarshalMap(toEventItem(event))
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Events),
		Item:      av,
	}); err != nil {
		return storeErr("appending event", err)
	}

	return nil
}

// ListEvents implements ports.QuoteStore.
func (s *Store) ListEvents(ctx context.Context, quoteID string) ([]domain.LifecycleEvent, error) {
	paginator := dynamodb.NewQueryPaginator(s.api, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tables.Events),
		KeyConditionExpression:    aws.String("#qid = :qid"),
		ExpressionAttributeNames:  map[string]string{"#qid": "quote_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":qid": &types.AttributeValueMemberS{Value: quoteID}},
		ScanIndexForward:          aws.Bool(true),
	})

	var events []domain.LifecycleEvent

	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storeErr("listing events", err)
		}

		var items []eventItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshalling events: %w", err)
		}

		for i := range items {
			ev, err := items[i].toDomain()
			if err != nil {
				return nil, err
			}

			events = append(events, ev)
		}
	}

	return events, nil
}

func pageLimit(limit int) int32 {
	if limit <= 0 || limit > 1000 {
		return DefaultPageSize
	}

	return int32(limit)
}

func unmarshalQuote(av map[string]types.AttributeValue) (*domain.Quote, error) {
	var it quoteItem
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return nil, fmt.Errorf("unmarshalling quote: %w", err)
	}

	return it.toDomain()
}

func toPage(items []map[string]types.AttributeValue, last map[string]types.AttributeValue) (*ports.QuotePage, error) {
	p := &ports.QuotePage{Items: make([]*domain.Quote, 0, len(items))}

	for _, av := range items {
		q, err := unmarshalQuote(av)
		if err != nil {
			return nil, err
		}

		p.Items = append(p.Items, q)
	}

	cursor, err := encodeCursor(last)
	if err != nil {
		return nil, err
	}

	p.NextCursor = cursor

	return p, nil
}

func storeErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}
