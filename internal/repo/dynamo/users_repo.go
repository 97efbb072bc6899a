package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/observability"
)

const keyAttr = "userId"

// API is the subset of *dynamodb.Client the repo needs.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type UsersRepo struct {
	client API
	table  string
	prom   *observability.Prom
}

func NewUsersRepo(client API, table string, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{client: client, table: table, prom: prom}
}

func (r *UsersRepo) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if r.prom != nil {
		return r.prom.ObserveStore(ctx, op, fn)
	}
	return fn(ctx)
}

type item struct {
	UserID string `dynamodbav:"userId"`
	Name   string `dynamodbav:"name"`
	Email  string `dynamodbav:"email"`
}

func (i item) toUser() user.User {
	return user.User{UserID: i.UserID, Name: i.Name, Email: i.Email}
}

func key(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttr: &types.AttributeValueMemberS{Value: userID},
	}
}

func (r *UsersRepo) Put(ctx context.Context, u user.User) error {
	av, err := attributevalue.MarshalMap(item{UserID: u.UserID, Name: u.Name, Email: u.Email})
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return r.observe(ctx, "users.put", func(ctx context.Context) error {
		_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.table),
			Item:      av,
		})
		return err
	})
}

func (r *UsersRepo) Get(ctx context.Context, userID string) (user.User, error) {
	var out *dynamodb.GetItemOutput

	err := r.observe(ctx, "users.get", func(ctx context.Context) error {
		var err error
		out, err = r.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(r.table),
			Key:            key(userID),
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return err
		}
		if len(out.Item) == 0 {
			return user.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return user.User{}, err
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return user.User{}, fmt.Errorf("unmarshal user: %w", err)
	}

	return it.toUser(), nil
}

// Scan walks every page of the table. A nil filter email scans everything.
func (r *UsersRepo) Scan(ctx context.Context, filter user.ScanFilter) ([]user.User, error) {
	in := &dynamodb.ScanInput{
		TableName: aws.String(r.table),
	}

	if filter.Email != nil {
		expr, err := expression.NewBuilder().
			WithFilter(expression.Name("email").Equal(expression.Value(*filter.Email))).
			Build()
		if err != nil {
			return nil, fmt.Errorf("build scan filter: %w", err)
		}

		in.FilterExpression = expr.Filter()
		in.ExpressionAttributeNames = expr.Names()
		in.ExpressionAttributeValues = expr.Values()
	}

	out := make([]user.User, 0)

	err := r.observe(ctx, "users.scan", func(ctx context.Context) error {
		pages := dynamodb.NewScanPaginator(r.client, in)

		for pages.HasMorePages() {
			page, err := pages.NextPage(ctx)
			if err != nil {
				return err
			}

			var items []item
			if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
				return fmt.Errorf("unmarshal scan page: %w", err)
			}

			for _, it := range items {
				out = append(out, it.toUser())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Update sets only the supplied attributes, guarded by attribute_exists(userId).
func (r *UsersRepo) Update(ctx context.Context, userID string, changes user.Changes) (user.User, error) {
	if changes.IsEmpty() {
		u, err := r.Get(ctx, userID)
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, user.ErrConditionFailed
		}
		return u, err
	}

	var update expression.UpdateBuilder
	if changes.Name != nil {
		update = update.Set(expression.Name("name"), expression.Value(*changes.Name))
	}
	if changes.Email != nil {
		update = update.Set(expression.Name("email"), expression.Value(*changes.Email))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(keyAttr))).
		Build()
	if err != nil {
		return user.User{}, fmt.Errorf("build update: %w", err)
	}

	var out *dynamodb.UpdateItemOutput

	err = r.observe(ctx, "users.update", func(ctx context.Context) error {
		var err error
		out, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(r.table),
			Key:                       key(userID),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ReturnValues:              types.ReturnValueAllNew,
		})
		if isConditionFailed(err) {
			return user.ErrConditionFailed
		}
		return err
	})
	if err != nil {
		return user.User{}, err
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return user.User{}, fmt.Errorf("unmarshal updated user: %w", err)
	}

	return it.toUser(), nil
}

func (r *UsersRepo) Delete(ctx context.Context, userID string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(keyAttr))).
		Build()
	if err != nil {
		return fmt.Errorf("build delete condition: %w", err)
	}

	return r.observe(ctx, "users.delete", func(ctx context.Context) error {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName:                aws.String(r.table),
			Key:                      key(userID),
			ConditionExpression:      expr.Condition(),
			ExpressionAttributeNames: expr.Names(),
		})
		if isConditionFailed(err) {
			return user.ErrConditionFailed
		}
		return err
	})
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.table),
	})
	return err
}

func isConditionFailed(err error) bool {
	if err == nil {
		return false
	}
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
