package mongo

import (
	"context"
	"errors"
	"fmt"

	apperrors "carbroker/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// illegalOperation is what a standalone mongod answers to a transaction.
const illegalOperation = 20

type TransactionFunc func(ctx mongo.SessionContext) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{
		client: client,
	}
}

// ExecuteTransaction runs fn in a transaction. On a standalone server, which
// cannot run transactions, fn runs once inside a plain session instead.
func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})

	if err != nil && standalone(err) {
		err = fn(mongo.NewSessionContext(ctx, session))
	}
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

func standalone(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(illegalOperation)
}
