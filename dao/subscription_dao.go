// api/dao/subscription_dao.go
package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/telgate/telgate/api/audit"
	apierrors "github.com/telgate/telgate/api/errors"
	logger "github.com/telgate/telgate/api/logging"
	"github.com/telgate/telgate/api/model"
	helper_util "github.com/telgate/telgate/api/util/helper"
)

type SubscriptionDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewSubscriptionDAO(driver neo4j.Driver, auditService audit.Service) *SubscriptionDAO {
	dao := &SubscriptionDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint", zap.Error(err))
	}
	return dao
}

// EnsureUniqueConstraint ensures the unique constraint on the subscription ID
func (dao *SubscriptionDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on subscription ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("Failed to close Neo4j session", zap.Error(err))
		}
	}()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_subscription_id IF NOT EXISTS
        FOR (s:SUBSCRIPTION) REQUIRE s.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		if err != nil {
			logger.Error("Failed to create unique constraint", zap.Error(err))
			return nil, fmt.Errorf("failed to create unique constraint: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on subscription ID", zap.Error(err))
		return err
	}

	return nil
}

// UpsertSubscription creates or updates a subscription node
func (dao *SubscriptionDAO) UpsertSubscription(ctx context.Context, sub model.Subscription) error {
	logger.Info("Upserting subscription", zap.Int("subscriptionID", sub.ID))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (s:SUBSCRIPTION {id: $id})
        ON CREATE SET s.createdAt = $now
        SET s.carrierId = $carrierId,
            s.userId = $userId,
            s.active = $active,
            s.updatedAt = $now
        RETURN s.id as id
        `
		parameters := map[string]interface{}{
			"id":        sub.ID,
			"carrierId": sub.CarrierID,
			"userId":    sub.UserID,
			"active":    sub.Active,
			"now":       time.Now().Format(time.RFC3339),
		}
		result, err := transaction.Run(query, parameters)
		if err != nil {
			return nil, apierrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apierrors.ErrDatabaseOperation
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to upsert subscription", zap.Error(err), zap.Int("subscriptionID", sub.ID))
		return err
	}

	if dao.AuditService != nil {
		dao.AuditService.LogFactChange(ctx, audit.FactChange{
			Timestamp: time.Now(),
			Kind:      "subscription",
			Key:       fmt.Sprintf("%d", sub.ID),
			Detail:    fmt.Sprintf("carrier=%s user=%d active=%t", sub.CarrierID, sub.UserID, sub.Active),
		})
	}
	return nil
}

// GetSubscription retrieves a subscription by ID
func (dao *SubscriptionDAO) GetSubscription(ctx context.Context, subID int) (*model.Subscription, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (s:SUBSCRIPTION {id: $id})
        RETURN s.id as id, s.carrierId as carrierId, s.userId as userId, s.active as active,
               s.createdAt as createdAt, s.updatedAt as updatedAt
        `
		records, err := transaction.Run(query, map[string]interface{}{"id": subID})
		if err != nil {
			return nil, apierrors.ErrDatabaseOperation
		}
		if !records.Next() {
			return nil, apierrors.ErrSubscriptionNotFound
		}
		record := records.Record()
		sub := &model.Subscription{
			ID:        int(record.Values[0].(int64)),
			CarrierID: record.Values[1].(string),
			UserID:    int(record.Values[2].(int64)),
			Active:    record.Values[3].(bool),
		}
		if createdAt, err := helper_util.ParseNullableTime(record.Values[4]); err == nil && createdAt != nil {
			sub.CreatedAt = *createdAt
		}
		if updatedAt, err := helper_util.ParseNullableTime(record.Values[5]); err == nil && updatedAt != nil {
			sub.UpdatedAt = *updatedAt
		}
		return sub, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.Subscription), nil
}

// ActiveSubscriptionIDs lists the IDs of every active subscription. The
// result may be empty but is never nil.
func (dao *SubscriptionDAO) ActiveSubscriptionIDs(ctx context.Context) ([]int, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (s:SUBSCRIPTION {active: true})
        RETURN s.id as id
        ORDER BY s.id
        `
		records, err := transaction.Run(query, nil)
		if err != nil {
			return nil, apierrors.ErrDatabaseOperation
		}
		ids := []int{}
		for records.Next() {
			ids = append(ids, int(records.Record().Values[0].(int64)))
		}
		return ids, nil
	})
	if err != nil {
		logger.Error("Failed to list active subscriptions", zap.Error(err))
		return nil, err
	}
	return result.([]int), nil
}

// AddCarrierPrivilegeGrant records carrier-delegated authority for a UID on
// one subscription
func (dao *SubscriptionDAO) AddCarrierPrivilegeGrant(ctx context.Context, grant model.CarrierPrivilegeGrant) (string, error) {
	logger.Info("Adding carrier privilege grant",
		zap.Int("subscriptionID", grant.SubscriptionID), zap.Int("uid", grant.UID))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (s:SUBSCRIPTION {id: $subId})
        MERGE (a:APP {uid: $uid})
        MERGE (s)-[g:CARRIER_PRIVILEGE]->(a)
        ON CREATE SET g.id = $id, g.createdAt = $now
        SET g.certHash = $certHash
        RETURN g.id as id
        `
		parameters := map[string]interface{}{
			"subId":    grant.SubscriptionID,
			"uid":      grant.UID,
			"id":       grant.ID,
			"certHash": grant.CertHash,
			"now":      time.Now().Format(time.RFC3339),
		}
		records, err := transaction.Run(query, parameters)
		if err != nil {
			return nil, apierrors.ErrDatabaseOperation
		}
		if !records.Next() {
			return nil, apierrors.ErrSubscriptionNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to add carrier privilege grant", zap.Error(err),
			zap.Int("subscriptionID", grant.SubscriptionID), zap.Int("uid", grant.UID))
		return "", err
	}

	if dao.AuditService != nil {
		dao.AuditService.LogFactChange(ctx, audit.FactChange{
			Timestamp: time.Now(),
			Kind:      "carrier_privilege",
			Key:       fmt.Sprintf("%d:%d", grant.SubscriptionID, grant.UID),
			Detail:    "granted",
		})
	}
	return grant.ID, nil
}

// RemoveCarrierPrivilegeGrant revokes carrier-delegated authority
func (dao *SubscriptionDAO) RemoveCarrierPrivilegeGrant(ctx context.Context, subID, uid int) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (:SUBSCRIPTION {id: $subId})-[g:CARRIER_PRIVILEGE]->(:APP {uid: $uid})
        DELETE g
        `
		_, err := transaction.Run(query, map[string]interface{}{"subId": subID, "uid": uid})
		if err != nil {
			return nil, apierrors.ErrDatabaseOperation
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to remove carrier privilege grant", zap.Error(err),
			zap.Int("subscriptionID", subID), zap.Int("uid", uid))
		return err
	}

	if dao.AuditService != nil {
		dao.AuditService.LogFactChange(ctx, audit.FactChange{
			Timestamp: time.Now(),
			Kind:      "carrier_privilege",
			Key:       fmt.Sprintf("%d:%d", subID, uid),
			Detail:    "revoked",
		})
	}
	return nil
}

// HasCarrierPrivilege reports whether the UID holds carrier privilege on the
// subscription. Only grants on the requested subscription count.
func (dao *SubscriptionDAO) HasCarrierPrivilege(ctx context.Context, subID, uid int) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (:SUBSCRIPTION {id: $subId})-[g:CARRIER_PRIVILEGE]->(:APP {uid: $uid})
        RETURN count(g) > 0 as has
        `
		records, err := transaction.Run(query, map[string]interface{}{"subId": subID, "uid": uid})
		if err != nil {
			return nil, apierrors.ErrDatabaseOperation
		}
		if !records.Next() {
			return false, nil
		}
		return records.Record().Values[0].(bool), nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// IsAssociatedWithUser reports whether the subscription belongs to the user.
// A subscription with no node on the device fails with ErrUnknownSubscription
// so callers can map it to a negative answer.
func (dao *SubscriptionDAO) IsAssociatedWithUser(ctx context.Context, subID, userID int) (bool, error) {
	sub, err := dao.GetSubscription(ctx, subID)
	if err != nil {
		if err == apierrors.ErrSubscriptionNotFound {
			return false, fmt.Errorf("subscription %d: %w", subID, apierrors.ErrUnknownSubscription)
		}
		return false, err
	}
	return sub.UserID == userID, nil
}
