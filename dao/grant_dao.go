// api/dao/grant_dao.go
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
)

// GrantDAO stores static permission grants and app-op settings, the facts
// behind the permission and app-op oracles.
type GrantDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewGrantDAO(driver neo4j.Driver, auditService audit.Service) *GrantDAO {
	return &GrantDAO{Driver: driver, AuditService: auditService}
}

// UpsertPermissionGrant grants a permission to a UID
func (dao *GrantDAO) UpsertPermissionGrant(ctx context.Context, grant model.PermissionGrant) (string, error) {
	logger.Info("Upserting permission grant",
		zap.String("permission", grant.Permission), zap.Int("uid", grant.UID))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (a:APP {uid: $uid})
        MERGE (p:PERMISSION {name: $permission})
        MERGE (a)-[g:HOLDS]->(p)
        ON CREATE SET g.id = $id, g.createdAt = $now
        RETURN g.id as id
        `
		parameters := map[string]interface{}{
			"uid":        grant.UID,
			"permission": grant.Permission,
			"id":         grant.ID,
			"now":        time.Now().Format(time.RFC3339),
		}
		records, err := transaction.Run(query, parameters)
		if err != nil {
			return nil, apierrors.ErrDatabaseOperation
		}
		if !records.Next() {
			return nil, apierrors.ErrDatabaseOperation
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to upsert permission grant", zap.Error(err),
			zap.String("permission", grant.Permission), zap.Int("uid", grant.UID))
		return "", err
	}

	if dao.AuditService != nil {
		dao.AuditService.LogFactChange(ctx, audit.FactChange{
			Timestamp: time.Now(),
			Kind:      "permission",
			Key:       fmt.Sprintf("%s:%d", grant.Permission, grant.UID),
			Detail:    "granted",
		})
	}
	return grant.ID, nil
}

// RevokePermissionGrant removes a permission from a UID
func (dao *GrantDAO) RevokePermissionGrant(ctx context.Context, permission string, uid int) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (:APP {uid: $uid})-[g:HOLDS]->(:PERMISSION {name: $permission})
        DELETE g
        `
		_, err := transaction.Run(query, map[string]interface{}{"uid": uid, "permission": permission})
		if err != nil {
			return nil, apierrors.ErrDatabaseOperation
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to revoke permission grant", zap.Error(err),
			zap.String("permission", permission), zap.Int("uid", uid))
		return err
	}

	if dao.AuditService != nil {
		dao.AuditService.LogFactChange(ctx, audit.FactChange{
			Timestamp: time.Now(),
			Kind:      "permission",
			Key:       fmt.Sprintf("%s:%d", permission, uid),
			Detail:    "revoked",
		})
	}
	return nil
}

// HasPermission reports whether a UID holds a permission
func (dao *GrantDAO) HasPermission(ctx context.Context, permission string, uid int) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (:APP {uid: $uid})-[g:HOLDS]->(:PERMISSION {name: $permission})
        RETURN count(g) > 0 as has
        `
		records, err := transaction.Run(query, map[string]interface{}{"uid": uid, "permission": permission})
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

// UpsertAppOpSetting sets the runtime mode of an op for a (uid, package) pair
func (dao *GrantDAO) UpsertAppOpSetting(ctx context.Context, setting model.AppOpSetting) (string, error) {
	logger.Info("Upserting app-op setting",
		zap.String("op", setting.Op), zap.Int("uid", setting.UID), zap.String("mode", setting.Mode))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if setting.ID == "" {
		setting.ID = uuid.New().String()
	}

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (a:APP {uid: $uid})
        MERGE (o:APP_OP {name: $op, package: $package, uid: $uid})
        MERGE (a)-[r:OP_MODE]->(o)
        ON CREATE SET r.id = $id
        SET o.mode = $mode, o.updatedAt = $now
        RETURN r.id as id
        `
		parameters := map[string]interface{}{
			"uid":     setting.UID,
			"op":      setting.Op,
			"package": setting.Package,
			"mode":    setting.Mode,
			"id":      setting.ID,
			"now":     time.Now().Format(time.RFC3339),
		}
		records, err := transaction.Run(query, parameters)
		if err != nil {
			return nil, apierrors.ErrDatabaseOperation
		}
		if !records.Next() {
			return nil, apierrors.ErrDatabaseOperation
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to upsert app-op setting", zap.Error(err),
			zap.String("op", setting.Op), zap.Int("uid", setting.UID))
		return "", err
	}

	if dao.AuditService != nil {
		dao.AuditService.LogFactChange(ctx, audit.FactChange{
			Timestamp: time.Now(),
			Kind:      "app_op",
			Key:       fmt.Sprintf("%s:%d:%s", setting.Op, setting.UID, setting.Package),
			Detail:    setting.Mode,
		})
	}
	return setting.ID, nil
}

// AppOpMode returns the stored mode for an op, or "" when nothing is stored
func (dao *GrantDAO) AppOpMode(ctx context.Context, op string, uid int, pkg string) (string, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (o:APP_OP {name: $op, package: $package, uid: $uid})
        RETURN o.mode as mode
        `
		records, err := transaction.Run(query, map[string]interface{}{
			"op": op, "package": pkg, "uid": uid,
		})
		if err != nil {
			return nil, apierrors.ErrDatabaseOperation
		}
		if !records.Next() {
			return "", nil
		}
		return records.Record().Values[0].(string), nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
